/*
 * Copyright 2026 The Scribe Authors. All rights reserved.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package gateway_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"

	"github.com/scribe-team/scribe/server/gateway"
)

func TestConfig(t *testing.T) {
	validConf := gateway.Config{
		Port:         8082,
		PingInterval: "30s",
		WriteTimeout: "10s",
	}
	assert.NoError(t, validConf.Validate())

	conf1 := validConf
	conf1.Port = 70000
	assert.ErrorIs(t, conf1.Validate(), gateway.ErrInvalidGatewayPort)

	conf2 := validConf
	conf2.PingInterval = "30"
	assert.ErrorIs(t, conf2.Validate(), gateway.ErrInvalidPingInterval)

	conf3 := validConf
	conf3.WriteTimeout = "-1s"
	assert.ErrorIs(t, conf3.Validate(), gateway.ErrInvalidWriteTimeout)

	conf4 := validConf
	conf4.MaxMessagesPerSecond = -1
	assert.ErrorIs(t, conf4.Validate(), gateway.ErrInvalidMessageRate)
}

func TestNewLimiter(t *testing.T) {
	t.Run("unlimited test", func(t *testing.T) {
		conf := gateway.Config{}
		assert.Equal(t, rate.Inf, conf.NewLimiter().Limit())
	})

	t.Run("burst defaults to rate test", func(t *testing.T) {
		conf := gateway.Config{MaxMessagesPerSecond: 20}
		limiter := conf.NewLimiter()
		assert.Equal(t, rate.Limit(20), limiter.Limit())
		assert.Equal(t, 20, limiter.Burst())
	})

	t.Run("fractional rate test", func(t *testing.T) {
		conf := gateway.Config{MaxMessagesPerSecond: 0.5}
		assert.Equal(t, 1, conf.NewLimiter().Burst())

		conf.MessageBurst = 4
		assert.Equal(t, 4, conf.NewLimiter().Burst())
	})
}
