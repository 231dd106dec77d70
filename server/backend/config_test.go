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

package backend_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/scribe-team/scribe/server/backend"
)

func newValidBackendConf() backend.Config {
	return backend.Config{
		SnapshotInterval:           100,
		MaxPushRetries:             3,
		SessionDeactivateThreshold: "1h",
		PublishTimeout:             "100ms",
	}
}

func TestConfig(t *testing.T) {
	t.Run("validate test", func(t *testing.T) {
		validConf := newValidBackendConf()
		assert.NoError(t, validConf.Validate())

		conf1 := validConf
		conf1.SessionDeactivateThreshold = "hour"
		assert.Error(t, conf1.Validate())

		conf2 := validConf
		conf2.PublishTimeout = "100 ms"
		assert.Error(t, conf2.Validate())

		conf3 := validConf
		conf3.SnapshotInterval = 0
		assert.Error(t, conf3.Validate())

		conf4 := validConf
		conf4.MaxPushRetries = 0
		assert.Error(t, conf4.Validate())

		conf5 := validConf
		conf5.MaxSubscribersPerDocument = -1
		assert.Error(t, conf5.Validate())
	})

	t.Run("parse test", func(t *testing.T) {
		validConf := newValidBackendConf()

		assert.Equal(t, time.Hour, validConf.ParseSessionDeactivateThreshold())
		assert.Equal(t, 100*time.Millisecond, validConf.ParsePublishTimeout())
	})
}
