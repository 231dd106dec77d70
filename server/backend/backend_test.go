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
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scribe-team/scribe/server/backend"
	"github.com/scribe-team/scribe/server/backend/housekeeping"
	"github.com/scribe-team/scribe/server/backend/messagebroker"
	"github.com/scribe-team/scribe/server/profiling/prometheus"
)

func TestBackend(t *testing.T) {
	metrics, err := prometheus.NewMetrics()
	require.NoError(t, err)

	conf := newValidBackendConf()
	be, err := backend.New(
		&conf,
		nil,
		nil,
		&housekeeping.Config{Interval: "1m", CandidatesLimit: 10},
		metrics,
		nil,
	)
	require.NoError(t, err)

	assert.NotEmpty(t, be.Config.Hostname)
	assert.IsType(t, &messagebroker.DummyBroker{}, be.MsgBroker)

	docInfo, err := be.DB.FindOrCreateDocInfo(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), docInfo.Version)

	require.NoError(t, be.Start())
	assert.NoError(t, be.Shutdown())
}
