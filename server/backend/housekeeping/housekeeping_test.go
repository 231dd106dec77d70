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

package housekeeping_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scribe-team/scribe/server/backend/background"
	"github.com/scribe-team/scribe/server/backend/housekeeping"
)

func TestHousekeeping(t *testing.T) {
	t.Run("run once test", func(t *testing.T) {
		bg := background.New(nil)
		defer bg.Close()

		h, err := housekeeping.New(&housekeeping.Config{Interval: "1h", CandidatesLimit: 7}, bg)
		require.NoError(t, err)

		var gotLimit int
		require.NoError(t, h.RegisterTask("count", func(ctx context.Context, limit int) (int, error) {
			gotLimit = limit
			return 1, nil
		}))
		assert.Error(t, h.RegisterTask("count", nil))

		require.NoError(t, h.RunOnce(context.Background()))
		assert.Equal(t, 7, gotLimit)
	})

	t.Run("task error test", func(t *testing.T) {
		bg := background.New(nil)
		defer bg.Close()

		h, err := housekeeping.New(&housekeeping.Config{Interval: "1h", CandidatesLimit: 1}, bg)
		require.NoError(t, err)

		errBoom := errors.New("boom")
		require.NoError(t, h.RegisterTask("fail", func(ctx context.Context, limit int) (int, error) {
			return 0, errBoom
		}))
		assert.ErrorIs(t, h.RunOnce(context.Background()), errBoom)
	})

	t.Run("periodic run test", func(t *testing.T) {
		bg := background.New(nil)

		h, err := housekeeping.New(&housekeeping.Config{Interval: "10ms", CandidatesLimit: 1}, bg)
		require.NoError(t, err)

		var runs atomic.Int32
		require.NoError(t, h.RegisterTask("tick", func(ctx context.Context, limit int) (int, error) {
			runs.Add(1)
			return 0, nil
		}))
		require.NoError(t, h.Start())
		assert.Error(t, h.RegisterTask("late", nil))

		assert.Eventually(t, func() bool {
			return runs.Load() >= 2
		}, time.Second, 5*time.Millisecond)

		bg.Close()
	})

	t.Run("invalid interval test", func(t *testing.T) {
		_, err := housekeeping.New(&housekeeping.Config{Interval: "soon"}, background.New(nil))
		assert.Error(t, err)
	})
}
