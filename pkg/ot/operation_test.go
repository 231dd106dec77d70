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

package ot_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scribe-team/scribe/pkg/ot"
)

func TestApply(t *testing.T) {
	t.Run("insert boundaries test", func(t *testing.T) {
		content, err := ot.Apply("ab", ot.NewInsert(0, "X"))
		assert.NoError(t, err)
		assert.Equal(t, "Xab", content)

		content, err = ot.Apply("ab", ot.NewInsert(2, "X"))
		assert.NoError(t, err)
		assert.Equal(t, "abX", content)

		_, err = ot.Apply("ab", ot.NewInsert(3, "X"))
		assert.ErrorIs(t, err, ot.ErrOutOfRange)

		_, err = ot.Apply("ab", ot.NewInsert(-1, "X"))
		assert.ErrorIs(t, err, ot.ErrOutOfRange)
	})

	t.Run("delete boundaries test", func(t *testing.T) {
		content, err := ot.Apply("abc", ot.NewDelete(1, 1))
		assert.NoError(t, err)
		assert.Equal(t, "ac", content)

		// A delete running past the end is truncated.
		content, err = ot.Apply("abc", ot.NewDelete(1, 10))
		assert.NoError(t, err)
		assert.Equal(t, "a", content)

		content, err = ot.Apply("abc", ot.NewDelete(3, 2))
		assert.NoError(t, err)
		assert.Equal(t, "abc", content)

		_, err = ot.Apply("abc", ot.NewDelete(4, 1))
		assert.ErrorIs(t, err, ot.ErrOutOfRange)
	})

	t.Run("no-op test", func(t *testing.T) {
		content, err := ot.Apply("abc", ot.NewInsert(1, ""))
		assert.NoError(t, err)
		assert.Equal(t, "abc", content)

		content, err = ot.Apply("abc", ot.NewDelete(2, 0))
		assert.NoError(t, err)
		assert.Equal(t, "abc", content)
	})

	t.Run("positions count runes test", func(t *testing.T) {
		content, err := ot.Apply("héllo", ot.NewInsert(2, "✓"))
		assert.NoError(t, err)
		assert.Equal(t, "hé✓llo", content)

		content, err = ot.Apply("日本語", ot.NewDelete(1, 1))
		assert.NoError(t, err)
		assert.Equal(t, "日語", content)
	})

	t.Run("unknown kind test", func(t *testing.T) {
		_, err := ot.Apply("abc", ot.Operation{Kind: "replace"})
		assert.ErrorIs(t, err, ot.ErrInvalidOperation)
	})
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, ot.NewDelete(1, 2), ot.Normalize("abc", ot.NewDelete(1, 10)))
	assert.Equal(t, ot.NewDelete(1, 1), ot.Normalize("abc", ot.NewDelete(1, 1)))
	assert.Equal(t, ot.NewDelete(5, 1), ot.Normalize("abc", ot.NewDelete(5, 1)))
	assert.Equal(t, ot.NewInsert(9, "x"), ot.Normalize("abc", ot.NewInsert(9, "x")))
	assert.Equal(t, ot.NewDelete(1, 1), ot.Normalize("aé", ot.NewDelete(1, 3)))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		op   ot.Operation
		ok   bool
	}{
		{"insert", ot.NewInsert(0, "a"), true},
		{"delete", ot.NewDelete(3, 1), true},
		{"negative position", ot.NewInsert(-1, "a"), false},
		{"empty insert", ot.NewInsert(0, ""), false},
		{"zero delete", ot.NewDelete(0, 0), false},
		{"negative delete", ot.NewDelete(0, -2), false},
		{"delete with text", ot.Operation{Kind: ot.Delete, Length: 1, Text: "a"}, false},
		{"unknown kind", ot.Operation{Kind: "move", Position: 1}, false},
		{"invalid utf8", ot.NewInsert(0, string([]byte{0xff})), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ot.Validate(tt.op)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ot.ErrInvalidOperation)
			}
		})
	}
}

func TestInvert(t *testing.T) {
	t.Run("insert test", func(t *testing.T) {
		op := ot.NewInsert(1, "XY")
		content, err := ot.Apply("ab", op)
		require.NoError(t, err)

		content, err = ot.Apply(content, ot.Invert(op, ""))
		assert.NoError(t, err)
		assert.Equal(t, "ab", content)
	})

	t.Run("delete test", func(t *testing.T) {
		op := ot.NewDelete(1, 2)
		deleted := ot.Deleted("abcd", op)
		assert.Equal(t, "bc", deleted)

		content, err := ot.Apply("abcd", op)
		require.NoError(t, err)

		content, err = ot.Apply(content, ot.Invert(op, deleted))
		assert.NoError(t, err)
		assert.Equal(t, "abcd", content)
	})
}

func TestCompose(t *testing.T) {
	tests := []struct {
		name    string
		content string
		ops     []ot.Operation
		count   int
	}{
		{"typing", "", []ot.Operation{ot.NewInsert(0, "h"), ot.NewInsert(1, "i"), ot.NewInsert(2, "!")}, 1},
		{"insert inside insert", "ab", []ot.Operation{ot.NewInsert(1, "XY"), ot.NewInsert(2, "-")}, 1},
		{"forward delete", "abcdef", []ot.Operation{ot.NewDelete(1, 1), ot.NewDelete(1, 2)}, 1},
		{"backspace", "abcdef", []ot.Operation{ot.NewDelete(4, 1), ot.NewDelete(3, 1), ot.NewDelete(2, 1)}, 1},
		{"disjoint", "abcdef", []ot.Operation{ot.NewInsert(0, "X"), ot.NewDelete(4, 1)}, 2},
		{"insert then delete", "abc", []ot.Operation{ot.NewInsert(1, "X"), ot.NewDelete(1, 1)}, 2},
		{"no-ops dropped", "abc", []ot.Operation{ot.NewInsert(1, ""), ot.NewDelete(0, 0)}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			want, err := ot.ApplyAll(tt.content, tt.ops...)
			require.NoError(t, err)

			composed := ot.Compose(tt.ops)
			assert.Len(t, composed, tt.count)

			got, err := ot.ApplyAll(tt.content, composed...)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}
