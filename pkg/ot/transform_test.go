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
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scribe-team/scribe/pkg/ot"
)

// operationsOn returns every insert of the given texts and every in-range
// delete on content.
func operationsOn(content string, texts ...string) []ot.Operation {
	size := len([]rune(content))

	var ops []ot.Operation
	for pos := 0; pos <= size; pos++ {
		for _, text := range texts {
			ops = append(ops, ot.NewInsert(pos, text))
		}
		for length := 1; pos+length <= size; length++ {
			ops = append(ops, ot.NewDelete(pos, length))
		}
	}
	return ops
}

func TestTransformSymmetry(t *testing.T) {
	for _, content := range []string{"", "a", "abcd", "日本語です"} {
		ops := operationsOn(content, "X", "YZ")

		for _, tie := range []ot.Tie{ot.OpFirst, ot.AgainstFirst} {
			for _, a := range ops {
				for _, b := range ops {
					left, err := ot.Apply(content, a)
					require.NoError(t, err)
					left, err = ot.Apply(left, ot.Transform(b, a, tie.Flip()))
					require.NoError(t, err, "%s then %s on %q", a, b, content)

					right, err := ot.Apply(content, b)
					require.NoError(t, err)
					right, err = ot.Apply(right, ot.Transform(a, b, tie))
					require.NoError(t, err, "%s then %s on %q", b, a, content)

					require.Equal(t, left, right, "a=%s b=%s content=%q tie=%d", a, b, content, tie)
				}
			}
		}
	}
}

func TestTransformSymmetryByText(t *testing.T) {
	ops := operationsOn("abc", "X", "Y", "X")
	for _, a := range ops {
		for _, b := range ops {
			left, err := ot.ApplyAll("abc", a, ot.Transform(b, a, ot.TieByText))
			require.NoError(t, err)
			right, err := ot.ApplyAll("abc", b, ot.Transform(a, b, ot.TieByText))
			require.NoError(t, err)
			require.Equal(t, left, right, "a=%s b=%s", a, b)
		}
	}
}

func TestTransform(t *testing.T) {
	tests := []struct {
		op      ot.Operation
		against ot.Operation
		tie     ot.Tie
		want    ot.Operation
	}{
		// insert vs insert
		{ot.NewInsert(3, "a"), ot.NewInsert(1, "xy"), ot.OpFirst, ot.NewInsert(5, "a")},
		{ot.NewInsert(1, "a"), ot.NewInsert(3, "xy"), ot.AgainstFirst, ot.NewInsert(1, "a")},
		{ot.NewInsert(2, "a"), ot.NewInsert(2, "xy"), ot.OpFirst, ot.NewInsert(2, "a")},
		{ot.NewInsert(2, "a"), ot.NewInsert(2, "xy"), ot.AgainstFirst, ot.NewInsert(4, "a")},

		// delete vs insert
		{ot.NewDelete(2, 2), ot.NewInsert(2, "xyz"), ot.OpFirst, ot.NewDelete(5, 2)},
		{ot.NewDelete(2, 2), ot.NewInsert(3, "xyz"), ot.OpFirst, ot.NewDelete(2, 5)},
		{ot.NewDelete(2, 2), ot.NewInsert(4, "xyz"), ot.OpFirst, ot.NewDelete(2, 2)},

		// insert vs delete
		{ot.NewInsert(2, "a"), ot.NewDelete(2, 3), ot.OpFirst, ot.NewInsert(2, "a")},
		{ot.NewInsert(3, "a"), ot.NewDelete(2, 3), ot.OpFirst, ot.NewInsert(2, "")},
		{ot.NewInsert(5, "a"), ot.NewDelete(2, 3), ot.OpFirst, ot.NewInsert(2, "a")},
		{ot.NewInsert(7, "a"), ot.NewDelete(2, 3), ot.OpFirst, ot.NewInsert(4, "a")},

		// delete vs delete
		{ot.NewDelete(5, 2), ot.NewDelete(1, 2), ot.OpFirst, ot.NewDelete(3, 2)},
		{ot.NewDelete(1, 2), ot.NewDelete(5, 2), ot.OpFirst, ot.NewDelete(1, 2)},
		{ot.NewDelete(2, 4), ot.NewDelete(4, 4), ot.OpFirst, ot.NewDelete(2, 2)},
		{ot.NewDelete(4, 4), ot.NewDelete(2, 4), ot.OpFirst, ot.NewDelete(2, 2)},
		{ot.NewDelete(3, 1), ot.NewDelete(2, 4), ot.OpFirst, ot.NewDelete(2, 0)},
		{ot.NewDelete(2, 4), ot.NewDelete(3, 1), ot.OpFirst, ot.NewDelete(2, 3)},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s against %s", tt.op, tt.against), func(t *testing.T) {
			assert.Equal(t, tt.want, ot.Transform(tt.op, tt.against, tt.tie))
		})
	}
}

func TestTieOf(t *testing.T) {
	assert.Equal(t, ot.OpFirst, ot.TieOf("1", "2"))
	assert.Equal(t, ot.AgainstFirst, ot.TieOf("2", "1"))
	assert.Equal(t, ot.TieByText, ot.TieOf("1", "1"))
	assert.Equal(t, ot.AgainstFirst, ot.OpFirst.Flip())
	assert.Equal(t, ot.TieByText, ot.TieByText.Flip())
}

func TestTransformScenarios(t *testing.T) {
	t.Run("insert before concurrent delete test", func(t *testing.T) {
		x := ot.NewInsert(1, "X")
		y := ot.NewDelete(0, 1)

		v1, err := ot.Apply("ab", x)
		require.NoError(t, err)
		assert.Equal(t, "aXb", v1)

		rebased := ot.Transform(y, x, ot.TieOf("y", "x"))
		assert.Equal(t, ot.NewDelete(0, 1), rebased)

		v2, err := ot.Apply(v1, rebased)
		require.NoError(t, err)
		assert.Equal(t, "Xb", v2)

		// The other order yields the same content.
		other, err := ot.ApplyAll("ab", y, ot.Transform(x, y, ot.TieOf("x", "y")))
		require.NoError(t, err)
		assert.Equal(t, "Xb", other)
	})

	t.Run("same position inserts test", func(t *testing.T) {
		a := ot.NewInsert(0, "A")
		b := ot.NewInsert(0, "B")

		aFirst, err := ot.ApplyAll("", a, ot.Transform(b, a, ot.TieOf("2", "1")))
		require.NoError(t, err)
		bFirst, err := ot.ApplyAll("", b, ot.Transform(a, b, ot.TieOf("1", "2")))
		require.NoError(t, err)

		assert.Equal(t, "AB", aFirst)
		assert.Equal(t, "AB", bFirst)
	})

	t.Run("insert inside concurrent delete test", func(t *testing.T) {
		a, b := ot.TransformPair(ot.NewInsert(2, "X"), ot.NewDelete(1, 2), ot.OpFirst)
		assert.True(t, a.IsNoop())

		left, err := ot.ApplyAll("abcd", ot.NewInsert(2, "X"), b)
		require.NoError(t, err)
		right, err := ot.ApplyAll("abcd", ot.NewDelete(1, 2), a)
		require.NoError(t, err)

		assert.Equal(t, "ad", left)
		assert.Equal(t, left, right)
	})
}
