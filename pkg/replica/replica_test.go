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

package replica_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scribe-team/scribe/pkg/document"
	"github.com/scribe-team/scribe/pkg/ot"
	"github.com/scribe-team/scribe/pkg/replica"
)

// server is a minimal authority that rebases and commits operations in the
// order they are pushed.
type server struct {
	content string
	log     []document.CommittedOperation
}

func (s *server) push(t *testing.T, v *document.VersionedOperation) document.CommittedOperation {
	op := v.Operation
	for _, c := range s.log[v.BaseVersion:] {
		op = ot.Transform(op, c.Operation, ot.TieOf(v.ClientID, c.OriginClientID))
	}
	op = ot.Normalize(s.content, op)

	content, err := ot.Apply(s.content, op)
	require.NoError(t, err)
	s.content = content

	c := document.CommittedOperation{
		DocumentID:     v.DocumentID,
		Version:        int64(len(s.log)) + 1,
		OriginClientID: v.ClientID,
		ClientSeq:      v.ClientSeq,
		Operation:      op,
	}
	s.log = append(s.log, c)
	return c
}

func snapshot(content string, version int64) document.Snapshot {
	return document.Snapshot{DocumentID: "doc", Version: version, Content: content}
}

func TestReplica(t *testing.T) {
	t.Run("one operation in flight test", func(t *testing.T) {
		r := replica.New("c1", snapshot("", 0))

		first, err := r.Edit(ot.NewInsert(0, "a"))
		require.NoError(t, err)
		require.NotNil(t, first)
		assert.Equal(t, uint32(1), first.ClientSeq)
		assert.Equal(t, int64(0), first.BaseVersion)

		second, err := r.Edit(ot.NewInsert(0, "b"))
		require.NoError(t, err)
		assert.Nil(t, second)
		assert.Equal(t, "ba", r.Content())
		assert.Len(t, r.Pending(), 2)

		next, err := r.Receive(document.CommittedOperation{
			DocumentID: "doc", Version: 1, OriginClientID: "c1", ClientSeq: 1,
			Operation: ot.NewInsert(0, "a"),
		})
		require.NoError(t, err)
		require.NotNil(t, next)
		assert.Equal(t, uint32(2), next.ClientSeq)
		assert.Equal(t, int64(1), next.BaseVersion)
		assert.Equal(t, ot.NewInsert(0, "b"), next.Operation)
		assert.Equal(t, "a", r.ServerContent())
		assert.Equal(t, "ba", r.Content())
	})

	t.Run("coalesce queued edits test", func(t *testing.T) {
		r := replica.New("c1", snapshot("", 0))
		_, err := r.Edit(ot.NewInsert(0, "x"))
		require.NoError(t, err)
		for i, ch := range []string{"h", "e", "y"} {
			_, err = r.Edit(ot.NewInsert(1+i, ch))
			require.NoError(t, err)
		}

		assert.Equal(t, []ot.Operation{ot.NewInsert(0, "x"), ot.NewInsert(1, "hey")}, r.Pending())
		assert.Equal(t, "xhey", r.Content())
	})

	t.Run("remote operation rebases pending test", func(t *testing.T) {
		r := replica.New("c2", snapshot("ab", 0))
		sent, err := r.Edit(ot.NewDelete(0, 1))
		require.NoError(t, err)
		require.NotNil(t, sent)
		assert.Equal(t, "b", r.Content())

		next, err := r.Receive(document.CommittedOperation{
			DocumentID: "doc", Version: 1, OriginClientID: "c1", ClientSeq: 1,
			Operation: ot.NewInsert(1, "X"),
		})
		require.NoError(t, err)
		assert.Nil(t, next)
		assert.Equal(t, "Xb", r.Content())
		assert.Equal(t, "aXb", r.ServerContent())
		assert.Equal(t, int64(1), r.KnownVersion())
		assert.Equal(t, []ot.Operation{ot.NewDelete(0, 1)}, r.Pending())
	})

	t.Run("duplicates and gaps test", func(t *testing.T) {
		r := replica.New("c1", snapshot("", 0))
		remote := document.CommittedOperation{
			DocumentID: "doc", Version: 1, OriginClientID: "c2", ClientSeq: 1,
			Operation: ot.NewInsert(0, "a"),
		}

		_, err := r.Receive(remote)
		require.NoError(t, err)
		_, err = r.Receive(remote)
		require.NoError(t, err)
		assert.Equal(t, "a", r.Content())

		remote.Version = 3
		_, err = r.Receive(remote)
		assert.ErrorIs(t, err, replica.ErrVersionGap)
		assert.Equal(t, int64(1), r.KnownVersion())
	})

	t.Run("resync discards pending test", func(t *testing.T) {
		r := replica.New("c1", snapshot("abc", 0))
		_, err := r.Edit(ot.NewInsert(3, "d"))
		require.NoError(t, err)

		r.Resync(snapshot("xyz", 7))
		assert.Equal(t, "xyz", r.Content())
		assert.Equal(t, int64(7), r.KnownVersion())
		assert.True(t, r.Synced())
		assert.Nil(t, r.InFlight())

		next, err := r.Edit(ot.NewInsert(0, "!"))
		require.NoError(t, err)
		assert.Equal(t, int64(7), next.BaseVersion)
		assert.Equal(t, uint32(2), next.ClientSeq)
	})

	t.Run("acknowledgment that differs rebuilds content test", func(t *testing.T) {
		r := replica.New("c1", snapshot("abcd", 0))
		_, err := r.Edit(ot.NewDelete(1, 2))
		require.NoError(t, err)
		_, err = r.Edit(ot.NewInsert(2, "Z"))
		require.NoError(t, err)
		assert.Equal(t, "adZ", r.Content())

		// The server committed a narrower delete than the one applied locally.
		next, err := r.Receive(document.CommittedOperation{
			DocumentID: "doc", Version: 1, OriginClientID: "c1", ClientSeq: 1,
			Operation: ot.NewDelete(1, 1),
		})
		require.NoError(t, err)
		require.NotNil(t, next)
		assert.Equal(t, ot.NewInsert(2, "Z"), next.Operation)
		assert.Equal(t, "acd", r.ServerContent())
		assert.Equal(t, "acZd", r.Content())
	})

	t.Run("invalid local edit test", func(t *testing.T) {
		r := replica.New("c1", snapshot("ab", 0))
		_, err := r.Edit(ot.NewInsert(5, "x"))
		assert.ErrorIs(t, err, ot.ErrOutOfRange)
		_, err = r.Edit(ot.NewInsert(0, ""))
		assert.ErrorIs(t, err, ot.ErrInvalidOperation)
		assert.True(t, r.Synced())
	})

	t.Run("undo test", func(t *testing.T) {
		r := replica.New("c1", snapshot("hello", 0))
		_, err := r.Undo()
		assert.ErrorIs(t, err, replica.ErrNothingToUndo)

		_, err = r.Edit(ot.NewDelete(1, 3))
		require.NoError(t, err)
		assert.Equal(t, "ho", r.Content())

		_, err = r.Receive(document.CommittedOperation{
			DocumentID: "doc", Version: 1, OriginClientID: "c2", ClientSeq: 1,
			Operation: ot.NewInsert(0, ">"),
		})
		require.NoError(t, err)
		assert.Equal(t, ">ho", r.Content())

		_, err = r.Undo()
		require.NoError(t, err)
		assert.Equal(t, ">hello", r.Content())

		_, err = r.Undo()
		assert.ErrorIs(t, err, replica.ErrNothingToUndo)
		assert.Equal(t, ">hello", r.Content())
	})

	t.Run("undo after undo test", func(t *testing.T) {
		r := replica.New("c1", snapshot("", 0))
		_, err := r.Edit(ot.NewInsert(0, "abc"))
		require.NoError(t, err)

		_, err = r.Undo()
		require.NoError(t, err)
		assert.Equal(t, "", r.Content())

		_, err = r.Undo()
		assert.ErrorIs(t, err, replica.ErrNothingToUndo)
		assert.Equal(t, "", r.Content())

		_, err = r.Edit(ot.NewInsert(0, "x"))
		require.NoError(t, err)
		_, err = r.Undo()
		require.NoError(t, err)
		assert.Equal(t, "", r.Content())
	})
}

func TestReplicaScenarios(t *testing.T) {
	t.Run("insert and delete from version zero test", func(t *testing.T) {
		s := &server{content: "ab"}
		x := replica.New("x", snapshot("ab", 0))
		y := replica.New("y", snapshot("ab", 0))

		vx, err := x.Edit(ot.NewInsert(1, "X"))
		require.NoError(t, err)
		vy, err := y.Edit(ot.NewDelete(0, 1))
		require.NoError(t, err)

		c1 := s.push(t, vx)
		c2 := s.push(t, vy)
		assert.Equal(t, "Xb", s.content)

		for _, r := range []*replica.Replica{x, y} {
			for _, c := range []document.CommittedOperation{c1, c2} {
				_, err := r.Receive(c)
				require.NoError(t, err)
			}
			assert.Equal(t, "Xb", r.Content())
			assert.True(t, r.Synced())
		}
	})

	t.Run("same position inserts in either order test", func(t *testing.T) {
		for _, yFirst := range []bool{false, true} {
			s := &server{}
			one := replica.New("1", snapshot("", 0))
			two := replica.New("2", snapshot("", 0))

			v1, err := one.Edit(ot.NewInsert(0, "A"))
			require.NoError(t, err)
			v2, err := two.Edit(ot.NewInsert(0, "B"))
			require.NoError(t, err)

			var committed []document.CommittedOperation
			if yFirst {
				committed = append(committed, s.push(t, v2), s.push(t, v1))
			} else {
				committed = append(committed, s.push(t, v1), s.push(t, v2))
			}
			assert.Equal(t, "AB", s.content)

			for _, r := range []*replica.Replica{one, two} {
				for _, c := range committed {
					_, err := r.Receive(c)
					require.NoError(t, err)
				}
				assert.Equal(t, "AB", r.Content())
			}
		}
	})
}

// TestReplicaConvergence drives replicas with random edits and random delivery
// interleavings against the minimal server above.
func TestReplicaConvergence(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))
	clients := []string{"a", "b", "c"}

	for round := 0; round < 50; round++ {
		s := &server{content: "seed"}
		replicas := make(map[string]*replica.Replica)
		outbox := make(map[string]*document.VersionedOperation)
		delivered := make(map[string]int)
		for _, id := range clients {
			replicas[id] = replica.New(id, snapshot("seed", 0))
		}

		deliver := func(id string) {
			r := replicas[id]
			c := s.log[delivered[id]]
			delivered[id]++
			next, err := r.Receive(c)
			require.NoError(t, err)
			if next != nil {
				outbox[id] = next
			}
		}

		for step := 0; step < 60; step++ {
			id := clients[rnd.Intn(len(clients))]
			r := replicas[id]

			switch rnd.Intn(3) {
			case 0:
				size := len([]rune(r.Content()))
				var op ot.Operation
				if size > 0 && rnd.Intn(2) == 0 {
					pos := rnd.Intn(size)
					op = ot.NewDelete(pos, 1+rnd.Intn(size-pos))
				} else {
					op = ot.NewInsert(rnd.Intn(size+1), string(rune('a'+rnd.Intn(26))))
				}
				next, err := r.Edit(op)
				require.NoError(t, err)
				if next != nil {
					outbox[id] = next
				}
			case 1:
				if v, ok := outbox[id]; ok {
					delete(outbox, id)
					s.push(t, v)
				}
			default:
				if delivered[id] < len(s.log) {
					deliver(id)
				}
			}
		}

		// Drain: push every outstanding operation and deliver everything.
		for len(outbox) > 0 || anyBehind(s, delivered, clients) {
			for _, id := range clients {
				if v, ok := outbox[id]; ok {
					delete(outbox, id)
					s.push(t, v)
				}
				for delivered[id] < len(s.log) {
					deliver(id)
				}
			}
		}

		for _, id := range clients {
			assert.Equal(t, s.content, replicas[id].Content(), "round %d client %s", round, id)
			assert.True(t, replicas[id].Synced())
		}
	}
}

func anyBehind(s *server, delivered map[string]int, clients []string) bool {
	for _, id := range clients {
		if delivered[id] < len(s.log) {
			return true
		}
	}
	return false
}
