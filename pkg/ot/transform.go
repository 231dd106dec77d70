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

package ot

// Tie decides the placement of two inserts at the same position.
type Tie int

const (
	// TieByText orders concurrent inserts at the same position by their text.
	// It is used when both operations come from the same client.
	TieByText Tie = iota

	// OpFirst places the transformed operation before the one it is
	// transformed against.
	OpFirst

	// AgainstFirst places the operation it is transformed against first.
	AgainstFirst
)

// TieOf derives the tie for an operation from opClient transformed against an
// operation from againstClient: the lower client ID is placed first.
func TieOf(opClient, againstClient string) Tie {
	switch {
	case opClient < againstClient:
		return OpFirst
	case opClient > againstClient:
		return AgainstFirst
	default:
		return TieByText
	}
}

// Flip returns the tie seen from the other operation.
func (t Tie) Flip() Tie {
	switch t {
	case OpFirst:
		return AgainstFirst
	case AgainstFirst:
		return OpFirst
	default:
		return t
	}
}

func (t Tie) opFirst(op, against Operation) bool {
	switch t {
	case OpFirst:
		return true
	case AgainstFirst:
		return false
	default:
		return op.Text < against.Text
	}
}

// Transform rebases op over against, where both were generated on the same
// document state. Applying against and then the result has the effect op was
// meant to have. For any a and b,
//
//	Apply(Apply(s, a), Transform(b, a, t)) == Apply(Apply(s, b), Transform(a, b, t.Flip()))
//
// An insert that falls strictly inside a concurrently deleted range becomes
// a no-op at the start of that range, since the other side extends its delete
// over the inserted text.
func Transform(op, against Operation, tie Tie) Operation {
	switch {
	case op.Kind == Insert && against.Kind == Insert:
		return transformInsertInsert(op, against, tie)
	case op.Kind == Insert && against.Kind == Delete:
		return transformInsertDelete(op, against)
	case op.Kind == Delete && against.Kind == Insert:
		return transformDeleteInsert(op, against)
	case op.Kind == Delete && against.Kind == Delete:
		return transformDeleteDelete(op, against)
	default:
		return op
	}
}

// TransformPair transforms a and b against each other. tie is seen from a.
func TransformPair(a, b Operation, tie Tie) (Operation, Operation) {
	return Transform(a, b, tie), Transform(b, a, tie.Flip())
}

func transformInsertInsert(op, against Operation, tie Tie) Operation {
	if against.Position < op.Position ||
		(against.Position == op.Position && !tie.opFirst(op, against)) {
		op.Position += against.TextLen()
	}
	return op
}

func transformInsertDelete(op, against Operation) Operation {
	start, end := against.Position, against.Position+against.Length
	switch {
	case op.Position <= start:
		return op
	case op.Position >= end:
		op.Position -= against.Length
		return op
	default:
		return NewInsert(start, "")
	}
}

func transformDeleteInsert(op, against Operation) Operation {
	switch {
	case against.Position <= op.Position:
		op.Position += against.TextLen()
	case against.Position < op.Position+op.Length:
		op.Length += against.TextLen()
	}
	return op
}

func transformDeleteDelete(op, against Operation) Operation {
	start, end := op.Position, op.Position+op.Length
	aStart, aEnd := against.Position, against.Position+against.Length

	overlap := max(0, min(end, aEnd)-max(start, aStart))
	if aStart < start {
		op.Position -= min(aEnd, start) - aStart
	}
	op.Length -= overlap
	return op
}
