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

// Package ot implements the operation model and the transform functions of
// Scribe's operational transformation engine for plain text.
//
// Positions and lengths are measured in runes. An insert with empty text and a
// delete with zero length are no-ops: Transform may produce them, clients
// never send them.
package ot

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/scribe-team/scribe/pkg/errors"
)

var (
	// ErrOutOfRange is returned when an operation addresses a position past
	// the end of the document.
	ErrOutOfRange = errors.OutOfRange("operation position out of range").WithCode("ErrOutOfRange")

	// ErrInvalidOperation is returned when an operation is not well-formed.
	ErrInvalidOperation = errors.InvalidArgument("invalid operation").WithCode("ErrInvalidOperation")
)

// Kind is the kind of an Operation.
type Kind string

const (
	// Insert splices text into the document.
	Insert Kind = "insert"

	// Delete removes a run of characters from the document.
	Delete Kind = "delete"
)

// Operation is an atomic edit of a plain-text document. Operations are values
// and are never mutated in place.
type Operation struct {
	Kind     Kind   `json:"kind" bson:"kind" validate:"required,oneof=insert delete"`
	Position int    `json:"position" bson:"position" validate:"gte=0"`
	Text     string `json:"text,omitempty" bson:"text,omitempty"`
	Length   int    `json:"length,omitempty" bson:"length,omitempty" validate:"gte=0"`
}

// NewInsert creates an insert of text at the given position.
func NewInsert(position int, text string) Operation {
	return Operation{Kind: Insert, Position: position, Text: text}
}

// NewDelete creates a delete of length runes starting at the given position.
func NewDelete(position, length int) Operation {
	return Operation{Kind: Delete, Position: position, Length: length}
}

// TextLen returns the length of the inserted text in runes.
func (o Operation) TextLen() int {
	return utf8.RuneCountInString(o.Text)
}

// IsNoop returns whether applying the operation leaves any content unchanged.
func (o Operation) IsNoop() bool {
	switch o.Kind {
	case Insert:
		return o.Text == ""
	case Delete:
		return o.Length <= 0
	default:
		return false
	}
}

// String returns a compact representation of the operation for logs.
func (o Operation) String() string {
	switch o.Kind {
	case Insert:
		return fmt.Sprintf("ins(%d,%q)", o.Position, o.Text)
	case Delete:
		return fmt.Sprintf("del(%d,%d)", o.Position, o.Length)
	default:
		return fmt.Sprintf("%s(%d)", o.Kind, o.Position)
	}
}

// Validate checks that the operation is something a client may submit.
func Validate(op Operation) error {
	if op.Position < 0 {
		return fmt.Errorf("negative position %d: %w", op.Position, ErrInvalidOperation)
	}

	switch op.Kind {
	case Insert:
		if op.Text == "" {
			return fmt.Errorf("empty insert: %w", ErrInvalidOperation)
		}
		if !utf8.ValidString(op.Text) {
			return fmt.Errorf("insert text is not valid UTF-8: %w", ErrInvalidOperation)
		}
	case Delete:
		if op.Length <= 0 {
			return fmt.Errorf("delete length %d: %w", op.Length, ErrInvalidOperation)
		}
		if op.Text != "" {
			return fmt.Errorf("delete carries text: %w", ErrInvalidOperation)
		}
	default:
		return fmt.Errorf("unknown kind %q: %w", op.Kind, ErrInvalidOperation)
	}

	return nil
}

// Apply applies op to content and returns the result.
//
// An insert fails with ErrOutOfRange when its position is past the end of
// content; inserting at the end appends. A delete fails with ErrOutOfRange
// when its position is past the end of content. A delete whose range runs
// past the end is truncated at the end of the document rather than rejected.
func Apply(content string, op Operation) (string, error) {
	if op.Kind != Insert && op.Kind != Delete {
		return "", fmt.Errorf("apply %s: %w", op, ErrInvalidOperation)
	}
	if op.IsNoop() {
		return content, nil
	}

	runes := []rune(content)
	if op.Position < 0 || op.Position > len(runes) {
		return "", fmt.Errorf("apply %s to %d runes: %w", op, len(runes), ErrOutOfRange)
	}

	var b strings.Builder
	if op.Kind == Insert {
		b.Grow(len(content) + len(op.Text))
		b.WriteString(string(runes[:op.Position]))
		b.WriteString(op.Text)
		b.WriteString(string(runes[op.Position:]))
		return b.String(), nil
	}

	end := min(op.Position+op.Length, len(runes))
	b.Grow(len(content))
	b.WriteString(string(runes[:op.Position]))
	b.WriteString(string(runes[end:]))
	return b.String(), nil
}

// Normalize returns op with the length of a delete truncated to the end of
// content, so that the result describes exactly the effect Apply has. Other
// operations are returned unchanged.
func Normalize(content string, op Operation) Operation {
	if op.Kind != Delete {
		return op
	}

	size := utf8.RuneCountInString(content)
	if op.Position > size {
		return op
	}
	if op.Position+op.Length > size {
		op.Length = size - op.Position
	}
	return op
}

// Invert returns the operation that undoes op. For a delete, deleted must be
// the text the delete removed.
func Invert(op Operation, deleted string) Operation {
	switch op.Kind {
	case Insert:
		return NewDelete(op.Position, op.TextLen())
	case Delete:
		return NewInsert(op.Position, deleted)
	default:
		return op
	}
}

// Deleted returns the text that applying the delete op to content removes.
func Deleted(content string, op Operation) string {
	if op.Kind != Delete {
		return ""
	}

	runes := []rune(content)
	if op.Position < 0 || op.Position > len(runes) {
		return ""
	}
	end := min(op.Position+op.Length, len(runes))
	return string(runes[op.Position:end])
}

// ComposePair merges b, which is applied right after a, into a single
// operation with the same effect. It reports false when the two operations
// cannot be expressed as one.
func ComposePair(a, b Operation) (Operation, bool) {
	switch {
	case a.IsNoop():
		return b, true
	case b.IsNoop():
		return a, true
	case a.Kind == Insert && b.Kind == Insert:
		// b lands inside or right after the text a inserted.
		offset := b.Position - a.Position
		if offset < 0 || offset > a.TextLen() {
			return Operation{}, false
		}
		runes := []rune(a.Text)
		return NewInsert(a.Position, string(runes[:offset])+b.Text+string(runes[offset:])), true
	case a.Kind == Delete && b.Kind == Delete:
		if b.Position == a.Position {
			return NewDelete(a.Position, a.Length+b.Length), true
		}
		// Backspacing over the characters right before a.
		if b.Position+b.Length == a.Position {
			return NewDelete(b.Position, a.Length+b.Length), true
		}
		return Operation{}, false
	default:
		return Operation{}, false
	}
}

// Compose merges runs of adjacent operations in ops, applied in order, into
// fewer operations with the same overall effect. No-ops are dropped.
func Compose(ops []Operation) []Operation {
	var composed []Operation
	for _, op := range ops {
		if op.IsNoop() {
			continue
		}

		if n := len(composed); n > 0 {
			if merged, ok := ComposePair(composed[n-1], op); ok {
				composed[n-1] = merged
				continue
			}
		}
		composed = append(composed, op)
	}
	return composed
}

// ApplyAll applies ops to content in order.
func ApplyAll(content string, ops ...Operation) (string, error) {
	var err error
	for _, op := range ops {
		if content, err = Apply(content, op); err != nil {
			return "", err
		}
	}
	return content, nil
}
