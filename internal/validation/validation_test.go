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

package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidation(t *testing.T) {
	t.Run("ValidateValue test", func(t *testing.T) {
		assert.NoError(t, ValidateValue("doc-1", "required,resource_id,max=120"))
		assert.NoError(t, ValidateValue("team:Doc_1.v2~", "required,resource_id,max=120"))

		err := ValidateValue("doc 1", "required,resource_id,max=120")
		assert.Equal(t, "resource_id", err.(Violation).Tag)

		err = ValidateValue("doc/1", "required,resource_id,max=120")
		assert.Equal(t, "resource_id", err.(Violation).Tag)

		err = ValidateValue("", "required,resource_id")
		assert.Equal(t, "required", err.(Violation).Tag)

		assert.NoError(t, ValidateValue("1h30m20s", "duration,min=2"))
		err = ValidateValue("one hour", "duration,min=2")
		assert.Equal(t, "duration", err.(Violation).Tag)
	})

	t.Run("ValidateStruct test", func(t *testing.T) {
		type inner struct {
			Position int `validate:"gte=0"`
		}
		type request struct {
			DocumentID string `validate:"required,resource_id"`
			Seq        uint32 `validate:"gt=0"`
			Inner      inner
		}

		err := ValidateStruct(request{DocumentID: "doc 1", Inner: inner{Position: -1}})
		structError := &StructError{}
		require.True(t, errors.As(err, &structError))
		assert.Len(t, structError.Violations, 3)
		assert.Equal(t, "request.Inner.Position", structError.Violations[2].Field)
		assert.Contains(t, err.Error(), "Seq must be greater than 0")

		assert.NoError(t, ValidateStruct(request{DocumentID: "doc-1", Seq: 1}))
	})

	t.Run("custom rule test", func(t *testing.T) {
		assert.NoError(t, RegisterValidation("custom", func(v FieldLevel) bool {
			return v.Field().String() == "custom"
		}))
		assert.NoError(t, RegisterTranslation("custom", "{0} must be custom"))

		err := ValidateValue("custom-invalid-value", "required,custom")
		assert.Equal(t, "custom", err.(Violation).Tag)
		assert.NoError(t, ValidateValue("custom", "required,custom"))
	})
}
