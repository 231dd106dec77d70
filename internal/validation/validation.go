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

// Package validation validates the fields of requests with struct tags and
// renders violations as English messages.
package validation

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	entranslations "github.com/go-playground/validator/v10/translations/en"
)

const (
	// resourceIDRegexString matches the ids of documents and clients:
	// unreserved URI characters plus ':'.
	resourceIDRegexString         = `^[a-zA-Z0-9\-._~:]+$`
	timeDurationFormatRegexString = `^(\d{1,2}h\s?)?(\d{1,2}m\s?)?(\d{1,2}s)?$`
)

var (
	resourceIDRegex         = regexp.MustCompile(resourceIDRegexString)
	timeDurationFormatRegex = regexp.MustCompile(timeDurationFormatRegexString)
)

var (
	defaultValidator = validator.New()
	defaultEn        = en.New()
	uni              = ut.New(defaultEn, defaultEn)

	// trans is the translator of the 'en' locale.
	trans, _ = uni.GetTranslator(defaultEn.Locale())
)

// FieldLevel is the field level interface.
type FieldLevel = validator.FieldLevel

// Violation is the error returned by the validation.
type Violation struct {
	Tag         string
	Field       string
	Err         error
	Description string
}

// Error returns the error message.
func (e Violation) Error() string {
	return e.Err.Error()
}

// StructError is the error returned by the validation of struct.
type StructError struct {
	Violations []Violation
}

// Error returns the descriptions of the violations, one per line.
func (s StructError) Error() string {
	sb := strings.Builder{}

	for _, v := range s.Violations {
		sb.WriteString(v.Description)
		sb.WriteString("\n")
	}

	return strings.TrimSpace(sb.String())
}

// RegisterValidation is shortcut of defaultValidator.RegisterValidation
// that register custom validation with given tag, and it can be used in init.
func RegisterValidation(tag string, fn validator.Func) error {
	if err := defaultValidator.RegisterValidation(tag, fn); err != nil {
		return fmt.Errorf("register validation: %w", err)
	}
	return nil
}

// RegisterTranslation is shortcut of defaultValidator.RegisterTranslation
// that registers translations against the provided tag with given msg.
func RegisterTranslation(tag, msg string) error {
	if err := defaultValidator.RegisterTranslation(
		tag,
		trans,
		func(ut ut.Translator) error {
			if err := ut.Add(tag, msg, true); err != nil {
				return fmt.Errorf("register translation: %w", err)
			}
			return nil
		},
		func(ut ut.Translator, fe validator.FieldError) string {
			t, _ := ut.T(tag, fe.Field())
			return t
		},
	); err != nil {
		return fmt.Errorf("register translation: %w", err)
	}
	return nil
}

// ValidateValue validates the value with the tag.
func ValidateValue(v interface{}, tag string) error {
	if err := defaultValidator.Var(v, tag); err != nil {
		for _, e := range err.(validator.ValidationErrors) {
			return Violation{
				Tag:         e.Tag(),
				Err:         e,
				Description: e.Translate(trans),
			}
		}
	}
	return nil
}

// ValidateStruct validates the exported fields of the given struct,
// descending into nested structs.
func ValidateStruct(s interface{}) error {
	if err := defaultValidator.Struct(s); err != nil {
		structError := &StructError{}
		for _, e := range err.(validator.ValidationErrors) {
			structError.Violations = append(structError.Violations, Violation{
				Tag:         e.Tag(),
				Field:       e.StructNamespace(),
				Err:         e,
				Description: e.Translate(trans),
			})
		}
		return structError
	}

	return nil
}

func mustRegister(tag, msg string, fn validator.Func) {
	if err := RegisterValidation(tag, fn); err != nil {
		fmt.Fprintf(os.Stderr, "validation %s: %v\n", tag, err)
		os.Exit(1)
	}
	if err := RegisterTranslation(tag, msg); err != nil {
		fmt.Fprintf(os.Stderr, "validation %s: %v\n", tag, err)
		os.Exit(1)
	}
}

func init() {
	if err := entranslations.RegisterDefaultTranslations(defaultValidator, trans); err != nil {
		fmt.Fprintf(os.Stderr, "validation register default translations: %v\n", err)
		os.Exit(1)
	}

	mustRegister(
		"resource_id",
		"{0} must only contain letters, numbers, hyphen, period, underscore, tilde, and colon",
		func(level validator.FieldLevel) bool {
			return resourceIDRegex.MatchString(level.Field().String())
		},
	)

	mustRegister(
		"duration",
		"{0} must be a valid time duration string format",
		func(level validator.FieldLevel) bool {
			return timeDurationFormatRegex.MatchString(level.Field().String())
		},
	)
}
