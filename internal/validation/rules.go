// Package validation provides custom validation rules for the application.
package validation

import (
	"encoding/base64"
	"strings"
	"unicode"

	validation "github.com/jellydator/validation"

	apperrors "github.com/allisson/envelope/internal/errors"
)

const (
	// MaxSourceLength bounds the audit source identifier accepted from callers.
	MaxSourceLength = 64

	// MaxPayloadSize bounds the decoded size of a base64 payload accepted over HTTP.
	MaxPayloadSize = 1 << 20
)

// WrapValidationError wraps validation errors as domain ErrInvalidInput
func WrapValidationError(err error) error {
	if err == nil {
		return nil
	}
	return apperrors.Wrap(apperrors.ErrInvalidInput, err.Error())
}

// NoWhitespace rejects strings with leading or trailing whitespace.
var NoWhitespace = validation.NewStringRuleWithError(
	func(s string) bool {
		return s == strings.TrimSpace(s)
	},
	validation.NewError("validation_no_whitespace", "must not have leading or trailing whitespace"),
)

// NotBlank rejects strings made only of whitespace.
var NotBlank = validation.NewStringRuleWithError(
	func(s string) bool {
		return s == "" || strings.TrimSpace(s) != ""
	},
	validation.NewError("validation_not_blank", "must not be blank"),
)

// Source validates an audit source identifier: printable, no surrounding
// whitespace and at most MaxSourceLength characters.
var Source = validation.NewStringRuleWithError(
	func(s string) bool {
		if len(s) > MaxSourceLength || s != strings.TrimSpace(s) {
			return false
		}
		for _, r := range s {
			if !unicode.IsPrint(r) {
				return false
			}
		}
		return true
	},
	validation.NewError("validation_source", "must be a printable identifier of at most 64 characters"),
)

// Base64 validates standard base64 whose decoded size is at most MaxPayloadSize.
// Empty strings pass so that Required decides whether a value is mandatory.
var Base64 = validation.NewStringRuleWithError(
	func(s string) bool {
		if base64.StdEncoding.DecodedLen(len(s)) > MaxPayloadSize+2 {
			return false
		}
		decoded, err := base64.StdEncoding.DecodeString(s)
		return err == nil && len(decoded) <= MaxPayloadSize
	},
	validation.NewError("validation_base64", "must be base64 encoded and at most 1 MiB once decoded"),
)
