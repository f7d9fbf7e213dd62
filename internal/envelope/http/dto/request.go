// Package dto provides data transfer objects for HTTP request and response handling.
package dto

import (
	validation "github.com/jellydator/validation"

	customValidation "github.com/allisson/envelope/internal/validation"
)

// EncryptRequest contains the parameters for encrypting a string.
type EncryptRequest struct {
	Plaintext string `json:"plaintext"` // Base64-encoded plaintext
	Source    string `json:"source"`
}

// Validate checks if the encrypt request is valid.
func (r *EncryptRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Plaintext,
			validation.Required,
			customValidation.NotBlank,
			customValidation.Base64,
		),
		validation.Field(&r.Source, customValidation.Source),
	)
}

// DecryptRequest contains the parameters for decrypting an envelope string.
type DecryptRequest struct {
	Ciphertext  string `json:"ciphertext"`
	Source      string `json:"source"`
	Passthrough bool   `json:"passthrough"` // Return non-envelope input unchanged
}

// Validate checks if the decrypt request is valid.
func (r *DecryptRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Ciphertext,
			validation.Required,
			customValidation.NotBlank,
		),
		validation.Field(&r.Source, customValidation.Source),
	)
}
