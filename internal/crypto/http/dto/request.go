// Package dto provides data transfer objects for HTTP request and response handling.
package dto

import (
	validation "github.com/jellydator/validation"

	cryptoDomain "github.com/allisson/envelope/internal/crypto/domain"
	customValidation "github.com/allisson/envelope/internal/validation"
)

// PruneDeksRequest contains the parameters for pruning old DEKs.
type PruneDeksRequest struct {
	MaxAgeDays int      `json:"max_age_days"`
	Retain     []string `json:"retain"`  // DEK ids that must survive regardless of age
	DryRun     bool     `json:"dry_run"` // Report candidates without removing them
	Confirm    bool     `json:"confirm"` // Required unless DryRun
}

// Validate checks if the prune request is valid.
func (r *PruneDeksRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.MaxAgeDays, validation.Required, validation.Min(1)),
		validation.Field(&r.Retain, validation.Each(validation.Required, customValidation.NoWhitespace)),
		validation.Field(&r.Confirm, validation.When(!r.DryRun,
			validation.Required.Error("must be true to prune without dry_run"))),
	)
}

// RetainFunc returns the retention policy described by Retain.
func (r *PruneDeksRequest) RetainFunc() func(cryptoDomain.DekID) bool {
	retained := make(map[string]struct{}, len(r.Retain))
	for _, id := range r.Retain {
		retained[id] = struct{}{}
	}
	return func(id cryptoDomain.DekID) bool {
		_, ok := retained[id.Value()]
		return ok
	}
}
