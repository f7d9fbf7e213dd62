// Package dto provides data transfer objects for HTTP request and response handling.
package dto

import (
	validation "github.com/jellydator/validation"

	rotationDomain "github.com/allisson/envelope/internal/rotation/domain"
	customValidation "github.com/allisson/envelope/internal/validation"
)

// UpdateSettingsRequest changes the rotation schedule.
type UpdateSettingsRequest struct {
	RotationInterval string `json:"rotation_interval"` // hourly, twicedaily, daily or weekly
}

// Validate checks that an interval was provided. Whether it is a supported
// interval is decided by the use case, which also audits rejected values.
func (r *UpdateSettingsRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.RotationInterval,
			validation.Required,
			customValidation.NotBlank,
		),
	)
}

// SettingsResponse represents the rotation settings in API responses.
type SettingsResponse struct {
	RotationInterval   string   `json:"rotation_interval"`
	AvailableIntervals []string `json:"available_intervals"`
}

// MapSettingsToResponse converts settings to an API response.
func MapSettingsToResponse(settings rotationDomain.Settings) SettingsResponse {
	available := make([]string, 0, 4)
	for _, interval := range rotationDomain.Intervals() {
		available = append(available, string(interval))
	}
	return SettingsResponse{
		RotationInterval:   string(settings.RotationInterval),
		AvailableIntervals: available,
	}
}
