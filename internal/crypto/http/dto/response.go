package dto

import (
	"time"

	cryptoDomain "github.com/allisson/envelope/internal/crypto/domain"
)

// DekResponse is the admin view of a DEK. It never includes key material.
type DekResponse struct {
	ID        string    `json:"id"`
	Algorithm string    `json:"algorithm"`
	CreatedAt time.Time `json:"created_at"`
	Active    bool      `json:"active"`
}

// ListDeksResponse wraps the DEK listing, oldest first.
type ListDeksResponse struct {
	Data []DekResponse `json:"data"`
}

// RotateDekResponse reports a successful rotation.
type RotateDekResponse struct {
	Rotated bool `json:"rotated"`
}

// PruneDeksResponse reports the DEKs that were (or, for a dry run, would be) removed.
type PruneDeksResponse struct {
	DryRun bool     `json:"dry_run"`
	Pruned []string `json:"pruned"`
}

// MapDekInfosToListResponse converts DEK infos to an API response.
func MapDekInfosToListResponse(infos []cryptoDomain.DekInfo) ListDeksResponse {
	data := make([]DekResponse, 0, len(infos))
	for _, info := range infos {
		data = append(data, DekResponse{
			ID:        info.ID.Value(),
			Algorithm: string(info.Algorithm),
			CreatedAt: info.CreatedAt,
			Active:    info.Active,
		})
	}
	return ListDeksResponse{Data: data}
}

// MapPruneResult converts pruned ids to an API response.
func MapPruneResult(ids []cryptoDomain.DekID, dryRun bool) PruneDeksResponse {
	pruned := make([]string, 0, len(ids))
	for _, id := range ids {
		pruned = append(pruned, id.Value())
	}
	return PruneDeksResponse{DryRun: dryRun, Pruned: pruned}
}
