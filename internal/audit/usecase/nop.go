package usecase

import (
	"context"

	auditDomain "github.com/allisson/envelope/internal/audit/domain"
)

type nopAuditLogUseCase struct{}

// NewNopAuditLogUseCase returns an AuditLogUseCase that discards every event.
func NewNopAuditLogUseCase() AuditLogUseCase {
	return nopAuditLogUseCase{}
}

func (nopAuditLogUseCase) Log(context.Context, string, string, string, map[string]string) {}

func (nopAuditLogUseCase) List(context.Context, int) ([]auditDomain.Event, error) {
	return nil, nil
}

func (nopAuditLogUseCase) Clear(context.Context, string) error {
	return nil
}

func (nopAuditLogUseCase) Verify(context.Context) (*VerifyResult, error) {
	return &VerifyResult{}, nil
}
