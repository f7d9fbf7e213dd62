// Package mocks provides mock implementations of audit use cases for testing.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	auditDomain "github.com/allisson/envelope/internal/audit/domain"
	auditUseCase "github.com/allisson/envelope/internal/audit/usecase"
)

// MockAuditLogUseCase is a mock implementation of AuditLogUseCase for testing.
type MockAuditLogUseCase struct {
	mock.Mock
}

// Log mocks the Log method of AuditLogUseCase.
func (m *MockAuditLogUseCase) Log(
	ctx context.Context,
	action, source, target string,
	details map[string]string,
) {
	m.Called(ctx, action, source, target, details)
}

// List mocks the List method of AuditLogUseCase.
func (m *MockAuditLogUseCase) List(ctx context.Context, limit int) ([]auditDomain.Event, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]auditDomain.Event), args.Error(1)
}

// Clear mocks the Clear method of AuditLogUseCase.
func (m *MockAuditLogUseCase) Clear(ctx context.Context, source string) error {
	args := m.Called(ctx, source)
	return args.Error(0)
}

// Verify mocks the Verify method of AuditLogUseCase.
func (m *MockAuditLogUseCase) Verify(ctx context.Context) (*auditUseCase.VerifyResult, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auditUseCase.VerifyResult), args.Error(1)
}
