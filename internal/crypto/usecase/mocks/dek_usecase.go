// Package mocks provides mock implementations of crypto use cases for testing.
package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	cryptoDomain "github.com/allisson/envelope/internal/crypto/domain"
)

// MockDekUseCase is a mock implementation of DekUseCase for testing.
type MockDekUseCase struct {
	mock.Mock
}

// GetActiveDek mocks the GetActiveDek method of DekUseCase.
func (m *MockDekUseCase) GetActiveDek(ctx context.Context) (*cryptoDomain.Dek, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cryptoDomain.Dek), args.Error(1)
}

// GetDekByID mocks the GetDekByID method of DekUseCase.
func (m *MockDekUseCase) GetDekByID(ctx context.Context, id cryptoDomain.DekID) (*cryptoDomain.Dek, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cryptoDomain.Dek), args.Error(1)
}

// Rotate mocks the Rotate method of DekUseCase.
func (m *MockDekUseCase) Rotate(ctx context.Context) (cryptoDomain.DekID, error) {
	args := m.Called(ctx)
	return args.Get(0).(cryptoDomain.DekID), args.Error(1)
}

// Prune mocks the Prune method of DekUseCase.
func (m *MockDekUseCase) Prune(
	ctx context.Context,
	maxAge time.Duration,
	retain func(cryptoDomain.DekID) bool,
	dryRun bool,
) ([]cryptoDomain.DekID, error) {
	args := m.Called(ctx, maxAge, retain, dryRun)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]cryptoDomain.DekID), args.Error(1)
}

// ListDeks mocks the ListDeks method of DekUseCase.
func (m *MockDekUseCase) ListDeks(ctx context.Context) ([]cryptoDomain.DekInfo, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]cryptoDomain.DekInfo), args.Error(1)
}
