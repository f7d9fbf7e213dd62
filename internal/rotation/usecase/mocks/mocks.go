// Package mocks provides mock implementations of rotation use cases for testing.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	rotationDomain "github.com/allisson/envelope/internal/rotation/domain"
)

// MockScheduler is a mock implementation of Scheduler for testing.
type MockScheduler struct {
	mock.Mock
}

// Start mocks the Start method of Scheduler.
func (m *MockScheduler) Start(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// Reschedule mocks the Reschedule method of Scheduler.
func (m *MockScheduler) Reschedule(interval rotationDomain.Interval) {
	m.Called(interval)
}

// Interval mocks the Interval method of Scheduler.
func (m *MockScheduler) Interval() rotationDomain.Interval {
	args := m.Called()
	return args.Get(0).(rotationDomain.Interval)
}

// MockSettingsUseCase is a mock implementation of SettingsUseCase for testing.
type MockSettingsUseCase struct {
	mock.Mock
}

// Get mocks the Get method of SettingsUseCase.
func (m *MockSettingsUseCase) Get(ctx context.Context) (rotationDomain.Settings, error) {
	args := m.Called(ctx)
	return args.Get(0).(rotationDomain.Settings), args.Error(1)
}

// Update mocks the Update method of SettingsUseCase.
func (m *MockSettingsUseCase) Update(
	ctx context.Context,
	interval string,
	source string,
) (rotationDomain.Settings, error) {
	args := m.Called(ctx, interval, source)
	return args.Get(0).(rotationDomain.Settings), args.Error(1)
}

// Reload mocks the Reload method of SettingsUseCase.
func (m *MockSettingsUseCase) Reload(ctx context.Context) {
	m.Called(ctx)
}
