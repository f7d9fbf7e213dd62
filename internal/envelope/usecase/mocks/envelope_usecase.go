// Package mocks provides mock implementations of envelope use cases for testing.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockEnvelopeUseCase is a mock implementation of EnvelopeUseCase for testing.
type MockEnvelopeUseCase struct {
	mock.Mock
}

// EncryptString mocks the EncryptString method of EnvelopeUseCase.
func (m *MockEnvelopeUseCase) EncryptString(ctx context.Context, plaintext []byte, source string) (string, error) {
	args := m.Called(ctx, plaintext, source)
	return args.String(0), args.Error(1)
}

// DecryptString mocks the DecryptString method of EnvelopeUseCase.
func (m *MockEnvelopeUseCase) DecryptString(ctx context.Context, envelope string, source string) ([]byte, error) {
	args := m.Called(ctx, envelope, source)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// DecryptStringOrPassthrough mocks the DecryptStringOrPassthrough method of EnvelopeUseCase.
func (m *MockEnvelopeUseCase) DecryptStringOrPassthrough(
	ctx context.Context,
	value string,
	source string,
) ([]byte, error) {
	args := m.Called(ctx, value, source)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// EncryptFile mocks the EncryptFile method of EnvelopeUseCase.
func (m *MockEnvelopeUseCase) EncryptFile(ctx context.Context, srcPath, dstPath, source string) error {
	args := m.Called(ctx, srcPath, dstPath, source)
	return args.Error(0)
}

// DecryptFile mocks the DecryptFile method of EnvelopeUseCase.
func (m *MockEnvelopeUseCase) DecryptFile(ctx context.Context, srcPath, dstPath, source string) error {
	args := m.Called(ctx, srcPath, dstPath, source)
	return args.Error(0)
}
