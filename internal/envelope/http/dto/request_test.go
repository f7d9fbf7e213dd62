package dto

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEncryptRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		request EncryptRequest
		wantErr bool
	}{
		{name: "valid", request: EncryptRequest{Plaintext: "aGVsbG8=", Source: "billing"}},
		{name: "valid without source", request: EncryptRequest{Plaintext: "aGVsbG8="}},
		{name: "missing plaintext", request: EncryptRequest{}, wantErr: true},
		{name: "invalid base64", request: EncryptRequest{Plaintext: "not base64!"}, wantErr: true},
		{
			name:    "source too long",
			request: EncryptRequest{Plaintext: "aGVsbG8=", Source: strings.Repeat("s", 65)},
			wantErr: true,
		},
		{
			name:    "source with control characters",
			request: EncryptRequest{Plaintext: "aGVsbG8=", Source: "a\x07b"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.request.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDecryptRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		request DecryptRequest
		wantErr bool
	}{
		{name: "valid", request: DecryptRequest{Ciphertext: "abc", Passthrough: true}},
		{name: "missing ciphertext", request: DecryptRequest{}, wantErr: true},
		{name: "blank ciphertext", request: DecryptRequest{Ciphertext: "   "}, wantErr: true},
		{name: "bad source", request: DecryptRequest{Ciphertext: "abc", Source: " x"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.request.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
