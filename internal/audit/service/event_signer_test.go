package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auditDomain "github.com/allisson/envelope/internal/audit/domain"
	cryptoDomain "github.com/allisson/envelope/internal/crypto/domain"
)

func newTestSigner(t *testing.T, b byte) *HMACEventSigner {
	t.Helper()
	material := make([]byte, 32)
	for i := range material {
		material[i] = b
	}
	kek, err := cryptoDomain.NewKek(cryptoDomain.NewKey(material), cryptoDomain.KekEncodingHex, 32, false)
	require.NoError(t, err)

	signer, err := NewHMACEventSigner(kek)
	require.NoError(t, err)
	return signer
}

func newTestEvent() auditDomain.Event {
	return auditDomain.NewEvent(
		auditDomain.ActionDekRotateOK,
		auditDomain.SourceAdmin,
		auditDomain.TargetDek,
		map[string]string{"algorithm": "aes-gcm", "dek_count": "2"},
		time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
	)
}

func TestHMACEventSigner_SignVerify(t *testing.T) {
	signer := newTestSigner(t, 1)
	event := newTestEvent()

	signature, err := signer.Sign(&event)
	require.NoError(t, err)
	assert.Len(t, signature, 32)

	event.Signature = signature
	assert.NoError(t, signer.Verify(&event))

	again, err := signer.Sign(&event)
	require.NoError(t, err)
	assert.Equal(t, signature, again, "signature is deterministic")
}

func TestHMACEventSigner_DetectsTampering(t *testing.T) {
	signer := newTestSigner(t, 1)

	tests := []struct {
		name   string
		mutate func(e *auditDomain.Event)
	}{
		{"action", func(e *auditDomain.Event) { e.Action = "dek_rotate_failed" }},
		{"source", func(e *auditDomain.Event) { e.Source = "api" }},
		{"target", func(e *auditDomain.Event) { e.Target = "file" }},
		{"timestamp", func(e *auditDomain.Event) { e.Timestamp = e.Timestamp.Add(time.Second) }},
		{"detail value", func(e *auditDomain.Event) { e.Details["dek_count"] = "3" }},
		{"detail added", func(e *auditDomain.Event) { e.Details["extra"] = "x" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event := newTestEvent()
			signature, err := signer.Sign(&event)
			require.NoError(t, err)
			event.Signature = signature

			tt.mutate(&event)
			assert.ErrorIs(t, signer.Verify(&event), auditDomain.ErrSignatureInvalid)
		})
	}
}

func TestHMACEventSigner_Errors(t *testing.T) {
	t.Run("missing signature", func(t *testing.T) {
		event := newTestEvent()
		assert.ErrorIs(t, newTestSigner(t, 1).Verify(&event), auditDomain.ErrSignatureMissing)
	})

	t.Run("different kek", func(t *testing.T) {
		event := newTestEvent()
		signature, err := newTestSigner(t, 1).Sign(&event)
		require.NoError(t, err)
		event.Signature = signature

		assert.ErrorIs(t, newTestSigner(t, 2).Verify(&event), auditDomain.ErrSignatureInvalid)
	})

	t.Run("nil kek", func(t *testing.T) {
		signer, err := NewHMACEventSigner(nil)
		assert.Nil(t, signer)
		assert.ErrorIs(t, err, cryptoDomain.ErrKekUnavailable)
	})
}
