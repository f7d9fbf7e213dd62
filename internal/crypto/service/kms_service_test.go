package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func localKeyURI(t *testing.T) (string, string) {
	t.Helper()
	key := make([]byte, 32)
	_, err := rand.Read(key)
	require.NoError(t, err)
	encoded := base64.URLEncoding.EncodeToString(key)
	return "base64key://" + encoded, encoded
}

func TestKMSService_OpenKeeper(t *testing.T) {
	ctx := context.Background()
	kmsService := NewKMSService()

	t.Run("local keeper round trip", func(t *testing.T) {
		keyURI, _ := localKeyURI(t)

		keeper, err := kmsService.OpenKeeper(ctx, keyURI)
		require.NoError(t, err)
		defer func() {
			assert.NoError(t, keeper.Close())
		}()

		ciphertext, err := keeper.Encrypt(ctx, []byte("kek material"))
		require.NoError(t, err)
		assert.NotEqual(t, []byte("kek material"), ciphertext)

		plaintext, err := keeper.Decrypt(ctx, ciphertext)
		require.NoError(t, err)
		assert.Equal(t, []byte("kek material"), plaintext)
	})

	t.Run("keepers with different keys do not interoperate", func(t *testing.T) {
		firstURI, _ := localKeyURI(t)
		secondURI, _ := localKeyURI(t)

		first, err := kmsService.OpenKeeper(ctx, firstURI)
		require.NoError(t, err)
		defer func() { _ = first.Close() }()

		second, err := kmsService.OpenKeeper(ctx, secondURI)
		require.NoError(t, err)
		defer func() { _ = second.Close() }()

		ciphertext, err := first.Encrypt(ctx, []byte("kek material"))
		require.NoError(t, err)

		_, err = second.Decrypt(ctx, ciphertext)
		assert.Error(t, err)
	})

	tests := []struct {
		name     string
		keyURI   string
		contains string
	}{
		{name: "empty uri", keyURI: "", contains: "no scheme"},
		{name: "unsupported scheme", keyURI: "vault://transit/keys/envelope", contains: `unsupported scheme "vault"`},
		{name: "plain path", keyURI: "/etc/envelope/kek", contains: "no scheme"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			keeper, err := kmsService.OpenKeeper(ctx, tt.keyURI)
			require.Error(t, err)
			assert.Nil(t, keeper)
			assert.Contains(t, err.Error(), tt.contains)
		})
	}

	t.Run("driver error does not leak key material", func(t *testing.T) {
		keeper, err := kmsService.OpenKeeper(ctx, "base64key://not-a-valid-key")
		require.Error(t, err)
		assert.Nil(t, keeper)
		assert.Contains(t, err.Error(), `scheme "base64key"`)
		assert.NotContains(t, err.Error(), "not-a-valid-key")
	})
}
