package service

import (
	"context"
	"fmt"
	"net/url"
	"slices"

	"gocloud.dev/secrets"

	cryptoDomain "github.com/allisson/envelope/internal/crypto/domain"

	_ "gocloud.dev/secrets/awskms"
	_ "gocloud.dev/secrets/azurekeyvault"
	_ "gocloud.dev/secrets/gcpkms"
	_ "gocloud.dev/secrets/hashivault"
	_ "gocloud.dev/secrets/localsecrets"
)

// KMSSchemes lists the KEK_KMS_KEY_URI schemes with a registered gocloud.dev driver.
// base64key is the local driver, meant for tests and development.
var KMSSchemes = []string{"awskms", "azurekeyvault", "gcpkms", "hashivault", "base64key"}

// KMSService opens keepers for KMS-protected KEK material.
type KMSService interface {
	OpenKeeper(ctx context.Context, keyURI string) (cryptoDomain.KMSKeeper, error)
}

type kmsService struct{}

// NewKMSService creates a KMSService backed by gocloud.dev/secrets.
func NewKMSService() KMSService {
	return &kmsService{}
}

// OpenKeeper opens a keeper for keyURI. The caller must close it.
//
// Errors name the scheme only: a base64key URI embeds the key itself.
func (k *kmsService) OpenKeeper(ctx context.Context, keyURI string) (cryptoDomain.KMSKeeper, error) {
	scheme, err := kmsScheme(keyURI)
	if err != nil {
		return nil, err
	}

	keeper, err := secrets.OpenKeeper(ctx, keyURI)
	if err != nil {
		return nil, fmt.Errorf("failed to open KMS keeper for scheme %q", scheme)
	}
	return keeper, nil
}

func kmsScheme(keyURI string) (string, error) {
	u, err := url.Parse(keyURI)
	if err != nil || u.Scheme == "" {
		return "", fmt.Errorf("failed to open KMS keeper: key URI has no scheme")
	}
	if !slices.Contains(KMSSchemes, u.Scheme) {
		return "", fmt.Errorf("failed to open KMS keeper: unsupported scheme %q", u.Scheme)
	}
	return u.Scheme, nil
}
