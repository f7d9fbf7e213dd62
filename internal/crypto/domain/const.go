package domain

// Algorithm represents the AEAD algorithm used to wrap DEKs and to encrypt data.
//
// Both supported algorithms use a 256-bit key, a 12-byte nonce and a 16-byte
// authentication tag, so envelopes produced by either share the same wire shape.
// The algorithm is recorded on every DEK so historical envelopes keep decrypting
// after the configured default changes.
type Algorithm string

const (
	// AESGCM represents AES-256-GCM. It is the default for new DEKs and the only
	// algorithm used to wrap DEKs with the KEK.
	AESGCM Algorithm = "aes-gcm"

	// ChaCha20 represents ChaCha20-Poly1305, selectable for data encryption on hosts
	// without AES hardware acceleration.
	ChaCha20 Algorithm = "chacha20-poly1305"
)

const (
	// KeySize is the size in bytes of every KEK and DEK.
	KeySize = 32

	// IVSize is the nonce size in bytes for both algorithms.
	IVSize = 12

	// TagSize is the authentication tag size in bytes for both algorithms.
	TagSize = 16

	// DekIDPrefix prefixes every generated DEK identifier.
	DekIDPrefix = "dek_"
)

// ParseAlgorithm converts a configuration value into an Algorithm.
// Returns ErrUnsupportedAlgorithm for unknown values.
func ParseAlgorithm(value string) (Algorithm, error) {
	switch Algorithm(value) {
	case AESGCM:
		return AESGCM, nil
	case ChaCha20:
		return ChaCha20, nil
	default:
		return "", ErrUnsupportedAlgorithm
	}
}
