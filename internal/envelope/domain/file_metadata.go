package domain

import (
	"encoding/base64"
	"encoding/json"
	"time"

	cryptoDomain "github.com/allisson/envelope/internal/crypto/domain"
	"github.com/allisson/envelope/internal/errors"
)

// MetadataSuffix is appended to an encrypted file path to name its sidecar.
const MetadataSuffix = ".meta"

// MetadataPath returns the sidecar path of an encrypted file.
func MetadataPath(encryptedPath string) string {
	return encryptedPath + MetadataSuffix
}

// FileMetadata is the sidecar of an encrypted file. The primary file holds only the
// ciphertext.
type FileMetadata struct {
	DekID        cryptoDomain.DekID
	IV           []byte
	Tag          []byte
	OrigFilename string
	EncryptedAt  time.Time
}

type fileMetadataDocument struct {
	DekID        string `json:"dek_id"`
	IVB64        string `json:"iv_b64"`
	TagB64       string `json:"tag_b64"`
	OrigFilename string `json:"orig_filename"`
	EncryptedAt  int64  `json:"encrypted_at"`
}

// MarshalJSON implements json.Marshaler. encrypted_at is written as Unix seconds.
func (m FileMetadata) MarshalJSON() ([]byte, error) {
	return json.Marshal(fileMetadataDocument{
		DekID:        m.DekID.Value(),
		IVB64:        base64.StdEncoding.EncodeToString(m.IV),
		TagB64:       base64.StdEncoding.EncodeToString(m.Tag),
		OrigFilename: m.OrigFilename,
		EncryptedAt:  m.EncryptedAt.Unix(),
	})
}

// ParseFileMetadata decodes a sidecar. dek_id, iv_b64 and tag_b64 are required;
// anything else missing or undecodable returns ErrMetadataInvalid.
func ParseFileMetadata(raw []byte) (*FileMetadata, error) {
	var doc fileMetadataDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, errors.Wrap(ErrMetadataInvalid, "invalid json")
	}
	if doc.DekID == "" || doc.IVB64 == "" || doc.TagB64 == "" {
		return nil, errors.Wrap(ErrMetadataInvalid, "missing required field")
	}

	id, err := cryptoDomain.ParseDekID(doc.DekID)
	if err != nil {
		return nil, errors.Wrap(ErrMetadataInvalid, "invalid dek id")
	}
	iv, err := base64.StdEncoding.DecodeString(doc.IVB64)
	if err != nil {
		return nil, errors.Wrap(ErrMetadataInvalid, "invalid iv encoding")
	}
	tag, err := base64.StdEncoding.DecodeString(doc.TagB64)
	if err != nil {
		return nil, errors.Wrap(ErrMetadataInvalid, "invalid tag encoding")
	}

	return &FileMetadata{
		DekID:        id,
		IV:           iv,
		Tag:          tag,
		OrigFilename: doc.OrigFilename,
		EncryptedAt:  time.Unix(doc.EncryptedAt, 0).UTC(),
	}, nil
}
