package dto

// EncryptResponse contains the envelope string produced by an encryption.
type EncryptResponse struct {
	Ciphertext string `json:"ciphertext"`
}

// DecryptResponse contains the recovered plaintext. encoding/json base64-encodes it.
type DecryptResponse struct {
	Plaintext []byte `json:"plaintext"`
}
