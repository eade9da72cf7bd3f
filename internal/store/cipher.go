package store

// FieldCipher is the one hook point the core exposes for AES-256-GCM field
// encryption (a boundary concern, per spec — not implemented here). A real
// implementation produces ciphertext prefixed "ENC:" followed by
// base64(nonce‖tag‖ciphertext); Store calls Encrypt/Decrypt on sensitive
// columns whenever the configured cipher is non-nil and leaves the column
// untouched (clear text) when it is the default PlaintextCipher.
type FieldCipher interface {
	Encrypt(plaintext []byte) (string, error)
	Decrypt(ciphertext string) ([]byte, error)
}

// PlaintextCipher is the no-op default: Encrypt/Decrypt pass the bytes
// through unchanged, so Store works out of the box with encryption
// disabled, matching spec.md §6 ("When disabled, values are stored in
// clear").
type PlaintextCipher struct{}

func (PlaintextCipher) Encrypt(plaintext []byte) (string, error) {
	return string(plaintext), nil
}

func (PlaintextCipher) Decrypt(ciphertext string) ([]byte, error) {
	return []byte(ciphertext), nil
}
