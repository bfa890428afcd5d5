package services

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
)

// SecretCipher seals tenant signing secrets for storage. AES-256-GCM under
// a key-encryption key supplied by configuration; secrets never reach the
// database in clear form.
type SecretCipher struct {
	aead cipher.AEAD
}

// NewSecretCipher derives a 256-bit key from the configured KEK material.
func NewSecretCipher(kek string) (*SecretCipher, error) {
	if kek == "" {
		return nil, fmt.Errorf("secret encryption key is required")
	}
	key := sha256.Sum256([]byte(kek))

	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &SecretCipher{aead: aead}, nil
}

// Seal encrypts secret material, returning ciphertext and the nonce used.
func (c *SecretCipher) Seal(plaintext []byte) (ciphertext, nonce []byte, err error) {
	nonce = make([]byte, c.aead.NonceSize())
	if _, err = rand.Read(nonce); err != nil {
		return nil, nil, err
	}
	ciphertext = c.aead.Seal(nil, nonce, plaintext, nil)
	return ciphertext, nonce, nil
}

// Open decrypts stored secret material.
func (c *SecretCipher) Open(ciphertext, nonce []byte) ([]byte, error) {
	return c.aead.Open(nil, nonce, ciphertext, nil)
}
