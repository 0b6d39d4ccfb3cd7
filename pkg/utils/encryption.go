package utils

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"io"

	"golang.org/x/crypto/argon2"
)

const (
	keyLength   = 32
	kdfTime     = 1
	kdfMemory   = 64 * 1024
	kdfThreads  = 2
	kdfSaltText = "brift/stored-secrets/v1"
)

// Cipher encrypts short secrets (stored passwords) with AES-256-GCM.
type Cipher struct {
	aead cipher.AEAD
}

// NewCipher builds a cipher from ENCRYPTION_KEY. A base64 value decoding to exactly 32 bytes is
// used as the key directly; any other non-empty value is treated as a passphrase and stretched
// with Argon2id.
func NewCipher(secret string) (*Cipher, error) {
	if secret == "" {
		return nil, errors.New("ENCRYPTION_KEY is not set")
	}
	key, err := base64.StdEncoding.DecodeString(secret)
	if err != nil || len(key) != keyLength {
		key = argon2.IDKey([]byte(secret), []byte(kdfSaltText), kdfTime, kdfMemory, kdfThreads, keyLength)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &Cipher{aead: gcm}, nil
}

// Encrypt returns base64(nonce || ciphertext).
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}
	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt.
func (c *Cipher) Decrypt(encoded string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", err
	}
	nonceSize := c.aead.NonceSize()
	if len(data) < nonceSize {
		return "", errors.New("ciphertext too short")
	}
	nonce, sealed := data[:nonceSize], data[nonceSize:]
	plaintext, err := c.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}
