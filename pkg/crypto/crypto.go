// Package crypto provides authenticated encryption for customer PII fields.
//
// Ciphertexts are base64(iv || tag || data) with a 12-byte random nonce and a
// 16-byte GCM tag, so encrypting the same plaintext twice yields different
// values and tampering is detected on decrypt.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
)

const (
	nonceSize = 12
	tagSize   = 16
)

var ErrInvalidPayload = errors.New("crypto: invalid encrypted payload")

// FieldCipher encrypts and decrypts individual string fields with AES-256-GCM.
type FieldCipher struct {
	aead cipher.AEAD
}

// NewFieldCipher creates a cipher from a hex-encoded 32-byte key.
func NewFieldCipher(hexKey string) (*FieldCipher, error) {
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("crypto: invalid key encoding: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("crypto: key must be 32 bytes, got %d", len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("crypto: failed to create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("crypto: failed to create GCM: %w", err)
	}

	return &FieldCipher{aead: aead}, nil
}

// Encrypt encrypts a plaintext field value.
func (f *FieldCipher) Encrypt(plaintext string) (string, error) {
	iv := make([]byte, nonceSize)
	if _, err := rand.Read(iv); err != nil {
		return "", fmt.Errorf("crypto: failed to generate nonce: %w", err)
	}

	// Seal returns data||tag; the stored layout is iv||tag||data
	sealed := f.aead.Seal(nil, iv, []byte(plaintext), nil)
	data := sealed[:len(sealed)-tagSize]
	tag := sealed[len(sealed)-tagSize:]

	payload := make([]byte, 0, nonceSize+tagSize+len(data))
	payload = append(payload, iv...)
	payload = append(payload, tag...)
	payload = append(payload, data...)

	return base64.StdEncoding.EncodeToString(payload), nil
}

// Decrypt decrypts a value produced by Encrypt.
func (f *FieldCipher) Decrypt(payloadB64 string) (string, error) {
	payload, err := base64.StdEncoding.DecodeString(payloadB64)
	if err != nil {
		return "", fmt.Errorf("crypto: invalid base64 payload: %w", err)
	}
	if len(payload) < nonceSize+tagSize {
		return "", ErrInvalidPayload
	}

	iv := payload[:nonceSize]
	tag := payload[nonceSize : nonceSize+tagSize]
	data := payload[nonceSize+tagSize:]

	sealed := make([]byte, 0, len(data)+tagSize)
	sealed = append(sealed, data...)
	sealed = append(sealed, tag...)

	plaintext, err := f.aead.Open(nil, iv, sealed, nil)
	if err != nil {
		return "", fmt.Errorf("crypto: decryption failed: %w", err)
	}

	return string(plaintext), nil
}
