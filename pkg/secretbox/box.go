// Package secretbox encrypts second-factor secrets at rest with AES-256-GCM.
//
// The AEAD key is derived from a 32-byte master key with HKDF-SHA256, so the
// master key can be shared with other subsystems without key reuse. Every
// ciphertext is bound to a scope (the owning account identifier) through the
// additional authenticated data: a ciphertext copied onto another account's
// row fails to open.
package secretbox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"io"

	"golang.org/x/crypto/hkdf"
)

// KeySize is the master key length (AES-256).
const KeySize = 32

const hkdfInfo = "twofactor/second-factor-secret/v1"

// Box seals and opens secrets. It is safe for concurrent use.
type Box struct {
	aead cipher.AEAD
}

// New derives the encryption key from master and returns a ready Box.
func New(master []byte) (*Box, error) {
	if len(master) != KeySize {
		return nil, errors.Join(ErrFailedToLoadKey, ErrInvalidKeyLength)
	}

	key := make([]byte, KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, master, nil, []byte(hkdfInfo)), key); err != nil {
		return nil, errors.Join(ErrFailedToLoadKey, err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errors.Join(ErrFailedToLoadKey, err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, errors.Join(ErrFailedToLoadKey, err)
	}

	return &Box{aead: aead}, nil
}

// NewFromConfig decodes the Base64 master key from cfg.
func NewFromConfig(cfg Config) (*Box, error) {
	key, err := DecodeKey(cfg.EncryptionKey)
	if err != nil {
		return nil, err
	}
	return New(key)
}

// Seal encrypts plainText for scope and returns base64(nonce || ciphertext).
func (b *Box) Seal(plainText, scope string) (string, error) {
	nonce := make([]byte, b.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", errors.Join(ErrFailedToEncrypt, err)
	}

	cipherText := b.aead.Seal(nonce, nonce, []byte(plainText), []byte(scope))
	return base64.StdEncoding.EncodeToString(cipherText), nil
}

// Open reverses Seal. A wrong scope or a tampered ciphertext fails with ErrFailedToDecrypt.
func (b *Box) Open(cipherTextBase64, scope string) (string, error) {
	cipherText, err := base64.StdEncoding.DecodeString(cipherTextBase64)
	if err != nil {
		return "", errors.Join(ErrFailedToDecrypt, err)
	}

	nonceSize := b.aead.NonceSize()
	if len(cipherText) < nonceSize {
		return "", errors.Join(ErrFailedToDecrypt, ErrCipherTextTooShort)
	}
	nonce, cipherText := cipherText[:nonceSize], cipherText[nonceSize:]

	plainText, err := b.aead.Open(nil, nonce, cipherText, []byte(scope))
	if err != nil {
		return "", errors.Join(ErrFailedToDecrypt, err)
	}

	return string(plainText), nil
}

// GenerateKey returns a new random master key.
func GenerateKey() ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, errors.Join(ErrFailedToGenerateKey, err)
	}
	return key, nil
}

// GenerateEncodedKey returns a new master key encoded for SECOND_FACTOR_ENCRYPTION_KEY.
func GenerateEncodedKey() (string, error) {
	key, err := GenerateKey()
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(key), nil
}

// DecodeKey decodes a Base64 master key and checks its length.
func DecodeKey(encoded string) ([]byte, error) {
	if encoded == "" {
		return nil, errors.Join(ErrFailedToLoadKey, ErrEncryptionKeyNotSet)
	}

	key, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, errors.Join(ErrFailedToLoadKey, err)
	}

	if len(key) != KeySize {
		return nil, errors.Join(ErrFailedToLoadKey, ErrInvalidKeyLength)
	}

	return key, nil
}
