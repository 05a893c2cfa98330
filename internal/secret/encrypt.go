package secret

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
)

// KeySize is the AES-256 key length in bytes.
const KeySize = 32

// EncryptedPassword is a password sealed with AES-256-GCM. Both fields are
// base64 so the value can live in a yaml or json config file.
type EncryptedPassword struct {
	Enc   string `yaml:"enc" json:"enc"`
	Nonce string `yaml:"nonce" json:"nonce"`
}

// IsZero reports whether no ciphertext is stored.
func (ep EncryptedPassword) IsZero() bool {
	return ep.Enc == "" && ep.Nonce == ""
}

// Encrypt seals plaintext under key with a fresh random nonce.
func Encrypt(key []byte, plaintext string) (EncryptedPassword, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return EncryptedPassword{}, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return EncryptedPassword{}, fmt.Errorf("failed to generate nonce: %w", err)
	}

	ciphertext := gcm.Seal(nil, nonce, []byte(plaintext), nil)
	return EncryptedPassword{
		Enc:   base64.StdEncoding.EncodeToString(ciphertext),
		Nonce: base64.StdEncoding.EncodeToString(nonce),
	}, nil
}

// Decrypt opens an EncryptedPassword with key. Tampered ciphertext or a key
// from another machine fails authentication and returns an error.
func Decrypt(key []byte, ep EncryptedPassword) (string, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return "", err
	}

	ciphertext, err := base64.StdEncoding.DecodeString(ep.Enc)
	if err != nil {
		return "", fmt.Errorf("invalid ciphertext encoding: %w", err)
	}
	nonce, err := base64.StdEncoding.DecodeString(ep.Nonce)
	if err != nil {
		return "", fmt.Errorf("invalid nonce encoding: %w", err)
	}
	if len(nonce) != gcm.NonceSize() {
		return "", errors.New("invalid nonce length")
	}

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt password: %w", err)
	}
	return string(plaintext), nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("encryption key must be %d bytes, got %d", KeySize, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return gcm, nil
}
