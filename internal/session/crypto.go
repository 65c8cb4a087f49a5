package session

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
	"strings"
)

// sealer encrypts credential payloads before they leave the process.
type sealer interface {
	Seal(plaintext []byte) (string, error)
	Open(ciphertext string) ([]byte, error)
}

const (
	// Versioned prefixes allow key/algorithm rotation without migrations.
	cipherPrefixV1 = "v1:"
	plainPrefix    = "plain:"
)

// aesSealer is AES-256-GCM with a random nonce per payload.
type aesSealer struct {
	key [32]byte
}

// newSealer derives a 32-byte key from the configured secret. An empty
// secret yields a pass-through sealer for development setups.
func newSealer(secret string) sealer {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return plainSealer{}
	}
	return &aesSealer{key: sha256.Sum256([]byte(secret))}
}

func (s *aesSealer) Seal(plaintext []byte) (string, error) {
	block, err := aes.NewCipher(s.key[:])
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}
	ct := gcm.Seal(nil, nonce, plaintext, nil)

	buf := make([]byte, 0, len(nonce)+len(ct))
	buf = append(buf, nonce...)
	buf = append(buf, ct...)
	return cipherPrefixV1 + base64.StdEncoding.EncodeToString(buf), nil
}

func (s *aesSealer) Open(ciphertext string) ([]byte, error) {
	if strings.HasPrefix(ciphertext, plainPrefix) {
		return plainSealer{}.Open(ciphertext)
	}
	if !strings.HasPrefix(ciphertext, cipherPrefixV1) {
		return nil, fmt.Errorf("unknown payload cipher version")
	}
	data, err := base64.StdEncoding.DecodeString(ciphertext[len(cipherPrefixV1):])
	if err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(s.key[:])
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	if len(data) < gcm.NonceSize() {
		return nil, fmt.Errorf("payload too short")
	}
	nonce, ct := data[:gcm.NonceSize()], data[gcm.NonceSize():]
	return gcm.Open(nil, nonce, ct, nil)
}

type plainSealer struct{}

func (plainSealer) Seal(plaintext []byte) (string, error) {
	return plainPrefix + base64.StdEncoding.EncodeToString(plaintext), nil
}

func (plainSealer) Open(ciphertext string) ([]byte, error) {
	if !strings.HasPrefix(ciphertext, plainPrefix) {
		return nil, fmt.Errorf("unknown payload cipher version")
	}
	return base64.StdEncoding.DecodeString(ciphertext[len(plainPrefix):])
}
