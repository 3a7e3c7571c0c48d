package credstore

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

const (
	envelopePrefix = "artisan.credentials.v1:"
	saltSize       = 16
	hkdfInfo       = "artisan credentials v1"
)

// additionalData binds ciphertexts to this envelope version.
var additionalData = []byte(envelopePrefix)

func deriveKey(master, salt []byte) ([]byte, error) {
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, master, salt, []byte(hkdfInfo)), key); err != nil {
		return nil, fmt.Errorf("deriving key: %w", err)
	}
	return key, nil
}

// seal encrypts plaintext into the textual envelope:
// prefix + base64(salt | nonce | ciphertext).
func seal(master, plaintext []byte) ([]byte, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generating salt: %w", err)
	}

	key, err := deriveKey(master, salt)
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("creating cipher: %w", err)
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generating nonce: %w", err)
	}

	blob := make([]byte, 0, saltSize+len(nonce)+len(plaintext)+aead.Overhead())
	blob = append(blob, salt...)
	blob = append(blob, nonce...)
	blob = aead.Seal(blob, nonce, plaintext, additionalData)

	return []byte(envelopePrefix + base64.StdEncoding.EncodeToString(blob) + "\n"), nil
}

// open reverses seal.
func open(master, envelope []byte) ([]byte, error) {
	text := strings.TrimSpace(string(envelope))
	payload, ok := strings.CutPrefix(text, envelopePrefix)
	if !ok {
		return nil, errors.New("unrecognized envelope format")
	}

	blob, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("decoding envelope: %w", err)
	}
	if len(blob) < saltSize+chacha20poly1305.NonceSize+chacha20poly1305.Overhead {
		return nil, errors.New("ciphertext too short")
	}

	salt := blob[:saltSize]
	nonce := blob[saltSize : saltSize+chacha20poly1305.NonceSize]
	ciphertext := blob[saltSize+chacha20poly1305.NonceSize:]

	key, err := deriveKey(master, salt)
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("creating cipher: %w", err)
	}

	plaintext, err := aead.Open(nil, nonce, ciphertext, additionalData)
	if err != nil {
		return nil, errors.New("authentication failed, wrong key or corrupted data")
	}
	return plaintext, nil
}
