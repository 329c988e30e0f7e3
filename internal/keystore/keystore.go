// Copyright (c) 2025 ToeiRei
// Querydeck - terminal database browser
// This source code is licensed under the MIT license found in the LICENSE file.

// package keystore manages the symmetric key protecting stored
// credentials and provides the encrypt/decrypt primitives built on it.
// The key is 32 raw random bytes in a dedicated file, created lazily on
// first use and persisted once.
package keystore // import "github.com/toeirei/querydeck/internal/keystore"

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/toeirei/querydeck/internal/model"
)

const (
	keySize = 32 // AES-256
	ivSize  = 12 // standard GCM nonce
	tagSize = 16
)

// ErrDecryption marks a secret whose authentication tag did not verify.
// Callers must drop the affected record rather than propagate this as a
// fatal failure; a legacy profile with an unreadable secret should not
// take the whole store down.
var ErrDecryption = errors.New("decryption failed")

// KeyStore derives and holds the encryption key for stored credentials.
type KeyStore struct {
	path string
	key  []byte
}

// New returns a KeyStore backed by the key file at path. The file is
// not touched until the key is first needed.
func New(path string) *KeyStore {
	return &KeyStore{path: path}
}

// GetOrCreateKey loads the key file when it is present and exactly 32
// bytes; otherwise it generates a fresh key from the system CSPRNG and
// persists it with owner-only permissions. Infrastructure failures
// (unreadable file, uncreatable directory) propagate: they signal an
// unusable data directory, not a data-quality issue.
func (k *KeyStore) GetOrCreateKey() ([]byte, error) {
	if k.key != nil {
		return k.key, nil
	}
	data, err := os.ReadFile(k.path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read key file: %w", err)
	}
	if err == nil && len(data) == keySize {
		k.key = data
		return k.key, nil
	}

	key := make([]byte, keySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(k.path), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create key directory: %w", err)
	}
	if err := os.WriteFile(k.path, key, 0o600); err != nil {
		return nil, fmt.Errorf("failed to persist key: %w", err)
	}
	k.key = key
	return k.key, nil
}

// Encrypt seals plaintext with AES-256-GCM under a fresh random IV.
// IV reuse for a given key is forbidden, so every call draws a new one.
func (k *KeyStore) Encrypt(plaintext string) (*model.EncryptedSecret, error) {
	key, err := k.GetOrCreateKey()
	if err != nil {
		return nil, err
	}
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	iv := make([]byte, ivSize)
	if _, err := rand.Read(iv); err != nil {
		return nil, fmt.Errorf("failed to generate iv: %w", err)
	}
	sealed := gcm.Seal(nil, iv, []byte(plaintext), nil)
	// Seal appends the tag; store it separately.
	ct, tag := sealed[:len(sealed)-tagSize], sealed[len(sealed)-tagSize:]
	return &model.EncryptedSecret{
		Encrypted: hex.EncodeToString(ct),
		IV:        hex.EncodeToString(iv),
		Tag:       hex.EncodeToString(tag),
	}, nil
}

// Decrypt opens a sealed secret. Tag verification failure (or a
// malformed envelope) returns ErrDecryption.
func (k *KeyStore) Decrypt(secret *model.EncryptedSecret) (string, error) {
	key, err := k.GetOrCreateKey()
	if err != nil {
		return "", err
	}
	gcm, err := newGCM(key)
	if err != nil {
		return "", err
	}
	ct, err := hex.DecodeString(secret.Encrypted)
	if err != nil {
		return "", fmt.Errorf("%w: bad ciphertext encoding", ErrDecryption)
	}
	iv, err := hex.DecodeString(secret.IV)
	if err != nil || len(iv) != ivSize {
		return "", fmt.Errorf("%w: bad iv", ErrDecryption)
	}
	tag, err := hex.DecodeString(secret.Tag)
	if err != nil || len(tag) != tagSize {
		return "", fmt.Errorf("%w: bad tag", ErrDecryption)
	}
	plain, err := gcm.Open(nil, iv, append(ct, tag...), nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecryption, err)
	}
	return string(plain), nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to init cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to init gcm: %w", err)
	}
	return gcm, nil
}
