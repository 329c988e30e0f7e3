// Copyright (c) 2025 ToeiRei
// Querydeck - terminal database browser
// This source code is licensed under the MIT license found in the LICENSE file.

package keystore

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *KeyStore {
	t.Helper()
	return New(filepath.Join(t.TempDir(), ".key"))
}

func TestGetOrCreateKey_GeneratesAndPersists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", ".key")
	ks := New(path)

	key, err := ks.GetOrCreateKey()
	require.NoError(t, err)
	assert.Len(t, key, 32)

	onDisk, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, key, onDisk)

	// A fresh store over the same file loads the same key.
	again, err := New(path).GetOrCreateKey()
	require.NoError(t, err)
	assert.Equal(t, key, again)
}

func TestGetOrCreateKey_RegeneratesWrongSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".key")
	require.NoError(t, os.WriteFile(path, []byte("short"), 0o600))

	key, err := New(path).GetOrCreateKey()
	require.NoError(t, err)
	assert.Len(t, key, 32)

	onDisk, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, key, onDisk)
}

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	ks := newTestStore(t)
	for _, plaintext := range []string{"p", "hunter2", "päss wörd", "with\nnewline", "0123456789abcdefghij"} {
		secret, err := ks.Encrypt(plaintext)
		require.NoError(t, err)
		got, err := ks.Decrypt(secret)
		require.NoError(t, err)
		assert.Equal(t, plaintext, got)
	}
}

func TestEncrypt_FreshIVPerCall(t *testing.T) {
	ks := newTestStore(t)
	a, err := ks.Encrypt("same input")
	require.NoError(t, err)
	b, err := ks.Encrypt("same input")
	require.NoError(t, err)
	assert.NotEqual(t, a.IV, b.IV)
	assert.NotEqual(t, a.Encrypted, b.Encrypted)
}

func TestDecrypt_TamperedCiphertext(t *testing.T) {
	ks := newTestStore(t)
	secret, err := ks.Encrypt("topsecret")
	require.NoError(t, err)

	flip := []byte(secret.Encrypted)
	if flip[0] == 'a' {
		flip[0] = 'b'
	} else {
		flip[0] = 'a'
	}
	secret.Encrypted = string(flip)

	_, err = ks.Decrypt(secret)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDecryption), "want ErrDecryption, got %v", err)
}

func TestDecrypt_MalformedEnvelope(t *testing.T) {
	ks := newTestStore(t)
	secret, err := ks.Encrypt("x")
	require.NoError(t, err)

	secret.IV = "not-hex"
	_, err = ks.Decrypt(secret)
	assert.True(t, errors.Is(err, ErrDecryption))
}

func TestDecrypt_WrongKey(t *testing.T) {
	ksA := newTestStore(t)
	ksB := newTestStore(t)

	secret, err := ksA.Encrypt("password")
	require.NoError(t, err)

	_, err = ksB.Decrypt(secret)
	assert.True(t, errors.Is(err, ErrDecryption))
}
