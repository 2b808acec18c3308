package engine

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"io"

	"golang.org/x/crypto/argon2"
)

// snapshotKeySalt keeps key derivation deterministic across restarts so a
// snapshot written under a passphrase can be read back later.
var snapshotKeySalt = []byte("shopdb.snapshot.v1")

// deriveSnapshotKey stretches the configured passphrase into a 32-byte
// AES-256 key.
func deriveSnapshotKey(passphrase string) []byte {
	return argon2.IDKey([]byte(passphrase), snapshotKeySalt, 1, 64*1024, 4, 32)
}

// Helper function to encrypt snapshot bytes
func encryptSnapshot(data, key []byte) ([]byte, error) {
	// Create cipher block
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	// Create GCM mode
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	// Create nonce
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	// Encrypt and seal
	ciphertext := gcm.Seal(nonce, nonce, data, nil)
	return ciphertext, nil
}

// Helper function to decrypt snapshot bytes
func decryptSnapshot(data, key []byte) ([]byte, error) {
	// Create cipher block
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	// Create GCM mode
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	// Get nonce size
	nonceSize := gcm.NonceSize()
	if len(data) < nonceSize {
		return nil, errors.New("ciphertext too short")
	}

	// Extract nonce and ciphertext
	nonce, ciphertext := data[:nonceSize], data[nonceSize:]

	// Decrypt
	return gcm.Open(nil, nonce, ciphertext, nil)
}
