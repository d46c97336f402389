package market

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
)

// SecretBox seals reservation codes at rest with AES-256-GCM. The nonce is
// prepended to the ciphertext so each row is self-contained.
type SecretBox struct {
	aead cipher.AEAD
}

// NewSecretBox builds a box from a 32-byte key.
func NewSecretBox(key []byte) (*SecretBox, error) {
	if len(key) != 32 {
		return nil, fmt.Errorf("secret key must be 32 bytes, got %d", len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &SecretBox{aead: aead}, nil
}

// Seal encrypts plaintext with a fresh random nonce.
func (b *SecretBox) Seal(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, b.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}
	return b.aead.Seal(nonce, nonce, plaintext, nil), nil
}

// Open decrypts a Seal output.
func (b *SecretBox) Open(ciphertext []byte) ([]byte, error) {
	if len(ciphertext) < b.aead.NonceSize() {
		return nil, errors.New("ciphertext shorter than nonce")
	}
	nonce, sealed := ciphertext[:b.aead.NonceSize()], ciphertext[b.aead.NonceSize():]
	plaintext, err := b.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, fmt.Errorf("open secret: %w", err)
	}
	return plaintext, nil
}

// NewReservationCode mints the secret handed to a buyer after settlement.
func NewReservationCode() (string, error) {
	var buf [9]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", fmt.Errorf("generate reservation code: %w", err)
	}
	return "RES-" + base64.RawURLEncoding.EncodeToString(buf[:]), nil
}

// NewPaymentMemo mints the 8-character token a buyer must attach to the
// on-chain transfer. Uniqueness is enforced by the deal store, not here.
func NewPaymentMemo() (string, error) {
	var buf [6]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", fmt.Errorf("generate payment memo: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf[:]), nil
}
