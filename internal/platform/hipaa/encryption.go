// Package hipaa holds the compliance-facing helpers of the verification
// core: PHI field encryption and masking, and audit-trail verification.
// Failures here are SECURITY errors and must fail the calling test.
package hipaa

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"io"

	"github.com/andreeamiut/HealthcareTestAutomationFramework/internal/platform/errs"
)

// phiEncryptor performs AES-256-GCM field-level encryption. The blob format
// is base64(nonce || ciphertext); only a process holding the same key can
// reverse it.
type phiEncryptor struct {
	aead cipher.AEAD
}

func newPHIEncryptor(key []byte) (*phiEncryptor, error) {
	if len(key) != 32 {
		return nil, errs.Security("encryption key must be 32 bytes, got %d", len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errs.Wrap(errs.KindSecurity, err, "create cipher")
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, errs.Wrap(errs.KindSecurity, err, "create GCM")
	}
	return &phiEncryptor{aead: aead}, nil
}

func (e *phiEncryptor) encrypt(plaintext string) (string, error) {
	nonce := make([]byte, e.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", errs.Wrap(errs.KindSecurity, err, "generate nonce")
	}
	// Seal appends ciphertext to nonce, so the blob is nonce + ciphertext.
	sealed := e.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// decrypt fails closed: a blob produced under a different key, truncated,
// or not produced by this component returns an error, never garbage.
func (e *phiEncryptor) decrypt(blob string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		return "", errs.Wrap(errs.KindSecurity, err, "decode blob")
	}
	nonceSize := e.aead.NonceSize()
	if len(data) < nonceSize {
		return "", errs.Security("blob too short to carry a nonce")
	}
	nonce, ciphertext := data[:nonceSize], data[nonceSize:]
	plaintext, err := e.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", errs.Wrap(errs.KindSecurity, err, "decrypt")
	}
	return string(plaintext), nil
}
