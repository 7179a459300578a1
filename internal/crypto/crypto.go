package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrDecrypt is returned for any token that cannot be decrypted: malformed
// input, a failed authentication tag, or a token produced under another key.
// Callers must treat it as a hard failure, never as "no secret".
var ErrDecrypt = errors.New("secret decryption failed")

// tokenPrefix versions the token format so a key-id can be added later
// without breaking stored ciphertexts.
const tokenPrefix = "v1:"

// Encryptor seals and opens secret strings with AES-256-GCM under a fixed
// process-wide key. Tokens are self-contained: prefix + base64(nonce || ct).
type Encryptor struct {
	aead cipher.AEAD
}

// NewEncryptor creates an Encryptor from a 64-char hex key (32 bytes).
func NewEncryptor(hexKey string) (*Encryptor, error) {
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("invalid encryption key: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("encryption key must be 32 bytes, got %d", len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &Encryptor{aead: aead}, nil
}

// Encrypt seals plaintext into a self-contained token. A fresh random nonce
// is used per call, so encrypting the same value twice yields different
// tokens.
func (e *Encryptor) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, e.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	sealed := e.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return tokenPrefix + base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a token produced by Encrypt. It fails with ErrDecrypt for
// anything it cannot authenticate.
func (e *Encryptor) Decrypt(token string) (string, error) {
	raw, ok := strings.CutPrefix(token, tokenPrefix)
	if !ok {
		return "", fmt.Errorf("%w: unknown token format", ErrDecrypt)
	}

	sealed, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecrypt, err)
	}
	if len(sealed) < e.aead.NonceSize() {
		return "", fmt.Errorf("%w: token too short", ErrDecrypt)
	}

	nonce, ciphertext := sealed[:e.aead.NonceSize()], sealed[e.aead.NonceSize():]
	plaintext, err := e.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecrypt, err)
	}
	return string(plaintext), nil
}
