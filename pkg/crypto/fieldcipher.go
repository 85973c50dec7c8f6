package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/pbkdf2"

	"github.com/medrelay/telemed-api/pkg/errors"
)

const (
	fieldIVSize  = 16
	fieldTagSize = 16
	fieldKeySize = 32

	// Iterations for deriving a key from a non-hex secret. The salt is
	// static on purpose: the secret itself is the key material, the salt
	// only domain-separates it from other uses of the same secret.
	fieldKDFIterations = 10000
	fieldKDFSalt       = "medrelay-field-encryption"
)

// FieldCipher encrypts individual clinical text fields before they reach
// the database and decrypts them after they leave it. Values are stored as
// hex(iv):hex(tag):hex(ciphertext) using AES-256-GCM.
//
// Decryption is deliberately forgiving: production data is a mix of
// encrypted and legacy plaintext values, so anything that does not parse
// or authenticate is returned unchanged with a logged warning.
type FieldCipher struct {
	aead   cipher.AEAD
	logger zerolog.Logger
}

// NewFieldCipher builds a cipher from the configured secret. A 64-hex-char
// secret is used directly as the 256-bit key; anything else goes through
// PBKDF2-SHA256. An empty secret is a configuration error, never a silent
// fallback to plaintext.
func NewFieldCipher(secret string, logger zerolog.Logger) (*FieldCipher, error) {
	if secret == "" {
		return nil, errors.NewConfiguration("field encryption secret is not configured")
	}

	key := deriveFieldKey(secret)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errors.NewConfiguration("failed to initialize field cipher")
	}

	aead, err := cipher.NewGCMWithNonceSize(block, fieldIVSize)
	if err != nil {
		return nil, errors.NewConfiguration("failed to initialize field cipher")
	}

	return &FieldCipher{aead: aead, logger: logger}, nil
}

func deriveFieldKey(secret string) []byte {
	if len(secret) == hex.EncodedLen(fieldKeySize) {
		if key, err := hex.DecodeString(secret); err == nil {
			return key
		}
	}
	return pbkdf2.Key([]byte(secret), []byte(fieldKDFSalt), fieldKDFIterations, fieldKeySize, sha256.New)
}

// Encrypt seals a single text value with a fresh random IV. Empty input is
// returned unchanged. Input already in ciphertext format is returned
// unchanged, so double-encrypting a stored value is a no-op.
func (f *FieldCipher) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}
	if IsEncrypted(plaintext) {
		return plaintext, nil
	}

	iv := make([]byte, fieldIVSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return "", errors.NewInternal(err)
	}

	sealed := f.aead.Seal(nil, iv, []byte(plaintext), nil)
	ciphertext := sealed[:len(sealed)-fieldTagSize]
	tag := sealed[len(sealed)-fieldTagSize:]

	return hex.EncodeToString(iv) + ":" + hex.EncodeToString(tag) + ":" + hex.EncodeToString(ciphertext), nil
}

// Decrypt opens a stored value. Anything not in ciphertext format is
// treated as legacy plaintext and passed through. Authentication failures
// also pass through: a decrypt failure must never turn a valid read into
// an error or hide the stored value.
func (f *FieldCipher) Decrypt(value string) string {
	if !IsEncrypted(value) {
		return value
	}

	parts := strings.Split(value, ":")
	iv, _ := hex.DecodeString(parts[0])
	tag, _ := hex.DecodeString(parts[1])
	ciphertext, _ := hex.DecodeString(parts[2])

	plaintext, err := f.aead.Open(nil, iv, append(ciphertext, tag...), nil)
	if err != nil {
		f.logger.Warn().Msg("field decryption failed, returning value unchanged")
		return value
	}
	return string(plaintext)
}

// IsEncrypted is the strict structural predicate for the stored ciphertext
// format: exactly three colon-joined hex segments with IV and tag segments
// of fixed length. Plaintext that merely contains colons never matches.
func IsEncrypted(value string) bool {
	parts := strings.Split(value, ":")
	if len(parts) != 3 {
		return false
	}
	if len(parts[0]) != hex.EncodedLen(fieldIVSize) || !isHex(parts[0]) {
		return false
	}
	if len(parts[1]) != hex.EncodedLen(fieldTagSize) || !isHex(parts[1]) {
		return false
	}
	return len(parts[2]) > 0 && len(parts[2])%2 == 0 && isHex(parts[2])
}

func isHex(s string) bool {
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'f':
		case r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}
