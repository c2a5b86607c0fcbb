package secrets

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	dErrors "pdsoauth/pkg/domain-errors"
)

const (
	// codeBytes gives authorization codes 160 bits of entropy.
	codeBytes = 20
	// maxSecretBytes is the longest input bcrypt reads; anything past it
	// would be ignored by the comparison.
	maxSecretBytes = 72
)

// GenerateCode returns an unguessable authorization code as lowercase hex.
func GenerateCode() (string, error) {
	buf := make([]byte, codeBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate authorization code: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// Hash creates a bcrypt hash of a client secret for storage.
func Hash(secret string) (string, error) {
	if secret == "" {
		return "", dErrors.New(dErrors.CodeInvalidRequest, "secret cannot be empty")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", dErrors.New(dErrors.CodeInvalidRequest, "secret is too long")
		}
		return "", fmt.Errorf("hash secret: %w", err)
	}
	return string(hashed), nil
}

// Verify checks a presented client secret against its stored hash.
func Verify(secret, hash string) error {
	if len(secret) > maxSecretBytes {
		return dErrors.New(dErrors.CodeInvalidClient, "invalid client credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return dErrors.New(dErrors.CodeInvalidClient, "invalid client credentials")
		}
		return fmt.Errorf("verify secret: %w", err)
	}
	return nil
}
