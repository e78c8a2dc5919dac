package services

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"basketbolista/internal/domain"
)

const pinBcryptCost = 10

type bcryptPinHasher struct{}

// NewPinHasher returns a bcrypt-backed PinHasher. The reference app stored
// and even emailed PINs in plaintext; here only the hash ever touches disk.
func NewPinHasher() domain.PinHasher {
	return bcryptPinHasher{}
}

func (bcryptPinHasher) Hash(pin string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), pinBcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash pin: %w", err)
	}
	return string(hash), nil
}

func (bcryptPinHasher) Compare(hash, pin string) bool {
	if hash == "" || pin == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pin)) == nil
}
