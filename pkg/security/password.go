package security

import (
	"errors"
	"unicode"

	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/medhaven/hospital-api/pkg/errors"
)

var (
	ErrHashingFailed = errors.New("password hashing failed")
	MinPasswordLen   = 8
)

// PasswordHasher provides interface for password operations
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hashedPassword, password string) error
}

type bcryptHasher struct {
	cost int
}

// NewBcryptHasher creates a new password hasher using bcrypt
func NewBcryptHasher(cost int) PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &bcryptHasher{cost: cost}
}

func (b *bcryptHasher) Hash(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), b.cost)
	if err != nil {
		return "", ErrHashingFailed
	}
	return string(bytes), nil
}

func (b *bcryptHasher) Compare(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

// ValidatePassword checks the password policy and returns one field error per
// violated rule so callers can report all of them at once.
func ValidatePassword(password string) []apperrors.FieldError {
	var details []apperrors.FieldError

	if len(password) < MinPasswordLen {
		details = append(details, apperrors.FieldError{
			Code:        "PasswordTooShort",
			Field:       "password",
			Description: "password must be at least 8 characters long",
		})
	}

	var hasLetter, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}

	if !hasLetter {
		details = append(details, apperrors.FieldError{
			Code:        "PasswordRequiresLetter",
			Field:       "password",
			Description: "password must contain at least one letter",
		})
	}
	if !hasDigit {
		details = append(details, apperrors.FieldError{
			Code:        "PasswordRequiresDigit",
			Field:       "password",
			Description: "password must contain at least one digit",
		})
	}

	return details
}
