package hash

import (
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

func HashPassword(password string) (string, error) {
	hashBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashBytes), nil
}

func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// PolicyError aggregates every rule the candidate password failed.
type PolicyError struct {
	Reasons []string
}

func (e *PolicyError) Error() string {
	return "password policy violation: " + strings.Join(e.Reasons, ", ")
}

func ValidatePolicy(password string) error {
	var reasons []string
	if len(password) < 8 {
		reasons = append(reasons, "must be at least 8 characters")
	}
	var upper, lower, digit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !upper {
		reasons = append(reasons, "must contain an uppercase letter")
	}
	if !lower {
		reasons = append(reasons, "must contain a lowercase letter")
	}
	if !digit {
		reasons = append(reasons, "must contain a digit")
	}
	if len(reasons) > 0 {
		return &PolicyError{Reasons: reasons}
	}
	return nil
}
