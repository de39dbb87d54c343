package security

import "golang.org/x/crypto/bcrypt"

// ErrPasswordTooLong mirrors bcrypt's 72-byte input limit.
var ErrPasswordTooLong = bcrypt.ErrPasswordTooLong

// HashPassword hashes a plain text password with bcrypt.
func HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	return string(hash), nil
}

func CheckPassword(hash, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
}

// Matches reports whether plain matches hash. Any comparison error counts as a mismatch.
func Matches(hash, plain string) bool {
	if hash == "" || plain == "" {
		return false
	}
	return CheckPassword(hash, plain) == nil
}
