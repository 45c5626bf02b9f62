package auth

import (
	"crypto/subtle"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Editor is the single account allowed to change the catalog. An empty
// PasswordHash disables authentication entirely.
type Editor struct {
	Username     string
	PasswordHash string
}

func (e Editor) Enabled() bool {
	return e.PasswordHash != ""
}

// Check reports whether the credentials match the editor account.
func (e Editor) Check(username, password string) bool {
	if !e.Enabled() {
		return false
	}
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(e.Username)) == 1
	passErr := bcrypt.CompareHashAndPassword([]byte(e.PasswordHash), []byte(password))
	return userOK && passErr == nil
}

// HashPassword produces a value suitable for Editor.PasswordHash.
func HashPassword(password string) (string, error) {
	if len(password) < 8 || len(password) > 72 {
		return "", fmt.Errorf("password must be 8-72 chars")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}
