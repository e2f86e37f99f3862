// Package service defines interfaces for domain logic backed by infrastructure.
package service

// PasswordHasher hashes and checks passwords and enforces the strength policy.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Check(password, hash string) bool
	// ValidatePasswordStrength returns domainerrors.ErrWeakPassword with details when the policy fails.
	ValidatePasswordStrength(password string) error
}
