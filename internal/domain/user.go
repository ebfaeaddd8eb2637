package domain

import "time"

type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	Role         string
	IsVerified   bool

	// VerificationToken holds the sha256 hex of the pending raw token.
	VerificationToken  string
	VerificationSentAt *time.Time
	// ConsumedVerificationToken keeps the hash of the token that completed
	// verification, so a re-opened link resolves to "already verified".
	ConsumedVerificationToken string

	CreatedAt time.Time
}

// HasRole reports whether the user holds one of the given roles.
func (u User) HasRole(roles ...Role) bool {
	for _, r := range roles {
		if u.Role == string(r) {
			return true
		}
	}
	return false
}
