// AngelaMos | 2026
// entity.go

package auth

import (
	"time"
)

// RefreshToken is one link in a rotation chain. Tokens of one login share a
// FamilyID; presenting an already-used link revokes the whole family.
type RefreshToken struct {
	ID           string
	UserID       string
	TokenHash    string
	FamilyID     string
	ExpiresAt    time.Time
	CreatedAt    time.Time
	IsUsed       bool
	UsedAt       *time.Time
	RevokedAt    *time.Time
	ReplacedByID *string
	UserAgent    string
	IPAddress    string
}

func (t *RefreshToken) IsExpired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

func (t *RefreshToken) IsRevoked() bool {
	return t.RevokedAt != nil
}

func (t *RefreshToken) IsValid(now time.Time) bool {
	return !t.IsExpired(now) && !t.IsRevoked() && !t.IsUsed
}

func (t *RefreshToken) MarkAsUsed(replacedByID string, now time.Time) {
	t.IsUsed = true
	t.UsedAt = &now
	t.ReplacedByID = &replacedByID
}

func (t *RefreshToken) Revoke(now time.Time) {
	if t.RevokedAt == nil {
		t.RevokedAt = &now
	}
}
