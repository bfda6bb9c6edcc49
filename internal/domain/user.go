// AngelaMos | 2026
// user.go

package domain

import (
	"time"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

const (
	TierFree = "free"
	TierPro  = "pro"
)

// User is the source of truth for identity. Session tokens are detached
// projections of it and go stale as soon as Role or Tier change.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	Tier         string    `json:"tier"`
	Avatar       string    `json:"avatar"`
	TokenVersion int       `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func (u *User) IsPaying() bool {
	return u.Tier != "" && u.Tier != TierFree
}
