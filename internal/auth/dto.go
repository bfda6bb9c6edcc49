// AngelaMos | 2026
// dto.go

package auth

import (
	"time"

	"github.com/carterperez-dev/brasil-no-mundo/internal/domain"
	"github.com/carterperez-dev/brasil-no-mundo/internal/middleware"
)

type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,max=128"`
}

type RegisterRequest struct {
	Email    string `json:"email"    validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=128"`
	Name     string `json:"name"     validate:"required,min=1,max=100"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password"     validate:"required,min=8,max=128"`
}

// UserResponse is the public projection of a user returned by the auth
// endpoints.
type UserResponse struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Role   string `json:"role"`
	Tier   string `json:"tier"`
	Avatar string `json:"avatar"`
}

func ToUserResponse(u domain.User) UserResponse {
	return UserResponse{
		ID:     u.ID,
		Name:   u.Name,
		Role:   u.Role,
		Tier:   u.Tier,
		Avatar: u.Avatar,
	}
}

type MeResponse struct {
	UserResponse
	ExpiresAt time.Time `json:"expires_at"`
}

func ToMeResponse(c *middleware.AccessTokenClaims) MeResponse {
	return MeResponse{
		UserResponse: UserResponse{
			ID:     c.UserID,
			Name:   c.Name,
			Role:   c.Role,
			Tier:   c.Tier,
			Avatar: c.Avatar,
		},
		ExpiresAt: c.ExpiresAt,
	}
}

type SessionInfo struct {
	ID        string    `json:"id"`
	UserAgent string    `json:"user_agent"`
	IPAddress string    `json:"ip_address"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

type SessionsResponse struct {
	Sessions []SessionInfo `json:"sessions"`
}
