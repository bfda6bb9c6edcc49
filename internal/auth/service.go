// AngelaMos | 2026
// service.go

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/carterperez-dev/brasil-no-mundo/internal/core"
	"github.com/carterperez-dev/brasil-no-mundo/internal/domain"
	"github.com/carterperez-dev/brasil-no-mundo/internal/middleware"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenReuse         = errors.New("token reuse detected")
	ErrEmailExists        = errors.New("email already exists")
)

// UserStore is the slice of the domain store the session service needs.
type UserStore interface {
	CreateUser(u domain.User) (domain.User, error)
	UserByID(id string) (domain.User, error)
	UserByEmail(email string) (domain.User, error)
	UpdateUser(id string, fn func(u *domain.User) error) (domain.User, error)
}

type Service struct {
	repo   Repository
	jwt    *JWTManager
	users  UserStore
	logger *slog.Logger
	now    func() time.Time
}

func NewService(
	repo Repository,
	jwt *JWTManager,
	users UserStore,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:   repo,
		jwt:    jwt,
		users:  users,
		logger: logger,
		now:    time.Now,
	}
}

// Session is the result of a successful login, registration or refresh.
type Session struct {
	User             domain.User
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}

func (s *Service) Login(
	ctx context.Context,
	req LoginRequest,
	userAgent, ipAddress string,
) (*Session, error) {
	user, err := s.users.UserByEmail(req.Email)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			//nolint:errcheck // burn the same argon2 cost as a real account
			_, _, _ = core.CheckPassword(req.Password, "")
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	valid, newHash, err := core.CheckPassword(req.Password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}

	if !valid {
		return nil, ErrInvalidCredentials
	}

	if newHash != "" {
		//nolint:errcheck // best-effort rehash upgrade
		_, _ = s.users.UpdateUser(user.ID, func(u *domain.User) error {
			u.PasswordHash = newHash
			return nil
		})
	}

	core.AddSpanEvent(ctx, "auth.login", attribute.String("user.id", user.ID))

	return s.issueSession(ctx, user, userAgent, ipAddress, "")
}

func (s *Service) Register(
	ctx context.Context,
	req RegisterRequest,
	userAgent, ipAddress string,
) (*Session, error) {
	passwordHash, err := core.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	name := strings.TrimSpace(req.Name)
	now := s.now()

	user, err := s.users.CreateUser(domain.User{
		ID:           uuid.New().String(),
		Name:         name,
		Email:        req.Email,
		PasswordHash: passwordHash,
		Role:         domain.RoleUser,
		Tier:         domain.TierFree,
		Avatar:       DefaultAvatar(name),
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("user registered", "user_id", user.ID)

	return s.issueSession(ctx, user, userAgent, ipAddress, "")
}

func DefaultAvatar(name string) string {
	return "https://picsum.photos/seed/" + url.PathEscape(name) + "/100"
}

// Refresh rotates a refresh token. Presenting a token that was already
// rotated is treated as theft and revokes every token in its family.
func (s *Service) Refresh(
	ctx context.Context,
	refreshToken, userAgent, ipAddress string,
) (*Session, error) {
	storedToken, err := s.repo.FindByHash(ctx, core.HashToken(refreshToken))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, fmt.Errorf("refresh: %w", core.ErrTokenInvalid)
		}
		return nil, fmt.Errorf("find token: %w", err)
	}

	if storedToken.IsUsed {
		return nil, s.revokeFamily(ctx, storedToken)
	}

	if !storedToken.IsValid(s.now()) {
		if storedToken.IsRevoked() {
			return nil, fmt.Errorf("refresh: %w", core.ErrTokenRevoked)
		}
		return nil, fmt.Errorf("refresh: %w", core.ErrTokenExpired)
	}

	user, err := s.users.UserByID(storedToken.UserID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, fmt.Errorf("refresh: %w", core.ErrTokenInvalid)
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	newTokenID := uuid.New().String()
	if err := s.repo.MarkAsUsed(ctx, storedToken.ID, newTokenID); err != nil {
		if errors.Is(err, core.ErrConflict) {
			return nil, s.revokeFamily(ctx, storedToken)
		}
		return nil, fmt.Errorf("rotate token: %w", err)
	}

	return s.issueSessionWithID(
		ctx,
		user,
		userAgent,
		ipAddress,
		storedToken.FamilyID,
		newTokenID,
	)
}

func (s *Service) revokeFamily(ctx context.Context, token *RefreshToken) error {
	//nolint:errcheck // security revocation continues regardless
	_ = s.repo.RevokeByFamilyID(ctx, token.FamilyID)

	s.logger.Warn("refresh token reuse detected",
		"user_id", token.UserID,
		"family_id", token.FamilyID,
	)

	return ErrTokenReuse
}

// Logout revokes the presented refresh token. Unknown or empty tokens are
// not an error so logout always succeeds from the client's point of view.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}

	storedToken, err := s.repo.FindByHash(ctx, core.HashToken(refreshToken))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("find token: %w", err)
	}

	if err := s.repo.RevokeByID(ctx, storedToken.ID); err != nil &&
		!errors.Is(err, core.ErrNotFound) {
		return fmt.Errorf("revoke token: %w", err)
	}

	return nil
}

// LogoutAll revokes every refresh token of the user and bumps the token
// version so outstanding access tokens stop verifying immediately.
func (s *Service) LogoutAll(ctx context.Context, userID string) error {
	if err := s.repo.RevokeAllForUser(ctx, userID); err != nil {
		return fmt.Errorf("revoke all tokens: %w", err)
	}

	_, err := s.users.UpdateUser(userID, func(u *domain.User) error {
		u.TokenVersion++
		u.UpdatedAt = s.now()
		return nil
	})
	if err != nil {
		return fmt.Errorf("increment token version: %w", err)
	}

	return nil
}

func (s *Service) GetActiveSessions(
	ctx context.Context,
	userID string,
) ([]SessionInfo, error) {
	tokens, err := s.repo.GetActiveSessionsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get sessions: %w", err)
	}

	sessions := make([]SessionInfo, 0, len(tokens))
	for _, t := range tokens {
		sessions = append(sessions, SessionInfo{
			ID:        t.ID,
			UserAgent: t.UserAgent,
			IPAddress: t.IPAddress,
			CreatedAt: t.CreatedAt,
			ExpiresAt: t.ExpiresAt,
		})
	}

	return sessions, nil
}

func (s *Service) RevokeSession(
	ctx context.Context,
	userID, sessionID string,
) error {
	token, err := s.repo.FindByID(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("find session: %w", err)
	}

	if token.UserID != userID {
		return fmt.Errorf("revoke session: %w", core.ErrForbidden)
	}

	if err := s.repo.RevokeByID(ctx, sessionID); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}

	return nil
}

func (s *Service) ChangePassword(
	ctx context.Context,
	userID, currentPassword, newPassword string,
) error {
	user, err := s.users.UserByID(userID)
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}

	valid, _, err := core.CheckPassword(currentPassword, user.PasswordHash)
	if err != nil {
		return fmt.Errorf("verify password: %w", err)
	}

	if !valid {
		return ErrInvalidCredentials
	}

	newHash, err := core.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	_, err = s.users.UpdateUser(userID, func(u *domain.User) error {
		u.PasswordHash = newHash
		return nil
	})
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	if err := s.LogoutAll(ctx, userID); err != nil {
		return fmt.Errorf("logout all: %w", err)
	}

	return nil
}

// VerifyAccessToken checks the token signature and then resolves role and
// tier from the current user record. Tokens for deleted users or issued
// before the last LogoutAll are rejected.
func (s *Service) VerifyAccessToken(
	ctx context.Context,
	token string,
) (*middleware.AccessTokenClaims, error) {
	claims, err := s.jwt.ParseAccessToken(token)
	if err != nil {
		return nil, err
	}

	user, err := s.users.UserByID(claims.UserID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, fmt.Errorf("verify token: unknown user: %w", core.ErrTokenInvalid)
		}
		return nil, fmt.Errorf("verify token: %w", err)
	}

	if claims.TokenVersion < user.TokenVersion {
		return nil, fmt.Errorf("verify token: %w", core.ErrTokenRevoked)
	}

	return &middleware.AccessTokenClaims{
		UserID:    user.ID,
		Name:      user.Name,
		Role:      user.Role,
		Tier:      user.Tier,
		Avatar:    user.Avatar,
		ExpiresAt: claims.ExpiresAt,
	}, nil
}

func (s *Service) GetCurrentUser(
	_ context.Context,
	userID string,
) (domain.User, error) {
	return s.users.UserByID(userID)
}

// PruneExpired drops refresh tokens that expired more than a day ago.
func (s *Service) PruneExpired(ctx context.Context) (int64, error) {
	return s.repo.DeleteExpired(ctx, s.now().Add(-24*time.Hour))
}

func (s *Service) issueSession(
	ctx context.Context,
	user domain.User,
	userAgent, ipAddress, familyID string,
) (*Session, error) {
	return s.issueSessionWithID(
		ctx,
		user,
		userAgent,
		ipAddress,
		familyID,
		uuid.New().String(),
	)
}

func (s *Service) issueSessionWithID(
	ctx context.Context,
	user domain.User,
	userAgent, ipAddress, familyID, tokenID string,
) (*Session, error) {
	accessToken, accessExpiresAt, err := s.jwt.CreateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("create access token: %w", err)
	}

	refreshData, err := s.jwt.CreateRefreshToken(familyID)
	if err != nil {
		return nil, fmt.Errorf("create refresh token: %w", err)
	}

	if err := s.repo.Create(ctx, &RefreshToken{
		ID:        tokenID,
		UserID:    user.ID,
		TokenHash: refreshData.Hash,
		FamilyID:  refreshData.FamilyID,
		ExpiresAt: refreshData.ExpiresAt,
		UserAgent: userAgent,
		IPAddress: ipAddress,
	}); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	return &Session{
		User:             user,
		AccessToken:      accessToken,
		AccessExpiresAt:  accessExpiresAt,
		RefreshToken:     refreshData.Token,
		RefreshExpiresAt: refreshData.ExpiresAt,
	}, nil
}
