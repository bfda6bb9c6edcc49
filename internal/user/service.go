// AngelaMos | 2026
// service.go

package user

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/carterperez-dev/brasil-no-mundo/internal/core"
	"github.com/carterperez-dev/brasil-no-mundo/internal/domain"
)

type Store interface {
	Users() []domain.User
	UserByID(id string) (domain.User, error)
	UpdateUser(id string, fn func(u *domain.User) error) (domain.User, error)
	Plan(id string) (domain.Plan, error)
}

type Service struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time
}

func NewService(store Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, logger: logger, now: time.Now}
}

func (s *Service) GetMe(_ context.Context, userID string) (domain.User, error) {
	if userID == "" {
		return domain.User{}, fmt.Errorf("get me: %w", core.ErrUnauthorized)
	}
	return s.store.UserByID(userID)
}

// UpdateMe changes the caller's display name or avatar. New chat messages
// and listings pick the new name up on the next request.
func (s *Service) UpdateMe(
	_ context.Context,
	userID string,
	req UpdateProfileRequest,
) (domain.User, error) {
	if userID == "" {
		return domain.User{}, fmt.Errorf("update me: %w", core.ErrUnauthorized)
	}

	return s.store.UpdateUser(userID, func(u *domain.User) error {
		if req.Name != nil {
			name := strings.TrimSpace(*req.Name)
			if name == "" {
				return core.ValidationError("name must not be blank")
			}
			u.Name = name
		}
		if req.Avatar != nil {
			u.Avatar = *req.Avatar
		}
		u.UpdatedAt = s.now().UTC()
		return nil
	})
}

func (s *Service) GetUser(_ context.Context, id string) (domain.User, error) {
	return s.store.UserByID(id)
}

func (s *Service) ListUsers(
	_ context.Context,
	params ListUsersParams,
) ([]domain.User, int) {
	params.Normalize()
	search := strings.ToLower(strings.TrimSpace(params.Search))

	var matched []domain.User
	for _, u := range s.store.Users() {
		if params.Role != "" && u.Role != params.Role {
			continue
		}
		if params.Tier != "" && u.Tier != params.Tier {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(u.Name), search) &&
			!strings.Contains(u.Email, search) {
			continue
		}
		matched = append(matched, u)
	}

	total := len(matched)
	start := min(params.Offset(), total)
	end := min(start+params.PageSize, total)

	return matched[start:end], total
}

// UpdateUserRole promotes or demotes an account. Admins cannot change their
// own role so the last admin cannot lock everyone out.
func (s *Service) UpdateUserRole(
	_ context.Context,
	actorID, id, role string,
) (domain.User, error) {
	if role != domain.RoleUser && role != domain.RoleAdmin {
		return domain.User{}, fmt.Errorf(
			"update role: invalid role %q: %w",
			role,
			core.ErrInvalidInput,
		)
	}
	if actorID == id {
		return domain.User{}, core.ForbiddenError("admins cannot change their own role")
	}

	u, err := s.store.UpdateUser(id, func(u *domain.User) error {
		u.Role = role
		u.UpdatedAt = s.now().UTC()
		return nil
	})
	if err != nil {
		return domain.User{}, err
	}

	s.logger.Info("user role changed",
		"actor_id", actorID,
		"user_id", id,
		"role", role,
	)
	return u, nil
}

// UpdateUserTier grants a plan without a payment, e.g. for refunds or
// comped memberships. The tier must name an existing plan.
func (s *Service) UpdateUserTier(
	_ context.Context,
	actorID, id, tier string,
) (domain.User, error) {
	if _, err := s.store.Plan(tier); err != nil {
		return domain.User{}, fmt.Errorf(
			"update tier: unknown plan %q: %w",
			tier,
			core.ErrInvalidInput,
		)
	}

	u, err := s.store.UpdateUser(id, func(u *domain.User) error {
		u.Tier = tier
		u.UpdatedAt = s.now().UTC()
		return nil
	})
	if err != nil {
		return domain.User{}, err
	}

	s.logger.Info("user tier changed",
		"actor_id", actorID,
		"user_id", id,
		"tier", tier,
	)
	return u, nil
}
