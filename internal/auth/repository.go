// AngelaMos | 2026
// repository.go

package auth

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/carterperez-dev/brasil-no-mundo/internal/core"
)

type Repository interface {
	Create(ctx context.Context, token *RefreshToken) error
	FindByHash(ctx context.Context, tokenHash string) (*RefreshToken, error)
	FindByID(ctx context.Context, id string) (*RefreshToken, error)
	MarkAsUsed(ctx context.Context, id, replacedByID string) error
	RevokeByID(ctx context.Context, id string) error
	RevokeByFamilyID(ctx context.Context, familyID string) error
	RevokeAllForUser(ctx context.Context, userID string) error
	GetActiveSessionsForUser(
		ctx context.Context,
		userID string,
	) ([]RefreshToken, error)
	DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error)
}

// memoryRepository keeps refresh tokens next to the in-memory user store;
// both share the process lifetime.
type memoryRepository struct {
	mu     sync.RWMutex
	byID   map[string]*RefreshToken
	byHash map[string]string
	now    func() time.Time
}

func NewMemoryRepository() Repository {
	return &memoryRepository{
		byID:   make(map[string]*RefreshToken),
		byHash: make(map[string]string),
		now:    time.Now,
	}
}

func (r *memoryRepository) Create(_ context.Context, token *RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[token.ID]; exists {
		return fmt.Errorf("create refresh token: %w", core.ErrDuplicateKey)
	}
	if _, exists := r.byHash[token.TokenHash]; exists {
		return fmt.Errorf("create refresh token: %w", core.ErrDuplicateKey)
	}

	token.CreatedAt = r.now()
	stored := *token
	r.byID[token.ID] = &stored
	r.byHash[token.TokenHash] = token.ID

	return nil
}

func (r *memoryRepository) FindByHash(
	_ context.Context,
	tokenHash string,
) (*RefreshToken, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byHash[tokenHash]
	if !ok {
		return nil, fmt.Errorf("find refresh token: %w", core.ErrNotFound)
	}

	token := *r.byID[id]
	return &token, nil
}

func (r *memoryRepository) FindByID(
	_ context.Context,
	id string,
) (*RefreshToken, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("find refresh token: %w", core.ErrNotFound)
	}

	token := *stored
	return &token, nil
}

// MarkAsUsed fails with core.ErrConflict when the token was already
// consumed, so two concurrent refreshes cannot both rotate it.
func (r *memoryRepository) MarkAsUsed(
	_ context.Context,
	id, replacedByID string,
) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.byID[id]
	if !ok {
		return fmt.Errorf("mark refresh token as used: %w", core.ErrNotFound)
	}
	if stored.IsUsed {
		return fmt.Errorf("mark refresh token as used: %w", core.ErrConflict)
	}

	stored.MarkAsUsed(replacedByID, r.now())
	return nil
}

func (r *memoryRepository) RevokeByID(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.byID[id]
	if !ok || stored.IsRevoked() {
		return fmt.Errorf("revoke refresh token: %w", core.ErrNotFound)
	}

	stored.Revoke(r.now())
	return nil
}

func (r *memoryRepository) RevokeByFamilyID(
	_ context.Context,
	familyID string,
) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	for _, t := range r.byID {
		if t.FamilyID == familyID {
			t.Revoke(now)
		}
	}
	return nil
}

func (r *memoryRepository) RevokeAllForUser(
	_ context.Context,
	userID string,
) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	for _, t := range r.byID {
		if t.UserID == userID {
			t.Revoke(now)
		}
	}
	return nil
}

func (r *memoryRepository) GetActiveSessionsForUser(
	_ context.Context,
	userID string,
) ([]RefreshToken, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	now := r.now()
	tokens := make([]RefreshToken, 0)
	for _, t := range r.byID {
		if t.UserID == userID && t.IsValid(now) {
			tokens = append(tokens, *t)
		}
	}

	slices.SortFunc(tokens, func(a, b RefreshToken) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	return tokens, nil
}

func (r *memoryRepository) DeleteExpired(
	_ context.Context,
	cutoff time.Time,
) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var deleted int64
	for id, t := range r.byID {
		if t.ExpiresAt.Before(cutoff) {
			delete(r.byHash, t.TokenHash)
			delete(r.byID, id)
			deleted++
		}
	}

	return deleted, nil
}
