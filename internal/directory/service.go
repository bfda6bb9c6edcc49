// AngelaMos | 2026
// service.go

package directory

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/carterperez-dev/brasil-no-mundo/internal/core"
	"github.com/carterperez-dev/brasil-no-mundo/internal/domain"
	"github.com/carterperez-dev/brasil-no-mundo/internal/moderation"
)

type SubmitBusinessRequest struct {
	Name        string `json:"name"        validate:"required,max=200"`
	Type        string `json:"type"        validate:"required,max=100"`
	Location    string `json:"location"    validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
}

func (r *SubmitBusinessRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Type = strings.TrimSpace(r.Type)
	r.Location = strings.TrimSpace(r.Location)
	r.Description = strings.TrimSpace(r.Description)
}

type BusinessStore interface {
	CreateBusiness(b domain.Business) domain.Business
	Businesses(status domain.Status) []domain.Business
}

// Submitter is the authenticated member listing a business.
type Submitter struct {
	UserID string
	Role   string
	Tier   string
}

type Service struct {
	store      BusinessStore
	machine    *moderation.Machine[domain.Business]
	requirePro bool
	now        func() time.Time
}

func NewService(
	store BusinessStore,
	machine *moderation.Machine[domain.Business],
	requirePro bool,
) *Service {
	return &Service{
		store:      store,
		machine:    machine,
		requirePro: requirePro,
		now:        time.Now,
	}
}

// Submit queues a business for moderation. It is not publicly listed until
// an admin approves it.
func (s *Service) Submit(
	_ context.Context,
	by Submitter,
	req SubmitBusinessRequest,
) (domain.Business, error) {
	if s.requirePro && by.Role != domain.RoleAdmin &&
		(by.Tier == "" || by.Tier == domain.TierFree) {
		return domain.Business{}, core.NewAppError(
			fmt.Errorf("submit business: %w", core.ErrForbidden),
			"a paid plan is required to list a business",
			http.StatusForbidden,
			"PLAN_REQUIRED",
		)
	}

	req.Normalize()
	return s.store.CreateBusiness(domain.Business{
		Name:        req.Name,
		Type:        req.Type,
		Location:    req.Location,
		Description: req.Description,
		SubmittedBy: by.UserID,
		CreatedAt:   s.now().UTC(),
	}), nil
}

func (s *Service) List(status domain.Status) []domain.Business {
	return s.store.Businesses(status)
}

func (s *Service) Moderation() *moderation.Machine[domain.Business] {
	return s.machine
}
