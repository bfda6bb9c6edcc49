// AngelaMos | 2026
// dto.go

package billing

import (
	"slices"
	"strings"

	"github.com/carterperez-dev/brasil-no-mundo/internal/domain"
)

type CreateOrderRequest struct {
	PlanID string `json:"plan_id" validate:"required,max=64"`
}

type OrderResponse struct {
	OrderID  string  `json:"order_id"`
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

type CaptureOrderRequest struct {
	OrderID string `json:"order_id" validate:"required,max=128"`
	PlanID  string `json:"plan_id"  validate:"required,max=64"`
}

type CaptureResponse struct {
	Success bool   `json:"success"`
	Tier    string `json:"tier"`
	Order   string `json:"order_id"`
}

type PlanInput struct {
	ID       string   `json:"id"       validate:"required,max=64"`
	Name     string   `json:"name"     validate:"required,max=100"`
	Price    float64  `json:"price"    validate:"gte=0"`
	Features []string `json:"features" validate:"max=50,dive,max=200"`
}

func (p PlanInput) ToPlan() domain.Plan {
	features := slices.Clone(p.Features)
	if features == nil {
		features = []string{}
	}
	return domain.Plan{
		ID:       strings.TrimSpace(p.ID),
		Name:     strings.TrimSpace(p.Name),
		Price:    p.Price,
		Features: features,
	}
}

// ReplacePlansRequest wraps the bare JSON array the admin UI posts.
type ReplacePlansRequest struct {
	Plans []PlanInput `validate:"required,min=1,dive"`
}
