// AngelaMos | 2026
// billing.go

package domain

import (
	"slices"
	"time"
)

type Plan struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Price    float64  `json:"price"`
	Features []string `json:"features"`
}

func (p Plan) Clone() Plan {
	p.Features = slices.Clone(p.Features)
	return p
}

type Order struct {
	ID        string    `json:"order_id"`
	UserID    string    `json:"user_id"`
	PlanID    string    `json:"plan_id"`
	Amount    float64   `json:"amount"`
	Currency  string    `json:"currency"`
	CreatedAt time.Time `json:"created_at"`
}

// Transaction is an immutable ledger entry keyed by the external payment
// reference (the order id).
type Transaction struct {
	ID       string    `json:"id"       db:"id"`
	UserID   string    `json:"user_id"  db:"user_id"`
	UserName string    `json:"user_name" db:"user_name"`
	PlanID   string    `json:"plan_id"  db:"plan_id"`
	Amount   float64   `json:"amount"   db:"amount"`
	Currency string    `json:"currency" db:"currency"`
	Date     time.Time `json:"date"     db:"created_at"`
}
