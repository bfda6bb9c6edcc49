// AngelaMos | 2026
// service.go

package billing

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/carterperez-dev/brasil-no-mundo/internal/config"
	"github.com/carterperez-dev/brasil-no-mundo/internal/core"
	"github.com/carterperez-dev/brasil-no-mundo/internal/domain"
	"github.com/carterperez-dev/brasil-no-mundo/internal/realtime"
	"github.com/carterperez-dev/brasil-no-mundo/internal/store"
)

type Store interface {
	Plans() []domain.Plan
	Plan(id string) (domain.Plan, error)
	ReplacePlans(plans []domain.Plan) ([]domain.Plan, error)
	SaveOrder(o domain.Order) error
	CapturePayment(req store.CaptureRequest) (store.CaptureResult, error)
	Transactions() []domain.Transaction
}

type Service struct {
	store     Store
	archive   LedgerArchive
	publisher realtime.Publisher
	config    config.BillingConfig
	logger    *slog.Logger
	now       func() time.Time
}

// NewService wires the payment flow. archive may be nil, in which case
// the in-memory ledger is the only record.
func NewService(
	st Store,
	archive LedgerArchive,
	publisher realtime.Publisher,
	cfg config.BillingConfig,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Currency == "" {
		cfg.Currency = "BRL"
	}
	return &Service{
		store:     st,
		archive:   archive,
		publisher: publisher,
		config:    cfg,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *Service) Plans() []domain.Plan {
	return s.store.Plans()
}

// CreateOrder prices the plan and records a pending order the client
// hands to the payment provider.
func (s *Service) CreateOrder(
	_ context.Context,
	userID, planID string,
) (OrderResponse, error) {
	plan, err := s.store.Plan(planID)
	if err != nil {
		return OrderResponse{}, fmt.Errorf("create order: %w", err)
	}

	order := domain.Order{
		ID:        s.config.OrderPrefix + uuid.New().String(),
		UserID:    userID,
		PlanID:    plan.ID,
		Amount:    plan.Price,
		Currency:  s.config.Currency,
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.SaveOrder(order); err != nil {
		return OrderResponse{}, fmt.Errorf("create order: %w", err)
	}

	return OrderResponse{
		OrderID:  order.ID,
		Amount:   order.Amount,
		Currency: order.Currency,
	}, nil
}

// CaptureOrder credits the plan to the user. Capturing an order id that is
// already in the ledger for the same user and plan returns the original
// result without crediting again.
func (s *Service) CaptureOrder(
	ctx context.Context,
	userID string,
	req CaptureOrderRequest,
) (CaptureResponse, error) {
	ctx, span := core.StartSpan(ctx, "billing.capture",
		attribute.String("order.id", req.OrderID),
		attribute.String("plan.id", req.PlanID),
	)
	defer span.End()

	res, err := s.store.CapturePayment(store.CaptureRequest{
		OrderID:  req.OrderID,
		UserID:   userID,
		PlanID:   req.PlanID,
		Currency: s.config.Currency,
		At:       s.now().UTC(),
	})
	if err != nil {
		core.SetSpanError(ctx, err)
		return CaptureResponse{}, fmt.Errorf("capture order: %w", err)
	}

	s.logger.Info("payment captured",
		"order_id", res.Transaction.ID,
		"user_id", userID,
		"plan_id", res.Transaction.PlanID,
		"amount", res.Transaction.Amount,
		"replayed", res.Replayed,
	)

	if !res.Replayed && s.archive != nil {
		if err := s.archive.Archive(ctx, res.Transaction); err != nil {
			core.AddSpanEvent(ctx, "billing.archive_failed")
			s.logger.Error("archive transaction failed",
				"order_id", res.Transaction.ID,
				"error", err,
			)
		}
	}

	return CaptureResponse{
		Success: true,
		Tier:    res.Transaction.PlanID,
		Order:   res.Transaction.ID,
	}, nil
}

// ReplacePlans swaps the plan catalogue and tells connected clients.
func (s *Service) ReplacePlans(
	_ context.Context,
	plans []PlanInput,
) ([]domain.Plan, error) {
	next := make([]domain.Plan, 0, len(plans))
	for _, p := range plans {
		next = append(next, p.ToPlan())
	}

	saved, err := s.store.ReplacePlans(next)
	if err != nil {
		return nil, fmt.Errorf("replace plans: %w", err)
	}

	s.publisher.Publish(realtime.TopicPlansChanged, saved)
	return saved, nil
}

// Ledger returns the newest transactions first, from the archive when one
// is configured.
func (s *Service) Ledger(ctx context.Context, limit int) ([]domain.Transaction, error) {
	if limit <= 0 {
		limit = 100
	}

	if s.archive != nil {
		txs, err := s.archive.Recent(ctx, limit)
		if err == nil {
			return txs, nil
		}
		s.logger.Warn("ledger archive unavailable, using memory", "error", err)
	}

	all := s.store.Transactions()
	out := make([]domain.Transaction, 0, min(limit, len(all)))
	for i := len(all) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, all[i])
	}
	return out, nil
}
