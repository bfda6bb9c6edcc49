// AngelaMos | 2026
// machine.go

package moderation

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"

	"github.com/carterperez-dev/brasil-no-mundo/internal/core"
	"github.com/carterperez-dev/brasil-no-mundo/internal/domain"
	"github.com/carterperez-dev/brasil-no-mundo/internal/realtime"
	"github.com/carterperez-dev/brasil-no-mundo/internal/store"
)

// ErrInvalidTransition is returned for any move out of a terminal state.
var ErrInvalidTransition = fmt.Errorf("invalid moderation transition: %w", core.ErrConflict)

// Next validates a transition of the pending → approved | rejected machine.
func Next(current, target domain.Status) (domain.Status, error) {
	if current != domain.StatusPending {
		return "", fmt.Errorf("%s → %s: %w", current, target, ErrInvalidTransition)
	}

	switch target {
	case domain.StatusApproved, domain.StatusRejected:
		return target, nil
	default:
		return "", fmt.Errorf("unknown target status %q: %w", target, core.ErrInvalidInput)
	}
}

// Actor is whoever asks for a transition.
type Actor struct {
	UserID string
	Role   string
}

// TransitionStore applies a status change atomically inside the store.
type TransitionStore[T any] func(id int64, fn store.TransitionFunc) (T, error)

// Machine moderates one kind of user-submitted content. Approval publishes
// the approved entity on the configured topic; rejection is silent.
type Machine[T any] struct {
	kind       string
	topic      realtime.Topic
	transition TransitionStore[T]
	publisher  realtime.Publisher
	logger     *slog.Logger
}

func NewMachine[T any](
	kind string,
	topic realtime.Topic,
	transition TransitionStore[T],
	publisher realtime.Publisher,
	logger *slog.Logger,
) *Machine[T] {
	if logger == nil {
		logger = slog.Default()
	}
	return &Machine[T]{
		kind:       kind,
		topic:      topic,
		transition: transition,
		publisher:  publisher,
		logger:     logger,
	}
}

func (m *Machine[T]) Kind() string {
	return m.kind
}

func (m *Machine[T]) Approve(ctx context.Context, actor Actor, id int64) (T, error) {
	return m.apply(ctx, actor, id, domain.StatusApproved)
}

func (m *Machine[T]) Reject(ctx context.Context, actor Actor, id int64) (T, error) {
	return m.apply(ctx, actor, id, domain.StatusRejected)
}

func (m *Machine[T]) apply(
	ctx context.Context,
	actor Actor,
	id int64,
	target domain.Status,
) (T, error) {
	var zero T

	if actor.Role != domain.RoleAdmin {
		return zero, fmt.Errorf("moderate %s %d: %w", m.kind, id, core.ErrForbidden)
	}

	item, err := m.transition(id, func(current domain.Status) (domain.Status, error) {
		return Next(current, target)
	})
	if err != nil {
		return zero, fmt.Errorf("moderate %s: %w", m.kind, err)
	}

	core.AddSpanEvent(ctx, "moderation.transition",
		attribute.String("moderation.kind", m.kind),
		attribute.Int64("moderation.id", id),
		attribute.String("moderation.status", string(target)),
	)

	m.logger.Info("content moderated",
		"kind", m.kind,
		"id", id,
		"status", target,
		"admin_id", actor.UserID,
	)

	if target == domain.StatusApproved {
		m.publisher.Publish(m.topic, item)
	}

	return item, nil
}
