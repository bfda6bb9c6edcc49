// AngelaMos | 2026
// moderated.go

package store

import (
	"fmt"

	"github.com/carterperez-dev/brasil-no-mundo/internal/core"
	"github.com/carterperez-dev/brasil-no-mundo/internal/domain"
)

// TransitionFunc receives the current moderation status and returns the
// next one, or an error to leave the entity untouched.
type TransitionFunc func(current domain.Status) (domain.Status, error)

type moderatedList[T any, P interface {
	*T
	domain.Moderatable
}] struct {
	items []T
}

func (l *moderatedList[T, P]) add(item T) {
	l.items = append(l.items, item)
}

func (l *moderatedList[T, P]) find(id int64) P {
	for i := range l.items {
		item := P(&l.items[i])
		if item.ModerationID() == id {
			return item
		}
	}
	return nil
}

func (l *moderatedList[T, P]) withStatus(status domain.Status) []T {
	out := make([]T, 0, len(l.items))
	for i := range l.items {
		if P(&l.items[i]).ModerationStatus() == status {
			out = append(out, l.items[i])
		}
	}
	return out
}

func (l *moderatedList[T, P]) count(status domain.Status) int {
	n := 0
	for i := range l.items {
		if P(&l.items[i]).ModerationStatus() == status {
			n++
		}
	}
	return n
}

func transition[T any, P interface {
	*T
	domain.Moderatable
}](
	l *moderatedList[T, P],
	id int64,
	fn TransitionFunc,
	kind string,
) (T, error) {
	var zero T

	item := l.find(id)
	if item == nil {
		return zero, fmt.Errorf("%s %d: %w", kind, id, core.ErrNotFound)
	}

	next, err := fn(item.ModerationStatus())
	if err != nil {
		return zero, fmt.Errorf("%s %d: %w", kind, id, err)
	}

	item.SetModerationStatus(next)
	return *item, nil
}
