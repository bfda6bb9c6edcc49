// AngelaMos | 2026
// service.go

package chat

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/carterperez-dev/brasil-no-mundo/internal/core"
	"github.com/carterperez-dev/brasil-no-mundo/internal/domain"
	"github.com/carterperez-dev/brasil-no-mundo/internal/realtime"
)

const DefaultMaxTextLength = 2000

type MessageStore interface {
	AppendMessage(msg domain.ChatMessage) domain.ChatMessage
	Messages() []domain.ChatMessage
}

type Service struct {
	store     MessageStore
	publisher realtime.Publisher
	maxLength int
	now       func() time.Time
}

func NewService(
	store MessageStore,
	publisher realtime.Publisher,
	maxLength int,
) *Service {
	if maxLength <= 0 {
		maxLength = DefaultMaxTextLength
	}
	return &Service{
		store:     store,
		publisher: publisher,
		maxLength: maxLength,
		now:       time.Now,
	}
}

// Send stamps, stores and broadcasts a chat message. The store evicts the
// oldest message once the history limit is reached.
func (s *Service) Send(
	_ context.Context,
	author, text string,
) (domain.ChatMessage, error) {
	author = strings.TrimSpace(author)
	text = strings.TrimSpace(text)

	if author == "" {
		return domain.ChatMessage{}, core.ValidationError("author is required")
	}
	if text == "" {
		return domain.ChatMessage{}, core.ValidationError("text is required")
	}
	if utf8.RuneCountInString(text) > s.maxLength {
		return domain.ChatMessage{}, core.ValidationError(
			fmt.Sprintf("text must be at most %d characters", s.maxLength),
		)
	}

	msg := s.store.AppendMessage(domain.ChatMessage{
		Author: author,
		Text:   text,
		Time:   s.now().UTC(),
	})

	s.publisher.Publish(realtime.TopicMessageNew, msg)

	return msg, nil
}

func (s *Service) History() []domain.ChatMessage {
	return s.store.Messages()
}
