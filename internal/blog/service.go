// AngelaMos | 2026
// service.go

package blog

import (
	"context"
	"strings"
	"time"

	"github.com/carterperez-dev/brasil-no-mundo/internal/domain"
	"github.com/carterperez-dev/brasil-no-mundo/internal/moderation"
)

type CreatePostRequest struct {
	Title   string `json:"title"   validate:"required,max=200"`
	Content string `json:"content" validate:"required,max=20000"`
}

func (r *CreatePostRequest) Normalize() {
	r.Title = strings.TrimSpace(r.Title)
	r.Content = strings.TrimSpace(r.Content)
}

type PostStore interface {
	CreatePost(p domain.Post) domain.Post
	Posts(status domain.Status) []domain.Post
}

type Service struct {
	store   PostStore
	machine *moderation.Machine[domain.Post]
	now     func() time.Time
}

func NewService(store PostStore, machine *moderation.Machine[domain.Post]) *Service {
	return &Service{store: store, machine: machine, now: time.Now}
}

// Create stores a post as pending review under the author's display name.
func (s *Service) Create(
	_ context.Context,
	authorID, authorName string,
	req CreatePostRequest,
) domain.Post {
	req.Normalize()
	return s.store.CreatePost(domain.Post{
		Title:    req.Title,
		Content:  req.Content,
		Author:   authorName,
		AuthorID: authorID,
		Date:     s.now().UTC(),
	})
}

func (s *Service) List(status domain.Status) []domain.Post {
	return s.store.Posts(status)
}

func (s *Service) Moderation() *moderation.Machine[domain.Post] {
	return s.machine
}
