// AngelaMos | 2026
// service.go

package meetup

import (
	"context"
	"strings"

	"github.com/carterperez-dev/brasil-no-mundo/internal/domain"
	"github.com/carterperez-dev/brasil-no-mundo/internal/realtime"
)

type CreateMeetupRequest struct {
	Title    string `json:"title"    validate:"required,max=200"`
	Location string `json:"location" validate:"required,max=200"`
	Date     string `json:"date"     validate:"required,max=100"`
}

// Normalize trims surrounding whitespace so blank fields fail validation.
func (r *CreateMeetupRequest) Normalize() {
	r.Title = strings.TrimSpace(r.Title)
	r.Location = strings.TrimSpace(r.Location)
	r.Date = strings.TrimSpace(r.Date)
}

type MeetupStore interface {
	CreateMeetup(m domain.Meetup) domain.Meetup
	Meetups() []domain.Meetup
}

type Service struct {
	store     MeetupStore
	publisher realtime.Publisher
}

func NewService(store MeetupStore, publisher realtime.Publisher) *Service {
	return &Service{store: store, publisher: publisher}
}

// Create records a meetup with its creator as the only attendee and
// announces it to every connected client.
func (s *Service) Create(
	_ context.Context,
	creator string,
	req CreateMeetupRequest,
) domain.Meetup {
	req.Normalize()
	m := s.store.CreateMeetup(domain.Meetup{
		Title:     req.Title,
		Location:  req.Location,
		Date:      req.Date,
		Attendees: 1,
		Creator:   creator,
	})

	s.publisher.Publish(realtime.TopicMeetupCreated, m)
	return m
}

func (s *Service) List() []domain.Meetup {
	return s.store.Meetups()
}
