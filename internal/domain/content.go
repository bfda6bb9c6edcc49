// AngelaMos | 2026
// content.go

package domain

import (
	"time"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Moderatable is implemented by user-submitted content that goes through
// admin review before it is publicly listed.
type Moderatable interface {
	ModerationID() int64
	ModerationStatus() Status
	SetModerationStatus(s Status)
}

type Business struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Type        string    `json:"type"`
	Location    string    `json:"location"`
	Description string    `json:"description"`
	Status      Status    `json:"status"`
	SubmittedBy string    `json:"submitted_by,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func (b *Business) ModerationID() int64          { return b.ID }
func (b *Business) ModerationStatus() Status     { return b.Status }
func (b *Business) SetModerationStatus(s Status) { b.Status = s }

type Post struct {
	ID       int64     `json:"id"`
	Title    string    `json:"title"`
	Content  string    `json:"content"`
	Author   string    `json:"author"`
	AuthorID string    `json:"author_id,omitempty"`
	Status   Status    `json:"status"`
	Date     time.Time `json:"date"`
}

func (p *Post) ModerationID() int64          { return p.ID }
func (p *Post) ModerationStatus() Status     { return p.Status }
func (p *Post) SetModerationStatus(s Status) { p.Status = s }
