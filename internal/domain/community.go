// AngelaMos | 2026
// community.go

package domain

import (
	"time"
)

type ChatMessage struct {
	ID     int64     `json:"id"`
	Author string    `json:"author"`
	Text   string    `json:"text"`
	Time   time.Time `json:"time"`
}

type Meetup struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Location  string `json:"location"`
	Date      string `json:"date"`
	Attendees int    `json:"attendees"`
	Creator   string `json:"creator"`
}

type Settings struct {
	Logo     string `json:"logo"`
	SiteName string `json:"site_name"`
}

// SettingsPatch carries a partial settings update; nil fields are kept.
type SettingsPatch struct {
	Logo     *string `json:"logo,omitempty"`
	SiteName *string `json:"site_name,omitempty"`
}

func (s Settings) Merge(p SettingsPatch) Settings {
	if p.Logo != nil {
		s.Logo = *p.Logo
	}
	if p.SiteName != nil {
		s.SiteName = *p.SiteName
	}
	return s
}
