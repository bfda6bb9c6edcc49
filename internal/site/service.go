// AngelaMos | 2026
// service.go

package site

import (
	"context"
	"log/slog"

	"github.com/carterperez-dev/brasil-no-mundo/internal/domain"
	"github.com/carterperez-dev/brasil-no-mundo/internal/realtime"
)

type SettingsStore interface {
	Settings() domain.Settings
	UpdateSettings(patch domain.SettingsPatch) domain.Settings
}

type Service struct {
	store     SettingsStore
	publisher realtime.Publisher
	logger    *slog.Logger
}

func NewService(
	store SettingsStore,
	publisher realtime.Publisher,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, publisher: publisher, logger: logger}
}

func (s *Service) Settings() domain.Settings {
	return s.store.Settings()
}

// Update merges patch into the current settings and broadcasts the result.
// Fields absent from the patch keep their value.
func (s *Service) Update(
	_ context.Context,
	actorID string,
	patch domain.SettingsPatch,
) domain.Settings {
	settings := s.store.UpdateSettings(patch)

	s.logger.Info("site settings updated",
		"actor_id", actorID,
		"site_name", settings.SiteName,
	)
	s.publisher.Publish(realtime.TopicSettingsChanged, settings)

	return settings
}
