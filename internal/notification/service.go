package notification

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/varoOP/cinelist/internal/domain"
)

// Service fans run reports out to every configured channel. With no
// channel configured it does nothing.
type Service struct {
	log     zerolog.Logger
	discord *DiscordService
}

func NewService(log zerolog.Logger, webhookURL string) domain.NotificationService {
	s := &Service{log: log.With().Str("module", "notification").Logger()}
	if webhookURL != "" {
		s.discord = NewDiscordService(log, webhookURL)
	}
	return s
}

func (s *Service) SendSuccess(ctx context.Context, stats domain.Statistics) error {
	if s.discord == nil {
		s.log.Trace().Str("operation", stats.Operation).Msg("no notification channel configured")
		return nil
	}
	return s.discord.SendSuccess(ctx, stats)
}

func (s *Service) SendError(ctx context.Context, err error) error {
	if s.discord == nil {
		return nil
	}
	return s.discord.SendError(ctx, err)
}
