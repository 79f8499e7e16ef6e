package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/varoOP/cinelist/internal/domain"
)

// DiscordService implements NotificationService for Discord webhooks
type DiscordService struct {
	log        zerolog.Logger
	webhookURL string
	httpClient *http.Client
}

// NewDiscordService creates a new Discord notification service
func NewDiscordService(log zerolog.Logger, webhookURL string) *DiscordService {
	return &DiscordService{
		log:        log.With().Str("module", "notification").Str("type", "discord").Logger(),
		webhookURL: webhookURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// SendSuccess sends a success notification with statistics
func (s *DiscordService) SendSuccess(ctx context.Context, stats domain.Statistics) error {
	if s.webhookURL == "" {
		return nil // No webhook configured, skip silently
	}

	embed := discordEmbed{
		Title:       fmt.Sprintf("cinelist %s completed", stats.Operation),
		Description: fmt.Sprintf("Finished in %s", stats.Duration.Round(time.Second)),
		Color:       0x00ff00, // Green
		Timestamp:   time.Now().Format(time.RFC3339),
		Fields:      statisticsFields(stats),
	}

	payload := discordWebhook{
		Embeds: []discordEmbed{embed},
	}

	return s.sendWebhook(ctx, payload)
}

// SendError sends an error notification with error details
func (s *DiscordService) SendError(ctx context.Context, err error) error {
	if s.webhookURL == "" {
		return nil // No webhook configured, skip silently
	}

	embed := discordEmbed{
		Title:       "cinelist run failed",
		Description: fmt.Sprintf("Run failed with error:\n```%s```", err.Error()),
		Color:       0xff0000, // Red
		Timestamp:   time.Now().Format(time.RFC3339),
	}

	payload := discordWebhook{
		Embeds: []discordEmbed{embed},
	}

	return s.sendWebhook(ctx, payload)
}

// sendWebhook sends a webhook payload to Discord
func (s *DiscordService) sendWebhook(ctx context.Context, payload discordWebhook) error {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, "failed to marshal webhook payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return errors.Wrap(err, "failed to create webhook request")
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "failed to send webhook request")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook request failed with status %d", resp.StatusCode)
	}

	s.log.Debug().Msg("Discord notification sent successfully")
	return nil
}

// statisticsFields lists the counters that apply to the operation. Scrape
// counters are left out of maintenance-only runs and the other way round.
func statisticsFields(stats domain.Statistics) []discordField {
	fields := []discordField{
		{
			Name:   "Stores",
			Value:  fmt.Sprintf("%d", stats.Stores),
			Inline: true,
		},
	}

	if stats.Titles > 0 || stats.New > 0 || stats.Skipped > 0 {
		fields = append(fields,
			discordField{Name: "Titles Scraped", Value: fmt.Sprintf("%d", stats.Titles), Inline: true},
			discordField{Name: "New", Value: fmt.Sprintf("%d (%d from cache)", stats.New, stats.CacheHits), Inline: true},
			discordField{Name: "Skipped", Value: fmt.Sprintf("%d", stats.Skipped), Inline: true},
		)
	}

	if stats.ErrorsFound > 0 || stats.DuplicatesFound > 0 {
		fields = append(fields,
			discordField{Name: "Errors", Value: fmt.Sprintf("%d found, %d fixed", stats.ErrorsFound, stats.ErrorsFixed), Inline: false},
			discordField{Name: "Duplicates", Value: fmt.Sprintf("%d found, %d removed", stats.DuplicatesFound, stats.DuplicatesRemoved), Inline: false},
		)
	}

	return fields
}

// discordWebhook represents a Discord webhook payload
type discordWebhook struct {
	Embeds []discordEmbed `json:"embeds"`
}

// discordEmbed represents a Discord embed
type discordEmbed struct {
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Color       int            `json:"color"`
	Timestamp   string         `json:"timestamp,omitempty"`
	Fields      []discordField `json:"fields,omitempty"`
}

// discordField represents a Discord embed field
type discordField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}
