package teams

import (
	"context"
	"net/http"

	"github.com/finops/ffc-billing/internal/config"
	"github.com/finops/ffc-billing/internal/domain/notification"
	ierr "github.com/finops/ffc-billing/internal/errors"
	"github.com/finops/ffc-billing/internal/httpclient"
	"github.com/finops/ffc-billing/internal/logger"
	"github.com/finops/ffc-billing/internal/types"
)

// Sender posts notifications as adaptive cards to an MS Teams incoming webhook
type Sender struct {
	httpClient httpclient.Client
	webhookURL string
	logger     *logger.Logger
}

func NewSender(cfg *config.Configuration, httpClient httpclient.Client, logger *logger.Logger) notification.Sender {
	return &Sender{
		httpClient: httpClient,
		webhookURL: cfg.Notifications.TeamsWebhookURL,
		logger:     logger,
	}
}

// Send never fails on a rejected delivery, the outcome is only logged.
func (s *Sender) Send(ctx context.Context, n *notification.Notification) error {
	if s.webhookURL == "" {
		s.logger.Warnw("MS Teams notifications are disabled", "title", n.Title)
		return nil
	}

	if n.Details != nil {
		for _, row := range n.Details.Rows {
			if len(row) != len(n.Details.Header) {
				return ierr.NewError("notification row does not match header").
					WithHintf("Expected %d columns, got %d", len(n.Details.Header), len(row)).
					Mark(ierr.ErrValidation)
			}
		}
	}

	body, err := types.JSON.Marshal(buildMessage(n))
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to encode notification").
			Mark(ierr.ErrSystem)
	}

	resp, err := s.httpClient.Send(ctx, &httpclient.Request{
		Method: http.MethodPost,
		URL:    s.webhookURL,
		Body:   body,
	})
	if err != nil {
		s.logger.Errorw("failed to send notification to MS Teams", "title", n.Title, "error", err)
		return nil
	}
	if resp.StatusCode != http.StatusAccepted {
		s.logger.Errorw("unexpected MS Teams response",
			"status", resp.StatusCode,
			"body", string(resp.Body),
			"title", n.Title)
	}
	return nil
}
