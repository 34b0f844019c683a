// Package notify delivers upload notifications to a chat webhook.
package notify

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/bitrise-io/go-utils/v2/retryhttp"
	"github.com/hashicorp/go-retryablehttp"
)

type webhookPayload struct {
	Content string `json:"content"`
}

// WebhookNotifier posts a message with the shared save's download link to a
// chat webhook. An empty webhook URL disables notifications.
type WebhookNotifier struct {
	webhookURL string
	logger     log.Logger
}

// NewWebhookNotifier ...
func NewWebhookNotifier(webhookURL string, logger log.Logger) *WebhookNotifier {
	return &WebhookNotifier{
		webhookURL: webhookURL,
		logger:     logger,
	}
}

// Notify ...
func (n *WebhookNotifier) Notify(fileName, url, source string) error {
	if n.webhookURL == "" {
		n.logger.Debugf("No webhook configured, skipping notification")
		return nil
	}

	body, err := json.Marshal(webhookPayload{
		Content: fmt.Sprintf("New save **%s** uploaded from %s: %s", fileName, source, url),
	})
	if err != nil {
		return err
	}

	req, err := retryablehttp.NewRequest(http.MethodPost, n.webhookURL, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := retryhttp.NewClient(n.logger).Do(req)
	if err != nil {
		return err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			n.logger.Printf(err.Error())
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook responded with HTTP %d", resp.StatusCode)
	}

	return nil
}
