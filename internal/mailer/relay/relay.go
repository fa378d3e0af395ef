// Package relay implements the Mailer against an HTTP mail relay with a
// Resend-style JSON API.
package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/brewtab/perka/internal/config"
	mailerdomain "github.com/brewtab/perka/internal/mailer/domain"
	"github.com/brewtab/perka/internal/observability/tracing"
	"go.uber.org/zap"
)

var ErrRelayNotConfigured = errors.New("mail_relay_not_configured")

type Client struct {
	log *zap.Logger

	httpClient *http.Client
	relayURL   string
	apiKey     string
	from       string
}

func NewClient(cfg config.Mail, log *zap.Logger) *Client {
	timeout := cfg.SendTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		log: log.Named("mailer.relay"),

		httpClient: tracing.WrapHTTPClient(&http.Client{Timeout: timeout}),
		relayURL:   strings.TrimRight(strings.TrimSpace(cfg.RelayURL), "/"),
		apiKey:     strings.TrimSpace(cfg.APIKey),
		from:       strings.TrimSpace(cfg.FromAddress),
	}
}

type sendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

type sendResponse struct {
	ID string `json:"id"`
}

type errorResponse struct {
	Message string `json:"message"`
}

// Send posts the message to the relay. Every failure mode comes back as a
// *DeliveryError so callers can treat delivery as best-effort uniformly.
func (c *Client) Send(ctx context.Context, msg mailerdomain.Message) (string, error) {
	if c.relayURL == "" {
		return "", &mailerdomain.DeliveryError{Err: ErrRelayNotConfigured}
	}
	if strings.TrimSpace(msg.To) == "" {
		return "", &mailerdomain.DeliveryError{Err: errors.New("missing_recipient")}
	}

	body, err := json.Marshal(sendRequest{
		From:    c.from,
		To:      []string{msg.To},
		Subject: msg.Subject,
		HTML:    msg.HTMLBody,
	})
	if err != nil {
		return "", &mailerdomain.DeliveryError{Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.relayURL+"/emails", bytes.NewReader(body))
	if err != nil {
		return "", &mailerdomain.DeliveryError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &mailerdomain.DeliveryError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		var apiErr errorResponse
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		return "", &mailerdomain.DeliveryError{
			StatusCode: resp.StatusCode,
			Provider:   apiErr.Message,
			Err:        fmt.Errorf("relay returned status %d", resp.StatusCode),
		}
	}

	var parsed sendResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", &mailerdomain.DeliveryError{Err: err}
	}
	return parsed.ID, nil
}
