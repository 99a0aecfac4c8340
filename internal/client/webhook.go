package client

import (
	"bytes"
	"context"
	"encoding/json"
	"github.com/pkg/errors"
	"io"
	"net/http"
	"pricewatch/internal/misc"
	"pricewatch/internal/model"
	"time"
)

const webhookTimeout = 10 * time.Second

// WebhookPayload is compatible with ntfy.sh JSON publishing.
type WebhookPayload struct {
	Title    string   `json:"title"`
	Message  string   `json:"message"`
	Priority int      `json:"priority"`
	Tags     []string `json:"tags"`
	Click    string   `json:"click,omitempty"`
}

func NewWebhookPayload(n model.Notification) WebhookPayload {
	return WebhookPayload{
		Title:    "Price Drop Alert!",
		Message:  NotificationMessage(n),
		Priority: 4,
		Tags:     []string{"moneybag", "chart_with_downwards_trend"},
		Click:    n.ProductURL,
	}
}

// Webhook posts notifications as JSON to the alert's webhook URL.
type Webhook struct {
	Client *Client
}

func (w Webhook) Notify(ctx context.Context, webhookURL string, n model.Notification) error {
	if webhookURL == "" {
		return ErrSkipped
	}
	fail := func(reason string, err error) error {
		return &NotifyFailure{Channel: "webhook", Reason: reason, Err: err}
	}
	reqBody, err := json.Marshal(NewWebhookPayload(n))
	if err != nil {
		return fail("marshalling payload", err)
	}

	ctx, cancel := context.WithTimeout(ctx, webhookTimeout)
	defer cancel()
	req, err := newRequest(ctx, http.MethodPost, webhookURL, bytes.NewReader(reqBody))
	if err != nil {
		return fail("creating request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := w.Client.Do(req)
	if err != nil {
		return fail("doing request", errors.Wrapf(err, "URL: %s", webhookURL))
	}
	defer w.Client.closeBody("Notify", resp)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2000))
		return fail("unexpected status "+resp.Status, errors.Errorf("body: %s", misc.BytesLimit(body, 500)))
	}
	if w.Client.Logger != nil {
		w.Client.Logger.Infof("Notify: Webhook delivered, AlertID: %s, URL: %s", n.AlertID, webhookURL)
	}
	return nil
}
