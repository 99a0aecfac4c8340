package client

import (
	"context"
	"fmt"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"pricewatch/internal/model"
	"strings"
)

// ErrSkipped is returned by a channel that is not configured for a notification.
var ErrSkipped = errors.New("notification channel not configured")

type NotifyFailure struct {
	Channel string
	Reason  string
	Err     error
}

func (f *NotifyFailure) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("%s notification failed: %s: %v", f.Channel, f.Reason, f.Err)
	}
	return fmt.Sprintf("%s notification failed: %s", f.Channel, f.Reason)
}

func (f *NotifyFailure) Unwrap() error {
	return f.Err
}

type Notifier interface {
	Notify(ctx context.Context, webhookURL string, n model.Notification) error
}

// FanOut delivers to every channel. It succeeds when at least one channel delivered.
type FanOut []Notifier

func (f FanOut) Notify(ctx context.Context, webhookURL string, n model.Notification) error {
	var failures []string
	var first error
	delivered := false
	for _, ch := range f {
		err := ch.Notify(ctx, webhookURL, n)
		switch {
		case err == nil:
			delivered = true
		case errors.Is(err, ErrSkipped):
		default:
			if first == nil {
				first = err
			}
			failures = append(failures, err.Error())
		}
	}
	if delivered {
		return nil
	}
	if first == nil {
		return &NotifyFailure{Channel: "all", Reason: "no notification channel configured", Err: ErrSkipped}
	}
	if len(failures) == 1 {
		return first
	}
	return &NotifyFailure{Channel: "all", Reason: strings.Join(failures, "; "), Err: first}
}

func formatMoney(currency string, amount float64) string {
	s := decimal.NewFromFloat(amount).StringFixed(2)
	switch strings.ToUpper(currency) {
	case "", "USD":
		return "$" + s
	case "EUR":
		return "€" + s
	case "GBP":
		return "£" + s
	}
	return s + " " + strings.ToUpper(currency)
}

// NotificationMessage is the one-line text shared by every channel.
func NotificationMessage(n model.Notification) string {
	product := n.ProductName
	if product == "" {
		product = "Product"
	}
	store := n.StoreName
	if store == "" {
		store = "Store"
	}
	return fmt.Sprintf("%s dropped to %s at %s (target: %s)",
		product, formatMoney(n.Currency, n.CurrentPrice), store, formatMoney(n.Currency, n.TargetPrice))
}
