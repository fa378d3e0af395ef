// Package domain defines the outbound email surface. The engine decides
// whether and what to send; delivery itself belongs to the external relay.
package domain

import (
	"context"
	"fmt"
)

// Message is a rendered email ready for the relay.
type Message struct {
	To       string
	Subject  string
	HTMLBody string
}

// Mailer hands a message to the external relay and returns its message ID.
type Mailer interface {
	Send(ctx context.Context, msg Message) (string, error)
}

// DeliveryError wraps a relay failure. Delivery errors are logged and
// swallowed by callers; they never propagate into the accrual path.
type DeliveryError struct {
	StatusCode int
	Provider   string
	Err        error
}

func (e *DeliveryError) Error() string {
	if e.Provider != "" {
		return fmt.Sprintf("mail delivery failed (%s): %v", e.Provider, e.Err)
	}
	return fmt.Sprintf("mail delivery failed: %v", e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }
