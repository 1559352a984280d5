// Package notify delivers "new or updated lead" notifications to the sales team.
//
// Channels implement Notifier. Callers hold a single Notifier and never see which
// channels or retry policy sit behind it: MultiNotifier fans out and RetryNotifier
// layers a backoff policy over any channel.
package notify

import (
	"context"
	"errors"
	"fmt"
	"leadchat-backend/internal/models"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// ErrNotification wraps every delivery failure.
var ErrNotification = errors.New("notification failed")

// Notifier sends one lead notification.
type Notifier interface {
	Notify(ctx context.Context, lead *models.Lead) error
}

// NopNotifier is used when no channel is configured.
type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, *models.Lead) error { return nil }

// MultiNotifier delivers to every channel and joins their errors.
type MultiNotifier struct {
	channels []Notifier
}

func NewMultiNotifier(channels ...Notifier) *MultiNotifier {
	return &MultiNotifier{channels: channels}
}

func (m *MultiNotifier) Notify(ctx context.Context, lead *models.Lead) error {
	var errs []error
	for _, ch := range m.channels {
		if err := ch.Notify(ctx, lead); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Len reports the number of channels.
func (m *MultiNotifier) Len() int {
	return len(m.channels)
}

// RetryNotifier retries a channel with exponential backoff.
type RetryNotifier struct {
	next       Notifier
	maxRetries uint64
	initial    time.Duration
	logger     *slog.Logger
}

func NewRetryNotifier(next Notifier, maxRetries uint64, initial time.Duration, logger *slog.Logger) *RetryNotifier {
	if initial <= 0 {
		initial = 500 * time.Millisecond
	}
	return &RetryNotifier{
		next:       next,
		maxRetries: maxRetries,
		initial:    initial,
		logger:     logger.With("component", "RetryNotifier"),
	}
}

func (r *RetryNotifier) Notify(ctx context.Context, lead *models.Lead) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = r.initial
	policy.MaxElapsedTime = 0 // Bounded by maxRetries and ctx instead

	attempt := 0
	op := func() error {
		attempt++
		err := r.next.Notify(ctx, lead)
		if err != nil {
			r.logger.Warn("Notification attempt failed", "attempt", attempt, "email", lead.Email, "error", err)
		}
		return err
	}

	b := backoff.WithContext(backoff.WithMaxRetries(policy, r.maxRetries), ctx)
	if err := backoff.Retry(op, b); err != nil {
		return fmt.Errorf("giving up after %d attempts: %w", attempt, err)
	}
	return nil
}
