// Package notification schedules cart-abandonment reminders and dispatches
// push messages through an external delivery collaborator.
package notification

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// maxBatch is the delivery collaborator's per-call token limit.
const maxBatch = 500

// Message is one push payload.
type Message struct {
	Title string
	Body  string
	Data  map[string]string
}

// Report summarizes a delivery attempt across all batches.
type Report struct {
	Success int
	Failure int
}

// Sender is the external push-delivery collaborator. Each call handles at
// most maxBatch tokens.
type Sender interface {
	SendToTokens(ctx context.Context, tokens []string, msg Message) (Report, error)
}

// TokenSource resolves a user's registered device tokens.
type TokenSource interface {
	TokensForUser(ctx context.Context, userID string) ([]string, error)
}

// Dispatcher chunks token lists to the collaborator's batch limit and sends
// batches concurrently. Delivery failures are logged, never retried.
type Dispatcher struct {
	sender Sender
	lg     *zap.Logger
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(sender Sender, lg *zap.Logger) *Dispatcher {
	return &Dispatcher{sender: sender, lg: lg}
}

// Send delivers msg to all tokens, splitting into batches of at most 500.
// The combined report counts successes and failures across batches; a batch
// that errors entirely counts all its tokens as failures.
func (d *Dispatcher) Send(ctx context.Context, tokens []string, msg Message) Report {
	if len(tokens) == 0 {
		return Report{}
	}

	batches := chunk(tokens, maxBatch)
	reports := make([]Report, len(batches))

	g, gctx := errgroup.WithContext(ctx)
	for i, batch := range batches {
		g.Go(func() error {
			r, err := d.sender.SendToTokens(gctx, batch, msg)
			if err != nil {
				d.lg.Warn("push batch failed",
					zap.Int("batch", i),
					zap.Int("tokens", len(batch)),
					zap.Error(err),
				)
				reports[i] = Report{Failure: len(batch)}
				return nil
			}
			reports[i] = r
			return nil
		})
	}
	_ = g.Wait()

	var total Report
	for _, r := range reports {
		total.Success += r.Success
		total.Failure += r.Failure
	}
	return total
}

func chunk(tokens []string, size int) [][]string {
	var out [][]string
	for len(tokens) > size {
		out = append(out, tokens[:size])
		tokens = tokens[size:]
	}
	return append(out, tokens)
}
