package notification

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// taskKey identifies the single pending reminder for a cart.
type taskKey struct {
	userID string
	cartID string
}

// ReminderScheduler arms a deferred cart-abandonment reminder per cart.
// A subsequent mutation to the same cart reschedules the pending timer
// instead of stacking a duplicate, so an abandoned cart produces exactly one
// reminder no matter how often it was touched beforehand.
type ReminderScheduler struct {
	delay      time.Duration
	tokens     TokenSource
	dispatcher *Dispatcher
	lg         *zap.Logger

	mu     sync.Mutex
	timers map[taskKey]*time.Timer
	closed bool
}

// NewReminderScheduler creates a scheduler firing reminders after delay.
func NewReminderScheduler(delay time.Duration, tokens TokenSource, dispatcher *Dispatcher, lg *zap.Logger) *ReminderScheduler {
	return &ReminderScheduler{
		delay:      delay,
		tokens:     tokens,
		dispatcher: dispatcher,
		lg:         lg,
		timers:     make(map[taskKey]*time.Timer),
	}
}

// Schedule arms (or re-arms) the reminder for the given cart.
func (s *ReminderScheduler) Schedule(userID, cartID string) {
	key := taskKey{userID: userID, cartID: cartID}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if t, ok := s.timers[key]; ok {
		t.Stop()
	}
	s.timers[key] = time.AfterFunc(s.delay, func() {
		s.fire(key)
	})
}

// Cancel drops the pending reminder for the cart, if any. Called on
// checkout and explicit clear.
func (s *ReminderScheduler) Cancel(userID, cartID string) {
	key := taskKey{userID: userID, cartID: cartID}

	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.timers[key]; ok {
		t.Stop()
		delete(s.timers, key)
	}
}

// Close stops every pending timer. Further Schedule calls are ignored.
func (s *ReminderScheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for key, t := range s.timers {
		t.Stop()
		delete(s.timers, key)
	}
}

// Pending returns the number of armed reminders.
func (s *ReminderScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

func (s *ReminderScheduler) fire(key taskKey) {
	s.mu.Lock()
	delete(s.timers, key)
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	tokens, err := s.tokens.TokensForUser(ctx, key.userID)
	if err != nil {
		s.lg.Warn("abandonment reminder: token lookup failed",
			zap.String("user_id", key.userID),
			zap.Error(err),
		)
		return
	}
	if len(tokens) == 0 {
		return
	}

	report := s.dispatcher.Send(ctx, tokens, Message{
		Title: "Your wines are waiting",
		Body:  "You left bottles in your cart. Complete your order before they sell out.",
		Data:  map[string]string{"type": "cart_reminder", "cartId": key.cartID},
	})
	s.lg.Info("abandonment reminder sent",
		zap.String("user_id", key.userID),
		zap.Int("success", report.Success),
		zap.Int("failure", report.Failure),
	)
}
