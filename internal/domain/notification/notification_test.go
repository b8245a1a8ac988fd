package notification

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordSender struct {
	mu      sync.Mutex
	batches [][]string
	err     error
}

func (r *recordSender) SendToTokens(_ context.Context, tokens []string, _ Message) (Report, error) {
	r.mu.Lock()
	r.batches = append(r.batches, tokens)
	r.mu.Unlock()
	if r.err != nil {
		return Report{}, r.err
	}
	return Report{Success: len(tokens)}, nil
}

func TestDispatcherChunks(t *testing.T) {
	sender := &recordSender{}
	d := NewDispatcher(sender, zap.NewNop())

	tokens := make([]string, 1203)
	for i := range tokens {
		tokens[i] = fmt.Sprintf("tok%d", i)
	}

	report := d.Send(context.Background(), tokens, Message{Title: "hi"})

	assert.Equal(t, 1203, report.Success)
	assert.Zero(t, report.Failure)
	require.Len(t, sender.batches, 3)
	for _, b := range sender.batches {
		assert.LessOrEqual(t, len(b), 500)
	}
}

func TestDispatcherCountsFailedBatch(t *testing.T) {
	sender := &recordSender{err: errors.New("fcm unavailable")}
	d := NewDispatcher(sender, zap.NewNop())

	report := d.Send(context.Background(), []string{"a", "b"}, Message{})
	assert.Zero(t, report.Success)
	assert.Equal(t, 2, report.Failure)
}

func TestLogSenderCountsEveryTokenDelivered(t *testing.T) {
	s := NewLogSender(zap.NewNop())

	report, err := s.SendToTokens(context.Background(), []string{"a", "b", "c"}, Message{Title: "hi"})
	require.NoError(t, err)
	assert.Equal(t, Report{Success: 3}, report)
}

func TestDispatcherEmptyTokens(t *testing.T) {
	d := NewDispatcher(&recordSender{}, zap.NewNop())
	assert.Equal(t, Report{}, d.Send(context.Background(), nil, Message{}))
}

type countTokens struct {
	calls atomic.Int32
}

func (c *countTokens) TokensForUser(_ context.Context, _ string) ([]string, error) {
	c.calls.Add(1)
	return []string{"tok"}, nil
}

func TestSchedulerReschedulesInsteadOfStacking(t *testing.T) {
	tokens := &countTokens{}
	sender := &recordSender{}
	s := NewReminderScheduler(50*time.Millisecond, tokens, NewDispatcher(sender, zap.NewNop()), zap.NewNop())
	defer s.Close()

	// Three rapid mutations to the same cart arm exactly one reminder.
	s.Schedule("u1", "cart1")
	s.Schedule("u1", "cart1")
	s.Schedule("u1", "cart1")
	assert.Equal(t, 1, s.Pending())

	require.Eventually(t, func() bool {
		return int(tokens.calls.Load()) == 1
	}, time.Second, 10*time.Millisecond)

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(1), tokens.calls.Load(), "only one reminder fires")
	assert.Zero(t, s.Pending())
}

func TestSchedulerCancel(t *testing.T) {
	tokens := &countTokens{}
	s := NewReminderScheduler(30*time.Millisecond, tokens, NewDispatcher(&recordSender{}, zap.NewNop()), zap.NewNop())
	defer s.Close()

	s.Schedule("u1", "cart1")
	s.Cancel("u1", "cart1")

	time.Sleep(80 * time.Millisecond)
	assert.Zero(t, tokens.calls.Load())
}

func TestSchedulerTracksCartsIndependently(t *testing.T) {
	tokens := &countTokens{}
	s := NewReminderScheduler(time.Hour, tokens, NewDispatcher(&recordSender{}, zap.NewNop()), zap.NewNop())
	defer s.Close()

	s.Schedule("u1", "cart1")
	s.Schedule("u2", "cart2")
	assert.Equal(t, 2, s.Pending())

	s.Cancel("u1", "cart1")
	assert.Equal(t, 1, s.Pending())
}
