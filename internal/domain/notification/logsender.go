package notification

import (
	"context"

	"go.uber.org/zap"
)

// LogSender records pushes in the log instead of delivering them. It stands
// in for a real provider in environments without push credentials.
type LogSender struct {
	lg *zap.Logger
}

func NewLogSender(lg *zap.Logger) *LogSender {
	return &LogSender{lg: lg.Named("push")}
}

func (s *LogSender) SendToTokens(ctx context.Context, tokens []string, msg Message) (Report, error) {
	s.lg.Info("Push batch",
		zap.Int("tokens", len(tokens)),
		zap.String("title", msg.Title),
	)
	return Report{Success: len(tokens)}, nil
}
