package services

import (
	"log/slog"

	"github.com/rozx/tsukuyomi-core/internal/core/ports/driven"
)

// LogNotifier routes user-facing notifications to structured logs. Headless
// deployments use it directly; UI frontends wrap it with their own channel.
type LogNotifier struct {
	logger *slog.Logger
}

var _ driven.Notifier = (*LogNotifier)(nil)

// NewLogNotifier creates a notifier backed by the given logger.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Info(msg string, args ...any)  { n.logger.Info(msg, args...) }
func (n *LogNotifier) Warn(msg string, args ...any)  { n.logger.Warn(msg, args...) }
func (n *LogNotifier) Error(msg string, args ...any) { n.logger.Error(msg, args...) }
