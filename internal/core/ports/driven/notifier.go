package driven

// Notifier surfaces user-facing messages. Sync failures are reported here
// rather than thrown across the orchestrator boundary.
type Notifier interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}
