package socket

import "log/slog"

// AdviceKind classifies transient user-facing advisories.
type AdviceKind string

const (
	AdviceNewNotification AdviceKind = "notification"
	AdviceAuthFailed      AdviceKind = "auth_failed"
)

// Advisor is the toast-equivalent surface: transient, dismissable,
// best-effort. Implementations must not block; failures are swallowed by
// callers.
type Advisor interface {
	Advise(kind AdviceKind, message string)
}

// LogAdvisor writes advisories to the log, which is all a headless gateway
// can do with them.
type LogAdvisor struct {
	logger *slog.Logger
}

func NewLogAdvisor(logger *slog.Logger) *LogAdvisor {
	return &LogAdvisor{logger: logger.With("component", "advisor")}
}

func (a *LogAdvisor) Advise(kind AdviceKind, message string) {
	a.logger.Info("Advisory", "kind", string(kind), "message", message)
}
