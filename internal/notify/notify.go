package notify

import (
	"context"
	"io"
	"log/slog"
	"sync"
)

// Kind identifies the category of a user-facing notification.
type Kind string

const (
	KindConnectivity Kind = "connectivity"
	KindPlanLimit    Kind = "plan_limit"
	KindRateLimit    Kind = "rate_limit"
)

// Notification is a user-facing signal raised by the engine.
type Notification struct {
	Kind    Kind   `json:"kind"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

// Notifier receives notifications. Implementations must be safe for
// concurrent use.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// Connectivity builds the notification raised when the server cannot be reached.
func Connectivity() Notification {
	return Notification{
		Kind:    KindConnectivity,
		Title:   "Connection Error",
		Message: "Unable to reach the server. Please check your connection.",
	}
}

// PlanLimit builds the notification raised for a 402 response. An empty
// message falls back to a generic upgrade prompt.
func PlanLimit(message string) Notification {
	if message == "" {
		message = "You have reached your plan limit. Please upgrade to continue."
	}
	return Notification{Kind: KindPlanLimit, Title: "Plan Limit Reached", Message: message}
}

// RateLimit builds the notification raised for a 429 response.
func RateLimit() Notification {
	return Notification{
		Kind:    KindRateLimit,
		Title:   "Too Many Requests",
		Message: "You are sending requests too quickly. Please wait a moment.",
	}
}

// LogNotifier writes notifications to a structured logger.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a notifier backed by logger. A nil logger discards.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &LogNotifier{logger: logger}
}

func (l *LogNotifier) Notify(ctx context.Context, n Notification) {
	l.logger.WarnContext(ctx, n.Title, "kind", n.Kind, "message", n.Message)
}

// Recorder collects notifications in memory.
type Recorder struct {
	mu    sync.Mutex
	items []Notification
}

func (r *Recorder) Notify(_ context.Context, n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, n)
}

// All returns a copy of the recorded notifications.
func (r *Recorder) All() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.items...)
}

// Kinds returns the kinds of the recorded notifications in order.
func (r *Recorder) Kinds() []Kind {
	all := r.All()
	kinds := make([]Kind, 0, len(all))
	for _, n := range all {
		kinds = append(kinds, n.Kind)
	}
	return kinds
}

// Multi fans a notification out to several notifiers.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, n Notification) {
	for _, target := range m {
		if target != nil {
			target.Notify(ctx, n)
		}
	}
}

// Discard drops every notification.
type Discard struct{}

func (Discard) Notify(context.Context, Notification) {}
