// Package notify surfaces reconciliation outcomes to the user. Delivery is
// fire-and-forget at the granularity of a whole run, never per item.
package notify

import "log/slog"

// Notifier displays a title+message pair.
type Notifier interface {
	Notify(title, message string)
}

// Log writes notifications as structured log records. It is the default
// notifier for headless deployments.
type Log struct {
	Logger *slog.Logger
}

// Notify implements Notifier.
func (l *Log) Notify(title, message string) {
	l.Logger.Info("notification",
		slog.String("title", title),
		slog.String("message", message))
}

// Discard drops every notification. Useful in tests.
type Discard struct{}

// Notify implements Notifier.
func (Discard) Notify(string, string) {}
