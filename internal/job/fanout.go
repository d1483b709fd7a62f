package job

import (
	"context"
	"log/slog"

	"github.com/vitor-labes/catalogue-scraper/internal/domain"
)

// Sinks saves to each sink in order and stops at the first error.
type Sinks []Sink

func (s Sinks) Save(ctx context.Context, products []domain.Product) error {
	for _, sink := range s {
		if err := sink.Save(ctx, products); err != nil {
			return err
		}
	}
	return nil
}

// Notifiers delivers to every notifier and returns the first error.
type Notifiers []Notifier

func (n Notifiers) Notify(ctx context.Context, message string) error {
	var first error
	for _, notifier := range n {
		if err := notifier.Notify(ctx, message); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// LogNotifier writes notifications to the default logger.
type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, message string) error {
	slog.Info(message)
	return nil
}
