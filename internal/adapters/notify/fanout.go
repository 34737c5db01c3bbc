package notify

import (
	"context"
	"errors"
	"log/slog"

	"github.com/manan0901/Vibecoder-sub000/internal/core/ports/external"
	"github.com/manan0901/Vibecoder-sub000/internal/middleware"
)

// Fanout delivers each event to every notifier; one sink failing does not stop the rest.
type Fanout struct {
	sinks []external.Notifier
}

var _ external.Notifier = (*Fanout)(nil)

func NewFanout(sinks ...external.Notifier) *Fanout {
	kept := make([]external.Notifier, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			kept = append(kept, s)
		}
	}
	return &Fanout{sinks: kept}
}

func (f *Fanout) Notify(ctx context.Context, event string, payload map[string]any) error {
	var errs []error
	for _, s := range f.sinks {
		if err := s.Notify(ctx, event, payload); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LogNotifier writes events to the request logger. It is the sink used when no broker is configured.
type LogNotifier struct{}

var _ external.Notifier = LogNotifier{}

func (LogNotifier) Notify(ctx context.Context, event string, payload map[string]any) error {
	middleware.GetLoggerFromCtx(ctx).Info("Payment event", slog.String("event", event), slog.Any("payload", payload))
	return nil
}
