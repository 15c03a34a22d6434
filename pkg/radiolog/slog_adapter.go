package radiolog

import (
	"context"
	"log/slog"
)

// SlogAdapter writes radio events to an slog.Logger.
// Useful for development when you want radio events in the console.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a SlogAdapter that writes to the given slog.Logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes the event to the slog logger at Debug level.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("cycle_id", event.CycleID),
		slog.String("category", event.Category.String()),
	}

	switch event.Category {
	case CategoryUplink, CategoryDownlink:
		attrs = append(attrs,
			slog.String("direction", event.Direction.String()),
			slog.Int("port", int(event.Port)),
			slog.Int("size", event.Size),
		)
	case CategoryState:
		attrs = append(attrs, slog.String("phase", event.Phase))
	}

	if event.Attempt > 0 {
		attrs = append(attrs, slog.Int("attempt", event.Attempt))
	}
	if event.DevAddr != "" {
		attrs = append(attrs, slog.String("dev_addr", event.DevAddr))
	}
	if event.Error != "" {
		attrs = append(attrs, slog.String("error", event.Error))
	}

	a.logger.LogAttrs(context.Background(), slog.LevelDebug, "radio event", attrs...)
}

// Compile-time interface satisfaction check.
var _ Logger = (*SlogAdapter)(nil)
