package radiolog

// Logger is the interface the node uses to record radio events.
// Pass nil or NoopLogger to disable logging.
type Logger interface {
	// Log records a radio event. The event should be processed quickly;
	// the node blocks on nothing else while transmitting.
	Log(event Event)
}

// NoopLogger discards all events. Use when logging is disabled.
// NoopLogger is usable as a zero value.
type NoopLogger struct{}

// Log discards the event.
func (NoopLogger) Log(Event) {}

// Compile-time interface satisfaction check.
var _ Logger = NoopLogger{}
