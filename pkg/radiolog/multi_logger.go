package radiolog

// MultiLogger fans events out to several loggers, typically the on-disk
// FileLogger plus a SlogAdapter when diagnostics mode mirrors radio events
// onto the process log.
type MultiLogger []Logger

// NewMultiLogger creates a MultiLogger over the given loggers.
func NewMultiLogger(loggers ...Logger) MultiLogger {
	return MultiLogger(loggers)
}

// Log sends the event to every member.
func (m MultiLogger) Log(event Event) {
	for _, l := range m {
		l.Log(event)
	}
}

// Sync flushes every member that supports flushing, returning the first
// error encountered.
func (m MultiLogger) Sync() error {
	var first error
	for _, l := range m {
		if s, ok := l.(interface{ Sync() error }); ok {
			if err := s.Sync(); err != nil && first == nil {
				first = err
			}
		}
	}
	return first
}

// Compile-time interface satisfaction check.
var _ Logger = MultiLogger(nil)
