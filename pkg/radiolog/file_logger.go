package radiolog

import (
	"bufio"
	"os"
	"sync"
)

// FileLogger appends radio events to a CBOR log file. Writes are buffered
// in memory until Sync; the power-state transition flushes once per wake
// cycle, so steady-state operation costs one storage write per cycle no
// matter how many events the cycle produced.
type FileLogger struct {
	mu     sync.Mutex
	file   *os.File
	buf    *bufio.Writer
	closed bool
}

// NewFileLogger opens (or creates) the log file at path for appending.
func NewFileLogger(path string) (*FileLogger, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	return &FileLogger{file: f, buf: bufio.NewWriter(f)}, nil
}

// Log buffers one event. Encoding errors are dropped; logging must not
// disrupt the node.
func (l *FileLogger) Log(event Event) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return
	}
	raw, err := EncodeEvent(event)
	if err != nil {
		return
	}
	_, _ = l.buf.Write(raw)
}

// Sync drains the buffer and flushes the file to stable storage, so events
// written during the cycle survive the sleep.
func (l *FileLogger) Sync() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}
	if err := l.buf.Flush(); err != nil {
		return err
	}
	return l.file.Sync()
}

// Close flushes and closes the log file. Safe to call more than once;
// events logged after Close are dropped.
func (l *FileLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}
	l.closed = true
	flushErr := l.buf.Flush()
	if err := l.file.Close(); err != nil {
		return err
	}
	return flushErr
}

// Compile-time interface satisfaction check.
var _ Logger = (*FileLogger)(nil)
