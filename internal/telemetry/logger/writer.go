package logger

import (
	"bytes"
	"log/slog"
	"sync/atomic"
)

// Writer adapts a slog.Logger to io.Writer for libraries that only accept
// an io.Writer or *log.Logger. Each write becomes one debug record.
// Writes are dropped while the writer is muted.
type Writer struct {
	logger *slog.Logger
	muted  atomic.Bool
}

// NewWriter creates a Writer logging through l. It starts muted when mute is true.
func NewWriter(l *slog.Logger, mute bool) *Writer {
	w := &Writer{logger: l}
	w.muted.Store(mute)
	return w
}

// SetMuted enables or disables forwarding.
func (w *Writer) SetMuted(mute bool) {
	w.muted.Store(mute)
}

// Muted reports whether writes are currently dropped.
func (w *Writer) Muted() bool {
	return w.muted.Load()
}

// Write implements io.Writer.
func (w *Writer) Write(p []byte) (int, error) {
	if w.muted.Load() {
		return len(p), nil
	}
	w.logger.Debug(string(bytes.TrimRight(p, "\r\n")))
	return len(p), nil
}
