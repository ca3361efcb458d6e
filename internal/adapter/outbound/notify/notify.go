// Package notify delivers user-visible messages: to a terminal, or to an
// in-memory recorder for tests.
package notify

import (
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/feastflow/storefront/internal/port/outbound"
)

// Console writes one line per message.
type Console struct {
	mu     sync.Mutex
	w      io.Writer
	logger *slog.Logger
}

// NewConsole writes messages to w and mirrors them at debug level.
func NewConsole(w io.Writer, logger *slog.Logger) *Console {
	return &Console{w: w, logger: logger}
}

// Success prints msg with a check mark.
func (c *Console) Success(msg string) {
	c.write("✓", msg)
	c.logger.Debug("notify", "level", "success", "message", msg)
}

// Error prints msg with a cross.
func (c *Console) Error(msg string) {
	c.write("✗", msg)
	c.logger.Debug("notify", "level", "error", "message", msg)
}

func (c *Console) write(mark, msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = fmt.Fprintf(c.w, "%s %s\n", mark, msg)
}

// Level tells a success from an error message.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Message is one recorded notification.
type Message struct {
	Level Level
	Text  string
}

// Recorder keeps every message in order.
type Recorder struct {
	mu   sync.Mutex
	msgs []Message
}

// NewRecorder returns an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Success records a success message.
func (r *Recorder) Success(msg string) { r.add(LevelSuccess, msg) }

// Error records an error message.
func (r *Recorder) Error(msg string) { r.add(LevelError, msg) }

func (r *Recorder) add(l Level, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, Message{Level: l, Text: msg})
}

// Messages returns a copy of what was recorded.
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Message, len(r.msgs))
	copy(out, r.msgs)
	return out
}

// Texts returns only the message texts.
func (r *Recorder) Texts() []string {
	msgs := r.Messages()
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.Text
	}
	return out
}

// Last returns the most recent message.
func (r *Recorder) Last() (Message, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.msgs) == 0 {
		return Message{}, false
	}
	return r.msgs[len(r.msgs)-1], true
}

// Reset forgets all messages.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = nil
}

// Discard drops every message.
type Discard struct{}

func (Discard) Success(string) {}
func (Discard) Error(string)   {}

var (
	_ outbound.Notifier = (*Console)(nil)
	_ outbound.Notifier = (*Recorder)(nil)
	_ outbound.Notifier = Discard{}
)
