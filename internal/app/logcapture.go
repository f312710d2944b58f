package app

import (
	"strings"
	"sync"
)

const logLineLimit = 300

// textSink receives the joined log text; binding.String satisfies it.
type textSink interface {
	Set(string) error
}

// logCapture is an io.Writer that keeps the last lines written and mirrors
// them into the log panel.
type logCapture struct {
	mu    sync.Mutex
	lines []string
	limit int
	sink  textSink
}

func newLogCapture(sink textSink, limit int) *logCapture {
	if limit <= 0 {
		limit = logLineLimit
	}
	return &logCapture{sink: sink, limit: limit}
}

func (l *logCapture) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	text := strings.ReplaceAll(string(p), "\r\n", "\n")
	for _, part := range strings.Split(text, "\n") {
		if part == "" {
			continue
		}
		l.lines = append(l.lines, part)
	}
	if len(l.lines) > l.limit {
		l.lines = l.lines[len(l.lines)-l.limit:]
	}
	if l.sink != nil {
		_ = l.sink.Set(strings.Join(l.lines, "\n"))
	}
	return len(p), nil
}

// Sync satisfies zapcore.WriteSyncer.
func (l *logCapture) Sync() error {
	return nil
}

func (l *logCapture) Text() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return strings.Join(l.lines, "\n")
}
