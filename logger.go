package resmgr

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/go-logr/logr"
	"github.com/muesli/termenv"
	"go.uber.org/zap"
)

// Logger receives the manager's status lines.
type Logger interface {
	Logf(format string, args ...any)
}

// logPrefix tags every status line.
const logPrefix = "RM"

// Console line styles: time, prefix, message.
var (
	timeColor   = lipgloss.Color("2") // green
	prefixColor = lipgloss.Color("4") // blue
)

// ConsoleLogger writes lines formatted as "[HH:MM:SS] RM::<message>".
type ConsoleLogger struct {
	mu     sync.Mutex
	w      io.Writer
	now    func() time.Time
	color  bool
	time   lipgloss.Style
	prefix lipgloss.Style
}

// ConsoleOption configures a ConsoleLogger.
type ConsoleOption func(*ConsoleLogger)

// WithColor enables ANSI-styled time and prefix tags, whatever the writer is.
// Callers decide whether the writer is a terminal.
func WithColor(enabled bool) ConsoleOption {
	return func(l *ConsoleLogger) {
		l.color = enabled
	}
}

// WithClock overrides the time source (used by tests).
func WithClock(now func() time.Time) ConsoleOption {
	return func(l *ConsoleLogger) {
		if now != nil {
			l.now = now
		}
	}
}

// NewConsoleLogger creates a ConsoleLogger writing to w.
func NewConsoleLogger(w io.Writer, opts ...ConsoleOption) *ConsoleLogger {
	l := &ConsoleLogger{w: w, now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	if l.color {
		r := lipgloss.NewRenderer(w)
		r.SetColorProfile(termenv.ANSI)
		l.time = r.NewStyle().Foreground(timeColor)
		l.prefix = r.NewStyle().Foreground(prefixColor)
	}
	return l
}

// Logf writes one status line.
func (l *ConsoleLogger) Logf(format string, args ...any) {
	ts := "[" + l.now().Format("15:04:05") + "]"
	prefix := logPrefix
	if l.color {
		ts = l.time.Render(ts)
		prefix = l.prefix.Render(prefix)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.w, "%s %s::%s\n", ts, prefix, fmt.Sprintf(format, args...))
}

// zapLogger forwards status lines to a zap logger at info level.
type zapLogger struct {
	l *zap.Logger
}

// NewZapLogger adapts a zap logger. A nil logger discards lines.
func NewZapLogger(l *zap.Logger) Logger {
	if l == nil {
		l = zap.NewNop()
	}
	return &zapLogger{l: l.With(zap.String("component", logPrefix))}
}

func (z *zapLogger) Logf(format string, args ...any) {
	z.l.Info(fmt.Sprintf(format, args...))
}

// logrLogger forwards status lines to a logr sink at V(0).
type logrLogger struct {
	l logr.Logger
}

// NewLogrLogger adapts a logr logger.
func NewLogrLogger(l logr.Logger) Logger {
	return &logrLogger{l: l.WithName(logPrefix)}
}

func (g *logrLogger) Logf(format string, args ...any) {
	g.l.Info(fmt.Sprintf(format, args...))
}

type nopLogger struct{}

func (nopLogger) Logf(string, ...any) {}

// NopLogger returns a Logger that discards everything.
func NopLogger() Logger {
	return nopLogger{}
}
