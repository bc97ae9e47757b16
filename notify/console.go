package notify

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Console renders feedback as lines on a writer. It is the terminal
// counterpart of the mini-program toast and modal APIs and is safe for
// concurrent use.
type Console struct {
	mu     sync.Mutex
	w      io.Writer
	logger *zap.Logger

	// loading is the number of visible loading indicators; the line is only
	// printed for the first one, like a masked overlay.
	loading int
}

// NewConsole returns a Console writing to w. A nil logger is replaced by a no-op one.
func NewConsole(w io.Writer, logger *zap.Logger) *Console {
	if w == nil {
		w = io.Discard
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Console{w: w, logger: logger}
}

func (c *Console) Toast(message string, variant Variant, d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	prefix := ""
	switch variant {
	case VariantSuccess:
		prefix = "✔ "
	case VariantError:
		prefix = "✖ "
	}
	_, _ = fmt.Fprintf(c.w, "%s%s\n", prefix, message)
	c.logger.Debug("toast", zap.String("message", message), zap.String("variant", string(variant)), zap.Duration("duration", d))
}

func (c *Console) Modal(title, message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = fmt.Fprintf(c.w, "[%s]\n%s\n", title, strings.TrimSpace(message))
}

func (c *Console) ShowLoading(text string) Loading {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading++
	if c.loading == 1 {
		_, _ = fmt.Fprintf(c.w, "%s\n", text)
	}
	return &consoleLoading{c: c}
}

func (c *Console) hideLoading() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loading > 0 {
		c.loading--
	}
}

type consoleLoading struct {
	once sync.Once
	c    *Console
}

func (l *consoleLoading) Hide() { l.once.Do(l.c.hideLoading) }

// LogNavigator records navigation requests in the log. A command line tool has
// no page stack, so the only useful thing to do with a redirect is to tell the
// operator where the flow wanted to go.
type LogNavigator struct {
	logger *zap.Logger
	w      io.Writer
}

// NewLogNavigator returns a Navigator that logs every call and, when w is not
// nil, prints redirects for the operator.
func NewLogNavigator(w io.Writer, logger *zap.Logger) *LogNavigator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNavigator{logger: logger, w: w}
}

func (n *LogNavigator) Redirect(path string) {
	n.logger.Info("redirect", zap.String("path", path))
	if n.w != nil {
		_, _ = fmt.Fprintf(n.w, "redirected to %s\n", path)
	}
}

func (n *LogNavigator) NavigateTo(path string) {
	n.logger.Info("navigate", zap.String("path", path))
}

func (n *LogNavigator) Back(levels int) {
	n.logger.Info("navigate back", zap.Int("levels", levels))
}
