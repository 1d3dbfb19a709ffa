package debug

import (
	"fmt"
	"strings"
	"sync"
)

// Entry is one retained trace record.
type Entry struct {
	Level   Level
	Message string
	Line    uint32 // 1-based, 0 when unknown
	Col     uint32 // 1-based, 0 when unknown
}

// Context collects entries for one transpile call. It is an explicit per-call
// object: callers that want isolation between concurrent invocations create
// one Context each, there is no process-global level.
type Context struct {
	mu      sync.Mutex
	level   Level
	entries []Entry
}

// New creates a context gated at level.
func New(level Level) *Context {
	return &Context{level: level}
}

// SetLevel changes the gate for subsequent entries.
func (c *Context) SetLevel(level Level) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.level = level
	c.mu.Unlock()
}

// Level returns the current gate.
func (c *Context) Level() Level {
	if c == nil {
		return LevelOff
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.level
}

// Enabled reports whether entries at l would be retained. Passes use it to
// skip building expensive arguments.
func (c *Context) Enabled(l Level) bool {
	if c == nil {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return l != LevelOff && l <= c.level
}

// Logf retains a formatted entry when the gate allows it. The format string
// is not evaluated otherwise.
func (c *Context) Logf(l Level, format string, args ...any) {
	c.logAt(l, 0, 0, format, args...)
}

// At retains a position-carrying entry when the gate allows it.
func (c *Context) At(l Level, line, col uint32, format string, args ...any) {
	c.logAt(l, line, col, format, args...)
}

func (c *Context) logAt(l Level, line, col uint32, format string, args ...any) {
	if c == nil || l == LevelOff {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if l > c.level {
		return
	}
	c.entries = append(c.entries, Entry{
		Level:   l,
		Message: fmt.Sprintf(format, args...),
		Line:    line,
		Col:     col,
	})
}

func (c *Context) Errorf(format string, args ...any)   { c.Logf(LevelError, format, args...) }
func (c *Context) Warnf(format string, args ...any)    { c.Logf(LevelWarn, format, args...) }
func (c *Context) Infof(format string, args ...any)    { c.Logf(LevelInfo, format, args...) }
func (c *Context) Tracef(format string, args ...any)   { c.Logf(LevelTrace, format, args...) }
func (c *Context) Verbosef(format string, args ...any) { c.Logf(LevelVerbose, format, args...) }

// Entries returns a copy of the retained entries in emission order.
func (c *Context) Entries() []Entry {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Reset drops retained entries, keeping the level.
func (c *Context) Reset() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.entries = c.entries[:0]
	c.mu.Unlock()
}

// Format renders retained entries, one per line, for host display.
func (c *Context) Format() string {
	entries := c.Entries()
	var sb strings.Builder
	for i, e := range entries {
		if i > 0 {
			sb.WriteByte('\n')
		}
		switch {
		case e.Line > 0 && e.Col > 0:
			fmt.Fprintf(&sb, "[%s] [%d:%d]: %s", e.Level, e.Line, e.Col, e.Message)
		case e.Line > 0:
			fmt.Fprintf(&sb, "[%s] [line %d]: %s", e.Level, e.Line, e.Message)
		default:
			fmt.Fprintf(&sb, "[%s]: %s", e.Level, e.Message)
		}
	}
	return sb.String()
}
