package debug

import "fmt"

// Level controls tracing verbosity for one transpile call.
type Level uint8

const (
	// LevelOff disables tracing entirely.
	LevelOff     Level = iota // no entries, no formatting
	LevelError                // pass failures only
	LevelWarn                 // suspicious but recoverable
	LevelInfo                 // pass boundaries
	LevelTrace                // decision points inside passes
	LevelVerbose              // per-rewrite detail
)

// String returns the string representation of Level.
func (l Level) String() string {
	switch l {
	case LevelOff:
		return "off"
	case LevelError:
		return "error"
	case LevelWarn:
		return "warn"
	case LevelInfo:
		return "info"
	case LevelTrace:
		return "trace"
	case LevelVerbose:
		return "verbose"
	default:
		return "unknown"
	}
}

// ParseLevel converts a string to a Level. Numeric forms 0-5 are accepted
// for parity with host embeddings.
func ParseLevel(s string) (Level, error) {
	switch s {
	case "off", "OFF", "0":
		return LevelOff, nil
	case "error", "ERROR", "1":
		return LevelError, nil
	case "warn", "warning", "WARN", "2":
		return LevelWarn, nil
	case "info", "INFO", "3":
		return LevelInfo, nil
	case "trace", "TRACE", "4":
		return LevelTrace, nil
	case "verbose", "VERBOSE", "5":
		return LevelVerbose, nil
	default:
		return LevelOff, fmt.Errorf("invalid debug level: %q (expected: off|error|warn|info|trace|verbose)", s)
	}
}
