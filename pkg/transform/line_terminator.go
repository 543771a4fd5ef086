package transform

import "strings"

// LineEnding selects which line terminator LineTerminator normalizes to.
type LineEnding int

const (
	LF LineEnding = iota
	CRLF
)

// LineTerminator normalizes a content's line endings. Both modes are
// idempotent: applying either one twice is equivalent to applying it once.
type LineTerminator struct {
	Mode LineEnding
}

func (LineTerminator) Name() string { return "LineTerminator" }

func (t LineTerminator) Transform(content string) (string, error) {
	// Always fold CRLF down to LF first; CRLF mode then expands every LF
	// back out, which is what makes a second pass a no-op.
	normalized := strings.ReplaceAll(content, "\r\n", "\n")

	switch t.Mode {
	case LF:
		return normalized, nil
	case CRLF:
		return strings.ReplaceAll(normalized, "\n", "\r\n"), nil
	default:
		return content, nil
	}
}
