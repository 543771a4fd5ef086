// Package diagnostic renders span-accurate error/warning reports for the
// template engine, in the style of rustc's source-annotated diagnostics.
package diagnostic

import (
	"github.com/punktf/punktf/pkg/span"
)

// Level is the severity of a Diagnostic.
type Level int

const (
	LevelError Level = iota
	LevelWarning
)

func (l Level) String() string {
	if l == LevelWarning {
		return "warning"
	}
	return "error"
}

// labelSpan pairs a span with the text displayed under a "-" underline.
type labelSpan struct {
	Span  span.ByteSpan
	Label string
}

// Spans holds all the spans attached to one Diagnostic: primary spans get a
// "^" underline, labels get a "-" underline with trailing text.
type Spans struct {
	Primary []span.ByteSpan
	Labels  []labelSpan
}

// Diagnostic is a single error or warning the template engine wants to
// surface to the user, with enough span information to render the offending
// source text.
type Diagnostic struct {
	Level       Level
	Msg         string
	Spans       Spans
	Description string
}

// Builder incrementally constructs a Diagnostic.
type Builder struct {
	level       Level
	msg         string
	spans       Spans
	description string
}

// NewBuilder starts a Diagnostic of the given severity.
func NewBuilder(level Level) *Builder {
	return &Builder{level: level}
}

// Message sets the diagnostic's headline message.
func (b *Builder) Message(msg string) *Builder {
	b.msg = msg
	return b
}

// Description sets (or appends, if called more than once) the diagnostic's
// extended description, one line per call.
func (b *Builder) Description(description string) *Builder {
	if b.description == "" {
		b.description = description
	} else {
		b.description += "\n" + description
	}
	return b
}

// PrimarySpan adds a span that should be underlined with "^".
func (b *Builder) PrimarySpan(s span.ByteSpan) *Builder {
	b.spans.Primary = append(b.spans.Primary, s)
	return b
}

// LabelSpan adds a span that should be underlined with "-" and annotated
// with label.
func (b *Builder) LabelSpan(s span.ByteSpan, label string) *Builder {
	b.spans.Labels = append(b.spans.Labels, labelSpan{Span: s, Label: label})
	return b
}

// Build finalizes the Diagnostic.
func (b *Builder) Build() Diagnostic {
	return Diagnostic{
		Level:       b.level,
		Msg:         b.msg,
		Spans:       b.spans,
		Description: b.description,
	}
}
