// Package span tracks byte-accurate positions and ranges inside a template
// source, used to attach diagnostics to the exact text that produced them.
package span

import "fmt"

// BytePos is the offset, in bytes, of a position inside a source string.
type BytePos uint32

// CharPos is the offset, in characters (runes), of a position inside a
// source string. Distinct from BytePos because multi-byte UTF-8 characters
// make the two diverge.
type CharPos uint32

// ByteSpan is a half-open byte range [Low, High) inside a source string.
type ByteSpan struct {
	Low  BytePos
	High BytePos
}

// NewByteSpan builds a span from low/high, swapping them if high < low.
func NewByteSpan(low, high BytePos) ByteSpan {
	if low > high {
		low, high = high, low
	}
	return ByteSpan{Low: low, High: high}
}

// Span associates value with this span.
func (s ByteSpan) Span(value interface{}) Spanned {
	return Spanned{Span: s, Value: value}
}

// WithLow returns a copy of s with Low replaced.
func (s ByteSpan) WithLow(low BytePos) ByteSpan {
	s.Low = low
	return s
}

// WithHigh returns a copy of s with High replaced.
func (s ByteSpan) WithHigh(high BytePos) ByteSpan {
	s.High = high
	return s
}

// Union returns the smallest span containing both s and other.
func (s ByteSpan) Union(other ByteSpan) ByteSpan {
	low := s.Low
	if other.Low < low {
		low = other.Low
	}
	high := s.High
	if other.High > high {
		high = other.High
	}
	return ByteSpan{Low: low, High: high}
}

// OffsetLow returns a copy of s with Low shifted by amount.
func (s ByteSpan) OffsetLow(amount int32) ByteSpan {
	s.Low = BytePos(int32(s.Low) + amount)
	return s
}

// OffsetHigh returns a copy of s with High shifted by amount.
func (s ByteSpan) OffsetHigh(amount int32) ByteSpan {
	s.High = BytePos(int32(s.High) + amount)
	return s
}

// Offset returns a copy of s with both Low and High shifted by amount.
func (s ByteSpan) Offset(amount int32) ByteSpan {
	s.Low = BytePos(int32(s.Low) + amount)
	s.High = BytePos(int32(s.High) + amount)
	return s
}

// Len returns the number of bytes the span covers.
func (s ByteSpan) Len() int {
	return int(s.High) - int(s.Low)
}

// Slice returns the substring of src covered by s.
func (s ByteSpan) Slice(src string) string {
	return src[s.Low:s.High]
}

func (s ByteSpan) String() string {
	return fmt.Sprintf("%d..%d", s.Low, s.High)
}

// Spanned associates a ByteSpan with an arbitrary value, mirroring the
// template engine's source-tracked tokens/blocks.
type Spanned struct {
	Span  ByteSpan
	Value interface{}
}

// NewSpanned creates a Spanned wrapping value at span.
func NewSpanned(span ByteSpan, value interface{}) Spanned {
	return Spanned{Span: span, Value: value}
}
