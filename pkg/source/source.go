// Package source holds the contents of a template file together with the
// indexes needed to translate byte offsets into line/column locations for
// diagnostics.
package source

import (
	"fmt"
	"sort"
	"unicode/utf8"

	"golang.org/x/text/width"

	"github.com/punktf/punktf/pkg/span"
)

// Location describes a position within a source file. Line is one-indexed,
// column is zero-indexed.
type Location struct {
	Line   int
	Column int
}

// Display renders the location as "line:column", with both one-indexed.
func (l Location) Display() string {
	return fmt.Sprintf("%d:%d", l.Line, l.Column+1)
}

// OriginKind distinguishes where a Source's content came from.
type OriginKind int

const (
	// OriginAnonymous marks content with no backing file, mainly for tests.
	OriginAnonymous OriginKind = iota
	// OriginFile marks content read from a path on disk.
	OriginFile
)

// Origin identifies where a Source's content came from.
type Origin struct {
	Kind OriginKind
	Path string
}

func (o Origin) String() string {
	if o.Kind == OriginFile {
		return o.Path
	}
	return "anonymous"
}

// AnonymousOrigin returns an Origin with no backing file.
func AnonymousOrigin() Origin {
	return Origin{Kind: OriginAnonymous}
}

// FileOrigin returns an Origin backed by path.
func FileOrigin(path string) Origin {
	return Origin{Kind: OriginFile, Path: path}
}

// multiByteChar records the byte position and byte width (>=2) of a
// multi-byte UTF-8 character.
type multiByteChar struct {
	pos   span.BytePos
	bytes uint8
}

// specialWidthKind distinguishes the reasons a character's display width
// differs from its byte-for-byte default of 1.
type specialWidthKind int

const (
	widthZero specialWidthKind = iota
	widthWide
	widthTab
)

type specialWidthChar struct {
	pos  span.BytePos
	kind specialWidthKind
}

func (s specialWidthChar) width() int {
	switch s.kind {
	case widthZero:
		return 0
	case widthWide:
		return 2
	case widthTab:
		return 4
	default:
		return 1
	}
}

// Source holds the full content of a template file plus the indexes needed
// to answer byte-to-location queries in O(log n) for diagnostics rendering.
type Source struct {
	origin  Origin
	content string
	lines   []span.BytePos
	special []specialWidthChar
	multi   []multiByteChar
}

// New builds a Source for origin/content, analyzing it once up front.
func New(origin Origin, content string) *Source {
	lines, special, multi := analyze(content)
	return &Source{
		origin:  origin,
		content: content,
		lines:   lines,
		special: special,
		multi:   multi,
	}
}

// Anonymous builds a Source with no backing file, for tests and ad-hoc renders.
func Anonymous(content string) *Source {
	return New(AnonymousOrigin(), content)
}

// File builds a Source backed by path.
func File(path string, content string) *Source {
	return New(FileOrigin(path), content)
}

// displayWidth is the terminal column width of r: wide/fullwidth East-Asian
// characters count as 2, everything else as 1.
func displayWidth(r rune) int {
	p := width.LookupRune(r)
	switch p.Kind() {
	case width.EastAsianWide, width.EastAsianFullwidth:
		return 2
	default:
		return 1
	}
}

func analyze(content string) ([]span.BytePos, []specialWidthChar, []multiByteChar) {
	lines := []span.BytePos{0}
	var special []specialWidthChar
	var multi []multiByteChar

	b := []byte(content)
	i := 0
	for i < len(b) {
		c := b[i]
		charLen := 1

		switch {
		case c < 32:
			switch c {
			case '\n':
				lines = append(lines, span.BytePos(i+1))
			case '\t':
				special = append(special, specialWidthChar{pos: span.BytePos(i), kind: widthTab})
			default:
				special = append(special, specialWidthChar{pos: span.BytePos(i), kind: widthZero})
			}
		case c > 127:
			r, size := utf8.DecodeRuneInString(content[i:])
			charLen = size

			if charLen > 1 {
				multi = append(multi, multiByteChar{pos: span.BytePos(i), bytes: uint8(charLen)})
			}

			w := displayWidth(r)
			if w != 1 {
				kind := widthZero
				if w == 2 {
					kind = widthWide
				}
				special = append(special, specialWidthChar{pos: span.BytePos(i), kind: kind})
			}
		}

		i += charLen
	}

	return lines, special, multi
}

// GetCharPos translates a byte position into a character position, which
// diverges from the byte position whenever multi-byte or special-width
// characters precede it.
func (s *Source) GetCharPos(pos span.BytePos) span.CharPos {
	offset := 0
	count := 0

	for _, swc := range s.special {
		if swc.pos < pos {
			offset += swc.width()
			count++
		} else {
			break
		}
	}

	for _, mbc := range s.multi {
		if mbc.pos < pos {
			offset++
			count += int(mbc.bytes)
		} else {
			break
		}
	}

	return span.CharPos(int(pos) + offset - count)
}

// GetPosLineIdx returns the zero-indexed line on which pos is located.
func (s *Source) GetPosLineIdx(pos span.BytePos) int {
	idx := sort.Search(len(s.lines), func(i int) bool { return s.lines[i] >= pos })
	if idx < len(s.lines) && s.lines[idx] == pos {
		return idx
	}
	return idx - 1
}

// GetPosLocation converts a byte position into a Location.
func (s *Source) GetPosLocation(pos span.BytePos) Location {
	lineIdx := s.GetPosLineIdx(pos)
	lineStart := s.lines[lineIdx]

	posChar := s.GetCharPos(pos)
	lineStartChar := s.GetCharPos(lineStart)

	return Location{
		Line:   lineIdx + 1,
		Column: int(posChar) - int(lineStartChar),
	}
}

// GetIdxLine returns the content of the zero-indexed line idx, without its
// trailing newline.
func (s *Source) GetIdxLine(idx int) string {
	lineStart := s.lines[idx]

	var lineEnd span.BytePos
	if idx+1 < len(s.lines) {
		lineEnd = s.lines[idx+1] - 1
	} else {
		lineEnd = span.BytePos(len(s.content))
	}

	return span.NewByteSpan(lineStart, lineEnd).Slice(s.content)
}

// GetPosLine returns the content of the line on which pos is located.
func (s *Source) GetPosLine(pos span.BytePos) string {
	return s.GetIdxLine(s.GetPosLineIdx(pos))
}

// Origin returns the source's origin.
func (s *Source) Origin() Origin {
	return s.origin
}

// Content returns the full content of the source.
func (s *Source) Content() string {
	return s.content
}

// LineCount returns the number of lines tracked in the source.
func (s *Source) LineCount() int {
	return len(s.lines)
}
