package diagnostic

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/punktf/punktf/pkg/source"
	"github.com/punktf/punktf/pkg/span"
)

var (
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	warningStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	headerStyle  = lipgloss.NewStyle().Bold(true)
	gutterStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	primaryStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	labelStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
)

// tabWidth mirrors pkg/source's treatment of tabs for caret alignment.
const tabWidth = 4

// spanRef is a cheap index into a Diagnostic's spans, distinguishing primary
// spans from labeled ones without copying the underlying ByteSpan around.
type spanRef struct {
	isPrimary bool
	idx       int
}

func (r spanRef) resolve(d Diagnostic) (s span.ByteSpan, label string, isPrimary bool) {
	if r.isPrimary {
		return d.Spans.Primary[r.idx], "", true
	}
	l := d.Spans.Labels[r.idx]
	return l.Span, l.Label, false
}

// lineMap lazily interns only the source lines referenced by a diagnostic's
// spans, keyed by zero-indexed line number, along with which spans land on
// each line.
type lineMap struct {
	lines map[int]string
	refs  map[int][]spanRef
	order []int
}

func newLineMap() *lineMap {
	return &lineMap{
		lines: make(map[int]string),
		refs:  make(map[int][]spanRef),
	}
}

func (m *lineMap) insert(src *source.Source, lineIdx int, ref spanRef) {
	if _, ok := m.lines[lineIdx]; !ok {
		m.lines[lineIdx] = src.GetIdxLine(lineIdx)
		m.order = append(m.order, lineIdx)
	}
	m.refs[lineIdx] = append(m.refs[lineIdx], ref)
}

func (m *lineMap) sortedLines() []int {
	sort.Ints(m.order)
	return m.order
}

// Formatter renders a Diagnostic against the Source it was raised from,
// producing rustc-style source-annotated output.
type Formatter struct {
	src  *source.Source
	diag Diagnostic
}

// NewFormatter builds a Formatter for diag, rendered against src.
func NewFormatter(src *source.Source, diag Diagnostic) *Formatter {
	return &Formatter{src: src, diag: diag}
}

// Finish renders the full diagnostic report as a multi-line string.
func (f *Formatter) Finish() string {
	var b strings.Builder

	style := errorStyle
	if f.diag.Level == LevelWarning {
		style = warningStyle
	}

	fmt.Fprintf(&b, "%s %s\n", style.Render(f.diag.Level.String()+":"), headerStyle.Render(f.diag.Msg))

	lm := newLineMap()

	for i, s := range f.diag.Spans.Primary {
		lineIdx := f.src.GetPosLineIdx(s.Low)
		lm.insert(f.src, lineIdx, spanRef{isPrimary: true, idx: i})
	}
	for i, l := range f.diag.Spans.Labels {
		lineIdx := f.src.GetPosLineIdx(l.Span.Low)
		lm.insert(f.src, lineIdx, spanRef{isPrimary: false, idx: i})
	}

	lines := lm.sortedLines()

	if len(lines) > 0 {
		loc := f.src.GetPosLocation(f.firstSpanOf(lines[0], lm).Low)
		fmt.Fprintf(&b, "  --> %s:%s\n", f.src.Origin().String(), loc.Display())

		gutterWidth := len(fmt.Sprintf("%d", lines[len(lines)-1]+1))

		for i, lineIdx := range lines {
			if i > 0 && lineIdx != lines[i-1]+1 {
				fmt.Fprintf(&b, "%s\n", gutterStyle.Render(strings.Repeat(" ", gutterWidth)+" ..."))
			}

			raw := lm.lines[lineIdx]

			fmt.Fprintf(&b, "%s %s\n",
				gutterStyle.Render(fmt.Sprintf("%*d |", gutterWidth, lineIdx+1)),
				expandTabs(raw))

			underline := f.buildUnderline(lm.refs[lineIdx], lineIdx, gutterWidth)
			if underline != "" {
				fmt.Fprintf(&b, "%s\n", underline)
			}
		}
	}

	if f.diag.Description != "" {
		for _, line := range strings.Split(f.diag.Description, "\n") {
			fmt.Fprintf(&b, "  = %s\n", line)
		}
	}

	return b.String()
}

// firstSpanOf returns a representative span on lineIdx, preferring a primary
// one, for use in the "--> origin:location" header line.
func (f *Formatter) firstSpanOf(lineIdx int, lm *lineMap) span.ByteSpan {
	var fallback span.ByteSpan
	for i, ref := range lm.refs[lineIdx] {
		s, _, isPrimary := ref.resolve(f.diag)
		if i == 0 {
			fallback = s
		}
		if isPrimary {
			return s
		}
	}
	return fallback
}

func expandTabs(s string) string {
	return strings.ReplaceAll(s, "\t", strings.Repeat(" ", tabWidth))
}

// buildUnderline renders the caret/dash line beneath a source line for all
// spans referencing it. Columns come from Source.GetPosLocation, which is
// already tab/wide-char aware, so no re-derivation of display width here.
func (f *Formatter) buildUnderline(refs []spanRef, lineIdx int, gutterWidth int) string {
	if len(refs) == 0 {
		return ""
	}

	lineEndCol := 0
	type mark struct {
		start, end int
		primary    bool
		label      string
		// endsOnLine reports whether this span's high bound is on lineIdx,
		// which gates whether the label text is printed for it.
		endsOnLine bool
	}
	var marks []mark

	for _, ref := range refs {
		s, label, isPrimary := ref.resolve(f.diag)

		startLoc := f.src.GetPosLocation(s.Low)

		// Anchor on the last byte the span covers, skipping any trailing
		// newline, so a span that swallows its line terminator still counts
		// as ending on this line.
		lastIdx := s.High
		for lastIdx > s.Low {
			lastIdx--
			if c := f.src.Content()[lastIdx]; c != '\n' && c != '\r' {
				break
			}
		}
		endsOnLine := f.src.GetPosLineIdx(lastIdx) == lineIdx

		endCol := startLoc.Column + 1
		if endsOnLine {
			if endLoc := f.src.GetPosLocation(lastIdx); endLoc.Column+1 > endCol {
				endCol = endLoc.Column + 1
			}
		}

		if endCol > lineEndCol {
			lineEndCol = endCol
		}

		marks = append(marks, mark{
			start:      startLoc.Column,
			end:        endCol,
			primary:    isPrimary,
			label:      label,
			endsOnLine: endsOnLine,
		})
	}

	buf := make([]byte, lineEndCol)
	for i := range buf {
		buf[i] = ' '
	}

	for _, m := range marks {
		ch := byte('-')
		if m.primary {
			ch = '^'
		}
		for c := m.start; c < m.end && c < len(buf); c++ {
			buf[c] = ch
		}
	}

	underline := strings.TrimRight(string(buf), " ")
	if underline == "" {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s", gutterStyle.Render(strings.Repeat(" ", gutterWidth)+" |"), primaryStyle.Render(underline))

	for _, m := range marks {
		if m.label != "" && m.endsOnLine {
			fmt.Fprintf(&b, " %s", labelStyle.Render(m.label))
		}
	}

	return b.String()
}
