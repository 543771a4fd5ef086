package template

import (
	"strings"

	"github.com/punktf/punktf/pkg/diagnostic"
	"github.com/punktf/punktf/pkg/span"
)

// lexResult is one item produced by blockIter: either a span/hint pair, or a
// diagnostic describing why the next block could not be read.
type lexResult struct {
	Span span.ByteSpan
	Hint BlockHint
	Err  *diagnostic.Builder
}

// blockIter scans a template's content for balanced {{ }} blocks one at a
// time, classifying each by BlockHint without fully parsing its contents.
type blockIter struct {
	content string
	index   int
}

func newBlockIter(content string) *blockIter {
	return &blockIter{content: content}
}

// Next returns the next block, or nil once the content is exhausted.
func (it *blockIter) Next() *lexResult {
	rest := it.content[it.index:]
	if rest == "" {
		return nil
	}

	lo, hi, hint, skip, hasSkip, errMsg := nextBlock(rest)
	if errMsg != "" {
		start := it.index
		if hasSkip {
			it.index += skip
		} else {
			it.index = len(it.content)
		}

		errSpan := span.NewByteSpan(span.BytePos(start), span.BytePos(it.index))

		return &lexResult{
			Span: errSpan,
			Err: diagnostic.NewBuilder(diagnostic.LevelError).
				Message("failed to parse block").
				Description(errMsg).
				PrimarySpan(errSpan),
		}
	}

	s := span.NewByteSpan(span.BytePos(lo), span.BytePos(hi)).Offset(int32(it.index))
	it.index = int(s.High)

	if hint != nil {
		return &lexResult{Span: s, Hint: *hint}
	}

	content := s.Slice(it.content)

	if !strings.HasPrefix(content, "{{") {
		return &lexResult{Span: s, Hint: HintText}
	}

	inner := content[2 : len(content)-2]

	switch {
	case strings.HasPrefix(inner, "{") && strings.HasSuffix(inner, "}"):
		return &lexResult{Span: s, Hint: HintEscaped}
	case strings.HasPrefix(inner, "!--") && strings.HasSuffix(inner, "--"):
		return &lexResult{Span: s, Hint: HintComment}
	case strings.HasPrefix(inner, "@print "):
		return &lexResult{Span: s, Hint: HintPrint}
	case strings.HasPrefix(inner, "@if "):
		return &lexResult{Span: s, Hint: HintIfStart}
	case strings.HasPrefix(inner, "@elif "):
		return &lexResult{Span: s, Hint: HintElIf}
	case strings.HasPrefix(inner, "@else"):
		return &lexResult{Span: s, Hint: HintElse}
	case strings.HasPrefix(inner, "@fi"):
		return &lexResult{Span: s, Hint: HintIfEnd}
	default:
		return &lexResult{Span: s, Hint: HintVar}
	}
}

// peek reports whether the next block (without consuming it) is one that
// should terminate an enclosing if's block-collection loop: true only when
// there IS a next block, it parsed cleanly, and its hint is an if-subblock
// (elif/else/fi). A malformed next block is reported as "not a subblock" (the
// caller will consume and report it normally); an exhausted iterator is
// reported as "no next block" so the caller can stop instead of looping
// forever.
func (it *blockIter) peek() (isSubblock bool, hasNext bool) {
	copyIt := *it
	res := copyIt.Next()
	if res == nil {
		return false, false
	}
	if res.Err != nil {
		return false, true
	}
	return res.Hint.IsIfSubblock(), true
}

// nextBlock finds the next {{ }}-delimited block in s, which always starts
// at index 0 of the returned span (text before the first "{{" is itself
// returned as a Text block). hint is nil when the block is a generic
// `{{...}}` whose exact kind still needs content-sniffing by the caller.
//
// On failure errMsg is non-empty; skip/hasSkip describe how many bytes of s
// to discard before resuming, to recover and keep scanning past the error.
func nextBlock(s string) (lo, hi int, hint *BlockHint, skip int, hasSkip bool, errMsg string) {
	low := strings.Index(s, "{{")
	if low < 0 {
		h := HintText
		return 0, len(s), &h, 0, false, ""
	}

	if low > 0 {
		h := HintText
		return 0, low, &h, 0, false, ""
	}

	if low+2 < len(s) && s[low+2] == '{' {
		if idx := strings.Index(s, "}}}"); idx >= 0 {
			h := HintEscaped
			return low, idx + 3, &h, 0, false, ""
		}
		return 0, 0, nil, 3, true, "found opening for an escaped block but no closing"
	}

	if low+5 <= len(s) && s[low+2:low+5] == "!--" {
		if idx := strings.Index(s, "--}}"); idx >= 0 {
			h := HintComment
			return low, idx + 4, &h, 0, false, ""
		}
		return 0, 0, nil, 5, true, "found opening for a comment block but no closing"
	}

	tail := s[low+1:]
	openings := indicesOf(tail, "{{")
	closings := indicesOf(tail, "}}")

	oi := 0
	for _, high := range closings {
		if oi < len(openings) {
			opening := openings[oi]
			oi++
			if opening < high {
				continue
			}
		}

		return low, high + 2 + (low + 1), nil, 0, false, ""
	}

	return 0, 0, nil, 2, true, "found opening for a block but no closing"
}

// indicesOf returns the starting byte index of every non-overlapping
// occurrence of sub in s, in order.
func indicesOf(s, sub string) []int {
	var out []int
	start := 0
	for {
		idx := strings.Index(s[start:], sub)
		if idx < 0 {
			return out
		}
		out = append(out, start+idx)
		start += idx + len(sub)
	}
}

// parseVar parses inner (the content of a {{ }} block with the delimiters
// already stripped) as a Var. offset is the absolute byte position of inner
// within the full source, used to produce correctly-located spans.
func parseVar(inner string, offset int) (Var, error) {
	origLen := len(inner)
	trimmed := strings.TrimLeft(inner, " \t\r\n")
	offset += origLen - len(trimmed)
	inner = strings.TrimRight(trimmed, " \t\r\n")

	envs := EmptyVarEnvSet()

	if len(inner) > 0 && (inner[0] == '$' || inner[0] == '#' || inner[0] == '&') {
		for i := 0; i < 3; i++ {
			if i >= len(inner) {
				break
			}
			var env VarEnv
			switch inner[i] {
			case '$':
				env = EnvEnvironment
			case '#':
				env = EnvProfile
			case '&':
				env = EnvDotfile
			default:
				i = 3
				continue
			}

			if !envs.Add(env) {
				return Var{}, errDuplicateVarEnv(offset)
			}
		}

		offset += envs.Len()
		inner = inner[envs.Len():]
	} else {
		envs = DefaultVarEnvSet()
	}

	if inner == "" {
		return Var{}, errEmptyVarName(offset)
	}

	for i := 0; i < len(inner); i++ {
		if !isVarNameSymbol(inner[i]) {
			return Var{}, errInvalidVarSymbol(inner[i])
		}
	}

	return Var{
		Envs: envs,
		Name: span.NewByteSpan(span.BytePos(offset), span.BytePos(offset+len(inner))),
	}, nil
}

// parseIfOp finds whichever of "==" / "!=" appears first in inner.
func parseIfOp(inner string) (IfOp, bool) {
	eqIdx := strings.Index(inner, "==")
	neIdx := strings.Index(inner, "!=")

	switch {
	case eqIdx >= 0 && neIdx >= 0:
		if eqIdx < neIdx {
			return OpEq, true
		}
		return OpNotEq, true
	case eqIdx >= 0:
		return OpEq, true
	case neIdx >= 0:
		return OpNotEq, true
	default:
		return 0, false
	}
}

// parseOther finds the quoted literal in inner, returning its span
// (excluding the quotes) offset into the full source by offset.
func parseOther(inner string, offset int) (span.ByteSpan, bool) {
	first := strings.IndexByte(inner, '"')
	if first < 0 {
		return span.ByteSpan{}, false
	}
	second := strings.IndexByte(inner[first+1:], '"')
	if second < 0 {
		return span.ByteSpan{}, false
	}
	second += first + 1

	return span.NewByteSpan(span.BytePos(offset+first+1), span.BytePos(offset+second)), true
}

func isVarNameSymbol(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9') || b == '_'
}
