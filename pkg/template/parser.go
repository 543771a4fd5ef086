package template

import (
	"fmt"
	"strings"

	"github.com/punktf/punktf/pkg/diagnostic"
	"github.com/punktf/punktf/pkg/source"
	"github.com/punktf/punktf/pkg/span"
)

// Template is a fully parsed directive document: its backing Source plus the
// top-level Blocks found within it.
type Template struct {
	Source *source.Source
	Blocks []Block
}

// ParseError is returned by Parse when a diagnostic at diagnostic.LevelError
// aborted parsing. Parsing does not recover from an error: the diagnostic
// that caused it is the only one present.
type ParseError struct {
	Diagnostic diagnostic.Diagnostic
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("template: %s", e.Diagnostic.Msg)
}

// Parser converts a Source into a Template. Parsing is non-recovering: the
// first malformed block aborts the whole parse with a single diagnostic.
type Parser struct {
	source *source.Source
	blocks *blockIter
}

// NewParser creates a parser for src.
func NewParser(src *source.Source) *Parser {
	return &Parser{
		source: src,
		blocks: newBlockIter(src.Content()),
	}
}

// Parse consumes the parser, returning the resulting Template. On the first
// malformed block, parsing stops immediately and returns the Template built
// so far (for callers that want to inspect it anyway) alongside a single
// diagnostic and a non-nil *ParseError.
func (p *Parser) Parse() (*Template, []diagnostic.Diagnostic, error) {
	var blocks []Block

	for {
		res, ok := p.nextTopLevelBlock()
		if !ok {
			break
		}
		if res.err != nil {
			d := res.err.Build()
			tmpl := &Template{Source: p.source, Blocks: blocks}
			return tmpl, []diagnostic.Diagnostic{d}, &ParseError{Diagnostic: d}
		}
		blocks = append(blocks, res.block)
	}

	return &Template{Source: p.source, Blocks: blocks}, nil, nil
}

// blockOrErr is the parser's internal Result<Block, DiagnosticBuilder>.
type blockOrErr struct {
	block Block
	err   *diagnostic.Builder
}

// nextTopLevelBlock resolves the next block that is allowed to stand on its
// own, i.e. not a bare elif/else/fi continuing a preceding if.
func (p *Parser) nextTopLevelBlock() (blockOrErr, bool) {
	lr := p.blocks.Next()
	if lr == nil {
		return blockOrErr{}, false
	}
	if lr.Err != nil {
		return blockOrErr{err: lr.Err}, true
	}

	sp, hint := lr.Span, lr.Hint

	switch hint {
	case HintText:
		return blockOrErr{block: p.parseText(sp)}, true
	case HintComment:
		return blockOrErr{block: p.parseComment(sp)}, true
	case HintEscaped:
		return blockOrErr{block: p.parseEscaped(sp)}, true
	case HintVar:
		v, err := p.parseVariable(sp)
		if err != nil {
			return blockOrErr{err: err}, true
		}
		return blockOrErr{block: Block{Span: sp, Kind: KindVar, Var: v}}, true
	case HintPrint:
		return blockOrErr{block: p.parsePrint(sp)}, true
	case HintIfStart:
		spannedIf, err := p.parseIf(sp)
		if err != nil {
			return blockOrErr{err: err}, true
		}
		return blockOrErr{block: Block{Span: spannedIf.Span, Kind: KindIf, If: &spannedIf.If}}, true
	case HintElIf:
		return blockOrErr{err: diagnostic.NewBuilder(diagnostic.LevelError).
			Message("top-level `elif` block").
			Description("an `elif` block must always come after an `if` block").
			PrimarySpan(sp)}, true
	case HintElse:
		return blockOrErr{err: diagnostic.NewBuilder(diagnostic.LevelError).
			Message("top-level `else` block").
			Description("an `else` block must always come after an `if` or `elif` block").
			PrimarySpan(sp)}, true
	case HintIfEnd:
		return blockOrErr{err: diagnostic.NewBuilder(diagnostic.LevelError).
			Message("top-level `fi` block").
			Description("a `fi` can only be used to close an open `if` block").
			PrimarySpan(sp)}, true
	default:
		return blockOrErr{err: diagnostic.NewBuilder(diagnostic.LevelError).
			Message("unrecognized block").
			PrimarySpan(sp)}, true
	}
}

func (p *Parser) parseText(sp span.ByteSpan) Block {
	return Block{Span: sp, Kind: KindText}
}

func (p *Parser) parseComment(sp span.ByteSpan) Block {
	return Block{Span: sp, Kind: KindComment}
}

func (p *Parser) parseEscaped(sp span.ByteSpan) Block {
	return Block{Span: sp, Kind: KindEscaped, Text: sp.OffsetLow(3).OffsetHigh(-3)}
}

func (p *Parser) parsePrint(sp span.ByteSpan) Block {
	return Block{Span: sp, Kind: KindPrint, Text: sp.OffsetLow(9).OffsetHigh(-2)}
}

// parseVariable resolves the `{{ ... }}` block at sp to a Var.
func (p *Parser) parseVariable(sp span.ByteSpan) (Var, *diagnostic.Builder) {
	inner := sp.OffsetLow(2).OffsetHigh(-2)
	content := inner.Slice(p.source.Content())

	offset := int(sp.Low) + 2

	v, err := parseVar(content, offset)
	if err != nil {
		return Var{}, diagnostic.NewBuilder(diagnostic.LevelError).
			Message("failed to parse variable block").
			Description(err.Error()).
			PrimarySpan(sp)
	}

	return v, nil
}

// spannedIf pairs a parsed If with the span of the whole if/elif/else/fi chain.
type spannedIf struct {
	Span span.ByteSpan
	If   If
}

func (p *Parser) parseIf(sp span.ByteSpan) (spannedIf, *diagnostic.Builder) {
	headExpr, err := p.parseIfStart(sp)
	if err != nil {
		return spannedIf{}, err.LabelSpan(sp, "while parsing this `if` block")
	}

	head := IfBranch{Cond: SpannedIfExpr{Span: sp, Expr: headExpr}}

	body, err := p.parseIfEnclosedBlocks(sp, "while parsing this `if` block")
	if err != nil {
		return spannedIf{}, err
	}
	head.Body = body

	lr := p.blocks.Next()
	if lr == nil {
		return spannedIf{}, diagnostic.NewBuilder(diagnostic.LevelError).
			Message("unexpected end of `if` block").
			Description("close the `if` block with `{{@fi}}`").
			PrimarySpan(sp).
			LabelSpan(sp, "while parsing this `if` block")
	}
	if lr.Err != nil {
		return spannedIf{}, lr.Err.LabelSpan(sp, "while parsing this `if` block")
	}

	curSpan, curHint := lr.Span, lr.Hint

	var elifs []IfBranch
	for curHint == HintElIf {
		elifExpr, err := p.parseElif(curSpan)
		if err != nil {
			return spannedIf{}, err.LabelSpan(sp, "while parsing this `if` block")
		}

		branch := IfBranch{Cond: SpannedIfExpr{Span: curSpan, Expr: elifExpr}}
		body, err := p.parseIfEnclosedBlocks(curSpan, "while parsing this `elif` block")
		if err != nil {
			return spannedIf{}, err
		}
		branch.Body = body
		elifs = append(elifs, branch)

		next := p.blocks.Next()
		if next == nil {
			return spannedIf{}, diagnostic.NewBuilder(diagnostic.LevelError).
				Message("unexpected end of `elif` block").
				Description("close the `if` block with `{{@fi}}`").
				PrimarySpan(curSpan).
				LabelSpan(sp, "while parsing this `if` block")
		}
		if next.Err != nil {
			return spannedIf{}, next.Err.LabelSpan(sp, "while parsing this `if` block")
		}

		curSpan, curHint = next.Span, next.Hint
	}

	var elseBranch *ElseBranch
	if curHint == HintElse {
		els, err := p.parseElse(curSpan)
		if err != nil {
			return spannedIf{}, err.LabelSpan(sp, "while parsing this `if` block")
		}

		body, err := p.parseIfEnclosedBlocks(curSpan, "while parsing this `else` block")
		if err != nil {
			return spannedIf{}, err
		}
		elseBranch = &ElseBranch{Span: els, Body: body}

		next := p.blocks.Next()
		if next == nil {
			return spannedIf{}, diagnostic.NewBuilder(diagnostic.LevelError).
				Message("unexpected end of `else` block").
				Description("close the `if` block with `{{@fi}}`").
				PrimarySpan(curSpan).
				LabelSpan(sp, "while parsing this `if` block")
		}
		if next.Err != nil {
			return spannedIf{}, next.Err.LabelSpan(sp, "while parsing this `if` block")
		}

		curSpan, curHint = next.Span, next.Hint
	}

	var end span.ByteSpan
	if curHint == HintIfEnd {
		e, err := p.parseIfEnd(curSpan)
		if err != nil {
			return spannedIf{}, err.LabelSpan(sp, "while parsing this `if` block")
		}
		end = e
	} else {
		return spannedIf{}, diagnostic.NewBuilder(diagnostic.LevelError).
			Message("unexpected end of `if` block").
			Description("close the `if` block with `{{@fi}}`").
			PrimarySpan(curSpan).
			LabelSpan(sp, "while parsing this `if` block")
	}

	whole := sp.Union(end)

	return spannedIf{
		Span: whole,
		If: If{
			Head:  head,
			Elifs: elifs,
			Else:  elseBranch,
			End:   end,
		},
	}, nil
}

// parseIfEnclosedBlocks eagerly parses every block up to (but not including)
// the next elif/else/fi. Parsing is non-recovering, so the first malformed
// nested block aborts immediately and the error is returned (already labeled
// with headSpan) rather than collected.
func (p *Parser) parseIfEnclosedBlocks(headSpan span.ByteSpan, label string) ([]Block, *diagnostic.Builder) {
	var blocks []Block

	for {
		isSubblock, hasNext := p.blocks.peek()
		if !hasNext || isSubblock {
			break
		}

		res, present := p.nextTopLevelBlock()
		if !present {
			break
		}
		if res.err != nil {
			return blocks, res.err.LabelSpan(headSpan, label)
		}
		blocks = append(blocks, res.block)
	}

	return blocks, nil
}

func (p *Parser) parseIfStart(sp span.ByteSpan) (IfExpr, *diagnostic.Builder) {
	// {{@if {{VAR}} (!=|==) "LIT" }}
	exprSpan := sp.OffsetLow(6).OffsetHigh(-2)
	return p.parseIfExpr(exprSpan)
}

func (p *Parser) parseElif(sp span.ByteSpan) (IfExpr, *diagnostic.Builder) {
	// {{@elif {{VAR}} (!=|==) "LIT" }}
	exprSpan := sp.OffsetLow(8).OffsetHigh(-2)
	return p.parseIfExpr(exprSpan)
}

func (p *Parser) parseElse(sp span.ByteSpan) (span.ByteSpan, *diagnostic.Builder) {
	if sp.Slice(p.source.Content()) != "{{@else}}" {
		return span.ByteSpan{}, diagnostic.NewBuilder(diagnostic.LevelError).
			Message("expected an `else` block").
			PrimarySpan(sp)
	}
	return sp, nil
}

func (p *Parser) parseIfEnd(sp span.ByteSpan) (span.ByteSpan, *diagnostic.Builder) {
	if sp.Slice(p.source.Content()) != "{{@fi}}" {
		return span.ByteSpan{}, diagnostic.NewBuilder(diagnostic.LevelError).
			Message("expected a `fi` block").
			PrimarySpan(sp)
	}
	return sp, nil
}

// parseIfExpr resolves sp (the text between `@if `/`@elif ` and the closing
// `}}`) into an IfExpr: either `{{VAR}} (!=|==) "OTHER"` or `(!){{VAR}}`.
func (p *Parser) parseIfExpr(sp span.ByteSpan) (IfExpr, *diagnostic.Builder) {
	content := sp.Slice(p.source.Content())

	notPresentPrefix := strings.HasPrefix(strings.TrimSpace(content), "!")

	varBlockStart := strings.Index(content, "{{")
	if varBlockStart < 0 {
		return IfExpr{}, diagnostic.NewBuilder(diagnostic.LevelError).
			Message("expected a variable block").
			Description("add a variable block with `{{VARIABLE_NAME}}`").
			PrimarySpan(sp)
	}

	closeIdx := strings.Index(content, "}}")
	if closeIdx < 0 {
		errSpan := span.NewByteSpan(span.BytePos(varBlockStart), span.BytePos(varBlockStart+2))
		return IfExpr{}, diagnostic.NewBuilder(diagnostic.LevelError).
			Message("variable block not closed").
			Description("add `}}` to close the open variable block").
			PrimarySpan(errSpan)
	}
	varBlockEnd := closeIdx + 2

	varBlockSpan := span.NewByteSpan(
		span.BytePos(int(sp.Low)+varBlockStart),
		span.BytePos(int(sp.Low)+varBlockEnd),
	)

	v, err := p.parseVariable(varBlockSpan)
	if err != nil {
		return IfExpr{}, err
	}

	remainder := content[varBlockEnd:]

	if strings.TrimSpace(remainder) == "" {
		if notPresentPrefix {
			return IfExpr{Kind: ExprNotExists, Var: v}, nil
		}
		return IfExpr{Kind: ExprExists, Var: v}, nil
	}

	op, ok := parseIfOp(remainder)
	if !ok {
		return IfExpr{}, diagnostic.NewBuilder(diagnostic.LevelError).
			Message("failed to find if operation").
			Description("add either `==` or `!=` after the variable block").
			PrimarySpan(varBlockSpan)
	}

	other, ok := parseOther(remainder, int(sp.Low)+varBlockEnd)
	if !ok {
		return IfExpr{}, diagnostic.NewBuilder(diagnostic.LevelError).
			Message("failed to find right hand side of the if operation").
			Description("add a literal to compare against with `\"LITERAL\"`").
			PrimarySpan(varBlockSpan)
	}

	return IfExpr{Kind: ExprCompare, Var: v, Op: op, Other: other}, nil
}
