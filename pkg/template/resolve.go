package template

import (
	"os"
	"runtime"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/punktf/punktf/pkg/diagnostic"
	"github.com/punktf/punktf/pkg/span"
)

// Vars is a named variable lookup, implemented by both a profile's and a
// dotfile's variable maps.
type Vars interface {
	Var(name string) (string, bool)
}

// MapVars is the common map-backed Vars implementation used by profiles and
// dotfiles.
type MapVars map[string]string

func (m MapVars) Var(name string) (string, bool) {
	v, ok := m[name]
	return v, ok
}

// Environment supplies the variable sources a Resolver searches, in addition
// to the process environment which is always available.
type Environment struct {
	ProfileVars Vars
	DotfileVars Vars
}

// ResolveError is returned by Resolve when one or more diagnostics at
// diagnostic.LevelError were raised while resolving the template.
type ResolveError struct {
	Diagnostics []diagnostic.Diagnostic
}

func (e *ResolveError) Error() string {
	return "template: failed to resolve one or more variables"
}

// Resolver fills a parsed Template's variable and if blocks against an
// Environment, producing the final rendered text.
type Resolver struct {
	tmpl *Template
	env  Environment

	// shouldSkipNextNewline is set after a block that produced no visible
	// content (a comment, print, untaken if, or empty escape) when that
	// block started at column 0, so the text block immediately following it
	// doesn't leave behind a now-empty blank line.
	shouldSkipNextNewline bool

	diagnostics []diagnostic.Diagnostic
	failed      bool
}

// NewResolver creates a resolver for tmpl, searching profileVars/dotfileVars
// (either of which may be nil) and the process environment for variables.
func NewResolver(tmpl *Template, env Environment) *Resolver {
	return &Resolver{tmpl: tmpl, env: env}
}

// Resolve consumes the resolver and renders the full template.
func (r *Resolver) Resolve() (string, []diagnostic.Diagnostic, error) {
	var output strings.Builder

	for _, block := range r.tmpl.Blocks {
		if err := r.processBlock(&output, block); err != nil {
			r.reportDiagnostic(err.Build())
		}
	}

	if r.failed {
		var errs []diagnostic.Diagnostic
		for _, d := range r.diagnostics {
			if d.Level == diagnostic.LevelError {
				errs = append(errs, d)
			}
		}
		return output.String(), r.diagnostics, &ResolveError{Diagnostics: errs}
	}

	return output.String(), r.diagnostics, nil
}

func (r *Resolver) reportDiagnostic(d diagnostic.Diagnostic) {
	if d.Level == diagnostic.LevelError {
		r.failed = true
	}
	r.diagnostics = append(r.diagnostics, d)
}

func (r *Resolver) columnOf(pos span.BytePos) int {
	return r.tmpl.Source.GetPosLocation(pos).Column
}

func (r *Resolver) processBlock(output *strings.Builder, block Block) *diagnostic.Builder {
	switch block.Kind {
	case KindText:
		content := block.Span.Slice(r.tmpl.Source.Content())

		if r.shouldSkipNextNewline && startsWithNewline(content) {
			if idx := strings.IndexByte(content, '\n'); idx >= 0 {
				content = content[idx+1:]
			}
			r.shouldSkipNextNewline = false
		}

		output.WriteString(content)

	case KindComment:
		r.shouldSkipNextNewline = r.columnOf(block.Span.Low) == 0

	case KindEscaped:
		content := block.Text.Slice(r.tmpl.Source.Content())
		r.shouldSkipNextNewline = content == "" && r.columnOf(block.Span.Low) == 0
		output.WriteString(content)

	case KindVar:
		r.shouldSkipNextNewline = false

		val, err := r.resolveVar(block.Var)
		if err != nil {
			return err
		}
		output.WriteString(val)

	case KindPrint:
		r.shouldSkipNextNewline = r.columnOf(block.Span.Low) == 0
		log.Info().Str("print", r.resolvePrintBody(block.Text)).Msg("template print block")

	case KindIf:
		return r.processIf(output, block)
	}

	return nil
}

func (r *Resolver) processIf(output *strings.Builder, block Block) *diagnostic.Builder {
	ifBlock := block.If

	var ifOutput strings.Builder

	matched, err := r.resolveIfExpr(ifBlock.Head.Cond.Expr)
	if err != nil {
		return err.LabelSpan(ifBlock.Head.Cond.Span, "while resolving this `if` block")
	}

	if matched {
		for _, b := range ifBlock.Head.Body {
			if err := r.processBlock(&ifOutput, b); err != nil {
				return err
			}
		}
	} else {
		foundElif := false

		for _, elif := range ifBlock.Elifs {
			matched, err := r.resolveIfExpr(elif.Cond.Expr)
			if err != nil {
				return err.LabelSpan(elif.Cond.Span, "while resolving this `elif` block")
			}

			if matched {
				foundElif = true

				for _, b := range elif.Body {
					if err := r.processBlock(&ifOutput, b); err != nil {
						return err
					}
				}

				break
			}
		}

		if !foundElif && ifBlock.Else != nil {
			for _, b := range ifBlock.Else.Body {
				if err := r.processBlock(&ifOutput, b); err != nil {
					return err
				}
			}
		}
	}

	prepared := trimEmptyBoundaryLines(ifOutput.String())

	r.shouldSkipNextNewline = prepared == "" && r.columnOf(block.Span.Low) == 0

	output.WriteString(prepared)

	return nil
}

// resolvePrintBody renders a print directive's body: literal text with any
// embedded variable blocks resolved. A variable that fails to parse or
// resolve is reported as a warning and echoed back verbatim; print blocks
// never abort resolution.
func (r *Resolver) resolvePrintBody(body span.ByteSpan) string {
	content := body.Slice(r.tmpl.Source.Content())

	var out strings.Builder
	it := newBlockIter(content)
	for {
		res := it.Next()
		if res == nil {
			break
		}

		raw := res.Span.Slice(content)
		if res.Err != nil || res.Hint != HintVar {
			out.WriteString(raw)
			continue
		}

		inner := raw[2 : len(raw)-2]
		v, err := parseVar(inner, int(body.Low)+int(res.Span.Low)+2)
		if err != nil {
			r.reportDiagnostic(diagnostic.NewBuilder(diagnostic.LevelWarning).
				Message("failed to parse variable in print block").
				Description(err.Error()).
				PrimarySpan(res.Span.Offset(int32(body.Low))).
				Build())
			out.WriteString(raw)
			continue
		}

		val, dErr := r.resolveVar(v)
		if dErr != nil {
			r.reportDiagnostic(diagnostic.NewBuilder(diagnostic.LevelWarning).
				Message("failed to resolve variable in print block").
				Description("no variable `" + v.Name.Slice(r.tmpl.Source.Content()) + "` found in environments " + v.Envs.String()).
				PrimarySpan(v.Name).
				Build())
			out.WriteString(raw)
			continue
		}
		out.WriteString(val)
	}

	return out.String()
}

// trimEmptyBoundaryLines drops a leading line that is entirely whitespace up
// to its first newline, and a trailing line that is entirely whitespace from
// its last newline, so that an if block occupying its own lines doesn't
// leave behind blank lines around the content it chose to emit.
func trimEmptyBoundaryLines(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		if strings.TrimLeft(s[:idx], " \t\r") == "" {
			s = s[idx+1:]
		}
	}

	if idx := strings.LastIndexByte(s, '\n'); idx >= 0 {
		if strings.TrimLeft(s[idx:], " \t\r\n") == "" {
			s = s[:idx]
		}
	}

	return s
}

func startsWithNewline(s string) bool {
	return strings.HasPrefix(s, "\n") || strings.HasPrefix(s, "\r\n")
}

func (r *Resolver) resolveIfExpr(expr IfExpr) (bool, *diagnostic.Builder) {
	switch expr.Kind {
	case ExprCompare:
		val, err := r.resolveVar(expr.Var)
		if err != nil {
			return false, err
		}
		other := expr.Other.Slice(r.tmpl.Source.Content())
		return expr.Op.Eval(val, other), nil
	case ExprExists:
		_, err := r.resolveVar(expr.Var)
		return err == nil, nil
	case ExprNotExists:
		_, err := r.resolveVar(expr.Var)
		return err != nil, nil
	default:
		return false, nil
	}
}

// resolveVar searches var.Envs in order across the process environment,
// profile variables, and dotfile variables.
func (r *Resolver) resolveVar(v Var) (string, *diagnostic.Builder) {
	name := v.Name.Slice(r.tmpl.Source.Content())

	for _, env := range v.Envs.Envs() {
		switch env {
		case EnvEnvironment:
			if val, ok := lookupBuiltinTarget(name); ok {
				return val, nil
			}
			if val, ok := os.LookupEnv(name); ok {
				return val, nil
			}
		case EnvProfile:
			if r.env.ProfileVars != nil {
				if val, ok := r.env.ProfileVars.Var(name); ok {
					return val, nil
				}
			}
		case EnvDotfile:
			if r.env.DotfileVars != nil {
				if val, ok := r.env.DotfileVars.Var(name); ok {
					return val, nil
				}
			}
		}
	}

	return "", diagnostic.NewBuilder(diagnostic.LevelError).
		Message("failed to resolve variable").
		Description("no variable `" + name + "` found in environments " + v.Envs.String()).
		PrimarySpan(v.Name)
}

// lookupBuiltinTarget resolves punktf's three injected build-target
// variables, which fall back to these computed values only when the process
// environment doesn't already define them.
func lookupBuiltinTarget(name string) (string, bool) {
	switch name {
	case "PUNKTF_TARGET_ARCH":
		if _, ok := os.LookupEnv(name); !ok {
			return runtime.GOARCH, true
		}
	case "PUNKTF_TARGET_OS":
		if _, ok := os.LookupEnv(name); !ok {
			return runtime.GOOS, true
		}
	case "PUNKTF_TARGET_FAMILY":
		if _, ok := os.LookupEnv(name); !ok {
			return targetFamily(), true
		}
	}
	return "", false
}

func targetFamily() string {
	switch runtime.GOOS {
	case "windows":
		return "windows"
	case "js":
		return "wasm"
	default:
		return "unix"
	}
}
