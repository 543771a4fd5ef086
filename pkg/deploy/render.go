package deploy

import (
	stderrors "errors"
	"strings"
	"unicode/utf8"

	"github.com/punktf/punktf/pkg/diagnostic"
	punktferrors "github.com/punktf/punktf/pkg/errors"
	"github.com/punktf/punktf/pkg/profile"
	"github.com/punktf/punktf/pkg/source"
	"github.com/punktf/punktf/pkg/template"
	"github.com/punktf/punktf/pkg/transform"
)

// CurrentEnv carries the PUNKTF_CURRENT_* values injected for a single
// action's rendering and any hook invocation around it.
type CurrentEnv struct {
	Source  string
	Target  string
	Profile string
}

// Render runs the same rendering pipeline executeWrite uses for a planned
// action, exposed for callers that want a dotfile's resolved content
// without planning or writing anything (e.g. the render/diff subcommands).
// A nil registry resolves against a fresh NewRegistry().
func Render(sourcePath string, sourceBytes []byte, p *profile.Profile, d *profile.Dotfile, registry *transform.Registry) ([]byte, error) {
	if registry == nil {
		registry = transform.NewRegistry()
	}
	return render(sourcePath, sourceBytes, p, d, registry)
}

// render produces the bytes a Create/Overwrite action should write, running
// the template resolver (when the dotfile requests it) and then the
// profile-then-dotfile transformer chain. Template failures carry the
// rendered source-annotated report as a "report" detail so the CLI can show
// the offending lines, not just a message.
func render(sourcePath string, sourceBytes []byte, p *profile.Profile, d *profile.Dotfile, registry *transform.Registry) ([]byte, error) {
	content := string(sourceBytes)

	if d.TemplateOrDefault() {
		if !utf8.Valid(sourceBytes) {
			return nil, punktferrors.New(punktferrors.ErrNonUtf8, "dotfile content is not valid UTF-8")
		}

		src := source.File(sourcePath, content)
		tmpl, _, err := template.NewParser(src).Parse()
		if err != nil {
			perr := punktferrors.Wrap(err, punktferrors.ErrTemplateSyntax, "failed to parse template")
			var parseErr *template.ParseError
			if stderrors.As(err, &parseErr) {
				perr = perr.WithDetail("report", diagnostic.NewFormatter(src, parseErr.Diagnostic).Finish())
			}
			return nil, perr
		}

		env := template.Environment{
			ProfileVars: template.MapVars(p.Variables),
			DotfileVars: template.MapVars(d.Variables),
		}

		rendered, _, err := template.NewResolver(tmpl, env).Resolve()
		if err != nil {
			rerr := punktferrors.Wrap(err, punktferrors.ErrUndefinedVariable, "failed to resolve template")
			var resolveErr *template.ResolveError
			if stderrors.As(err, &resolveErr) {
				reports := make([]string, 0, len(resolveErr.Diagnostics))
				for _, diag := range resolveErr.Diagnostics {
					reports = append(reports, diagnostic.NewFormatter(src, diag).Finish())
				}
				rerr = rerr.WithDetail("report", strings.Join(reports, "\n"))
			}
			return nil, rerr
		}
		content = rendered
	}

	names := append(append([]string{}, p.Transformers...), d.Transformers...)
	transformers, err := registry.Resolve(names)
	if err != nil {
		return nil, punktferrors.Wrap(err, punktferrors.ErrDeployIO, "failed to resolve transformers")
	}

	out, err := transform.Chain(content, transformers...)
	if err != nil {
		return nil, punktferrors.Wrap(err, punktferrors.ErrDeployIO, "transformer failed")
	}

	return []byte(out), nil
}
