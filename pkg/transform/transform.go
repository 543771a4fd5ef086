// Package transform post-processes a dotfile's resolved content before it
// is written to its target, e.g. normalizing line endings.
package transform

import "fmt"

// Transformer mutates a rendered dotfile's content. Transformers are pure:
// given the same input they must produce the same output.
type Transformer interface {
	Name() string
	Transform(content string) (string, error)
}

// Chain applies transformers in order, profile-level entries first and
// dotfile-level entries last.
func Chain(content string, transformers ...Transformer) (string, error) {
	for _, tr := range transformers {
		out, err := tr.Transform(content)
		if err != nil {
			return "", fmt.Errorf("transformer %q: %w", tr.Name(), err)
		}
		content = out
	}
	return content, nil
}

// Registry resolves the string names a profile/dotfile lists under
// `transformers` into Transformer instances.
type Registry struct {
	factories map[string]func() Transformer
}

// NewRegistry returns a Registry seeded with the built-in transformers.
func NewRegistry() *Registry {
	r := &Registry{factories: make(map[string]func() Transformer)}
	r.Register("LineTerminator::LF", func() Transformer { return LineTerminator{Mode: LF} })
	r.Register("LineTerminator::CRLF", func() Transformer { return LineTerminator{Mode: CRLF} })
	return r
}

// Register adds or replaces the factory for name.
func (r *Registry) Register(name string, factory func() Transformer) {
	r.factories[name] = factory
}

// Resolve builds the Transformer chain for the given names, in order,
// erroring on the first unrecognized name.
func (r *Registry) Resolve(names []string) ([]Transformer, error) {
	out := make([]Transformer, 0, len(names))
	for _, name := range names {
		factory, ok := r.factories[name]
		if !ok {
			return nil, fmt.Errorf("unknown transformer %q", name)
		}
		out = append(out, factory())
	}
	return out, nil
}
