package template

// Engine compiles template text into a reusable Compiled template.
// Syntax problems must be reported at compile time as errs.KindTemplate.
type Engine interface {
	Name() string
	Compile(name, text string) (Compiled, error)
}

// Compiled renders a single row mapping. Implementations must not mutate the
// row or themselves while rendering; failures are errs.KindRender.
type Compiled interface {
	Name() string
	Render(row map[string]string) (string, error)
}
