package rerror

import "fmt"

// Template is one boot-loaded entry in the error catalog: given
// (category, id, args...), the runtime finds it by linear search (catalogs
// are small — tens of entries — so this isn't a hot path) and fills its
// parameter slots from varargs.
type Template struct {
	Category string
	ID       string
	Pattern  string // get-word-style placeholders, e.g. "Cannot divide by {0}"
	Arity    int
}

// Catalog is the boot-loaded error-catalog context (spec.md §4.12). It is
// a flat slice, not a context node, because the catalog is fixed at boot
// and never mutated by user code — promoting it to a managed context would
// buy nothing.
type Catalog struct {
	templates []Template
}

// NewCatalog returns the catalog with the small set of templates the core
// evaluator itself can raise. A host embedding glyph extends this with its
// own categories at boot.
func NewCatalog() *Catalog {
	c := &Catalog{}
	c.Register(Template{Category: "math", ID: "zero-divide", Pattern: "attempt to divide by zero", Arity: 0})
	c.Register(Template{Category: "script", ID: "no-value", Pattern: "{0} has no value", Arity: 1})
	c.Register(Template{Category: "script", ID: "expect-arg", Pattern: "{0} does not allow {1} for its {2} argument", Arity: 3})
	c.Register(Template{Category: "script", ID: "not-bound", Pattern: "{0} word is not bound to a context", Arity: 1})
	c.Register(Template{Category: "script", ID: "no-catch", Pattern: "no catch for throw of {0}", Arity: 1})
	c.Register(Template{Category: "script", ID: "protected-key", Pattern: "{0} is protected against modification", Arity: 1})
	c.Register(Template{Category: "syntax", ID: "enfix-no-left", Pattern: "{0} is enfixed and has no left-hand argument", Arity: 1})
	c.Register(Template{Category: "internal", ID: "stack-overflow", Pattern: "stack overflow", Arity: 0})
	c.Register(Template{Category: "internal", ID: "out-of-memory", Pattern: "not enough memory", Arity: 0})
	c.Register(Template{Category: "internal", ID: "halt", Pattern: "halted by signal", Arity: 0})
	c.Register(Template{Category: "internal", ID: "bad-dispatch", Pattern: "dispatcher returned an unhandled result", Arity: 0})
	c.Register(Template{Category: "access", ID: "db-bad-dsn", Pattern: "unrecognized database connection string: {0}", Arity: 1})
	c.Register(Template{Category: "access", ID: "db-open-failed", Pattern: "could not open database: {0}", Arity: 1})
	c.Register(Template{Category: "access", ID: "db-closed", Pattern: "database handle already closed", Arity: 0})
	c.Register(Template{Category: "access", ID: "db-query-failed", Pattern: "query failed: {0}", Arity: 1})
	c.Register(Template{Category: "access", ID: "db-exec-failed", Pattern: "statement failed: {0}", Arity: 1})
	return c
}

func (c *Catalog) Register(t Template) { c.templates = append(c.templates, t) }

// Find does the linear search spec.md §4.12 describes.
func (c *Catalog) Find(category, id string) (Template, bool) {
	for _, t := range c.templates {
		if t.Category == category && t.ID == id {
			return t, true
		}
	}
	return Template{}, false
}

// Build resolves a template by (category, id) and fills its placeholders
// from args, producing a ready Error. Unknown (category, id) pairs fall
// back to Unknown() rather than panicking — catalog lookups happen deep in
// the fail path and must never themselves fail outside of boot (see
// spec.md §4.11's "during evaluator boot ... any fail is converted to a
// panic").
func (c *Catalog) Build(category, id string, args ...any) *Error {
	t, ok := c.Find(category, id)
	if !ok {
		return Unknown()
	}
	msg := t.Pattern
	for i, a := range args {
		msg = replacePlaceholder(msg, i, fmt.Sprint(a))
	}
	return New(t.ID, t.Category, msg)
}

func replacePlaceholder(s string, i int, val string) string {
	placeholder := fmt.Sprintf("{%d}", i)
	out := make([]byte, 0, len(s))
	for {
		idx := indexOf(s, placeholder)
		if idx < 0 {
			out = append(out, s...)
			break
		}
		out = append(out, s[:idx]...)
		out = append(out, val...)
		s = s[idx+len(placeholder):]
	}
	return string(out)
}

func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}
