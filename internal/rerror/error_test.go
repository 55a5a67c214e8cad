package rerror

import (
	"strings"
	"testing"
)

func TestWithWhereNearSourceDoNotOverwrite(t *testing.T) {
	e := New("zero-divide", "math", "attempt to divide by zero")
	e.WithNear("1 / 0")
	e.WithNear("should not replace")
	if e.Near != "1 / 0" {
		t.Fatalf("expected first WithNear to stick, got %q", e.Near)
	}

	e.WithWhere([]string{"divide"})
	e.WithWhere([]string{"should", "not", "replace"})
	if len(e.Where) != 1 || e.Where[0] != "divide" {
		t.Fatalf("expected first WithWhere to stick, got %v", e.Where)
	}

	e.WithSource("a.glyph", 10)
	e.WithSource("b.glyph", 99)
	if e.File != "a.glyph" || e.Line != 10 {
		t.Fatalf("expected first WithSource to stick, got %s:%d", e.File, e.Line)
	}
}

func TestErrorStringIncludesType(t *testing.T) {
	e := New("zero-divide", "math", "attempt to divide by zero")
	e.WithNear("1 / 0").WithWhere([]string{"divide"})
	s := e.Error()
	if !strings.Contains(s, "math Error") || !strings.Contains(s, "attempt to divide by zero") {
		t.Fatalf("expected rendered error to include type and message, got %q", s)
	}
	if !strings.Contains(s, "1 / 0") || !strings.Contains(s, "divide") {
		t.Fatalf("expected rendered error to include near/where, got %q", s)
	}
}

func TestFromHostErrorWrapsPlainError(t *testing.T) {
	err := FromHostError(strErr("boom"))
	if err.Type != "user" || err.Message != "boom" {
		t.Fatalf("expected a generic user error, got %+v", err)
	}
}

func TestFromHostErrorPassesThroughExisting(t *testing.T) {
	orig := New("zero-divide", "math", "attempt to divide by zero")
	if FromHostError(orig) != orig {
		t.Fatalf("expected FromHostError to pass an already-structured error through unchanged")
	}
}

func TestFromHostErrorNilIsNil(t *testing.T) {
	if FromHostError(nil) != nil {
		t.Fatalf("expected FromHostError(nil) to return nil")
	}
}

func TestUnknownFallback(t *testing.T) {
	u := Unknown()
	if u.ID != "unknown-error" || u.Type != "internal" {
		t.Fatalf("expected the unknown-error fallback, got %+v", u)
	}
}

func TestCatalogBuildSubstitutesPlaceholders(t *testing.T) {
	c := NewCatalog()
	e := c.Build("script", "expect-arg", "add", "text!", "value")
	want := "add does not allow text! for its value argument"
	if e.Message != want {
		t.Fatalf("expected %q, got %q", want, e.Message)
	}
}

func TestCatalogBuildUnknownCategoryFallsBack(t *testing.T) {
	c := NewCatalog()
	e := c.Build("nonsense", "nope")
	if e.ID != "unknown-error" {
		t.Fatalf("expected unknown-error fallback for an unregistered template, got %+v", e)
	}
}

func TestCatalogFindRoundTrips(t *testing.T) {
	c := NewCatalog()
	tmpl, ok := c.Find("math", "zero-divide")
	if !ok || tmpl.Arity != 0 {
		t.Fatalf("expected to find the zero-divide template, got %+v ok=%v", tmpl, ok)
	}
}

type strErr string

func (s strErr) Error() string { return string(s) }
