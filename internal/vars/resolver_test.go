package vars

import (
	"strings"
	"testing"
)

func TestResolvePrefersEarlierProvider(t *testing.T) {
	resolver := NewResolver(
		NewMapProvider("profile", map[string]string{"host": "staging.local"}),
		NewMapProvider("defaults", map[string]string{"host": "prod.local"}),
	)

	value, ok := resolver.Resolve("host")
	if !ok || value != "staging.local" {
		t.Fatalf("expected staging.local, got %q (ok=%v)", value, ok)
	}
}

func TestResolveQualifiedByLabel(t *testing.T) {
	resolver := NewResolver(
		NewMapProvider("staging", map[string]string{"api_key": "abc"}),
	)

	value, ok := resolver.Resolve("staging.api_key")
	if !ok || value != "abc" {
		t.Fatalf("expected abc, got %q (ok=%v)", value, ok)
	}
}

func TestExpandTemplates(t *testing.T) {
	resolver := NewResolver(NewMapProvider("profile", map[string]string{
		"host": "example.test",
		"id":   "42",
	}))

	out, err := resolver.ExpandTemplates("https://{{host}}/items/{{id}}")
	if err != nil {
		t.Fatalf("expand: %v", err)
	}
	if out != "https://example.test/items/42" {
		t.Fatalf("unexpected expansion: %q", out)
	}
}

func TestExpandTemplatesUndefined(t *testing.T) {
	resolver := NewResolver()

	out, err := resolver.ExpandTemplates("https://{{host}}/")
	if err == nil {
		t.Fatalf("expected error for undefined variable")
	}
	if !strings.Contains(out, "{{host}}") {
		t.Fatalf("expected placeholder kept in output, got %q", out)
	}
}

func TestExpandTemplatesDynamicUUID(t *testing.T) {
	resolver := NewResolver()

	out, err := resolver.ExpandTemplates("{{$uuid}}")
	if err != nil {
		t.Fatalf("expand: %v", err)
	}
	if len(out) != 36 || strings.Count(out, "-") != 4 {
		t.Fatalf("expected uuid text form, got %q", out)
	}
}
