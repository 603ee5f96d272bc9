package contenttype

import (
	"net/http"
	"testing"
)

func TestFromHeader(t *testing.T) {
	cases := []struct {
		value string
		want  ContentType
		ok    bool
	}{
		{"application/json", JSON, true},
		{"application/json; charset=utf-8", JSON, true},
		{"application/vnd.api+json", JSON, true},
		{"text/html", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := FromHeader(tc.value)
		if got != tc.want || ok != tc.ok {
			t.Fatalf("FromHeader(%q) = %q, %v; want %q, %v", tc.value, got, ok, tc.want, tc.ok)
		}
	}
}

func TestFromHeadersMissing(t *testing.T) {
	if _, ok := FromHeaders(http.Header{}); ok {
		t.Fatalf("expected no content type for empty headers")
	}
}

func TestParseJSONPretty(t *testing.T) {
	content, err := Parse(JSON, []byte(`{"b":1,"a":[true,null]}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if content.ContentType() != JSON {
		t.Fatalf("expected JSON content type, got %q", content.ContentType())
	}
	pretty := content.Pretty()
	if pretty == "" || pretty == `{"b":1,"a":[true,null]}` {
		t.Fatalf("expected indented output, got %q", pretty)
	}
}

func TestParseJSONInvalid(t *testing.T) {
	if _, err := Parse(JSON, []byte("{not json")); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestParseUnknownType(t *testing.T) {
	if _, err := Parse("text/html", []byte("<html>")); err == nil {
		t.Fatalf("expected error for unknown content type")
	}
}
