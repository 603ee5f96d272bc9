package exchange

import (
	"bytes"
	"encoding/json"
	"net/http"
	"reflect"
	"testing"

	"github.com/mk-ldn/kettle/internal/contenttype"
)

func TestRequestRecordRoundTrip(t *testing.T) {
	req := mustRequest(t, http.MethodPost, "http://localhost/url?q=1",
		bytes.NewReader([]byte(`{"data":"value"}`)))
	req.Header.Set("Accept", "application/json")
	// Header values are persisted as raw bytes, so non-UTF8 must survive.
	req.Header.Set("X-Binary", string([]byte{0xc3, 0x28}))

	record := NewRequestRecord(NewSeed("fish", BuildOptions{}), "prod", req, 1<<20)

	data, err := json.Marshal(record)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var restored RequestRecord
	if err := json.Unmarshal(data, &restored); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if restored.ID != record.ID ||
		restored.ProfileID != record.ProfileID ||
		restored.RecipeID != record.RecipeID ||
		restored.Method != record.Method {
		t.Fatalf("metadata mismatch: %+v vs %+v", restored, record)
	}
	if restored.URL.String() != record.URL.String() {
		t.Fatalf("url mismatch: %s vs %s", restored.URL, record.URL)
	}
	if !reflect.DeepEqual(restored.Headers, record.Headers) {
		t.Fatalf("headers mismatch: %v vs %v", restored.Headers, record.Headers)
	}
	if !bytes.Equal(restored.Body, record.Body) {
		t.Fatalf("body mismatch")
	}
}

func TestResponseRecordRoundTrip(t *testing.T) {
	headers := http.Header{}
	headers.Set("Content-Type", "application/json")
	record := NewResponseRecord(201, headers, []byte(`{"a":1}`))

	// Attach a parsed body; it is a runtime-only cache and must be
	// absent after deserialization.
	content, err := contenttype.Parse(contenttype.JSON, record.Body.Bytes())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	record.SetParsedBody(content)

	data, err := json.Marshal(record)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var restored ResponseRecord
	if err := json.Unmarshal(data, &restored); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if restored.Status != record.Status {
		t.Fatalf("status mismatch: %d vs %d", restored.Status, record.Status)
	}
	if !reflect.DeepEqual(restored.Headers, record.Headers) {
		t.Fatalf("headers mismatch: %v vs %v", restored.Headers, record.Headers)
	}
	if !bytes.Equal(restored.Body.Bytes(), record.Body.Bytes()) {
		t.Fatalf("body mismatch")
	}
	if restored.Body.Parsed() != nil {
		t.Fatalf("parsed body should not survive serialization")
	}
}

func TestRequestRecordNoBodyOmitted(t *testing.T) {
	req := mustRequest(t, http.MethodGet, "http://localhost/url", nil)
	record := NewRequestRecord(NewSeed("r", BuildOptions{}), "", req, 1<<20)

	data, err := json.Marshal(record)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if bytes.Contains(data, []byte(`"body"`)) {
		t.Fatalf("absent body should be omitted from persisted form: %s", data)
	}
}
