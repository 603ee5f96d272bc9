package exchange

import (
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/mk-ldn/kettle/internal/errdef"
	"github.com/mk-ldn/kettle/internal/recipe"
)

// Persisted forms. Header values are encoded as raw bytes because they
// are not guaranteed UTF-8; the parsed-body cache is runtime-only and
// never serialized.

type headerEntry struct {
	Name  string `json:"name"`
	Value []byte `json:"value"`
}

type requestRecordJSON struct {
	ID        RequestID        `json:"id"`
	ProfileID recipe.ProfileID `json:"profile_id,omitempty"`
	RecipeID  recipe.RecipeID  `json:"recipe_id"`
	Method    string           `json:"method"`
	URL       string           `json:"url"`
	Headers   []headerEntry    `json:"headers"`
	Body      []byte           `json:"body,omitempty"`
}

func (r *RequestRecord) MarshalJSON() ([]byte, error) {
	doc := requestRecordJSON{
		ID:        r.ID,
		ProfileID: r.ProfileID,
		RecipeID:  r.RecipeID,
		Method:    r.Method,
		Headers:   encodeHeaders(r.Headers),
		Body:      r.Body,
	}
	if r.URL != nil {
		doc.URL = r.URL.String()
	}
	return json.Marshal(doc)
}

func (r *RequestRecord) UnmarshalJSON(data []byte) error {
	var doc requestRecordJSON
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	parsed, err := url.Parse(doc.URL)
	if err != nil {
		return errdef.Wrap(errdef.CodeHistory, err, "parse recorded url")
	}
	*r = RequestRecord{
		ID:        doc.ID,
		ProfileID: doc.ProfileID,
		RecipeID:  doc.RecipeID,
		Method:    doc.Method,
		URL:       parsed,
		Headers:   decodeHeaders(doc.Headers),
		Body:      doc.Body,
	}
	return nil
}

type responseRecordJSON struct {
	Status  int           `json:"status"`
	Headers []headerEntry `json:"headers"`
	Body    []byte        `json:"body"`
}

func (r *ResponseRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(responseRecordJSON{
		Status:  r.Status,
		Headers: encodeHeaders(r.Headers),
		Body:    r.Body.Bytes(),
	})
}

func (r *ResponseRecord) UnmarshalJSON(data []byte) error {
	var doc responseRecordJSON
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	*r = ResponseRecord{
		Status:  doc.Status,
		Headers: decodeHeaders(doc.Headers),
		Body:    NewResponseBody(doc.Body),
	}
	return nil
}

func encodeHeaders(headers http.Header) []headerEntry {
	entries := make([]headerEntry, 0, len(headers))
	for _, name := range sortedHeaderNames(headers) {
		for _, value := range headers[name] {
			entries = append(entries, headerEntry{Name: name, Value: []byte(value)})
		}
	}
	return entries
}

func decodeHeaders(entries []headerEntry) http.Header {
	headers := make(http.Header, len(entries))
	for _, entry := range entries {
		headers[entry.Name] = append(headers[entry.Name], string(entry.Value))
	}
	return headers
}
