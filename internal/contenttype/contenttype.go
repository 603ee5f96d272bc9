package contenttype

import (
	"bytes"
	"encoding/json"
	"mime"
	"net/http"
	"strings"

	"github.com/mk-ldn/kettle/internal/errdef"
)

// ContentType identifies a body format the core knows how to parse.
// Anything else is handled as raw bytes.
type ContentType string

const JSON ContentType = "application/json"

// Content is the parsed representation of a response body, attached to
// the body after the fact. Implementations self-report their content
// type so derived views can prefer it over the raw header.
type Content interface {
	ContentType() ContentType
	// Pretty renders the parsed value for display. Computing this can
	// be expensive for large bodies; callers cache the result.
	Pretty() string
}

// FromHeader maps a Content-Type header value to a known ContentType.
// Suffix types such as application/vnd.api+json count as JSON.
func FromHeader(value string) (ContentType, bool) {
	mediaType, _, err := mime.ParseMediaType(value)
	if err != nil {
		return "", false
	}
	if mediaType == string(JSON) || strings.HasSuffix(mediaType, "+json") {
		return JSON, true
	}
	return "", false
}

func FromHeaders(headers http.Header) (ContentType, bool) {
	value := headers.Get("Content-Type")
	if value == "" {
		return "", false
	}
	return FromHeader(value)
}

// Parse builds the parsed form of data for a known content type.
func Parse(ct ContentType, data []byte) (Content, error) {
	switch ct {
	case JSON:
		var value interface{}
		decoder := json.NewDecoder(bytes.NewReader(data))
		decoder.UseNumber()
		if err := decoder.Decode(&value); err != nil {
			return nil, errdef.Wrap(errdef.CodeParse, err, "parse json body")
		}
		return jsonContent{value: value}, nil
	default:
		return nil, errdef.New(errdef.CodeParse, "no parser for content type %q", ct)
	}
}

type jsonContent struct {
	value interface{}
}

func (jsonContent) ContentType() ContentType {
	return JSON
}

func (c jsonContent) Pretty() string {
	pretty, err := json.MarshalIndent(c.value, "", "  ")
	if err != nil {
		return ""
	}
	return string(pretty)
}
