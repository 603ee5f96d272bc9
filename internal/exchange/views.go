package exchange

import (
	"fmt"
	"mime"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/mk-ldn/kettle/internal/errdef"
)

// CurlCommand renders the record as an equivalent curl invocation.
// Shell commands are text, so this fails outright if any header value
// or the body is not valid UTF-8.
func (r *RequestRecord) CurlCommand() (string, error) {
	var buf strings.Builder
	fmt.Fprintf(&buf, "curl -X%s --url '%s'", r.Method, r.URL)

	for _, name := range sortedHeaderNames(r.Headers) {
		for _, value := range r.Headers[name] {
			if !utf8.ValidString(value) {
				return "", errdef.New(errdef.CodeDecode, "header %s is not valid utf-8", name)
			}
			fmt.Fprintf(&buf, " --header '%s: %s'", strings.ToLower(name), value)
		}
	}

	body, ok, err := r.BodyText()
	if err != nil {
		return "", err
	}
	if ok {
		fmt.Fprintf(&buf, " --data '%s'", body)
	}
	return buf.String(), nil
}

// FileName suggests a name for saving the response body. The
// Content-Disposition filename parameter wins when present and
// parseable, even for unrecognized content types; otherwise the MIME
// subtype synthesizes a data.<subtype> fallback.
func (r *ResponseRecord) FileName() (string, bool) {
	if name, ok := dispositionFileName(r.Headers.Get("Content-Disposition")); ok {
		return name, true
	}

	contentType := r.Headers.Get("Content-Type")
	if contentType == "" {
		return "", false
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", false
	}
	_, subtype, found := strings.Cut(mediaType, "/")
	if !found || subtype == "" {
		return "", false
	}
	return "data." + subtype, true
}

// Semicolon-delimited parameter scan, tolerant of casing and quoting.
func dispositionFileName(header string) (string, bool) {
	if header == "" {
		return "", false
	}
	for _, part := range strings.Split(header, ";") {
		key, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(key), "filename") {
			name := strings.Trim(strings.TrimSpace(value), `"`)
			if name != "" {
				return name, true
			}
		}
	}
	return "", false
}

func sortedHeaderNames(headers map[string][]string) []string {
	names := make([]string, 0, len(headers))
	for name := range headers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
