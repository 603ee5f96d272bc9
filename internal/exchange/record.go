package exchange

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/mk-ldn/kettle/internal/contenttype"
	"github.com/mk-ldn/kettle/internal/errdef"
	"github.com/mk-ldn/kettle/internal/recipe"
)

// RequestRecord is an immutable snapshot of a request that was actually
// sent. Unlike *http.Request it survives past the send, so it can back
// the response view and history after the transport has consumed the
// live request. Records are shared by pointer; nothing mutates them
// after construction.
type RequestRecord struct {
	ID RequestID
	// ProfileID is the profile the request was rendered under, empty
	// when none was active. Kept for historical context.
	ProfileID recipe.ProfileID
	RecipeID  recipe.RecipeID

	Method  string
	URL     *url.URL
	Headers http.Header
	// Body holds the request body bytes, or nil when the body was a
	// stream or exceeded the capture ceiling. History fidelity is
	// traded away rather than duplicating large payloads.
	Body []byte
}

// NewRequestRecord snapshots an already-built transport request. The
// record always copies out of req rather than re-running construction
// logic, so what is displayed and persisted is exactly what was sent.
func NewRequestRecord(
	seed RequestSeed,
	profileID recipe.ProfileID,
	req *http.Request,
	maxBodyBytes int64,
) *RequestRecord {
	return &RequestRecord{
		ID:        seed.ID,
		ProfileID: profileID,
		RecipeID:  seed.RecipeID,
		Method:    req.Method,
		URL:       cloneURL(req.URL),
		Headers:   req.Header.Clone(),
		Body:      captureBody(req, maxBodyBytes),
	}
}

// Bodies are only captured when the request holds in-memory bytes
// (GetBody is set by http.NewRequest for readers it can replay) and the
// declared length fits under the ceiling. Streaming bodies and oversized
// bodies are dropped from the record.
func captureBody(req *http.Request, maxBodyBytes int64) []byte {
	if req.GetBody == nil || req.ContentLength < 0 || req.ContentLength > maxBodyBytes {
		return nil
	}
	if req.ContentLength == 0 {
		return nil
	}
	rc, err := req.GetBody()
	if err != nil {
		return nil
	}
	defer rc.Close()
	body, err := io.ReadAll(rc)
	if err != nil {
		return nil
	}
	return body
}

func cloneURL(u *url.URL) *url.URL {
	if u == nil {
		return nil
	}
	clone := *u
	if u.User != nil {
		user := *u.User
		clone.User = &user
	}
	return &clone
}

// BodyText decodes the captured body as UTF-8. Returns ok=false when no
// body was captured and an error when the bytes are not valid text.
func (r *RequestRecord) BodyText() (string, bool, error) {
	if r.Body == nil {
		return "", false, nil
	}
	if !utf8.Valid(r.Body) {
		return "", false, errdef.New(errdef.CodeDecode, "request body is not valid utf-8")
	}
	return string(r.Body), true, nil
}

// ResponseRecord is an immutable snapshot of a received response, fully
// materialized so the view can read status, headers and body without
// touching the transport's single-use response type.
type ResponseRecord struct {
	Status  int
	Headers http.Header
	Body    *ResponseBody
}

func NewResponseRecord(status int, headers http.Header, body []byte) *ResponseRecord {
	return &ResponseRecord{
		Status:  status,
		Headers: headers.Clone(),
		Body:    NewResponseBody(body),
	}
}

// SetParsedBody attaches the result of an external parse. The slot
// fills exactly once; a second attachment is ignored and reported as
// false, since there is only ever one parser task per response.
func (r *ResponseRecord) SetParsedBody(content contenttype.Content) bool {
	return r.Body.setParsed(content)
}

// ContentType resolves the body's content type: a parsed body reports
// its own type, otherwise the Content-Type header decides.
func (r *ResponseRecord) ContentType() (contenttype.ContentType, bool) {
	if parsed := r.Body.Parsed(); parsed != nil {
		return parsed.ContentType(), true
	}
	return contenttype.FromHeaders(r.Headers)
}

// ResponseBody holds raw body bytes plus an optional parsed form
// attached after the fact. Parsing needs the Content-Type header, which
// lives on the parent record, so construction and attachment are two
// steps. The parsed slot is interior-synchronized: it can be filled from
// a background worker while readers hold shared references.
type ResponseBody struct {
	data []byte

	mu     sync.Mutex
	parsed contenttype.Content
}

func NewResponseBody(data []byte) *ResponseBody {
	return &ResponseBody{data: data}
}

func (b *ResponseBody) Bytes() []byte {
	return b.data
}

func (b *ResponseBody) Size() int {
	return len(b.data)
}

// Text decodes the body as UTF-8, failing rather than substituting
// mangled output.
func (b *ResponseBody) Text() (string, error) {
	if !utf8.Valid(b.data) {
		return "", errdef.New(errdef.CodeDecode, "response body is not valid utf-8")
	}
	return string(b.data), nil
}

// Parsed returns the attached parsed form, or nil when parsing has not
// happened or failed.
func (b *ResponseBody) Parsed() contenttype.Content {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.parsed
}

func (b *ResponseBody) setParsed(content contenttype.Content) bool {
	if content == nil {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.parsed != nil {
		return false
	}
	b.parsed = content
	return true
}

// String never prints body bytes; large payloads would flood logs and
// test diffs.
func (b *ResponseBody) String() string {
	return fmt.Sprintf("<%d bytes>", len(b.data))
}

// Exchange is one completed request+response pairing with timing.
type Exchange struct {
	ID       RequestID
	Request  *RequestRecord
	Response *ResponseRecord
	Start    time.Time
	End      time.Time
}

func NewExchange(request *RequestRecord, response *ResponseRecord, start, end time.Time) *Exchange {
	return &Exchange{
		ID:       request.ID,
		Request:  request,
		Response: response,
		Start:    start,
		End:      end,
	}
}

func (e *Exchange) Duration() time.Duration {
	return e.End.Sub(e.Start)
}

func (e *Exchange) Summary() ExchangeSummary {
	return ExchangeSummary{
		ID:     e.ID,
		Start:  e.Start,
		End:    e.End,
		Status: e.Response.Status,
	}
}

// ExchangeSummary is the cheap projection for list rendering: no
// headers, no bodies.
type ExchangeSummary struct {
	ID     RequestID
	Start  time.Time
	End    time.Time
	Status int
}

func (s ExchangeSummary) Duration() time.Duration {
	return s.End.Sub(s.Start)
}
