package httpclient

import (
	"context"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/mk-ldn/kettle/internal/errdef"
	"github.com/mk-ldn/kettle/internal/exchange"
	"github.com/mk-ldn/kettle/internal/recipe"
	"github.com/mk-ldn/kettle/internal/telemetry"
)

// Ticket pairs the one-shot transport request with the record kept for
// display and history. The transport request is unexported and consumed
// by Send, so nothing can launch it twice; the record outlives the send
// and is shared by reference.
type Ticket struct {
	record    *exchange.RequestRecord
	client    *http.Client
	request   *http.Request
	telemetry telemetry.Instrumenter
	recipe    *recipe.Recipe

	mu   sync.Mutex
	sent bool
}

func (t *Ticket) Record() *exchange.RequestRecord {
	return t.record
}

// Send performs the roundtrip and materializes the response. Any
// transport failure comes back as a *exchange.RequestError that shares
// the record of what was attempted. The ticket is single-use.
func (t *Ticket) Send(ctx context.Context) (*exchange.Exchange, error) {
	t.mu.Lock()
	if t.sent {
		t.mu.Unlock()
		return nil, errdef.New(errdef.CodeHTTP, "ticket for request %s already sent", t.record.ID)
	}
	t.sent = true
	t.mu.Unlock()

	start := time.Now()
	fail := func(err error) (*exchange.Exchange, error) {
		return nil, &exchange.RequestError{
			Err:     err,
			Request: t.record,
			Start:   start,
			End:     time.Now(),
		}
	}

	instr := t.telemetry
	if instr == nil {
		instr = telemetry.Noop()
	}
	info := telemetry.RequestStart{
		RecipeID:    t.record.RecipeID,
		ProfileID:   t.record.ProfileID,
		HTTPRequest: t.request,
	}
	if t.recipe != nil {
		info.RecipeName = t.recipe.Name
	}
	spanCtx, span := instr.Start(ctx, info)

	var (
		status  int
		sendErr error
	)
	defer func() {
		span.End(telemetry.RequestResult{Err: sendErr, StatusCode: status})
	}()

	httpResp, err := t.client.Do(t.request.WithContext(spanCtx))
	if err != nil {
		sendErr = errdef.Wrap(errdef.CodeHTTP, err, "perform request")
		return fail(sendErr)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		sendErr = errdef.Wrap(errdef.CodeHTTP, err, "read response body")
		return fail(sendErr)
	}
	end := time.Now()

	status = httpResp.StatusCode
	response := exchange.NewResponseRecord(httpResp.StatusCode, httpResp.Header, body)
	return exchange.NewExchange(t.record, response, start, end), nil
}
