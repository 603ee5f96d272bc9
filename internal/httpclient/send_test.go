package httpclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mk-ldn/kettle/internal/exchange"
	"github.com/mk-ldn/kettle/internal/recipe"
)

func buildTicket(t *testing.T, target string) *Ticket {
	t.Helper()
	rcp := &recipe.Recipe{
		ID:     "ping",
		Method: "GET",
		URL:    recipe.Template(target),
	}
	ticket, err := NewClient().BuildRequest(
		context.Background(), exchange.NewSeed(rcp.ID, exchange.BuildOptions{}),
		rcp, "", nil, Options{MaxBodyBytes: 1 << 20})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	return ticket
}

func TestSendProducesExchange(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	ticket := buildTicket(t, server.URL)
	ex, err := ticket.Send(context.Background())
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	if ex.ID != ticket.Record().ID {
		t.Fatalf("exchange id mismatch")
	}
	if ex.Response.Status != http.StatusCreated {
		t.Fatalf("status %d", ex.Response.Status)
	}
	if string(ex.Response.Body.Bytes()) != `{"ok":true}` {
		t.Fatalf("body %q", ex.Response.Body.Bytes())
	}
	if ex.Duration() < 0 {
		t.Fatalf("negative duration %v", ex.Duration())
	}
	if ex.End.Before(ex.Start) {
		t.Fatalf("end precedes start")
	}
}

func TestSendIsSingleUse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	ticket := buildTicket(t, server.URL)
	if _, err := ticket.Send(context.Background()); err != nil {
		t.Fatalf("first send: %v", err)
	}
	if _, err := ticket.Send(context.Background()); err == nil {
		t.Fatalf("second send should fail")
	}
}

func TestSendTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // connection refused from here on

	ticket := buildTicket(t, server.URL)
	_, err := ticket.Send(context.Background())

	var reqErr *exchange.RequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("expected RequestError, got %v", err)
	}
	if reqErr.Request == nil || reqErr.Request.ID != ticket.Record().ID {
		t.Fatalf("request error should share the record: %+v", reqErr)
	}
	if reqErr.End.Before(reqErr.Start) {
		t.Fatalf("end precedes start")
	}
}

func TestSendRedirectNotFollowed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/elsewhere", http.StatusFound)
	}))
	defer server.Close()

	ticket := buildTicket(t, server.URL)
	ex, err := ticket.Send(context.Background())
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if ex.Response.Status != http.StatusFound {
		t.Fatalf("expected 302 without following, got %d", ex.Response.Status)
	}
}
