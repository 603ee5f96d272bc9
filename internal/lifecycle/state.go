package lifecycle

import (
	"time"

	"github.com/mk-ldn/kettle/internal/contenttype"
	"github.com/mk-ldn/kettle/internal/exchange"
)

// RequestState is what the display layer holds for one in-progress or
// completed request. States are immutable values; a transition always
// constructs a new state rather than mutating the previous one. The
// reachable graph is fixed:
//
//	Building -> BuildFailed            (terminal)
//	Building -> Loading
//	Loading  -> Completed              (terminal)
//	Loading  -> Failed                 (terminal)
//
// Building is the mandatory initial state since override resolution and
// template rendering can themselves fail before anything is sent.
type RequestState interface {
	ID() exchange.RequestID
	// IsInitial reports whether this is still the building stage.
	IsInitial() bool
	// StartTime is when the request was launched; ok is false before
	// launch (Building, BuildFailed).
	StartTime() (time.Time, bool)
	// Elapsed is a running total while loading and fixed once terminal.
	Elapsed() (time.Duration, bool)
}

type Building struct {
	id exchange.RequestID
}

func NewBuilding(id exchange.RequestID) Building {
	return Building{id: id}
}

func (b Building) ID() exchange.RequestID { return b.id }
func (Building) IsInitial() bool { return true }
func (Building) StartTime() (time.Time, bool) { return time.Time{}, false }
func (Building) Elapsed() (time.Duration, bool) { return 0, false }

type BuildFailed struct {
	Err *exchange.BuildError
}

func NewBuildFailed(err *exchange.BuildError) BuildFailed {
	return BuildFailed{Err: err}
}

func (f BuildFailed) ID() exchange.RequestID { return f.Err.ID }
func (BuildFailed) IsInitial() bool { return false }
func (BuildFailed) StartTime() (time.Time, bool) { return time.Time{}, false }
func (BuildFailed) Elapsed() (time.Duration, bool) { return 0, false }

type Loading struct {
	id    exchange.RequestID
	start time.Time
}

// NewLoading captures the current time as the launch time. This is
// slightly behind the transport's own clock, which is accepted; the
// transport cannot report a start time before the send resolves.
func NewLoading(id exchange.RequestID) Loading {
	return Loading{id: id, start: time.Now()}
}

func (l Loading) ID() exchange.RequestID { return l.id }
func (Loading) IsInitial() bool { return false }
func (l Loading) StartTime() (time.Time, bool) { return l.start, true }

func (l Loading) Elapsed() (time.Duration, bool) {
	return time.Since(l.start), true
}

type Completed struct {
	Exchange *exchange.Exchange

	prettyBody string
	hasPretty  bool
}

// NewCompleted builds the terminal success state. The pretty body can
// be expensive for large payloads, so it is computed exactly once here
// and cached for the lifetime of the state. When no parsed body was
// attached yet, a best-effort inline parse fills the slot; failures
// just leave the raw bytes as the only view.
func NewCompleted(ex *exchange.Exchange) Completed {
	state := Completed{Exchange: ex}

	parsed := ex.Response.Body.Parsed()
	if parsed == nil {
		if ct, ok := ex.Response.ContentType(); ok {
			if content, err := contenttype.Parse(ct, ex.Response.Body.Bytes()); err == nil {
				ex.Response.SetParsedBody(content)
				parsed = ex.Response.Body.Parsed()
			}
		}
	}
	if parsed != nil {
		state.prettyBody = parsed.Pretty()
		state.hasPretty = true
	}
	return state
}

func (c Completed) ID() exchange.RequestID { return c.Exchange.ID }
func (Completed) IsInitial() bool { return false }

func (c Completed) StartTime() (time.Time, bool) {
	return c.Exchange.Start, true
}

func (c Completed) Elapsed() (time.Duration, bool) {
	return c.Exchange.Duration(), true
}

// PrettyBody returns the cached display form, if one was computable.
func (c Completed) PrettyBody() (string, bool) {
	return c.prettyBody, c.hasPretty
}

type Failed struct {
	Err *exchange.RequestError
}

func NewFailed(err *exchange.RequestError) Failed {
	return Failed{Err: err}
}

func (f Failed) ID() exchange.RequestID { return f.Err.Request.ID }
func (Failed) IsInitial() bool { return false }

func (f Failed) StartTime() (time.Time, bool) {
	return f.Err.Start, true
}

func (f Failed) Elapsed() (time.Duration, bool) {
	return f.Err.End.Sub(f.Err.Start), true
}
