package exchange

import (
	"fmt"
	"time"

	"github.com/mk-ldn/kettle/internal/recipe"
)

// BuildError reports a failure during override resolution or template
// rendering, before any network activity. No request object exists yet,
// so provenance fields are carried directly.
type BuildError struct {
	Err error

	ID        RequestID
	ProfileID recipe.ProfileID
	RecipeID  recipe.RecipeID
	Start     time.Time
	End       time.Time
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("build request %s for recipe %s: %v", e.ID, e.RecipeID, e.Err)
}

func (e *BuildError) Unwrap() error {
	return e.Err
}

// RequestError reports a transport failure for a request that was fully
// built and sent. It shares the record of what was attempted so the
// display layer can still show it.
type RequestError struct {
	Err error

	Request *RequestRecord
	Start   time.Time
	End     time.Time
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("request %s for recipe %s: %v",
		e.Request.ID, e.Request.RecipeID, e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}
