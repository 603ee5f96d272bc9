package exchange

import "github.com/mk-ldn/kettle/internal/recipe"

// FieldOverride is a single user edit to one recipe field: either drop
// the field or replace its template with another value.
type FieldOverride struct {
	omit  bool
	value recipe.Template
}

func OmitField() FieldOverride {
	return FieldOverride{omit: true}
}

func OverrideField(value recipe.Template) FieldOverride {
	return FieldOverride{value: value}
}

// FieldOverrides collects edits to one section of a recipe (headers,
// query params or form fields), keyed by positional index. Keys can
// repeat within a section, so the index is the only stable identity.
type FieldOverrides map[int]FieldOverride

// Resolve returns the template to use for the field at index. With no
// entry the recipe's default passes through; an override replaces it;
// ok is false when the field should be dropped from the request.
func (f FieldOverrides) Resolve(index int, def recipe.Template) (recipe.Template, bool) {
	override, found := f[index]
	if !found {
		return def, true
	}
	if override.omit {
		return "", false
	}
	return override.value, true
}

// BuildOptions describes temporary user modifications to a recipe,
// applied at build time only. Keeping them separate means a build never
// clones or mutates the shared recipe definition.
type BuildOptions struct {
	// Authentication can be replaced wholesale but never removed.
	Authentication *recipe.Authentication
	Headers        FieldOverrides
	Query          FieldOverrides
	Form           FieldOverrides
	// Body replaces the whole recipe body. Not valid for form bodies;
	// form fields are overridden individually through Form.
	Body *recipe.Body
}

// RequestSeed is the unit of work handed to a build task: identifier,
// recipe reference and the user's overrides. All data is owned so the
// seed can cross a goroutine boundary.
type RequestSeed struct {
	ID       RequestID
	RecipeID recipe.RecipeID
	Options  BuildOptions
}

func NewSeed(recipeID recipe.RecipeID, options BuildOptions) RequestSeed {
	return RequestSeed{
		ID:       NewRequestID(),
		RecipeID: recipeID,
		Options:  options,
	}
}
