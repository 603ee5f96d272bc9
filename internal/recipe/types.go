package recipe

import "strings"

type RecipeID string

type ProfileID string

// Template is an unrendered value that may contain {{name}}
// placeholders. Rendering is the vars resolver's job; nothing in this
// package interprets placeholder syntax.
type Template string

func (t Template) String() string {
	return string(t)
}

// Field is one entry in an ordered header/query/form list. Keys are not
// unique (repeated query params are legal), so the positional index
// within the list is the field's only stable identity.
type Field struct {
	Key   string
	Value Template
}

type Authentication struct {
	Type   string
	Params map[string]Template
}

type Body struct {
	Text     Template
	MimeType string
	// Form holds ordered urlencoded form fields. A non-empty form makes
	// the other body fields irrelevant.
	Form []Field
}

func (b *Body) IsForm() bool {
	return b != nil && len(b.Form) > 0
}

// Recipe is the user-authored request template. Recipes are loaded
// once and shared read-only; transient user edits live in the build
// options layer, never here.
type Recipe struct {
	ID      RecipeID
	Name    string
	Method  string
	URL     Template
	Headers []Field
	Query   []Field
	Auth    *Authentication
	Body    *Body
}

// DisplayName falls back to the recipe ID when no name was authored.
func (r *Recipe) DisplayName() string {
	if r == nil {
		return ""
	}
	if strings.TrimSpace(r.Name) != "" {
		return r.Name
	}
	return string(r.ID)
}

type Profile struct {
	ID   ProfileID
	Name string
	Data map[string]string
}

type Collection struct {
	Profiles []Profile
	Recipes  []*Recipe
}

func (c *Collection) Recipe(id RecipeID) *Recipe {
	if c == nil {
		return nil
	}
	for _, r := range c.Recipes {
		if r.ID == id {
			return r
		}
	}
	return nil
}

func (c *Collection) Profile(id ProfileID) (Profile, bool) {
	if c == nil {
		return Profile{}, false
	}
	for _, p := range c.Profiles {
		if p.ID == id {
			return p, true
		}
	}
	return Profile{}, false
}
