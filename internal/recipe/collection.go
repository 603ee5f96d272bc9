package recipe

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mk-ldn/kettle/internal/errdef"
)

// YAML document shapes. Recipes and profiles are keyed by ID in the
// file; field lists are mappings whose order must survive decoding, so
// they go through orderedFields instead of a plain map.
type collectionDoc struct {
	Profiles map[ProfileID]profileDoc `yaml:"profiles"`
	Recipes  yaml.Node                `yaml:"recipes"`
}

type profileDoc struct {
	Name string            `yaml:"name"`
	Data map[string]string `yaml:"data"`
}

type recipeDoc struct {
	Name    string        `yaml:"name"`
	Method  string        `yaml:"method"`
	URL     Template      `yaml:"url"`
	Headers orderedFields `yaml:"headers"`
	Query   orderedFields `yaml:"query"`
	Auth    *authDoc      `yaml:"authentication"`
	Body    *bodyDoc      `yaml:"body"`
}

type authDoc struct {
	raw map[string]Template
}

func (a *authDoc) UnmarshalYAML(node *yaml.Node) error {
	raw := map[string]Template{}
	if err := node.Decode(&raw); err != nil {
		return err
	}
	a.raw = raw
	return nil
}

type bodyDoc struct {
	Text Template      `yaml:"text"`
	Mime string        `yaml:"mime"`
	Form orderedFields `yaml:"form"`
}

type orderedFields []Field

func (f *orderedFields) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("expected mapping at line %d", node.Line)
	}
	out := make(orderedFields, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		var values []Template
		value := node.Content[i+1]
		// A sequence value repeats the key, e.g. multiple query params
		// with the same name.
		if value.Kind == yaml.SequenceNode {
			for _, item := range value.Content {
				values = append(values, Template(item.Value))
			}
		} else {
			values = []Template{Template(value.Value)}
		}
		for _, v := range values {
			out = append(out, Field{Key: key, Value: v})
		}
	}
	*f = out
	return nil
}

// Load reads a collection file from disk.
func Load(path string) (*Collection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errdef.Wrap(errdef.CodeFilesystem, err, "read collection")
	}
	collection, err := Parse(data)
	if err != nil {
		return nil, errdef.Wrap(errdef.CodeParse, err, "parse collection %s", path)
	}
	return collection, nil
}

func Parse(data []byte) (*Collection, error) {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	var doc collectionDoc
	if err := decoder.Decode(&doc); err != nil {
		return nil, err
	}

	collection := &Collection{}
	for id, p := range doc.Profiles {
		collection.Profiles = append(collection.Profiles, Profile{
			ID:   id,
			Name: p.Name,
			Data: p.Data,
		})
	}

	// Recipe file order is display order, so walk the mapping node
	// instead of decoding into a map.
	if doc.Recipes.Kind == yaml.MappingNode {
		for i := 0; i+1 < len(doc.Recipes.Content); i += 2 {
			id := RecipeID(doc.Recipes.Content[i].Value)
			var rd recipeDoc
			if err := doc.Recipes.Content[i+1].Decode(&rd); err != nil {
				return nil, fmt.Errorf("recipe %s: %w", id, err)
			}
			built, err := buildRecipe(id, rd)
			if err != nil {
				return nil, err
			}
			collection.Recipes = append(collection.Recipes, built)
		}
	}
	return collection, nil
}

func buildRecipe(id RecipeID, doc recipeDoc) (*Recipe, error) {
	method := strings.ToUpper(strings.TrimSpace(doc.Method))
	if method == "" {
		method = "GET"
	}
	if strings.TrimSpace(string(doc.URL)) == "" {
		return nil, fmt.Errorf("recipe %s: url is required", id)
	}

	r := &Recipe{
		ID:      id,
		Name:    doc.Name,
		Method:  method,
		URL:     doc.URL,
		Headers: doc.Headers,
		Query:   doc.Query,
	}

	if doc.Auth != nil {
		auth, err := buildAuth(id, doc.Auth.raw)
		if err != nil {
			return nil, err
		}
		r.Auth = auth
	}

	if doc.Body != nil {
		r.Body = &Body{
			Text:     doc.Body.Text,
			MimeType: doc.Body.Mime,
			Form:     doc.Body.Form,
		}
	}
	return r, nil
}

func buildAuth(id RecipeID, raw map[string]Template) (*Authentication, error) {
	kind := strings.ToLower(strings.TrimSpace(string(raw["type"])))
	if kind == "" {
		return nil, fmt.Errorf("recipe %s: authentication requires a type", id)
	}
	params := make(map[string]Template, len(raw))
	for k, v := range raw {
		if k == "type" {
			continue
		}
		params[k] = v
	}
	return &Authentication{Type: kind, Params: params}, nil
}
