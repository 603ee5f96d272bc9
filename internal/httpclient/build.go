package httpclient

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mk-ldn/kettle/internal/errdef"
	"github.com/mk-ldn/kettle/internal/exchange"
	"github.com/mk-ldn/kettle/internal/recipe"
	"github.com/mk-ldn/kettle/internal/vars"
)

// BuildRequest turns a seed plus its recipe into a launchable Ticket.
// Exactly one transport request and one record snapshot come out of a
// successful build; the record is copied from the built request so the
// two can never drift. On failure the returned error is a
// *exchange.BuildError carrying provenance and timing.
func (c *Client) BuildRequest(
	ctx context.Context,
	seed exchange.RequestSeed,
	rcp *recipe.Recipe,
	profileID recipe.ProfileID,
	resolver *vars.Resolver,
	opts Options,
) (*Ticket, error) {
	start := time.Now()
	fail := func(err error) (*Ticket, error) {
		return nil, &exchange.BuildError{
			Err:       err,
			ID:        seed.ID,
			ProfileID: profileID,
			RecipeID:  seed.RecipeID,
			Start:     start,
			End:       time.Now(),
		}
	}

	if rcp == nil {
		return fail(errdef.New(errdef.CodeBuild, "recipe %s not found", seed.RecipeID))
	}
	if seed.Options.Body != nil && rcp.Body.IsForm() {
		return fail(errdef.New(errdef.CodeBuild,
			"form bodies are overridden per field, not wholesale"))
	}

	target, err := buildURL(rcp, seed.Options, resolver)
	if err != nil {
		return fail(err)
	}

	bodyReader, bodyContentType, err := buildBody(rcp, seed.Options, resolver)
	if err != nil {
		return fail(err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, rcp.Method, target, bodyReader)
	if err != nil {
		return fail(errdef.Wrap(errdef.CodeBuild, err, "build request"))
	}

	if err := applyHeaders(httpReq, rcp, seed.Options, resolver); err != nil {
		return fail(err)
	}
	if bodyContentType != "" && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", bodyContentType)
	}

	// Auth replacement is wholesale: the override record wins outright,
	// and there is no way to strip the recipe's auth entirely.
	auth := rcp.Auth
	if seed.Options.Authentication != nil {
		auth = seed.Options.Authentication
	}
	if err := applyAuthentication(httpReq, auth, resolver); err != nil {
		return fail(err)
	}

	httpClient, err := c.httpFactory(opts)
	if err != nil {
		return fail(err)
	}

	record := exchange.NewRequestRecord(seed, profileID, httpReq, opts.MaxBodyBytes)
	return &Ticket{
		record:    record,
		client:    httpClient,
		request:   httpReq,
		telemetry: c.telemetry,
		recipe:    rcp,
	}, nil
}

func expand(resolver *vars.Resolver, tmpl recipe.Template) (string, error) {
	if resolver == nil {
		return string(tmpl), nil
	}
	value, err := resolver.ExpandTemplates(string(tmpl))
	if err != nil {
		return "", errdef.Wrap(errdef.CodeBuild, err, "render template")
	}
	return value, nil
}

func buildURL(rcp *recipe.Recipe, options exchange.BuildOptions, resolver *vars.Resolver) (string, error) {
	raw, err := expand(resolver, rcp.URL)
	if err != nil {
		return "", err
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", errdef.New(errdef.CodeBuild, "request url is empty")
	}

	target, err := url.Parse(raw)
	if err != nil {
		return "", errdef.Wrap(errdef.CodeBuild, err, "parse url")
	}

	// Query params are appended in recipe order; url.Values would
	// re-sort them and collapse positional identity.
	var pairs []string
	for i, field := range rcp.Query {
		tmpl, keep := options.Query.Resolve(i, field.Value)
		if !keep {
			continue
		}
		value, err := expand(resolver, tmpl)
		if err != nil {
			return "", err
		}
		pairs = append(pairs, url.QueryEscape(field.Key)+"="+url.QueryEscape(value))
	}
	if len(pairs) > 0 {
		joined := strings.Join(pairs, "&")
		if target.RawQuery != "" {
			target.RawQuery += "&" + joined
		} else {
			target.RawQuery = joined
		}
	}
	return target.String(), nil
}

func buildBody(rcp *recipe.Recipe, options exchange.BuildOptions, resolver *vars.Resolver) (io.Reader, string, error) {
	body := rcp.Body
	if options.Body != nil {
		body = options.Body
	}
	switch {
	case body == nil:
		return nil, "", nil
	case body.IsForm():
		var pairs []string
		for i, field := range body.Form {
			tmpl, keep := options.Form.Resolve(i, field.Value)
			if !keep {
				continue
			}
			value, err := expand(resolver, tmpl)
			if err != nil {
				return nil, "", err
			}
			pairs = append(pairs, url.QueryEscape(field.Key)+"="+url.QueryEscape(value))
		}
		return strings.NewReader(strings.Join(pairs, "&")),
			"application/x-www-form-urlencoded", nil
	default:
		text, err := expand(resolver, body.Text)
		if err != nil {
			return nil, "", err
		}
		if text == "" {
			return nil, "", nil
		}
		return strings.NewReader(text), body.MimeType, nil
	}
}

func applyHeaders(req *http.Request, rcp *recipe.Recipe, options exchange.BuildOptions, resolver *vars.Resolver) error {
	for i, field := range rcp.Headers {
		tmpl, keep := options.Headers.Resolve(i, field.Value)
		if !keep {
			continue
		}
		value, err := expand(resolver, tmpl)
		if err != nil {
			return errdef.Wrap(errdef.CodeBuild, err, "expand header %s", field.Key)
		}
		req.Header.Add(field.Key, value)
	}
	return nil
}

func applyAuthentication(req *http.Request, auth *recipe.Authentication, resolver *vars.Resolver) error {
	if auth == nil {
		return nil
	}

	param := func(name string) (string, error) {
		return expand(resolver, auth.Params[name])
	}

	switch strings.ToLower(auth.Type) {
	case "basic":
		user, err := param("username")
		if err != nil {
			return err
		}
		pass, err := param("password")
		if err != nil {
			return err
		}
		if req.Header.Get("Authorization") == "" {
			req.SetBasicAuth(user, pass)
		}
	case "bearer":
		token, err := param("token")
		if err != nil {
			return err
		}
		if req.Header.Get("Authorization") == "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	case "header":
		name, err := param("header")
		if err != nil {
			return err
		}
		value, err := param("value")
		if err != nil {
			return err
		}
		if name != "" && req.Header.Get(name) == "" {
			req.Header.Set(name, value)
		}
	default:
		return errdef.New(errdef.CodeBuild, "unsupported auth type %q", auth.Type)
	}
	return nil
}
