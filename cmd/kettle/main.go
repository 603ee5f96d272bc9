package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/atotto/clipboard"

	"github.com/mk-ldn/kettle/internal/config"
	"github.com/mk-ldn/kettle/internal/exchange"
	"github.com/mk-ldn/kettle/internal/history"
	"github.com/mk-ldn/kettle/internal/httpclient"
	"github.com/mk-ldn/kettle/internal/lifecycle"
	"github.com/mk-ldn/kettle/internal/recipe"
	"github.com/mk-ldn/kettle/internal/telemetry"
	"github.com/mk-ldn/kettle/internal/vars"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	var (
		filePath        string
		recipeID        string
		profileID       string
		listRecipes     bool
		showVersion     bool
		timeout         time.Duration
		insecure        bool
		follow          bool
		proxyURL        string
		asCurl          bool
		copyCurl        bool
		listHistory     bool
		showExchangeID  string
		traceOTEndpoint string
		traceOTInsecure bool
		traceOTService  string
	)

	settings, _, err := config.LoadSettings()
	if err != nil {
		log.Printf("settings load error: %v", err)
		settings = config.DefaultSettings()
	}

	telemetryCfg := telemetry.ConfigFromEnv(os.Getenv)
	if telemetryCfg.Endpoint == "" {
		telemetryCfg.Endpoint = settings.Telemetry.Endpoint
		telemetryCfg.Insecure = settings.Telemetry.Insecure
	}
	if settings.Telemetry.ServiceName != "" {
		telemetryCfg.ServiceName = settings.Telemetry.ServiceName
	}
	traceOTEndpoint = telemetryCfg.Endpoint
	traceOTInsecure = telemetryCfg.Insecure
	traceOTService = telemetryCfg.ServiceName

	overrides := overrideFlags{}

	flag.StringVar(&filePath, "file", "", "Path to collection file")
	flag.StringVar(&recipeID, "recipe", "", "Recipe ID to send")
	flag.StringVar(&profileID, "profile", "", "Profile ID to render under")
	flag.BoolVar(&listRecipes, "list", false, "List recipes and profiles in the collection")
	flag.BoolVar(&showVersion, "version", false, "Show kettle version")
	flag.DurationVar(&timeout, "timeout", settings.Timeout.Std(), "Request timeout")
	flag.BoolVar(&insecure, "insecure", settings.Insecure, "Skip TLS certificate verification")
	flag.BoolVar(&follow, "follow", settings.FollowRedirects, "Follow redirects")
	flag.StringVar(&proxyURL, "proxy", settings.ProxyURL, "HTTP proxy URL")
	flag.BoolVar(&asCurl, "curl", false, "Print the request as a curl command instead of sending")
	flag.BoolVar(&copyCurl, "copy", false, "With -curl, also copy the command to the clipboard")
	flag.BoolVar(&listHistory, "history", false, "List stored exchanges (for -recipe when given)")
	flag.StringVar(&showExchangeID, "show", "", "Print a stored exchange by ID")
	flag.Func("omit-header", "Omit the header at the given index (repeatable)",
		overrides.omit(&overrides.headers))
	flag.Func("omit-query", "Omit the query parameter at the given index (repeatable)",
		overrides.omit(&overrides.query))
	flag.Func("omit-form", "Omit the form field at the given index (repeatable)",
		overrides.omit(&overrides.form))
	flag.Func("set-header", "Override a header value as index=value (repeatable)",
		overrides.set(&overrides.headers))
	flag.Func("set-query", "Override a query value as index=value (repeatable)",
		overrides.set(&overrides.query))
	flag.Func("set-form", "Override a form value as index=value (repeatable)",
		overrides.set(&overrides.form))
	flag.StringVar(
		&traceOTEndpoint,
		"trace-otel-endpoint",
		traceOTEndpoint,
		"OTLP collector endpoint for request spans",
	)
	flag.BoolVar(
		&traceOTInsecure,
		"trace-otel-insecure",
		traceOTInsecure,
		"Disable TLS for OTLP trace export",
	)
	flag.StringVar(
		&traceOTService,
		"trace-otel-service",
		traceOTService,
		"Override service.name resource attribute for exported spans",
	)
	flag.Parse()

	telemetryCfg.Endpoint = strings.TrimSpace(traceOTEndpoint)
	telemetryCfg.Insecure = traceOTInsecure
	telemetryCfg.ServiceName = strings.TrimSpace(traceOTService)
	telemetryCfg.Version = version

	if showVersion {
		fmt.Printf("kettle %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", date)
		os.Exit(0)
	}

	historyStore, err := history.Open(settings.History.Path, settings.History.MaxEntries)
	if err != nil {
		log.Fatalf("history open: %v", err)
	}
	defer historyStore.Close()

	if showExchangeID != "" {
		if err := printStoredExchange(historyStore, showExchangeID); err != nil {
			log.Fatalf("%v", err)
		}
		return
	}

	if filePath == "" && flag.NArg() > 0 {
		filePath = flag.Arg(0)
	}

	var collection *recipe.Collection
	if filePath != "" {
		collection, err = recipe.Load(filePath)
		if err != nil {
			log.Fatalf("load collection: %v", err)
		}
	}

	if listRecipes {
		if collection == nil {
			log.Fatalf("no collection file given")
		}
		printCollection(collection)
		return
	}

	if listHistory {
		if err := printHistory(historyStore, recipe.RecipeID(recipeID)); err != nil {
			log.Fatalf("%v", err)
		}
		return
	}

	if collection == nil {
		log.Fatalf("no collection file given")
	}
	if recipeID == "" {
		log.Fatalf("no recipe selected; use -recipe or -list")
	}
	rcp := collection.Recipe(recipe.RecipeID(recipeID))
	if rcp == nil {
		log.Fatalf("recipe %q not found in %s", recipeID, filePath)
	}

	resolver, err := buildResolver(collection, recipe.ProfileID(profileID))
	if err != nil {
		log.Fatalf("%v", err)
	}

	client := httpclient.NewClient()

	instrumenter, err := telemetry.New(telemetryCfg)
	if err != nil {
		if telemetryCfg.Enabled() {
			log.Printf("telemetry init error: %v", err)
		}
	} else {
		client.SetTelemetry(instrumenter)
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if shutdownErr := instrumenter.Shutdown(ctx); shutdownErr != nil {
				log.Printf("telemetry shutdown: %v", shutdownErr)
			}
		}()
	}

	httpOpts := httpclient.Options{
		Timeout:            timeout,
		FollowRedirects:    follow,
		InsecureSkipVerify: insecure,
		ProxyURL:           proxyURL,
		MaxBodyBytes:       settings.MaxBodyBytes,
	}

	seed := exchange.NewSeed(rcp.ID, exchange.BuildOptions{
		Headers: overrides.headers,
		Query:   overrides.query,
		Form:    overrides.form,
	})

	states := lifecycle.NewStore()
	slot := lifecycle.Slot(rcp.ID)
	states.Begin(slot, lifecycle.NewBuilding(seed.ID))

	ctx := context.Background()
	ticket, err := client.BuildRequest(
		ctx, seed, rcp, recipe.ProfileID(profileID), resolver, httpOpts)
	if err != nil {
		if buildErr, ok := err.(*exchange.BuildError); ok {
			states.Apply(slot, lifecycle.NewBuildFailed(buildErr))
		}
		log.Fatalf("build request: %v", err)
	}

	if asCurl {
		command, err := ticket.Record().CurlCommand()
		if err != nil {
			log.Fatalf("curl export: %v", err)
		}
		fmt.Println(command)
		if copyCurl {
			if err := clipboard.WriteAll(command); err != nil {
				log.Printf("clipboard: %v", err)
			}
		}
		return
	}

	states.Apply(slot, lifecycle.NewLoading(seed.ID))

	ex, err := ticket.Send(ctx)
	if err != nil {
		if reqErr, ok := err.(*exchange.RequestError); ok {
			states.Apply(slot, lifecycle.NewFailed(reqErr))
		}
		log.Fatalf("send: %v", err)
	}

	completed := lifecycle.NewCompleted(ex)
	states.Apply(slot, completed)

	if err := historyStore.Append(ex); err != nil {
		log.Printf("history append: %v", err)
	}

	printCompleted(completed)
}

// overrideFlags accumulates the per-index field edits from the command
// line into the build options maps.
type overrideFlags struct {
	headers exchange.FieldOverrides
	query   exchange.FieldOverrides
	form    exchange.FieldOverrides
}

func (overrideFlags) omit(target *exchange.FieldOverrides) func(string) error {
	return func(value string) error {
		index, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("index %q is not a number", value)
		}
		if *target == nil {
			*target = exchange.FieldOverrides{}
		}
		(*target)[index] = exchange.OmitField()
		return nil
	}
}

func (overrideFlags) set(target *exchange.FieldOverrides) func(string) error {
	return func(raw string) error {
		indexText, value, ok := strings.Cut(raw, "=")
		if !ok {
			return fmt.Errorf("expected index=value, got %q", raw)
		}
		index, err := strconv.Atoi(strings.TrimSpace(indexText))
		if err != nil {
			return fmt.Errorf("index %q is not a number", indexText)
		}
		if *target == nil {
			*target = exchange.FieldOverrides{}
		}
		(*target)[index] = exchange.OverrideField(recipe.Template(value))
		return nil
	}
}

// profile values are consulted before the process environment so a
// profile can shadow ambient variables.
func buildResolver(collection *recipe.Collection, profileID recipe.ProfileID) (*vars.Resolver, error) {
	providers := []vars.Provider{}
	if profileID != "" {
		profile, ok := collection.Profile(profileID)
		if !ok {
			return nil, fmt.Errorf("profile %q not found", profileID)
		}
		providers = append(providers, vars.NewMapProvider(string(profile.ID), profile.Data))
	}
	providers = append(providers, vars.EnvProvider{})
	return vars.NewResolver(providers...), nil
}

func printCollection(collection *recipe.Collection) {
	fmt.Println("Recipes:")
	for _, rcp := range collection.Recipes {
		fmt.Printf("  %-24s %s %s\n", rcp.ID, rcp.Method, rcp.URL)
	}
	if len(collection.Profiles) == 0 {
		return
	}
	fmt.Println("Profiles:")
	for _, profile := range collection.Profiles {
		name := profile.Name
		if name == "" {
			name = string(profile.ID)
		}
		fmt.Printf("  %-24s %s\n", profile.ID, name)
	}
}

func printHistory(store *history.Store, recipeID recipe.RecipeID) error {
	var (
		summaries []exchange.ExchangeSummary
		err       error
	)
	if recipeID != "" {
		summaries, err = store.ByRecipe(recipeID)
	} else {
		summaries, err = store.Summaries()
	}
	if err != nil {
		return err
	}
	for _, summary := range summaries {
		fmt.Printf("%s  %3d  %8s  %s\n",
			summary.ID,
			summary.Status,
			summary.Duration().Round(time.Millisecond),
			summary.Start.Format(time.RFC3339))
	}
	return nil
}

func printStoredExchange(store *history.Store, idText string) error {
	id, err := exchange.ParseRequestID(idText)
	if err != nil {
		return fmt.Errorf("invalid exchange id %q: %w", idText, err)
	}
	ex, found, err := store.Get(id)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("exchange %s not found", idText)
	}
	printCompleted(lifecycle.NewCompleted(ex))
	return nil
}

func printCompleted(state lifecycle.Completed) {
	ex := state.Exchange
	elapsed, _ := state.Elapsed()
	fmt.Printf("%s %s -> %d (%s)\n",
		ex.Request.Method, ex.Request.URL, ex.Response.Status,
		elapsed.Round(time.Millisecond))

	names := make([]string, 0, len(ex.Response.Headers))
	for name := range ex.Response.Headers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		for _, value := range ex.Response.Headers[name] {
			fmt.Printf("%s: %s\n", name, value)
		}
	}

	if ex.Response.Body.Size() == 0 {
		return
	}
	fmt.Println()
	if pretty, ok := state.PrettyBody(); ok {
		fmt.Println(pretty)
		return
	}
	if text, err := ex.Response.Body.Text(); err == nil {
		fmt.Println(text)
		return
	}
	name, _ := ex.Response.FileName()
	fmt.Printf("binary body %s (save as %s)\n", ex.Response.Body, name)
}
