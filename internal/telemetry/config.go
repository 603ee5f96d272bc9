package telemetry

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	envEndpoint    = "KETTLE_OTEL_ENDPOINT"
	envInsecure    = "KETTLE_OTEL_INSECURE"
	envService     = "KETTLE_OTEL_SERVICE"
	envDialTimeout = "KETTLE_OTEL_DIAL_TIMEOUT"
	envHeaders     = "KETTLE_OTEL_HEADERS"

	defaultServiceName = "kettle"
)

type Config struct {
	Endpoint    string
	Insecure    bool
	ServiceName string
	Version     string
	DialTimeout time.Duration
	Headers     map[string]string
}

// Enabled reports whether an exporter should be attached at all.
func (c Config) Enabled() bool {
	return strings.TrimSpace(c.Endpoint) != ""
}

// ConfigFromEnv reads telemetry settings from the environment. The
// getenv indirection keeps this testable.
func ConfigFromEnv(getenv func(string) string) Config {
	cfg := Config{
		Endpoint:    strings.TrimSpace(getenv(envEndpoint)),
		ServiceName: strings.TrimSpace(getenv(envService)),
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = defaultServiceName
	}
	if raw := strings.TrimSpace(getenv(envInsecure)); raw != "" {
		if insecure, err := strconv.ParseBool(raw); err == nil {
			cfg.Insecure = insecure
		}
	}
	if raw := strings.TrimSpace(getenv(envDialTimeout)); raw != "" {
		if timeout, err := time.ParseDuration(raw); err == nil {
			cfg.DialTimeout = timeout
		}
	}
	if headers, err := ParseHeaders(getenv(envHeaders)); err == nil {
		cfg.Headers = headers
	}
	return cfg
}

// ParseHeaders parses "k=v, k2=v2" pairs for exporter metadata.
func ParseHeaders(raw string) (map[string]string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, nil
	}
	headers := map[string]string{}
	for _, pair := range strings.Split(trimmed, ",") {
		key, value, found := strings.Cut(pair, "=")
		if !found {
			return nil, fmt.Errorf("invalid header pair %q", pair)
		}
		key = strings.TrimSpace(key)
		if key == "" {
			return nil, fmt.Errorf("empty header name in %q", pair)
		}
		headers[key] = strings.TrimSpace(value)
	}
	return headers, nil
}
