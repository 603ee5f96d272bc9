package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadSettingsReturnsDefaultHandleWhenMissing(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("KETTLE_CONFIG_DIR", dir)

	settings, handle, err := LoadSettings()
	if err != nil {
		t.Fatalf("LoadSettings returned error: %v", err)
	}
	expectedPath := filepath.Join(dir, "settings.toml")
	if handle.Path != expectedPath {
		t.Fatalf("expected handle path %q, got %q", expectedPath, handle.Path)
	}
	if handle.Format != SettingsFormatTOML {
		t.Fatalf("expected format %q, got %q", SettingsFormatTOML, handle.Format)
	}
	if settings.Timeout.Std() != DefaultTimeout {
		t.Fatalf("expected default timeout %v, got %v", DefaultTimeout, settings.Timeout.Std())
	}
	if settings.MaxBodyBytes != DefaultMaxBodyBytes {
		t.Fatalf("expected default body ceiling, got %d", settings.MaxBodyBytes)
	}
	if settings.History.MaxEntries != DefaultMaxHistory {
		t.Fatalf("expected default history bound, got %d", settings.History.MaxEntries)
	}
	if settings.History.Path != filepath.Join(dir, "history.db") {
		t.Fatalf("unexpected history path %q", settings.History.Path)
	}
}

func TestSaveAndLoadSettingsTOML(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("KETTLE_CONFIG_DIR", dir)

	want := Settings{
		Timeout:         Duration(5 * time.Second),
		FollowRedirects: true,
		ProxyURL:        "http://proxy.local:8080",
		History:         HistorySettings{MaxEntries: 50},
	}
	if err := SaveSettings(want, SettingsHandle{}); err != nil {
		t.Fatalf("SaveSettings failed: %v", err)
	}

	got, handle, err := LoadSettings()
	if err != nil {
		t.Fatalf("LoadSettings failed: %v", err)
	}
	if got.Timeout.Std() != 5*time.Second {
		t.Fatalf("expected timeout 5s, got %v", got.Timeout.Std())
	}
	if !got.FollowRedirects {
		t.Fatalf("expected follow_redirects true")
	}
	if got.ProxyURL != want.ProxyURL {
		t.Fatalf("expected proxy %q, got %q", want.ProxyURL, got.ProxyURL)
	}
	if got.History.MaxEntries != 50 {
		t.Fatalf("expected history bound 50, got %d", got.History.MaxEntries)
	}
	if handle.Format != SettingsFormatTOML {
		t.Fatalf("expected format %q after save, got %q", SettingsFormatTOML, handle.Format)
	}
}

func TestLoadSettingsJSON(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("KETTLE_CONFIG_DIR", dir)

	payload := Settings{
		Timeout:   Duration(2 * time.Second),
		Telemetry: TelemetrySettings{Endpoint: "collector:4317", ServiceName: "kettle-dev"},
	}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		t.Fatalf("marshal json: %v", err)
	}
	path := filepath.Join(dir, "settings.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write json settings: %v", err)
	}

	got, handle, err := LoadSettings()
	if err != nil {
		t.Fatalf("LoadSettings failed: %v", err)
	}
	if got.Timeout.Std() != 2*time.Second {
		t.Fatalf("expected timeout 2s, got %v", got.Timeout.Std())
	}
	if got.Telemetry.Endpoint != payload.Telemetry.Endpoint {
		t.Fatalf("expected endpoint %q, got %q", payload.Telemetry.Endpoint, got.Telemetry.Endpoint)
	}
	if handle.Format != SettingsFormatJSON {
		t.Fatalf("expected json format, got %q", handle.Format)
	}
	if handle.Path != path {
		t.Fatalf("expected handle path %q, got %q", path, handle.Path)
	}
}

func TestLoadSettingsRejectsUnknownJSONFields(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("KETTLE_CONFIG_DIR", dir)

	path := filepath.Join(dir, "settings.json")
	if err := os.WriteFile(path, []byte(`{"timout":"5s"}`), 0o644); err != nil {
		t.Fatalf("write json settings: %v", err)
	}
	if _, _, err := LoadSettings(); err == nil {
		t.Fatalf("expected error for unknown field")
	}
}
