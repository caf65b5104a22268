package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Service.BaseURL != "http://localhost:3000" {
		t.Errorf("unexpected base url %q", cfg.Service.BaseURL)
	}
	if cfg.Service.Timeout != 10*time.Second {
		t.Errorf("unexpected timeout %v", cfg.Service.Timeout)
	}
	if cfg.Map.Zoom != 12 || cfg.Map.SettleDelay != 250*time.Millisecond {
		t.Errorf("unexpected map defaults %+v", cfg.Map)
	}
	if cfg.Telemetry.Enabled {
		t.Error("telemetry should be off by default")
	}
}

func TestLoad_Precedence(t *testing.T) {
	t.Setenv("GEOMAP_SERVICE_BASE_URL", "http://env:1")
	t.Setenv("GEOMAP_MAP_ZOOM", "5")

	fs := pflag.NewFlagSet("geomap", pflag.ContinueOnError)
	Flags(fs)
	if err := fs.Parse([]string{"--map.zoom=7", "--service.timeout=3s"}); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(fs)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Service.BaseURL != "http://env:1" {
		t.Errorf("expected env base url, got %q", cfg.Service.BaseURL)
	}
	if cfg.Map.Zoom != 7 {
		t.Errorf("expected flag to win over env, got zoom %v", cfg.Map.Zoom)
	}
	if cfg.Service.Timeout != 3*time.Second {
		t.Errorf("expected 3s timeout, got %v", cfg.Service.Timeout)
	}
	if cfg.Map.CenterLon != 12.079811 {
		t.Errorf("unset flags must not override defaults, got %v", cfg.Map.CenterLon)
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")
	body := "service:\n  base_url: http://tiles.example:8080\nmap:\n  settle_delay: 1s\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	fs := pflag.NewFlagSet("geomap", pflag.ContinueOnError)
	Flags(fs)
	if err := fs.Parse([]string{"--config", path}); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(fs)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Service.BaseURL != "http://tiles.example:8080" || cfg.Map.SettleDelay != time.Second {
		t.Errorf("config file not applied: %+v", cfg)
	}

	fs = pflag.NewFlagSet("geomap", pflag.ContinueOnError)
	Flags(fs)
	_ = fs.Parse([]string{"--config", filepath.Join(t.TempDir(), "missing.yaml")})
	if _, err := Load(fs); err == nil {
		t.Error("expected error for a missing explicit config file")
	}
}

func TestValidate(t *testing.T) {
	cfg := Config{
		Service: ServiceConfig{BaseURL: "not a url"},
		Map:     MapConfig{CenterLon: 200, Zoom: 30},
		Log:     LogConfig{Level: "loud", Format: "text"},
	}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"service.base_url", "map.center_lon", "map.zoom", "log.level"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected %s in %q", want, err)
		}
	}
}

func TestLoad_DiscoveredFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", t.TempDir())
	chdir(t, dir)

	if _, err := Load(nil); err != nil {
		t.Fatalf("a missing geomap.yaml must fall back to defaults: %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "geomap.yaml"), []byte("service: [unclosed\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(nil); err == nil {
		t.Error("expected error for a malformed geomap.yaml")
	}
}

// chdir changes the working directory for the duration of the test
// (equivalent of testing.T.Chdir, which requires Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatal(err)
		}
	})
}
