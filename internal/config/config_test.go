package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func load(t *testing.T, cfgFile string) (*Config, error) {
	t.Helper()
	v := viper.New()
	if err := Init(v, cfgFile); err != nil {
		return nil, err
	}
	return Load(v)
}

func TestDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := load(t, "")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("Server.Addr = %q, want :8080", cfg.Server.Addr)
	}
	if cfg.Server.ShutdownTimeout != 5*time.Second {
		t.Errorf("Server.ShutdownTimeout = %v, want 5s", cfg.Server.ShutdownTimeout)
	}
	if cfg.Database.Path != "data/pmtrack.db" || cfg.Database.BusyTimeoutMS != 5000 {
		t.Errorf("Database = %+v", cfg.Database)
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "text" {
		t.Errorf("Log = %+v", cfg.Log)
	}
	if cfg.Reports.MaxWindowDays != 366 {
		t.Errorf("Reports.MaxWindowDays = %d, want 366", cfg.Reports.MaxWindowDays)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PMTRACK_SERVER_ADDR", ":9090")
	t.Setenv("PMTRACK_LOG_FORMAT", "json")
	t.Setenv("PMTRACK_REPORTS_MAX_WINDOW_DAYS", "31")
	t.Setenv("PMTRACK_SERVER_SHUTDOWN_TIMEOUT", "12s")

	cfg, err := load(t, "")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Addr != ":9090" || cfg.Log.Format != "json" || cfg.Reports.MaxWindowDays != 31 {
		t.Errorf("env not applied: %+v", cfg)
	}
	if cfg.Server.ShutdownTimeout != 12*time.Second {
		t.Errorf("ShutdownTimeout = %v, want 12s", cfg.Server.ShutdownTimeout)
	}
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pmtrack.yaml")
	body := `log:
  level: debug
database:
  path: /var/lib/pmtrack/app.db
ui:
  tokens_file: tokens.yaml
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := load(t, path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Log.Level != "debug" || cfg.Database.Path != "/var/lib/pmtrack/app.db" || cfg.UI.TokensFile != "tokens.yaml" {
		t.Errorf("file not applied: %+v", cfg)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("defaults lost: Server.Addr = %q", cfg.Server.Addr)
	}

	t.Chdir(dir)
	cfg, err = load(t, "")
	if err != nil {
		t.Fatalf("load from working dir: %v", err)
	}
	if cfg.Log.Level != "debug" {
		t.Error("pmtrack.yaml in the working directory should be picked up")
	}
}

func TestMissingExplicitFile(t *testing.T) {
	if _, err := load(t, filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	if errs := cfg.Validate(); len(errs) != 0 {
		t.Fatalf("default config invalid: %v", errs)
	}

	cfg.Log.Level = "verbose"
	cfg.Log.Format = "xml"
	cfg.Database.BusyTimeoutMS = 0
	cfg.Reports.MaxWindowDays = -1
	errs := cfg.Validate()
	if len(errs) != 4 {
		t.Fatalf("got %d errors, want 4: %v", len(errs), errs)
	}
	fields := make([]string, 0, len(errs))
	for _, e := range errs {
		fields = append(fields, e.Field)
	}
	got := strings.Join(fields, ",")
	if got != "log.level,log.format,database.busy_timeout_ms,reports.max_window_days" {
		t.Errorf("fields = %s", got)
	}
	if !strings.Contains(errs.Error(), "4 validation errors") {
		t.Errorf("Error() = %q", errs.Error())
	}
}

func TestLoad_ReturnsValidationErrors(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PMTRACK_LOG_LEVEL", "loud")
	_, err := load(t, "")
	var verrs ValidationErrors
	if !errors.As(err, &verrs) || verrs[0].Field != "log.level" {
		t.Fatalf("err = %v", err)
	}
}
