package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jmallory/llm-desk-tui/internal/models"
)

func validConfig() Config {
	cfg := Default()
	cfg.APIKey = "sk-test"
	return cfg
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(*Config)
		wantFields []string
	}{
		{"Valid", func(c *Config) {}, nil},
		{"EmptyURL", func(c *Config) { c.EndpointURL = "" }, []string{"endpoint_url"}},
		{"BadScheme", func(c *Config) { c.EndpointURL = "ftp://example.com" }, []string{"endpoint_url"}},
		{"NoHost", func(c *Config) { c.EndpointURL = "https://" }, []string{"endpoint_url"}},
		{"EmptyKey", func(c *Config) { c.APIKey = "" }, []string{"api_key"}},
		{"EmptyModel", func(c *Config) { c.Model = "" }, []string{"model"}},
		{"TempTooHigh", func(c *Config) { c.Temperature = 2.5 }, []string{"temperature"}},
		{"TempNegative", func(c *Config) { c.Temperature = -0.1 }, []string{"temperature"}},
		{"ZeroMaxTokens", func(c *Config) { c.MaxTokens = 0 }, []string{"max_tokens"}},
		{
			"AllFieldsReported",
			func(c *Config) {
				c.EndpointURL = ""
				c.APIKey = ""
				c.Model = ""
				c.Temperature = 3
				c.MaxTokens = -1
			},
			[]string{"endpoint_url", "api_key", "model", "temperature", "max_tokens"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)

			errs := cfg.Validate()
			if len(errs) != len(tt.wantFields) {
				t.Fatalf("Validate() returned %d errors (%v), want %d", len(errs), errs, len(tt.wantFields))
			}
			for _, field := range tt.wantFields {
				if _, ok := errs[field]; !ok {
					t.Errorf("Validate() missing error for field %q: %v", field, errs)
				}
			}
		})
	}
}

func TestFieldErrors_ErrorIsStable(t *testing.T) {
	errs := FieldErrors{"b_field": "bad", "a_field": "worse"}
	got := errs.Error()
	if !strings.HasPrefix(got, "a_field") {
		t.Errorf("Error() = %q, want sorted field order", got)
	}
}

func TestStore_SaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg := Config{
		EndpointURL:    "https://api.example.com/v1/completions",
		APIKey:         "sk-test",
		Model:          "gpt-3.5",
		SystemPrompt:   "be terse",
		HTTPReferer:    "https://example.com",
		XTitle:         "test",
		Temperature:    0.7,
		MaxTokens:      100,
		RequestTimeout: 45 * time.Second,
		Pricing: map[string]models.ModelPricing{
			"gpt-3.5": {PromptPerMillion: 0.5, CompletionPerMillion: 1.5},
		},
	}

	store := NewStore(path)
	store.Set(cfg)
	if err := store.Save(); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	loaded := NewStore(path)
	if err := loaded.Load(); err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	got := loaded.Get()
	if got.EndpointURL != cfg.EndpointURL ||
		got.APIKey != cfg.APIKey ||
		got.Model != cfg.Model ||
		got.SystemPrompt != cfg.SystemPrompt ||
		got.Temperature != cfg.Temperature ||
		got.MaxTokens != cfg.MaxTokens ||
		got.RequestTimeout != cfg.RequestTimeout {
		t.Errorf("round trip mismatch:\ngot  %+v\nwant %+v", got, cfg)
	}
	if got.Pricing["gpt-3.5"] != cfg.Pricing["gpt-3.5"] {
		t.Errorf("Pricing round trip = %+v, want %+v", got.Pricing, cfg.Pricing)
	}
}

func TestStore_LoadMissingFileIsFirstRun(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "nope.yaml"))
	if err := store.Load(); err != nil {
		t.Fatalf("Load() on missing file = %v, want nil", err)
	}
	if got := store.Get(); got.EndpointURL != Default().EndpointURL {
		t.Errorf("Get() after first-run load = %+v, want defaults", got)
	}
}

func TestStore_LoadCorruptFileFallsBackToDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("{{{ not yaml"), 0o600); err != nil {
		t.Fatal(err)
	}

	store := NewStore(path)
	err := store.Load()
	if !errors.Is(err, ErrConfigLoad) {
		t.Fatalf("Load() error = %v, want ErrConfigLoad", err)
	}
	if got := store.Get(); got.Model != Default().Model {
		t.Errorf("Get() after corrupt load = %+v, want defaults", got)
	}
}

func TestStore_LoadExpandsEnv(t *testing.T) {
	t.Setenv("ROUNDTRIP_TEST_KEY", "sk-from-env")

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "endpoint_url: https://api.example.com/v1\napi_key: ${ROUNDTRIP_TEST_KEY}\nmodel: gpt-3.5\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	store := NewStore(path)
	if err := store.Load(); err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if got := store.Get().APIKey; got != "sk-from-env" {
		t.Errorf("APIKey = %q, want env-expanded value", got)
	}
}

func TestStore_SaveCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deeper", "config.yaml")
	store := NewStore(path)
	store.Set(validConfig())

	if err := store.Save(); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("config file was not written: %v", err)
	}
}

func TestStore_SaveFailureKeepsMemoryAuthoritative(t *testing.T) {
	dir := t.TempDir()
	// Use the directory itself as the target path so the rename fails.
	store := NewStore(dir)
	cfg := validConfig()
	cfg.Model = "survives"
	store.Set(cfg)

	err := store.Save()
	if !errors.Is(err, ErrConfigSave) {
		t.Fatalf("Save() error = %v, want ErrConfigSave", err)
	}
	if got := store.Get().Model; got != "survives" {
		t.Errorf("in-memory config lost after failed save: model = %q", got)
	}
}

func TestStore_GetReturnsCopy(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "config.yaml"))
	store.Set(validConfig())

	got := store.Get()
	got.Pricing["injected"] = models.ModelPricing{PromptPerMillion: 999}

	if _, ok := store.Get().Pricing["injected"]; ok {
		t.Error("mutating a Get() copy leaked into the store")
	}
}

func TestProfile_SnapshotsFields(t *testing.T) {
	cfg := validConfig()
	cfg.Model = "gpt-3.5"
	cfg.Temperature = 1.2

	p := cfg.Profile()
	if p.Model != "gpt-3.5" || p.Temperature != 1.2 || p.APIKey != "sk-test" {
		t.Errorf("Profile() = %+v, want field-for-field snapshot", p)
	}
}

func TestGetEnvString(t *testing.T) {
	t.Setenv("LDT_TEST_ENV", "value")

	if got := getEnvString("LDT_TEST_ENV", "default"); got != "value" {
		t.Errorf("getEnvString() = %q, want %q", got, "value")
	}
	if got := getEnvString("LDT_TEST_ENV_MISSING", "default"); got != "default" {
		t.Errorf("getEnvString() = %q, want %q", got, "default")
	}
}

func TestEnsureDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b")
	if err := ensureDir(path); err != nil {
		t.Fatalf("ensureDir() failed: %v", err)
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("directory was not created")
	}
	if err := ensureDir(""); err != nil {
		t.Error("ensureDir(\"\") should not error")
	}
}
