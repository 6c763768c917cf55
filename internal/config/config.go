// Package config contains everything related to configuration.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jmallory/llm-desk-tui/internal/models"
)

// Sentinel errors for the persistence layer. Neither is fatal: load
// failures fall back to defaults, save failures keep the in-memory
// configuration authoritative.
var (
	ErrConfigLoad = errors.New("config: load failed")
	ErrConfigSave = errors.New("config: save failed")
)

// Config holds the request configuration persisted between sessions.
type Config struct {
	EndpointURL    string                         `yaml:"endpoint_url"`
	APIKey         string                         `yaml:"api_key"`
	Model          string                         `yaml:"model"`
	SystemPrompt   string                         `yaml:"system_prompt"`
	HTTPReferer    string                         `yaml:"http_referer"`
	XTitle         string                         `yaml:"x_title"`
	Temperature    float64                        `yaml:"temperature"`
	MaxTokens      int                            `yaml:"max_tokens"`
	RequestTimeout time.Duration                  `yaml:"request_timeout"`
	Pricing        map[string]models.ModelPricing `yaml:"pricing"`
}

// Default returns the built-in configuration used on first run and as
// the fallback when the persisted file cannot be read.
func Default() Config {
	return Config{
		EndpointURL:    "https://openrouter.ai/api/v1/chat/completions",
		Model:          "openai/o1-pro",
		SystemPrompt:   "You are a helpful assistant.",
		HTTPReferer:    "https://llm-api-testing-client.github.io",
		XTitle:         "LLM API Testing Client",
		Temperature:    0.7,
		MaxTokens:      1024,
		RequestTimeout: 30 * time.Second,
		Pricing: map[string]models.ModelPricing{
			"openai/o1-pro": {PromptPerMillion: 150, CompletionPerMillion: 600},
		},
	}
}

// FieldErrors maps configuration field names to validation problems.
type FieldErrors map[string]string

// Error joins all field errors in a stable order.
func (e FieldErrors) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f, e[f]))
	}
	return strings.Join(parts, "; ")
}

// Validate checks every field and returns the full set of problems so
// the caller can render all of them at once. An empty map means valid.
func (c Config) Validate() FieldErrors {
	errs := FieldErrors{}

	switch u, err := url.Parse(c.EndpointURL); {
	case c.EndpointURL == "":
		errs["endpoint_url"] = "is required"
	case err != nil:
		errs["endpoint_url"] = "is not a valid URL"
	case u.Scheme != "http" && u.Scheme != "https":
		errs["endpoint_url"] = "must use http or https"
	case u.Host == "":
		errs["endpoint_url"] = "is missing a host"
	}

	if c.APIKey == "" {
		errs["api_key"] = "is required"
	}
	if c.Model == "" {
		errs["model"] = "is required"
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		errs["temperature"] = "must be between 0 and 2"
	}
	if c.MaxTokens <= 0 {
		errs["max_tokens"] = "must be greater than 0"
	}
	if c.RequestTimeout < 0 {
		errs["request_timeout"] = "must not be negative"
	}

	return errs
}

// Profile returns the immutable snapshot attached to an outgoing
// request.
func (c Config) Profile() models.RequestProfile {
	return models.RequestProfile{
		EndpointURL:  c.EndpointURL,
		APIKey:       c.APIKey,
		Model:        c.Model,
		SystemPrompt: c.SystemPrompt,
		HTTPReferer:  c.HTTPReferer,
		XTitle:       c.XTitle,
		Temperature:  c.Temperature,
		MaxTokens:    c.MaxTokens,
	}
}

// clone deep-copies the config so callers never share the pricing map.
func (c Config) clone() Config {
	out := c
	out.Pricing = make(map[string]models.ModelPricing, len(c.Pricing))
	for k, v := range c.Pricing {
		out.Pricing[k] = v
	}
	return out
}

// Store is the file-backed configuration store. The in-memory copy is
// authoritative; the file is a best-effort mirror.
type Store struct {
	mu   sync.RWMutex
	path string
	cfg  Config
}

// NewStore creates a store for the given file path, initialized with
// defaults until Load is called.
func NewStore(path string) *Store {
	return &Store{path: path, cfg: Default()}
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Load reads the persisted configuration. A missing file is first-run,
// not an error. A corrupt file leaves the defaults in place and returns
// an error wrapping ErrConfigLoad. Unknown models keep their default
// pricing only if the file does not override the pricing table.
func (s *Store) Load() error {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConfigLoad, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
		return fmt.Errorf("%w: %v", ErrConfigLoad, err)
	}

	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
	return nil
}

// Save writes the configuration atomically: marshal to a temp file in
// the same directory, then rename over the target. Failure wraps
// ErrConfigSave and leaves the in-memory state untouched.
func (s *Store) Save() error {
	s.mu.RLock()
	cfg := s.cfg.clone()
	s.mu.RUnlock()

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConfigSave, err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("%w: %v", ErrConfigSave, err)
	}

	tmp, err := os.CreateTemp(dir, ".config-*.yaml")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConfigSave, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("%w: %v", ErrConfigSave, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("%w: %v", ErrConfigSave, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("%w: %v", ErrConfigSave, err)
	}
	return nil
}

// Get returns a copy of the current configuration.
func (s *Store) Get() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.clone()
}

// Set replaces the current configuration.
func (s *Store) Set(cfg Config) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg = cfg.clone()
}

// Update applies fn to a copy of the configuration and stores the
// result.
func (s *Store) Update(fn func(*Config)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg := s.cfg.clone()
	fn(&cfg)
	s.cfg = cfg
}
