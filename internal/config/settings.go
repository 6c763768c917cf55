package config

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// Settings holds process-level paths and overrides sourced from the
// environment, as opposed to the request configuration in Config.
type Settings struct {
	ConfigPath   string
	DatabasePath string
	LogPath      string
	APIKey       string // optional env override, applied over the file value
}

// LoadSettings reads .env files and environment variables.
func LoadSettings() (*Settings, error) {
	for _, path := range getEnvPaths() {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			break
		}
	}

	s := &Settings{
		ConfigPath:   getEnvString("LLMDESK_CONFIG_PATH", defaultPath("config.yaml")),
		DatabasePath: getEnvString("LLMDESK_DB_PATH", defaultPath("history.db")),
		LogPath:      getEnvString("LLMDESK_LOG_PATH", defaultPath("ldt.log")),
		APIKey:       os.Getenv("LLMDESK_API_KEY"),
	}

	if err := ensureDir(filepath.Dir(s.ConfigPath)); err != nil {
		return nil, err
	}
	if err := ensureDir(filepath.Dir(s.DatabasePath)); err != nil {
		return nil, err
	}
	return s, nil
}

// getEnvPaths returns a list of paths to check for .env files.
func getEnvPaths() []string {
	var paths []string

	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, ".env"))
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths,
			filepath.Join(home, ".config", "llm-desk-tui", ".env"),
			filepath.Join(home, ".llm-desk", ".env"),
		)
	}
	return paths
}

// defaultPath returns the default location for a file in the app's
// config directory.
func defaultPath(name string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return name
	}
	return filepath.Join(home, ".config", "llm-desk-tui", name)
}

// getEnvString retrieves a string environment variable or returns the
// default.
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// ensureDir creates a directory and all parents if they don't exist.
func ensureDir(path string) error {
	if path == "" || path == "." {
		return nil
	}
	return os.MkdirAll(path, 0o750)
}
