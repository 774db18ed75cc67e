package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"chatvault/internal/storage"
)

// Config holds all configuration for the application.
type Config struct {
	DBDriver        storage.Driver
	DBPath          string
	DatabaseURL     string
	AttachmentsPath string
	APIPort         string
	LogLevel        string
	LogFormat       string
	// AllowPartial is the default import mode when a caller does not choose one.
	AllowPartial bool
	// Location is applied to export timestamps without a zone.
	Location *time.Location
	// ImportRoot confines HTTP import paths when set.
	ImportRoot string
	OllamaDir  string
}

// fileConfig is the optional YAML config file. Environment variables override it.
type fileConfig struct {
	Database struct {
		Driver string `yaml:"driver"`
		Path   string `yaml:"path"`
		URL    string `yaml:"url"`
	} `yaml:"database"`
	Attachments struct {
		Path string `yaml:"path"`
	} `yaml:"attachments"`
	API struct {
		Port string `yaml:"port"`
	} `yaml:"api"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	Import struct {
		AllowPartial *bool  `yaml:"allow_partial"`
		Timezone     string `yaml:"timezone"`
		Root         string `yaml:"root"`
	} `yaml:"import"`
	Models struct {
		OllamaDir string `yaml:"ollama_dir"`
	} `yaml:"models"`
}

// defaults maps each environment key to its value from the config file, or
// the built-in default.
func (f *fileConfig) defaults() map[string]string {
	allowPartial := "true"
	if f.Import.AllowPartial != nil {
		allowPartial = strconv.FormatBool(*f.Import.AllowPartial)
	}
	return map[string]string{
		"DB_DRIVER":            or(f.Database.Driver, string(storage.DriverSQLite)),
		"DB_PATH":              or(f.Database.Path, "./data/chatvault.db"),
		"DATABASE_URL":         f.Database.URL,
		"ATTACHMENTS_PATH":     or(f.Attachments.Path, "./data/attachments"),
		"API_PORT":             or(f.API.Port, "9000"),
		"LOG_LEVEL":            or(f.Log.Level, "info"),
		"LOG_FORMAT":           or(f.Log.Format, "text"),
		"IMPORT_ALLOW_PARTIAL": allowPartial,
		"IMPORT_TIMEZONE":      or(f.Import.Timezone, "UTC"),
		"IMPORT_ROOT":          f.Import.Root,
		"OLLAMA_DIR":           or(f.Models.OllamaDir, "./models"),
	}
}

// Load reads configuration from environment variables and returns a Config struct.
// It applies defaults for optional fields and validates the result.
// If a .env file exists in the current directory or project root, it will be loaded automatically.
// Environment variables already set take precedence over .env file values, and
// both take precedence over the YAML file named by CHATVAULT_CONFIG.
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	// Check current directory first, then walk up to find project root
	_ = godotenv.Load()

	wd, err := os.Getwd()
	if err == nil {
		dir := wd
		for i := 0; i < 5; i++ { // Limit search depth
			envPath := filepath.Join(dir, ".env")
			if _, err := os.Stat(envPath); err == nil {
				_ = godotenv.Load(envPath)
				break
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break // Reached filesystem root
			}
			dir = parent
		}
	}

	file := &fileConfig{}
	if path := os.Getenv("CHATVAULT_CONFIG"); path != "" {
		if file, err = loadFile(path); err != nil {
			return nil, err
		}
	}
	defaults := file.defaults()
	get := func(key string) string { return getEnv(key, defaults[key]) }

	driver, err := storage.ParseDriver(get("DB_DRIVER"))
	if err != nil {
		return nil, fmt.Errorf("DB_DRIVER: %w", err)
	}

	cfg := &Config{
		DBDriver:        driver,
		DBPath:          get("DB_PATH"),
		DatabaseURL:     get("DATABASE_URL"),
		AttachmentsPath: get("ATTACHMENTS_PATH"),
		APIPort:         get("API_PORT"),
		LogLevel:        strings.ToLower(get("LOG_LEVEL")),
		LogFormat:       strings.ToLower(get("LOG_FORMAT")),
		ImportRoot:      get("IMPORT_ROOT"),
		OllamaDir:       get("OLLAMA_DIR"),
	}

	cfg.AllowPartial, err = strconv.ParseBool(get("IMPORT_ALLOW_PARTIAL"))
	if err != nil {
		return nil, fmt.Errorf("IMPORT_ALLOW_PARTIAL must be a boolean: %w", err)
	}

	cfg.Location, err = time.LoadLocation(get("IMPORT_TIMEZONE"))
	if err != nil {
		return nil, fmt.Errorf("IMPORT_TIMEZONE is not a valid time zone: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	if cfg.DBDriver == storage.DriverSQLite {
		if err := ensureDir(filepath.Dir(cfg.DBPath)); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}
	if err := ensureDir(cfg.AttachmentsPath); err != nil {
		return nil, fmt.Errorf("failed to create attachments directory: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.DBDriver == storage.DriverPostgres && c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required when DB_DRIVER is %s", c.DBDriver)
	}
	if c.DBDriver == storage.DriverSQLite && c.DBPath == "" {
		return fmt.Errorf("DB_PATH is required when DB_DRIVER is %s", c.DBDriver)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error (got %q)", c.LogLevel)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("LOG_FORMAT must be text or json (got %q)", c.LogFormat)
	}
	if c.ImportRoot != "" {
		info, err := os.Stat(c.ImportRoot)
		if err != nil || !info.IsDir() {
			return fmt.Errorf("IMPORT_ROOT %q is not a directory", c.ImportRoot)
		}
	}
	return nil
}

// DSN returns the connection string for the configured driver.
func (c *Config) DSN() string {
	if c.DBDriver == storage.DriverPostgres {
		return c.DatabaseURL
	}
	return storage.SQLiteDSN(c.DBPath)
}

func loadFile(path string) (*fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	file := &fileConfig{}
	if err := yaml.Unmarshal(data, file); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return file, nil
}

// ensureDir creates dir and checks that it is writable.
func ensureDir(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	probe, err := os.CreateTemp(dir, ".write-check-*")
	if err != nil {
		return fmt.Errorf("%s is not writable: %w", dir, err)
	}
	name := probe.Name()
	_ = probe.Close()
	return os.Remove(name)
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func or(value, fallback string) string {
	if value != "" {
		return value
	}
	return fallback
}
