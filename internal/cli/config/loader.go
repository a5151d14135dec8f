package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yndnr/booklend-go/internal/biometric"
	"github.com/yndnr/booklend-go/internal/core/domain"
	"github.com/yndnr/booklend-go/internal/core/session"
	"github.com/yndnr/booklend-go/internal/infra/confloader"
)

// sections are the top-level keys split out of BOOKLEND_* variables.
var sections = []string{"catalog", "session", "biometric", "storage", "log", "output"}

// DefaultConfigPath returns the default CLI config file path.
func DefaultConfigPath() string {
	return filepath.Join(homeDir(), ".booklend", "cli.yaml")
}

func defaultStoreDir() string {
	return filepath.Join(homeDir(), ".booklend", "store")
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}

// Load builds the configuration from defaults, the YAML file at path,
// BOOKLEND_* environment variables and finally overrides (flag values keyed
// by dotted path). An empty path uses DefaultConfigPath and tolerates a
// missing file; an explicit path must exist.
func Load(path string, overrides map[string]any) (*CLIConfig, error) {
	file := confloader.WithFile(path, false)
	if path == "" {
		file = confloader.WithFile(DefaultConfigPath(), true)
	}

	cfg := Default()
	if err := confloader.New(file, confloader.WithSections(sections...)).Load(cfg, overrides); err != nil {
		return nil, err
	}

	cfg.Storage.Dir = expandHome(cfg.Storage.Dir)
	cfg.Storage.KeyFile = expandHome(cfg.Storage.KeyFile)
	cfg.Catalog.CAFile = expandHome(cfg.Catalog.CAFile)
	return cfg, nil
}

// Save writes cfg as YAML with owner-only permissions.
func Save(cfg *CLIConfig, path string) error {
	if path == "" {
		path = DefaultConfigPath()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Verify checks every setting and reports all problems at once.
func Verify(cfg *CLIConfig) error {
	var fields []domain.FieldError
	add := func(field, msg string) {
		fields = append(fields, domain.FieldError{Field: field, Message: msg})
	}

	base := cfg.Catalog.BaseURL
	if base != "" && !strings.Contains(base, "://") {
		base = "http://" + base
	}
	if u, err := url.Parse(base); err != nil || base == "" || u.Host == "" {
		add("catalog.base_url", "must be a URL")
	} else if u.Scheme != "http" && u.Scheme != "https" {
		add("catalog.base_url", "scheme must be http or https")
	}
	if !strings.HasPrefix(cfg.Catalog.SignInPath, "/") {
		add("catalog.signin_path", "must start with /")
	}
	if d, err := time.ParseDuration(cfg.Catalog.Timeout); err != nil || d <= 0 {
		add("catalog.timeout", "must be a positive duration")
	}
	if cfg.Catalog.RateLimit < 0 {
		add("catalog.rate_limit", "must not be negative")
	}
	if cfg.Catalog.RateBurst < 0 {
		add("catalog.rate_burst", "must not be negative")
	}
	if cfg.Catalog.CAFile != "" {
		if _, err := os.Stat(cfg.Catalog.CAFile); err != nil {
			add("catalog.ca_file", "cannot be read")
		}
	}

	if _, err := session.ParsePolicy(cfg.Session.BiometricPolicy); err != nil {
		add("session.biometric_policy", "must be always or if_available")
	}

	switch strings.ToLower(cfg.Biometric.Provider) {
	case biometric.ProviderFprintd, biometric.ProviderNone:
	case biometric.ProviderPasscode:
		if cfg.Biometric.PasscodeHash == "" {
			add("biometric.passcode_hash", "is required for the passcode provider")
		}
	default:
		add("biometric.provider", "must be fprintd, passcode or none")
	}
	if cfg.Biometric.PasscodeHash != "" && !strings.HasPrefix(cfg.Biometric.PasscodeHash, "$argon2id$") {
		add("biometric.passcode_hash", "must be an argon2id hash (see config passcode)")
	}

	if cfg.Storage.Dir == "" {
		add("storage.dir", "is required")
	}

	switch strings.ToLower(cfg.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		add("log.level", "must be debug, info, warn or error")
	}
	switch strings.ToLower(cfg.Log.Format) {
	case "text", "json":
	default:
		add("log.format", "must be text or json")
	}
	switch strings.ToLower(cfg.Output.Format) {
	case "table", "json", "yaml":
	default:
		add("output.format", "must be table, json or yaml")
	}

	if len(fields) > 0 {
		return domain.NewValidationError(fields...)
	}
	return nil
}

func expandHome(p string) string {
	if p == "~" {
		return homeDir()
	}
	if rest, ok := strings.CutPrefix(p, "~/"); ok {
		return filepath.Join(homeDir(), rest)
	}
	return p
}
