package config

import "time"

// CLIConfig is the configuration for booklend-cli (~/.booklend/cli.yaml).
type CLIConfig struct {
	Catalog   CatalogConfig   `koanf:"catalog" json:"catalog" yaml:"catalog"`
	Session   SessionConfig   `koanf:"session" json:"session" yaml:"session"`
	Biometric BiometricConfig `koanf:"biometric" json:"biometric" yaml:"biometric"`
	Storage   StorageConfig   `koanf:"storage" json:"storage" yaml:"storage"`
	Log       LogConfig       `koanf:"log" json:"log" yaml:"log"`
	Output    OutputConfig    `koanf:"output" json:"output" yaml:"output"`

	// MetricsFile, when set, receives a Prometheus textfile on exit.
	MetricsFile string `koanf:"metrics_file" json:"metrics_file,omitempty" yaml:"metrics_file,omitempty"`
}

// CatalogConfig locates the catalog service.
type CatalogConfig struct {
	BaseURL    string `koanf:"base_url" json:"base_url" yaml:"base_url"`
	SignInPath string `koanf:"signin_path" json:"signin_path" yaml:"signin_path"`
	Timeout    string `koanf:"timeout" json:"timeout" yaml:"timeout"` // Go duration, e.g. "30s"
	CAFile     string `koanf:"ca_file" json:"ca_file,omitempty" yaml:"ca_file,omitempty"`

	// RateLimit paces requests per second; 0 is unlimited.
	RateLimit float64 `koanf:"rate_limit" json:"rate_limit,omitempty" yaml:"rate_limit,omitempty"`
	RateBurst int     `koanf:"rate_burst" json:"rate_burst,omitempty" yaml:"rate_burst,omitempty"`
}

// SessionConfig controls unlocking.
type SessionConfig struct {
	BiometricPolicy string `koanf:"biometric_policy" json:"biometric_policy" yaml:"biometric_policy"` // always, if_available
}

// BiometricConfig selects the local authentication gate.
type BiometricConfig struct {
	Provider     string `koanf:"provider" json:"provider" yaml:"provider"` // fprintd, passcode, none
	PasscodeHash string `koanf:"passcode_hash" json:"passcode_hash,omitempty" yaml:"passcode_hash,omitempty"`
	Prompt       string `koanf:"prompt" json:"prompt" yaml:"prompt"`
}

// StorageConfig locates the on-device token store.
type StorageConfig struct {
	Dir string `koanf:"dir" json:"dir" yaml:"dir"`

	// KeyFile enables at-rest encryption of stored values when set.
	KeyFile string `koanf:"key_file" json:"key_file,omitempty" yaml:"key_file,omitempty"`
}

// LogConfig configures stderr logging.
type LogConfig struct {
	Level  string `koanf:"level" json:"level" yaml:"level"`
	Format string `koanf:"format" json:"format" yaml:"format"`

	// Timestamps adds time= to text logs.
	Timestamps bool `koanf:"timestamps" json:"timestamps,omitempty" yaml:"timestamps,omitempty"`
}

// OutputConfig sets presentation defaults.
type OutputConfig struct {
	Format string `koanf:"format" json:"format" yaml:"format"` // table, json, yaml
}

// Default returns the default CLI configuration.
func Default() *CLIConfig {
	return &CLIConfig{
		Catalog: CatalogConfig{
			BaseURL:    "http://localhost:3000/api",
			SignInPath: "/auth/signin",
			Timeout:    "30s",
		},
		Session: SessionConfig{
			BiometricPolicy: "always",
		},
		Biometric: BiometricConfig{
			Provider: "fprintd",
			Prompt:   "Authenticate to enter App",
		},
		Storage: StorageConfig{
			Dir: defaultStoreDir(),
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
		},
		Output: OutputConfig{
			Format: "table",
		},
	}
}

// CatalogTimeout returns the parsed request timeout. Invalid values fall
// back to 30s; Verify reports them.
func (c *CLIConfig) CatalogTimeout() time.Duration {
	d, err := time.ParseDuration(c.Catalog.Timeout)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}
