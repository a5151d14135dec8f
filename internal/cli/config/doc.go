// Package config provides the booklend-cli configuration.
//
//   - spec.go: CLIConfig struct (~/.booklend/cli.yaml) and defaults
//   - loader.go: loading, saving and verification
//
// Values are layered defaults < file < BOOKLEND_* environment < flags.
package config
