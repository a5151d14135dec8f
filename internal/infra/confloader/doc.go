// Package confloader merges layered configuration with koanf.
//
// Later layers win: struct defaults, then the YAML file, then BOOKLEND_*
// environment variables, then flag overrides passed to Load.
package confloader
