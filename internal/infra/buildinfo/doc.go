// Package buildinfo provides build information for booklend-cli.
//
// Values are injected at build time via ldflags:
//
//	go build -ldflags "-X github.com/yndnr/booklend-go/internal/infra/buildinfo.Version=v1.0.0"
//
// Without ldflags, Get falls back to the module version and VCS stamp
// recorded by the Go toolchain.
package buildinfo
