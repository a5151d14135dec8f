// Package output renders command results for booklend-cli.
//
//   - formatter.go: Formatter interface and factory
//   - table.go: reflective table rendering, wide columns tagged `table:"wide"`
//   - encode.go: machine-readable JSON and YAML output
//   - spinner.go: activity indicator for slow requests
package output
