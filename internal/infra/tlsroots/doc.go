// Package tlsroots builds the trusted root set for HTTPS catalog
// endpoints: the system pool plus an optional private CA bundle.
package tlsroots
