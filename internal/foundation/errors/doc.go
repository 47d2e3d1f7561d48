// Package errors classifies failures so the CLI can choose an exit code and a
// log level.
//
// Configuration and I/O problems are ClassifiedErrors built fluently:
//
//	err := errors.ConfigError("paths.output overlaps the content directory").
//		WithContext("output", out).
//		Build()
//
// The pipeline's own error types (content, assets, markup, compose, render)
// carry no severity; they expose a Category method, which GetCategory finds
// anywhere in the chain.
package errors
