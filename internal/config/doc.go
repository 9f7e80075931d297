// Package config loads the scheduler's settings from defaults, an optional
// config.yaml, SCRY_-prefixed environment variables and command-line flags,
// then validates the result before anything else starts.
package config
