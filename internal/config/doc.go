// Package config provides configuration loading and validation for the WAV streaming service.
// It handles YAML-based configuration layered over documented defaults, with
// per-section validation for the server, stream pacing, monitoring API, client and logging.
package config
