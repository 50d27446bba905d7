// Package config loads, normalizes, and validates the imgpress TOML
// configuration file.
package config
