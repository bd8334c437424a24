// Package config loads, normalizes, and validates the TOML configuration
// shared by the murmur daemon and CLI.
//
// Load resolves the config path (explicit flag, ~/.config/murmur/config.toml,
// or ./murmur.toml), merges file values over Default(), expands paths, and
// validates cross-field constraints such as the lease/heartbeat ratio. All
// consumers receive fully-normalized values; no other package re-checks
// defaults.
package config
