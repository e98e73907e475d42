// Package config loads peerdeck's TOML configuration.
//
// # Resolution
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/peerdeck/config.toml
//  3. If the file doesn't exist, fall back to defaults
//  4. If the file exists but fields are missing or blank, use defaults
//
// # Fields
//
//	backend_url      backend base URL (default http://127.0.0.1:7878)
//	poll_interval    reconciliation poll period (default 1s)
//	request_timeout  per-command HTTP timeout (default 5s)
//	log_file         rotated log file used in TUI mode
//	log_level        zerolog level name (default info)
//	locale           BCP-47 tag for name collation (default und)
//	metrics_addr     Prometheus listen address, empty disables it
//
// Values are trimmed and a leading ~ in paths expands to the home directory.
// Malformed durations or levels fail the load rather than silently falling
// back.
package config
