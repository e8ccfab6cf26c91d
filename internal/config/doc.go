// Package config loads, normalizes, and validates the TOML configuration for
// the facecast daemon and CLI.
//
// Configuration resolution order: an explicit --config path, then
// ~/.config/facecast/config.toml, then ./facecast.toml. Missing files fall
// back to defaults so the CLI stays usable before `facecast config init` has
// been run; validation failures are returned verbatim so the operator sees
// the offending key.
package config
