// Package config loads and validates papercast configuration.
//
// Configuration lives in a TOML file (default ~/.config/papercast/config.toml)
// merged over repository defaults, with a small set of environment overrides
// for secrets. Validation runs before any component starts so a bad file is
// rejected up front rather than mid-pipeline.
package config
