// Package config provides configuration management for quotegate.
//
// Configuration is read from a YAML file, decoded over DefaultConfig so that
// absent keys keep their defaults, then overridden from the environment and
// validated.
//
//	cfg, err := config.LoadConfigWithEnvOverrides("quotegate.yaml")
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention QUOTEGATE_SECTION_FIELD:
//
//   - QUOTEGATE_SERVER_LISTEN_ADDRESS overrides server.listen_address
//   - QUOTEGATE_BRIDGE_DEADLINE overrides bridge.deadline
//   - QUOTEGATE_ENGINE_SHEETS_CREDENTIALS_JSON overrides engine.sheets.credentials_json
//
// Values in the engine.sheets credential fields may instead be secret
// references such as ${secret:sheets-key}; see security.secrets and package
// security/secrets.
//
// # Configuration Precedence
//
//  1. Default values (defaults.go)
//  2. Values from the YAML file
//  3. Environment variable overrides
//  4. Validation (fails fast, reporting every invalid field)
//
// # Hot Reload
//
// Watcher observes the configuration file and, after a debounce interval,
// reloads and validates it. A valid result replaces the global configuration
// and is passed to a callback; the bridge uses it to pick up new polling
// and output-key settings without a restart. Listen address and engine
// backend changes still require a restart.
package config
