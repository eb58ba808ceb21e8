// Package config loads runtime configuration for the tallybook CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// # JSON schema
//
// The JSON loader uses timex.Duration for intervals, so values can be either
// strings like "2s" or integer nanoseconds:
//
//	{
//	  "service_base_url": "https://tabular.example.com/v1",
//	  "auth_url": "https://tabular.example.com/oauth",
//	  "database_path": "tallybook.db",
//	  "document_name": "Tallybook Data",
//	  "debounce_delay": "2s"
//	}
package config
