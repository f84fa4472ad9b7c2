// Package config loads runtime configuration for the RunReward tool.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. An optional dotenv file (--env-file, default ".env"), loaded into the
//     process environment without overriding variables that are already set.
//  3. An optional config file (-c / --config), JSON or YAML by extension.
//  4. RUNREWARD_* environment variables.
//  5. Command-line flags that were explicitly set.
//
// # File schema
//
// Durations use timex.Duration, so they may be strings like "1m" or integer
// nanoseconds:
//
//	{
//	  "storage_backend": "sqlite",
//	  "sqlite_path": "runreward.db",
//	  "session_ttl": "24h",
//	  "rate_limit_window": "1m"
//	}
package config
