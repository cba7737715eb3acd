// Package config loads runtime configuration for the nicole console.
//
// Sources, later ones override earlier ones:
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. A .env file in the working directory, if present, and the process
//     environment (DB_HOST, DB_USER, DB_PASSWORD, DB_DATABASE, DB_PORT,
//     DB_SSL_CA, EMAIL_HOST, EMAIL_PORT, EMAIL_USER, EMAIL_PASS,
//     EMAIL_SENDER and the others listed in env.go).
//  3. A JSON or YAML file selected with -c or -config. The format follows the
//     extension: .yaml and .yml are YAML, anything else is JSON.
//  4. Command-line flags.
//
// Durations in files accept either Go duration strings ("30s", "15m") or
// integer nanoseconds:
//
//	{
//	  "driver": "postgres",
//	  "db_host": "db.internal",
//	  "db_name": "inventario",
//	  "table_cache_ttl": "30s",
//	  "code_ttl": "15m"
//	}
//
// Passwords are never read from flags.
package config
