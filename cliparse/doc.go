// Copyright (c) 2025 The Livepoll Authors.
// Source-available; see LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

# Config Fields

  - Port: Server listen port (default: 8000)
  - DatabaseURL: SQLite path or PostgreSQL connection string (required)
  - DatabaseType: "sqlite" or "postgres" (default: sqlite)
  - FingerprintSalt: Secret keying voter fingerprints (required)
  - RateLimit / RateWindow: admissions per origin per window (default: 5 per 1m)
  - IPv6PrefixBits: IPv6 bits counted toward ip_address fingerprints (default: 64)

# Environment Variables

Flags fall back to environment variables:

	PORT             → -p
	DATABASE_URL     → -d
	DATABASE_TYPE    → -t
	FINGERPRINT_SALT → -fingerprint-salt
	RATE_LIMIT       → -rate-limit
	RATE_WINDOW      → -rate-window

CLI flags take precedence over environment variables.

# Validation

ParseFlags returns an error if required values are missing:

  - DATABASE_URL must be provided
  - FINGERPRINT_SALT must be provided
*/
package cliparse
