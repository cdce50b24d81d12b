package cliparse

import (
	"errors"
	"flag"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port         int
	DatabaseURL  string
	DatabaseType string

	// FingerprintSalt keys the one-way voter fingerprint hash. Losing it
	// resets dedup for every open poll, so it must come from the environment
	// in production.
	FingerprintSalt string

	// Rate limiter knobs: RateLimit admissions per RateWindow per origin.
	RateLimit  int
	RateWindow time.Duration

	// IPv6PrefixBits controls how many leading bits of an IPv6 origin
	// address count toward the ip_address fingerprint (default /64).
	IPv6PrefixBits int
}

// ParseFlags validates flags and fills defaults from the environment
func ParseFlags(args []string) (Config, error) {
	var cfg Config

	fs := flag.NewFlagSet("livepoll", flag.ContinueOnError)

	// Network config (can be CLI args or env)
	fs.IntVar(&cfg.Port, "p", 0, "Server port")
	fs.StringVar(&cfg.DatabaseURL, "d", "", "Database URL")
	fs.StringVar(&cfg.DatabaseType, "t", "", "Database type (sqlite or postgres)")

	// Secrets (prefer env variables, but allow CLI for dev)
	fs.StringVar(&cfg.FingerprintSalt, "fingerprint-salt", "", "Voter fingerprint salt (prefer env)")

	// Abuse controls
	fs.IntVar(&cfg.RateLimit, "rate-limit", 0, "Max vote admissions per origin per window")
	fs.DurationVar(&cfg.RateWindow, "rate-window", 0, "Rate limit window")
	fs.IntVar(&cfg.IPv6PrefixBits, "ipv6-prefix", 0, "IPv6 prefix bits for ip_address fingerprints")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	// Fall back to environment variables
	if cfg.Port == 0 {
		if portStr := os.Getenv("PORT"); portStr != "" {
			port, err := strconv.Atoi(portStr)
			if err != nil {
				return Config{}, errors.New("invalid PORT env variable")
			}
			cfg.Port = port
		} else {
			cfg.Port = 8000 // default
		}
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("database URL required (use -d or DATABASE_URL env)")
	}

	if cfg.DatabaseType == "" {
		cfg.DatabaseType = os.Getenv("DATABASE_TYPE")
		if cfg.DatabaseType == "" {
			cfg.DatabaseType = "sqlite"
		}
	}
	if cfg.DatabaseType != "sqlite" && cfg.DatabaseType != "postgres" {
		return Config{}, errors.New("database type must be sqlite or postgres")
	}

	// Secrets - MUST be provided
	if cfg.FingerprintSalt == "" {
		cfg.FingerprintSalt = os.Getenv("FINGERPRINT_SALT")
	}
	if cfg.FingerprintSalt == "" {
		return Config{}, errors.New("FINGERPRINT_SALT required")
	}

	if cfg.RateLimit == 0 {
		if s := os.Getenv("RATE_LIMIT"); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil || n < 1 {
				return Config{}, errors.New("invalid RATE_LIMIT env variable")
			}
			cfg.RateLimit = n
		} else {
			cfg.RateLimit = 5
		}
	}
	if cfg.RateWindow == 0 {
		if s := os.Getenv("RATE_WINDOW"); s != "" {
			d, err := time.ParseDuration(s)
			if err != nil || d <= 0 {
				return Config{}, errors.New("invalid RATE_WINDOW env variable")
			}
			cfg.RateWindow = d
		} else {
			cfg.RateWindow = time.Minute
		}
	}
	if cfg.IPv6PrefixBits == 0 {
		cfg.IPv6PrefixBits = 64
	}
	if cfg.IPv6PrefixBits < 0 || cfg.IPv6PrefixBits > 128 {
		return Config{}, errors.New("ipv6-prefix must be between 0 and 128")
	}

	return cfg, nil
}
