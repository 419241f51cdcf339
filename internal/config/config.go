package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	// Chain RPC endpoint serving the contract view calls
	LedgerRPCURL string

	// Account id of the crowdfunding contract
	LedgerContractID string

	// Records requested per ledger page
	PageLimit uint64

	// Cache backend: postgres, sqlite or memory
	CacheDriver string

	// Postgres connection string (CACHE_DRIVER=postgres)
	DatabaseURL string

	// SQLite database path (CACHE_DRIVER=sqlite)
	SQLitePath string

	// Interval between scheduled catch-up syncs
	SyncInterval time.Duration

	// HTTP API port
	APIPort int

	// Log level: debug, info, warn, error
	LogLevel string
}

// Load reads the configuration from environment variables
func Load() *Config {
	return &Config{
		LedgerRPCURL:     getEnv("LEDGER_RPC_URL", "https://rpc.mainnet.near.org"),
		LedgerContractID: getEnv("LEDGER_CONTRACT_ID", ""),
		PageLimit:        uint64(getEnvAsInt("PAGE_LIMIT", 500)),
		CacheDriver:      getEnv("CACHE_DRIVER", "sqlite"),
		DatabaseURL:      getEnv("DATABASE_URL", ""),
		SQLitePath:       getEnv("SQLITE_PATH", "crowdcache.db"),
		SyncInterval:     time.Duration(getEnvAsInt("SYNC_INTERVAL_SEC", 60)) * time.Second,
		APIPort:          getEnvAsInt("API_PORT", 8080),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.LedgerRPCURL == "" {
		return fmt.Errorf("LEDGER_RPC_URL is required")
	}
	if c.LedgerContractID == "" {
		return fmt.Errorf("LEDGER_CONTRACT_ID is required")
	}
	if c.PageLimit == 0 {
		return fmt.Errorf("PAGE_LIMIT must be positive")
	}

	switch c.CacheDriver {
	case "postgres":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when CACHE_DRIVER=postgres")
		}
	case "sqlite":
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required when CACHE_DRIVER=sqlite")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown CACHE_DRIVER %q", c.CacheDriver)
	}

	if c.SyncInterval <= 0 {
		return fmt.Errorf("SYNC_INTERVAL_SEC must be positive")
	}

	return nil
}

// Helper: get string from env
func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// Helper: get int from env
func getEnvAsInt(key string, defaultVal int) int {
	valStr := os.Getenv(key)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(valStr)
	if err != nil {
		return defaultVal
	}
	return val
}
