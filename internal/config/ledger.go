package config

import (
	"os"
	"strconv"
	"time"
)

type LedgerConfig struct {
	LockKey            string
	LockStaleThreshold time.Duration
	LockMaxWait        time.Duration
	LockPollInterval   time.Duration
	LabelTTL           time.Duration
	LabelSize          int
}

func LoadLedgerConfig() *LedgerConfig {
	return &LedgerConfig{
		LockKey:            getEnv("LEDGER_LOCK_KEY", "ledger:write_lock"),
		LockStaleThreshold: getEnvAsDuration("LEDGER_LOCK_STALE_THRESHOLD", 20*time.Second),
		LockMaxWait:        getEnvAsDuration("LEDGER_LOCK_MAX_WAIT", 15*time.Second),
		LockPollInterval:   getEnvAsDuration("LEDGER_LOCK_POLL_INTERVAL", 500*time.Millisecond),
		LabelTTL:           getEnvAsDuration("LEDGER_LABEL_TTL", 10*time.Minute),
		LabelSize:          getEnvAsInt("LEDGER_LABEL_SIZE", 256),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if duration, err := time.ParseDuration(val); err == nil {
			return duration
		}
	}
	return defaultVal
}
