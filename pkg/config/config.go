package config

import (
	"fmt"
)

// Environment variable names for the witness server configuration
const (
	EnvWitnessPort          = "WITNESS_PORT"
	EnvWitnessStoreBackend  = "WITNESS_STORE_BACKEND"
	EnvWitnessBadgerPath    = "WITNESS_BADGER_PATH"
	EnvWitnessRedisAddress  = "WITNESS_REDIS_ADDRESS"
	EnvWitnessRedisPassword = "WITNESS_REDIS_PASSWORD"
	EnvWitnessRedisDB       = "WITNESS_REDIS_DB"
	EnvWitnessQueryRate     = "WITNESS_QUERY_RATE"
	EnvWitnessVerbose       = "WITNESS_VERBOSE"
)

// StoreBackend selects the snapshot store implementation.
type StoreBackend string

func (b StoreBackend) String() string {
	return string(b)
}

const (
	StoreBackendMemory StoreBackend = "memory"
	StoreBackendBadger StoreBackend = "badger"
	StoreBackendRedis  StoreBackend = "redis"
)

// ParseStoreBackend validates a backend name.
func ParseStoreBackend(s string) (StoreBackend, error) {
	switch StoreBackend(s) {
	case StoreBackendMemory, StoreBackendBadger, StoreBackendRedis:
		return StoreBackend(s), nil
	default:
		return "", fmt.Errorf("unsupported store backend: %q (expected memory, badger, or redis)", s)
	}
}

// Config holds the witness server configuration.
type Config struct {
	Port          int
	StoreBackend  StoreBackend
	BadgerPath    string
	RedisAddress  string
	RedisPassword string
	RedisDB       int

	// QueryRate caps witness queries per second; 0 disables limiting.
	QueryRate float64

	Verbose bool
}

// Validate checks the configuration for internal consistency.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if _, err := ParseStoreBackend(string(c.StoreBackend)); err != nil {
		return err
	}
	if c.StoreBackend == StoreBackendBadger && c.BadgerPath == "" {
		return fmt.Errorf("badger backend requires a data path")
	}
	if c.StoreBackend == StoreBackendRedis && c.RedisAddress == "" {
		return fmt.Errorf("redis backend requires an address")
	}
	if c.QueryRate < 0 {
		return fmt.Errorf("query rate must be non-negative")
	}
	return nil
}
