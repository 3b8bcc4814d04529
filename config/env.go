package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// DefaultAddr is the address FromEnv falls back to when LATTICE_ADDR is not set.
const DefaultAddr = "127.0.0.1:8080"

// FromEnv builds a config out of the defaults, overridden by LATTICE_* environment
// variables. If a file at path exists, it's loaded first via godotenv, though variables
// already present in the environment take precedence over it. The listen address is
// returned separately, as it isn't a part of the config.
func FromEnv(path string) (addr string, cfg *Config, err error) {
	if err = loadEnvFile(path); err != nil {
		return "", nil, err
	}

	cfg = Default()
	addr = getenv("LATTICE_ADDR", DefaultAddr)

	if cfg.NET.Workers, err = getenvInt("LATTICE_WORKERS", cfg.NET.Workers); err != nil {
		return "", nil, err
	}

	if cfg.NET.ReadTimeout, err = getenvDuration("LATTICE_READ_TIMEOUT", cfg.NET.ReadTimeout); err != nil {
		return "", nil, err
	}

	if cfg.NET.ReadBufferSize.Default, err = getenvInt("LATTICE_READ_BUFFER", cfg.NET.ReadBufferSize.Default); err != nil {
		return "", nil, err
	}

	if cfg.NET.ReadBufferSize.Maximal, err = getenvInt("LATTICE_MAX_HEAD", cfg.NET.ReadBufferSize.Maximal); err != nil {
		return "", nil, err
	}

	if cfg.Headers.MaxNumber, err = getenvInt("LATTICE_MAX_HEADERS", cfg.Headers.MaxNumber); err != nil {
		return "", nil, err
	}

	maxBody, err := getenvInt("LATTICE_MAX_BODY", int(min(cfg.Body.MaxSize, uint64(maxInt))))
	if err != nil {
		return "", nil, err
	}

	cfg.Body.MaxSize = uint64(maxBody)

	return addr, Fill(cfg), nil
}

const maxInt = int(^uint(0) >> 1)

func loadEnvFile(path string) error {
	if len(path) == 0 {
		return nil
	}

	if _, err := os.Stat(path); err == nil {
		return godotenv.Load(path)
	}

	return nil
}

func getenv(key, def string) string {
	if value, found := os.LookupEnv(key); found && len(value) > 0 {
		return value
	}

	return def
}

func getenvInt(key string, def int) (int, error) {
	raw := getenv(key, "")
	if len(raw) == 0 {
		return def, nil
	}

	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return 0, fmt.Errorf("config: %s must be a positive integer, got %q", key, raw)
	}

	return value, nil
}

func getenvDuration(key string, def time.Duration) (time.Duration, error) {
	raw := getenv(key, "")
	if len(raw) == 0 {
		return def, nil
	}

	value, err := time.ParseDuration(raw)
	if err != nil || value <= 0 {
		return 0, fmt.Errorf("config: %s must be a positive duration, got %q", key, raw)
	}

	return value, nil
}
