package storage

import (
	"os"

	"github.com/rs/zerolog"
)

// Backend represents the record store backend
type Backend string

const (
	// BackendJSONL appends one JSON line per record. Concurrent writers
	// cannot clobber each other, so this is the default.
	BackendJSONL Backend = "jsonl"
	// BackendSnapshot keeps one JSON array per stream, rewritten whole on
	// every append. Kept for compatibility with PBX tooling that reads the
	// snapshot files directly.
	BackendSnapshot Backend = "snapshot"
	// BackendNone disables persistence.
	BackendNone Backend = "none"
)

// StoreConfig holds record store configuration
type StoreConfig struct {
	Backend Backend
	DataDir string
}

// LoadStoreConfig loads record store config from environment. Disabling
// persistence requires an explicit STORE_BACKEND=none; an unrecognized value
// falls back to the jsonl default.
func LoadStoreConfig(logger zerolog.Logger) StoreConfig {
	raw := getEnv("STORE_BACKEND", string(BackendJSONL))
	backend := Backend(raw)
	switch backend {
	case BackendJSONL, BackendSnapshot, BackendNone:
	default:
		logger.Warn().Str("value", raw).Msg("unrecognized STORE_BACKEND, using jsonl")
		backend = BackendJSONL
	}

	return StoreConfig{
		Backend: backend,
		DataDir: getEnv("DATA_DIR", "data"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
