package config

import "time"

// StorageConfig configures the document store.  Root is the directory that
// backs the store; URLSecret signs download URLs; URLTTL bounds how long a
// signed URL stays valid.
type StorageConfig struct {
    Root      string
    URLSecret string
    URLTTL    time.Duration
}

// LoadStorageConfig reads document storage settings from environment
// variables.  The URL secret falls back to the JWT secret so a minimal
// deployment needs only one secret configured.
func LoadStorageConfig(jwtSecret string) StorageConfig {
    c := StorageConfig{
        Root:      envStr("STORAGE_ROOT", "data/documents"),
        URLSecret: envStr("STORAGE_URL_SECRET", jwtSecret),
        URLTTL:    envDur("STORAGE_URL_TTL", 15*time.Minute),
    }
    if c.URLTTL <= 0 {
        c.URLTTL = 15 * time.Minute
    }
    return c
}
