package config

import "time"

// SweepConfig controls the background maintenance jobs.  Every job is
// idempotent, so the intervals only trade staleness for load.  The auth
// sweeps (revoked tokens, expired sessions) run on TokenInterval; the
// business sweeps (invoice aging, cheque maturation, compliance and
// preventive-maintenance generation) run on BusinessInterval.
type SweepConfig struct {
    Enabled          bool
    TokenInterval    time.Duration
    BusinessInterval time.Duration
    LateFeeCents     int64 // flat late fee added once when an invoice turns overdue
}

// LoadSweepConfig reads sweep settings from environment variables.
func LoadSweepConfig() SweepConfig {
    c := SweepConfig{
        Enabled:          envBool("SWEEP_ENABLED", true),
        TokenInterval:    envDur("SWEEP_TOKEN_INTERVAL", 5*time.Minute),
        BusinessInterval: envDur("SWEEP_BUSINESS_INTERVAL", time.Hour),
        LateFeeCents:     int64(envInt("INVOICE_LATE_FEE_CENTS", 2500)),
    }
    if c.TokenInterval <= 0 {
        c.TokenInterval = 5 * time.Minute
    }
    if c.BusinessInterval <= 0 {
        c.BusinessInterval = time.Hour
    }
    return c
}
