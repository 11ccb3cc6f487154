package config

import (
    "os"
    "strconv"
    "time"
)

// RateLimitConfig controls the per-client token bucket and the escalating
// ban applied to clients that keep hammering the API after running out of
// tokens.  Points is the number of requests allowed per Interval.  A client
// that violates the limit is banned for InitialBan; each further violation
// doubles the ban up to MaxBan.
type RateLimitConfig struct {
    Enabled    bool
    Points     int
    Interval   time.Duration
    InitialBan time.Duration
    BanFactor  int
    MaxBan     time.Duration
    Prefix     string
}

// LoadRateLimitConfig reads rate limiter settings from the environment,
// falling back to the defaults used in production: 5 requests per second,
// first ban 10 seconds, doubling per violation, capped at one hour.
func LoadRateLimitConfig() RateLimitConfig {
    cfg := RateLimitConfig{
        Enabled:    envBool("RATE_LIMIT_ENABLED", true),
        Points:     envInt("RATE_LIMIT_POINTS", 5),
        Interval:   envDur("RATE_LIMIT_INTERVAL", time.Second),
        InitialBan: envDur("RATE_LIMIT_INITIAL_BAN", 10*time.Second),
        BanFactor:  envInt("RATE_LIMIT_BAN_FACTOR", 2),
        MaxBan:     envDur("RATE_LIMIT_MAX_BAN", time.Hour),
        Prefix:     envStr("RATE_LIMIT_PREFIX", "rl"),
    }
    if cfg.Points < 1 {
        cfg.Points = 1
    }
    if cfg.Interval <= 0 {
        cfg.Interval = time.Second
    }
    if cfg.BanFactor < 2 {
        cfg.BanFactor = 2
    }
    if cfg.InitialBan <= 0 {
        cfg.InitialBan = 10 * time.Second
    }
    if cfg.MaxBan < cfg.InitialBan {
        cfg.MaxBan = cfg.InitialBan
    }
    return cfg
}

func envStr(k, d string) string {
    if v := os.Getenv(k); v != "" {
        return v
    }
    return d
}

func envBool(k string, d bool) bool {
    v := os.Getenv(k)
    if v == "" {
        return d
    }
    switch v {
    case "1", "true", "TRUE", "True", "yes", "YES", "on", "ON":
        return true
    case "0", "false", "FALSE", "False", "no", "NO", "off", "OFF":
        return false
    }
    return d
}

func envInt(k string, d int) int {
    v := os.Getenv(k)
    if v == "" {
        return d
    }
    if n, err := strconv.Atoi(v); err == nil {
        return n
    }
    return d
}

func envDur(k string, d time.Duration) time.Duration {
    v := os.Getenv(k)
    if v == "" {
        return d
    }
    if dur, err := time.ParseDuration(v); err == nil {
        return dur
    }
    return d
}
