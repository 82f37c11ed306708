// Package config exposes typed environment configuration with prefixed views.
// Required values fail fast at startup
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"gridday/internal/platform/logger"
)

// Conf is a prefixed view over the process environment
type Conf struct {
	prefix string
}

// New returns the root (unprefixed) config view
func New() Conf { return Conf{} }

// Prefix narrows the view, prefixes compose
func (c Conf) Prefix(p string) Conf {
	return Conf{prefix: c.prefix + p}
}

func (c Conf) lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(c.prefix + key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

// MustString returns the value or exits the process
func (c Conf) MustString(key string) string {
	v, ok := c.lookup(key)
	if !ok {
		logger.Get().Fatal().Str("key", c.prefix+key).Msg("missing required config")
	}
	return v
}

// MustInt returns the parsed int or exits the process
func (c Conf) MustInt(key string) int {
	v := c.MustString(key)
	n, err := strconv.Atoi(v)
	if err != nil {
		logger.Get().Fatal().Str("key", c.prefix+key).Str("value", v).Msg("config value is not an int")
	}
	return n
}

// MayString returns the value or def
func (c Conf) MayString(key, def string) string {
	if v, ok := c.lookup(key); ok {
		return v
	}
	return def
}

// MayInt returns the parsed int or def; malformed values fall back and warn
func (c Conf) MayInt(key string, def int) int {
	v, ok := c.lookup(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		logger.Get().Warn().Str("key", c.prefix+key).Str("value", v).Msg("ignoring malformed int config")
		return def
	}
	return n
}

// MayBool returns the parsed bool or def
func (c Conf) MayBool(key string, def bool) bool {
	v, ok := c.lookup(key)
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		logger.Get().Warn().Str("key", c.prefix+key).Str("value", v).Msg("ignoring malformed bool config")
		return def
	}
	return b
}

// MayFloat returns the parsed float64 or def
func (c Conf) MayFloat(key string, def float64) float64 {
	v, ok := c.lookup(key)
	if !ok {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		logger.Get().Warn().Str("key", c.prefix+key).Str("value", v).Msg("ignoring malformed float config")
		return def
	}
	return f
}

// MayDuration returns the parsed duration or def. Accepts Go duration syntax
// and bare integers (seconds)
func (c Conf) MayDuration(key string, def time.Duration) time.Duration {
	v, ok := c.lookup(key)
	if !ok {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	logger.Get().Warn().Str("key", c.prefix+key).Str("value", v).Msg("ignoring malformed duration config")
	return def
}
