// Package raw is a logger-free env reader used by bootstrap code that runs
// before the logger exists
package raw

import (
	"os"
	"strconv"
	"strings"
)

// Config reads environment variables under an optional prefix
type Config struct {
	prefix string
}

// New returns an unprefixed raw config
func New() Config { return Config{} }

// Prefix returns a view whose lookups are prefixed
func (c Config) Prefix(p string) Config {
	return Config{prefix: c.prefix + p}
}

// Get returns the env value or def when unset/empty
func (c Config) Get(key, def string) string {
	v := strings.TrimSpace(os.Getenv(c.prefix + key))
	if v == "" {
		return def
	}
	return v
}

// GetBool parses a boolean env value, falling back to def
func (c Config) GetBool(key string, def bool) bool {
	v := c.Get(key, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// GetInt parses an int env value, falling back to def
func (c Config) GetInt(key string, def int) int {
	v := c.Get(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
