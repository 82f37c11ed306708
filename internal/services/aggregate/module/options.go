package module

import (
	"time"

	"gridday/internal/platform/config"
	"gridday/internal/services/aggregate/service"
)

// Options carries the tunables of the aggregation service
type Options struct {
	Workers      int
	MaxRetries   int
	RetryBase    time.Duration
	RunTimeout   time.Duration
	FetchTimeout time.Duration
	DBTimeout    time.Duration
	ReferenceKey string
}

// FromConfig reads Options from the CORE_AGGREGATE_ environment surface
func FromConfig(cfg config.Conf) Options {
	c := cfg.Prefix("CORE_AGGREGATE_")
	return Options{
		Workers:      c.MayInt("WORKERS", 4),
		MaxRetries:   c.MayInt("RETRIES", 3),
		RetryBase:    c.MayDuration("RETRY_BASE", 500*time.Millisecond),
		RunTimeout:   c.MayDuration("RUN_TIMEOUT", 10*time.Minute),
		FetchTimeout: c.MayDuration("FETCH_TIMEOUT", 30*time.Second),
		DBTimeout:    c.MayDuration("DB_TIMEOUT", 10*time.Second),
		ReferenceKey: c.MayString("REFERENCE_KEY", "inbox/%s/reference.json"),
	}
}

func (o Options) serviceConfig() service.Config {
	return service.Config{
		Workers:         o.Workers,
		MaxRetries:      o.MaxRetries,
		RetryBase:       o.RetryBase,
		RunTimeout:      o.RunTimeout,
		FetchTimeout:    o.FetchTimeout,
		DBTimeout:       o.DBTimeout,
		ReferenceKeyFmt: o.ReferenceKey,
	}
}
