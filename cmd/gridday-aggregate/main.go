package main

import (
	"context"
	"flag"
	"os"
	"strconv"
	"time"

	"gridday/internal/adapters/blob"
	"gridday/internal/modkit"
	"gridday/internal/modkit/module"
	"gridday/internal/modkit/repokit"
	"gridday/internal/platform/config"
	"gridday/internal/platform/logger"
	"gridday/internal/platform/store"

	aggdom "gridday/internal/services/aggregate/domain"
	aggmod "gridday/internal/services/aggregate/module"
	pubdom "gridday/internal/services/publish/domain"
	pubmod "gridday/internal/services/publish/module"
)

func mustSetEnv(key, val string) {
	if val != "" {
		_ = os.Setenv(key, val)
	}
}

func main() {
	logger.Init(logger.FromEnv())
	l := logger.Get()

	root := config.New()
	pgCfg := root.Prefix("SERVICE_PGSQL_")
	chCfg := root.Prefix("SERVICE_CLICKHOUSE_")
	blobCfg := root.Prefix("SERVICE_BLOB_")

	// ClickHouse metrics are optional; the run proceeds without them
	chURL := chCfg.MayString("DBURL", "")

	st, err := store.Open(context.Background(), store.Config{
		AppName: "gridday-aggregate",
		PG: store.PGConfig{
			Enabled:     true,
			URL:         pgCfg.MustString("DBURL"),
			MaxConns:    int32(pgCfg.MayInt("MAX_CONNS", 4)),
			SlowQueryMs: pgCfg.MayInt("SLOW_MS", 500),
			LogSQL:      pgCfg.MayBool("LOG_SQL", true),
		},
		CH: store.CHConfig{
			Enabled: chURL != "",
			URL:     chURL,
			Role:    "aggregate",
		},
	}, store.WithLogger(*l))
	if err != nil {
		l.Panic().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()

	bs, err := blob.Open(blob.Config{
		Endpoint:  blobCfg.MustString("ENDPOINT"),
		AccessKey: blobCfg.MustString("ACCESS_KEY"),
		SecretKey: blobCfg.MustString("SECRET_KEY"),
		Bucket:    blobCfg.MustString("BUCKET"),
		Secure:    blobCfg.MayBool("SECURE", true),
	})
	if err != nil {
		l.Panic().Err(err).Msg("blob.Open failed")
	}

	var (
		fDay     = flag.String("day", "", "business day YYYY-MM-DD")
		fVersion = flag.Int("version", 1, "document version to publish")
		fWorkers = flag.Int("workers", 0, "override hour resolution concurrency")
	)
	flag.Parse()

	if *fDay == "" {
		l.Panic().Msg("must provide -day")
	}
	day, err := time.Parse("2006-01-02", *fDay)
	if err != nil {
		l.Panic().Err(err).Msg("bad -day")
	}
	if *fVersion < 1 || *fVersion > 99 {
		l.Panic().Int("version", *fVersion).Msg("-version must be 1..99")
	}

	repokit.MustGuard(context.Background(), st)

	deps := modkit.Deps{
		Cfg: root,
		PG:  st.PG,
		CH:  st.CH,
		Log: *l,
	}

	// Surface opts to modules that read FromConfig
	if *fWorkers > 0 {
		mustSetEnv("CORE_AGGREGATE_WORKERS", strconv.Itoa(*fWorkers))
	}

	pm := pubmod.New(deps, modkit.WithPorts(pubdom.Ports{Blob: bs}))
	am := aggmod.New(deps, modkit.WithPorts(aggdom.Ports{
		Blob:      bs,
		Publisher: module.MustPortsOf[pubmod.Ports](pm).Publisher,
	}))
	module.Register(pm.Name(), pm.Ports())
	module.Register(am.Name(), am.Ports())

	report, err := module.MustPortsOf[aggmod.Ports](am).Runner.RunDay(context.Background(), day.UTC(), *fVersion)
	if err != nil {
		l.Fatal().Err(err).Str("day", *fDay).Msg("aggregation failed")
	}
	l.Info().
		Str("run_id", report.RunID).
		Int("hours", len(report.Hours)).
		Strs("published", report.Published).
		Msg("aggregation complete")
}
