package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/herald/internal/announcer"
	"github.com/MrSnakeDoc/herald/internal/config"
	"github.com/MrSnakeDoc/herald/internal/gateway"
	"github.com/MrSnakeDoc/herald/internal/httpserver"
	"github.com/MrSnakeDoc/herald/internal/httpserver/deps"
	"github.com/MrSnakeDoc/herald/internal/logger"
	"github.com/MrSnakeDoc/herald/internal/redis"
	"github.com/MrSnakeDoc/herald/internal/scheduler"
	"github.com/MrSnakeDoc/herald/internal/sources/catalog"
	redisstore "github.com/MrSnakeDoc/herald/internal/store/redis"
	"github.com/MrSnakeDoc/herald/internal/transport"
	"github.com/MrSnakeDoc/herald/internal/utils"
	"github.com/MrSnakeDoc/herald/internal/version"
)

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	server      *httpserver.Server
	redisClient *goredis.Client
	announcer   *announcer.Service
}

// New wires every component from cfg. Redis and the live backend are both
// optional at this point: an unreachable Redis is logged and skipped, an
// unreachable socket degrades to REST polling once Run connects.
func New(ctx context.Context, cfg *config.Config, loggerClient logger.Logger) (*App, error) {
	cat, err := catalog.NewLoader(cfg.CatalogFile).Load()
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	seed := catalog.NewMapper(time.Now).MapSeed(cat)
	loggerClient.Info("catalog loaded",
		logger.Int("seed", len(seed)),
		logger.Int("archetypes", len(cat.Archetypes)))

	// Redis only backs the snapshot, so it never blocks startup for good
	redisClient, snapshots := connectRedis(ctx, cfg, loggerClient)

	gwOpts := gateway.Options{
		BaseURL:        cfg.APIURL,
		Token:          cfg.Token,
		UserID:         cfg.UserID,
		RequestTimeout: cfg.RequestTimeout,
		MaxRetries:     cfg.MaxRetries,
		RetryInterval:  cfg.RetryInterval,
		Seed:           seed,
	}
	if snapshots != nil {
		gwOpts.Snapshots = snapshots
	}
	gw := gateway.NewClient(gwOpts, loggerClient.With(logger.String("component", "gateway")))

	if snapshots != nil {
		syncer := scheduler.NewSnapshotSyncer(snapshots, gw, loggerClient)
		if err := syncer.Sync(ctx); err != nil {
			loggerClient.Warn("failed to restore snapshot from redis, using catalog seed",
				logger.Error(err))
		}
	}

	svc := announcer.New(announcer.Options{
		UserID:              cfg.UserID,
		Role:                cfg.Role,
		CompanyID:           cfg.CompanyID,
		PollInterval:        cfg.PollInterval,
		SnoozeCheckInterval: cfg.SnoozeCheckInterval,
	}, nil, nil, gw, transportFactory(cfg, cat, loggerClient), loggerClient.With(logger.String("component", "announcer")))

	// Dependencies passed to routes (extend as needed).
	d := deps.Deps{
		Logger:          loggerClient,
		StartTime:       time.Now(),
		Version:         version.Version,
		Commit:          version.Commit,
		BuildDate:       version.BuildDate,
		GoVersion:       version.GoVersion,
		TimeNow:         time.Now,
		AllowedHosts:    cfg.AllowedHosts,
		AllowedCIDRS:    cfg.AllowedCIDRS,
		TrustProxy:      cfg.TrustProxy,
		Announcer:       svc,
		RedisClient:     redisClient,
		RateLimitBurst:  cfg.RateLimitBurst,
		RateLimitPerMin: cfg.RateLimitPerMin,
	}

	return &App{
		cfg:         cfg,
		logger:      loggerClient,
		server:      httpserver.New(cfg, loggerClient, d),
		redisClient: redisClient,
		announcer:   svc,
	}, nil
}

// transportFactory picks the transport once, from configuration.
func transportFactory(cfg *config.Config, cat *catalog.Catalog, log logger.Logger) announcer.TransportFactory {
	log = log.With(logger.String("component", "transport"))

	if cfg.Live {
		return func(h transport.Handler) transport.Transport {
			return transport.NewSocket(transport.SocketOptions{
				URL: cfg.SocketURL,
				OnStatus: func(st transport.Status) {
					log.Info("socket status changed", logger.String("status", string(st)))
				},
			}, h, log)
		}
	}

	return func(h transport.Handler) transport.Transport {
		return transport.NewSimulated(transport.SimulatedOptions{
			Interval:    cfg.SimInterval,
			Probability: cfg.SimProbability,
			Catalog:     cat,
		}, h, log)
	}
}

func connectRedis(ctx context.Context, cfg *config.Config, log logger.Logger) (*goredis.Client, *redisstore.Store) {
	client, err := redis.Connect(ctx, redis.ConnectOptions{
		Addr:           cfg.RedisAddr,
		User:           cfg.RedisUser,
		Password:       cfg.RedisPassword,
		DB:             cfg.RedisDB,
		DialTimeout:    cfg.RedisDT,
		ReadTimeout:    cfg.RedisRT,
		WriteTimeout:   cfg.RedisWT,
		PoolSize:       cfg.RedisPoolSize,
		ConnectTimeout: cfg.RedisConnectTimeout,
		RetryInterval:  cfg.RedisRetryInterval,
		MaxWait:        cfg.RedisMaxWait,
		PingTimeout:    cfg.RedisPingTimeout,
		WarnThreshold:  cfg.RedisWarnThreshold,
	}, log)
	switch {
	case errors.Is(err, redis.ErrDisabled):
		log.Info("redis not configured, snapshot kept in memory only")
		return nil, nil
	case err != nil:
		log.Warn("continuing without redis, snapshot kept in memory only", logger.Error(err))
		return nil, nil
	}

	// one snapshot per user, DefaultScope when none is configured
	return client, redisstore.NewStore(client, cfg.UserID)
}

// Run connects the feed, serves HTTP and blocks until ctx is cancelled or
// the server fails.
func (a *App) Run(ctx context.Context) error {
	a.logger.Infof("🚀 Starting Herald v%s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Info(version.String())

	if err := a.announcer.Connect(ctx, a.cfg.Token); err != nil {
		return fmt.Errorf("failed to connect announcer: %w", err)
	}
	st := a.announcer.Status()
	a.logger.Info("announcer started",
		logger.String("mode", string(st.Mode)),
		logger.String("transport", string(st.Transport)),
		logger.Duration("poll_interval", a.cfg.PollInterval))

	// Warm the store so the first client request does not pay for it
	if err := a.announcer.Refresh(ctx); err != nil {
		a.logger.Warn("initial refresh interrupted", logger.Error(err))
	}

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case runErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil && runErr == nil {
		runErr = fmt.Errorf("failed to stop server: %w", err)
	}

	a.announcer.Disconnect()

	if a.redisClient != nil {
		if utils.CloseLogged(a.redisClient, a.logger, "redis") {
			a.logger.Info("✅ Redis closed cleanly")
		}
	}

	if runErr == nil {
		a.logger.Info("✅ Herald stopped cleanly")
	}
	return runErr
}
