package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/subtrackhq/notify/pkg/config"
	"github.com/subtrackhq/notify/pkg/delivlog"
	"github.com/subtrackhq/notify/pkg/dispatch"
	"github.com/subtrackhq/notify/pkg/engine"
	"github.com/subtrackhq/notify/pkg/httpapi"
	"github.com/subtrackhq/notify/pkg/httpserver"
	"github.com/subtrackhq/notify/pkg/inbox"
	"github.com/subtrackhq/notify/pkg/logger"
	"github.com/subtrackhq/notify/pkg/mail"
	"github.com/subtrackhq/notify/pkg/pg"
	"github.com/subtrackhq/notify/pkg/preferences"
	"github.com/subtrackhq/notify/pkg/queue"
	"github.com/subtrackhq/notify/pkg/ratelimit"
	"github.com/subtrackhq/notify/pkg/templates"
)

type appConfig struct {
	Environment string `env:"APP_ENV" envDefault:"development"`

	WorkerPollInterval time.Duration `env:"WORKER_POLL_INTERVAL" envDefault:"5s"`
	WorkerBatchSize    int           `env:"WORKER_BATCH_SIZE" envDefault:"10"`
	WorkerConcurrency  int           `env:"WORKER_CONCURRENCY" envDefault:"4"`

	// Zero keeps retried items immediately eligible at the next sweep.
	RetryBackoffStep time.Duration `env:"RETRY_BACKOFF_STEP" envDefault:"0s"`

	// Zero burst disables API rate limiting.
	RateLimitBurst    int           `env:"RATE_LIMIT_BURST" envDefault:"60"`
	RateLimitRefill   int           `env:"RATE_LIMIT_REFILL" envDefault:"60"`
	RateLimitInterval time.Duration `env:"RATE_LIMIT_INTERVAL" envDefault:"1m"`

	PreferenceCacheSize int           `env:"PREFERENCE_CACHE_SIZE" envDefault:"1024"`
	PreferenceCacheTTL  time.Duration `env:"PREFERENCE_CACHE_TTL" envDefault:"1m"`
	TemplateCacheSize   int           `env:"TEMPLATE_CACHE_SIZE" envDefault:"256"`
	TemplateCacheTTL    time.Duration `env:"TEMPLATE_CACHE_TTL" envDefault:"5m"`
}

func main() {
	var (
		appCfg  appConfig
		pgCfg   pg.Config
		mailCfg mail.Config
		httpCfg httpserver.Config
	)
	config.MustLoad(&appCfg)
	config.MustLoad(&pgCfg)
	config.MustLoad(&mailCfg)
	config.MustLoad(&httpCfg)

	logOpt := logger.WithDevelopment("notifyd")
	if appCfg.Environment == "production" {
		logOpt = logger.WithProduction("notifyd")
	}
	log := logger.New(logOpt)
	logger.SetAsDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := pg.Connect(ctx, pgCfg)
	if err != nil {
		log.Error("failed to connect to postgres", logger.Error(err))
		os.Exit(1)
	}
	defer pool.Close()

	if err := pg.Migrate(ctx, pool, pgCfg, log); err != nil {
		log.Error("failed to apply migrations", logger.Error(err))
		os.Exit(1)
	}

	resolver, err := preferences.NewResolver(preferences.NewPGStorage(pool),
		preferences.WithResolverLogger(log),
		preferences.WithRowCache(appCfg.PreferenceCacheSize, appCfg.PreferenceCacheTTL),
	)
	if err != nil {
		log.Error("failed to build preference resolver", logger.Error(err))
		os.Exit(1)
	}

	renderer, err := templates.NewRenderer(templates.NewPGStorage(pool),
		templates.WithTemplateCache(appCfg.TemplateCacheSize, appCfg.TemplateCacheTTL),
	)
	if err != nil {
		log.Error("failed to build template renderer", logger.Error(err))
		os.Exit(1)
	}

	var transport mail.TransportSender
	if mailCfg.PostmarkServerToken != "" {
		transport, err = mail.NewPostmarkSender(mailCfg)
		if err != nil {
			log.Error("failed to build postmark sender", logger.Error(err))
			os.Exit(1)
		}
	} else {
		log.Warn("no postmark token configured, writing outgoing mail to disk",
			"dir", mailCfg.DevOutputDir)
		transport = mail.NewDevSender(mailCfg.DevOutputDir)
	}

	inboxStorage := inbox.NewPGStorage(pool)
	registry := dispatch.NewRegistry(
		dispatch.NewEmailSender(transport),
		dispatch.NewSMSSender(),
		dispatch.NewPushSender(),
		dispatch.NewInAppSender(inboxStorage),
	)

	var queueOpts []queue.StorageOption
	if appCfg.RetryBackoffStep > 0 {
		queueOpts = append(queueOpts, queue.WithBackoff(queue.LinearBackoff(appCfg.RetryBackoffStep)))
	}
	queueStorage := queue.NewPGStorage(pool, queueOpts...)

	recorder, err := delivlog.NewRecorder(delivlog.NewPGStorage(pool))
	if err != nil {
		log.Error("failed to build delivery recorder", logger.Error(err))
		os.Exit(1)
	}

	eng, err := engine.New(resolver, renderer, registry, queueStorage, recorder,
		engine.WithLogger(log))
	if err != nil {
		log.Error("failed to build notification engine", logger.Error(err))
		os.Exit(1)
	}

	worker, err := queue.NewWorker(queueStorage, eng,
		queue.WithPollInterval(appCfg.WorkerPollInterval),
		queue.WithClaimBatchSize(appCfg.WorkerBatchSize),
		queue.WithMaxConcurrent(appCfg.WorkerConcurrency),
		queue.WithWorkerLogger(log),
	)
	if err != nil {
		log.Error("failed to build queue worker", logger.Error(err))
		os.Exit(1)
	}

	apiOpts := []httpapi.Option{
		httpapi.WithLogger(log),
		httpapi.WithHealthChecks(pg.Healthcheck(pool)),
	}
	if appCfg.RateLimitBurst > 0 {
		store := ratelimit.NewMemoryStore()
		defer store.Close()
		limiter, err := ratelimit.NewLimiter(store, ratelimit.Limit{
			Burst:    appCfg.RateLimitBurst,
			Refill:   appCfg.RateLimitRefill,
			Interval: appCfg.RateLimitInterval,
		})
		if err != nil {
			log.Error("failed to build rate limiter", logger.Error(err))
			os.Exit(1)
		}
		apiOpts = append(apiOpts, httpapi.WithRateLimiter(limiter))
	}

	api, err := httpapi.New(eng, recorder, inboxStorage, apiOpts...)
	if err != nil {
		log.Error("failed to build http api", logger.Error(err))
		os.Exit(1)
	}

	srv := httpserver.New(httpCfg, httpserver.WithLogger(log))

	g, ctx := errgroup.WithContext(ctx)
	g.Go(worker.Run(ctx))
	g.Go(httpserver.Run(ctx, srv, api.Router()))

	if err := g.Wait(); err != nil {
		log.Error("daemon stopped with error", logger.Error(err))
		os.Exit(1)
	}
	log.Info("daemon stopped")
}
