package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/mymmrac/telego"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/cors"
	"golang.org/x/sync/errgroup"

	"campus_auction/internal/config"
	"campus_auction/internal/domain/service/auction"
	"campus_auction/internal/domain/service/favourite"
	"campus_auction/internal/domain/service/rating"
	"campus_auction/internal/infrastructure/events"
	"campus_auction/internal/infrastructure/memstore"
	"campus_auction/internal/infrastructure/notifier"
	"campus_auction/internal/infrastructure/persistence"
	"campus_auction/internal/infrastructure/scheduler"
	"campus_auction/internal/server"
	"campus_auction/internal/transport/bot"
	"campus_auction/internal/transport/bot/handler"
	"campus_auction/internal/worker"
	"campus_auction/pkg/application/connectors"
	"campus_auction/pkg/application/modules"
	"campus_auction/pkg/httpx"
	"campus_auction/pkg/logx"
	"campus_auction/pkg/middlewarex"
	"campus_auction/pkg/probe"
)

func Run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	g, ctx := errgroup.WithContext(ctx)

	checks := make(map[string]probe.Check)

	// 1. Storage
	stores, closeStorage := newStorage(ctx, cfg, checks)
	defer closeStorage()

	auctionSvc := auction.NewService(stores.auction)
	ratingSvc := rating.NewService(stores.rating)
	favouriteSvc := favourite.NewService(stores.favourite)

	// 2. Redis
	var redisConnector *connectors.Redis
	if cfg.NeedsRedis() {
		redisConnector = &connectors.Redis{
			Username:           cfg.Redis.Username,
			Password:           cfg.Redis.Password,
			Address:            cfg.Redis.Address,
			DatabaseNumber:     cfg.Redis.DatabaseNumber,
			PoolSize:           cfg.Redis.PoolSize,
			MinIdleConnections: cfg.Redis.MinIdleConnections,
			MaxIdleConnections: cfg.Redis.MaxIdleConnections,
		}
		redisConnector.Client(ctx)
		defer redisConnector.Close(ctx)

		checks["redis"] = redisConnector.Ping
	}

	// 3. Events
	fanout := events.NewFanout()

	if cfg.Redis.PublishEvents {
		fanout.Add("redis", events.NewRedisPublisher(redisConnector.Client(ctx), cfg.Redis.EventsPrefix))
	}

	if cfg.Nats.URL != "" {
		natsConnector := &connectors.Nats{URL: cfg.Nats.URL, Name: cfg.App.Name}
		defer natsConnector.Close(ctx)

		checks["nats"] = natsConnector.Ping

		js, err := jetstream.New(natsConnector.Client(ctx))
		if err != nil {
			return fmt.Errorf("jetstream.New: %w", err)
		}

		publisher, err := events.NewJetStreamPublisher(ctx, js, events.StreamOptions{
			Name:    cfg.Nats.Stream,
			Subject: cfg.Nats.Subject,
			MaxAge:  cfg.Nats.MaxAge,
		})
		if err != nil {
			return fmt.Errorf("events.NewJetStreamPublisher: %w", err)
		}

		fanout.Add("jetstream", publisher)
	}

	if cfg.Bot.Token != "" {
		alerts, err := newNotifier(cfg)
		if err != nil {
			return fmt.Errorf("newNotifier: %w", err)
		}

		fanout.Add("telegram", alerts)

		g.Go(func() error {
			return alerts.Run(ctx)
		})
	}

	auctionSvc.WithPublisher(fanout)

	// 4. Scheduler
	switch cfg.Auction.Scheduler {
	case config.SchedulerAsynq:
		redisOpt := asynq.RedisClientOpt{
			Addr:     cfg.Redis.Address,
			Username: cfg.Redis.Username,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DatabaseNumber,
		}

		client := asynq.NewClient(redisOpt)
		defer client.Close()

		inspector := asynq.NewInspector(redisOpt)
		defer inspector.Close()

		sched := scheduler.NewAsynqScheduler(client, inspector, scheduler.AsynqOptions{
			Queue:    cfg.Asynq.Queue,
			MaxRetry: cfg.Asynq.MaxRetry,
			DedupTTL: cfg.Asynq.DedupTTL,
		})
		auctionSvc.WithScheduler(sched)

		modules.AsynqServer{
			RedisUsername: cfg.Redis.Username,
			RedisPassword: cfg.Redis.Password,
			RedisAddress:  cfg.Redis.Address,
			RedisDB:       cfg.Redis.DatabaseNumber,
			Concurrency:   cfg.Asynq.Concurrency,
		}.Run(ctx, g, modules.AsynqQueues{cfg.Asynq.Queue: 1}, sched.Handler(auctionSvc))

	case config.SchedulerTimer:
		sched := scheduler.NewTimerScheduler(auctionSvc, scheduler.TimerOptions{
			InitialRetry: cfg.Auction.RetryInitial,
			MaxRetry:     cfg.Auction.RetryMax,
		})
		sched.Start(ctx)
		auctionSvc.WithScheduler(sched)
	}

	// 5. Reconciler: восстанавливает дедлайны после рестарта и подбирает пропущенные
	reconciler := worker.NewReconciler(auctionSvc).
		WithInterval(cfg.Auction.SweepInterval).
		WithBatch(cfg.Auction.SweepBatch)

	if err := reconciler.Start(ctx); err != nil {
		return fmt.Errorf("reconciler.Start: %w", err)
	}
	defer reconciler.Stop()

	if cfg.Bot.Token != "" && cfg.Bot.AdminID != 0 {
		console, err := bot.New(ctx, cfg.Bot.Token, cfg.Bot.AdminID,
			handler.New(ctx, auctionSvc, reconciler),
			telego.WithHTTPClient(newHTTPClient(cfg)),
		)
		if err != nil {
			return fmt.Errorf("bot.New: %w", err)
		}

		g.Go(func() error {
			return console.Run(ctx)
		})
	}

	// 6. HTTP
	srv := server.NewServer(
		server.NewAuctionServer(auctionSvc),
		server.NewRatingServer(ratingSvc),
		server.NewFavouriteServer(favouriteSvc),
	)

	modules.HTTPServer{ShutdownTimeout: cfg.HTTP.ShutdownTimeout}.Run(ctx, g, &http.Server{
		Addr:              cfg.HTTP.ListenAddress,
		Handler:           newRouter(cfg, log, srv),
		ReadHeaderTimeout: cfg.HTTP.ReadTimeout,
	})

	modules.ProbeServer{
		Name:          cfg.App.Name,
		Version:       cfg.App.Version,
		ListenAddress: cfg.Probe.ListenAddress,
		Checks:        checks,
	}.Run(ctx, g)

	modules.MetricServer{ListenAddress: cfg.Metrics.ListenAddress}.Run(ctx, g)

	log.Info("application started",
		slog.String("storage", cfg.Auction.Storage),
		slog.String("scheduler", cfg.Auction.Scheduler),
		slog.Int("publishers", fanout.Len()),
	)

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("errgroup.Wait: %w", err)
	}

	log.Info("application stopping...")

	return nil
}

type storage struct {
	auction   auction.Store
	rating    rating.Store
	favourite favourite.Store
}

func newStorage(ctx context.Context, cfg config.Config, checks map[string]probe.Check) (storage, func()) {
	if cfg.Auction.Storage == config.StorageMemory {
		store := memstore.New()
		return storage{
			auction:   store,
			rating:    store.Ratings(),
			favourite: store.Favourites(),
		}, func() {}
	}

	pg := &connectors.Postgres{
		DSN:             cfg.Postgres.DSN,
		MaxOpenConns:    cfg.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Postgres.MaxIdleConns,
		ConnMaxLifetime: cfg.Postgres.ConnMaxLifetime,
	}
	db := pg.Client(ctx)

	checks["postgres"] = pg.Ping

	return storage{
		auction:   persistence.NewAuctionRepository(db),
		rating:    persistence.NewRatingRepository(db),
		favourite: persistence.NewFavouriteRepository(db),
	}, func() { pg.Close(ctx) }
}

func newNotifier(cfg config.Config) (*notifier.TelegramBot, error) {
	return notifier.NewTelegramBot(cfg.Bot.Token, cfg.Bot.ChatID, telego.WithHTTPClient(newHTTPClient(cfg)))
}

// newHTTPClient логирует исходящие запросы к Telegram с замаскированным токеном.
func newHTTPClient(cfg config.Config) *http.Client {
	return &http.Client{
		Transport: httpx.NewLoggingRoundTripper(
			http.DefaultTransport,
			httpx.WithLogFieldMaxLen(cfg.Log.LogFieldMaxLen),
			httpx.WithSensitiveDataMasker(logx.NewSensitiveDataMasker()),
		),
	}
}

func newRouter(cfg config.Config, log *slog.Logger, srv server.Server) http.Handler {
	masker := logx.NewSensitiveDataMasker()

	r := chi.NewRouter()
	r.Use(
		middlewarex.TraceID,
		middlewarex.ContextLogger(log),
		middlewarex.Recovery,
		middlewarex.RequestLogging(masker, cfg.Log.LogFieldMaxLen),
		middlewarex.ResponseLogging(masker, cfg.Log.LogFieldMaxLen),
		middlewarex.UserID,
	)

	srv.RegisterRoutes(r)

	if len(cfg.HTTP.CORSOrigins) == 0 {
		return r
	}

	return cors.New(cors.Options{
		AllowedOrigins:   cfg.HTTP.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "X-User-Id", "X-Trace-Id"},
		AllowCredentials: true,
	}).Handler(r)
}
