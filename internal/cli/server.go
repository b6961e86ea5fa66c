package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"party-quiz-service/internal/app"
	"party-quiz-service/internal/config"
	"party-quiz-service/internal/infra/memory"
	pgstore "party-quiz-service/internal/infra/postgres"
	redisnotify "party-quiz-service/internal/infra/redis"
	"party-quiz-service/internal/logging"
	transport "party-quiz-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the party quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	// Storage: postgres when configured, in-memory otherwise. The in-memory
	// store is single-instance only; fine for demos and local use.
	var (
		parties app.PartyStore
		answers app.AnswerStore
	)
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
		store := pgstore.NewStore(pool)
		parties, answers = store, store
	} else {
		logging.Log.Warn("no postgres url configured, using in-memory store")
		store := memory.NewStore()
		parties, answers = store, store
	}

	// Realtime: redis pub/sub when configured so events reach every
	// instance; otherwise an in-process bus.
	var (
		notifier app.Notifier
		events   transport.EventSource
	)
	if cfg.Redis.Addr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
		n := redisnotify.NewNotifier(redisClient)
		notifier, events = n, n
	} else {
		logging.Log.Warn("no redis addr configured, realtime events stay in-process")
		bus := memory.NewBus()
		notifier, events = bus, bus
	}

	service := app.NewPartyService(parties, answers, notifier)
	service.SetNotifyTimeout(config.DurationOr(cfg.Notify.Timeout, 2*time.Second))
	router := transport.NewRouter(service, events)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logging.Log.Infof("starting party quiz service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-ctx.Done()
		logging.Log.Info("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return group.Wait()
}
