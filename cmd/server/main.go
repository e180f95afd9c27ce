package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/terminal-bench/triagedesk/internal/config"
	"github.com/terminal-bench/triagedesk/internal/handlers"
	"github.com/terminal-bench/triagedesk/internal/logger"
	"github.com/terminal-bench/triagedesk/internal/metrics"
	"github.com/terminal-bench/triagedesk/internal/middleware"
	"github.com/terminal-bench/triagedesk/internal/services/notification"
	"github.com/terminal-bench/triagedesk/internal/services/triage"
)

const serviceName = "triagedesk"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.NewLogger(cfg.LogLevel, cfg.LogFormat, serviceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal("Server error", zap.Error(err))
	}
	log.Info("Server exiting")
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	m := metrics.New()
	hub := notification.NewHub(cfg.ObserverBuffer, log)
	m.RegisterHub(hub)

	relays, err := buildRelays(ctx, cfg, log)
	if err != nil {
		return err
	}

	publishers := notification.Fanout{hub}
	for _, relay := range relays {
		m.RegisterRelay(relay)
		publishers = append(publishers, relay)
	}

	triageService, err := triage.NewService(cfg, m.InstrumentPublisher(publishers), log)
	if err != nil {
		return fmt.Errorf("failed to create triage service: %w", err)
	}
	m.RegisterStaffing(triageService.Staffing)

	var limiter *middleware.RateLimiter
	if cfg.RateLimitRPS > 0 {
		limiter = middleware.NewRateLimiter(cfg.RateLimitRPS)
		limiter.StartCleanup(10*time.Minute, ctx.Done())
	}

	router := handlers.NewRouter(handlers.Dependencies{
		Config:  cfg,
		Triage:  triageService,
		Hub:     hub,
		Metrics: m,
		Limiter: limiter,
		Logger:  log,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, relay := range relays {
		relay := relay
		g.Go(func() error {
			return relay.Run(gctx)
		})
	}

	g.Go(func() error {
		log.Info("Server listening",
			zap.String("addr", srv.Addr),
			zap.Int("staff_count", cfg.StaffCount),
			zap.Int("relays", len(relays)),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}

func buildRelays(ctx context.Context, cfg *config.Config, log *zap.Logger) ([]*notification.Relay, error) {
	var relays []*notification.Relay

	if cfg.RedisURL != "" {
		sink, err := notification.NewRedisSink(ctx, cfg.RedisURL, cfg.RedisChannel)
		if err != nil {
			return nil, err
		}
		relays = append(relays, notification.NewRelay("redis", sink, cfg.RelayBuffer, log))
	}

	if cfg.NatsURL != "" {
		sink, err := notification.NewNATSSink(notification.NATSConfig{
			URL:            cfg.NatsURL,
			Name:           serviceName,
			SubjectPrefix:  cfg.NatsSubjectPrefix,
			ReconnectWait:  2 * time.Second,
			MaxReconnects:  -1,
			ConnectTimeout: 5 * time.Second,
		}, log)
		if err != nil {
			for _, r := range relays {
				r.Run(cancelledContext())
			}
			return nil, err
		}
		relays = append(relays, notification.NewRelay("nats", sink, cfg.RelayBuffer, log))
	}

	return relays, nil
}

// cancelledContext makes Relay.Run return at once and close its sink
func cancelledContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	return ctx
}
