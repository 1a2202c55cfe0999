package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	gomongo "go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/sync/errgroup"

	"github.com/busnap/tracking-bridge/internal/api"
	"github.com/busnap/tracking-bridge/internal/core/ports"
	"github.com/busnap/tracking-bridge/internal/core/service"
	"github.com/busnap/tracking-bridge/internal/infrastructure/db/mongo"
	"github.com/busnap/tracking-bridge/internal/infrastructure/db/redis"
	httpserver "github.com/busnap/tracking-bridge/internal/infrastructure/http"
	"github.com/busnap/tracking-bridge/internal/infrastructure/keepalive"
	"github.com/busnap/tracking-bridge/internal/infrastructure/provider"
	"github.com/busnap/tracking-bridge/internal/infrastructure/queue"
	"github.com/busnap/tracking-bridge/internal/pkg/config"
	"github.com/busnap/tracking-bridge/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the tracking daemon",
	Long: `Runs the tracking daemon: the command channel, the event channel and the
tracking service behind them. Configuration comes from the environment
(PORT, PROVIDER, NMEA_DEVICE, REDIS_*, MONGO_*, LOG_LEVEL, ...).`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.LogPretty && !cfg.IsProduction(),
		Service: "busnap-tracker",
	})
	log.Info().Str("env", cfg.Env).Str("version", version).Str("provider", cfg.Tracking.Provider).Msg("starting")

	d, err := wire(ctx, cfg, log, nil)
	if err != nil {
		return err
	}
	defer d.close(log)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		d.looper.Run(gctx)
		return nil
	})
	g.Go(func() error {
		return httpserver.Serve(gctx, d.router, ":"+cfg.Port, logger.Component("http"))
	})
	runErr := g.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := d.tracking.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("tracking shutdown incomplete")
	}
	log.Info().Msg("stopped")
	return runErr
}

// daemon holds everything runServe starts and later tears down.
type daemon struct {
	router   *echo.Echo
	looper   *queue.Looper
	tracking *service.TrackingService

	mongoClient *gomongo.Client
	redisClient *goredis.Client
}

func (d *daemon) close(log zerolog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if d.mongoClient != nil {
		if err := d.mongoClient.Disconnect(ctx); err != nil {
			log.Warn().Err(err).Msg("mongo disconnect failed")
		}
	}
	if d.redisClient != nil {
		if err := d.redisClient.Close(); err != nil {
			log.Warn().Err(err).Msg("redis close failed")
		}
	}
}

// wire builds the object graph for cfg. Optional stores are only connected
// when enabled. A nil reg selects the global Prometheus registry.
func wire(ctx context.Context, cfg *config.Config, log zerolog.Logger, reg *prometheus.Registry) (*daemon, error) {
	d := &daemon{}
	deps := api.Dependencies{Log: logger.Component("api"), Registry: reg}

	var sessions ports.SessionRepository
	if cfg.Mongo.Enabled {
		client, db, err := mongo.Connect(ctx, mongo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return nil, err
		}
		d.mongoClient = client
		repo := mongo.NewSessionRepository(db)
		if err := repo.EnsureIndexes(ctx); err != nil {
			log.Warn().Err(err).Msg("failed to ensure session indexes")
		}
		sessions = repo
		deps.Mongo = db
		deps.Sessions = repo
	}

	var keepAlive ports.KeepAlive
	if cfg.Redis.Enabled {
		client, err := redis.Connect(ctx, redis.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err != nil {
			d.close(log)
			return nil, err
		}
		d.redisClient = client
		keepAlive = redis.NewLease(client, cfg.Tracking.LeaseTTL, logger.Component("lease"))
		deps.Redis = client
	} else {
		keepAlive = keepalive.NewLogLease(logger.Component("lease"))
	}

	var locations ports.LocationProvider
	switch cfg.Tracking.Provider {
	case config.ProviderNMEA:
		locations = provider.NewNMEAProvider(cfg.Tracking.NMEADevice, logger.Component("provider"))
	case config.ProviderPush:
		push := provider.NewPushProvider(logger.Component("provider"))
		locations = push
		deps.Ingester = push
	default:
		d.close(log)
		return nil, fmt.Errorf("unknown provider %q", cfg.Tracking.Provider)
	}

	relay := service.NewEventRelay(logger.Component("relay"))
	d.tracking = service.NewTrackingService(locations, keepAlive, relay, sessions, logger.Component("tracking"))
	d.looper = queue.NewLooper(cfg.Tracking.IntentBuffer, d.tracking, logger.Component("looper"))

	deps.Gateway = service.NewCommandGateway(d.looper, logger.Component("gateway"))
	deps.Tracking = d.tracking
	deps.Relay = relay
	d.router = api.NewRouter(deps)
	return d, nil
}
