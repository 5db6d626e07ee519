package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/url"
	"os"
	"time"

	"github.com/absmach/fedcoord/coordinator"
	"github.com/absmach/fedcoord/coordinator/api"
	"github.com/absmach/fedcoord/coordinator/middleware"
	"github.com/absmach/fedcoord/pkg/jaeger"
	"github.com/absmach/fedcoord/pkg/ledger"
	"github.com/absmach/fedcoord/pkg/mqtt"
	"github.com/absmach/fedcoord/pkg/prometheus"
	"github.com/absmach/fedcoord/pkg/server"
	httpserver "github.com/absmach/fedcoord/pkg/server/http"
	"github.com/absmach/fedcoord/pkg/storage"
	"github.com/caarlos0/env/v11"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/errgroup"
)

const (
	svcName         = "coordinator"
	defHTTPPort     = "7070"
	envPrefix       = "COORDINATOR_"
	envPrefixHTTP   = "COORDINATOR_HTTP_"
	envPrefixMQTT   = "COORDINATOR_MQTT_"
	envPrefixLedger = "COORDINATOR_LEDGER_"
	pathEnv         = ".env"

	ledgerNone = "none"
	ledgerMQTT = "mqtt"
	ledgerHTTP = "http"
)

type envConfig struct {
	LogLevel      string        `env:"COORDINATOR_LOG_LEVEL"      envDefault:"info"`
	InstanceID    string        `env:"COORDINATOR_INSTANCE_ID"`
	MQTTEnabled   bool          `env:"COORDINATOR_MQTT_ENABLED"   envDefault:"false"`
	LedgerType    string        `env:"COORDINATOR_LEDGER_TYPE"    envDefault:"none"`
	LedgerURL     string        `env:"COORDINATOR_LEDGER_URL"     envDefault:"http://localhost:8545"`
	LedgerTimeout time.Duration `env:"COORDINATOR_LEDGER_TIMEOUT" envDefault:"10s"`
	StopTimeout   time.Duration `env:"COORDINATOR_STOP_TIMEOUT"   envDefault:"10s"`
	Storage       storage.Config
	OTELURL       url.URL `env:"COORDINATOR_OTEL_URL"`
	TraceRatio    float64 `env:"COORDINATOR_TRACE_RATIO" envDefault:"0"`
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	g, ctx := errgroup.WithContext(ctx)

	if _, err := os.Stat(pathEnv); err == nil {
		_ = godotenv.Load(pathEnv)
	}

	cfg := envConfig{}
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("failed to load configuration : %s", err.Error())
	}

	if cfg.InstanceID == "" {
		cfg.InstanceID = uuid.NewString()
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		log.Fatalf("failed to parse log level: %s", err.Error())
	}
	logHandler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})
	logger := slog.New(logHandler)
	slog.SetDefault(logger)

	var tp trace.TracerProvider
	switch {
	case cfg.OTELURL == (url.URL{}):
		tp = noop.NewTracerProvider()
	default:
		sdktp, err := jaeger.NewProvider(ctx, svcName, cfg.OTELURL, cfg.InstanceID, cfg.TraceRatio)
		if err != nil {
			logger.Error("failed to initialize opentelemetry", slog.String("error", err.Error()))

			return
		}
		defer func() {
			if err := sdktp.Shutdown(context.Background()); err != nil {
				logger.Error("error shutting down tracer provider", slog.Any("error", err))
			}
		}()
		tp = sdktp
	}
	tracer := tp.Tracer(svcName)

	coordCfg := coordinator.Config{}
	if err := env.ParseWithOptions(&coordCfg, env.Options{Prefix: envPrefix}); err != nil {
		logger.Error(fmt.Sprintf("failed to load %s configuration : %s", svcName, err.Error()))

		return
	}

	repos, err := storage.NewRepositories(cfg.Storage)
	if err != nil {
		logger.Error("failed to initialize storage", slog.String("type", cfg.Storage.Type), slog.String("error", err.Error()))

		return
	}
	defer func() {
		if repos.Closer == nil {
			return
		}
		if err := repos.Closer.Close(); err != nil {
			logger.Error("failed to close storage", slog.Any("error", err))
		}
	}()

	var (
		pubsub   mqtt.PubSub
		mqttCfg  mqtt.Config
		notifier coordinator.Notifier
	)
	if cfg.MQTTEnabled {
		if err := env.ParseWithOptions(&mqttCfg, env.Options{Prefix: envPrefixMQTT}); err != nil {
			logger.Error(fmt.Sprintf("failed to load %s MQTT configuration : %s", svcName, err.Error()))

			return
		}
		pubsub, err = mqtt.NewPubSub(mqttCfg, logger)
		if err != nil {
			logger.Error("failed to initialize mqtt pubsub", slog.String("error", err.Error()))

			return
		}
		defer func() {
			if err := pubsub.Disconnect(context.Background()); err != nil {
				logger.Error("failed to disconnect mqtt pubsub", slog.Any("error", err))
			}
		}()
		notifier = coordinator.NewMQTTNotifier(pubsub, mqttCfg.BaseTopic)
	}

	var rewards coordinator.RewardDispatcher
	l, err := newLedger(cfg, pubsub, mqttCfg.BaseTopic)
	if err != nil {
		logger.Error("failed to initialize ledger", slog.String("error", err.Error()))

		return
	}
	if l != nil {
		dispatcherCfg := ledger.DispatcherConfig{}
		if err := env.ParseWithOptions(&dispatcherCfg, env.Options{Prefix: envPrefixLedger}); err != nil {
			logger.Error(fmt.Sprintf("failed to load %s ledger configuration : %s", svcName, err.Error()))

			return
		}
		dispatcher := ledger.NewDispatcher(l, dispatcherCfg, logger)
		g.Go(func() error {
			return dispatcher.Run(ctx)
		})
		rewards = dispatcher
	}

	svc, err := coordinator.NewService(coordCfg, repos, notifier, rewards, logger)
	if err != nil {
		logger.Error(fmt.Sprintf("failed to create %s service : %s", svcName, err.Error()))

		return
	}
	svc = middleware.Logging(logger, svc)
	svc = middleware.Tracing(tracer, svc)
	counter, latency := prometheus.MakeMetrics(svcName, "api")
	round := prometheus.MakeGauge(svcName, "rounds", "current_round", "Current training round.")
	accuracy := prometheus.MakeGauge(svcName, "rounds", "global_accuracy", "Global accuracy of the current model.")
	svc = middleware.Metrics(counter, latency, round, accuracy, svc)

	if err := svc.Restore(ctx); err != nil {
		logger.Error("failed to restore coordinator state", slog.String("error", err.Error()))

		return
	}

	triggerCfg := coordinator.TriggerConfig{}
	if err := env.ParseWithOptions(&triggerCfg, env.Options{Prefix: envPrefix}); err != nil {
		logger.Error(fmt.Sprintf("failed to load %s trigger configuration : %s", svcName, err.Error()))

		return
	}
	trigger, err := coordinator.NewTrigger(svc, triggerCfg, logger)
	if err != nil {
		logger.Error(fmt.Sprintf("failed to create %s trigger : %s", svcName, err.Error()))

		return
	}
	g.Go(func() error {
		return trigger.Run(ctx)
	})

	httpServerConfig := server.Config{Port: defHTTPPort}
	if err := env.ParseWithOptions(&httpServerConfig, env.Options{Prefix: envPrefixHTTP}); err != nil {
		logger.Error(fmt.Sprintf("failed to load %s HTTP server configuration : %s", svcName, err.Error()))

		return
	}

	hs := httpserver.NewServer(ctx, cancel, svcName, httpServerConfig, api.MakeHandler(svc, logger, cfg.InstanceID), logger)

	g.Go(func() error {
		return hs.Start()
	})

	g.Go(func() error {
		return server.StopSignalHandler(ctx, cancel, logger, svcName, hs)
	})

	if err := g.Wait(); err != nil {
		logger.Error(fmt.Sprintf("%s service exited with error: %s", svcName, err))
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), cfg.StopTimeout)
	defer stopCancel()
	if err := svc.Shutdown(stopCtx); err != nil {
		logger.Error("failed to persist coordinator state", slog.Any("error", err))
	}
}

func newLedger(cfg envConfig, pubsub mqtt.PubSub, baseTopic string) (ledger.Ledger, error) {
	switch cfg.LedgerType {
	case ledgerNone, "":
		return nil, nil
	case ledgerMQTT:
		if pubsub == nil {
			return nil, errors.New("mqtt ledger requires COORDINATOR_MQTT_ENABLED")
		}

		return ledger.NewMQTTLedger(pubsub, baseTopic), nil
	case ledgerHTTP:
		return ledger.NewHTTPLedger(cfg.LedgerURL, cfg.LedgerTimeout), nil
	default:
		return nil, fmt.Errorf("unsupported ledger type: %s", cfg.LedgerType)
	}
}
