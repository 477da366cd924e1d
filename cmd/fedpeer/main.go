package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/url"
	"os"
	"time"

	"github.com/0x6flab/namegenerator"
	"github.com/absmach/supermq/pkg/jaeger"
	"github.com/absmach/supermq/pkg/prometheus"
	"github.com/absmach/supermq/pkg/server"
	httpserver "github.com/absmach/supermq/pkg/server/http"
	"github.com/caarlos0/env/v11"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	fedpeer "github.com/yahyaAbdulSattar/major-project"
	"github.com/yahyaAbdulSattar/major-project/coordinator"
	"github.com/yahyaAbdulSattar/major-project/coordinator/api"
	"github.com/yahyaAbdulSattar/major-project/coordinator/middleware"
	"github.com/yahyaAbdulSattar/major-project/pkg/cron"
	"github.com/yahyaAbdulSattar/major-project/pkg/events"
	"github.com/yahyaAbdulSattar/major-project/pkg/fl"
	"github.com/yahyaAbdulSattar/major-project/pkg/mqtt"
	"github.com/yahyaAbdulSattar/major-project/pkg/peers"
	"github.com/yahyaAbdulSattar/major-project/pkg/registry"
	"github.com/yahyaAbdulSattar/major-project/pkg/scheduler"
	"github.com/yahyaAbdulSattar/major-project/pkg/storage"
	"github.com/yahyaAbdulSattar/major-project/pkg/transport"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/errgroup"
)

const (
	svcName           = "fedpeer"
	defHTTPPort       = "7070"
	envPrefixHTTP     = "FEDPEER_HTTP_"
	envPrefixMQTT     = "FEDPEER_MQTT_"
	envPrefixRegistry = "FEDPEER_REGISTRY_"
	pathEnv           = ".env"
	shutdownTimeout   = 10 * time.Second
)

type envConfig struct {
	LogLevel         string        `env:"FEDPEER_LOG_LEVEL"         envDefault:"info"`
	InstanceID       string        `env:"FEDPEER_INSTANCE_ID"`
	PeerID           string        `env:"FEDPEER_PEER_ID"`
	ConfigFile       string        `env:"FEDPEER_CONFIG_FILE"`
	AliveInterval    time.Duration `env:"FEDPEER_ALIVE_INTERVAL"    envDefault:"10s"`
	AliveTimeout     time.Duration `env:"FEDPEER_ALIVE_TIMEOUT"     envDefault:"30s"`
	CollectWindow    time.Duration `env:"FEDPEER_COLLECT_WINDOW"    envDefault:"30s"`
	ActivityCapacity int           `env:"FEDPEER_ACTIVITY_CAPACITY" envDefault:"100"`
	EventBuffer      int           `env:"FEDPEER_EVENT_BUFFER"      envDefault:"32"`
	CheckpointDir    string        `env:"FEDPEER_CHECKPOINT_DIR"`
	RoundSchedule    string        `env:"FEDPEER_ROUND_SCHEDULE"`
	RoundTimezone    string        `env:"FEDPEER_ROUND_TIMEZONE"`
	RoundMaxPeers    int           `env:"FEDPEER_ROUND_MAX_PARTICIPANTS" envDefault:"0"`
	Storage          storage.Config
	OTELURL          url.URL `env:"FEDPEER_OTEL_URL"`
	TraceRatio       float64 `env:"FEDPEER_TRACE_RATIO" envDefault:"0"`
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

	mqttCfg := mqtt.Config{}
	if err := env.ParseWithOptions(&mqttCfg, env.Options{Prefix: envPrefixMQTT}); err != nil {
		log.Fatalf("failed to load mqtt configuration : %s", err.Error())
	}

	registryCfg := registry.Config{}
	if err := env.ParseWithOptions(&registryCfg, env.Options{Prefix: envPrefixRegistry}); err != nil {
		log.Fatalf("failed to load registry configuration : %s", err.Error())
	}

	var fileCfg *fedpeer.Config
	if cfg.ConfigFile != "" {
		var err error
		if fileCfg, err = fedpeer.LoadConfig(cfg.ConfigFile); err != nil {
			log.Fatalf("failed to load config file: %s", err.Error())
		}
		mergeFileConfig(&cfg, &mqttCfg, fileCfg)
	}

	if cfg.InstanceID == "" {
		cfg.InstanceID = uuid.NewString()
	}
	if cfg.PeerID == "" {
		cfg.PeerID = namegenerator.NewGenerator().Generate()
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		log.Fatalf("failed to parse log level: %s", err.Error())
	}
	logHandler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})
	logger := slog.New(logHandler).With(slog.String("peer_id", cfg.PeerID))
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

	repos, err := storage.NewRepositories(cfg.Storage)
	if err != nil {
		logger.Error("failed to initialize storage", slog.String("error", err.Error()))

		return
	}
	logger.Info("storage ready", slog.String("type", cfg.Storage.Type), slog.Bool("persistent", repos.Persistent()))
	defer func() {
		if err := repos.Close(); err != nil {
			logger.Error("failed to close storage", slog.Any("error", err))
		}
	}()

	activity := peers.NewActivityLog(cfg.ActivityCapacity)
	directory := peers.NewDirectory(repos.Peers, activity, peers.WithAliveTimeout(cfg.AliveTimeout))
	bus := events.NewBus(cfg.EventBuffer)
	topics := transport.NewTopics(mqttCfg.BaseTopic)

	mqttPubSub, err := mqtt.NewPubSub(mqttCfg, cfg.PeerID, transport.OfflineWill(topics, cfg.PeerID), logger)
	if err != nil {
		logger.Error("failed to initialize mqtt pubsub", slog.String("error", err.Error()))

		return
	}
	defer func() {
		if err := mqttPubSub.Disconnect(context.Background()); err != nil {
			logger.Error("failed to disconnect mqtt", slog.Any("error", err))
		}
	}()

	exchange := transport.NewExchange(mqttPubSub, topics, cfg.PeerID, cfg.CollectWindow, logger)
	if err := exchange.Start(ctx); err != nil {
		logger.Error("failed to subscribe to peer weights", slog.String("error", err.Error()))

		return
	}

	opts := []coordinator.Option{
		coordinator.WithPeerID(cfg.PeerID),
		coordinator.WithSnapshotSource(exchange),
		coordinator.WithWeightPublisher(exchange),
	}
	checkpoints, err := newCheckpointer(registryCfg, cfg.CheckpointDir, cfg.PeerID)
	if err != nil {
		logger.Error("failed to initialize checkpoints", slog.String("error", err.Error()))

		return
	}
	if checkpoints != nil {
		opts = append(opts, coordinator.WithCheckpointer(checkpoints))
	}

	svc, err := coordinator.NewService(ctx, repos.Rounds, directory, activity, bus, logger, opts...)
	if err != nil {
		logger.Error("failed to create coordinator", slog.String("error", err.Error()))

		return
	}
	defer func() {
		shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
		defer stop()
		if err := svc.Shutdown(shutdownCtx); err != nil {
			logger.Error("failed to shut down coordinator", slog.Any("error", err))
		}
	}()

	if fileCfg != nil {
		if m, ok := fileCfg.InitialModel(); ok {
			if _, err := svc.InitializeModel(ctx, m); err != nil {
				logger.Error("failed to initialize model from config file", slog.String("error", err.Error()))

				return
			}
		}
	}

	svc = middleware.Logging(logger, svc)
	svc = middleware.Tracing(tracer, svc)
	counter, latency := prometheus.MakeMetrics(svcName, "api")
	svc = middleware.Metrics(counter, latency, svc)

	presence := transport.NewPresence(mqttPubSub, topics, cfg.PeerID, directory, cfg.AliveInterval, logger)
	relay := transport.NewRelay(mqttPubSub, topics, cfg.PeerID, logger)

	if cfg.RoundSchedule != "" {
		schedule, err := cron.Parse(cfg.RoundSchedule, cfg.RoundTimezone)
		if err != nil {
			logger.Error("failed to parse round schedule", slog.String("error", err.Error()))

			return
		}
		var fixed []string
		if fileCfg != nil {
			fixed = fileCfg.Node.Participants
		}
		auto := coordinator.NewAutoRounds(svc, schedule, scheduler.NewRoundRobin(), fixed, cfg.RoundMaxPeers, logger)
		g.Go(func() error {
			return auto.Run(ctx)
		})
	}

	httpServerConfig := server.Config{Port: defHTTPPort}
	if err := env.ParseWithOptions(&httpServerConfig, env.Options{Prefix: envPrefixHTTP}); err != nil {
		logger.Error(fmt.Sprintf("failed to load %s HTTP server configuration : %s", svcName, err.Error()))

		return
	}

	hs := httpserver.NewServer(ctx, cancel, svcName, httpServerConfig, api.MakeHandler(svc, logger, cfg.InstanceID), logger)

	g.Go(func() error {
		return presence.Run(ctx)
	})

	g.Go(func() error {
		return relay.Run(ctx, svc.Subscribe(ctx))
	})

	g.Go(func() error {
		return hs.Start()
	})

	g.Go(func() error {
		return server.StopSignalHandler(ctx, cancel, logger, svcName, hs)
	})

	if err := g.Wait(); err != nil {
		logger.Error(fmt.Sprintf("%s service exited with error: %s", svcName, err))
	}
}

// mergeFileConfig fills settings the environment left empty from the node
// config file.
func mergeFileConfig(cfg *envConfig, mqttCfg *mqtt.Config, file *fedpeer.Config) {
	if cfg.PeerID == "" {
		cfg.PeerID = file.Node.PeerID
	}
	if mqttCfg.Username == "" {
		mqttCfg.Username = file.MQTT.Username
	}
	if mqttCfg.Password == "" {
		mqttCfg.Password = file.MQTT.Password
	}
	if _, set := os.LookupEnv(envPrefixMQTT + "BASE_TOPIC"); !set && file.MQTT.BaseTopic != "" {
		mqttCfg.BaseTopic = file.MQTT.BaseTopic
	}
}

// newCheckpointer prefers the OCI registry and falls back to a plain
// directory. It returns nil when neither is configured.
func newCheckpointer(cfg registry.Config, dir, peerID string) (coordinator.Checkpointer, error) {
	if cfg.Type != registry.TypeNone {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		c, err := registry.NewFromConfig(cfg, peerID)
		if err != nil {
			return nil, err
		}

		return c, nil
	}
	if dir != "" {
		return fl.NewFileCheckpoints(dir)
	}

	return nil, nil
}
