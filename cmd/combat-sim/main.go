package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/KirkDiggler/combat-engine/internal/config"
	"github.com/KirkDiggler/combat-engine/internal/entities"
	dnderr "github.com/KirkDiggler/combat-engine/internal/errors"
	"github.com/KirkDiggler/combat-engine/internal/events"
	"github.com/KirkDiggler/combat-engine/internal/logging"
	"github.com/KirkDiggler/combat-engine/internal/observe"
	"github.com/KirkDiggler/combat-engine/internal/repositories/encounters"
	"github.com/KirkDiggler/combat-engine/internal/services"
	"github.com/KirkDiggler/combat-engine/internal/services/encounter"
)

func main() {
	file := flag.String("file", "", "encounter data file (defaults to DATA_DIR/skirmish.yaml)")
	maxRounds := flag.Int("rounds", 20, "stop after this many rounds")
	deferred := flag.Bool("deferred", false, "answer interrupt prompts through awaiting/resume instead of inline")
	flag.Parse()

	// Load .env file
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(logging.Config{Level: cfg.LogLevel, Production: cfg.IsProduction()})
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if envErr != nil {
		logger.Debug("no .env file found")
	}

	path := *file
	if path == "" {
		path = filepath.Join(cfg.DataDir, "skirmish.yaml")
	}
	data, err := entities.LoadEncounterFile(path)
	if err != nil {
		logger.Fatal("failed to load encounter", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bus := events.NewBus(logger.Named("events"))
	bus.SubscribeAll(&events.ListenerFunc{
		Name: "printer",
		Handle: func(entry entities.LogEntry) error {
			fmt.Println(formatEntry(entry))
			return nil
		},
	})

	providerConfig := &services.ProviderConfig{
		Engine:    cfg.Engine,
		Source:    cfg.NewSource(),
		Publisher: bus,
		Metrics:   observe.DefaultMetrics(),
		Logger:    logger,
	}

	if redisClient := connectRedis(ctx, cfg.Redis.URL, logger); redisClient != nil {
		defer func() {
			if clientErr := redisClient.Close(); clientErr != nil {
				logger.Warn("failed to close Redis connection", zap.Error(clientErr))
			}
		}()
		providerConfig.Repository = encounters.NewRedisRepository(&encounters.RedisRepoConfig{
			Client: redisClient,
			TTL:    cfg.Redis.TTL,
		})
	}

	provider := services.NewProvider(providerConfig)

	enc, err := provider.EncounterService.StartEncounter(ctx, &encounter.StartEncounterInput{
		Name:         filepath.Base(path),
		Participants: data.Participants,
	})
	if err != nil {
		logger.Fatal("failed to start encounter", dnderr.Fields(err)...)
	}

	in := bufio.NewReader(os.Stdin)
	sim := &simulator{
		encounters: provider.EncounterService,
		ui:         newTerminalUI(in, os.Stdout, !*deferred),
		out:        os.Stdout,
		logger:     logger,
	}

	if err := sim.run(ctx, enc.ID, *maxRounds); err != nil {
		logger.Error("simulation stopped", dnderr.Fields(err)...)
		os.Exit(1)
	}
}

// connectRedis returns nil when no URL is set or Redis cannot be reached, in
// which case encounters are kept in memory.
func connectRedis(ctx context.Context, url string, logger *zap.Logger) *redis.Client {
	if url == "" {
		logger.Info("no REDIS_URL found, using in-memory repository")
		return nil
	}

	opts, err := redis.ParseURL(url)
	if err != nil {
		logger.Warn("failed to parse Redis URL, falling back to in-memory repository", zap.Error(err))
		return nil
	}

	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		logger.Warn("failed to connect to Redis, falling back to in-memory repository", zap.Error(err))
		return nil
	}

	logger.Info("using Redis for persistence", zap.String("addr", opts.Addr))
	return client
}
