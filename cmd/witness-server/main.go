package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/junonet/juno-witness-go/pkg/config"
	"github.com/junonet/juno-witness-go/pkg/logger"
	"github.com/junonet/juno-witness-go/pkg/node"
	"github.com/junonet/juno-witness-go/pkg/store"
	badgerstore "github.com/junonet/juno-witness-go/pkg/store/badger"
	memorystore "github.com/junonet/juno-witness-go/pkg/store/memory"
	redisstore "github.com/junonet/juno-witness-go/pkg/store/redis"
)

func main() {
	app := &cli.App{
		Name:  "witness-server",
		Usage: "Juno note commitment tree witness server",
		Description: `Maintains append-only note commitment trees and serves authentication
paths for tracked positions.

The server ingests commitments observed on the ledger, incrementally
maintains witnesses for tracked note positions, checkpoints tree state
ahead of new blocks, and rewinds past checkpoints on chain reorgs.`,
		Version: "1.0.0",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Value:   8080,
				Usage:   "HTTP server port",
				EnvVars: []string{config.EnvWitnessPort},
			},
			&cli.StringFlag{
				Name:    "store",
				Aliases: []string{"s"},
				Value:   string(config.StoreBackendMemory),
				Usage:   "snapshot store backend: memory, badger, or redis",
				EnvVars: []string{config.EnvWitnessStoreBackend},
			},
			&cli.StringFlag{
				Name:    "badger-path",
				Value:   "./witness-data",
				Usage:   "data directory for the badger backend",
				EnvVars: []string{config.EnvWitnessBadgerPath},
			},
			&cli.StringFlag{
				Name:    "redis-address",
				Usage:   "redis server address (host:port) for the redis backend",
				EnvVars: []string{config.EnvWitnessRedisAddress},
			},
			&cli.StringFlag{
				Name:    "redis-password",
				Usage:   "redis password",
				EnvVars: []string{config.EnvWitnessRedisPassword},
			},
			&cli.IntFlag{
				Name:    "redis-db",
				Value:   0,
				Usage:   "redis database number",
				EnvVars: []string{config.EnvWitnessRedisDB},
			},
			&cli.Float64Flag{
				Name:    "query-rate",
				Value:   0,
				Usage:   "max witness queries per second (0 disables limiting)",
				EnvVars: []string{config.EnvWitnessQueryRate},
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Usage:   "enable verbose logging",
				EnvVars: []string{config.EnvWitnessVerbose},
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(c *cli.Context) error {
	backend, err := config.ParseStoreBackend(c.String("store"))
	if err != nil {
		return err
	}

	cfg := &config.Config{
		Port:          c.Int("port"),
		StoreBackend:  backend,
		BadgerPath:    c.String("badger-path"),
		RedisAddress:  c.String("redis-address"),
		RedisPassword: c.String("redis-password"),
		RedisDB:       c.Int("redis-db"),
		QueryRate:     c.Float64("query-rate"),
		Verbose:       c.Bool("verbose"),
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	l, err := logger.NewLogger(&logger.LoggerConfig{Debug: cfg.Verbose})
	if err != nil {
		return err
	}
	defer func() { _ = l.Sync() }()

	st, err := newStore(cfg, l)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	sessions := node.NewSessionManager(st, l)
	if err := sessions.Restore(); err != nil {
		return err
	}

	server := node.NewServer(sessions, cfg.Port, cfg.QueryRate, l)
	if err := server.Start(); err != nil {
		return err
	}

	l.Sugar().Infow("Witness server running", "port", cfg.Port, "store", cfg.StoreBackend.String())

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	l.Info("Shutting down", zap.String("reason", "signal"))
	if err := sessions.PersistAll(); err != nil {
		l.Sugar().Errorw("Failed to persist sessions at shutdown", "error", err)
	}
	return server.Stop()
}

func newStore(cfg *config.Config, l *zap.Logger) (store.SnapshotStore, error) {
	switch cfg.StoreBackend {
	case config.StoreBackendBadger:
		return badgerstore.NewBadgerStore(cfg.BadgerPath, l)
	case config.StoreBackendRedis:
		return redisstore.NewRedisStore(&redisstore.RedisConfig{
			Address:  cfg.RedisAddress,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}, l)
	default:
		l.Warn("Using in-memory snapshot store; sessions will not survive a restart")
		return memorystore.NewMemoryStore(), nil
	}
}
