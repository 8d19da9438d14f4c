package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"beneficiary-data/internal/authz"
	"beneficiary-data/internal/config"
	"beneficiary-data/internal/database"
	"beneficiary-data/internal/events"
	httpapi "beneficiary-data/internal/http"
	"beneficiary-data/internal/logger"
	"beneficiary-data/internal/repository"
	"beneficiary-data/internal/service"
	"beneficiary-data/internal/store"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// streamMaxLen caps the event stream (approximate trimming).
const streamMaxLen = 100_000

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "beneficiary-data")
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("beneficiary-data stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var closers []func()
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}()

	st, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	closers = append(closers, closeStore)

	// redis is shared by sessions and the event stream
	var rdb *redis.Client
	if cfg.Session.Backend == "redis" || cfg.Events.Backend == "redis" {
		rdb, err = database.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return err
		}
		closers = append(closers, func() { _ = rdb.Close() })
	}

	var kv store.KV = store.NewMemoryKV()
	if cfg.Session.Backend == "redis" {
		kv = store.NewRedisKV(rdb)
	}
	sessions := store.NewSessionStore(kv, cfg.Session.TTL)

	var pub events.Publisher = events.NopPublisher{}
	switch cfg.Events.Backend {
	case "redis":
		pub = events.NewRedisStreamPublisher(rdb, cfg.Redis.Stream, streamMaxLen)
	case "mqtt":
		mp, err := events.NewMQTTPublisher(events.MQTTConfig{
			Broker:      cfg.MQTT.Broker,
			ClientID:    cfg.MQTT.ClientID,
			Username:    cfg.MQTT.Username,
			Password:    cfg.MQTT.Password,
			TopicPrefix: cfg.MQTT.TopicPrefix,
			QoS:         byte(cfg.MQTT.QoS),
		})
		if err != nil {
			return err
		}
		closers = append(closers, mp.Close)
		pub = mp
	}
	log.Info("backends ready",
		zap.String("store", cfg.StoreBackend),
		zap.String("sessions", cfg.Session.Backend),
		zap.String("events", cfg.Events.Backend),
	)

	bulk := service.BulkOptions{ChunkSize: cfg.Bulk.ChunkSize, Concurrency: cfg.Bulk.Concurrency}
	checker := authz.NewChecker(st.Members, log)
	api := httpapi.NewAPI(httpapi.Services{
		Auth:          service.NewAuthService(st.Users, sessions, log),
		Teams:         service.NewTeamService(st, checker, log),
		Beneficiaries: service.NewBeneficiaryService(st.Beneficiaries, checker, pub, bulk, cfg.Import.MaxBytes, log),
		FormLinks:     service.NewFormLinkService(st.FormLinks, checker, cfg.HTTP.PublicBaseURL, log),
		Submissions:   service.NewSubmissionService(st, checker, pub, bulk, log),
	}, cfg.Import.MaxBytes, log)

	srv := service.NewServer(cfg.HTTP.Addr, api, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("shutting down", zap.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	return srv.Stop(shutdownCtx)
}

// openStore connects the configured repository backend.
func openStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (*repository.Store, func(), error) {
	switch cfg.StoreBackend {
	case "postgres":
		db, err := database.NewPostgresDB(&cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		if cfg.Database.Migrate {
			if err := repository.Migrate(ctx, db); err != nil {
				db.Close()
				return nil, nil, err
			}
			log.Info("database schema applied")
		}
		return repository.NewPostgresStore(db), func() { _ = db.Close() }, nil

	case "mongo":
		client, err := database.ConnectMongo(ctx, cfg.Mongo.URI)
		if err != nil {
			return nil, nil, err
		}
		db := client.Database(cfg.Mongo.Database)
		if err := repository.EnsureMongoIndexes(ctx, db); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, nil, err
		}
		return repository.NewMongoStore(repository.NewMongoProvider(db)), func() {
			_ = client.Disconnect(context.Background())
		}, nil

	default:
		log.Warn("using the in-memory store; data is lost on restart")
		return repository.NewMemoryStore(), func() {}, nil
	}
}
