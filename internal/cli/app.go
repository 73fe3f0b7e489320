package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	goredis "github.com/redis/go-redis/v9"

	"chessd/internal/config"
	"chessd/internal/logger"
	"chessd/internal/mongo"
	"chessd/internal/mysql"
	chessotel "chessd/internal/otel"
	"chessd/internal/redis"
	"chessd/pkg/game"
	"chessd/pkg/notify"
	"chessd/pkg/reaper"
	"chessd/pkg/rules"
)

// app holds the process-wide dependencies shared by every command.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	repo   game.Repository
	redis  *goredis.Client

	closers []func(context.Context) error
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:    cfg,
		logger: logger.Load(cfg.LogLevel, cfg.LogFormat),
	}

	shutdown, err := chessotel.Setup(ctx, applicationName, cfg.OTelEndpoint)
	if err != nil {
		return nil, fmt.Errorf("tracing setup: %w", err)
	}
	a.closers = append(a.closers, shutdown)

	if err := a.openStore(ctx); err != nil {
		a.Close(context.Background())
		return nil, err
	}
	return a, nil
}

func (a *app) openStore(ctx context.Context) error {
	switch a.cfg.StoreDriver {
	case config.StoreMongo:
		client, db, err := mongo.LoadDB(ctx, a.cfg.MongoURI, a.cfg.MongoDBName)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, client.Disconnect)

		repo := game.NewMongoRepo(db)
		if err := repo.EnsureIndexes(ctx); err != nil {
			return err
		}
		a.repo = repo
	case config.StoreMySQL:
		db, err := mysql.LoadDB(ctx, a.cfg.MySQLDSN)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, func(context.Context) error { return db.Close() })
		a.repo = game.NewMySQLRepo(db)
	case config.StoreMemory:
		a.logger.Warn("using in-memory store, games are lost on restart")
		a.repo = game.NewMemoryRepo()
	default:
		return fmt.Errorf("unknown store driver %q", a.cfg.StoreDriver)
	}
	a.logger.Info("store ready", "driver", a.cfg.StoreDriver)
	return nil
}

func (a *app) redisClient(ctx context.Context) (*goredis.Client, error) {
	if a.redis != nil {
		return a.redis, nil
	}
	client, err := redis.Connect(ctx, redis.Options{
		Addr:     a.cfg.RedisAddr,
		Password: a.cfg.RedisPassword,
		DB:       a.cfg.RedisDB,
	})
	if err != nil {
		return nil, err
	}
	a.redis = client
	a.closers = append(a.closers, func(context.Context) error { return client.Close() })
	return client, nil
}

func (a *app) sink(ctx context.Context) (notify.Sink, error) {
	if a.cfg.NotifyDriver == config.NotifyLog {
		return notify.NewLogSink(a.logger), nil
	}
	client, err := a.redisClient(ctx)
	if err != nil {
		return nil, err
	}
	return notify.NewRedisSink(client, a.cfg.NotifyStream, a.cfg.NotifyStreamMax), nil
}

func (a *app) deliverer() notify.Deliverer {
	if a.cfg.SlackToken != "" {
		return notify.NewSlackDeliverer(a.cfg.SlackToken)
	}
	return &notify.LogDeliverer{Logger: a.logger}
}

func (a *app) consumer(ctx context.Context) (*notify.Consumer, error) {
	client, err := a.redisClient(ctx)
	if err != nil {
		return nil, err
	}
	return notify.NewConsumer(client, notify.ConsumerConfig{
		Stream:      a.cfg.NotifyStream,
		FrontendURL: a.cfg.FrontendBaseURL,
		Block:       consumerBlock,
	}, a.deliverer(), a.logger), nil
}

func (a *app) service(ctx context.Context) (*game.Service, error) {
	sink, err := a.sink(ctx)
	if err != nil {
		return nil, err
	}
	return game.NewService(a.repo, rules.NewChessEngine(), sink, game.NewTokenIssuer(a.cfg.TokenHashCost), a.logger), nil
}

func (a *app) scheduler() *reaper.Scheduler {
	return reaper.NewScheduler(a.repo, reaper.Config{
		FinishedEvery: a.cfg.ReapFinishedEvery,
		StaleEvery:    a.cfg.ReapStaleEvery,
		StaleAfter:    a.cfg.StaleAfter,
	}, a.logger)
}

// closeLogged is deferred by every command after newApp succeeds.
func (a *app) closeLogged() {
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()
	if err := a.Close(ctx); err != nil {
		a.logger.Error("shutdown", "error", err)
	}
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
