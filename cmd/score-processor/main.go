package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/arcadelab/high-score-processor/internal/achievement"
	"github.com/arcadelab/high-score-processor/internal/catalog"
	"github.com/arcadelab/high-score-processor/internal/challenge"
	appcfg "github.com/arcadelab/high-score-processor/internal/config"
	"github.com/arcadelab/high-score-processor/internal/metrics"
	"github.com/arcadelab/high-score-processor/internal/notify"
	"github.com/arcadelab/high-score-processor/internal/obslog"
	"github.com/arcadelab/high-score-processor/internal/processor"
	"github.com/arcadelab/high-score-processor/internal/scores"
	"github.com/arcadelab/high-score-processor/internal/store"
	"github.com/arcadelab/high-score-processor/internal/stream"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer obslog.L().Sync()

	cat, err := catalog.New(cfg.CatalogPath)
	if err != nil {
		obslog.L().Fatal("catalog load failed", zap.Error(err))
	}
	obslog.L().Info("catalog loaded", zap.Int("games", cat.Size()))

	st, err := store.Open(cfg.DatabaseURL)
	if err != nil {
		obslog.L().Fatal("postgres connect failed", zap.Error(err))
	}
	defer st.Close()

	rdb, err := openRedis(cfg.RedisURL)
	if err != nil {
		obslog.L().Fatal("redis connect failed", zap.Error(err))
	}
	defer rdb.Close()

	m := metrics.New("hsp")
	if cfg.MetricsAddr != "" {
		go func() {
			if err := metrics.Serve(cfg.MetricsAddr); err != nil {
				obslog.L().Error("metrics listener stopped", zap.Error(err))
			}
		}()
	}

	evaluator := achievement.NewEvaluator(st, st)
	scoreSvc := scores.NewService(st, cat, evaluator)
	resolver := challenge.NewResolver(st, notify.NewPublisher(rdb), cfg.CommunityChannel)
	proc := processor.New(scoreSvc, evaluator, resolver, m)

	sub, err := stream.NewSubscriber(rdb, cfg.ScoreChannel)
	if err != nil {
		obslog.L().Fatal("subscriber init failed", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	obslog.L().Info("starting processor", zap.String("channel", cfg.ScoreChannel))
	if err := sub.Run(ctx, proc.Handle); err != nil && !errors.Is(err, context.Canceled) {
		obslog.L().Fatal("subscriber stopped", zap.Error(err))
	}
	obslog.L().Info("processor shut down")
}

func openRedis(rawURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, err
	}
	return rdb, nil
}
