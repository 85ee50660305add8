package main

import (
	"context"
	"fmt"
	"os"

	"github.com/crlsmrls/lixservice/config"
	"github.com/crlsmrls/lixservice/internal/cache"
	"github.com/crlsmrls/lixservice/internal/jobs"
	"github.com/crlsmrls/lixservice/internal/pubsub"
	"github.com/crlsmrls/lixservice/internal/queue"
	"github.com/crlsmrls/lixservice/internal/readability"
	"github.com/crlsmrls/lixservice/internal/registry"
	"github.com/crlsmrls/lixservice/logger"
	"github.com/crlsmrls/lixservice/metrics"
	"github.com/crlsmrls/lixservice/server"
	"github.com/rs/zerolog/log"
)

const serviceName = "lixservice"

func main() {
	cfg, err := config.New()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load configuration:", err)
		os.Exit(1)
	}

	logger.InitLogger(cfg.LogLevel, os.Stdout)

	promReg := metrics.InitMetrics()

	svc := readability.New()

	c := cache.New(cache.Config{
		Host:     cfg.Cache.Host,
		Port:     cfg.Cache.Port,
		DB:       cfg.Cache.DB,
		Password: cfg.Cache.Password,
	})

	jobMgr := jobs.NewManager()
	batchMgr := jobs.NewBatchManager(jobMgr)

	router := pubsub.New(pubsub.Config{
		Host:     cfg.Cache.Host,
		Port:     cfg.Cache.Port,
		DB:       cfg.Cache.DB,
		Password: cfg.Cache.Password,
	}, serviceName, "lix")

	q := queue.New(queue.Config{
		Host:          cfg.Messaging.Host,
		Port:          cfg.Messaging.Port,
		User:          cfg.Messaging.User,
		Password:      cfg.Messaging.Password,
		VHost:         cfg.Messaging.VHost,
		QueueName:     cfg.Messaging.QueueName,
		Exchange:      cfg.Messaging.Exchange,
		RoutingKey:    cfg.Messaging.RoutingKey,
		PrefetchCount: cfg.Messaging.PrefetchCount,
	})

	reg := registry.New(svc, c, jobMgr, batchMgr, router, q)
	wireBusHandlers(reg, cfg)

	ctx := context.Background()
	if err := router.Start(ctx); err != nil {
		log.Error().Err(err).Msg("pub/sub router failed to start, continuing in degraded mode")
	}
	if err := q.Consume(ctx); err != nil {
		log.Error().Err(err).Msg("persistent queue consumer failed to start, continuing in degraded mode")
	}

	if err := reg.MarkReady(); err != nil {
		log.Fatal().Err(err).Msg("registry failed to reach ready state")
	}

	srv := server.New(cfg, reg, os.Stdout, promReg)
	if err := srv.Start(); err != nil {
		log.Fatal().Err(err).Msg("server exited with error")
	}
}
