package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"murmur/internal/config"
	"murmur/internal/daemon"
	"murmur/internal/dispatch"
	"murmur/internal/journal"
	"murmur/internal/logging"
	"murmur/internal/pipeline"
	"murmur/internal/reconcile"
)

func main() {
	configPath := flag.String("config", "", "path to configuration file")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	store, err := journal.Open(cfg)
	if err != nil {
		log.Fatalf("open journal store: %v", err)
	}
	queue, err := dispatch.Open(cfg)
	if err != nil {
		store.Close()
		log.Fatalf("open dispatch queue: %v", err)
	}

	audio, err := buildAudioStore(ctx, cfg)
	if err != nil {
		logger.Error("init audio store", logging.Error(err))
		queue.Close()
		store.Close()
		return
	}
	suite, err := buildSuite(cfg)
	if err != nil {
		logger.Error("init ai adapters", logging.Error(err))
		queue.Close()
		store.Close()
		return
	}

	manager := pipeline.NewManager(cfg, store, queue, audio, suite, logger)
	reconciler := reconcile.New(cfg, store, queue, logger)

	d, err := daemon.New(cfg, store, queue, manager, reconciler, logger)
	if err != nil {
		logger.Error("create daemon", logging.Error(err))
		queue.Close()
		store.Close()
		return
	}
	defer d.Close()

	if err := d.Start(ctx); err != nil {
		logger.Error("daemon start", logging.Error(err))
		return
	}

	<-ctx.Done()
	logger.Info("murmurd shutting down")
}
