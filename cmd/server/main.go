package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"github.com/gravitas-games/cargoyard/internal/config"
	"github.com/gravitas-games/cargoyard/internal/events"
	"github.com/gravitas-games/cargoyard/internal/server"
	"github.com/gravitas-games/cargoyard/internal/world"
)

func main() {
	log := logrus.New()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./configs/server.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.WithError(err).Fatal("failed to load configuration")
	}
	configureLogger(log, cfg.Log)

	log.WithFields(logrus.Fields{
		"path":      configPath,
		"host":      cfg.Server.Host,
		"port":      cfg.Server.Port,
		"tick_rate": cfg.Server.TickRate,
	}).Info("configuration loaded")

	var redisClient *redis.Client
	var bus events.Bus = events.NewSimpleBus()
	if cfg.Redis.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := redisClient.Ping(ctx).Err()
		cancel()
		if err != nil {
			log.WithError(err).Fatal("failed to connect to Redis")
		}
		log.WithField("address", cfg.Redis.Address).Info("connected to Redis")
		bus = events.NewRedisBus(bus, redisClient, cfg.Redis.Channel, log,
			events.ContainerFull, events.ItemSold)
	}

	w, err := world.New(cfg, bus, log, time.Now())
	if err != nil {
		log.WithError(err).Fatal("failed to build world")
	}
	w.Start()

	srv, err := server.New(cfg, w, redisClient, log)
	if err != nil {
		log.WithError(err).Fatal("failed to create server")
	}

	errChan := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil {
			errChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errChan:
		log.WithError(err).Fatal("server error")
	case sig := <-sigChan:
		log.WithField("signal", sig.String()).Info("shutting down")
	}

	if err := srv.Shutdown(); err != nil {
		log.WithError(err).Warn("error during shutdown")
	}
	log.Info("server stopped")
}

func configureLogger(log *logrus.Logger, cfg config.LogConfig) {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		log.WithError(err).Warnf("unknown log level %q, using info", cfg.Level)
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	if cfg.Format == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
}
