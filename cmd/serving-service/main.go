package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/synaptica-ai/mindmeter/pkg/common/config"
	"github.com/synaptica-ai/mindmeter/pkg/common/database"
	"github.com/synaptica-ai/mindmeter/pkg/common/kafka"
	"github.com/synaptica-ai/mindmeter/pkg/common/logger"
	"github.com/synaptica-ai/mindmeter/pkg/serving"
	"github.com/synaptica-ai/mindmeter/pkg/serving/predictor"
)

func main() {
	logger.Init()
	cfg := config.Load()

	// The bundle is loaded once; a broken bundle stops the process before it listens.
	p, err := predictor.Load(cfg.ArtifactDir, cfg.ArtifactVersion)
	if err != nil {
		logger.Log.WithError(err).WithField("artifact_dir", cfg.ArtifactDir).Fatal("Failed to load model bundle")
	}
	bundle := p.Bundle()
	logger.Log.WithFields(map[string]interface{}{
		"bundle_version": bundle.Version(),
		"algorithm":      bundle.Manifest.Algorithm,
		"r2":             bundle.Manifest.Metrics.R2,
	}).Info("Model bundle loaded")

	opts := []serving.Option{serving.WithSource("serving-service")}
	handlerCfg := serving.HandlerConfig{
		MaxRequestBody: cfg.MaxRequestBody,
		CORSOrigin:     cfg.CORSOrigin,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
	}

	if cfg.PredictionLogEnabled {
		db, err := database.GetPostgres(cfg)
		if err != nil {
			logger.Log.WithError(err).Fatal("Failed to connect to database")
		}
		defer database.ClosePostgres()
		repo := serving.NewRepository(db)
		if err := repo.AutoMigrate(); err != nil {
			logger.Log.WithError(err).Fatal("Failed to migrate prediction log table")
		}
		opts = append(opts, serving.WithRecorder(repo))
		handlerCfg.History = repo
	}

	if cfg.PredictionCacheTTL > 0 {
		client, err := database.GetRedis(cfg)
		if err != nil {
			logger.Log.WithError(err).Warn("Prediction cache disabled")
		} else {
			defer database.CloseRedis()
			opts = append(opts, serving.WithCache(serving.NewRedisCache(client, cfg.PredictionCacheTTL)))
		}
	}

	if cfg.KafkaEventsEnabled {
		producer := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaPredictionTopic)
		defer producer.Close()
		opts = append(opts, serving.WithPublisher(producer))
	}

	service := serving.NewService(p, opts...)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.ServerPort),
		Handler:      serving.NewHandler(service, handlerCfg),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	go func() {
		logger.Log.WithFields(map[string]interface{}{
			"host": cfg.ServerHost,
			"port": cfg.ServerPort,
		}).Info("Serving Service started")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.WithError(err).Fatal("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("Shutting down Serving Service...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Log.WithError(err).Error("Server forced to shutdown")
	}

	logger.Log.Info("Serving Service stopped")
}
