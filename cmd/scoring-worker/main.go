// Command scoring-worker consumes patient records from Kafka, scores them
// with the latest bundle and publishes the outcome of each as an event.
package main

import (
	"context"
	"errors"
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

	p, err := predictor.Load(cfg.ArtifactDir, cfg.ArtifactVersion)
	if err != nil {
		logger.Log.WithError(err).Fatal("Failed to load model bundle")
	}

	producer := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaPredictionTopic)
	defer producer.Close()

	opts := []serving.Option{
		serving.WithSource("scoring-worker"),
		serving.WithPublisher(producer),
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
	}
	service := serving.NewService(p, opts...)

	consumer := kafka.NewConsumer(cfg.KafkaBrokers, cfg.KafkaScoringTopic, cfg.KafkaGroupID)
	defer consumer.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger.Log.WithFields(map[string]interface{}{
		"topic":          cfg.KafkaScoringTopic,
		"group_id":       cfg.KafkaGroupID,
		"bundle_version": p.Bundle().Version(),
	}).Info("Scoring worker started")

	if err := consumer.Consume(ctx, serving.ScoringHandler(service)); err != nil && !errors.Is(err, context.Canceled) {
		logger.Log.WithError(err).Error("Scoring worker stopped with error")
		cancel()
		os.Exit(1)
	}
	logger.Log.Info("Scoring worker stopped")
}
