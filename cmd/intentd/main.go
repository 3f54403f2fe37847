package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"tokenflow-intent/internal/api"
	"tokenflow-intent/internal/cfg"
	"tokenflow-intent/internal/classifier"
	"tokenflow-intent/internal/features"
	"tokenflow-intent/internal/metrics"
	"tokenflow-intent/internal/registry"
	"tokenflow-intent/internal/store"
	"tokenflow-intent/internal/training"
)

func main() {
	_ = godotenv.Load()

	c, err := cfg.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := metrics.New()
	reg := registry.Default()
	extractor := features.NewExtractor(reg)

	modelStore := openModelStore(c)
	if modelStore != nil {
		defer modelStore.Close()
	}

	clf := classifier.New(modelStore)
	loadModel(clf, m)

	trainer := initTrainer(ctx, c, reg, clf, m)

	server := api.NewServer(extractor, clf, trainer, m, api.Config{
		Port:         c.ListenPort,
		AdminKey:     c.AdminKey,
		MaxBatchSize: c.MaxBatchSize,
		ReadTimeout:  c.ReadTimeout,
		WriteTimeout: c.WriteTimeout,
	})

	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("API server failed")
			cancel()
		}
	}()

	waitForShutdown(ctx, server)
}

// openModelStore opens the model database when DATA_PATH is configured. The
// service runs fallback-only without one.
func openModelStore(c cfg.Settings) *classifier.ModelStore {
	if c.DataPath == "" {
		log.Warn().Msg("no data path configured, model persistence disabled")
		return nil
	}
	ms, err := classifier.OpenModelStore(c.DataPath)
	if err != nil {
		log.Warn().Err(err).Msg("model store unavailable, continuing without persistence")
		return nil
	}
	return ms
}

func loadModel(clf *classifier.Classifier, m *metrics.Metrics) {
	loaded, err := clf.Load()
	switch {
	case err != nil:
		log.Warn().Err(err).Msg("model load failed, using heuristics")
	case loaded:
		log.Info().Msg("pre-trained model loaded")
	default:
		log.Warn().Msg("no pre-trained model found, using heuristics")
	}
	m.ModelLoadedSet(loaded)
}

// initTrainer wires the training pipeline when a transaction store is
// configured. Without one the /train endpoints report unavailable.
func initTrainer(ctx context.Context, c cfg.Settings, reg *registry.Registry, clf *classifier.Classifier, m *metrics.Metrics) *training.Trainer {
	if c.PostgresDSN == "" {
		log.Warn().Msg("no transaction store configured, training disabled")
		return nil
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	source, err := store.NewPostgres(connectCtx, c.PostgresDSN)
	if err != nil {
		log.Warn().Err(err).Msg("transaction store unreachable, training disabled")
		return nil
	}

	collector := training.NewCollector(source, reg, c.TrainingRowLimit)
	return training.NewTrainer(collector, clf, c.MinTrainingSamples, m)
}

func waitForShutdown(ctx context.Context, server *api.Server) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigChan:
		log.Info().Msg("shutdown signal received")
	case <-ctx.Done():
		log.Info().Msg("context canceled")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("server shutdown timed out")
	}
	log.Info().Msg("shutdown complete")
}
