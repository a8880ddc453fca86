package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/joho/godotenv"

	"github.com/couchcryptid/supply-map-service/internal/adapter/gnews"
	httpadapter "github.com/couchcryptid/supply-map-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/supply-map-service/internal/adapter/kafka"
	"github.com/couchcryptid/supply-map-service/internal/adapter/riskapi"
	"github.com/couchcryptid/supply-map-service/internal/adapter/source"
	"github.com/couchcryptid/supply-map-service/internal/config"
	"github.com/couchcryptid/supply-map-service/internal/dashboard"
	"github.com/couchcryptid/supply-map-service/internal/domain"
	"github.com/couchcryptid/supply-map-service/internal/observability"
	"github.com/couchcryptid/supply-map-service/internal/pipeline"
	"github.com/couchcryptid/supply-map-service/internal/store"
)

func main() {
	_ = godotenv.Load(".env.local")

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	opts := dashboard.Options{
		Reference: source.NewLoader(cfg.ReferenceSource),
		ReferenceFields: domain.ReferenceFields{
			Name: cfg.ReferenceNameField,
			Lat:  cfg.ReferenceLatField,
			Lon:  cfg.ReferenceLonField,
		},
		Suppliers: dashboard.SubjectSource{
			Fetcher:       source.NewLoader(cfg.SupplierSource),
			LocationField: cfg.SupplierLocationField,
			WrapKey:       cfg.SupplierWrapKey,
		},
		Demand: dashboard.SubjectSource{
			Fetcher:       source.NewLoader(cfg.DemandSource),
			LocationField: cfg.DemandLocationField,
			WrapKey:       cfg.DemandWrapKey,
		},
		Risk:         riskapi.NewClient(cfg.RiskAPIURL, logger),
		H3Resolution: cfg.H3Resolution,
	}

	// Supplier news is feature-flagged via GNEWS_API_KEY.
	if cfg.GNewsAPIKey != "" {
		opts.News = gnews.NewClient(cfg.GNewsAPIKey, cfg.GNewsEndpoint, logger)
		logger.Info("supplier news enabled")
	} else {
		logger.Info("supplier news disabled")
	}

	svc := dashboard.New(opts, store.NewSuppliers(), logger, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := svc.LoadReference(ctx); err != nil {
		logger.Warn("reference table unavailable, all joins will be empty",
			"source", cfg.ReferenceSource, "error", err)
	}

	ready := readiness{svc}

	var reader *kafkaadapter.Reader
	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		reader = kafkaadapter.NewReader(cfg, logger)
		writer = kafkaadapter.NewWriter(cfg, logger)
		transformer := pipeline.NewTransformer(svc.Index, cfg.KafkaLocationField, metrics, logger)
		p := pipeline.New(reader, transformer, writer, logger, metrics, cfg.BatchSize)
		ready = append(ready, p)

		go func() {
			if err := p.Run(ctx); err != nil {
				logger.Error("pipeline error", "error", err)
			}
		}()
		logger.Info("streaming join enabled",
			"source_topic", cfg.KafkaSourceTopic, "sink_topic", cfg.KafkaSinkTopic)
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, svc, ready, cfg.CORSAllowedOrigins, logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if reader != nil {
		if err := reader.Close(); err != nil {
			logger.Error("kafka reader close error", "error", err)
		}
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}

// readiness is ready when every component is.
type readiness []sharedobs.ReadinessChecker

func (r readiness) CheckReadiness(ctx context.Context) error {
	for _, c := range r {
		if err := c.CheckReadiness(ctx); err != nil {
			return err
		}
	}
	return nil
}
