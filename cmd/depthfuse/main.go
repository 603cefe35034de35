// Command depthfuse fuses NOAA CO-OPS gauge water levels with ecological
// field observations and topobathymetric elevations into one flat table of
// per-observation water depths.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/morsusranae/NOAAGreatLakes-WaterLevels/internal/adapter/coops"
	httpadapter "github.com/morsusranae/NOAAGreatLakes-WaterLevels/internal/adapter/http"
	kafkaadapter "github.com/morsusranae/NOAAGreatLakes-WaterLevels/internal/adapter/kafka"
	"github.com/morsusranae/NOAAGreatLakes-WaterLevels/internal/config"
	"github.com/morsusranae/NOAAGreatLakes-WaterLevels/internal/csvio"
	"github.com/morsusranae/NOAAGreatLakes-WaterLevels/internal/observability"
	"github.com/morsusranae/NOAAGreatLakes-WaterLevels/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	if err := run(cfg, logger, metrics); err != nil {
		logger.Error("run failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	observations, err := csvio.ReadObservations(cfg.ObsCSV)
	if err != nil {
		return err
	}
	logger.Info("observations loaded", "path", cfg.ObsCSV, "count", len(observations))

	if cfg.DEMCSV != "" {
		dem, err := csvio.ReadDEM(cfg.DEMCSV, cfg.DEMColumns)
		if err != nil {
			return err
		}
		observations = csvio.ApplyDEM(observations, dem)
		logger.Info("secondary elevations applied", "path", cfg.DEMCSV, "ids", len(dem))
	}

	client := coops.NewClient(cfg.CoopsBaseURL, cfg.CoopsDatum, cfg.CoopsTimeout, metrics, logger)
	source := coops.NewCachedSource(client, cfg.CoopsCacheSize, metrics)

	p := pipeline.New(source, pipeline.Options{
		Stations:     cfg.StationIDs,
		StationNames: cfg.StationNames,
		NearestK:     cfg.NearestK,
		FetchWorkers: cfg.FetchWorkers,
		StartDate:    cfg.StartDate,
		EndDate:      cfg.EndDate,
	}, logger, metrics)

	// Optional metrics/health listener for watching long runs.
	if cfg.HTTPAddr != "" {
		srv := httpadapter.NewServer(cfg.HTTPAddr, p, logger)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server error", "error", err)
			}
		}()
		defer func() {
			if err := srv.Shutdown(context.Background()); err != nil {
				logger.Error("http server shutdown error", "error", err)
			}
		}()
	}

	fused, summary, err := p.Run(ctx, observations)
	if err != nil {
		return err
	}

	for _, failure := range summary.FetchFailures {
		logger.Warn("coverage reduced by fetch failure",
			"station", failure.Station,
			"year", failure.Year,
			"granularity", failure.Granularity,
			"error", failure.Err,
		)
	}

	if err := csvio.WriteFused(cfg.OutCSV, fused); err != nil {
		return err
	}
	logger.Info("output table written", "path", cfg.OutCSV, "rows", len(fused))

	if cfg.KafkaEnabled {
		writer := kafkaadapter.NewWriter(cfg.KafkaBrokers, cfg.KafkaSinkTopic, logger)
		defer func() {
			if err := writer.Close(); err != nil {
				logger.Error("kafka writer close error", "error", err)
			}
		}()
		if err := writer.PublishBatch(ctx, fused); err != nil {
			return err
		}
		logger.Info("fused rows published", "topic", cfg.KafkaSinkTopic, "rows", len(fused))
	}

	logger.Info("done", "summary", summary.String())
	return nil
}
