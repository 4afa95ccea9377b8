package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lmoretti/support-rag/internal/bootstrap"
	"github.com/lmoretti/support-rag/internal/config"
	"github.com/lmoretti/support-rag/internal/core/domain"
	"github.com/lmoretti/support-rag/internal/observability/logging"
	"github.com/lmoretti/support-rag/internal/observability/metrics"
)

const serviceName = "support-rag-indexer"

func main() {
	cfg := config.Load()
	slog.SetDefault(logging.NewJSONLogger(serviceName, cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	indexerMetrics := metrics.NewIndexerMetrics(serviceName)
	go serveMetrics(cfg.IndexerMetricsPort, indexerMetrics)

	slog.Info("indexer_subscribed", "subject", cfg.NATSSubject)
	err = app.Queue.SubscribeReindex(ctx, func(handlerCtx context.Context) error {
		runCtx, cancel := context.WithTimeout(handlerCtx, 30*time.Minute)
		defer cancel()

		indexerMetrics.StartReindex()
		started := time.Now()
		stats, err := app.ReindexUC.Reindex(runCtx)
		indexerMetrics.FinishReindex(serviceName, time.Since(started), err)
		if err != nil {
			return err
		}

		indexerMetrics.AddDocumentsIndexed(serviceName, string(domain.TypeTicket), stats.Tickets)
		indexerMetrics.AddDocumentsIndexed(serviceName, string(domain.TypeGuideChunk), stats.GuideChunks)
		return nil
	})
	if err != nil {
		log.Fatalf("indexer subscribe error: %v", err)
	}
}

func serveMetrics(port string, indexerMetrics *metrics.IndexerMetrics) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", indexerMetrics.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("indexer_metrics_server_error", "error", err)
	}
}
