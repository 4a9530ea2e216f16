package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/ingredia/retrieval-core/internal/bootstrap"
	"github.com/ingredia/retrieval-core/internal/config"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, bootstrap.Options{Service: "index-worker", WithQueue: true})
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", app.Metrics.Handler())
		server := &http.Server{Addr: ":" + cfg.WorkerMetricsPort, Handler: mux}
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("metrics server error: %v", err)
		}
	}()

	log.Printf("index worker subscribed to %s", cfg.NATSSubject)
	err = app.Queue.SubscribeReindexRequested(ctx, func(handlerCtx context.Context, collection string) error {
		app.Metrics.StartRun()
		defer app.Metrics.FinishRun()

		runCtx, cancel := context.WithTimeout(handlerCtx, 2*time.Hour)
		defer cancel()

		report, err := app.IndexUC.IndexCollection(runCtx, collection)
		if err != nil {
			return err
		}
		app.Logger.Info("reindex_done",
			"collection", report.Collection,
			"docs_processed", report.DocsProcessed,
			"skipped", report.Skipped,
		)
		return nil
	})
	if err != nil {
		log.Fatalf("worker subscribe error: %v", err)
	}
}
