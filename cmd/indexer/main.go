package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/ingredia/retrieval-core/internal/bootstrap"
	"github.com/ingredia/retrieval-core/internal/config"
	"github.com/ingredia/retrieval-core/internal/infrastructure/source/excel"
)

func main() {
	collection := flag.String("collection", "in_stock", "collection to index: in_stock, all_fda, formulas or all")
	importPath := flag.String("import", "", "optional registry spreadsheet to import before indexing")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, bootstrap.Options{Service: "indexer"})
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	if *importPath != "" {
		materials, err := excel.ReadMaterials(*importPath)
		if err != nil {
			log.Fatalf("import error: %v", err)
		}
		written, err := app.Repo.UpsertMaterials(ctx, materials)
		if err != nil {
			log.Fatalf("import upsert error: %v", err)
		}
		app.Logger.Info("catalog_imported", "file", *importPath, "rows", written)
	}

	collections := []string{*collection}
	if *collection == "all" {
		collections = []string{"in_stock", "all_fda", "formulas"}
	}

	for _, name := range collections {
		runCtx, cancel := context.WithTimeout(ctx, 2*time.Hour)
		report, err := app.IndexUC.IndexCollection(runCtx, name)
		cancel()
		if err != nil {
			log.Fatalf("index %s error: %v", name, err)
		}
		app.Logger.Info("index_report",
			"collection", report.Collection,
			"docs_processed", report.DocsProcessed,
			"chunks_written", report.ChunksWritten,
			"skipped", report.Skipped,
			"batches", report.Batches,
		)
	}
}
