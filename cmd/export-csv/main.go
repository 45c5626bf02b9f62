package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"bookcatalog/internal/catalog"
	"bookcatalog/internal/logging"
	"bookcatalog/pkg/database"
	"bookcatalog/pkg/utils"
)

func main() {
	out := flag.String("out", "data/books.csv", "output CSV path")
	flag.Parse()

	cfg, err := utils.Load()
	log := logging.Init(cfg.Log())
	if err != nil {
		log.Error("load config", slog.Any("err", err))
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db := database.MustOpen(cfg.DB())
	defer db.Close()

	repo := catalog.NewRepo(db)
	if err := repo.Initialize(ctx); err != nil {
		log.Error("initialize catalog", slog.Any("err", err))
		os.Exit(1)
	}

	n, err := exportBooks(ctx, repo, *out)
	if err != nil {
		log.Error("export failed", slog.String("out", *out), slog.Any("err", err))
		os.Exit(1)
	}
	log.Info("export finished", slog.String("out", *out), slog.Int("books", n))
}

func exportBooks(ctx context.Context, repo *catalog.Repo, path string) (int, error) {
	books, err := repo.ListAll(ctx)
	if err != nil {
		return 0, err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return 0, err
	}
	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	if err := catalog.WriteCSV(f, books); err != nil {
		return 0, err
	}
	return len(books), f.Close()
}
