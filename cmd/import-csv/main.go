package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"strings"
	"time"

	"bookcatalog/internal/catalog"
	"bookcatalog/internal/logging"
	"bookcatalog/pkg/database"
	"bookcatalog/pkg/models"
	"bookcatalog/pkg/utils"
)

func main() {
	var (
		in           = flag.String("in", "data/books.csv", "input CSV path")
		seed         = flag.Bool("seed", false, "seed an empty catalog before importing")
		skipExisting = flag.Bool("skip-existing", true, "skip rows whose title and author are already catalogued")
	)
	flag.Parse()

	cfg, err := utils.Load()
	log := logging.Init(cfg.Log())
	if err != nil {
		log.Error("load config", slog.Any("err", err))
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	db := database.MustOpen(cfg.DB())
	defer db.Close()

	repo := catalog.NewRepo(db)
	if *seed {
		err = repo.Initialize(ctx)
	} else {
		err = database.Migrate(db)
	}
	if err != nil {
		log.Error("prepare catalog", slog.Any("err", err))
		os.Exit(1)
	}

	added, skipped, err := importBooks(ctx, repo, *in, *skipExisting)
	if err != nil {
		log.Error("import failed", slog.String("in", *in), slog.Any("err", err))
		os.Exit(1)
	}
	log.Info("import finished", slog.String("in", *in), slog.Int("added", added), slog.Int("skipped", skipped))
}

func importBooks(ctx context.Context, repo *catalog.Repo, path string, skipExisting bool) (added, skipped int, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	rows, err := catalog.ReadCSV(f)
	if err != nil {
		return 0, 0, err
	}

	seen := map[string]bool{}
	if skipExisting {
		existing, err := repo.ListAll(ctx)
		if err != nil {
			return 0, 0, err
		}
		for _, b := range existing {
			seen[bookKey(b.Fields())] = true
		}
	}

	for _, row := range rows {
		row = row.Normalize()
		if skipExisting && seen[bookKey(row)] {
			skipped++
			continue
		}
		if row.CoverURL == "" {
			row.CoverURL = catalog.PlaceholderCover(row.Title)
		}
		if _, err := repo.Add(ctx, row); err != nil {
			return added, skipped, err
		}
		seen[bookKey(row)] = true
		added++
	}
	return added, skipped, nil
}

func bookKey(f models.BookFields) string {
	return strings.ToLower(f.Title) + "\x00" + strings.ToLower(f.Author)
}
