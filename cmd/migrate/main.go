package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"bookcatalog/internal/logging"
	"bookcatalog/pkg/database"
	"bookcatalog/pkg/utils"
)

func main() {
	command := flag.String("command", "up", "Migration command: up, down, status, version")
	flag.Parse()

	cfg, err := utils.Load()
	log := logging.Init(cfg.Log())
	if err != nil {
		log.Error("load config", slog.Any("err", err))
		os.Exit(1)
	}

	db := database.MustOpen(cfg.DB())
	defer db.Close()

	switch *command {
	case "up":
		err = database.Migrate(db)
	case "down":
		err = database.MigrateDown(db)
	case "status":
		err = database.MigrationStatus(db)
	case "version":
		var v int64
		if v, err = database.SchemaVersion(db); err == nil {
			fmt.Println(v)
		}
	default:
		log.Error("unknown command; use up, down, status or version", slog.String("command", *command))
		os.Exit(2)
	}
	if err != nil {
		log.Error("migrate failed", slog.String("command", *command), slog.Any("err", err))
		os.Exit(1)
	}
}
