package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/invoicebox/internal/config"
	"github.com/MrJamesThe3rd/invoicebox/internal/database"
)

func main() {
	steps := flag.Int("steps", 0, "apply n migrations, negative rolls back")
	down := flag.Bool("down", false, "roll back every migration")
	version := flag.Bool("version", false, "print the schema version and exit")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	slog.SetDefault(config.NewLogger(cfg, os.Stdout))

	db, err := database.New(context.Background(), cfg.ConnectionString(), dbPool(cfg))
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	m, err := database.NewMigrator(db, slog.Default())
	if err != nil {
		db.Close()
		slog.Error("failed to create migrator", "error", err)
		os.Exit(1)
	}
	defer m.Close()

	switch {
	case *version:
		v, dirty, verr := m.Version()
		if verr != nil {
			err = verr
			break
		}

		fmt.Printf("version %d dirty=%t\n", v, dirty)
	case *down:
		err = m.Down()
	case *steps != 0:
		err = m.Steps(*steps)
	default:
		err = m.Up()
	}

	if err != nil {
		slog.Error("migration failed", "error", err)
		m.Close()
		os.Exit(1)
	}
}

func dbPool(cfg *config.Config) database.Pool {
	return database.Pool{
		MaxOpen:     cfg.DB.MaxOpenConns,
		MaxIdle:     cfg.DB.MaxIdleConns,
		MaxLifetime: cfg.DB.ConnMaxLifetime,
	}
}
