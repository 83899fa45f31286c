// Command migrate applies the embedded schema migrations to DATABASE_URL and
// optionally creates the first super_admin account, without starting the
// server.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"github.com/bimora/portal/internal/auth"
	"github.com/bimora/portal/internal/store"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	dbURL := flag.String("database-url", os.Getenv("DATABASE_URL"), "postgres:// or sqlite:// connection string")
	seedUser := flag.String("seed-username", os.Getenv("SEED_ADMIN_USERNAME"), "create this super_admin if none exists")
	seedPass := flag.String("seed-password", os.Getenv("SEED_ADMIN_PASSWORD"), "password for -seed-username")
	flag.Parse()

	if *dbURL == "" {
		slog.Error("DATABASE_URL is required")
		os.Exit(1)
	}

	ctx := context.Background()

	db, err := store.Open(ctx, *dbURL)
	if err != nil {
		slog.Error("migration failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	slog.Info("migrations applied", "dialect", db.Dialect)

	if *seedUser != "" {
		auth.SeedFirstAdmin(ctx, store.NewAdminStore(db), *seedUser, *seedPass)
	}
}
