package main

import (
	"context"
	"os"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"field-dispatch-service/internal/adapters/repositories"
	"field-dispatch-service/internal/config"
	"field-dispatch-service/internal/platform/db"
)

// dbtool prepares a Postgres deployment: it creates the schema and merges
// the seed file (work order types, work orders, optional settings) into the
// stored application state.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if strings.TrimSpace(databaseURL) == "" {
		log.Fatal("DATABASE_URL is required")
	}

	pg, err := db.Open(databaseURL)
	if err != nil {
		log.Fatal(err)
	}
	defer pg.Close()

	ctx := context.Background()

	log.Println("Initializing database schema...")
	if err := repositories.InitSchema(pg); err != nil {
		log.Fatalf("schema initialization failed: %v", err)
	}
	log.Println("Schema ready.")

	seedPath := config.Get("SEED_PATH", "data/seeds/workorders.json")
	log.Printf("Seeding application state: path=%s", seedPath)
	if err := repositories.SeedFromJSON(ctx, repositories.NewSQLStateStore(pg), seedPath); err != nil {
		log.Fatalf("seeding failed: %v", err)
	}
	log.Println("Seeding complete.")
}
