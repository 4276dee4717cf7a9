package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"field-dispatch-service/internal/adapters/cache"
	"field-dispatch-service/internal/adapters/oracle"
	"field-dispatch-service/internal/adapters/repositories"
	"field-dispatch-service/internal/adapters/routing"
	"field-dispatch-service/internal/api"
	"field-dispatch-service/internal/auth"
	"field-dispatch-service/internal/config"
	"field-dispatch-service/internal/domain"
	"field-dispatch-service/internal/events"
	"field-dispatch-service/internal/platform/db"
	"field-dispatch-service/internal/ports"
	"field-dispatch-service/internal/services"
	"field-dispatch-service/internal/state"
)

// main is the application composition root.
// It wires concrete adapters (storage, ORS, oracle, NATS) behind ports and
// starts the HTTP server.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}
	setupLogging()

	port := config.Get("PORT", "8080")

	orsKey := os.Getenv("ORS_API_KEY")
	if strings.TrimSpace(orsKey) == "" {
		log.Fatal("ORS_API_KEY is required")
	}

	ctx := context.Background()

	// Postgres when DATABASE_URL is set, otherwise SQLite caches plus a
	// JSON state file for local runs.
	var (
		backend  ports.StateStore
		legCache ports.LegCache
		geoCache ports.GeocodeCache
	)
	if databaseURL := os.Getenv("DATABASE_URL"); strings.TrimSpace(databaseURL) != "" {
		pg, err := db.Open(databaseURL)
		if err != nil {
			log.Fatal(err)
		}
		defer pg.Close()

		if err := repositories.InitSchema(pg); err != nil {
			log.Fatal(err)
		}
		backend = repositories.NewSQLStateStore(pg)
		legCache = cache.NewSQLLegCache(pg)
		geoCache = cache.NewSQLGeocodeCache(pg)
	} else {
		lite, err := openSqlite(config.Get("DB_PATH", "data/app.db"))
		if err != nil {
			log.Fatal(err)
		}
		defer lite.Close()

		if err := repositories.InitSchema(lite); err != nil {
			log.Fatal(err)
		}
		backend = repositories.NewFileStateStore(config.Get("STATE_PATH", "data/state.json"))
		legCache = cache.NewSqliteLegCache(lite)
		geoCache = cache.NewSqliteGeocodeCache(lite)
	}

	// A reachable Redis takes over leg caching from the SQL store.
	if addr := os.Getenv("REDIS_ADDR"); strings.TrimSpace(addr) != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: os.Getenv("REDIS_PASSWORD"),
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatal(fmt.Errorf("redis ping %q: %w", addr, err))
		}
		legCache = cache.NewRedisLegCache(rdb, 30*24*time.Hour)
		log.Printf("leg cache backed by redis: addr=%s", addr)
	}

	_, hadState, err := backend.Load(ctx)
	if err != nil {
		log.Fatal(err)
	}

	store, err := state.NewStore(ctx, backend)
	if err != nil {
		log.Fatal(err)
	}

	// Bootstrap settings seed a fresh install only; stored values win after
	// that.
	if settingsPath := os.Getenv("SETTINGS_PATH"); settingsPath != "" && !hadState {
		boot, err := config.LoadBootstrap(settingsPath)
		if err != nil {
			log.Fatal(err)
		}
		if err := store.PutSettings(ctx, boot.TripSettings); err != nil {
			log.Fatal(err)
		}
		if err := store.PutGoals(ctx, boot.FinancialGoals); err != nil {
			log.Fatal(err)
		}
		log.Printf("bootstrap settings applied: path=%s", settingsPath)
	}

	provider, err := routing.NewORSRouteProvider(orsKey, legCache, geoCache, routing.ORSOptions{
		BaseURL: os.Getenv("ORS_BASE_URL"),
	})
	if err != nil {
		log.Fatal(err)
	}

	oracleClient, err := oracle.NewClient(oracle.Config{
		BaseURL: os.Getenv("ORACLE_BASE_URL"),
		APIKey:  os.Getenv("ORACLE_API_KEY"),
		Model:   config.Get("ORACLE_MODEL", "llama3.1"),
	})
	if err != nil {
		log.Fatal(err)
	}

	planner := services.NewPlanner(oracleClient)
	sessions := services.NewSessionManager(services.EditorDeps{
		Routes:  provider,
		Planner: planner,
		Orders:  store.WorkOrder,
		Types:   store.WorkOrderType,
		Settings: func() (domain.TripSettings, domain.FinancialGoals) {
			return store.Settings(), store.Goals()
		},
	})

	var publisher *events.NATSPublisher
	if natsURL := os.Getenv("NATS_URL"); strings.TrimSpace(natsURL) != "" {
		publisher, err = events.Connect(natsURL)
		if err != nil {
			log.Fatal(err)
		}
		defer publisher.Close()
	} else {
		log.Println("NATS_URL not set, lifecycle events disabled")
	}
	lifecycle := services.NewLifecycle(store, publisher)

	var authSvc *auth.Service
	if secret := os.Getenv("JWT_SECRET"); strings.TrimSpace(secret) == "" {
		log.Println("JWT_SECRET not set, API authentication disabled")
	} else {
		authSvc, err = auth.NewService(
			secret,
			config.Get("OPERATOR_USER", "dispatch"),
			os.Getenv("OPERATOR_PASSWORD_HASH"),
			12*time.Hour,
		)
		if err != nil {
			log.Fatal(err)
		}
	}

	router := api.NewRouter(api.Deps{
		Store:     store,
		Planner:   planner,
		Sessions:  sessions,
		Lifecycle: lifecycle,
		Auth:      authSvc,
	})

	// Write timeout covers a worst-case planning round: oracle completion
	// plus a cold-cache route request.
	log.Printf("Server listening addr=:%s", port)
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      300 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	log.Fatal(srv.ListenAndServe())
}

func setupLogging() {
	if strings.EqualFold(config.Get("LOG_FORMAT", "text"), "json") {
		log.SetFormatter(&log.JSONFormatter{})
	}
	if lvl, err := log.ParseLevel(config.Get("LOG_LEVEL", "info")); err == nil {
		log.SetLevel(lvl)
	}
}

func openSqlite(dbPath string) (*sql.DB, error) {
	sqlDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database %q: %w", dbPath, err)
	}

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("verify sqlite connection to %q: %w", dbPath, err)
	}

	return sqlDB, nil
}
