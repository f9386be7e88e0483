package main // Entry point package

import (
	"context" // Startup housekeeping calls
	"log"     // Logging library

	"github.com/joho/godotenv"    // Loads .env files in development
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/EvgeniBursov/table-whispers/internal/config"     // Internal config loader
	"github.com/EvgeniBursov/table-whispers/internal/database"   // MySQL connection helper
	"github.com/EvgeniBursov/table-whispers/internal/handler"    // HTTP handlers
	"github.com/EvgeniBursov/table-whispers/internal/middleware" // Redis cache + rate limit middleware
	"github.com/EvgeniBursov/table-whispers/internal/repository" // Data access layer
	"github.com/EvgeniBursov/table-whispers/internal/router"     // Route registration
	"github.com/EvgeniBursov/table-whispers/internal/snapshot"   // Live floor snapshots
)

func main() {
	// Load a local .env when present; real deployments set the
	// environment directly and the file is simply absent.
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}
	cfg := config.Load() // Load environment config

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Repositories share the single pooled connection.
	userRepo := repository.NewUserRepo(db)
	tokenRepo := repository.NewTokenRepo(db)
	if n, err := tokenRepo.PurgeExpired(context.Background()); err != nil {
		log.Printf("refresh token purge failed: %v", err)
	} else if n > 0 {
		log.Printf("purged %d expired refresh tokens", n)
	}
	restaurantRepo := repository.NewRestaurantRepo(db)
	tableRepo := repository.NewTableRepo(db)
	reservationRepo := repository.NewReservationRepo(db)

	// The snapshot hub pools one live reconciler per (restaurant, date)
	// context, fed by broker delta events and backed by the database
	// for full fetches.
	hub := snapshot.NewHub(
		repository.NewFloorSource(tableRepo, reservationRepo),
		snapshot.BrokerSource{},
	)
	defer hub.Close()

	authHandler := handler.NewAuthHandler(cfg, userRepo, tokenRepo)
	publicHandler := handler.NewPublicHandler(restaurantRepo, tableRepo, reservationRepo)
	customerHandler := handler.NewCustomerHandler(restaurantRepo, tableRepo, reservationRepo)
	ownerHandler := handler.NewOwnerHandler(restaurantRepo, tableRepo, reservationRepo, hub)

	e := echo.New() // Create Echo instance

	// Redis-backed rate limiting and response caching degrade to
	// no-ops when Redis is unreachable at startup.  The response cache
	// keys on route+query only, so it is applied to the public browse
	// routes and never to authenticated per-user endpoints.
	var publicCache []echo.MiddlewareFunc
	if rdb := config.NewRedisClient(); rdb != nil {
		e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
		publicCache = append(publicCache, middleware.NewRedisCache(config.LoadCacheConfig(), rdb))
	} else {
		log.Printf("redis unavailable, rate limiting and caching disabled")
	}

	router.RegisterRoutes(e)                                   // Health check
	router.RegisterAuth(e, authHandler, cfg.JWTSecret)         // Register/login/refresh/logout
	router.RegisterPublic(e, publicHandler, publicCache...)    // Guest browse + availability
	router.RegisterCustomer(e, customerHandler, cfg.JWTSecret) // Booking flow
	router.RegisterOwner(e, ownerHandler, cfg.JWTSecret)       // Floor editing + live dashboard

	addr := ":" + cfg.Port                                // Address string with port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

	if err := e.Start(addr); err != nil { // Start HTTP server
		log.Fatal(err) // Log and exit if server fails
	}
}
