package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Adetona-Adegbite/Lagos-impact-hackathon/internal/cache"
	"github.com/Adetona-Adegbite/Lagos-impact-hackathon/internal/config"
	"github.com/Adetona-Adegbite/Lagos-impact-hackathon/internal/database"
	"github.com/Adetona-Adegbite/Lagos-impact-hackathon/internal/server"
	"github.com/Adetona-Adegbite/Lagos-impact-hackathon/internal/store/postgres"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}

	// 2. Initialize database (Detects Embedded vs External automatically)
	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// 3. Migrate schema
	log.Println("🚀 Synchronizing database schema...")
	st := postgres.New(db)
	if err := st.Migrate(); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	log.Println("✅ Schema synchronized successfully")

	// 4. Cache backend: Redis when configured, in-process otherwise
	var c cache.Cache = cache.NewMemory()
	if cfg.Redis.Addr != "" {
		redisCache := cache.NewRedis(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := redisCache.Ping(pingCtx); err != nil {
			log.Printf("⚠️ Redis unreachable, falling back to in-process cache: %v", err)
		} else {
			log.Println("✅ Redis cache connected")
			c = redisCache
		}
		cancel()
	}

	// 5. HTTP router
	router := server.NewRouter(st, c, cfg.JWTSecret)

	httpServer := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		log.Printf("🚀 API server starting on port %s\n", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	sig := <-shutdown
	log.Printf("\n⚠️  Received signal: %v. Shutting down gracefully...\n", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	log.Println("🛑 Closing database connection...")
	if err := db.Close(); err != nil {
		log.Printf("Database close error: %v", err)
	}

	log.Println("✅ Shutdown complete")
}
