package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"albumclub/internal/albums"
	"albumclub/internal/auth"
	"albumclub/internal/reviews"
	"albumclub/internal/scheduler"
	"albumclub/internal/stats"
	"albumclub/internal/votes"
	"albumclub/pkg/database"
	"albumclub/pkg/utils"
)

func main() {
	// .env is for local development; servers set real env vars
	_ = godotenv.Load()

	cfg := database.DefaultConfig()
	db := database.MustOpen(cfg)
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	names := utils.LoadNameLookup()
	sched := scheduler.New(db, utils.LoadSelectionConfig())

	router := gin.Default()
	_ = router.SetTrustedProxies([]string{"127.0.0.1"})

	router.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "not_ready",
				"db_error": err.Error(),
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "db": cfg.Path})
	})

	// Auth
	authCfg := utils.LoadAuthConfig()
	tokenSvc := auth.TokenService{
		Secret:   []byte(authCfg.JWTSecret),
		Issuer:   authCfg.JWTIssuer,
		Duration: authCfg.JWTDuration,
	}
	authRepo := auth.NewRepo(db)
	authHandler := auth.NewHandler(authRepo, tokenSvc, names)
	authHandler.RegisterRoutes(router.Group("/auth"))

	// Albums + today's album (public reads)
	albumRepo := albums.NewRepo(db)
	albumHandler := albums.NewHandler(albumRepo, sched)
	albumHandler.RegisterPublicRoutes(router.Group("/albums"))

	// Reviews (public listing)
	reviewRepo := reviews.NewRepo(db)
	reviewHandler := reviews.NewHandler(reviewRepo, names)
	reviewHandler.RegisterPublicRoutes(router.Group(""))

	// Stats
	statsEngine := stats.NewEngine(db, sched, names)
	stats.NewHandler(statsEngine).RegisterRoutes(router.Group(""))

	// Protected writes
	protected := router.Group("")
	protected.Use(auth.AuthMiddleware(tokenSvc, authRepo))

	albumHandler.RegisterProtectedRoutes(protected.Group("/albums"))
	reviewHandler.RegisterProtectedRoutes(protected)
	votes.NewHandler(votes.NewRepo(db)).RegisterProtectedRoutes(protected)

	addr := os.Getenv("ALBUMCLUB_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	httpSrv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("HTTP API server listening on %s", addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Printf("shutdown signal received: %s", sig)
	case err := <-errCh:
		log.Printf("server error: %v", err)
	}

	log.Println("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown error: %v", err)
	}
	log.Println("server stopped")
}
