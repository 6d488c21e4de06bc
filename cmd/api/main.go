package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"profinder/internal/app"
	"profinder/internal/config"
	"profinder/internal/database"
	jwtsvc "profinder/internal/pkg/jwt"
	"profinder/internal/realtime"
	"profinder/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	j := jwtsvc.New(cfg.JWTSecret, cfg.JWTTTL)

	hub := realtime.NewHub()
	defer hub.Close()
	var publisher realtime.Publisher = hub
	if cfg.RedisURL != "" {
		rdb, err := config.NewRedisClient(cfg)
		if err != nil {
			log.Fatalf("redis: %v", err)
		}
		defer rdb.Close()
		relay := realtime.NewRedisRelay(rdb, cfg.RealtimeChannel, hub)
		go func() {
			if err := relay.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("realtime_relay_stopped error=%q", err.Error())
			}
		}()
		publisher = relay
		log.Printf("realtime relay enabled channel=%s", cfg.RealtimeChannel)
	}

	var documents storage.DocumentStore
	if cfg.MinioEndpoint != "" {
		mc, err := config.NewMinIOClient(cfg)
		if err != nil {
			log.Fatalf("minio: %v", err)
		}
		documents = storage.NewMinioDocumentStore(mc, cfg.MinioBucket)
		log.Printf("document store enabled bucket=%s", cfg.MinioBucket)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := app.NewRouter(app.Deps{
		DB:                 db,
		JWT:                j,
		Hub:                hub,
		Publisher:          publisher,
		Documents:          documents,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		MetricsEnabled:     cfg.MetricsEnabled,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("listening on %s env=%s", srv.Addr, cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
