package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"paygate/config"
	"paygate/internal/database"
	"paygate/internal/logger"
	"paygate/internal/router"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	zlog, err := logger.New(cfg.Server.Env)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer zlog.Sync()

	db, err := database.NewDB(&cfg.Database)
	if err != nil {
		zlog.Fatalw("database", "error", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		zlog.Fatalw("migrate", "error", err)
	}

	engine := router.Setup(cfg, db, zlog)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		zlog.Infow("server listening", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatalw("listen", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zlog.Info("shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zlog.Fatalw("server shutdown", "error", err)
	}
	zlog.Info("server stopped")
}
