package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fizzpan_back_end/internal/app"
	"fizzpan_back_end/internal/config"
	"fizzpan_back_end/internal/database"
	"fizzpan_back_end/internal/logger"

	"github.com/gin-gonic/gin"
)

const shutdownTimeout = 10 * time.Second

func main() {
	log := logger.New(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))

	cfg, err := config.Load(log)
	if err != nil {
		log.WithError(err).Fatal("❌ Configuration invalide")
	}
	log = logger.New(cfg.LogLevel, cfg.LogFormat)
	gin.SetMode(cfg.GinMode)

	conns, err := database.ConnectDatabases(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("❌ Connexion aux bases impossible")
	}
	defer conns.Close()

	a, err := app.New(cfg, conns, log)
	if err != nil {
		log.WithError(err).Fatal("❌ Initialisation du serveur impossible")
	}
	a.Warmup(context.Background())

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithField("driver", cfg.StoreDriver).Infof("🚀 Serveur FizzPan lancé sur le port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("❌ Serveur arrêté")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("🛑 Arrêt en cours...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("❌ Arrêt forcé")
	}
	a.Audit.Wait()
	log.Info("👋 Serveur arrêté")
}
