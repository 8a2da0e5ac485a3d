package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/marketbase/platform/internal/auth/httpserver"
	authmodels "github.com/marketbase/platform/internal/auth/models"
	"github.com/marketbase/platform/internal/auth/repo"
	"github.com/marketbase/platform/internal/auth/service"
	"github.com/marketbase/platform/pkg/config"
	"github.com/marketbase/platform/pkg/db"
	"github.com/marketbase/platform/pkg/kafka"
	"github.com/marketbase/platform/pkg/logging"
	loggingmw "github.com/marketbase/platform/pkg/middleware/logging"
	"github.com/marketbase/platform/pkg/tokens"
)

func main() {
	cfg := config.Load()
	config.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")
	config.MustNonEmptyBytes(cfg.JWTSecret, "JWT_SECRET")

	logger := logging.New("auth", cfg.LogLevel)

	initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	gdb, err := db.Open(initCtx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}
	if err := gdb.AutoMigrate(&authmodels.User{}); err != nil {
		log.Fatalf("db migrate error: %v", err)
	}

	producer := kafka.NewProducer(cfg.KafkaBrokers)
	defer producer.Close()

	codec := &tokens.Codec{Secret: cfg.JWTSecret, TTL: cfg.TokenTTL}

	authHTTP := &httpserver.AuthHTTP{
		Svc: &service.AuthService{
			Store:  &repo.GormRepo{DB: gdb},
			Tokens: codec,
		},
		Codec:    codec,
		Producer: producer,
	}

	e := echo.New()
	e.HideBanner = true
	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 15 * time.Second
	e.Server.ReadHeaderTimeout = 3 * time.Second
	e.Use(loggingmw.RequestLogger(logger))

	httpserver.Register(e, &httpserver.Deps{AuthHandler: authHTTP})

	go func() {
		addr := fmt.Sprintf(":%d", cfg.ServerPort)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("echo start: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}
