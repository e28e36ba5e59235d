// cmd/server/main.go
package main

import (
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"github.com/braygame/bray/internal/auth"
	"github.com/braygame/bray/internal/cache"
	"github.com/braygame/bray/internal/game"
	"github.com/braygame/bray/internal/handlers"
	"github.com/braygame/bray/internal/middleware"
	"github.com/braygame/bray/internal/scoring"
)

func main() {
	logger := logrus.New()
	if os.Getenv("BRAY_DEBUG") != "" {
		logger.SetLevel(logrus.DebugLevel)
	}

	auth.Init()

	rules := scoring.DefaultRules()
	if path := os.Getenv("BRAY_RULES_FILE"); path != "" {
		loaded, err := scoring.LoadRules(path)
		if err != nil {
			logger.Fatalf("failed to load rules: %v", err)
		}
		rules = loaded
	}

	if os.Getenv("REDIS_ADDR") != "" {
		if err := cache.ConnectRedis(); err != nil {
			// The audit queue is optional; the in-memory log still works.
			logger.Warnf("audit queue disabled: %v", err)
		} else {
			logger.Info("audit queue connected")
		}
	}

	cfg := game.DefaultConfig()
	cfg.Rules = rules
	gs := handlers.NewGameServer(logger, cfg)

	stop := make(chan struct{})
	gs.StartSweeps(stop, 10*time.Second, 10*time.Minute)

	mux := http.NewServeMux()
	mux.Handle("/game/ws", middleware.LogMiddleware(logger)(http.HandlerFunc(
		handlers.GameWSHandler(logger, gs),
	)))
	mux.Handle("/game/bots", middleware.LogMiddleware(logger)(http.HandlerFunc(
		handlers.AddBotHandler(gs),
	)))

	port := os.Getenv("BRAY_PORT")
	if port == "" {
		port = "8080"
	}

	server := &http.Server{
		Handler:     mux,
		ReadTimeout: 10 * time.Second,
	}

	l, err := net.Listen("tcp", fmt.Sprintf(":%s", port))
	if err != nil {
		logger.Fatalf("failed to listen: %v", err)
	}
	logger.Infof("listening on %s", l.Addr())

	errc := make(chan error, 1)
	go func() {
		errc <- server.Serve(l)
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt)
	select {
	case err := <-errc:
		logger.Errorf("failed to serve: %v", err)
	case sig := <-sigs:
		logger.Infof("terminating: %v", sig)
	}
	close(stop)
}
