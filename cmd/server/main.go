// Command server is the composition root: it loads configuration, opens
// the store, builds the hub and token service, and serves the HTTP and
// WebSocket surface until it receives a shutdown signal.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pliu/wisp/internal/authtoken"
	"github.com/pliu/wisp/internal/config"
	"github.com/pliu/wisp/internal/httpapi"
	"github.com/pliu/wisp/internal/hub"
	"github.com/pliu/wisp/internal/store/sqlstore"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg := config.Load()
	if cfg.UsingDevSecret() {
		log.Println("warning: JWT_SECRET not set, using insecure development secret")
	}

	st, err := sqlstore.New(cfg.DBPath)
	if err != nil {
		log.Printf("failed to open store at %s: %v", cfg.DBPath, err)
		os.Exit(1)
	}
	defer st.Close()

	tokens := authtoken.New(cfg.JWTSecret)
	h := hub.New(st)
	defer h.Close()

	api := &httpapi.Server{
		Store:  st,
		Tokens: tokens,
		Hub:    h,
		Debug:  cfg.Debug,
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      api.Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Printf("listening on :%s", cfg.Port)
		serveErr <- srv.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serveErr:
		if err != nil && err != http.ErrServerClosed {
			log.Printf("server failed: %v", err)
			os.Exit(1)
		}
	case <-stop:
		log.Println("shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("graceful shutdown failed: %v", err)
			os.Exit(1)
		}
		log.Println("shutdown complete")
	}
}
