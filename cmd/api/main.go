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

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"filing-backend/internal/bootstrap"
	"filing-backend/internal/shared/config"
	"filing-backend/internal/shared/server"
)

const shutdownTimeout = 30 * time.Second

func main() {
	v := viper.New()
	fs := pflag.NewFlagSet("api", pflag.ExitOnError)
	if err := config.BindFlags(v, fs); err != nil {
		log.Fatalf("bind flags: %v", err)
	}
	_ = fs.Parse(os.Args[1:])
	cfg := config.LoadFrom(v)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.Build(ctx, cfg)
	if err != nil {
		log.Fatalf("bootstrap: %v", err)
	}
	defer app.Close()

	srv := &http.Server{
		Addr:              server.Addr(cfg.Port),
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Starting API server on %s (env=%s, llm_mode=%s)", srv.Addr, cfg.Env, cfg.LLMMode)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	case <-ctx.Done():
		log.Printf("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("graceful shutdown failed: %v", err)
		}
	}
}
