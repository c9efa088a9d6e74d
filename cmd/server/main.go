package main

import (
	"context"
	"log"
	"net/http"
	"time"
	"transfer-tracking-service/internal/api"
	"transfer-tracking-service/internal/app"
	"transfer-tracking-service/internal/config"
)

// main is the application composition root.
// It wires the configured medium, write lock and remote sync behind ports and starts the HTTP server.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	a, err := app.New(ctx, cfg)
	cancel()
	if err != nil {
		log.Fatal(err)
	}
	defer a.Close()

	router := api.NewRouter(a.Tracker)

	// Writes rewrite the whole medium and may push a snapshot remotely.
	log.Printf("Server listening addr=:%s backend=%s", cfg.Port, cfg.StoreBackend)
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		a.Close()
		log.Fatal(err)
	}
}
