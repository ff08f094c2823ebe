package main

import (
	"log"

	"cv-ingest/internal/bootstrap"
	"cv-ingest/internal/shared/config"
	"cv-ingest/internal/shared/server"
)

func main() {
	cfg := config.MustLoad()

	app, err := bootstrap.Build(cfg)
	if err != nil {
		log.Fatalf("bootstrap: %v", err)
	}
	if app.DB != nil {
		defer app.DB.Close()
	}
	if app.Redis != nil {
		defer app.Redis.Close()
	}

	addr := server.Addr(cfg.Port)
	log.Printf("Starting API server on %s", addr)

	if err := app.Router.Run(addr); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
