package main

import (
	"context"
	"log"

	"github.com/noknok06/stock-dialy-sub000/internal/bootstrap"
	"github.com/noknok06/stock-dialy-sub000/internal/shared/config"
	"github.com/noknok06/stock-dialy-sub000/internal/shared/server"
)

func main() {
	cfg := config.Load()

	app, err := bootstrap.Build(cfg)
	if err != nil {
		log.Fatalf("bootstrap build: %v", err)
	}
	if app.DB != nil {
		defer app.DB.Close()
	}

	app.AnalysisService.StartPurgeLoop(context.Background(), cfg.SessionPurgeInterval)

	addr := server.Addr(cfg.Port)
	log.Printf("Starting API server on %s", addr)

	if err := app.Router.Run(addr); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
