package main

import (
	"log"

	"github.com/ngenohkevin/sysinfo-agent/config"
	"github.com/ngenohkevin/sysinfo-agent/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	log.Printf("Reports are written to the directory named in %s", cfg.ReportConfFile)
	if cfg.RelayURL != "" {
		log.Printf("Forwarding feedback actions to %s", cfg.RelayURL)
	}

	srv := server.New(cfg)
	if err := srv.Run(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
