package main

import (
	"log"

	"github.com/shaharia-lab/alertmail/cmd"
	"github.com/shaharia-lab/alertmail/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	cmd.Execute(cfg)
}
