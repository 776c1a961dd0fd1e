package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"legal-contracts/internal/infrastructure/config"
	"legal-contracts/internal/infrastructure/db/migrate"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to config file")
	direction := flag.String("direction", "up", "migration direction: up or down")
	flag.Parse()

	cfg, err := config.LoadFromFile(*cfgPath)
	if err != nil {
		log.Fatalf("讀取組態失敗: %v", err)
	}

	log.Printf("執行 migration (%s)", *direction)
	if err := migrate.Run(cfg.DB.DSN, *direction); err != nil {
		log.Fatalf("migration 失敗: %v", err)
	}

	fmt.Println("Migration 完成")
	os.Exit(0)
}
