package main

import (
	"log"

	"github.com/stop1love1/death-point/internal/config"
	"github.com/stop1love1/death-point/internal/game"
	"github.com/stop1love1/death-point/internal/store"
	"github.com/stop1love1/death-point/internal/web"
)

func main() {
	cfg := config.Load()

	db, err := store.Open(cfg.DataDir)
	if err != nil {
		log.Fatalf("open store at %s: %v", cfg.DataDir, err)
	}
	defer db.Close()

	engine, err := game.NewEngine(db)
	if err != nil {
		log.Fatalf("load game state: %v", err)
	}

	srv := web.NewServer(engine)
	log.Printf("deathpoint listening on %s", cfg.Addr)
	if err := srv.Run(cfg.Addr); err != nil {
		log.Fatal(err)
	}
}
