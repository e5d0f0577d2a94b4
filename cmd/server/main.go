package main

import (
	"log"
	"net/http"

	_ "github.com/joho/godotenv/autoload"

	"github.com/medialib/medialib-go-server/internal/aggregate"
	"github.com/medialib/medialib-go-server/internal/api"
	"github.com/medialib/medialib-go-server/internal/auth"
	"github.com/medialib/medialib-go-server/internal/config"
	"github.com/medialib/medialib-go-server/internal/db"
	"github.com/medialib/medialib-go-server/internal/hltb"
	"github.com/medialib/medialib-go-server/internal/tmdb"
)

func main() {
	cfg := config.Load()

	database, err := db.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer database.Close()

	if cfg.TMDBAPIKey == "" {
		log.Println("Warning: TMDB_API_KEY not set, movie and series metadata will be unavailable")
	}

	// The plaintext password never leaves this function
	passwordHash := ""
	if cfg.AdminPassword != "" {
		passwordHash, err = auth.HashPassword(cfg.AdminPassword)
		if err != nil {
			log.Fatalf("Failed to hash admin password: %v", err)
		}
	}

	hltbClient := hltb.NewClient("")
	tmdbClient := tmdb.NewClient("", cfg.TMDBAPIKey)
	aggregator := aggregate.New(database, hltbClient, tmdbClient)

	handler := api.NewRouter(api.RouterConfig{
		DB:           database,
		Agg:          aggregator,
		HLTB:         hltbClient,
		TMDB:         tmdbClient,
		PasswordHash: passwordHash,
		FrontendURL:  cfg.FrontendURL,
		StaticDir:    cfg.StaticDir,
	})

	addr := ":" + cfg.Port
	log.Printf("Media library server listening on %s", addr)
	if err := http.ListenAndServe(addr, handler); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
