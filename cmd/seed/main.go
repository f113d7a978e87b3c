package main

import (
	"fmt"
	"os"

	"github.com/oggyb/picfeed/internal/auth"
	"github.com/oggyb/picfeed/internal/config"
	"github.com/oggyb/picfeed/internal/db"
	"github.com/oggyb/picfeed/internal/logger"
)

func main() {
	// Load configuration
	cfg := config.New()
	logger.InitFromConfig(cfg)

	database, err := db.NewDB(cfg)
	if err != nil {
		logger.Error("failed to init db", "err", err)
		os.Exit(1)
	}

	users, err := db.SeedTestData(database)
	if err != nil {
		logger.Error("failed to seed", "err", err)
		os.Exit(1)
	}

	// Dev tokens so the seeded accounts can be used from the CLI.
	provider := auth.NewProviderFromConfig(cfg)
	for _, u := range users {
		token, err := provider.Issue(auth.Identity{Subject: u.ExternalID, Name: u.Name})
		if err != nil {
			logger.Error("failed to issue token", "user", u.ExternalID, "err", err)
			os.Exit(1)
		}
		fmt.Printf("%-12s %-14s %s\n", u.ExternalID, u.Name, token)
	}

	logger.Info("seeding completed", "users", len(users))
}
