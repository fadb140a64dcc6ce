package main

import (
	"log"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"studykit/adapters/postgres"
	"studykit/adapters/redcap"
	"studykit/app"
	"studykit/internal/config"
	"studykit/ports"
	"studykit/ui"
)

// main starts the preview web app. The REDCap source and the Postgres
// archive are both optional: without them the app still analyzes uploaded
// files.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	var source ports.ReportSource
	if cfg.Redcap.APIURL != "" {
		if err := cfg.RequireRedcap(); err != nil {
			log.Fatalf("REDCap configuration invalid: %v", err)
		}
		client, err := redcap.NewClient(redcap.Config{
			APIURL:        cfg.Redcap.APIURL,
			TokenEnv:      cfg.Redcap.TokenEnv,
			Timeout:       cfg.Redcap.Timeout,
			RatePerSecond: cfg.Redcap.RatePerSecond,
			MaxConcurrent: cfg.Redcap.MaxConcurrent,
		})
		if err != nil {
			log.Fatalf("Failed to create REDCap client: %v", err)
		}
		defer client.Close()
		source = client
	}

	var store ports.SnapshotStore
	if cfg.HasDatabase() {
		db, err := sqlx.Connect("postgres", cfg.Database.URL)
		if err != nil {
			log.Fatalf("Failed to connect to archive database: %v", err)
		}
		defer db.Close()
		store = postgres.NewSnapshotRepository(db)
	}

	service := app.NewAnalysisService(source, store)

	previewApp, err := ui.NewApp(ui.Config{Port: cfg.Server.Port}, service)
	if err != nil {
		log.Fatalf("Failed to create preview app: %v", err)
	}

	if err := previewApp.Start(); err != nil {
		log.Fatalf("Preview app stopped: %v", err)
	}
}
