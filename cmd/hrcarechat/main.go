package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"HRCareChat/internal/assistant"
	"HRCareChat/internal/config"
)

func main() {
	// A missing .env is fine; explicit env always wins
	_ = godotenv.Load()

	var (
		configFile string
		serviceURL string
		dbPath     string
		logDir     string
		debug      bool
		fresh      bool
	)

	flag.StringVar(&configFile, "config", "hrcarechat.toml", "Path to TOML config file")
	flag.StringVar(&serviceURL, "service-url", "", "Base URL of the HRCare QA service")
	flag.StringVar(&dbPath, "db", "", "Path to the state database")
	flag.StringVar(&logDir, "log-dir", "", "Directory for logs and telemetry output")
	flag.BoolVar(&debug, "debug", false, "Enable debug logging")
	flag.BoolVar(&fresh, "fresh", false, "Start a new session (clears the session-tier state)")
	flag.Parse()

	cfg := config.Default()
	if err := config.LoadFile(&cfg, configFile); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := config.ApplyEnv(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read environment: %v\n", err)
		os.Exit(1)
	}

	// Flags override the file and the environment
	if serviceURL != "" {
		cfg.ServiceURL = serviceURL
	}
	if dbPath != "" {
		cfg.DBPath = dbPath
	}
	if logDir != "" {
		cfg.LogDir = logDir
	}
	if debug {
		cfg.Debug = true
	}
	cfg.FreshStart = fresh

	app, err := assistant.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize assistant: %v\n", err)
		os.Exit(1)
	}

	if err := app.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
