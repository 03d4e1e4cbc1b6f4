package main

import (
	"os"

	"github.com/cabanga/smail/internal/config"
	"github.com/cabanga/smail/internal/logging"
	"github.com/cabanga/smail/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load configuration: " + err.Error())
	}

	// Initialize logger configuration
	logConfig := &logging.LogConfig{
		File:       cfg.LogFile,
		MaxSize:    100,
		MaxBackups: 3,
		MaxAge:     7,
	}
	if err := logging.InitLogger(logConfig); err != nil {
		panic("failed to configure logger: " + err.Error())
	}
	logger := logging.GetGlobalLogger()
	defer logger.Close()

	logger.Info("Starting server in %s mode", cfg.Environment)
	logger.Info("Contact route: %s", cfg.APIRoute)

	srv := server.NewServer(cfg)
	srv.Init()

	if err := srv.Start(); err != nil {
		logger.Error("Failed to start server: %v", err)
		os.Exit(1)
	}
}
