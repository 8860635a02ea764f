package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	. "device-access-control/internal"
	"device-access-control/internal/authz"
	"device-access-control/internal/config"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the device authorization server",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("Starting device authorization server...")
		initLogger(cfg)
		ServerMain(service)
	},
}

// Initialize logger
func initLogger(cfg *config.Config) *slog.Logger {
	// Determine level from config and set it on the handler options.
	var level slog.Level
	switch strings.ToUpper(cfg.LogLevel) {
	case "DEBUG":
		level = slog.LevelDebug
	case "INFO":
		level = slog.LevelInfo
	case "WARN", "WARNING":
		level = slog.LevelWarn
	case "ERROR":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
		println("Invalid log level in config, defaulting to INFO")
	}
	handlerOpts := &slog.HandlerOptions{
		Level: level,
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, handlerOpts))
	slog.SetDefault(logger)

	slog.Debug("Logger initialized", "level", level.String())
	return logger
}

func ServerMain(svc *authz.Service) {
	if config.Cfg == nil {
		panic("Config not initialized.")
	}

	if svc == nil {
		slog.Error("Authorization service is nil")
		os.Exit(1)
	}

	server := HTTPServer(svc)

	slog.Info("Listening", "addr", config.Cfg.Listen)
	if err := server.Run(config.Cfg.Listen); err != nil {
		slog.Error("Server stopped", "error", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
