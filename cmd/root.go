package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"device-access-control/internal/authz"
	"device-access-control/internal/config"
	"device-access-control/internal/email"
	"device-access-control/internal/storage"
)

var (
	cfgFile  string
	cfg      *config.Config
	provider storage.Provider
	service  *authz.Service
)

var rootCmd = &cobra.Command{
	Use:   "device-access-control",
	Short: "Device authorization service",
	Long:  `HWID-based device authorization: devices request access, an administrator reviews them, and approved devices receive a gated resource URL.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Initialize configuration
		var err error
		if cfgFile != "" {
			cfg, err = config.LoadConfig(cfgFile)
		} else {
			cfg, err = config.LoadConfig()
		}
		if err != nil {
			slog.Error("Failed to load configuration", "error", err)
			os.Exit(1)
		}
		config.Cfg = cfg

		// Initialize storage provider
		provider = storage.NewProvider(&cfg.Storage)
		if provider == nil {
			slog.Error("Failed to initialize storage provider")
			os.Exit(1)
		}

		service = authz.NewService(provider, newNotifier(cfg))
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		// Cleanup
		if provider != nil {
			provider.Close()
		}
	},
}

// newNotifier returns nil unless an admin address is configured.
func newNotifier(cfg *config.Config) authz.Notifier {
	if cfg.AdminEmail == "" {
		return nil
	}
	return email.NewRequestNotifier(cfg.Email, cfg.AdminEmail)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./instance/config.yaml)")
}
