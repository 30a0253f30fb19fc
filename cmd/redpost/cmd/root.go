package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jmcleod/redpost/config"
)

// Version is stamped at build time.
var Version = "dev"

var configPath string

var rootCmd = &cobra.Command{
	Use:   "redpost",
	Short: "Redpost publishes video notes to xiaohongshu",
	Long: `Redpost drives the xiaohongshu web API with a locally signed session:
it manages account cookies, resolves topics, and publishes or schedules
video notes from the command line or a local REST server.`,
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default ~/.config/redpost/config.toml)")
}

func loadConfig() (config.Config, error) {
	return config.Load(configPath)
}

func newLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, nil))
}
