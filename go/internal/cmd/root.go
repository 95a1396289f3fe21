package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/mcdev12/racedash/go/internal/config"
)

var (
	configPath string
	serverFlag string
	tokenFlag  string
)

// cfg is replaced by the loaded configuration before any command runs.
var cfg = defaultConfig()

var rootCmd = &cobra.Command{
	Use:          "racedash",
	Short:        "Live race timer and driver roster",
	SilenceUsage: true,
	Long: `racedash runs a live race dashboard: a shared race timer and a driver
roster kept in a realtime store and pushed to every connected viewer.

Run "racedash serve" to start the server, then drive it with the timer and
driver commands or watch it from a terminal with "racedash watch".`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		envErr := godotenv.Load()

		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
		setupLogging(cfg.LogLevel)

		if envErr != nil {
			log.Debug().Err(envErr).Msg("no .env file loaded")
		}
		return nil
	},
}

// Execute runs the command tree.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&serverFlag, "server", "", "server URL (overrides SERVER_URL)")
	rootCmd.PersistentFlags().StringVar(&tokenFlag, "token", "", "admin token (overrides ADMIN_TOKEN)")
}

func defaultConfig() *config.Config {
	c := config.Default()
	return &c
}

func setupLogging(level string) {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	parsed, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		parsed = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(parsed)
}

// remoteTarget returns the server URL and admin token for client commands.
func remoteTarget() (string, string) {
	server := cfg.ServerURL
	if serverFlag != "" {
		server = serverFlag
	}
	token := cfg.AdminToken
	if tokenFlag != "" {
		token = tokenFlag
	}
	return server, token
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func printf(cmd *cobra.Command, format string, args ...any) {
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), format, args...)
}
