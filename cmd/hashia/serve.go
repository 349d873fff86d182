package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sandevgo/hashia/internal/config"
	"github.com/sandevgo/hashia/internal/core"
	"github.com/sandevgo/hashia/pkg/log"
	"github.com/sandevgo/hashia/pkg/srv"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the webhook server",
	Long:  `Starts the Messenger webhook server and the chat history flusher. On SIGINT or SIGTERM the chat history is saved before exit.`,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	envFile, envErr := loadEnv()

	// logger setup
	var flushLog func()
	ctx, flushLog = setupLogger(ctx)
	defer flushLog()

	logger := log.FromCtx(ctx)
	if envErr != nil {
		logger.Warn().Err(envErr).Msg("failed to load .env file")
	} else if envFile != "" {
		logger.Debug().Str("path", envFile).Msg("loaded .env file")
	}
	logger.Info().Str("version", core.BotVersion).Msgf("starting %s", core.BotName)

	appCfg := config.NewAppConfig(ctx)
	providerCfg := config.NewProviderConfig(ctx)

	// Define services using the setup.go logic
	services := NewServices(ctx, appCfg, providerCfg)

	// Start services
	srv.StartServices(ctx, services)

	// Wait for shutdown signal
	srv.ShutdownServices(ctx, services, appCfg.ShutdownTimeout)
	logger.Info().Msgf("%s has been shut down gracefully", core.BotName)

	return nil
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
