package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/kdange/portfolio/internal/config"
	"github.com/kdange/portfolio/internal/logging"
	"github.com/kdange/portfolio/internal/server"
	"github.com/kdange/portfolio/internal/telemetry"
	"github.com/kdange/portfolio/internal/version"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "portfolio",
	Short: "Portfolio site with contact relay and chat assistant",
	Long: `Serves the portfolio page together with the contact form relay
(POST /api/send-message) and the chat assistant (POST /api/chat).

Configuration is read from the environment, .env.<ENV> and .env.`,
	SilenceUsage: true,
	RunE:         runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE:  runServe,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		info := version.GetBuildInfo()
		fmt.Printf("portfolio %s\n", version.Info())
		fmt.Printf("Go version: %s\n", info.GoVersion)
		fmt.Printf("Platform: %s\n", info.Platform)
	},
}

// loadRuntime reads configuration and installs the global logger
func loadRuntime() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logCfg := &logging.Config{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
		Requests:   cfg.Log.Requests,
	}
	if err := logging.InitLogger(logCfg); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadRuntime()
	if err != nil {
		return err
	}
	logger := logging.GetGlobalLogger()
	defer logger.Close()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := telemetry.InitTracer(ctx, cfg.Telemetry.OTLPEndpoint, cfg.Telemetry.ServiceName)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			logger.Warn("Failed to flush traces: %v", err)
		}
	}()

	logger.Info("Starting portfolio %s in %s mode", version.Info(), cfg.Environment)

	srv, err := server.NewServer(cfg)
	if err != nil {
		logger.Error("Failed to create server: %v", err)
		return err
	}

	if err := srv.Start(ctx); err != nil {
		logger.Error("Server stopped: %v", err)
		return err
	}

	logger.Info("Server exited cleanly")
	return nil
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(checkCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
