package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/repochat/web/internal/service/gateway"
	"github.com/repochat/web/pkg/logger"
)

var (
	baseURL  string
	timeout  time.Duration
	plain    bool
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "repochat",
	Short: "Analyze GitHub repositories and ask questions about them",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_, err := logger.Setup(logger.Config{Level: logLevel, Format: "text"}, os.Stderr)
		return err
	},
	SilenceUsage: true,
}

func init() {
	_ = godotenv.Load()

	defaultBase := os.Getenv("GATEWAY_BASE_URL")
	if defaultBase == "" {
		defaultBase = "https://harivs.pythonanywhere.com"
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", defaultBase, "analysis service base URL")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 2*time.Minute, "per-request timeout (0 for none)")
	rootCmd.PersistentFlags().BoolVar(&plain, "plain", false, "print raw Markdown instead of styled output")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug|info|warn|error)")
}

func newGateway() *gateway.Client {
	return gateway.New(gateway.Config{BaseURL: baseURL, Timeout: timeout})
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		slog.Debug("command failed", "error", err)
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}
