package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spacesedan/tokharvest/config"
	"github.com/spacesedan/tokharvest/internal/logging"
	"github.com/spf13/cobra"
)

var envName string

var rootCmd = &cobra.Command{
	Use:           "collector",
	Short:         "Collect hashtag short-video metadata into a deduplicated Parquet dataset",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if envName == "" {
			envName = config.AppEnv()
		}
		config.LoadEnv(envName)
		logging.InitLogger(os.Getenv("LOG_LEVEL"))
	},
}

func main() {
	rootCmd.PersistentFlags().StringVar(&envName, "env", "", "environment name, loads config/envs/.env.<env> (default $APP_ENV or dev)")
	rootCmd.AddCommand(newCollectCmd(), newStatsCmd(), newRunsCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		slog.Error("[Collector] Command failed", slog.String("error", err.Error()))
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
