package cmd

import (
	"context"
	"log"
	"time"

	"github.com/dima1799/jobradar-ai/internal/logger"
	"github.com/dima1799/jobradar-ai/internal/utils"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Rebuild the role/area facet snapshot",
	Run: func(cmd *cobra.Command, _ []string) {
		refresh(cmd)
	},
}

func init() {
	rootCmd.AddCommand(refreshCmd)

	refreshCmd.Flags().Duration("interval", 0, "keep refreshing with this period instead of running once")
}

func refresh(cmd *cobra.Command) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	svc, err := buildServices(ctx, config, logger)
	if err != nil {
		logger.Fatal("building services", zap.Error(err))
	}

	interval, _ := cmd.Flags().GetDuration("interval")

	for {
		if err := svc.facets.Refresh(ctx, 0); err != nil {
			if interval <= 0 {
				logger.Fatal("refreshing facets", zap.Error(err))
			}
			logger.Warn("refreshing facets failed, will retry", zap.Error(err))
		}

		if interval <= 0 {
			return
		}

		logger.Info("next refresh scheduled", zap.Time("at", time.Now().Add(interval)))
		if err := utils.WaitFor(ctx, interval); err != nil {
			logger.Info("refresh loop stopped", zap.Error(err))
			return
		}
	}
}
