package cmd

import (
	"context"
	"log"
	"strings"

	"github.com/dima1799/jobradar-ai/internal/headhunter"
	"github.com/dima1799/jobradar-ai/internal/logger"
	"github.com/dima1799/jobradar-ai/internal/utils"
	"github.com/dima1799/jobradar-ai/internal/vacancy"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const validateScrollPage = 256

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check indexed vacancies against hh.ru and deactivate the dead ones",
	Run: func(cmd *cobra.Command, _ []string) {
		validate(cmd)
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().Bool("backfill", false, "also write missing role/area payload fields from hh.ru")
}

func validate(cmd *cobra.Command) {
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

	hh := newHHClient(ctx, config, logger)
	backfill := cmd.Flag("backfill").Value.String() == "true"
	delay := ingestDelay(config)

	checked, deactivated, backfilled := 0, 0, 0

	var offset any
	for {
		points, next, err := svc.qdrant.Scroll(ctx, nil, validateScrollPage, offset)
		if err != nil {
			logger.Fatal("scrolling indexed vacancies", zap.Error(err))
		}

		var dead []any
		for _, point := range points {
			doc, err := vacancy.FromPayload("", 0, point.Payload)
			if err != nil {
				logger.Warn("skipping unreadable point", zap.Any("point_id", point.ID), zap.Error(err))
				continue
			}

			hhID := headhunter.VacancyIDFromURL(doc.URL)
			if hhID == "" {
				logger.Warn("skipping point without hh.ru url", zap.Any("point_id", point.ID))
				continue
			}

			checked++
			full, err := hh.GetVacancy(hhID)
			switch {
			case err == nil && !full.Archived:
				if backfill && (doc.Role == "" || doc.Area == "") {
					patch := map[string]any{
						"professional_roles_name": full.RolesString(),
						"area_name":               full.Area.Name,
					}
					if err := svc.qdrant.SetPayload(ctx, patch, []any{point.ID}); err != nil {
						logger.Warn("backfill failed", zap.Any("point_id", point.ID), zap.Error(err))
					} else {
						backfilled++
					}
				}

			case err == nil, isGone(err):
				// Archived on hh.ru, or the posting no longer exists.
				dead = append(dead, point.ID)

			default:
				logger.Warn("checking vacancy failed", zap.String("vacancy_id", hhID), zap.Error(err))
			}

			if err := utils.WaitFor(ctx, delay); err != nil {
				logger.Fatal("validation interrupted", zap.Error(err))
			}
		}

		if len(dead) > 0 {
			if err := svc.qdrant.SetPayload(ctx, map[string]any{"is_active": false}, dead); err != nil {
				logger.Fatal("deactivating vacancies", zap.Error(err))
			}
			deactivated += len(dead)
		}

		if next == nil || len(points) == 0 {
			break
		}
		offset = next
	}

	logger.Info("validation finished",
		zap.Int("checked", checked),
		zap.Int("deactivated", deactivated),
		zap.Int("backfilled", backfilled),
	)
}

// isGone reports whether the error looks like a removed posting rather than
// a transient API failure.
func isGone(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "404") || strings.Contains(msg, "403")
}
