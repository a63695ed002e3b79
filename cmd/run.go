package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/dima1799/jobradar-ai/internal/logger"
	"github.com/dima1799/jobradar-ai/internal/metrics"
	"github.com/dima1799/jobradar-ai/internal/vacancy"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	PromptNewSearch     = "Новый поиск"
	PromptFilterSearch  = "Поиск по фильтрам"
	PromptAskAssistant  = "Спросить ассистента"
	PromptRefreshFacets = "Обновить фильтры"
	PromptExit          = "Выход"

	AnyFacetValue = "— любое значение —"

	defaultMessageLimit = 3900
	filterSearchLimit   = 20
)

var errExit = errors.New("exit requested")

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the interactive vacancy search",
	Run: func(cmd *cobra.Command, _ []string) {
		run(cmd)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}

// run is the main command for the cli.
func run(*cobra.Command) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the jobradar", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	if config == nil {
		logger.Fatal("config is required")
	}

	svc, err := buildServices(ctx, config, logger)
	if err != nil {
		logger.Fatal("building services", zap.Error(err))
	}

	if config.Metrics != nil && config.Metrics.Enabled {
		addr := config.Metrics.Address
		if addr == "" {
			addr = ":9090"
		}
		go func() {
			if err := metrics.Serve(addr); err != nil {
				logger.Warn("metrics endpoint stopped", zap.Error(err))
			}
		}()
	}

	if err := svc.facets.Refresh(ctx, 0); err != nil {
		logger.Warn("initial facet refresh failed", zap.Error(err))
	}

	session := &searchSession{
		svc:    svc,
		config: config,
		logger: logger,
	}

	for {
		actions := []string{PromptNewSearch, PromptFilterSearch}
		if svc.assistant != nil {
			actions = append(actions, PromptAskAssistant)
		}
		actions = append(actions, PromptRefreshFacets, PromptExit)

		prompt := promptui.Select{
			Label: "Что дальше?",
			Items: actions,
		}

		_, action, err := prompt.Run()
		if err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}

		if err := session.handleAction(ctx, action); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			logger.Error("action failed", zap.String("action", action), zap.Error(err))
		}
	}
}

// searchSession keeps the last result set so the assistant can answer
// questions about what the user just saw.
type searchSession struct {
	svc    *services
	config *Config
	logger *zap.Logger

	lastResults []*vacancy.Vacancy
}

func (s *searchSession) handleAction(ctx context.Context, action string) error {
	switch action {
	case PromptNewSearch:
		return s.search(ctx)
	case PromptFilterSearch:
		return s.filterSearch(ctx)
	case PromptAskAssistant:
		return s.askAssistant(ctx)
	case PromptRefreshFacets:
		if err := s.svc.facets.Refresh(ctx, 0); err != nil {
			return fmt.Errorf("refreshing facets: %w", err)
		}
		return nil
	case PromptExit:
		s.logger.Info("exiting", zap.String("reason", "got exit from prompt"))
		return errExit
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

func (s *searchSession) search(ctx context.Context) error {
	query, err := askLine("Поисковый запрос")
	if err != nil {
		return err
	}

	k, fetchWidth := retrievalLimits(s.config.Retrieval)
	results, err := s.svc.engine.Retrieve(ctx, query, k, fetchWidth, nil)
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}

	s.showResults(ctx, results)
	return nil
}

func (s *searchSession) filterSearch(ctx context.Context) error {
	snapshot := s.svc.facets.Snapshot()
	if len(snapshot.Roles) == 0 && len(snapshot.Areas) == 0 {
		s.logger.Info("no facets available", zap.String("hint", "run the ingest command or refresh facets"))
		return nil
	}

	role, err := pickFacet("Роль", snapshot.Roles)
	if err != nil {
		return err
	}

	area, err := pickFacet("Город", snapshot.Areas)
	if err != nil {
		return err
	}

	if role == "" && area == "" {
		return nil
	}

	results, err := s.svc.engine.RetrieveByFilter(ctx, role, area, filterSearchLimit)
	if err != nil {
		return fmt.Errorf("filter search: %w", err)
	}

	s.showResults(ctx, results)
	return nil
}

func (s *searchSession) askAssistant(ctx context.Context) error {
	if len(s.lastResults) == 0 {
		s.logger.Info("nothing to ask about", zap.String("hint", "run a search first"))
		return nil
	}

	question, err := askLine("Вопрос по найденным вакансиям")
	if err != nil {
		return err
	}

	answer, err := s.svc.assistant.Answer(ctx, question, s.lastResults)
	if err != nil {
		return fmt.Errorf("asking assistant: %w", err)
	}

	fmt.Printf("\n%s\n\n", answer)
	return nil
}

func (s *searchSession) showResults(ctx context.Context, results []*vacancy.Vacancy) {
	if len(results) == 0 {
		s.logger.Info("no vacancies found")
		s.lastResults = nil
		return
	}

	s.lastResults = results

	limit := defaultMessageLimit
	if s.config.Summary != nil && s.config.Summary.MessageLimit > 0 {
		limit = s.config.Summary.MessageLimit
	}

	for i, v := range results {
		card := s.svc.synthesizer.Synthesize(ctx, v)

		fmt.Printf("\n[%d/%d]\n%s\n", i+1, len(results), plainText(card.Clip(limit)))
		if v.URL != "" {
			fmt.Printf("🔗 %s\n", v.URL)
		}
	}
	fmt.Println()
}

var boldStripper = strings.NewReplacer("<b>", "", "</b>", "")

// plainText drops the card's bold markup for terminal output.
func plainText(s string) string {
	return boldStripper.Replace(s)
}

func askLine(label string) (string, error) {
	prompt := promptui.Prompt{
		Label: label,
		Validate: func(input string) error {
			if strings.TrimSpace(input) == "" {
				return errors.New("пустой ввод")
			}
			return nil
		},
	}

	value, err := prompt.Run()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(value), nil
}

func pickFacet(label string, values []string) (string, error) {
	if len(values) == 0 {
		return "", nil
	}

	prompt := promptui.Select{
		Label: label,
		Items: append([]string{AnyFacetValue}, values...),
		Size:  10,
	}

	_, picked, err := prompt.Run()
	if err != nil {
		return "", err
	}

	if picked == AnyFacetValue {
		return "", nil
	}
	return picked, nil
}
