package gemini

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	_ "embed"

	"github.com/dima1799/jobradar-ai/internal/ai"
	"github.com/dima1799/jobradar-ai/internal/util"
	"github.com/dima1799/jobradar-ai/internal/vacancy"
	"go.uber.org/zap"
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

// Answerer turns retrieved vacancies plus a user question into a grounded
// natural-language recommendation.
type Answerer struct {
	generator contentGenerator
	logger    *zap.Logger
	maxLogLen int
}

var _ ai.Assistant = (*Answerer)(nil)

//go:embed prompt.md
var promptTemplate string

const (
	defaultMaxLogLength = 200

	// Descriptions are clipped per vacancy so a handful of long postings
	// cannot blow up the prompt.
	maxDescriptionRunes = 1500
)

func NewAnswerer(generator contentGenerator, logger *zap.Logger, maxLogLength int) *Answerer {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}

	return &Answerer{
		generator: generator,
		logger:    logger,
		maxLogLen: maxLogLength,
	}
}

func (a *Answerer) Answer(ctx context.Context, question string, vacancies []*vacancy.Vacancy) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", fmt.Errorf("question is required")
	}
	if len(vacancies) == 0 {
		return "", fmt.Errorf("no vacancies to answer from")
	}

	prompt := buildPrompt(question, vacancies)

	a.logger.Debug("gemini generate content request",
		zap.String("question", util.TruncateForLog(question, a.maxLogLen)),
		zap.Int("vacancies", len(vacancies)),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", util.TruncateForLog(prompt, a.maxLogLen)),
	)

	raw, err := a.generator.GenerateContent(ctx, prompt)
	if err != nil {
		return "", err
	}

	a.logger.Debug("gemini generate content response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", util.TruncateForLog(raw, a.maxLogLen)),
	)

	return strings.TrimSpace(raw), nil
}

func buildPrompt(question string, vacancies []*vacancy.Vacancy) string {
	template := promptTemplate
	if strings.TrimSpace(template) == "" {
		template = "Вопрос:\n{{QUESTION}}\n\nВакансии:\n{{VACANCIES}}\n\nОтвет:"
	}

	prompt := strings.ReplaceAll(template, "{{QUESTION}}", question)
	prompt = strings.ReplaceAll(prompt, "{{VACANCIES}}", renderContext(vacancies))
	return prompt
}

func renderContext(vacancies []*vacancy.Vacancy) string {
	var b strings.Builder
	for i, v := range vacancies {
		if i > 0 {
			b.WriteString("\n\n")
		}

		fmt.Fprintf(&b, "%d. %s", i+1, nonEmpty(v.Title, "Без названия"))
		fmt.Fprintf(&b, "\nКомпания: %s", nonEmpty(v.Company, "не указана"))
		if v.SalaryText != "" {
			fmt.Fprintf(&b, "\nЗарплата: %s", v.SalaryText)
		}
		if v.Area != "" {
			fmt.Fprintf(&b, "\nГород: %s", v.Area)
		}
		if v.Experience != "" {
			fmt.Fprintf(&b, "\nОпыт: %s", v.Experience)
		}
		if v.URL != "" {
			fmt.Fprintf(&b, "\nСсылка: %s", v.URL)
		}
		if text := clipRunes(v.Text(), maxDescriptionRunes); text != "" {
			fmt.Fprintf(&b, "\nОписание: %s", text)
		}
	}
	return b.String()
}

func nonEmpty(s, placeholder string) string {
	if strings.TrimSpace(s) == "" {
		return placeholder
	}
	return s
}

func clipRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "…"
}
