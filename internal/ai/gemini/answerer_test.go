package gemini

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/dima1799/jobradar-ai/internal/vacancy"
	"go.uber.org/zap"
)

type fakeGenerator struct {
	prompt string
	answer string
	err    error
}

func (f *fakeGenerator) GenerateContent(_ context.Context, prompt string) (string, error) {
	f.prompt = prompt
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

func contextVacancies() []*vacancy.Vacancy {
	return []*vacancy.Vacancy{
		{
			Title:       "Go Developer",
			Company:     "Acme",
			SalaryText:  "от 300 000 ₽",
			Area:        "Москва",
			URL:         "https://hh.ru/vacancy/1",
			Description: "Разработка высоконагруженных сервисов на Go.",
		},
		{
			Title:       "ML Engineer",
			Company:     "Globex",
			Description: "Обучение и выкатка моделей ранжирования.",
		},
	}
}

func TestAnswerBuildsGroundedPrompt(t *testing.T) {
	generator := &fakeGenerator{answer: "Рекомендую вакансию 1."}
	answerer := NewAnswerer(generator, zap.NewNop(), 0)

	answer, err := answerer.Answer(context.Background(), "Где больше платят?", contextVacancies())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if answer != "Рекомендую вакансию 1." {
		t.Fatalf("unexpected answer: %q", answer)
	}

	for _, want := range []string{
		"Где больше платят?",
		"1. Go Developer",
		"2. ML Engineer",
		"от 300 000 ₽",
		"https://hh.ru/vacancy/1",
	} {
		if !strings.Contains(generator.prompt, want) {
			t.Fatalf("prompt missing %q:\n%s", want, generator.prompt)
		}
	}
}

func TestAnswerClipsLongDescriptions(t *testing.T) {
	generator := &fakeGenerator{answer: "ok"}
	answerer := NewAnswerer(generator, zap.NewNop(), 0)

	long := contextVacancies()
	long[0].Description = strings.Repeat("очень длинное описание ", 200)

	if _, err := answerer.Answer(context.Background(), "Вопрос про вакансии?", long); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(generator.prompt, "…") {
		t.Fatalf("expected clipped description marker in prompt")
	}
}

func TestAnswerRequiresQuestion(t *testing.T) {
	answerer := NewAnswerer(&fakeGenerator{}, zap.NewNop(), 0)

	if _, err := answerer.Answer(context.Background(), "   ", contextVacancies()); err == nil {
		t.Fatalf("expected error for blank question")
	}
}

func TestAnswerRequiresVacancies(t *testing.T) {
	answerer := NewAnswerer(&fakeGenerator{}, zap.NewNop(), 0)

	if _, err := answerer.Answer(context.Background(), "Вопрос?", nil); err == nil {
		t.Fatalf("expected error for empty context")
	}
}

func TestAnswerPropagatesGeneratorError(t *testing.T) {
	generator := &fakeGenerator{err: errors.New("quota exceeded")}
	answerer := NewAnswerer(generator, zap.NewNop(), 0)

	_, err := answerer.Answer(context.Background(), "Вопрос?", contextVacancies())
	if err == nil || !strings.Contains(err.Error(), "quota exceeded") {
		t.Fatalf("expected generator error, got %v", err)
	}
}
