package summary

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/dima1799/jobradar-ai/internal/vacancy"
	"go.uber.org/zap"
)

type fakeEncoder struct {
	vectors map[string][]float32
	err     error
}

func (f *fakeEncoder) Encode(_ context.Context, texts []string, _ bool) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}

	out := make([][]float32, len(texts))
	for i, text := range texts {
		if v, ok := f.vectors[text]; ok {
			out[i] = v
			continue
		}
		out[i] = []float32{0, 0, 0}
	}
	return out, nil
}

func (f *fakeEncoder) Dimension() int { return 3 }

func testAnchors() []Anchor {
	return []Anchor{
		{Name: AnchorDuties, Title: "Задачи", Queries: []string{"q-duties"}, Limit: 2},
		{Name: AnchorCompany, Title: "О компании", Queries: []string{"q-company"}, Limit: 1},
		{Name: AnchorRequirements, Title: "Требования", Queries: []string{"q-requirements"}, Limit: 2},
	}
}

const (
	dutiesSentence  = "You will own data ingestion and model serving."
	duties2Sentence = "You will design evaluation pipelines for our ranking models."
	companySentence = "Acme is a 50-person startup founded in 2021."
	reqSentence     = "Must know Python and distributed systems."
	req2Sentence    = "Experience with Go and Kubernetes is required for this role."
)

func scenarioEncoder() *fakeEncoder {
	return &fakeEncoder{vectors: map[string][]float32{
		"q-duties":       {1, 0, 0},
		"q-company":      {0, 1, 0},
		"q-requirements": {0, 0, 1},
		dutiesSentence:   {0.9, 0.1, 0.3},
		duties2Sentence:  {0.8, 0.1, 0.2},
		companySentence:  {0.1, 0.9, 0.1},
		reqSentence:      {0.2, 0.1, 0.9},
		req2Sentence:     {0.1, 0.2, 0.8},
	}}
}

func scenarioVacancy() *vacancy.Vacancy {
	return &vacancy.Vacancy{
		ID:      "p1",
		Title:   "ML Engineer",
		Company: "Acme",
		Description: "We build LLM pipelines. " + dutiesSentence + " " + duties2Sentence + " " +
			companySentence + " " + reqSentence + " " + req2Sentence,
		URL: "https://x/vacancy/123",
	}
}

func TestSynthesizeFullPathScenario(t *testing.T) {
	s := NewSynthesizer(scenarioEncoder(), testAnchors(), zap.NewNop())

	card := s.Synthesize(context.Background(), scenarioVacancy())

	if len(card.Trace[AnchorDuties]) == 0 {
		t.Fatalf("expected non-empty duties section, trace: %v", card.Trace)
	}
	if len(card.Trace[AnchorRequirements]) == 0 {
		t.Fatalf("expected non-empty requirements section, trace: %v", card.Trace)
	}
	if len(card.Trace[AnchorCompany]) != 1 || card.Trace[AnchorCompany][0] != companySentence {
		t.Fatalf("expected the Acme sentence in company section, got %v", card.Trace[AnchorCompany])
	}

	if !strings.Contains(card.Text, "ML Engineer") || !strings.Contains(card.Text, "Acme") {
		t.Fatalf("header must contain title and company:\n%s", card.Text)
	}
	if _, ok := card.Trace[FallbackKey]; ok {
		t.Fatalf("full path must not record a fallback trace")
	}
}

func TestSynthesizeAnchorsDisjoint(t *testing.T) {
	s := NewSynthesizer(scenarioEncoder(), testAnchors(), zap.NewNop())

	card := s.Synthesize(context.Background(), scenarioVacancy())

	seen := make(map[string]string)
	for name, picked := range card.Trace {
		for _, sentence := range picked {
			if owner, ok := seen[sentence]; ok {
				t.Fatalf("sentence %q claimed by both %s and %s", sentence, owner, name)
			}
			seen[sentence] = name
		}
	}
}

func TestSynthesizeFallbackOnShortText(t *testing.T) {
	s := NewSynthesizer(scenarioEncoder(), testAnchors(), zap.NewNop())

	v := &vacancy.Vacancy{
		Title:       "Go Developer",
		Company:     "Globex",
		SalaryText:  "от 300 000 ₽",
		Description: "Отличная вакансия для сильного разработчика.",
		URL:         "https://hh.ru/vacancy/42",
	}

	card := s.Synthesize(context.Background(), v)

	raw, ok := card.Trace[FallbackKey]
	if !ok {
		t.Fatalf("expected fallback trace, got %v", card.Trace)
	}
	if len(raw) != 1 {
		t.Fatalf("expected one raw sentence in fallback trace, got %v", raw)
	}

	for _, want := range []string{"Go Developer", "Globex", "от 300 000 ₽", ctaLine} {
		if !strings.Contains(card.Text, want) {
			t.Fatalf("fallback card missing %q:\n%s", want, card.Text)
		}
	}
}

func TestSynthesizeFallbackOnEncoderError(t *testing.T) {
	encoder := &fakeEncoder{err: errors.New("model endpoint down")}
	s := NewSynthesizer(encoder, testAnchors(), zap.NewNop())

	card := s.Synthesize(context.Background(), scenarioVacancy())

	if _, ok := card.Trace[FallbackKey]; !ok {
		t.Fatalf("expected fallback card on encoder failure, trace: %v", card.Trace)
	}
	if !strings.Contains(card.Text, "ML Engineer") {
		t.Fatalf("fallback card must keep the header:\n%s", card.Text)
	}
}

func TestSynthesizeEmptyVacancy(t *testing.T) {
	s := NewSynthesizer(scenarioEncoder(), testAnchors(), zap.NewNop())

	card := s.Synthesize(context.Background(), &vacancy.Vacancy{})

	if !strings.Contains(card.Text, fallbackTitle) {
		t.Fatalf("expected placeholder title, got:\n%s", card.Text)
	}
	if raw := card.Trace[FallbackKey]; len(raw) != 0 {
		t.Fatalf("expected empty fallback sentence list, got %v", raw)
	}
}

func TestEscapeHTMLRoundTrip(t *testing.T) {
	escaped := escapeHTML(`<b>Senior & "Lead" Engineer</b>`)

	if strings.ContainsAny(escaped, "<>") {
		t.Fatalf("literal tag markers survived escaping: %q", escaped)
	}
	if !strings.Contains(escaped, "&amp;") || !strings.Contains(escaped, "&lt;b&gt;") {
		t.Fatalf("unexpected escape output: %q", escaped)
	}
}

func TestRenderBudgetsRawRunesNotEntities(t *testing.T) {
	s := NewSynthesizer(scenarioEncoder(), testAnchors(), zap.NewNop())

	// 161 visible runes, but over 400 once the ampersands are escaped.
	// The whole sentence must survive the 170-rune section limit.
	sentence := strings.Repeat("&", 60) + " " + strings.Repeat("д", 100)
	text := s.render(&vacancy.Vacancy{Title: "R&D Engineer"}, map[string][]string{
		AnchorDuties: {sentence},
	})

	if !strings.Contains(text, escapeHTML(sentence)) {
		t.Fatalf("short sentence was truncated by its escaped length:\n%s", text)
	}
}

func TestRenderNeverCutsThroughEntities(t *testing.T) {
	s := NewSynthesizer(scenarioEncoder(), testAnchors(), zap.NewNop())

	long := strings.Repeat("a&b ", 100)
	text := s.render(&vacancy.Vacancy{Title: "T"}, map[string][]string{
		AnchorDuties: {long},
	})

	for _, broken := range []string{"&…", "&a…", "&am…", "&amp…"} {
		if strings.Contains(text, broken) {
			t.Fatalf("found sliced entity %q:\n%s", broken, text)
		}
	}
	if !strings.Contains(text, "…") {
		t.Fatalf("expected the long sentence to be shortened:\n%s", text)
	}
}

func TestShortenBounds(t *testing.T) {
	long := strings.Repeat("длинное ", 40)

	for _, max := range []int{10, 50, 170, 200} {
		got := shorten(long, max)
		if utf8.RuneCountInString(got) > max+1 {
			t.Fatalf("shorten(%d) returned %d runes", max, utf8.RuneCountInString(got))
		}
	}
}

func TestShortenBreaksAtWordBoundary(t *testing.T) {
	got := shorten("alpha beta gamma delta", 12)

	if got != "alpha beta…" {
		t.Fatalf("expected cut at word boundary, got %q", got)
	}
}

func TestShortenKeepsShortStrings(t *testing.T) {
	if got := shorten("short", 170); got != "short" {
		t.Fatalf("expected unchanged string, got %q", got)
	}
}

func TestClip(t *testing.T) {
	card := &Card{Text: strings.Repeat("a", 100)}

	if got := card.Clip(0); got != card.Text {
		t.Fatalf("non-positive limit must not clip")
	}
	if got := card.Clip(50); utf8.RuneCountInString(got) != 50 || !strings.HasSuffix(got, "…") {
		t.Fatalf("unexpected clip result: %q", got)
	}
}
