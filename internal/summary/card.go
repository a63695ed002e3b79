package summary

import (
	"context"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/dima1799/jobradar-ai/internal/embedding"
	"github.com/dima1799/jobradar-ai/internal/metrics"
	"github.com/dima1799/jobradar-ai/internal/vacancy"
	"go.uber.org/zap"
)

const (
	// FallbackKey marks the trace entry of a card that skipped scoring.
	FallbackKey = "fallback"

	// Documents with fewer qualifying sentences than this take the
	// fallback path; scoring two sentences is pointless.
	defaultMinSentences = 3

	defaultSentenceLimit = 170
	defaultCompanyLimit  = 200

	companyPlaceholder = "Информация о компании не указана."
	ctaLine            = "👇 Полное описание — по ссылке ниже"
	fallbackTitle      = "Вакансия"
)

// Card is a rendered vacancy summary: text with a minimal HTML subset
// (bold tags only) plus a trace of which sentences each anchor claimed.
type Card struct {
	Text  string
	Trace map[string][]string
}

// Clip truncates the card text to limit runes for transports with a
// message-size ceiling. The header is at the top, so it survives any
// reasonable limit.
func (c *Card) Clip(limit int) string {
	if limit <= 0 || utf8.RuneCountInString(c.Text) <= limit {
		return c.Text
	}

	runes := []rune(c.Text)
	return string(runes[:limit-1]) + "…"
}

// Synthesizer builds summary cards by scoring a vacancy's sentences
// against the configured anchors. It never fails: any error on the way
// degrades to the minimal fallback card.
type Synthesizer struct {
	encoder      embedding.Encoder
	segmenter    *Segmenter
	anchors      []Anchor
	logger       *zap.Logger
	minSentences int
	minPickLen   int

	probeMu sync.Mutex
	probes  map[string][]float32
}

func NewSynthesizer(encoder embedding.Encoder, anchors []Anchor, logger *zap.Logger) *Synthesizer {
	if len(anchors) == 0 {
		anchors = DefaultAnchors()
	}

	return &Synthesizer{
		encoder:      encoder,
		segmenter:    NewSegmenter(),
		anchors:      anchors,
		logger:       logger,
		minSentences: defaultMinSentences,
		minPickLen:   defaultMinPickLen,
		probes:       make(map[string][]float32),
	}
}

// Synthesize renders the summary card for one vacancy.
func (s *Synthesizer) Synthesize(ctx context.Context, v *vacancy.Vacancy) *Card {
	sentences := s.segmenter.Split(v.Text())
	if len(sentences) < s.minSentences {
		return s.fallbackCard(v, sentences)
	}

	vectors, err := s.encoder.Encode(ctx, sentences, true)
	if err != nil {
		s.logger.Warn("embedding sentences failed, falling back to minimal card",
			zap.String("vacancy_id", v.ID),
			zap.Error(err),
		)
		return s.fallbackCard(v, sentences)
	}

	used := make(map[int]struct{})
	trace := make(map[string][]string, len(s.anchors))
	for _, anchor := range s.anchors {
		probe, err := s.probe(ctx, anchor)
		if err != nil {
			s.logger.Warn("embedding anchor queries failed, skipping section",
				zap.String("anchor", anchor.Name),
				zap.Error(err),
			)
			continue
		}
		trace[anchor.Name] = Pick(sentences, vectors, probe, used, anchor.Limit, s.minPickLen)
	}

	metrics.CardsRendered.WithLabelValues("full").Inc()
	return &Card{Text: s.render(v, trace), Trace: trace}
}

// probe returns the pooled, normalized probe vector for an anchor.
// Anchor queries are fixed, so each probe is embedded once per process.
func (s *Synthesizer) probe(ctx context.Context, anchor Anchor) ([]float32, error) {
	s.probeMu.Lock()
	defer s.probeMu.Unlock()

	if probe, ok := s.probes[anchor.Name]; ok {
		return probe, nil
	}

	vectors, err := s.encoder.Encode(ctx, anchor.Queries, true)
	if err != nil {
		return nil, err
	}

	probe := embedding.MeanPool(vectors)
	s.probes[anchor.Name] = probe
	return probe, nil
}

func (s *Synthesizer) render(v *vacancy.Vacancy, trace map[string][]string) string {
	lines := header(v)

	for _, anchor := range s.anchors {
		picked := trace[anchor.Name]
		if len(picked) == 0 {
			// Only the company section is worth showing empty: users
			// asked where the employer blurb went.
			if anchor.Name != AnchorCompany {
				continue
			}
			lines = append(lines, "", "<b>"+anchor.Title+":</b>", companyPlaceholder)
			continue
		}

		limit := defaultSentenceLimit
		if anchor.Name == AnchorCompany {
			limit = defaultCompanyLimit
		}

		lines = append(lines, "", "<b>"+anchor.Title+":</b>")
		for _, sentence := range picked {
			// The rune budget counts visible text; escaping happens after
			// the cut so entities can never be sliced apart.
			lines = append(lines, "— "+escapeHTML(shorten(sentence, limit)))
		}
	}

	return strings.Join(lines, "\n")
}

func (s *Synthesizer) fallbackCard(v *vacancy.Vacancy, sentences []string) *Card {
	lines := header(v)
	if v.URL != "" {
		lines = append(lines, "", ctaLine)
	}

	metrics.CardsRendered.WithLabelValues("fallback").Inc()
	return &Card{
		Text:  strings.Join(lines, "\n"),
		Trace: map[string][]string{FallbackKey: sentences},
	}
}

func header(v *vacancy.Vacancy) []string {
	title := v.Title
	if title == "" {
		title = fallbackTitle
	}

	lines := []string{"💼 <b>" + escapeHTML(title) + "</b>"}
	if v.Company != "" {
		lines = append(lines, "🏢 "+escapeHTML(v.Company))
	}
	if v.SalaryText != "" {
		lines = append(lines, "💰 <b>"+escapeHTML(v.SalaryText)+"</b>")
	}

	return lines
}

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
)

// escapeHTML neutralizes markup in user-supplied text before the card's
// own bold tags are added around it.
func escapeHTML(s string) string {
	return htmlEscaper.Replace(s)
}

// shorten cuts s to at most max runes plus an ellipsis, breaking at the
// last space before the limit instead of mid-word when one exists.
func shorten(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}

	cut := string([]rune(s)[:max])
	if idx := strings.LastIndex(cut, " "); idx > 0 {
		cut = cut[:idx]
	}

	return strings.TrimRight(cut, " ") + "…"
}
