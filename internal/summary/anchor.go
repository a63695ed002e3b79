package summary

// Anchor is a named topical probe: a few human-curated paraphrases of one
// topic plus a budget of sentences to pick for it. Anchors are fixed by
// hand, not derived from data.
type Anchor struct {
	// Name keys the card trace and the section-order configuration.
	Name string
	// Title is the rendered section label.
	Title string
	// Queries are paraphrase phrasings pooled into one probe vector.
	Queries []string
	// Limit caps how many sentences the anchor may claim.
	Limit int
}

const (
	AnchorDuties       = "duties"
	AnchorCompany      = "company"
	AnchorRequirements = "requirements"
)

// DefaultAnchors returns the built-in anchor set in its default priority
// order. The order matters: earlier anchors claim ambiguous high-scoring
// sentences first.
func DefaultAnchors() []Anchor {
	return []Anchor{
		{
			Name:  AnchorDuties,
			Title: "Задачи",
			Queries: []string{
				"обязанности и задачи на этой позиции",
				"чем предстоит заниматься в работе",
				"что нужно будет делать",
			},
			Limit: 3,
		},
		{
			Name:  AnchorCompany,
			Title: "О компании",
			Queries: []string{
				"информация о компании и команде",
				"чем занимается компания",
			},
			Limit: 2,
		},
		{
			Name:  AnchorRequirements,
			Title: "Требования",
			Queries: []string{
				"требования к кандидату",
				"необходимые навыки и опыт",
				"что мы ожидаем от кандидата",
			},
			Limit: 3,
		},
	}
}

// OrderAnchors reorders anchors by the configured section names. Unknown
// names are skipped; with an empty configuration the input order stands.
func OrderAnchors(anchors []Anchor, names []string) []Anchor {
	if len(names) == 0 {
		return anchors
	}

	byName := make(map[string]Anchor, len(anchors))
	for _, anchor := range anchors {
		byName[anchor.Name] = anchor
	}

	ordered := make([]Anchor, 0, len(anchors))
	for _, name := range names {
		if anchor, ok := byName[name]; ok {
			ordered = append(ordered, anchor)
			delete(byName, name)
		}
	}

	return ordered
}
