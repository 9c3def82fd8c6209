package identify

import (
	"context"
	"fmt"
	"strings"
)

// DefaultStrongIndicators carries hand-curated terms whose presence is a
// near-certain signal for a sensitive category. The +15 bonus is applied
// once per term found, on top of normal occurrence scoring.
var DefaultStrongIndicators = map[string][]string{
	"Kardiologi": {"hjärtinfarkt", "infarkt", "angina"},
	"Neurologi":  {"stroke", "epilepsi"},
	"Gynekologi": {"graviditet", "cellförändringar"},
}

// CategoryScore is one category's keyword-scoring outcome.
type CategoryScore struct {
	Category   string
	Raw        float64
	Confidence float64
}

// KeywordScorer is the terminal fallback strategy. It needs no model and no
// network, so the cascade is guaranteed to end with some answer. The tuning
// constants are empirical; changing them changes routing outcomes.
type KeywordScorer struct {
	catalog Catalog

	Phrases          []string
	Weight           float64
	ProximityBonus   float64
	ProximityWindow  int
	IndicatorBonus   float64
	Normalizer       float64
	Floor            float64
	StrongIndicators map[string][]string
}

func NewKeywordScorer(catalog Catalog) *KeywordScorer {
	return &KeywordScorer{
		catalog:          catalog,
		Phrases:          DefaultPhrases,
		Weight:           2,
		ProximityBonus:   10,
		ProximityWindow:  100,
		IndicatorBonus:   15,
		Normalizer:       15,
		Floor:            30,
		StrongIndicators: DefaultStrongIndicators,
	}
}

// Scores computes the per-category confidence by the raw formula
// min(100, total/len(keywords) * K), in first-registered order, without
// applying the floor. Identify applies the floor on top of this.
func (s *KeywordScorer) Scores(text string) []CategoryScore {
	lower := strings.ToLower(text)
	cats := s.catalog.Categories()
	intervals := s.phraseIntervals(lower)

	scores := make([]CategoryScore, 0, len(cats))
	for _, cat := range cats {
		total := 0.0
		for _, kw := range cat.Keywords {
			for _, pos := range occurrences(lower, strings.ToLower(kw)) {
				total += s.Weight
				if inAnyInterval(pos, intervals) {
					total += s.ProximityBonus
				}
			}
		}
		for _, term := range s.StrongIndicators[cat.Name] {
			if strings.Contains(lower, strings.ToLower(term)) {
				total += s.IndicatorBonus
			}
		}

		conf := 0.0
		if len(cat.Keywords) > 0 {
			conf = total / float64(len(cat.Keywords)) * s.Normalizer
		}
		if conf > 100 {
			conf = 100
		}
		scores = append(scores, CategoryScore{Category: cat.Name, Raw: total, Confidence: conf})
	}
	return scores
}

func (s *KeywordScorer) Identify(ctx context.Context, text string) (Result, error) {
	if strings.TrimSpace(text) == "" {
		return NoOpinion(), nil
	}

	// Ties keep the first-registered category: only a strictly higher
	// confidence displaces the current best.
	var best CategoryScore
	for _, sc := range s.Scores(text) {
		if sc.Confidence > best.Confidence {
			best = sc
		}
	}

	if best.Category == "" || best.Confidence < s.Floor {
		return NoOpinion(), nil
	}
	return Result{
		Category:   best.Category,
		Confidence: best.Confidence,
		Source:     SourceKeywordFallback,
		Rationale:  fmt.Sprintf("keyword score %.1f", best.Raw),
	}, nil
}

// phraseIntervals returns the text ranges in which a keyword occurrence
// earns the proximity bonus: within ProximityWindow characters on either
// side of a recipient phrase.
func (s *KeywordScorer) phraseIntervals(lower string) [][2]int {
	var intervals [][2]int
	for _, phrase := range s.Phrases {
		from := 0
		for {
			idx := strings.Index(lower[from:], phrase)
			if idx < 0 {
				break
			}
			start := from + idx
			lo := start - s.ProximityWindow
			if lo < 0 {
				lo = 0
			}
			intervals = append(intervals, [2]int{lo, start + len(phrase) + s.ProximityWindow})
			from = start + len(phrase)
		}
	}
	return intervals
}

func occurrences(text, sub string) []int {
	if sub == "" {
		return nil
	}
	var positions []int
	from := 0
	for {
		idx := strings.Index(text[from:], sub)
		if idx < 0 {
			return positions
		}
		positions = append(positions, from+idx)
		from += idx + len(sub)
	}
}

func inAnyInterval(pos int, intervals [][2]int) bool {
	for _, iv := range intervals {
		if pos >= iv[0] && pos <= iv[1] {
			return true
		}
	}
	return false
}
