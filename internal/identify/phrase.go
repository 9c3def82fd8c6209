package identify

import (
	"context"
	"fmt"
	"strings"
)

// DefaultPhrases are the recipient indicators scanned for, in priority order.
// Swedish referral wording first, English equivalents after.
var DefaultPhrases = []string{
	"remiss till",
	"remitteras till",
	"mottagare",
	"till verksamhet",
	"refer to",
	"referred to",
	"recipient",
	"to department",
}

// clinicSuffixes are appended to a lowercased category name to form the
// literal clinic-name substrings ("gynekologi" -> "gynekologiska kliniken"
// style hits are covered by the space and joined variants).
var clinicSuffixes = []string{
	"kliniken",
	" kliniken",
	"-kliniken",
	"mottagningen",
	" mottagningen",
	" clinic",
	"-clinic",
	" department",
}

// PhraseMatcher is the high-precision, low-recall first-line heuristic: an
// explicit recipient phrase followed by a category keyword within a fixed
// window, or a literal clinic-name substring. Stateless and deterministic.
type PhraseMatcher struct {
	catalog Catalog

	Phrases     []string
	Window      int
	PhraseScore float64
	ClinicScore float64
}

func NewPhraseMatcher(catalog Catalog) *PhraseMatcher {
	return &PhraseMatcher{
		catalog:     catalog,
		Phrases:     DefaultPhrases,
		Window:      200,
		PhraseScore: 95,
		ClinicScore: 90,
	}
}

func (m *PhraseMatcher) Identify(ctx context.Context, text string) (Result, error) {
	lower := strings.ToLower(text)
	if strings.TrimSpace(lower) == "" {
		return NoOpinion(), nil
	}
	cats := m.catalog.Categories()
	if len(cats) == 0 {
		return NoOpinion(), nil
	}

	// First phrase in the configured list wins; within its window the
	// keyword encountered earliest by forward scan wins.
	for _, phrase := range m.Phrases {
		idx := strings.Index(lower, phrase)
		if idx < 0 {
			continue
		}
		start := idx + len(phrase)
		end := start + m.Window
		if end > len(lower) {
			end = len(lower)
		}
		window := lower[start:end]

		bestPos := -1
		bestCat := ""
		bestKeyword := ""
		for _, cat := range cats {
			for _, kw := range cat.Keywords {
				pos := strings.Index(window, strings.ToLower(kw))
				if pos >= 0 && (bestPos < 0 || pos < bestPos) {
					bestPos = pos
					bestCat = cat.Name
					bestKeyword = kw
				}
			}
		}
		if bestPos >= 0 {
			return Result{
				Category:   bestCat,
				Confidence: m.PhraseScore,
				Source:     SourcePhraseMatch,
				Rationale:  fmt.Sprintf("phrase %q followed by keyword %q", phrase, bestKeyword),
			}, nil
		}
	}

	// Literal clinic/department name anywhere in the text.
	for _, cat := range cats {
		name := strings.ToLower(cat.Name)
		for _, suffix := range clinicSuffixes {
			if strings.Contains(lower, name+suffix) {
				return Result{
					Category:   cat.Name,
					Confidence: m.ClinicScore,
					Source:     SourceClinicMatch,
					Rationale:  fmt.Sprintf("clinic name %q", name+suffix),
				}, nil
			}
		}
	}

	return NoOpinion(), nil
}
