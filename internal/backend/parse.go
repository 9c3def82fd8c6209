package backend

import (
	"fmt"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"remsort/internal/identify"
	"remsort/internal/models"
)

const (
	// defaultConfidence replaces an unparseable or out-of-range confidence.
	defaultConfidence = 75
	// unsureConfidence replaces a reported 0% on a valid category: the
	// model found a match it does not trust, which is still a signal worth
	// keeping rather than discarding.
	unsureConfidence = 50
	// fuzzyCutoff is the minimum lexical similarity for correcting an
	// unregistered category name to a registered one.
	fuzzyCutoff = 0.6
)

// ParseReply extracts (category, confidence, rationale) from a prompt
// backend's free-text reply. Malformed replies are corrected, never
// surfaced as errors: a missing category line means no opinion; an invalid
// category is fuzzy-matched against the registry, falling back to the first
// registered category.
func ParseReply(reply string, categories []string) identify.Result {
	var category, rationale string
	confidence := -1.0

	for _, line := range strings.Split(reply, "\n") {
		line = strings.TrimSpace(line)
		lower := strings.ToLower(line)
		switch {
		case category == "" && hasAnyPrefix(lower, "category:", "verksamhet:"):
			category = strings.TrimSpace(valueAfterColon(line))
		case confidence < 0 && hasAnyPrefix(lower, "confidence:", "sannolikhet:"):
			raw := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(valueAfterColon(line)), "%"))
			if v, err := strconv.ParseFloat(raw, 64); err == nil {
				confidence = v
			}
		case rationale == "" && hasAnyPrefix(lower, "rationale:", "motivering:"):
			rationale = strings.TrimSpace(valueAfterColon(line))
		}
	}

	if category == "" || len(categories) == 0 {
		return identify.NoOpinion()
	}

	if canonical, ok := exactMatch(category, categories); ok {
		category = canonical
	} else {
		corrected := closestCategory(category, categories)
		log.WithFields(log.Fields{"reported": category, "corrected": corrected}).
			Warn("model reported unregistered category")
		category = corrected
	}

	switch {
	case confidence < 0 || confidence > 100:
		confidence = defaultConfidence
	case confidence == 0:
		confidence = unsureConfidence
	}

	return identify.Result{
		Category:   category,
		Confidence: confidence,
		Source:     identify.SourceExternalModel,
		Rationale:  rationale,
	}
}

// ParseSuggestion extracts a proposed category from a suggestion reply.
func ParseSuggestion(reply string) (models.Category, error) {
	var cat models.Category
	for _, line := range strings.Split(reply, "\n") {
		line = strings.TrimSpace(line)
		lower := strings.ToLower(line)
		switch {
		case cat.Name == "" && hasAnyPrefix(lower, "name:", "namn:"):
			cat.Name = strings.TrimSpace(valueAfterColon(line))
		case cat.Keywords == nil && hasAnyPrefix(lower, "keywords:", "nyckelord:"):
			for _, kw := range strings.Split(valueAfterColon(line), ",") {
				if kw = strings.TrimSpace(kw); kw != "" {
					cat.Keywords = append(cat.Keywords, strings.ToLower(kw))
				}
			}
		}
	}
	if cat.Name == "" || len(cat.Keywords) == 0 {
		return models.Category{}, fmt.Errorf("%w: suggestion reply missing name or keywords", models.ErrValidation)
	}
	return cat, nil
}

func hasAnyPrefix(s string, prefixes ...string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

func valueAfterColon(line string) string {
	if idx := strings.Index(line, ":"); idx >= 0 {
		return line[idx+1:]
	}
	return ""
}

func exactMatch(name string, categories []string) (string, bool) {
	for _, c := range categories {
		if strings.EqualFold(c, name) {
			return c, true
		}
	}
	return "", false
}

// closestCategory picks the registered category most lexically similar to
// name, or the first registered category when nothing clears the cutoff.
func closestCategory(name string, categories []string) string {
	best := -1.0
	bestCat := categories[0]
	lower := strings.ToLower(name)
	for _, c := range categories {
		if sim := similarity(lower, strings.ToLower(c)); sim > best {
			best = sim
			bestCat = c
		}
	}
	if best < fuzzyCutoff {
		return categories[0]
	}
	return bestCat
}

// similarity is a normalized edit-distance ratio in [0,1].
func similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	ra, rb := []rune(a), []rune(b)
	longest := len(ra)
	if len(rb) > longest {
		longest = len(rb)
	}
	if longest == 0 {
		return 1
	}
	return 1 - float64(levenshtein(ra, rb))/float64(longest)
}

func levenshtein(a, b []rune) int {
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		cur[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}
