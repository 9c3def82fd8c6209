package identify

import (
	"fmt"
	"strings"

	"remsort/internal/models"
)

// examplesPerCategory is how many synthetic texts are generated per category:
// three short, three medium, four long variants built from the keyword list.
const examplesPerCategory = 10

// SyntheticCorpus builds the balanced base training corpus from every
// category's keyword list. Keyword indices wrap so short lists still produce
// all ten variants.
func SyntheticCorpus(cats []models.Category) []models.TrainingExample {
	corpus := make([]models.TrainingExample, 0, len(cats)*examplesPerCategory)
	for _, cat := range cats {
		if len(cat.Keywords) == 0 {
			continue
		}
		name := strings.ToLower(cat.Name)
		kw := func(i int) string { return cat.Keywords[i%len(cat.Keywords)] }

		for i := 0; i < examplesPerCategory; i++ {
			var text string
			switch {
			case i < 3:
				text = fmt.Sprintf("Remiss till %s. %s och %s.", name, kw(i), kw(i+1))
			case i < 6:
				text = fmt.Sprintf(
					"Patient remitteras till %s. Diagnos: %s, %s, %s. Behandling: %s.",
					name, kw(i), kw(i+1), kw(i+2), kw(i+3),
				)
			default:
				text = fmt.Sprintf(
					"Remiss till %s. Patient har %s, %s, %s. Symtom: %s, %s. Planerad behandling: %s.",
					name, kw(i), kw(i+1), kw(i+2), kw(i+3), kw(i+4), kw(i+5),
				)
			}
			corpus = append(corpus, models.TrainingExample{Text: text, Category: cat.Name})
		}
	}
	return corpus
}
