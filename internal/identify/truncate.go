package identify

import (
	"strings"
	"unicode/utf8"

	"github.com/neurosnap/sentences"
)

// TruncateSentences caps text at maxChars without cutting mid-sentence.
// Strategies apply their own budget before handing text to a model; phrase
// and keyword scanning always see the full text.
func TruncateSentences(text string, maxChars int) string {
	if maxChars <= 0 || len(text) <= maxChars {
		return text
	}

	tokenizer := sentences.NewSentenceTokenizer(sentences.NewStorage())
	if tokenizer == nil {
		return cutAtRune(text, maxChars)
	}

	var b strings.Builder
	for _, s := range tokenizer.Tokenize(text) {
		st := strings.TrimSpace(s.Text)
		if st == "" {
			continue
		}
		if b.Len() > 0 && b.Len()+len(st)+1 > maxChars {
			break
		}
		if b.Len() == 0 && len(st) > maxChars {
			return cutAtRune(st, maxChars)
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(st)
	}
	if b.Len() == 0 {
		return cutAtRune(text, maxChars)
	}
	return b.String()
}

// cutAtRune truncates s to at most maxChars bytes without splitting a
// multi-byte rune, so å/ä/ö never become invalid UTF-8 at the cut point.
func cutAtRune(s string, maxChars int) string {
	if len(s) <= maxChars {
		return s
	}
	cut := maxChars
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
