package backend

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"unicode"
)

// vocab holds a WordPiece vocabulary loaded from a vocab.txt file.
// Token IDs are determined by line number (0-indexed).
type vocab struct {
	tokenToID map[string]int64

	padID int64
	unkID int64
	clsID int64
	sepID int64
}

// loadVocab reads a vocab.txt file where each line is a token and the line
// number (0-indexed) is the token ID.
func loadVocab(path string) (*vocab, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("vocab: %w", err)
	}
	defer f.Close()

	tokenToID := make(map[string]int64, 32000)
	scanner := bufio.NewScanner(f)
	var count int64
	for scanner.Scan() {
		tokenToID[scanner.Text()] = count
		count++
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("vocab: read error: %w", err)
	}
	if count == 0 {
		return nil, fmt.Errorf("vocab: file is empty: %s", path)
	}

	v := &vocab{tokenToID: tokenToID}

	specials := []struct {
		name string
		dest *int64
	}{
		{"[PAD]", &v.padID},
		{"[UNK]", &v.unkID},
		{"[CLS]", &v.clsID},
		{"[SEP]", &v.sepID},
	}
	for _, s := range specials {
		id, ok := tokenToID[s.name]
		if !ok {
			return nil, fmt.Errorf("vocab: missing special token %s", s.name)
		}
		*s.dest = id
	}

	return v, nil
}

func (v *vocab) lookup(token string) int64 {
	if id, ok := v.tokenToID[token]; ok {
		return id
	}
	return v.unkID
}

func (v *vocab) contains(token string) bool {
	_, ok := v.tokenToID[token]
	return ok
}

// wordpieceTokenizer performs BERT-style WordPiece tokenization. Accents are
// preserved: the Swedish vocabularies keep å/ä/ö as distinct tokens.
type wordpieceTokenizer struct {
	vocab *vocab
}

// encode converts text into padded token IDs with [CLS] and [SEP], truncated
// to seqLen. The returned slices both have length seqLen.
func (t *wordpieceTokenizer) encode(text string, seqLen int) (inputIDs, attentionMask []int64) {
	tokens := t.wordpiece(basicTokenize(text))

	maxTokens := seqLen - 2
	if len(tokens) > maxTokens {
		tokens = tokens[:maxTokens]
	}

	ids := make([]int64, seqLen)
	mask := make([]int64, seqLen)

	ids[0] = t.vocab.clsID
	mask[0] = 1
	for i, tok := range tokens {
		ids[i+1] = t.vocab.lookup(tok)
		mask[i+1] = 1
	}
	ids[len(tokens)+1] = t.vocab.sepID
	mask[len(tokens)+1] = 1

	return ids, mask
}

func (t *wordpieceTokenizer) wordpiece(tokens []string) []string {
	var result []string
	for _, token := range tokens {
		if len(token) == 0 {
			continue
		}
		result = append(result, t.wordpieceToken(token)...)
	}
	return result
}

func (t *wordpieceTokenizer) wordpieceToken(token string) []string {
	runes := []rune(token)
	if len(runes) > 200 {
		return []string{"[UNK]"}
	}

	var subTokens []string
	start := 0
	for start < len(runes) {
		end := len(runes)
		found := false
		for end > start {
			sub := string(runes[start:end])
			if start > 0 {
				sub = "##" + sub
			}
			if t.vocab.contains(sub) {
				subTokens = append(subTokens, sub)
				found = true
				break
			}
			end--
		}
		if !found {
			return []string{"[UNK]"}
		}
		start = end
	}
	return subTokens
}

// basicTokenize lowercases and splits on whitespace and punctuation.
func basicTokenize(text string) []string {
	text = strings.ToLower(text)
	var tokens []string
	for _, word := range strings.Fields(text) {
		tokens = append(tokens, splitOnPunctuation(word)...)
	}
	return tokens
}

func splitOnPunctuation(word string) []string {
	var tokens []string
	var current strings.Builder
	for _, r := range word {
		if isPunctuation(r) {
			if current.Len() > 0 {
				tokens = append(tokens, current.String())
				current.Reset()
			}
			tokens = append(tokens, string(r))
		} else {
			current.WriteRune(r)
		}
	}
	if current.Len() > 0 {
		tokens = append(tokens, current.String())
	}
	return tokens
}

func isPunctuation(r rune) bool {
	if (r >= 33 && r <= 47) || (r >= 58 && r <= 64) ||
		(r >= 91 && r <= 96) || (r >= 123 && r <= 126) {
		return true
	}
	return unicode.IsPunct(r)
}
