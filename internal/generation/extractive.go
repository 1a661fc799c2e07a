// Package generation holds the answer-producing backends. The hosted
// backend lives in transport/openai; this package provides the local
// extractive fallback that needs no credentials.
package generation

import (
	"context"
	"math"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/kailas-cloud/finrag/internal/domain"
)

var (
	sentencePattern = regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?])`)
	tokenPattern    = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`)
)

// Extractive answers by pulling the highest-signal sentences out of the
// prompt's context. It is a stand-in for a hosted model: deterministic,
// offline, and serialized because the shared frequency state is not
// safe for concurrent scoring.
type Extractive struct {
	mu           sync.Mutex
	maxSentences int
	stopwords    map[string]struct{}
}

// NewExtractive creates the local generator. maxSentences bounds answer length.
func NewExtractive(maxSentences int) *Extractive {
	if maxSentences <= 0 {
		maxSentences = 3
	}
	return &Extractive{
		maxSentences: maxSentences,
		stopwords:    defaultStopwords(),
	}
}

// Generate ranks the prompt's sentences by normalized token frequency
// and returns the best ones in original order.
func (g *Extractive) Generate(ctx context.Context, prompt string) (domain.GenerationResult, error) {
	if err := ctx.Err(); err != nil {
		return domain.GenerationResult{}, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	content := g.summarize(relevantText(prompt))
	return domain.GenerationResult{Content: content}, nil
}

// relevantText strips the instruction preamble and the trailing
// question/cue so only context and history sentences get ranked.
func relevantText(prompt string) string {
	text := prompt
	if i := strings.Index(text, "Context:"); i >= 0 {
		text = text[i+len("Context:"):]
	}
	if i := strings.LastIndex(text, "Question:"); i >= 0 {
		text = text[:i]
	}
	return text
}

func (g *Extractive) summarize(text string) string {
	sentences := sentencePattern.FindAllString(text, -1)
	if len(sentences) == 0 {
		return strings.TrimSpace(text)
	}

	freq := map[string]float64{}
	for _, sent := range sentences {
		for _, tok := range tokens(sent) {
			if _, ok := g.stopwords[tok]; ok {
				continue
			}
			freq[tok]++
		}
	}

	maxF := 0.0
	for _, v := range freq {
		if v > maxF {
			maxF = v
		}
	}
	if maxF > 0 {
		for k, v := range freq {
			freq[k] = v / maxF
		}
	}

	type pair struct {
		idx   int
		score float64
	}
	scores := make([]pair, len(sentences))
	for i, sent := range sentences {
		score := 0.0
		toks := tokens(sent)
		for _, tok := range toks {
			if v, ok := freq[tok]; ok {
				score += v
			}
		}
		// Length normalization keeps long sentences from dominating.
		if l := float64(len(toks)); l > 0 {
			score /= math.Sqrt(l)
		}
		scores[i] = pair{i, score}
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].score > scores[j].score })

	n := g.maxSentences
	if n > len(scores) {
		n = len(scores)
	}
	selected := make([]int, n)
	for i := 0; i < n; i++ {
		selected[i] = scores[i].idx
	}
	sort.Ints(selected)

	out := make([]string, 0, n)
	for _, idx := range selected {
		out = append(out, strings.TrimSpace(sentences[idx]))
	}
	return strings.Join(out, " ")
}

func tokens(text string) []string {
	return tokenPattern.FindAllString(strings.ToLower(text), -1)
}

func defaultStopwords() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to",
		"of", "in", "on", "at", "by", "with", "as", "is", "are", "was", "were",
		"be", "been", "being", "it", "this", "that", "these", "those", "from",
		"up", "down", "over", "under", "again", "further", "than", "so", "such",
		"into", "about", "between", "through", "during", "before", "after",
		"above", "below", "out", "off", "own", "same", "too", "very", "can",
		"will", "just", "don", "should", "now",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
