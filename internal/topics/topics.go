// Package topics builds a document outline with the generative model: the main
// topics, key vocabulary and, for non-English documents, grammar points.
package topics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"docquery/internal/contextutil"
	"docquery/internal/domain"
	"docquery/internal/gateway"
	"docquery/internal/retry"
	"docquery/internal/textutil"
)

const (
	topicTextLimit      = 3000
	vocabularyTextLimit = 2000
	grammarTextLimit    = 2000

	maxTopics        = 10
	maxTerms         = 15
	maxGrammarPoints = 8
)

// FallbackTopic is stored when the model returns no usable topics.
var FallbackTopic = domain.Topic{
	Name:          "Document Content",
	Description:   "Main topic",
	Difficulty:    domain.Intermediate,
	KeyVocabulary: []string{},
}

// Generator produces text for a prompt. *gateway.Gateway satisfies it.
type Generator interface {
	Generate(ctx context.Context, prompt string, opts gateway.Options) (string, error)
}

// Extractor asks the model for a document outline.
type Extractor struct {
	generator Generator
	policy    retry.Policy
}

// New creates an Extractor.
func New(generator Generator, policy retry.Policy) *Extractor {
	return &Extractor{generator: generator, policy: policy}
}

// Extract returns the outline of text. It never fails: topics fall back to
// FallbackTopic and the other lists to empty.
func (e *Extractor) Extract(ctx context.Context, text, language string) domain.Outline {
	outline := domain.EmptyOutline()
	outline.Topics = e.topics(ctx, text)
	outline.Vocabulary = e.vocabulary(ctx, text)
	if wantsGrammar(language) {
		outline.GrammarPoints = e.grammar(ctx, text, language)
	}

	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "outline extracted",
		"topics", len(outline.Topics),
		"terms", len(outline.Vocabulary),
		"grammar_points", len(outline.GrammarPoints),
	)
	return outline
}

func wantsGrammar(language string) bool {
	switch language {
	case "", "en", "unknown":
		return false
	}
	return true
}

type rawTopic struct {
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Difficulty    string          `json:"difficulty"`
	KeyVocabulary json.RawMessage `json:"key_vocabulary"`
}

func (e *Extractor) topics(ctx context.Context, text string) []domain.Topic {
	prompt := fmt.Sprintf(`Extract the main topics from this educational text. For each topic, provide:
- name: Topic title
- description: Brief explanation (1-2 sentences)
- difficulty: Beginner/Intermediate/Advanced
- key_vocabulary: Important terms (comma-separated)

Text:
%s

Return as JSON array:
[{"name": "...", "description": "...", "difficulty": "...", "key_vocabulary": "..."}]`, head(text, topicTextLimit))

	var raw []rawTopic
	if err := e.generateArray(ctx, "topic extraction", prompt, gateway.Options{Temperature: 0.5, MaxTokens: 1000, Block: true}, &raw); err != nil {
		contextutil.LoggerFromContext(ctx).WarnContext(ctx, "topic extraction failed, using fallback", "error", err)
		return []domain.Topic{FallbackTopic}
	}

	topics := make([]domain.Topic, 0, min(len(raw), maxTopics))
	for _, r := range raw {
		name := strings.TrimSpace(r.Name)
		if name == "" {
			continue
		}
		topics = append(topics, domain.Topic{
			Name:          name,
			Description:   strings.TrimSpace(r.Description),
			Difficulty:    parseDifficulty(r.Difficulty, domain.Intermediate),
			KeyVocabulary: splitTerms(r.KeyVocabulary),
		})
		if len(topics) == maxTopics {
			break
		}
	}
	if len(topics) == 0 {
		return []domain.Topic{FallbackTopic}
	}
	return topics
}

type rawTerm struct {
	Word       string `json:"word"`
	Definition string `json:"definition"`
	Difficulty string `json:"difficulty"`
}

func (e *Extractor) vocabulary(ctx context.Context, text string) []domain.Term {
	prompt := fmt.Sprintf(`Extract 10-15 key vocabulary terms from this text. For each term:
- word: The term
- definition: Definition in simple terms
- difficulty: Beginner/Intermediate/Advanced

Text:
%s

Return as JSON array:
[{"word": "...", "definition": "...", "difficulty": "..."}]`, head(text, vocabularyTextLimit))

	var raw []rawTerm
	if err := e.generateArray(ctx, "vocabulary extraction", prompt, gateway.Options{Temperature: 0.3, MaxTokens: 800, Block: true}, &raw); err != nil {
		contextutil.LoggerFromContext(ctx).WarnContext(ctx, "vocabulary extraction failed", "error", err)
		return []domain.Term{}
	}

	terms := make([]domain.Term, 0, min(len(raw), maxTerms))
	for _, r := range raw {
		word := strings.TrimSpace(r.Word)
		if word == "" {
			continue
		}
		terms = append(terms, domain.Term{
			Word:       word,
			Definition: strings.TrimSpace(r.Definition),
			Difficulty: parseDifficulty(r.Difficulty, domain.Beginner),
		})
		if len(terms) == maxTerms {
			break
		}
	}
	return terms
}

func (e *Extractor) grammar(ctx context.Context, text, language string) []string {
	prompt := fmt.Sprintf(`Identify 5-8 important grammar patterns or rules from this %s text.

Text:
%s

Return as JSON array of strings:
["grammar point 1", "grammar point 2", ...]`, language, head(text, grammarTextLimit))

	var raw []string
	if err := e.generateArray(ctx, "grammar extraction", prompt, gateway.Options{Temperature: 0.3, MaxTokens: 500, Block: true}, &raw); err != nil {
		contextutil.LoggerFromContext(ctx).WarnContext(ctx, "grammar extraction failed", "error", err)
		return []string{}
	}

	points := make([]string, 0, min(len(raw), maxGrammarPoints))
	for _, p := range raw {
		if p = strings.TrimSpace(p); p != "" {
			points = append(points, p)
		}
		if len(points) == maxGrammarPoints {
			break
		}
	}
	return points
}

// generateArray runs prompt with retries and decodes the JSON array in the reply into dst.
func (e *Extractor) generateArray(ctx context.Context, op, prompt string, opts gateway.Options, dst any) error {
	if e.generator == nil {
		return errors.New("no generator configured")
	}

	text, err := retry.DoValue(ctx, e.policy, op, func(ctx context.Context) (string, error) {
		text, err := e.generator.Generate(ctx, prompt, opts)
		if err != nil {
			return "", err
		}
		if strings.TrimSpace(text) == "" {
			return "", errors.New("empty response")
		}
		return text, nil
	})
	if err != nil {
		return err
	}

	raw, ok := textutil.JSONArray(text)
	if !ok {
		return errors.New("response has no JSON array")
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// splitTerms accepts key vocabulary as a comma-separated string or as a list.
func splitTerms(raw json.RawMessage) []string {
	terms := []string{}
	if len(raw) == 0 {
		return terms
	}

	var items []string
	var joined string
	switch {
	case json.Unmarshal(raw, &items) == nil:
	case json.Unmarshal(raw, &joined) == nil:
		items = strings.Split(joined, ",")
	}
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			terms = append(terms, item)
		}
	}
	return terms
}

func parseDifficulty(s string, fallback domain.Difficulty) domain.Difficulty {
	s = strings.TrimSpace(s)
	for _, d := range domain.Difficulties {
		if strings.EqualFold(s, string(d)) {
			return d
		}
	}
	return fallback
}

// head returns at most n runes of text.
func head(text string, n int) string {
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n])
}
