// Package guard screens questions before retrieval: it rejects prompt injection
// attempts and questions unrelated to the document.
package guard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"docquery/internal/contextutil"
	"docquery/internal/gateway"
	"docquery/internal/retry"
	"docquery/internal/textutil"
)

const (
	// overlapThreshold is the share of question words that must be topic keywords
	// for the question to pass without a model call.
	overlapThreshold = 0.2
	failOpenScore    = 0.5

	injectionMessage  = "Your question contains invalid content. Please ask about the document material."
	irrelevantMessage = "Your question doesn't seem to be related to this document. Please ask about its content."
)

var injectionPatterns = []string{
	"ignore previous instructions",
	"ignore all previous",
	"disregard previous",
	"forget previous",
	"new instructions",
	"system prompt",
	"you are now",
	"act as",
	"pretend to be",
	"roleplay as",
}

// Generator produces text for a prompt. *gateway.Gateway satisfies it.
type Generator interface {
	Generate(ctx context.Context, prompt string, opts gateway.Options) (string, error)
}

// Topics describes what a document is about.
type Topics struct {
	Title    string
	Keywords []string
}

// Verdict is the outcome of a Check.
type Verdict struct {
	Allowed  bool    `json:"allowed"`
	Relevant bool    `json:"relevant"`
	Score    float64 `json:"score"`
	Reason   string  `json:"reason"`
	Message  string  `json:"message,omitempty"`
}

// Guard checks questions against a document's topics.
type Guard struct {
	generator Generator
	policy    retry.Policy
}

// New creates a Guard. With a nil generator, questions that fail the keyword check
// are allowed.
func New(generator Generator, policy retry.Policy) *Guard {
	return &Guard{generator: generator, policy: policy}
}

// Check returns a verdict for question. It never returns an error: a failing
// relevance model allows the question.
func (g *Guard) Check(ctx context.Context, topics Topics, question string) Verdict {
	logger := contextutil.LoggerFromContext(ctx)

	if pattern, ok := DetectInjection(question); ok {
		logger.WarnContext(ctx, "prompt injection detected", "pattern", pattern)
		return Verdict{
			Reason:  "potential prompt injection detected",
			Message: injectionMessage,
		}
	}

	overlap := KeywordOverlap(topics, question)
	if overlap > overlapThreshold {
		logger.DebugContext(ctx, "question passed keyword check", "overlap", overlap)
		return Verdict{
			Allowed:  true,
			Relevant: true,
			Score:    min(2*overlap, 1),
			Reason:   "question contains relevant keywords",
		}
	}

	verdict, err := g.modelCheck(ctx, topics, question)
	if err != nil {
		logger.WarnContext(ctx, "relevance check failed, allowing question",
			"fail_open", true,
			"error", err,
		)
		return Verdict{
			Allowed:  true,
			Relevant: true,
			Score:    failOpenScore,
			Reason:   "could not validate relevance",
		}
	}
	return verdict
}

// DetectInjection reports the first injection phrase found in question.
func DetectInjection(question string) (string, bool) {
	lower := strings.ToLower(question)
	for _, pattern := range injectionPatterns {
		if strings.Contains(lower, pattern) {
			return pattern, true
		}
	}
	return "", false
}

// KeywordOverlap is the fraction of distinct question words that appear in the
// title or keywords.
func KeywordOverlap(topics Topics, question string) float64 {
	words := make(map[string]struct{})
	for _, token := range textutil.Tokenize(question) {
		words[token] = struct{}{}
	}
	if len(words) == 0 {
		return 0
	}

	vocabulary := make(map[string]struct{})
	for _, token := range textutil.Tokenize(topics.Title) {
		vocabulary[token] = struct{}{}
	}
	for _, keyword := range topics.Keywords {
		for _, token := range textutil.Tokenize(keyword) {
			vocabulary[token] = struct{}{}
		}
	}

	matched := 0
	for word := range words {
		if _, ok := vocabulary[word]; ok {
			matched++
		}
	}
	return float64(matched) / float64(len(words))
}

type relevanceResponse struct {
	IsRelevant     bool    `json:"is_relevant"`
	RelevanceScore float64 `json:"relevance_score"`
	AllowQuery     *bool   `json:"allow_query"`
	Reason         string  `json:"reason"`
	UserMessage    string  `json:"user_message"`
}

func (g *Guard) modelCheck(ctx context.Context, topics Topics, question string) (Verdict, error) {
	if g.generator == nil {
		return Verdict{}, errors.New("no generator configured")
	}

	prompt := buildPrompt(topics, question)
	text, err := retry.DoValue(ctx, g.policy, "relevance check", func(ctx context.Context) (string, error) {
		text, err := g.generator.Generate(ctx, prompt, gateway.Options{Temperature: 0.3, MaxTokens: 256, Block: true})
		if err != nil {
			return "", err
		}
		if strings.TrimSpace(text) == "" {
			return "", errors.New("empty relevance response")
		}
		return text, nil
	})
	if err != nil {
		return Verdict{}, err
	}

	raw, ok := textutil.JSONObject(text)
	if !ok {
		return Verdict{}, fmt.Errorf("relevance response has no JSON object")
	}
	var resp relevanceResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return Verdict{}, fmt.Errorf("failed to parse relevance response: %w", err)
	}

	allowed := resp.IsRelevant
	if resp.AllowQuery != nil {
		allowed = *resp.AllowQuery
	}
	verdict := Verdict{
		Allowed:  allowed,
		Relevant: resp.IsRelevant,
		Score:    min(max(resp.RelevanceScore, 0), 1),
		Reason:   resp.Reason,
	}
	if !allowed {
		verdict.Message = resp.UserMessage
		if verdict.Message == "" {
			verdict.Message = irrelevantMessage
		}
	}
	return verdict, nil
}

func buildPrompt(topics Topics, question string) string {
	var b strings.Builder
	b.WriteString("You decide whether a question is about a document.\n\n")
	if topics.Title != "" {
		fmt.Fprintf(&b, "Document title: %s\n", topics.Title)
	}
	if len(topics.Keywords) > 0 {
		fmt.Fprintf(&b, "Document keywords: %s\n", strings.Join(topics.Keywords, ", "))
	}
	fmt.Fprintf(&b, "\nUser question: %s\n\n", question)
	b.WriteString("Is this question relevant to the document, and should it be answered? ")
	b.WriteString("Reply with only a JSON object: ")
	b.WriteString(`{"is_relevant": bool, "relevance_score": 0.0-1.0, "allow_query": bool, "reason": "...", "user_message": "..."}`)
	return b.String()
}
