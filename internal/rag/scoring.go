package rag

import (
	"math"
	"unicode/utf8"
)

// ScoringConfig weights the two confidence factors.
type ScoringConfig struct {
	// SimilarityWeight is the share of retrieval similarity; the answer length
	// factor gets the rest.
	SimilarityWeight float64
	// LengthSaturation is the answer length, in characters, at which the length
	// factor reaches 1.
	LengthSaturation int
}

// DefaultScoring is 0.7 similarity, 0.3 length saturating at 100 characters.
var DefaultScoring = ScoringConfig{SimilarityWeight: 0.7, LengthSaturation: 100}

// Confidence scores an answer from the distances of the chunks it was built on and
// its length. The result is rounded to two decimals and lies in [0, 1]. With no
// distances the score is 0.
func Confidence(answer string, distances []float64, cfg ScoringConfig) float64 {
	if len(distances) == 0 {
		return 0
	}
	if cfg.LengthSaturation <= 0 {
		cfg.LengthSaturation = DefaultScoring.LengthSaturation
	}
	weight := min(max(cfg.SimilarityWeight, 0), 1)

	var sum float64
	for _, d := range distances {
		sum += d
	}
	avg := sum / float64(len(distances))
	similarity := 1 - min(max(avg, 0), 1)

	lengthFactor := min(float64(utf8.RuneCountInString(answer))/float64(cfg.LengthSaturation), 1)

	score := weight*similarity + (1-weight)*lengthFactor
	score = math.Round(score*100) / 100
	return min(max(score, 0), 1)
}
