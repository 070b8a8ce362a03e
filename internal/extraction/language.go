package extraction

import (
	"strings"

	"github.com/abadojack/whatlanggo"
)

const (
	languageSampleChars = 5000
	languageMinChars    = 50
)

// Language is the detected source language of a document.
type Language struct {
	Code       string
	Name       string
	Confidence float64
}

// Unknown is reported when there is too little text to detect a language.
var Unknown = Language{Code: "unknown", Name: "Unknown", Confidence: 0}

var languageNames = map[string]string{
	"en": "English",
	"es": "Spanish",
	"fr": "French",
	"de": "German",
	"it": "Italian",
	"zh": "Chinese",
	"ja": "Japanese",
	"ko": "Korean",
	"hi": "Hindi",
	"pt": "Portuguese",
	"ar": "Arabic",
}

// DetectLanguage detects the language of the first few thousand characters of text.
func DetectLanguage(text string) Language {
	runes := []rune(text)
	if len(runes) > languageSampleChars {
		runes = runes[:languageSampleChars]
	}
	sample := strings.TrimSpace(string(runes))
	if len([]rune(sample)) < languageMinChars {
		return Unknown
	}

	info := whatlanggo.Detect(sample)
	code := info.Lang.Iso6391()
	if code == "" {
		return Unknown
	}
	name, ok := languageNames[code]
	if !ok {
		name = info.Lang.String()
	}
	return Language{Code: code, Name: name, Confidence: info.Confidence}
}
