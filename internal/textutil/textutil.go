// Package textutil prepares extracted page text for classification.
package textutil

import (
	"regexp"
	"strings"

	"github.com/abadojack/whatlanggo"
	"golang.org/x/text/unicode/norm"
)

// Word limits applied to page text before classification.
const (
	MinWords = 20
	MaxWords = 1234
)

var tokenizeRe = regexp.MustCompile(`[\p{L}\p{N}_]+`)

// Tokenize extracts word tokens from text.
func Tokenize(text string) []string {
	return tokenizeRe.FindAllString(text, -1)
}

var (
	newlineRe    = regexp.MustCompile(`[\n\r]`)
	multiSpaceRe = regexp.MustCompile(`\s{2,}`)
)

// NormalizeWhitespaces replaces newlines and multiple whitespace with a single space.
func NormalizeWhitespaces(text string) string {
	text = newlineRe.ReplaceAllString(text, " ")
	return multiSpaceRe.ReplaceAllString(text, " ")
}

// Normalize converts text to NFC and collapses whitespace. Case is kept;
// lowercasing belongs to the model's transformation chain.
func Normalize(text string) string {
	return strings.TrimSpace(NormalizeWhitespaces(norm.NFC.String(text)))
}

// CountWords returns the number of word tokens in text.
func CountWords(text string) int {
	return len(Tokenize(text))
}

// LimitWords keeps at most max whitespace-separated words of text, joined by a
// single space. max <= 0 keeps every word.
func LimitWords(text string, max int) string {
	fields := strings.Fields(text)
	if max > 0 && len(fields) > max {
		fields = fields[:max]
	}
	return strings.Join(fields, " ")
}

// Gate is the word-count rule a page must pass to be classified.
type Gate struct {
	MinWords int
	MaxWords int
}

// DefaultGate returns the gate with MinWords and MaxWords.
func DefaultGate() Gate {
	return Gate{MinWords: MinWords, MaxWords: MaxWords}
}

// Apply normalizes text and truncates it to MaxWords. ok is false when the
// text has fewer than MinWords words.
func (g Gate) Apply(text string) (string, bool) {
	text = LimitWords(Normalize(text), g.MaxWords)
	if CountWords(text) < g.MinWords {
		return text, false
	}
	return text, true
}

// Language is a detected page language.
type Language struct {
	Code       string  `json:"code"`
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
}

// DetectLanguage guesses the language of text. Code is the ISO 639-1 code,
// empty when unknown.
func DetectLanguage(text string) Language {
	info := whatlanggo.Detect(text)
	return Language{
		Code:       info.Lang.Iso6391(),
		Name:       info.Lang.String(),
		Confidence: info.Confidence,
	}
}

// MatchesLocale reports whether lang matches a model locale such as "en" or "en_US".
// An empty locale or an undetected language matches anything.
func MatchesLocale(lang Language, locale string) bool {
	if locale == "" || lang.Code == "" {
		return true
	}
	base, _, _ := strings.Cut(strings.ReplaceAll(locale, "-", "_"), "_")
	return strings.EqualFold(base, lang.Code)
}
