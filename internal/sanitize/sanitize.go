// Package sanitize cleans respondent free text before it leaves the service.
package sanitize

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

// DefaultMaxLen caps cleaned text in runes
const DefaultMaxLen = 500

// FilteredMarker replaces everything from the first injection attempt onward
const FilteredMarker = " FILTERED CONTENT REMOVED"

const minFuzzyWordLen = 3

var (
	dangerousPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)ignore\s+(all\s+)?previous\s+instructions?`),
		regexp.MustCompile(`(?i)you\s+are\s+now\s+(in\s+)?developer\s+mode`),
		regexp.MustCompile(`(?i)system\s+override`),
		regexp.MustCompile(`(?i)reveal\s+prompt`),
		regexp.MustCompile(`(?i)override\s+instructions`),
	}

	fuzzyTargets = []string{"ignore", "bypass", "override", "reveal", "delete", "system"}

	whitespace = regexp.MustCompile(`\s+`)
	wordRe     = regexp.MustCompile(`\b\w+\b`)
	invisible  = regexp.MustCompile(`[\x00-\x1F\x7F-\x{9F}\x{200B}-\x{200D}\x{FEFF}]`)
	unsafe     = regexp.MustCompile(`[^A-Za-zÀ-ÿ0-9\s.,!?;:'"()\-–—£€%&]`)

	smartQuotes = strings.NewReplacer("’", "'", "‘", "'", "“", `"`, "”", `"`)
)

// Detection describes why text looks like a prompt injection attempt
type Detection struct {
	Detected bool
	Reason   string
}

// Detect reports the first dangerous pattern or typoglycemia variant found in text
func Detect(text string) Detection {
	for _, re := range dangerousPatterns {
		if re.MatchString(text) {
			return Detection{Detected: true, Reason: "matched dangerous pattern " + re.String()}
		}
	}
	for _, word := range wordRe.FindAllString(strings.ToLower(text), -1) {
		for _, target := range fuzzyTargets {
			if similarWord(word, target) {
				return Detection{Detected: true, Reason: "word " + word + " resembles " + target}
			}
		}
	}
	return Detection{}
}

// Clean normalizes text and strips injection attempts. The result never
// exceeds maxLen runes; maxLen <= 0 means DefaultMaxLen.
func Clean(text string, maxLen int) string {
	if maxLen <= 0 {
		maxLen = DefaultMaxLen
	}
	text = whitespace.ReplaceAllString(text, " ")
	text = squashRepeats(text)
	text = smartQuotes.Replace(text)
	text = invisible.ReplaceAllString(text, "")
	text = unsafe.ReplaceAllString(text, "")

	earliest := -1
	for _, re := range dangerousPatterns {
		if loc := re.FindStringIndex(text); loc != nil && (earliest < 0 || loc[0] < earliest) {
			earliest = loc[0]
		}
	}
	if earliest >= 0 {
		text = strings.TrimRight(text[:earliest], " ") + FilteredMarker
	}
	return truncate(strings.TrimSpace(text), maxLen)
}

// squashRepeats collapses runs of four or more identical runes to one.
func squashRepeats(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	runes := []rune(text)
	for i := 0; i < len(runes); {
		j := i + 1
		for j < len(runes) && runes[j] == runes[i] {
			j++
		}
		if j-i >= 4 {
			b.WriteRune(runes[i])
		} else {
			for k := i; k < j; k++ {
				b.WriteRune(runes[k])
			}
		}
		i = j
	}
	return b.String()
}

func similarWord(word, target string) bool {
	if len(word) != len(target) || len(word) < minFuzzyWordLen {
		return false
	}
	if word[0] != target[0] || word[len(word)-1] != target[len(target)-1] {
		return false
	}
	return sortedBytes(word[1:len(word)-1]) == sortedBytes(target[1:len(target)-1])
}

func sortedBytes(s string) string {
	b := []byte(s)
	sort.Slice(b, func(i, j int) bool { return b[i] < b[j] })
	return string(b)
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}
