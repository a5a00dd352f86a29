// Package segmenter turns raw document text into an ordered sequence of
// lowercased character runs. It splits on whitespace, strips leading and
// trailing punctuation (interior hyphens are preserved), and records the
// original capitalization so downstream consumers can restore it.
package segmenter

import (
	"strings"
	"unicode"
)

// CapsClass describes the capitalization of a run before lowercasing.
type CapsClass uint8

const (
	CapsNone CapsClass = iota
	CapsInitial
	CapsAll
	CapsMixed
)

func (c CapsClass) String() string {
	switch c {
	case CapsInitial:
		return "initial"
	case CapsAll:
		return "all"
	case CapsMixed:
		return "mixed"
	default:
		return "none"
	}
}

// Run is a single whitespace-delimited, punctuation-stripped candidate
// substring awaiting resolution.
type Run struct {
	Text   string    `json:"text"`
	Start  int       `json:"start"`
	Length int       `json:"length"`
	Caps   CapsClass `json:"caps"`
}

// Segment splits text into runs. Words reduced to nothing by punctuation
// stripping are skipped.
func Segment(text string) []Run {
	runs := make([]Run, 0, len(text)/6)
	start := -1
	for i, r := range text {
		if unicode.IsSpace(r) {
			if start >= 0 {
				if run, ok := makeRun(text[start:i], start); ok {
					runs = append(runs, run)
				}
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		if run, ok := makeRun(text[start:], start); ok {
			runs = append(runs, run)
		}
	}
	return runs
}

// makeRun trims punctuation off both ends of a raw word, classifies its
// capitalization, and lowercases it.
func makeRun(word string, offset int) (Run, bool) {
	lead := 0
	for lead < len(word) && !isWordByte(word[lead]) {
		lead++
	}
	tail := len(word)
	for tail > lead && !isWordByte(word[tail-1]) {
		tail--
	}
	// Hyphens survive only in the interior of a run.
	for tail > lead && word[lead] == '-' {
		lead++
	}
	for tail > lead && word[tail-1] == '-' {
		tail--
	}
	trimmed := word[lead:tail]
	if trimmed == "" {
		return Run{}, false
	}
	lowered := strings.ToLower(trimmed)
	return Run{
		Text:   lowered,
		Start:  offset + lead,
		Length: len(lowered),
		Caps:   classifyCaps(trimmed),
	}, true
}

func isWordByte(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || b == '-'
}

func classifyCaps(word string) CapsClass {
	upper, lower := 0, 0
	firstUpper := false
	for i, r := range word {
		switch {
		case unicode.IsUpper(r):
			upper++
			if i == 0 {
				firstUpper = true
			}
		case unicode.IsLower(r):
			lower++
		}
	}
	switch {
	case upper == 0:
		return CapsNone
	case lower == 0:
		return CapsAll
	case upper == 1 && firstUpper:
		return CapsInitial
	default:
		return CapsMixed
	}
}
