package parser

import (
	"regexp"
	"strings"
)

type eventKind int

const (
	sectionEvent eventKind = iota
	chapterEvent
)

// boundaryEvent is one typed boundary found during the scan pass: a
// provision start or a chapter/title heading, located by character offset
// in the narrowed text.
type boundaryEvent struct {
	kind        eventKind
	offset      int
	end         int    // index just past the matched marker
	designation string // section events: normalized designation
	label       string // chapter events: synthesized label
}

// sectionPattern covers the synonymous marker spellings followed by a
// numeric-plus-optional-letter designation or a worded ordinal.
var sectionPattern = regexp.MustCompile(
	`(?i)\b(?:section|sec\.?|article|art\.?)\s+` +
		`(\d+(?:-?[A-Za-z])?|one|two|three|four|five|six|seven|eight|nine|ten|` +
		`eleven|twelve|thirteen|fourteen|fifteen|sixteen|seventeen|eighteen|nineteen|twenty)\b`)

// chapterPattern matches chapter- and title-level headings. The heading
// word is case-insensitive but the Roman numeral is not, which keeps
// ordinary lowercase words out of the numeral alternative.
var chapterPattern = regexp.MustCompile(`\b(?i:CHAPTER|TITLE)\s+([IVXLCDM]+|\d+)\b`)

var wordedNumbers = map[string]string{
	"one": "1", "two": "2", "three": "3", "four": "4", "five": "5",
	"six": "6", "seven": "7", "eight": "8", "nine": "9", "ten": "10",
	"eleven": "11", "twelve": "12", "thirteen": "13", "fourteen": "14",
	"fifteen": "15", "sixteen": "16", "seventeen": "17", "eighteen": "18",
	"nineteen": "19", "twenty": "20",
}

var nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)

// scanSections finds every provision boundary in document order.
func scanSections(text string) []boundaryEvent {
	matches := sectionPattern.FindAllStringSubmatchIndex(text, -1)
	events := make([]boundaryEvent, 0, len(matches))
	for _, m := range matches {
		events = append(events, boundaryEvent{
			kind:        sectionEvent,
			offset:      m[0],
			end:         m[1],
			designation: normalizeDesignation(text[m[2]:m[3]]),
		})
	}
	return events
}

// scanChapters finds every chapter/title heading in document order. The
// label combines the matched heading with the short descriptive phrase
// that follows it, when one is present before the next tag or line break.
func scanChapters(text string) []boundaryEvent {
	matches := chapterPattern.FindAllStringIndex(text, -1)
	events := make([]boundaryEvent, 0, len(matches))
	for _, m := range matches {
		heading := collapseSpaces(text[m[0]:m[1]])
		label := heading
		if phrase := chapterPhrase(text, m[1]); phrase != "" {
			label = heading + ": " + phrase
		}
		events = append(events, boundaryEvent{
			kind:   chapterEvent,
			offset: m[0],
			end:    m[1],
			label:  label,
		})
	}
	return events
}

// chapterPhrase reads the raw text after a chapter heading up to the next
// tag or line break and returns it as a trimmed descriptive phrase.
func chapterPhrase(text string, from int) string {
	window := text[from:]
	if len(window) > 120 {
		window = window[:120]
	}
	if cut := strings.IndexAny(window, "<\n\r"); cut >= 0 {
		window = window[:cut]
	}
	phrase := collapseSpaces(window)
	phrase = strings.Trim(phrase, " .:;-–—\t")
	return capRunes(phrase, 80)
}

// normalizeDesignation lowercases the matched designation, resolves worded
// ordinals to digits, and strips punctuation ("12-A" -> "12a").
func normalizeDesignation(raw string) string {
	lower := strings.ToLower(strings.TrimSpace(raw))
	if digits, ok := wordedNumbers[lower]; ok {
		return digits
	}
	return nonAlphanumeric.ReplaceAllString(lower, "")
}

// latestChapter returns the label of the latest chapter heading at or
// before the given offset. Chapters are positional, not nested.
func latestChapter(chapters []boundaryEvent, offset int) string {
	label := ""
	for _, ch := range chapters {
		if ch.offset > offset {
			break
		}
		label = ch.label
	}
	return label
}
