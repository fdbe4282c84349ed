// Package parser converts heterogeneous legal-text HTML into structured
// act records: provisions with chapter context, headings, and term
// definitions. Parsing is a pure function of its inputs and degrades
// toward an empty record instead of failing.
package parser

import (
	"html"
	"regexp"
	"strings"

	"github.com/kennygrant/sanitize"

	"github.com/lexcorpus/crawler/internal/corpus"
)

// Limits bounds the heuristic extraction thresholds. The values filter
// noise; nothing downstream depends on their exact magnitudes.
type Limits struct {
	MaxBodyChars       int
	MinBodyChars       int
	MaxTermChars       int
	MinDefinitionChars int
	MaxDefinitionChars int
	HeadingFallback    int
}

// DefaultLimits returns the standard thresholds.
func DefaultLimits() Limits {
	return Limits{
		MaxBodyChars:       12000,
		MinBodyChars:       10,
		MaxTermChars:       100,
		MinDefinitionChars: 5,
		MaxDefinitionChars: 4000,
		HeadingFallback:    200,
	}
}

// Parser segments raw documents into provisions and definitions.
type Parser struct {
	limits Limits
}

// New builds a Parser. Zero-valued limits fall back to the defaults.
func New(limits Limits) *Parser {
	defaults := DefaultLimits()
	if limits.MaxBodyChars <= 0 {
		limits.MaxBodyChars = defaults.MaxBodyChars
	}
	if limits.MinBodyChars <= 0 {
		limits.MinBodyChars = defaults.MinBodyChars
	}
	if limits.MaxTermChars <= 0 {
		limits.MaxTermChars = defaults.MaxTermChars
	}
	if limits.MinDefinitionChars <= 0 {
		limits.MinDefinitionChars = defaults.MinDefinitionChars
	}
	if limits.MaxDefinitionChars <= 0 {
		limits.MaxDefinitionChars = defaults.MaxDefinitionChars
	}
	if limits.HeadingFallback <= 0 {
		limits.HeadingFallback = defaults.HeadingFallback
	}
	return &Parser{limits: limits}
}

var definitionHeadingWords = []string{"definition", "interpretation", "terms"}

// headingWindow caps how far past a boundary marker the heading scan
// looks when the source has no line breaks.
const headingWindow = 600

// Parse segments rawHTML into an act record for doc. It never fails: on
// unrecognizable content it returns a record with empty provisions and
// definitions. Parsing the same inputs twice yields identical records.
func (p *Parser) Parse(rawHTML []byte, doc corpus.SourceDocument) corpus.ActRecord {
	record := corpus.ActRecord{
		Document:    doc,
		Provisions:  []corpus.Provision{},
		Definitions: []corpus.Definition{},
	}

	text := narrowToBody(string(rawHTML))
	sections := scanSections(text)
	if len(sections) == 0 {
		return record
	}
	chapters := scanChapters(text)

	provisions := make([]corpus.Provision, 0, len(sections))
	index := make(map[string]int, len(sections))

	for i, ev := range sections {
		segmentEnd := len(text)
		if i+1 < len(sections) {
			segmentEnd = sections[i+1].offset
		}
		segment := text[ev.end:segmentEnd]

		body := cleanText(segment)
		if len(body) < p.limits.MinBodyChars {
			// Likely a cross-reference inside running prose, not a
			// real section start.
			continue
		}

		prov := corpus.Provision{
			Ref:     "sec" + ev.designation,
			Chapter: latestChapter(chapters, ev.offset),
			Heading: p.deriveHeading(segment),
			Body:    capRunes(body, p.limits.MaxBodyChars),
		}

		if at, dup := index[prov.Ref]; dup {
			// Same reference key: the longer body is assumed more
			// complete and wins.
			if len(prov.Body) > len(provisions[at].Body) {
				provisions[at] = prov
			}
			continue
		}
		index[prov.Ref] = len(provisions)
		provisions = append(provisions, prov)
	}

	var definitions []corpus.Definition
	for _, prov := range provisions {
		if !definitionBearing(prov.Heading) {
			continue
		}
		definitions = append(definitions, p.ExtractDefinitions(prov.Body, prov.Ref)...)
	}

	record.Provisions = provisions
	record.Definitions = dedupeDefinitions(definitions)
	return record
}

// deriveHeading takes the text immediately following a boundary marker,
// before the first line break, and returns the phrase up to the first
// sentence-terminal period. Without such a period it falls back to the
// leading characters of the line.
func (p *Parser) deriveHeading(segment string) string {
	window := segment
	if len(window) > headingWindow {
		window = window[:headingWindow]
	}
	if nl := strings.IndexAny(window, "\n\r"); nl >= 0 {
		window = window[:nl]
	}

	line := cleanText(window)
	line = strings.TrimLeft(line, " .:;-–—\t")
	if line == "" {
		return ""
	}
	if dot := strings.IndexByte(line, '.'); dot > 0 {
		return strings.TrimSpace(line[:dot])
	}
	return strings.TrimSpace(capRunes(line, p.limits.HeadingFallback))
}

// definitionBearing reports whether a provision heading indicates the
// provision carries term definitions.
func definitionBearing(heading string) bool {
	lower := strings.ToLower(heading)
	for _, word := range definitionHeadingWords {
		if strings.Contains(lower, word) {
			return true
		}
	}
	return false
}

func dedupeDefinitions(defs []corpus.Definition) []corpus.Definition {
	out := make([]corpus.Definition, 0, len(defs))
	index := make(map[string]int, len(defs))
	for _, def := range defs {
		key := strings.ToLower(def.Term)
		if at, dup := index[key]; dup {
			if len(def.Body) > len(out[at].Body) {
				out[at] = def
			}
			continue
		}
		index[key] = len(out)
		out = append(out, def)
	}
	return out
}

var (
	bodyOpenPattern  = regexp.MustCompile(`(?i)<body[^>]*>`)
	bodyClosePattern = regexp.MustCompile(`(?i)</body>`)
	innerWhitespace  = regexp.MustCompile(`\s+`)
)

// narrowToBody discards markup outside the document body when the
// boundary exists; otherwise the whole input is scanned.
func narrowToBody(text string) string {
	open := bodyOpenPattern.FindStringIndex(text)
	if open == nil {
		return text
	}
	narrowed := text[open[1]:]
	if closing := bodyClosePattern.FindStringIndex(narrowed); closing != nil {
		narrowed = narrowed[:closing[0]]
	}
	return narrowed
}

// cleanText strips markup, normalizes entities and collapses whitespace.
func cleanText(fragment string) string {
	text := sanitize.HTML(fragment)
	text = html.UnescapeString(text)
	return collapseSpaces(text)
}

func collapseSpaces(s string) string {
	return strings.TrimSpace(innerWhitespace.ReplaceAllString(s, " "))
}

func capRunes(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
