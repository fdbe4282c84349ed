package parser

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/lexcorpus/crawler/internal/corpus"
)

// definitionPattern matches an optional enumerator prefix, a quoted term
// (straight or curly quotes), a defining verb, and a body terminated by a
// semicolon or period.
var definitionPattern = regexp.MustCompile(
	`(?i)(?:\([0-9a-z]{1,4}\)\s*)?` +
		`["“]([^"”]{1,200})["”]\s+` +
		`(?:shall\s+mean|has\s+the\s+meaning|refers\s+to|means|includes|is|are)\s+` +
		`([^;.]+)[;.]`)

// ExtractDefinitions scans a provision body for defined terms. Terms keep
// their original casing; oversized terms and undersized bodies are
// rejected as likely mis-matches.
func (p *Parser) ExtractDefinitions(text, provisionRef string) []corpus.Definition {
	matches := definitionPattern.FindAllStringSubmatch(text, -1)
	defs := make([]corpus.Definition, 0, len(matches))
	for _, m := range matches {
		term := strings.TrimSpace(m[1])
		body := strings.TrimSpace(m[2])
		if term == "" || utf8.RuneCountInString(term) > p.limits.MaxTermChars {
			continue
		}
		if utf8.RuneCountInString(body) < p.limits.MinDefinitionChars {
			continue
		}
		defs = append(defs, corpus.Definition{
			Term:         term,
			Body:         capRunes(body, p.limits.MaxDefinitionChars),
			ProvisionRef: provisionRef,
		})
	}
	return defs
}
