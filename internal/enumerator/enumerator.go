// Package enumerator builds the corpus work list from the source index page.
package enumerator

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/lexcorpus/crawler/internal/corpus"
)

// Config identifies the index page and the detail-page URL template.
type Config struct {
	IndexURL string
	BaseURL  string
	// DetailPathTemplate receives the issuance year and designation
	// number, e.g. "/statutes/%d/act_%s.html".
	DetailPathTemplate string
}

// Enumerator fetches the index page and extracts the set of known
// documents. Enumeration is deterministic given identical index content.
type Enumerator struct {
	cfg     Config
	fetcher corpus.Fetcher
	logger  *zap.Logger
}

// New builds an Enumerator.
func New(cfg Config, fetcher corpus.Fetcher, logger *zap.Logger) *Enumerator {
	return &Enumerator{cfg: cfg, fetcher: fetcher, logger: logger}
}

var (
	designationPattern = regexp.MustCompile(`(?i)\bno\.?\s*(\d+)\b`)
	yearPattern        = regexp.MustCompile(`\b(1[89]\d{2}|20\d{2})\b`)
	innerWhitespace    = regexp.MustCompile(`\s+`)
)

// Enumerate retrieves the index page and returns the deduplicated,
// ordered work list. A non-success index status or fetch failure is an
// error: an incomplete index cannot be told apart from a short one, so
// the caller treats it as fatal for the run.
func (e *Enumerator) Enumerate(ctx context.Context) ([]corpus.SourceDocument, error) {
	result, err := e.fetcher.Fetch(ctx, e.cfg.IndexURL)
	if err != nil {
		return nil, fmt.Errorf("fetch index: %w", err)
	}
	if result.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("index fetch returned status %d", result.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(result.Body))
	if err != nil {
		return nil, fmt.Errorf("parse index: %w", err)
	}

	seen := make(map[string]struct{})
	var statutes []corpus.SourceDocument

	doc.Find("tr").Each(func(_ int, row *goquery.Selection) {
		entry, ok := e.parseRow(row)
		if !ok {
			return
		}
		// The index is ordered newest-first; keep the first occurrence
		// of each identifier.
		if _, dup := seen[entry.ID]; dup {
			e.logger.Debug("duplicate index entry dropped", zap.String("id", entry.ID))
			return
		}
		seen[entry.ID] = struct{}{}
		statutes = append(statutes, entry)
	})

	sort.SliceStable(statutes, func(i, j int) bool {
		return designationValue(statutes[i]) > designationValue(statutes[j])
	})

	docs := append(statutes, e.specialEntries()...)
	e.logger.Info("enumeration complete",
		zap.Int("statutes", len(statutes)),
		zap.Int("total", len(docs)),
	)
	return docs, nil
}

// parseRow extracts one document from an index row of the shape
// anchor + designation number + date in the first cell, title in the
// second. Rows without that shape are skipped.
func (e *Enumerator) parseRow(row *goquery.Selection) (corpus.SourceDocument, bool) {
	cells := row.Find("td")
	if cells.Length() < 2 {
		return corpus.SourceDocument{}, false
	}
	first := cells.Eq(0)
	if first.Find("a").Length() == 0 {
		return corpus.SourceDocument{}, false
	}

	firstText := cleanCell(first.Text())
	m := designationPattern.FindStringSubmatch(firstText)
	if m == nil {
		return corpus.SourceDocument{}, false
	}
	designation := m[1]

	year := 0
	if ym := yearPattern.FindStringSubmatch(firstText); ym != nil {
		year, _ = strconv.Atoi(ym[1])
	}

	title := cleanCell(cells.Eq(1).Text())
	if title == "" {
		return corpus.SourceDocument{}, false
	}

	return corpus.SourceDocument{
		ID:             "act" + designation,
		Classification: corpus.ClassPrimaryStatute,
		Designation:    designation,
		Year:           year,
		Title:          title,
		SourceURL:      e.cfg.BaseURL + fmt.Sprintf(e.cfg.DetailPathTemplate, year, designation),
		Hint:           corpus.HintIngestable,
	}, true
}

// specialEntries returns the hand-curated documents that are not
// enumerable from the index page. They are appended after the statutes.
func (e *Enumerator) specialEntries() []corpus.SourceDocument {
	return []corpus.SourceDocument{
		{
			ID:             "charter1987",
			Classification: corpus.ClassFoundationalCharter,
			Year:           1987,
			Title:          "The 1987 Constitution",
			SourceURL:      e.cfg.BaseURL + "/charter/constitution_1987.html",
			Hint:           corpus.HintIngestable,
		},
		{
			ID:             "civilcode1949",
			Classification: corpus.ClassHistoricalCode,
			Year:           1949,
			Title:          "The Civil Code",
			SourceURL:      e.cfg.BaseURL + "/codes/civil_code_1949.html",
			Hint:           corpus.HintMetadataOnly,
		},
	}
}

func designationValue(doc corpus.SourceDocument) int {
	n, _ := strconv.Atoi(doc.Designation)
	return n
}

func cleanCell(s string) string {
	return strings.TrimSpace(innerWhitespace.ReplaceAllString(s, " "))
}
