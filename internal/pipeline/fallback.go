package pipeline

import "github.com/lexcorpus/crawler/internal/corpus"

// FallbackRecord synthesizes a metadata-only record so the corpus never
// loses a known document identifier when its content is unavailable. A
// fallback record is a valid, persistable record; it only counts as a
// failure in the run accounting.
func FallbackRecord(doc corpus.SourceDocument) corpus.ActRecord {
	return corpus.ActRecord{
		Document:    doc,
		Provisions:  []corpus.Provision{},
		Definitions: []corpus.Definition{},
		Fallback:    true,
	}
}
