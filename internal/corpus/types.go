// Package corpus defines the core types shared across the ingestion pipeline.
package corpus

import "time"

// Classification tags a source document by its legal category.
type Classification string

// Classification values recorded in the corpus manifest.
const (
	ClassPrimaryStatute      Classification = "primary-statute"
	ClassFoundationalCharter Classification = "foundational-charter"
	ClassHistoricalCode      Classification = "historical-code"
)

// ProcessingHint tells the pipeline how a document can be processed.
type ProcessingHint string

// Processing hints attached by the enumerator.
const (
	HintIngestable   ProcessingHint = "ingestable"
	HintInaccessible ProcessingHint = "inaccessible"
	HintMetadataOnly ProcessingHint = "metadata-only"
)

// SourceDocument is one entry of the enumerated corpus. It is produced once
// per enumeration run and never mutated afterwards.
type SourceDocument struct {
	ID             string         `json:"id"`
	Classification Classification `json:"classification"`
	Designation    string         `json:"designation,omitempty"`
	Year           int            `json:"year"`
	Title          string         `json:"title"`
	SourceURL      string         `json:"source_url"`
	Hint           ProcessingHint `json:"hint"`
}

// Provision is a single numbered section or article of a document.
// Ref is derived deterministically from the boundary marker ("12" -> "sec12")
// and is unique within a document.
type Provision struct {
	Ref     string `json:"ref"`
	Chapter string `json:"chapter,omitempty"`
	Heading string `json:"heading,omitempty"`
	Body    string `json:"body"`
}

// Definition is a term extracted from a definition-bearing provision.
// Terms are deduplicated case-insensitively within a document.
type Definition struct {
	Term         string `json:"term"`
	Body         string `json:"body"`
	ProvisionRef string `json:"provision_ref,omitempty"`
}

// ActRecord is the unit of pipeline output: document metadata plus the
// provisions and definitions extracted from its content. A fallback record
// carries metadata only; both forms are valid, persistable records.
type ActRecord struct {
	Document    SourceDocument `json:"document"`
	Provisions  []Provision    `json:"provisions"`
	Definitions []Definition   `json:"definitions"`
	Fallback    bool           `json:"fallback"`
}

// Manifest summarizes one ingestion run for downstream consumers.
type Manifest struct {
	RunID       string                 `json:"run_id"`
	GeneratedAt time.Time              `json:"generated_at"`
	Documents   []SourceDocument       `json:"documents"`
	Counts      map[Classification]int `json:"counts"`
}

// FetchResult is what the fetcher returns for a single URL. HTTP error
// statuses are carried in StatusCode, never as Go errors.
type FetchResult struct {
	StatusCode  int
	Body        []byte
	ContentType string
	FinalURL    string
}
