package corpus

import "context"

// Fetcher retrieves a single URL, passing HTTP statuses through and
// returning an error only for network-level failure.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (FetchResult, error)
}

// Pacer gates the start of consecutive requests. All fetch calls in a run
// share one pacer so request pacing is serialized process-wide.
type Pacer interface {
	Wait(ctx context.Context) error
}

// RecordStore persists per-document records, the raw content cache, and the
// corpus manifest. Writes keyed by the same identifier overwrite.
type RecordStore interface {
	PutRecord(record ActRecord) error
	ReadRecord(id string) (ActRecord, error)
	HasRecord(id string) bool
	PutRaw(id string, data []byte) error
	Raw(id string) ([]byte, bool, error)
	WriteManifest(m Manifest) error
}
