package enumerator

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/lexcorpus/crawler/internal/corpus"
)

type stubFetcher struct {
	result corpus.FetchResult
	err    error
	calls  int
}

func (s *stubFetcher) Fetch(_ context.Context, _ string) (corpus.FetchResult, error) {
	s.calls++
	return s.result, s.err
}

const indexHTML = `<html><body>
<table>
<tr><th>Number</th><th>Title</th></tr>
<tr><td><a href="/statutes/2019/act_11232.html">Act No. 11232</a> (2019)</td><td>Revised Corporation Code</td></tr>
<tr><td><a href="/statutes/2012/act_10173.html">Act No. 10173</a> (2012)</td><td>Data Privacy Act</td></tr>
<tr><td><a href="/statutes/2018/act_10173.html">Act No. 10173</a> (2018)</td><td>Duplicate listing</td></tr>
<tr><td><a href="/statutes/2015/act_10667.html">Act No. 10667</a> (2015)</td><td>Competition Act</td></tr>
<tr><td>No anchor here</td><td>Skipped</td></tr>
</table>
</body></html>`

func newTestEnumerator(t *testing.T, fetcher corpus.Fetcher) *Enumerator {
	t.Helper()
	return New(Config{
		IndexURL:           "https://legis.example.org/statutes/index.html",
		BaseURL:            "https://legis.example.org",
		DetailPathTemplate: "/statutes/%d/act_%s.html",
	}, fetcher, zaptest.NewLogger(t))
}

func TestEnumerate(t *testing.T) {
	fetcher := &stubFetcher{result: corpus.FetchResult{
		StatusCode: http.StatusOK,
		Body:       []byte(indexHTML),
	}}
	e := newTestEnumerator(t, fetcher)

	docs, err := e.Enumerate(context.Background())
	require.NoError(t, err)

	// 3 unique statutes plus 2 curated special entries.
	require.Len(t, docs, 5)

	// Statutes sorted by descending designation number.
	require.Equal(t, "act11232", docs[0].ID)
	require.Equal(t, "act10667", docs[1].ID)
	require.Equal(t, "act10173", docs[2].ID)

	// Duplicate designation keeps the first occurrence.
	require.Equal(t, 2012, docs[2].Year)
	require.Equal(t, "Data Privacy Act", docs[2].Title)

	// Special entries appended last.
	require.Equal(t, corpus.ClassFoundationalCharter, docs[3].Classification)
	require.Equal(t, corpus.ClassHistoricalCode, docs[4].Classification)
	require.Equal(t, corpus.HintMetadataOnly, docs[4].Hint)

	first := docs[0]
	require.Equal(t, corpus.ClassPrimaryStatute, first.Classification)
	require.Equal(t, "11232", first.Designation)
	require.Equal(t, 2019, first.Year)
	require.Equal(t, "https://legis.example.org/statutes/2019/act_11232.html", first.SourceURL)
	require.Equal(t, corpus.HintIngestable, first.Hint)
}

func TestEnumerateDeterministic(t *testing.T) {
	fetcher := &stubFetcher{result: corpus.FetchResult{
		StatusCode: http.StatusOK,
		Body:       []byte(indexHTML),
	}}
	e := newTestEnumerator(t, fetcher)

	first, err := e.Enumerate(context.Background())
	require.NoError(t, err)
	second, err := e.Enumerate(context.Background())
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestEnumerateNonSuccessStatusIsFatal(t *testing.T) {
	fetcher := &stubFetcher{result: corpus.FetchResult{StatusCode: http.StatusServiceUnavailable}}
	e := newTestEnumerator(t, fetcher)

	_, err := e.Enumerate(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "503")
}

func TestEnumerateFetchErrorIsFatal(t *testing.T) {
	fetcher := &stubFetcher{err: errors.New("connection refused")}
	e := newTestEnumerator(t, fetcher)

	_, err := e.Enumerate(context.Background())
	require.Error(t, err)
}

func TestEnumerateIgnoresUnrecognizedRows(t *testing.T) {
	fetcher := &stubFetcher{result: corpus.FetchResult{
		StatusCode: http.StatusOK,
		Body:       []byte(`<html><body><table><tr><td>nothing useful</td><td></td></tr></table></body></html>`),
	}}
	e := newTestEnumerator(t, fetcher)

	docs, err := e.Enumerate(context.Background())
	require.NoError(t, err)
	// Only the special entries remain.
	require.Len(t, docs, 2)
}
