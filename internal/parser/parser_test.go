package parser

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lexcorpus/crawler/internal/corpus"
)

var testDoc = corpus.SourceDocument{
	ID:             "act10173",
	Classification: corpus.ClassPrimaryStatute,
	Designation:    "10173",
	Year:           2012,
	Title:          "Data Privacy Act",
	SourceURL:      "https://legis.example.org/statutes/2012/act_10173.html",
	Hint:           corpus.HintIngestable,
}

const privacyActHTML = `<html>
<head><title>Act No. 10173</title></head>
<body>
<p>CHAPTER I<br>GENERAL PROVISIONS</p>
<p>Section 1. Short Title. &mdash; This Act shall be known as the Data Privacy Act.</p>
<p>Section 2. Declaration of Policy. &mdash; It is the policy of the State to protect
the fundamental human right of privacy of communication.</p>
<p>Section 3. Definition of Terms. &mdash; Whenever used in this Act, the following
terms shall have their respective meanings:
(a) "Personal information" refers to any information from which the identity
of an individual is apparent;
(b) "Consent" refers to any freely given, specific, informed indication of will;
</p>
<p>CHAPTER II<br>THE COMMISSION</p>
<p>Section 4. Scope. &mdash; This Act applies to the processing of all types of
personal information subject to existing laws.</p>
</body>
</html>`

func TestParseConcreteScenario(t *testing.T) {
	p := New(DefaultLimits())
	record := p.Parse([]byte(privacyActHTML), testDoc)

	require.Equal(t, testDoc, record.Document)
	require.False(t, record.Fallback)
	require.Len(t, record.Provisions, 4)

	byRef := make(map[string]corpus.Provision)
	for _, prov := range record.Provisions {
		byRef[prov.Ref] = prov
	}

	sec3, ok := byRef["sec3"]
	require.True(t, ok, "section 3 must produce reference key sec3")
	require.Contains(t, sec3.Heading, "Definition of Terms")
	require.Contains(t, sec3.Body, "Personal information")

	terms := make(map[string]corpus.Definition)
	for _, def := range record.Definitions {
		terms[def.Term] = def
	}
	personal, ok := terms["Personal information"]
	require.True(t, ok, "quoted term must be extracted case-preserved")
	require.Contains(t, personal.Body, "any information")
	require.Equal(t, "sec3", personal.ProvisionRef)
	require.Contains(t, terms, "Consent")
}

func TestParseChapterAttribution(t *testing.T) {
	p := New(DefaultLimits())
	record := p.Parse([]byte(privacyActHTML), testDoc)

	byRef := make(map[string]corpus.Provision)
	for _, prov := range record.Provisions {
		byRef[prov.Ref] = prov
	}

	require.Contains(t, byRef["sec1"].Chapter, "CHAPTER I")
	require.Contains(t, byRef["sec3"].Chapter, "CHAPTER I")
	require.Contains(t, byRef["sec4"].Chapter, "CHAPTER II")
}

func TestParseIdempotent(t *testing.T) {
	p := New(DefaultLimits())

	first, err := json.Marshal(p.Parse([]byte(privacyActHTML), testDoc))
	require.NoError(t, err)
	second, err := json.Marshal(p.Parse([]byte(privacyActHTML), testDoc))
	require.NoError(t, err)
	require.Equal(t, first, second, "parsing the same inputs twice must be byte-identical")
}

func TestParseUniqueness(t *testing.T) {
	p := New(DefaultLimits())
	record := p.Parse([]byte(privacyActHTML), testDoc)

	refs := make(map[string]struct{})
	for _, prov := range record.Provisions {
		_, dup := refs[prov.Ref]
		require.False(t, dup, "reference keys must be pairwise distinct")
		refs[prov.Ref] = struct{}{}
	}

	terms := make(map[string]struct{})
	for _, def := range record.Definitions {
		key := strings.ToLower(def.Term)
		_, dup := terms[key]
		require.False(t, dup, "terms must be distinct case-insensitively")
		terms[key] = struct{}{}
	}
}

func TestParseNoMarkersYieldsEmptyRecord(t *testing.T) {
	p := New(DefaultLimits())
	record := p.Parse([]byte("<html><body><p>Nothing legislative here.</p></body></html>"), testDoc)

	require.Equal(t, testDoc, record.Document)
	require.Empty(t, record.Provisions)
	require.Empty(t, record.Definitions)
	require.NotNil(t, record.Provisions, "empty, not nil, so the record serializes as a set")
}

func TestParseDuplicateKeyKeepsLongerBody(t *testing.T) {
	html := `<body>
<p>Section 5. Stub. See below for the full text of this provision intro.</p>
<p>Section 5. Enforcement. &mdash; The commission shall enforce this Act through
orders, circulars and such other issuances as may be necessary, and shall
coordinate with other agencies of the government in doing so.</p>
</body>`
	p := New(DefaultLimits())
	record := p.Parse([]byte(html), testDoc)

	require.Len(t, record.Provisions, 1)
	require.Equal(t, "sec5", record.Provisions[0].Ref)
	require.Contains(t, record.Provisions[0].Body, "Enforcement",
		"the longer extracted body wins on a key collision")
}

func TestParseDiscardsShortFalsePositives(t *testing.T) {
	// The trailing cross-reference produces a boundary whose remaining
	// body is below the minimum length.
	html := `<body>
<p>Section 1. Coverage. &mdash; This section covers everything described in the
annexes and schedules attached hereto, see Section 9.</p>
</body>`
	p := New(DefaultLimits())
	record := p.Parse([]byte(html), testDoc)

	require.Len(t, record.Provisions, 1)
	require.Equal(t, "sec1", record.Provisions[0].Ref)
}

func TestParseWordedDesignation(t *testing.T) {
	html := `<body>
<p>Section One. Title. &mdash; This Act shall be known as the Example Act of 2020.</p>
</body>`
	p := New(DefaultLimits())
	record := p.Parse([]byte(html), testDoc)

	require.Len(t, record.Provisions, 1)
	require.Equal(t, "sec1", record.Provisions[0].Ref)
}

func TestParseIgnoresContentOutsideBody(t *testing.T) {
	html := `<html><head><title>Section 99 should not count</title></head>
<body><p>Section 1. Scope. &mdash; Applies to all covered entities without exception.</p></body>
<p>Section 98. Trailer noise after the body with plenty of text around it.</p></html>`
	p := New(DefaultLimits())
	record := p.Parse([]byte(html), testDoc)

	require.Len(t, record.Provisions, 1)
	require.Equal(t, "sec1", record.Provisions[0].Ref)
}

func TestParseCapsBodyLength(t *testing.T) {
	long := strings.Repeat("All personal data shall be processed fairly and lawfully. ", 400)
	html := "<body><p>Section 1. Fair Processing. &mdash; " + long + "</p></body>"

	p := New(DefaultLimits())
	record := p.Parse([]byte(html), testDoc)

	require.Len(t, record.Provisions, 1)
	require.LessOrEqual(t, len(record.Provisions[0].Body), DefaultLimits().MaxBodyChars)
}

func TestParseHeadingFallbackWithoutPeriod(t *testing.T) {
	html := "<body><p>Section 7 " + strings.Repeat("continuous text without sentence breaks ", 20) + "</p></body>"
	p := New(Limits{HeadingFallback: 40})
	record := p.Parse([]byte(html), testDoc)

	require.Len(t, record.Provisions, 1)
	require.NotEmpty(t, record.Provisions[0].Heading)
	require.LessOrEqual(t, len(record.Provisions[0].Heading), 40)
}
