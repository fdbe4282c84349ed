package pipeline

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
)

// Summary accumulates run statistics. It is surfaced to the operator and
// never persisted as part of the corpus.
type Summary struct {
	RunID       string
	Processed   int
	Cached      int
	Fallbacks   int
	Provisions  int
	Definitions int
	Results     []DocumentResult
}

func (s *Summary) add(result DocumentResult) {
	s.Results = append(s.Results, result)
	s.Provisions += result.Provisions
	s.Definitions += result.Definitions
	switch result.Outcome {
	case OutcomeCached:
		s.Cached++
	case OutcomeFallback:
		s.Processed++
		s.Fallbacks++
	default:
		s.Processed++
	}
}

// Render writes the per-document outcome table so operators can target
// re-runs at specific failures.
func (s Summary) Render(w io.Writer) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"ID", "Classification", "Outcome", "Provisions", "Definitions", "Note"})
	for _, r := range s.Results {
		note := ""
		if r.Err != nil {
			note = r.Err.Error()
		}
		t.AppendRow(table.Row{
			r.Document.ID,
			r.Document.Classification,
			r.Outcome,
			r.Provisions,
			r.Definitions,
			note,
		})
	}
	t.AppendFooter(table.Row{
		fmt.Sprintf("run %s", s.RunID),
		"",
		fmt.Sprintf("%d cached, %d fallback", s.Cached, s.Fallbacks),
		s.Provisions,
		s.Definitions,
		"",
	})
	t.Render()
}
