//
// Copyright (c) 2020-2024 Markku Rossi
//
// All rights reserved.
//

package circuit

import (
	"fmt"
	"io"
	"time"

	"github.com/markkurossi/tabulate"
)

// Timing collects coarse wall-clock samples for the phases of a CLI
// run (artifact loading, garbling, evaluation, artifact writing) and
// renders them as a table on completion.
type Timing struct {
	Start   time.Time
	Samples []*Sample
}

// Sample is one timed phase. Cols carries extra per-phase columns,
// e.g. byte or gate counts.
type Sample struct {
	Label string
	Start time.Time
	End   time.Time
	Cols  []string
}

// NewTiming starts a timing session.
func NewTiming() *Timing {
	return &Timing{
		Start: time.Now(),
	}
}

// Sample closes the current phase: it records a sample spanning from
// the previous sample's end (or the session start) to now.
func (t *Timing) Sample(label string, cols []string) *Sample {
	start := t.Start
	if len(t.Samples) > 0 {
		start = t.Samples[len(t.Samples)-1].End
	}
	sample := &Sample{
		Label: label,
		Start: start,
		End:   time.Now(),
		Cols:  cols,
	}
	t.Samples = append(t.Samples, sample)
	return sample
}

// Print renders the collected samples to w.
func (t *Timing) Print(w io.Writer) {
	if len(t.Samples) == 0 {
		return
	}

	tab := tabulate.New(tabulate.Unicode)
	tab.Header("Op")
	tab.Header("Time").SetAlign(tabulate.MR)
	tab.Header("%").SetAlign(tabulate.MR)

	total := t.Samples[len(t.Samples)-1].End.Sub(t.Start)
	for _, sample := range t.Samples {
		row := tab.Row()
		row.Column(sample.Label)

		duration := sample.End.Sub(sample.Start)
		row.Column(duration.String())
		row.Column(fmt.Sprintf("%.2f%%",
			float64(duration)/float64(total)*100))

		for _, col := range sample.Cols {
			row.Column(col)
		}
	}
	row := tab.Row()
	row.Column("Total")
	row.Column(total.String())

	tab.Print(w)
}
