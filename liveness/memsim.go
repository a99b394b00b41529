//
// Copyright (c) 2024 Markku Rossi
//
// All rights reserved.
//

package liveness

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/markkurossi/circgc/circuit"
)

// Simulate replays r's gate stream against a previously computed
// wire-analysis schedule and reports, for every gate, how many wire
// labels are live immediately after that gate executes. It writes one
// CSV row per gate to out and returns the peak live count observed,
// which the caller should store back into the artifact (see
// SetPeakResidency). The peak also covers the moment inside each gate
// when its output is live and its last-used inputs are not yet
// released.
//
// The simulator operates on counters only; it never allocates
// per-wire label storage, so with a memory-mapped schedule it runs at
// parser speed in O(1) heap.
func Simulate(r io.Reader, a Schedule, out io.Writer) (int64, error) {
	p, err := circuit.NewParser(r)
	if err != nil {
		return 0, err
	}

	w := csv.NewWriter(out)
	defer w.Flush()
	if err := w.Write([]string{"gate_index", "live_wire_count", "and_gate_cumulative"}); err != nil {
		return 0, fmt.Errorf("liveness: %w", err)
	}

	live := int64(len(a.Inputs()))
	peak := live
	var andCumulative int64

	for gateIdx := 0; ; gateIdx++ {
		g, err := p.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, err
		}
		if g.Op == circuit.AND {
			andCumulative++
		}

		live++ // the gate's output wire becomes live
		// The gate's inputs are still resident while its output is
		// created, so the peak is taken before this gate's releases.
		if live > peak {
			peak = live
		}
		for i, in := range g.Inputs() {
			// A gate may consume the same wire on both operands;
			// release it once.
			if i > 0 && in == g.Input0 {
				continue
			}
			if a.LastUse(in) == int64(gateIdx) {
				live--
			}
		}

		row := []string{
			strconv.Itoa(gateIdx),
			strconv.FormatInt(live, 10),
			strconv.FormatInt(andCumulative, 10),
		}
		if err := w.Write(row); err != nil {
			return 0, fmt.Errorf("liveness: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return 0, fmt.Errorf("liveness: %w", err)
	}
	return peak, nil
}
