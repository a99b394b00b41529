//
// Copyright (c) 2024 Markku Rossi
//
// All rights reserved.
//

package liveness

import (
	"fmt"
	"io"

	"github.com/markkurossi/circgc/circuit"
)

// Analyze streams r's gates exactly once and returns the wire-analysis
// artifact: first_def/last_use per wire, the gate-kind histogram, and
// the circuit's primary input and output wires. It holds one record
// slice (two int64 fields per wire) sized to NumWires; it never
// builds an adjacency graph, so its memory use is independent of gate
// count.
func Analyze(r io.Reader) (*Artifact, error) {
	p, err := circuit.NewParser(r)
	if err != nil {
		return nil, err
	}
	hdr := p.Header()

	a := &Artifact{
		NumGates:      int64(hdr.NumGates),
		NumWires:      int64(hdr.NumWires),
		PeakResidency: -1,
	}
	a.Records = make([]Record, hdr.NumWires)
	for i := range a.Records {
		a.Records[i] = Record{FirstDef: Input, LastUse: unset}
	}

	for gateIdx := 0; ; gateIdx++ {
		g, err := p.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		a.Stats.Add(g.Op)

		a.Records[int(g.Output)].FirstDef = int64(gateIdx)
		for _, in := range g.Inputs() {
			a.Records[int(in)].LastUse = int64(gateIdx)
		}
	}

	for w, rec := range a.Records {
		if rec.FirstDef == Input {
			a.PrimaryInputs = append(a.PrimaryInputs, circuit.Wire(w))
		}
	}

	// A wire with no recorded consumer is a primary output if some gate
	// defines it (it was computed and never consumed further down the
	// stream — the ordinary shape of a circuit's output wire). A wire
	// that is never defined by a gate *and* never consumed is a
	// genuinely dead primary input; that is a warning, not an error,
	// so it is recorded but not added to PrimaryOutputs.
	for w, rec := range a.Records {
		if rec.LastUse != unset {
			continue
		}
		a.Records[w].LastUse = Output
		if rec.FirstDef == Input {
			a.DeadWires = append(a.DeadWires, circuit.Wire(w))
		} else {
			a.PrimaryOutputs = append(a.PrimaryOutputs, circuit.Wire(w))
		}
	}

	if a.Stats.Total() != a.NumGates {
		return nil, fmt.Errorf(
			"liveness: streamed %d gates, header declared %d",
			a.Stats.Total(), a.NumGates)
	}
	return a, nil
}
