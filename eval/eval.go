//
// Copyright (c) 2024 Markku Rossi
//
// All rights reserved.

// Package eval implements the garbled-circuit evaluator: a one-pass
// mirror of the garbler that consumes the gate stream, the garbled
// AND-gate tables, and the OT-selected input labels, and produces the
// active label (and recovered bit) for every primary output wire.
package eval

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/markkurossi/circgc/circuit"
	"github.com/markkurossi/circgc/garble"
	"github.com/markkurossi/circgc/label"
	"github.com/markkurossi/circgc/liveness"
	"github.com/markkurossi/circgc/otsim"
)

// formatVersion is the schema version stamped into eval.json.
const formatVersion = 1

// Output is one primary output wire's active label and recovered bit.
type Output struct {
	Wire  circuit.Wire `json:"wire"`
	Label label.Label  `json:"label"`
	Bit   bool         `json:"bit"`
}

// File is the evaluator's eval.json artifact.
type File struct {
	Version int      `json:"version"`
	Outputs []Output `json:"outputs"`
}

// InconsistencyError reports that a garbled AND-gate table did not
// have exactly one row consistent with the sentinel tag: either no row
// decrypted to a value with its sentinel bits zero (corrupted table or
// mismatched inputs), or more than one did (a catastrophic collision,
// astronomically unlikely with a 112-bit sentinel-free label space).
type InconsistencyError struct {
	Gate  int
	Valid int
}

func (e *InconsistencyError) Error() string {
	return fmt.Sprintf(
		"eval: gate %d: %d garbled rows decrypted consistently, want exactly 1",
		e.Gate, e.Valid)
}

// StructuralError mirrors garble.StructuralError: a gate kind with no
// committed evaluate-time semantics, or a wire missing from the live
// map (a topology bug that should have been caught by the parser).
type StructuralError struct {
	Gate int
	Wire circuit.Wire
	Msg  string
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("eval: structural error at gate %d, wire %s: %s",
		e.Gate, e.Wire, e.Msg)
}

// Evaluate streams r's gates once, consuming AND-gate tables from
// garbled in the same order the garbler wrote them, and resolves every
// primary input's active label from ot. It returns the active label
// and recovered bit for every primary output wire named in a.
func Evaluate(r io.Reader, a liveness.Schedule, labels *garble.LabelsFile, ot *otsim.File, garbled io.Reader) (*File, error) {
	p, err := circuit.NewParser(r)
	if err != nil {
		return nil, err
	}
	hdr := p.Header()
	if int64(hdr.NumGates) != a.Gates() || int64(hdr.NumWires) != a.Wires() {
		return nil, fmt.Errorf(
			"eval: circuit (%d gates, %d wires) does not match wire-analysis artifact (%d gates, %d wires)",
			hdr.NumGates, hdr.NumWires, a.Gates(), a.Wires())
	}

	alg, err := label.NewCipher()
	if err != nil {
		return nil, err
	}

	br := bufio.NewReaderSize(garbled, 1<<20)
	var bhdr [16]byte
	if _, err := io.ReadFull(br, bhdr[:]); err != nil {
		return nil, fmt.Errorf("eval: reading garbled blob header: %w", err)
	}
	if string(bhdr[0:4]) != garble.BlobMagic {
		return nil, fmt.Errorf("eval: garbled blob has bad magic %q", bhdr[0:4])
	}
	if version := binary.BigEndian.Uint32(bhdr[4:8]); version != garble.BlobVersion {
		return nil, &liveness.VersionMismatch{
			Path: "<garbled>", Got: version, Want: garble.BlobVersion,
		}
	}

	inputs := a.Inputs()
	m := make(map[circuit.Wire]label.Label, len(inputs))
	for _, w := range inputs {
		sel, ok := ot.ByWire(w)
		if !ok {
			return nil, fmt.Errorf("eval: no OT selection for primary input %s", w)
		}
		m[w] = sel.Label
	}

	var rowData [4]label.Data

	for gateIdx := 0; ; gateIdx++ {
		g, err := p.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		switch g.Op {
		case circuit.XOR:
			la, ok := m[g.Input0]
			if !ok {
				return nil, structuralMissing(gateIdx, g.Input0)
			}
			lb, ok := m[g.Input1]
			if !ok {
				return nil, structuralMissing(gateIdx, g.Input1)
			}
			m[g.Output] = la.Xored(lb)

		case circuit.INV:
			la, ok := m[g.Input0]
			if !ok {
				return nil, structuralMissing(gateIdx, g.Input0)
			}
			// Free-XOR: the evaluator never computes with Delta. The
			// active label carries the NOT already, because the
			// garbler swapped out.L0/out.L1's roles relative to
			// in.L0/in.L1; the evaluator simply forwards the same
			// label value unchanged.
			m[g.Output] = la

		case circuit.AND:
			la, ok := m[g.Input0]
			if !ok {
				return nil, structuralMissing(gateIdx, g.Input0)
			}
			lb, ok := m[g.Input1]
			if !ok {
				return nil, structuralMissing(gateIdx, g.Input1)
			}

			for i := 0; i < 4; i++ {
				if _, err := io.ReadFull(br, rowData[i][:]); err != nil {
					return nil, fmt.Errorf(
						"eval: reading garbled row %d of gate %d: %w", i, gateIdx, err)
				}
			}

			var candidate label.Label
			valid := 0
			for i := 0; i < 4; i++ {
				var c label.Label
				c.SetData(&rowData[i])
				cand := label.Decrypt(alg, la, lb, uint64(gateIdx), c)
				if cand.SentinelOK() {
					candidate = cand
					valid++
				}
			}
			if valid != 1 {
				return nil, &InconsistencyError{Gate: gateIdx, Valid: valid}
			}
			m[g.Output] = candidate

		default:
			return nil, &StructuralError{
				Gate: gateIdx,
				Msg:  fmt.Sprintf("gate kind %s has no committed evaluate-time semantics", g.Op),
			}
		}

		for i, in := range g.Inputs() {
			if i > 0 && in == g.Input0 {
				continue
			}
			if a.LastUse(in) == int64(gateIdx) {
				delete(m, in)
			}
		}
	}

	outputs := a.Outputs()
	out := &File{Version: formatVersion, Outputs: make([]Output, 0, len(outputs))}
	for _, w := range outputs {
		active, ok := m[w]
		if !ok {
			return nil, fmt.Errorf("eval: output wire %s never computed", w)
		}
		dec, ok := labels.OutputByWire(w)
		if !ok {
			return nil, fmt.Errorf("eval: no output-decoding entry for %s", w)
		}
		bit, err := dec.Pair().BitFor(active)
		if err != nil {
			return nil, fmt.Errorf("eval: output wire %s: %w", w, err)
		}
		out.Outputs = append(out.Outputs, Output{Wire: w, Label: active, Bit: bit})
	}
	return out, nil
}

func structuralMissing(gate int, w circuit.Wire) error {
	return &StructuralError{Gate: gate, Wire: w, Msg: "wire not resident in live label map"}
}
