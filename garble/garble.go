//
// Copyright (c) 2024 Markku Rossi
//
// All rights reserved.

// Package garble implements the one-pass Free-XOR garbler: every wire
// gets a label pair under a session-global Delta (fresh draws for
// primary inputs and AND outputs, XOR-derived otherwise), and for
// every AND gate it emits a classical 4-ciphertext garbled table,
// honoring the wire-liveness schedule so that its resident label map
// never exceeds the circuit's peak residency.
package garble

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"

	"github.com/markkurossi/circgc/circuit"
	"github.com/markkurossi/circgc/label"
	"github.com/markkurossi/circgc/liveness"
	"github.com/markkurossi/circgc/prng"
)

// BlobMagic and BlobVersion identify the garbled-table binary blob.
const (
	BlobMagic   = "GRBL"
	BlobVersion = uint32(1)
)

// blobHeaderSize is the fixed 16-byte magic+version+count prefix ahead
// of the AND-gate tables: 4 bytes magic, 4 bytes version, 8 bytes AND
// gate count. Same versioning discipline as liveness.Artifact.
const blobHeaderSize = 16

// Options controls optional, behavior-preserving optimizations.
type Options struct {
	// Parallel permits garbling independent batches of AND gates
	// concurrently. Not implemented by this streaming garbler; any
	// future parallel schedule must still commit AND ciphertexts to
	// the blob in gate index order, byte-identical to the sequential
	// schedule.
	Parallel bool
}

// Garble streams r's gates once, drawing labels from seed, and writes
// the primary-input label pairs plus primary-output decoding table to
// labelsW (as a LabelsFile) and the AND-gate garbled tables, in
// topological order, to garbledW. a must be the wire-analysis schedule
// for the same circuit: a liveness.Analyze result, or the artifact
// opened with liveness.OpenMapped when the wire count makes the heap
// copy prohibitive.
func Garble(r io.Reader, a liveness.Schedule, seed *prng.PRNG, labelsW, garbledW io.Writer, opts Options) (*LabelsFile, error) {
	p, err := circuit.NewParser(r)
	if err != nil {
		return nil, err
	}
	hdr := p.Header()
	if int64(hdr.NumGates) != a.Gates() || int64(hdr.NumWires) != a.Wires() {
		return nil, fmt.Errorf(
			"garble: circuit (%d gates, %d wires) does not match wire-analysis artifact (%d gates, %d wires)",
			hdr.NumGates, hdr.NumWires, a.Gates(), a.Wires())
	}

	alg, err := label.NewCipher()
	if err != nil {
		return nil, err
	}

	// Delta is drawn once per session and never leaves this function:
	// it is not written to labels.json, the garbled blob, or any log
	// line.
	delta, err := seed.Label()
	if err != nil {
		return nil, fmt.Errorf("garble: drawing delta: %w", err)
	}
	delta.SetS(true)
	defer func() { delta = label.Label{} }()

	inputs := a.Inputs()
	m := make(map[circuit.Wire]label.Label, len(inputs))
	labels := &LabelsFile{
		Version: labelsFormatVersion,
		Inputs:  make([]WireLabels, 0, len(inputs)),
	}
	for _, w := range inputs {
		l0, err := seed.Label()
		if err != nil {
			return nil, fmt.Errorf("garble: drawing input label for %s: %w", w, err)
		}
		m[w] = l0
		labels.Inputs = append(labels.Inputs, WireLabels{
			Wire: w, L0: l0, L1: l0.Xored(delta),
		})
	}

	bw := bufio.NewWriterSize(garbledW, 1<<20)
	var bhdr [blobHeaderSize]byte
	copy(bhdr[0:4], BlobMagic)
	binary.BigEndian.PutUint32(bhdr[4:8], BlobVersion)
	binary.BigEndian.PutUint64(bhdr[8:16], uint64(a.GateStats()[circuit.AND]))
	if _, err := bw.Write(bhdr[:]); err != nil {
		return nil, fmt.Errorf("garble: %w", err)
	}

	var row [4]label.Data

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
				return nil, missingWire(gateIdx, g.Input0)
			}
			lb, ok := m[g.Input1]
			if !ok {
				return nil, missingWire(gateIdx, g.Input1)
			}
			m[g.Output] = la.Xored(lb)

		case circuit.INV:
			la, ok := m[g.Input0]
			if !ok {
				return nil, missingWire(gateIdx, g.Input0)
			}
			m[g.Output] = la.Xored(delta)

		case circuit.AND:
			la, ok := m[g.Input0]
			if !ok {
				return nil, missingWire(gateIdx, g.Input0)
			}
			lb, ok := m[g.Input1]
			if !ok {
				return nil, missingWire(gateIdx, g.Input1)
			}

			out0, err := seed.Label()
			if err != nil {
				return nil, fmt.Errorf(
					"garble: drawing output label at gate %d: %w", gateIdx, err)
			}
			out1 := out0.Xored(delta)
			m[g.Output] = out0

			a0, a1 := la, la.Xored(delta)
			b0, b1 := lb, lb.Xored(delta)

			// Canonical truth table: only (1,1) produces a 1 output.
			cipher00 := label.Encrypt(alg, a0, b0, out0, uint64(gateIdx))
			cipher01 := label.Encrypt(alg, a0, b1, out0, uint64(gateIdx))
			cipher10 := label.Encrypt(alg, a1, b0, out0, uint64(gateIdx))
			cipher11 := label.Encrypt(alg, a1, b1, out1, uint64(gateIdx))

			cipher00.GetData(&row[label.RowIndex(false, false)])
			cipher01.GetData(&row[label.RowIndex(false, true)])
			cipher10.GetData(&row[label.RowIndex(true, false)])
			cipher11.GetData(&row[label.RowIndex(true, true)])

			for _, r := range row {
				if _, err := bw.Write(r[:]); err != nil {
					return nil, fmt.Errorf("garble: %w", err)
				}
			}

		default:
			return nil, unsupportedOp(gateIdx, g.Op)
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

	if err := bw.Flush(); err != nil {
		return nil, fmt.Errorf("garble: %w", err)
	}

	outputs := a.Outputs()
	labels.Outputs = make([]WireLabels, 0, len(outputs))
	for _, w := range outputs {
		l0, ok := m[w]
		if !ok {
			return nil, fmt.Errorf("garble: output wire %s never defined", w)
		}
		labels.Outputs = append(labels.Outputs, WireLabels{
			Wire: w, L0: l0, L1: l0.Xored(delta),
		})
	}

	if labelsW != nil {
		enc := json.NewEncoder(labelsW)
		enc.SetIndent("", "  ")
		if err := enc.Encode(labels); err != nil {
			return nil, fmt.Errorf("garble: %w", err)
		}
	}

	return labels, nil
}
