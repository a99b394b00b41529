//
// Copyright (c) 2024 Markku Rossi
//
// All rights reserved.

// Package otsim implements an oblivious-transfer simulator: a
// stand-in for a real OT protocol that selects one label per
// primary-input wire from the garbler's labels.json, driven by a
// PRNG-sourced bit vector rather than any privacy-preserving
// transfer. It is not a protocol between separate parties; it is
// single-process tooling for exercising the garbler and evaluator
// against each other.
package otsim

import (
	"fmt"

	"github.com/markkurossi/circgc/circuit"
	"github.com/markkurossi/circgc/garble"
	"github.com/markkurossi/circgc/label"
	"github.com/markkurossi/circgc/prng"
)

// formatVersion is the schema version stamped into ot.json.
const formatVersion = 1

// Selection is one primary-input wire's chosen label and the bit it
// represents. The bit is carried alongside the label so the evaluator
// (or a test) can cross-check against ground truth.
type Selection struct {
	Wire  circuit.Wire `json:"wire"`
	Label label.Label  `json:"label"`
	Bit   bool         `json:"bit"`
}

// File is the OT simulator's ot.json artifact.
type File struct {
	Version    int         `json:"version"`
	Selections []Selection `json:"selections"`
}

// ByWire returns the selection for wire w, if present.
func (f *File) ByWire(w circuit.Wire) (Selection, bool) {
	for _, s := range f.Selections {
		if s.Wire == w {
			return s, true
		}
	}
	return Selection{}, false
}

// Simulate draws one bit per primary-input wire in labels from seed
// and selects the corresponding label from the pair labels.json
// published for that wire.
func Simulate(labels *garble.LabelsFile, seed *prng.PRNG) (*File, error) {
	sels := make([]Selection, 0, len(labels.Inputs))
	for _, in := range labels.Inputs {
		bit, err := seed.Bit()
		if err != nil {
			return nil, fmt.Errorf("otsim: drawing bit for %s: %w", in.Wire, err)
		}
		sels = append(sels, Selection{
			Wire:  in.Wire,
			Label: in.Pair().For(bit),
			Bit:   bit,
		})
	}
	return &File{Version: formatVersion, Selections: sels}, nil
}
