//
// Copyright (c) 2024 Markku Rossi
//
// All rights reserved.
//

package otsim

import (
	"testing"

	"github.com/markkurossi/circgc/circuit"
	"github.com/markkurossi/circgc/garble"
	"github.com/markkurossi/circgc/label"
	"github.com/markkurossi/circgc/prng"
)

func testLabels(n int) *garble.LabelsFile {
	f := &garble.LabelsFile{Version: 1}
	for i := 0; i < n; i++ {
		f.Inputs = append(f.Inputs, garble.WireLabels{
			Wire: circuit.Wire(i),
			L0:   label.Label{D0: uint64(i), D1: 0},
			L1:   label.Label{D0: uint64(i), D1: 1},
		})
	}
	return f
}

func testPRNG(t *testing.T, fill byte) *prng.PRNG {
	t.Helper()
	seed := make([]byte, prng.SeedSize)
	for i := range seed {
		seed[i] = fill
	}
	p, err := prng.New(seed)
	if err != nil {
		t.Fatalf("prng.New failed: %s", err)
	}
	return p
}

func TestSimulateSelectsFromPair(t *testing.T) {
	labels := testLabels(64)
	ot, err := Simulate(labels, testPRNG(t, 3))
	if err != nil {
		t.Fatalf("Simulate failed: %s", err)
	}
	if len(ot.Selections) != 64 {
		t.Fatalf("expected 64 selections, got %d", len(ot.Selections))
	}
	for _, sel := range ot.Selections {
		in, ok := labels.InputByWire(sel.Wire)
		if !ok {
			t.Fatalf("selection for unknown wire %s", sel.Wire)
		}
		if !sel.Label.Equal(in.Pair().For(sel.Bit)) {
			t.Fatalf("wire %s: selected label does not match bit %v",
				sel.Wire, sel.Bit)
		}
	}
}

func TestSimulateDeterministic(t *testing.T) {
	labels := testLabels(128)

	ot1, err := Simulate(labels, testPRNG(t, 7))
	if err != nil {
		t.Fatalf("Simulate failed: %s", err)
	}
	ot2, err := Simulate(labels, testPRNG(t, 7))
	if err != nil {
		t.Fatalf("Simulate failed: %s", err)
	}
	for i := range ot1.Selections {
		if ot1.Selections[i] != ot2.Selections[i] {
			t.Fatalf("same seed produced different selection at %d", i)
		}
	}

	ot3, err := Simulate(labels, testPRNG(t, 8))
	if err != nil {
		t.Fatalf("Simulate failed: %s", err)
	}
	same := true
	for i := range ot1.Selections {
		if ot1.Selections[i].Bit != ot3.Selections[i].Bit {
			same = false
			break
		}
	}
	if same {
		t.Fatalf("different seeds produced identical bit vectors")
	}
}

func TestByWire(t *testing.T) {
	labels := testLabels(4)
	ot, err := Simulate(labels, testPRNG(t, 1))
	if err != nil {
		t.Fatalf("Simulate failed: %s", err)
	}
	if _, ok := ot.ByWire(2); !ok {
		t.Fatalf("ByWire(2) not found")
	}
	if _, ok := ot.ByWire(99); ok {
		t.Fatalf("ByWire(99) unexpectedly found")
	}
}
