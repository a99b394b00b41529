//
// Copyright (c) 2024 Markku Rossi
//
// All rights reserved.
//

package liveness

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/markkurossi/circgc/circuit"
)

const sampleCircuit = `3 6
2 1 0 1 2 XOR
2 1 2 3 4 AND
1 1 4 5 INV
`

func TestAnalyzeBasic(t *testing.T) {
	a, err := Analyze(strings.NewReader(sampleCircuit))
	if err != nil {
		t.Fatalf("Analyze failed: %s", err)
	}
	if a.NumGates != 3 || a.NumWires != 6 {
		t.Fatalf("unexpected header: %+v", a)
	}
	if len(a.PrimaryInputs) != 3 {
		t.Fatalf("expected 3 primary inputs, got %v", a.PrimaryInputs)
	}
	if a.FirstDef(0) != Input || a.FirstDef(1) != Input || a.FirstDef(3) != Input {
		t.Fatalf("wires 0,1,3 should be primary inputs")
	}
	if a.FirstDef(2) != 0 {
		t.Fatalf("wire 2 should be defined by gate 0, got %d", a.FirstDef(2))
	}
	if a.LastUse(2) != 1 {
		t.Fatalf("wire 2 should be last used by gate 1, got %d", a.LastUse(2))
	}
	if a.LastUse(4) != 2 {
		t.Fatalf("wire 4 should be last used by gate 2 (the INV), got %d", a.LastUse(4))
	}
	// Wire 5 (the INV's output) is never consumed by a later gate, so
	// it is treated as a primary output.
	if a.LastUse(5) != Output {
		t.Fatalf("wire 5 should be a primary output, got %d", a.LastUse(5))
	}
}

func TestArtifactRoundTrip(t *testing.T) {
	a, err := Analyze(strings.NewReader(sampleCircuit))
	if err != nil {
		t.Fatalf("Analyze failed: %s", err)
	}
	a.PeakResidency = 3

	dir := t.TempDir()
	path := filepath.Join(dir, "wire_analysis.bin")
	if err := a.Write(path); err != nil {
		t.Fatalf("Write failed: %s", err)
	}

	got, err := Read(path)
	if err != nil {
		t.Fatalf("Read failed: %s", err)
	}
	if got.NumGates != a.NumGates || got.NumWires != a.NumWires {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, a)
	}
	if got.PeakResidency != 3 {
		t.Fatalf("PeakResidency not preserved: got %d", got.PeakResidency)
	}
	if len(got.PrimaryInputs) != len(a.PrimaryInputs) {
		t.Fatalf("primary inputs not preserved")
	}
	for i, r := range a.Records {
		if got.Records[i] != r {
			t.Fatalf("record %d mismatch: got %+v, want %+v", i, got.Records[i], r)
		}
	}
}

func TestReadRejectsBadMagic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bogus.bin")
	if err := os.WriteFile(path, bytes.Repeat([]byte{0}, headerSize), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %s", err)
	}
	if _, err := Read(path); err == nil {
		t.Fatalf("expected error reading file with bad magic")
	}
}

func TestReadRejectsFutureVersion(t *testing.T) {
	a, err := Analyze(strings.NewReader(sampleCircuit))
	if err != nil {
		t.Fatalf("Analyze failed: %s", err)
	}
	dir := t.TempDir()
	path := filepath.Join(dir, "wire_analysis.bin")
	if err := a.Write(path); err != nil {
		t.Fatalf("Write failed: %s", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %s", err)
	}
	data[4], data[5], data[6], data[7] = 0, 0, 0, 99
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("WriteFile failed: %s", err)
	}

	_, err = Read(path)
	if err == nil {
		t.Fatalf("expected VersionMismatch")
	}
	if _, ok := err.(*VersionMismatch); !ok {
		t.Fatalf("expected *VersionMismatch, got %T: %s", err, err)
	}
}

func TestOpenMapped(t *testing.T) {
	a, err := Analyze(strings.NewReader(sampleCircuit))
	if err != nil {
		t.Fatalf("Analyze failed: %s", err)
	}
	a.PeakResidency = 4

	dir := t.TempDir()
	path := filepath.Join(dir, "wire_analysis.bin")
	if err := a.Write(path); err != nil {
		t.Fatalf("Write failed: %s", err)
	}

	m, err := OpenMapped(path)
	if err != nil {
		t.Fatalf("OpenMapped failed: %s", err)
	}
	defer m.Close()

	if m.Len() != a.NumWires {
		t.Fatalf("Len=%d, want %d", m.Len(), a.NumWires)
	}
	if m.Gates() != a.NumGates || m.Wires() != a.NumWires {
		t.Fatalf("header mismatch: gates=%d wires=%d", m.Gates(), m.Wires())
	}
	if m.GateStats() != a.Stats {
		t.Fatalf("stats mismatch: got %s, want %s", m.GateStats(), a.Stats)
	}
	if len(m.Inputs()) != len(a.PrimaryInputs) ||
		len(m.Outputs()) != len(a.PrimaryOutputs) {
		t.Fatalf("wire list mismatch")
	}
	for w, rec := range a.Records {
		if got := m.Get(circuit.Wire(w)); got != rec {
			t.Fatalf("record %d mismatch: got %+v, want %+v", w, got, rec)
		}
		if got, want := m.LastUse(circuit.Wire(w)), a.LastUse(circuit.Wire(w)); got != want {
			t.Fatalf("LastUse(%d)=%d, want %d", w, got, want)
		}
	}
}

func TestSetPeakResidency(t *testing.T) {
	a, err := Analyze(strings.NewReader(sampleCircuit))
	if err != nil {
		t.Fatalf("Analyze failed: %s", err)
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "wire_analysis.bin")
	if err := a.Write(path); err != nil {
		t.Fatalf("Write failed: %s", err)
	}

	if err := SetPeakResidency(path, 7); err != nil {
		t.Fatalf("SetPeakResidency failed: %s", err)
	}

	got, err := Read(path)
	if err != nil {
		t.Fatalf("Read failed: %s", err)
	}
	if got.PeakResidency != 7 {
		t.Fatalf("PeakResidency=%d, want 7", got.PeakResidency)
	}
	if got.NumGates != a.NumGates || got.NumWires != a.NumWires {
		t.Fatalf("header damaged by patch: %+v", got)
	}
	for i, r := range a.Records {
		if got.Records[i] != r {
			t.Fatalf("record %d damaged by patch", i)
		}
	}
}

func TestSimulate(t *testing.T) {
	a, err := Analyze(strings.NewReader(sampleCircuit))
	if err != nil {
		t.Fatalf("Analyze failed: %s", err)
	}
	var csv bytes.Buffer
	peak, err := Simulate(strings.NewReader(sampleCircuit), a, &csv)
	if err != nil {
		t.Fatalf("Simulate failed: %s", err)
	}
	if peak < 2 {
		t.Fatalf("unexpected peak residency %d", peak)
	}
	lines := strings.Split(strings.TrimSpace(csv.String()), "\n")
	if len(lines) != 4 { // header + 3 gates
		t.Fatalf("unexpected CSV line count: %d\n%s", len(lines), csv.String())
	}
}

func TestSimulateSameWireOperands(t *testing.T) {
	// Both operands of the gate are wire 0; its release at this gate
	// must be counted once, not twice.
	data := `1 2
2 1 0 0 1 XOR
`
	a, err := Analyze(strings.NewReader(data))
	if err != nil {
		t.Fatalf("Analyze failed: %s", err)
	}
	var csv bytes.Buffer
	peak, err := Simulate(strings.NewReader(data), a, &csv)
	if err != nil {
		t.Fatalf("Simulate failed: %s", err)
	}
	if peak != 2 {
		t.Fatalf("peak=%d, want 2", peak)
	}
	lines := strings.Split(strings.TrimSpace(csv.String()), "\n")
	if lines[1] != "0,1,0" {
		t.Fatalf("unexpected CSV row %q, want \"0,1,0\"", lines[1])
	}
}
