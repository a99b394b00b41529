//
// Copyright (c) 2024 Markku Rossi
//
// All rights reserved.
//

//go:build !unix

package liveness

import (
	"github.com/markkurossi/circgc/circuit"
)

// MappedRecords falls back to a fully in-memory Artifact on platforms
// without golang.org/x/sys/unix.Mmap support. It offers the same
// accessor shape as the unix build so callers do not need build tags
// of their own.
type MappedRecords struct {
	a *Artifact
}

var _ Schedule = (*MappedRecords)(nil)

// OpenMapped loads path fully into memory; see the unix build for the
// zero-copy version used in production.
func OpenMapped(path string) (*MappedRecords, error) {
	a, err := Read(path)
	if err != nil {
		return nil, err
	}
	return &MappedRecords{a: a}, nil
}

// Get returns wire w's liveness record.
func (m *MappedRecords) Get(w circuit.Wire) Record {
	return m.a.record(w)
}

// Gates returns the total gate count.
func (m *MappedRecords) Gates() int64 {
	return m.a.NumGates
}

// Wires returns the total wire count.
func (m *MappedRecords) Wires() int64 {
	return m.a.NumWires
}

// GateStats returns the gate-kind histogram.
func (m *MappedRecords) GateStats() circuit.Stats {
	return m.a.Stats
}

// Inputs returns the primary-input wires in ascending id order.
func (m *MappedRecords) Inputs() []circuit.Wire {
	return m.a.PrimaryInputs
}

// Outputs returns the primary-output wires in ascending id order.
func (m *MappedRecords) Outputs() []circuit.Wire {
	return m.a.PrimaryOutputs
}

// LastUse returns the last gate index that consumes w, or Output.
func (m *MappedRecords) LastUse(w circuit.Wire) int64 {
	return m.a.LastUse(w)
}

// Len returns the number of wire records.
func (m *MappedRecords) Len() int64 {
	return m.a.NumWires
}

// Close is a no-op; there is no mapping to release.
func (m *MappedRecords) Close() error {
	return nil
}
