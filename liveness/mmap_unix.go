//
// Copyright (c) 2024 Markku Rossi
//
// All rights reserved.
//

//go:build unix

package liveness

import (
	"encoding/binary"
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"github.com/markkurossi/circgc/circuit"
)

// MappedRecords is a memory-mapped view of a wire-analysis artifact's
// record section. Unlike Read, it never copies the per-wire records
// into the Go heap; the kernel pages them in from disk on first
// touch, so a multi-gigabyte artifact (one record per wire of a
// billion-gate circuit) costs no more resident memory than the pages
// the garbler or evaluator actually visits.
type MappedRecords struct {
	f      *os.File
	data   []byte
	offset int64
	hdr    parsedHeader
	stats  circuit.Stats
	ins    []circuit.Wire
	outs   []circuit.Wire
}

var _ Schedule = (*MappedRecords)(nil)

// OpenMapped mmaps path and parses its fixed-size header and wire
// lists eagerly; the (potentially huge) record section is left
// mapped, not copied.
func OpenMapped(path string) (*MappedRecords, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("liveness: %w", err)
	}
	closeOnErr := true
	defer func() {
		if closeOnErr {
			f.Close()
		}
	}()

	st, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("liveness: %w", err)
	}
	size := st.Size()
	if size < headerSize {
		return nil, fmt.Errorf("liveness: %q is too small to be an artifact", path)
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("liveness: mmap %q: %w", path, err)
	}

	ph, err := parseHeader(data[:headerSize], path)
	if err != nil {
		unix.Munmap(data)
		return nil, err
	}

	recOff := recordsOffset(ph.numIn, ph.numOut)
	want := recOff + ph.numWires*recordSize
	if int64(len(data)) < want {
		unix.Munmap(data)
		return nil, fmt.Errorf(
			"liveness: %q is truncated: have %d bytes, want at least %d",
			path, len(data), want)
	}

	var stats circuit.Stats
	for i := range stats {
		off := int64(headerSize) + int64(i)*8
		stats[i] = int64(binary.BigEndian.Uint64(data[off : off+8]))
	}
	listOff := int64(headerSize) + int64(len(circuit.Stats{})*8)
	ins, listOff := readMappedWireList(data, listOff, ph.numIn)
	outs, _ := readMappedWireList(data, listOff, ph.numOut)

	m := &MappedRecords{
		f:      f,
		data:   data,
		offset: recOff,
		hdr:    ph,
		stats:  stats,
		ins:    ins,
		outs:   outs,
	}
	closeOnErr = false
	return m, nil
}

func readMappedWireList(data []byte, off int64, n uint64) ([]circuit.Wire, int64) {
	if n == 0 {
		return nil, off
	}
	out := make([]circuit.Wire, n)
	for i := range out {
		out[i] = circuit.Wire(binary.BigEndian.Uint32(data[off : off+4]))
		off += 4
	}
	return out, off
}

// Gates returns the total gate count.
func (m *MappedRecords) Gates() int64 {
	return m.hdr.numGates
}

// Wires returns the total wire count.
func (m *MappedRecords) Wires() int64 {
	return m.hdr.numWires
}

// GateStats returns the gate-kind histogram.
func (m *MappedRecords) GateStats() circuit.Stats {
	return m.stats
}

// Inputs returns the primary-input wires in ascending id order.
func (m *MappedRecords) Inputs() []circuit.Wire {
	return m.ins
}

// Outputs returns the primary-output wires in ascending id order.
func (m *MappedRecords) Outputs() []circuit.Wire {
	return m.outs
}

// LastUse returns the last gate index that consumes w, or Output.
func (m *MappedRecords) LastUse(w circuit.Wire) int64 {
	r := m.Get(w)
	if r.LastUse == unset {
		return Output
	}
	return r.LastUse
}

// Get returns wire w's liveness record without copying any other
// wire's data.
func (m *MappedRecords) Get(w circuit.Wire) Record {
	off := m.offset + int64(w)*recordSize
	return Record{
		FirstDef: int64(binary.BigEndian.Uint64(m.data[off : off+8])),
		LastUse:  int64(binary.BigEndian.Uint64(m.data[off+8 : off+16])),
	}
}

// Len returns the number of wire records.
func (m *MappedRecords) Len() int64 {
	return m.hdr.numWires
}

// Close unmaps the artifact and closes its file descriptor.
func (m *MappedRecords) Close() error {
	err := unix.Munmap(m.data)
	if cerr := m.f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("liveness: %w", err)
	}
	return nil
}
