//
// Copyright (c) 2024 Markku Rossi
//
// All rights reserved.
//

// Package liveness computes, for every wire of a circuit, the gate
// that first defines it and the last gate that consumes it, and
// serializes the result as a versioned binary artifact that the
// garbler, evaluator, and memory simulator all read back as the
// single source of truth for when a wire's label may be freed.
package liveness

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/markkurossi/circgc/atomicio"
	"github.com/markkurossi/circgc/circuit"
)

// Sentinel first_def/last_use values. Input sorts below every real
// gate index; Output sorts above every real gate index, so
// first_def <= last_use holds with INPUT < gates < OUTPUT.
const (
	Input  int64 = -1
	Output int64 = 1<<62 - 1
)

// unset marks a last_use that the first pass has not yet touched.
// Analyze resolves every remaining unset to Output, both for primary
// outputs and for unused primary inputs (which it also lists as dead
// wires, a warning rather than an error).
const unset int64 = -2

// Record is one wire's liveness record.
type Record struct {
	FirstDef int64
	LastUse  int64
}


const (
	magic         = "WLIV"
	formatVersion = uint32(1)
	headerSize    = 64
	peakOffset    = 40 // byte offset of the peak-residency header field
	recordSize    = 16 // two int64 fields
)

// Schedule is the read-only view of a wire-analysis artifact that the
// memory simulator, garbler, and evaluator consult. It is implemented
// by Artifact (record table fully in the heap) and by MappedRecords
// (record table left memory-mapped on disk, for circuits whose wire
// count makes the heap copy prohibitive).
type Schedule interface {
	Gates() int64
	Wires() int64
	GateStats() circuit.Stats
	Inputs() []circuit.Wire
	Outputs() []circuit.Wire
	LastUse(w circuit.Wire) int64
}

// Artifact is the in-memory form of a wire-analysis file: per-wire
// liveness records plus the structural statistics the analyzer
// collects in the same pass.
type Artifact struct {
	NumGates       int64
	NumWires       int64
	Stats          circuit.Stats
	PrimaryInputs  []circuit.Wire
	PrimaryOutputs []circuit.Wire
	PeakResidency  int64 // -1 if the memory simulator has not run

	// DeadWires holds primary-input wires that are never consumed by
	// any gate. Not persisted: it is a diagnostic surfaced once at
	// analysis time, not a fact later components need to consult.
	DeadWires []circuit.Wire

	Records []Record
}

var _ Schedule = (*Artifact)(nil)

func (a *Artifact) record(w circuit.Wire) Record {
	return a.Records[int(w)]
}

// Gates returns the total gate count.
func (a *Artifact) Gates() int64 {
	return a.NumGates
}

// Wires returns the total wire count.
func (a *Artifact) Wires() int64 {
	return a.NumWires
}

// GateStats returns the gate-kind histogram.
func (a *Artifact) GateStats() circuit.Stats {
	return a.Stats
}

// Inputs returns the primary-input wires in ascending id order.
func (a *Artifact) Inputs() []circuit.Wire {
	return a.PrimaryInputs
}

// Outputs returns the primary-output wires in ascending id order.
func (a *Artifact) Outputs() []circuit.Wire {
	return a.PrimaryOutputs
}

// FirstDef returns w's defining gate index, or Input.
func (a *Artifact) FirstDef(w circuit.Wire) int64 {
	return a.record(w).FirstDef
}

// LastUse returns the last gate index that consumes w, or Output.
func (a *Artifact) LastUse(w circuit.Wire) int64 {
	r := a.record(w)
	if r.LastUse == unset {
		return Output
	}
	return r.LastUse
}

// VersionMismatch reports an artifact whose on-disk version this
// build does not understand.
type VersionMismatch struct {
	Path string
	Got  uint32
	Want uint32
}

func (e *VersionMismatch) Error() string {
	return fmt.Sprintf("liveness: %q has format version %d, want %d",
		e.Path, e.Got, e.Want)
}

// Write serializes the artifact to path, writing to a temporary file
// in the same directory and renaming into place so a crash never
// leaves a partial artifact behind.
func (a *Artifact) Write(path string) error {
	return atomicio.WriteFile(path, func(f *os.File) error {
		w := bufio.NewWriterSize(f, 1<<20)
		if err := a.marshal(w); err != nil {
			return err
		}
		if err := w.Flush(); err != nil {
			return fmt.Errorf("liveness: %w", err)
		}
		return nil
	})
}

func (a *Artifact) marshal(w io.Writer) error {
	var hdr [headerSize]byte
	copy(hdr[0:4], magic)
	binary.BigEndian.PutUint32(hdr[4:8], formatVersion)
	binary.BigEndian.PutUint64(hdr[8:16], uint64(a.NumGates))
	binary.BigEndian.PutUint64(hdr[16:24], uint64(a.NumWires))
	binary.BigEndian.PutUint64(hdr[24:32], uint64(len(a.PrimaryInputs)))
	binary.BigEndian.PutUint64(hdr[32:40], uint64(len(a.PrimaryOutputs)))
	binary.BigEndian.PutUint64(hdr[peakOffset:peakOffset+8], uint64(a.PeakResidency))
	if _, err := w.Write(hdr[:]); err != nil {
		return fmt.Errorf("liveness: %w", err)
	}

	var statBuf [len(circuit.Stats{}) * 8]byte
	for i, v := range a.Stats {
		binary.BigEndian.PutUint64(statBuf[i*8:i*8+8], uint64(v))
	}
	if _, err := w.Write(statBuf[:]); err != nil {
		return fmt.Errorf("liveness: %w", err)
	}

	if err := writeWireList(w, a.PrimaryInputs); err != nil {
		return err
	}
	if err := writeWireList(w, a.PrimaryOutputs); err != nil {
		return err
	}

	var rec [recordSize]byte
	for _, r := range a.Records {
		binary.BigEndian.PutUint64(rec[0:8], uint64(r.FirstDef))
		binary.BigEndian.PutUint64(rec[8:16], uint64(r.LastUse))
		if _, err := w.Write(rec[:]); err != nil {
			return fmt.Errorf("liveness: %w", err)
		}
	}
	return nil
}

func writeWireList(w io.Writer, wires []circuit.Wire) error {
	var buf [4]byte
	for _, v := range wires {
		binary.BigEndian.PutUint32(buf[:], uint32(v))
		if _, err := w.Write(buf[:]); err != nil {
			return fmt.Errorf("liveness: %w", err)
		}
	}
	return nil
}

// Read loads a wire-analysis artifact fully into memory.
func Read(path string) (*Artifact, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("liveness: %w", err)
	}
	defer f.Close()
	return readFrom(bufio.NewReaderSize(f, 1<<20), path)
}

// parsedHeader is the decoded fixed-size prefix shared by the
// buffered reader and the mmap reader.
type parsedHeader struct {
	numGates, numWires int64
	numIn, numOut      uint64
	peakResidency      int64
}

func parseHeader(hdr []byte, path string) (parsedHeader, error) {
	if len(hdr) < headerSize || string(hdr[0:4]) != magic {
		return parsedHeader{}, fmt.Errorf(
			"liveness: %q is not a wire-analysis artifact", path)
	}
	version := binary.BigEndian.Uint32(hdr[4:8])
	if version != formatVersion {
		return parsedHeader{}, &VersionMismatch{
			Path: path, Got: version, Want: formatVersion,
		}
	}
	return parsedHeader{
		numGates:      int64(binary.BigEndian.Uint64(hdr[8:16])),
		numWires:      int64(binary.BigEndian.Uint64(hdr[16:24])),
		numIn:         binary.BigEndian.Uint64(hdr[24:32]),
		numOut:        binary.BigEndian.Uint64(hdr[32:40]),
		peakResidency: int64(binary.BigEndian.Uint64(hdr[peakOffset : peakOffset+8])),
	}, nil
}

// SetPeakResidency patches the peak-residency header field of an
// existing artifact in place. The field lives in the fixed-size
// header, so the record table — gigabytes for the largest circuits —
// is never read or rewritten.
func SetPeakResidency(path string, peak int64) error {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return fmt.Errorf("liveness: %w", err)
	}
	defer f.Close()

	var hdr [headerSize]byte
	if _, err := io.ReadFull(f, hdr[:]); err != nil {
		return fmt.Errorf("liveness: reading header of %q: %w", path, err)
	}
	if _, err := parseHeader(hdr[:], path); err != nil {
		return err
	}

	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(peak))
	if _, err := f.WriteAt(buf[:], peakOffset); err != nil {
		return fmt.Errorf("liveness: %w", err)
	}
	return nil
}

// recordsOffset returns the byte offset of the wire-record section,
// given the number of primary inputs and outputs stored in the
// header that precedes it.
func recordsOffset(numIn, numOut uint64) int64 {
	return int64(headerSize) + int64(len(circuit.Stats{})*8) +
		int64(numIn)*4 + int64(numOut)*4
}

func readFrom(r io.Reader, path string) (*Artifact, error) {
	var hdr [headerSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, fmt.Errorf("liveness: reading header of %q: %w", path, err)
	}
	ph, err := parseHeader(hdr[:], path)
	if err != nil {
		return nil, err
	}

	a := &Artifact{
		NumGates: ph.numGates,
		NumWires: ph.numWires,
	}
	numIn := ph.numIn
	numOut := ph.numOut
	a.PeakResidency = ph.peakResidency

	var statBuf [len(circuit.Stats{}) * 8]byte
	if _, err := io.ReadFull(r, statBuf[:]); err != nil {
		return nil, fmt.Errorf("liveness: reading stats of %q: %w", path, err)
	}
	for i := range a.Stats {
		a.Stats[i] = int64(binary.BigEndian.Uint64(statBuf[i*8 : i*8+8]))
	}

	if a.PrimaryInputs, err = readWireList(r, numIn); err != nil {
		return nil, err
	}
	if a.PrimaryOutputs, err = readWireList(r, numOut); err != nil {
		return nil, err
	}

	a.Records = make([]Record, a.NumWires)
	var rec [recordSize]byte
	for i := range a.Records {
		if _, err := io.ReadFull(r, rec[:]); err != nil {
			return nil, fmt.Errorf("liveness: reading record %d of %q: %w",
				i, path, err)
		}
		a.Records[i] = Record{
			FirstDef: int64(binary.BigEndian.Uint64(rec[0:8])),
			LastUse:  int64(binary.BigEndian.Uint64(rec[8:16])),
		}
	}
	return a, nil
}

func readWireList(r io.Reader, n uint64) ([]circuit.Wire, error) {
	if n == 0 {
		return nil, nil
	}
	out := make([]circuit.Wire, n)
	var buf [4]byte
	for i := range out {
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return nil, fmt.Errorf("liveness: %w", err)
		}
		out[i] = circuit.Wire(binary.BigEndian.Uint32(buf[:]))
	}
	return out, nil
}
