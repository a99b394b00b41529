//
// Copyright (c) 2024 Markku Rossi
//
// All rights reserved.
//

// Package prng implements the deterministic CSPRNG that drives label
// generation in the garbler and bit selection in the OT simulator. The
// same 32-byte seed always yields the same byte stream, which is what
// gives garble() and ot-simulate() their reproducibility guarantees.
package prng

import (
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20"

	"github.com/markkurossi/circgc/label"
)

// SeedSize is the required length, in bytes, of a seed file.
const SeedSize = chacha20.KeySize

// SeedError reports that a seed file was not exactly SeedSize bytes.
type SeedError struct {
	Path string
	Got  int
}

func (e *SeedError) Error() string {
	return fmt.Sprintf("prng: seed %q has %d bytes, want %d",
		e.Path, e.Got, SeedSize)
}

// PRNG is a deterministic byte stream keyed from a 32-byte seed.
type PRNG struct {
	stream *chacha20.Cipher
}

// New creates a PRNG from a 32-byte seed. The nonce is fixed to zero:
// every seed file is the sole key material for exactly one logical
// stream (one garbling session, or one OT-simulation session), so
// nonce reuse across distinct seeds never arises.
func New(seed []byte) (*PRNG, error) {
	if len(seed) != SeedSize {
		return nil, &SeedError{Path: "<seed>", Got: len(seed)}
	}
	var nonce [chacha20.NonceSize]byte
	stream, err := chacha20.NewUnauthenticatedCipher(seed, nonce[:])
	if err != nil {
		return nil, fmt.Errorf("prng: init failed: %w", err)
	}
	return &PRNG{stream: stream}, nil
}

// LoadSeed reads exactly SeedSize bytes from path and builds a PRNG
// from them.
func LoadSeed(path string) (*PRNG, error) {
	data, err := readSeedFile(path)
	if err != nil {
		return nil, err
	}
	p, err := New(data)
	if err != nil {
		if se, ok := err.(*SeedError); ok {
			se.Path = path
		}
		return nil, err
	}
	return p, nil
}

// Read fills p with pseudorandom bytes. It never fails (the keystream
// is unbounded) and always returns len(p), nil, satisfying io.Reader.
func (r *PRNG) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = 0
	}
	r.stream.XORKeyStream(p, p)
	return len(p), nil
}

var _ io.Reader = (*PRNG)(nil)

// Label draws a fresh 128 bit label from the stream, with its
// sentinel bits cleared (see label.SentinelMask).
func (r *PRNG) Label() (label.Label, error) {
	var data label.Data
	if _, err := io.ReadFull(r, data[:]); err != nil {
		return label.Label{}, err
	}
	var l label.Label
	l.SetData(&data)
	l.ClearSentinel()
	return l, nil
}

// Bit draws a single pseudorandom bit.
func (r *PRNG) Bit() (bool, error) {
	var b [1]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return false, err
	}
	return b[0]&0x1 != 0, nil
}
