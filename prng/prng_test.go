//
// Copyright (c) 2024 Markku Rossi
//
// All rights reserved.
//

package prng

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func testSeed() []byte {
	seed := make([]byte, SeedSize)
	for i := range seed {
		seed[i] = byte(i)
	}
	return seed
}

func TestReproducible(t *testing.T) {
	seed := testSeed()

	p1, err := New(seed)
	if err != nil {
		t.Fatalf("New failed: %s", err)
	}
	p2, err := New(seed)
	if err != nil {
		t.Fatalf("New failed: %s", err)
	}

	buf1 := make([]byte, 256)
	buf2 := make([]byte, 256)
	if _, err := p1.Read(buf1); err != nil {
		t.Fatalf("Read failed: %s", err)
	}
	if _, err := p2.Read(buf2); err != nil {
		t.Fatalf("Read failed: %s", err)
	}
	if !bytes.Equal(buf1, buf2) {
		t.Fatalf("same seed produced different streams")
	}
}

func TestDifferentSeedsDiverge(t *testing.T) {
	seed1 := testSeed()
	seed2 := testSeed()
	seed2[0] ^= 0xff

	p1, _ := New(seed1)
	p2, _ := New(seed2)

	buf1 := make([]byte, 32)
	buf2 := make([]byte, 32)
	p1.Read(buf1)
	p2.Read(buf2)
	if bytes.Equal(buf1, buf2) {
		t.Fatalf("different seeds produced identical streams")
	}
}

func TestNewRejectsBadLength(t *testing.T) {
	if _, err := New(make([]byte, SeedSize-1)); err == nil {
		t.Fatalf("expected SeedError for short seed")
	}
	if _, err := New(make([]byte, SeedSize+1)); err == nil {
		t.Fatalf("expected SeedError for long seed")
	}
}

func TestLabelSentinelCleared(t *testing.T) {
	p, err := New(testSeed())
	if err != nil {
		t.Fatalf("New failed: %s", err)
	}
	for i := 0; i < 16; i++ {
		l, err := p.Label()
		if err != nil {
			t.Fatalf("Label failed: %s", err)
		}
		if !l.SentinelOK() {
			t.Fatalf("drawn label has sentinel bits set: %s", l)
		}
	}
}

func TestLoadSeedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "seed")
	if err := os.WriteFile(path, testSeed(), 0o600); err != nil {
		t.Fatalf("WriteFile failed: %s", err)
	}

	p, err := LoadSeed(path)
	if err != nil {
		t.Fatalf("LoadSeed failed: %s", err)
	}
	var buf [8]byte
	if _, err := p.Read(buf[:]); err != nil {
		t.Fatalf("Read failed: %s", err)
	}
}

func TestLoadSeedFileBadLength(t *testing.T) {
	dir := t.TempDir()

	short := filepath.Join(dir, "short")
	os.WriteFile(short, testSeed()[:10], 0o600)
	if _, err := LoadSeed(short); err == nil {
		t.Fatalf("expected error for short seed file")
	}

	long := filepath.Join(dir, "long")
	os.WriteFile(long, append(testSeed(), 0, 0, 0), 0o600)
	if _, err := LoadSeed(long); err == nil {
		t.Fatalf("expected error for long seed file")
	}
}

func TestBitDistribution(t *testing.T) {
	p, err := New(testSeed())
	if err != nil {
		t.Fatalf("New failed: %s", err)
	}
	var ones int
	const n = 2000
	for i := 0; i < n; i++ {
		b, err := p.Bit()
		if err != nil {
			t.Fatalf("Bit failed: %s", err)
		}
		if b {
			ones++
		}
	}
	if ones < n/4 || ones > 3*n/4 {
		t.Fatalf("suspicious bit distribution: %d/%d ones", ones, n)
	}
}
