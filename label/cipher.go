//
// Copyright (c) 2019-2024 Markku Rossi
//
// All rights reserved.
//

package label

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"
)

// fixedKey is the published, constant AES-128 key behind the dual-key
// cipher. It carries no secret: the construction's security rests on
// the related-key distribution induced by Delta, not on hiding this
// key.
var fixedKey = [aes.BlockSize]byte{
	0x63, 0x69, 0x72, 0x63, 0x67, 0x63, 0x2d, 0x66,
	0x72, 0x65, 0x65, 0x2d, 0x78, 0x6f, 0x72, 0x00,
}

// NewCipher returns the fixed-key AES-128 block cipher used by
// Encrypt/Decrypt. Returns CryptoError-shaped errors on init failure;
// with a 16-byte constant key this cannot fail in practice.
func NewCipher() (cipher.Block, error) {
	alg, err := aes.NewCipher(fixedKey[:])
	if err != nil {
		return nil, fmt.Errorf("label: AES init failed: %w", err)
	}
	return alg, nil
}

// SentinelMask covers the top 16 bits of D0. Every live label
// (Delta and all wire labels, both L0 and L1) is drawn with these bits
// forced to zero, which gives AND-table decryption a cheap correctness
// check without point-and-permute: the unique valid row is the one
// whose decrypted plaintext has this region zero.
const SentinelMask = uint64(0xffff000000000000)

// ClearSentinel forces l's sentinel bits to zero.
func (l *Label) ClearSentinel() {
	l.D0 &^= SentinelMask
}

// SentinelOK reports whether l's sentinel bits are zero, i.e. whether
// l could plausibly be a genuine wire label produced by this garbling
// session.
func (l Label) SentinelOK() bool {
	return l.D0&SentinelMask == 0
}

func k(a, b Label, gate uint64) Label {
	// a enters rotated left by one bit, so that the rows (0,0)/(1,1)
	// and (0,1)/(1,0), whose plain a XOR b coincide under Free-XOR,
	// get distinct keys.
	out := Label{D0: a.D0<<1 | a.D1>>63, D1: a.D1<<1 | a.D0>>63}
	out.Xor(b)
	out.Xor(NewTweak(gate))
	return out
}

// Encrypt computes the dual-key cipher row E(a, b, gate, m) = pi(K) XOR m
// XOR K, where K = rotl1(a) XOR b XOR tweak(gate) and pi is the fixed-key AES
// permutation. It is the single building block for every garbled-table
// row in the system (AND-gate tables).
func Encrypt(alg cipher.Block, a, b, m Label, gate uint64) Label {
	key := k(a, b, gate)

	var data Data
	key.GetData(&data)
	alg.Encrypt(data[:], data[:])

	var pi Label
	pi.SetData(&data)

	pi.Xor(key)
	pi.Xor(m)
	return pi
}

// Decrypt inverts Encrypt: given the same a, b, gate and a ciphertext
// row c, it recovers the plaintext m.
func Decrypt(alg cipher.Block, a, b Label, gate uint64, c Label) Label {
	key := k(a, b, gate)

	var data Data
	key.GetData(&data)
	alg.Encrypt(data[:], data[:])

	var pi Label
	pi.SetData(&data)

	c.Xor(pi)
	c.Xor(key)
	return c
}

// RowIndex returns the canonical 0..3 truth-table row index for input
// bits (aBit, bBit), used by the garbler when it writes AND-gate rows
// in (0,0),(0,1),(1,0),(1,1) order.
func RowIndex(aBit, bBit bool) int {
	idx := 0
	if aBit {
		idx |= 0x2
	}
	if bBit {
		idx |= 0x1
	}
	return idx
}
