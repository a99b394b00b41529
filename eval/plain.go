//
// Copyright (c) 2024 Markku Rossi
//
// All rights reserved.

package eval

import (
	"fmt"
	"io"

	"github.com/markkurossi/circgc/circuit"
	"github.com/markkurossi/circgc/liveness"
)

// Plain evaluates r's gates directly on plaintext bits, with no
// cryptography at all. It exists so tests can check a garbled round
// trip against ground truth; it is not exposed as a CLI subcommand.
func Plain(r io.Reader, a liveness.Schedule, inputs map[circuit.Wire]bool) (map[circuit.Wire]bool, error) {
	p, err := circuit.NewParser(r)
	if err != nil {
		return nil, err
	}

	m := make(map[circuit.Wire]bool, len(a.Inputs()))
	for _, w := range a.Inputs() {
		b, ok := inputs[w]
		if !ok {
			return nil, fmt.Errorf("eval: no plaintext input given for wire %s", w)
		}
		m[w] = b
	}

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
			m[g.Output] = m[g.Input0] != m[g.Input1]
		case circuit.AND:
			m[g.Output] = m[g.Input0] && m[g.Input1]
		case circuit.INV:
			m[g.Output] = !m[g.Input0]
		default:
			return nil, fmt.Errorf(
				"eval: gate kind %s has no committed semantics", g.Op)
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

	out := make(map[circuit.Wire]bool, len(a.Outputs()))
	for _, w := range a.Outputs() {
		b, ok := m[w]
		if !ok {
			return nil, fmt.Errorf("eval: output wire %s never computed", w)
		}
		out[w] = b
	}
	return out, nil
}
