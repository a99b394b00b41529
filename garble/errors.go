//
// Copyright (c) 2024 Markku Rossi
//
// All rights reserved.

package garble

import (
	"fmt"

	"github.com/markkurossi/circgc/circuit"
)

// StructuralError reports a gate whose kind has no committed
// garble-time semantics (EQ, EQW), or a gate referencing a wire that
// is not resident in the live map. The latter would mean a topology
// bug escaped the parser and is always fatal.
type StructuralError struct {
	Gate int
	Wire circuit.Wire
	Msg  string
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("garble: structural error at gate %d, wire %s: %s",
		e.Gate, e.Wire, e.Msg)
}

func missingWire(gate int, w circuit.Wire) error {
	return &StructuralError{
		Gate: gate,
		Wire: w,
		Msg:  "wire not resident in live label map",
	}
}

func unsupportedOp(gate int, op circuit.Operation) error {
	return &StructuralError{
		Gate: gate,
		Msg:  fmt.Sprintf("gate kind %s has no committed garble-time semantics", op),
	}
}
