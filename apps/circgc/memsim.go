//
// Copyright (c) 2024 Markku Rossi
//
// All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/markkurossi/circgc/atomicio"
	"github.com/markkurossi/circgc/liveness"
)

func cmdMemorySimulation(args []string) error {
	fs := newFlagSet("memory-simulation",
		"memory-simulation <circuit> -w <wire_analysis> -o <csv>")
	wirePath := fs.String("w", "", "wire-analysis artifact (required)")
	csvPath := fs.String("o", "", "output CSV path (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 || *wirePath == "" || *csvPath == "" {
		fs.Usage()
		os.Exit(2)
	}
	path := fs.Arg(0)

	a, err := liveness.OpenMapped(*wirePath)
	if err != nil {
		return err
	}
	defer a.Close()

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	var peak int64
	err = atomicio.WriteFile(*csvPath, func(out *os.File) error {
		var simErr error
		peak, simErr = liveness.Simulate(f, a, out)
		return simErr
	})
	if err != nil {
		return err
	}

	if err := liveness.SetPeakResidency(*wirePath, peak); err != nil {
		return fmt.Errorf("circgc: writing peak residency back to %q: %w",
			*wirePath, err)
	}
	fmt.Printf("peak residency: %d wires\n", peak)
	return nil
}
