//
// Copyright (c) 2024 Markku Rossi
//
// All rights reserved.

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/markkurossi/circgc/atomicio"
	"github.com/markkurossi/circgc/circuit"
	"github.com/markkurossi/circgc/garble"
	"github.com/markkurossi/circgc/liveness"
	"github.com/markkurossi/circgc/prng"
)

func cmdGarble(args []string) error {
	fs := newFlagSet("garble",
		"garble <circuit> -w <wire_analysis> -s <seed> [-o <dir>]")
	wirePath := fs.String("w", "", "wire-analysis artifact (required)")
	seedPath := fs.String("s", "", "32-byte seed file (required)")
	outDir := fs.String("o", ".", "output directory for labels.json and garbled")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 || *wirePath == "" || *seedPath == "" {
		fs.Usage()
		os.Exit(2)
	}
	path := fs.Arg(0)

	timing := circuit.NewTiming()

	// Memory-map the wire-analysis artifact: its record table can run
	// to gigabytes, and the garbler only ever probes it wire by wire.
	a, err := liveness.OpenMapped(*wirePath)
	if err != nil {
		return err
	}
	defer a.Close()
	seed, err := prng.LoadSeed(*seedPath)
	if err != nil {
		return err
	}
	timing.Sample("Init", nil)

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	labelsPath := filepath.Join(*outDir, "labels.json")
	garbledPath := filepath.Join(*outDir, "garbled")

	var labels *garble.LabelsFile
	err = atomicio.WriteFile(garbledPath, func(garbledOut *os.File) error {
		return atomicio.WriteFile(labelsPath, func(labelsOut *os.File) error {
			var gErr error
			labels, gErr = garble.Garble(f, a, seed, labelsOut, garbledOut, garble.Options{})
			return gErr
		})
	})
	if err != nil {
		return err
	}
	timing.Sample("Garble", []string{
		fmt.Sprintf("%d AND gates", a.GateStats()[circuit.AND]),
	})

	fmt.Printf("wrote %s (%d input wires)\n", labelsPath, len(labels.Inputs))
	fmt.Printf("wrote %s (%d AND gates)\n", garbledPath, a.GateStats()[circuit.AND])
	timing.Print(os.Stdout)
	return nil
}
