//
// Copyright (c) 2024 Markku Rossi
//
// All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/markkurossi/circgc/liveness"
)

func cmdWireAnalysis(args []string) error {
	fs := newFlagSet("wire-analysis", "wire-analysis <circuit> [-o <out>]")
	out := fs.String("o", "", "output path (default <circuit_stem>.wire_analysis)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		os.Exit(2)
	}
	path := fs.Arg(0)
	outPath := *out
	if outPath == "" {
		outPath = defaultOut(path, ".wire_analysis")
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	a, err := liveness.Analyze(f)
	if err != nil {
		return err
	}
	if len(a.DeadWires) > 0 {
		fmt.Fprintf(os.Stderr,
			"circgc: warning: %d unused input wire(s)\n", len(a.DeadWires))
	}

	return a.Write(outPath)
}
