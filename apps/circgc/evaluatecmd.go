//
// Copyright (c) 2024 Markku Rossi
//
// All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/markkurossi/circgc/atomicio"
	"github.com/markkurossi/circgc/circuit"
	"github.com/markkurossi/circgc/eval"
	"github.com/markkurossi/circgc/garble"
	"github.com/markkurossi/circgc/liveness"
	"github.com/markkurossi/circgc/otsim"
)

func cmdEvaluate(args []string) error {
	fs := newFlagSet("evaluate",
		"evaluate <circuit> -w <wire_analysis> -t <ot.json> -g <garbled> -l <labels.json> [-o <eval.json>]")
	wirePath := fs.String("w", "", "wire-analysis artifact (required)")
	otPath := fs.String("t", "", "ot.json from ot-simulate (required)")
	garbledPath := fs.String("g", "", "garbled blob from garble (required)")
	labelsPath := fs.String("l", "", "labels.json from garble (required, for output decoding)")
	outPath := fs.String("o", "", "output eval.json path (default <circuit_stem>.eval.json)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 || *wirePath == "" || *otPath == "" || *garbledPath == "" || *labelsPath == "" {
		fs.Usage()
		os.Exit(2)
	}
	path := fs.Arg(0)
	out := *outPath
	if out == "" {
		out = defaultOut(path, ".eval.json")
	}

	timing := circuit.NewTiming()

	a, err := liveness.OpenMapped(*wirePath)
	if err != nil {
		return err
	}
	defer a.Close()

	var labels garble.LabelsFile
	if err := decodeJSONFile(*labelsPath, &labels); err != nil {
		return err
	}
	var ot otsim.File
	if err := decodeJSONFile(*otPath, &ot); err != nil {
		return err
	}

	circuitFile, err := os.Open(path)
	if err != nil {
		return err
	}
	defer circuitFile.Close()

	garbledFile, err := os.Open(*garbledPath)
	if err != nil {
		return err
	}
	defer garbledFile.Close()
	timing.Sample("Init", nil)

	result, err := eval.Evaluate(circuitFile, a, &labels, &ot, garbledFile)
	if err != nil {
		return err
	}
	timing.Sample("Evaluate", []string{
		fmt.Sprintf("%d outputs", len(result.Outputs)),
	})

	if err := atomicio.WriteJSON(out, result); err != nil {
		return err
	}
	timing.Sample("Write", nil)
	fmt.Printf("wrote %s (%d output wires)\n", out, len(result.Outputs))
	timing.Print(os.Stdout)
	return nil
}

func decodeJSONFile(path string, v interface{}) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := json.NewDecoder(f).Decode(v); err != nil {
		return fmt.Errorf("circgc: decoding %q: %w", path, err)
	}
	return nil
}
