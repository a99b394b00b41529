//
// Copyright (c) 2024 Markku Rossi
//
// All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/markkurossi/circgc/atomicio"
	"github.com/markkurossi/circgc/garble"
	"github.com/markkurossi/circgc/otsim"
	"github.com/markkurossi/circgc/prng"
)

func cmdOTSimulate(args []string) error {
	fs := newFlagSet("ot-simulate",
		"ot-simulate -w <labels.json> -s <seed2> -o <ot.json>")
	labelsPath := fs.String("w", "", "labels.json from garble (required)")
	seedPath := fs.String("s", "", "32-byte seed file (required)")
	outPath := fs.String("o", "", "output ot.json path (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *labelsPath == "" || *seedPath == "" || *outPath == "" {
		fs.Usage()
		os.Exit(2)
	}

	var labels garble.LabelsFile
	if err := decodeJSONFile(*labelsPath, &labels); err != nil {
		return err
	}

	seed, err := prng.LoadSeed(*seedPath)
	if err != nil {
		return err
	}

	ot, err := otsim.Simulate(&labels, seed)
	if err != nil {
		return err
	}

	if err := atomicio.WriteJSON(*outPath, ot); err != nil {
		return err
	}
	fmt.Printf("wrote %s (%d input selections)\n", *outPath, len(ot.Selections))
	return nil
}
