//
// Copyright (c) 2024 Markku Rossi
//
// All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/markkurossi/tabulate"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/markkurossi/circgc/circuit"
	"github.com/markkurossi/circgc/liveness"
)

func cmdCount(args []string) error {
	fs := newFlagSet("count", "count <circuit>")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		os.Exit(2)
	}
	path := fs.Arg(0)

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	a, err := liveness.Analyze(f)
	if err != nil {
		return err
	}

	// Gate and wire counts run into the billions for the target
	// circuits; print them with thousands separators.
	p := message.NewPrinter(language.English)

	tab := tabulate.New(tabulate.Github)
	tab.Header("File")
	tab.Header("XOR").SetAlign(tabulate.MR)
	tab.Header("AND").SetAlign(tabulate.MR)
	tab.Header("INV").SetAlign(tabulate.MR)
	tab.Header("EQ").SetAlign(tabulate.MR)
	tab.Header("EQW").SetAlign(tabulate.MR)
	tab.Header("Gates").SetAlign(tabulate.MR)
	tab.Header("Wires").SetAlign(tabulate.MR)
	tab.Header("In").SetAlign(tabulate.MR)
	tab.Header("Out").SetAlign(tabulate.MR)

	row := tab.Row()
	row.Column(path)
	row.Column(p.Sprintf("%d", a.Stats[circuit.XOR]))
	row.Column(p.Sprintf("%d", a.Stats[circuit.AND]))
	row.Column(p.Sprintf("%d", a.Stats[circuit.INV]))
	row.Column(p.Sprintf("%d", a.Stats[circuit.EQ]))
	row.Column(p.Sprintf("%d", a.Stats[circuit.EQW]))
	row.Column(p.Sprintf("%d", a.NumGates))
	row.Column(p.Sprintf("%d", a.NumWires))
	row.Column(p.Sprintf("%d", len(a.PrimaryInputs)))
	row.Column(p.Sprintf("%d", len(a.PrimaryOutputs)))

	tab.Print(os.Stdout)

	if len(a.DeadWires) > 0 {
		fmt.Fprintf(os.Stderr,
			"circgc: warning: %d unused input wire(s), e.g. %s\n",
			len(a.DeadWires), a.DeadWires[0])
	}
	return nil
}
