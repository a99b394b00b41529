//
// main.go
//
// Copyright (c) 2024 Markku Rossi
//
// All rights reserved.
//

// Command circgc is the batch CLI surface for the garbled-circuit
// toolkit: it streams modified-Bristol-Fashion circuits through the
// wire-liveness analyzer, the memory simulator, the garbler, the OT
// simulator, and the evaluator.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
)

type subcommand struct {
	usage string
	run   func(args []string) error
}

var subcommands = map[string]subcommand{
	"count":             {"count <circuit>", cmdCount},
	"wire-analysis":     {"wire-analysis <circuit> [-o <out>]", cmdWireAnalysis},
	"memory-simulation": {"memory-simulation <circuit> -w <wire_analysis> -o <csv>", cmdMemorySimulation},
	"garble":            {"garble <circuit> -w <wire_analysis> -s <seed> [-o <dir>]", cmdGarble},
	"ot-simulate":       {"ot-simulate -w <labels.json> -s <seed2> -o <ot.json>", cmdOTSimulate},
	"evaluate":          {"evaluate <circuit> -w <wire_analysis> -t <ot.json> -g <garbled> -l <labels.json> [-o <eval.json>]", cmdEvaluate},
}

func main() {
	log.SetFlags(0)
	log.SetPrefix("circgc: ")

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	cmd, ok := subcommands[os.Args[1]]
	if !ok {
		fmt.Fprintf(os.Stderr, "circgc: unknown subcommand %q\n", os.Args[1])
		usage()
		os.Exit(2)
	}
	if err := cmd.run(os.Args[2:]); err != nil {
		log.Fatal(err)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: circgc <subcommand> [flags] ...")
	fmt.Fprintln(os.Stderr, "subcommands:")
	for _, name := range []string{
		"count", "wire-analysis", "memory-simulation",
		"garble", "ot-simulate", "evaluate",
	} {
		fmt.Fprintf(os.Stderr, "  %s\n", subcommands[name].usage)
	}
}

// newFlagSet builds a flag.FlagSet whose usage line names the
// subcommand.
func newFlagSet(name, usage string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: circgc %s\n", usage)
		fs.PrintDefaults()
	}
	return fs
}

func defaultOut(circuitPath, ext string) string {
	base := circuitPath
	for i := len(base) - 1; i >= 0; i-- {
		if base[i] == '.' {
			base = base[:i]
			break
		}
		if base[i] == '/' {
			break
		}
	}
	return base + ext
}
