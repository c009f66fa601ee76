package main

import (
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/coronado2/ee533-gpu/src/isa"
	"github.com/coronado2/ee533-gpu/src/misc"
	"github.com/coronado2/ee533-gpu/src/simulator"
)

func main() {
	program := flag.String("program", "", "program to run (.asm source or .mem image)")
	configPath := flag.String("config", "", "optional YAML configuration file")
	listing := flag.String("listing", "", "write a disassembly listing of the loaded program")
	trace := flag.Bool("trace", false, "enable per-cycle core tracing")
	maxCycles := flag.Int("max-cycles", 0, "override the configured cycle bound")
	dumpRegs := flag.Bool("dump-regs", false, "dump the register file after the run")
	flag.Parse()

	if *program == "" {
		fmt.Fprintln(os.Stderr, "usage: ee533-gpu --program <file.asm|file.mem> [flags]")
		flag.PrintDefaults()
		os.Exit(2)
	}

	config, err := misc.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if *maxCycles > 0 {
		config.MaxCycles = *maxCycles
	}
	if *trace {
		config.Trace = true
	}
	if err := config.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if config.Trace {
		misc.EnableTrace()
	}

	words, err := simulator.LoadProgramWords(*program)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load: %v\n", err)
		os.Exit(1)
	}
	if *listing != "" {
		if err := isa.WriteListing(words, *listing); err != nil {
			fmt.Fprintf(os.Stderr, "listing: %v\n", err)
			os.Exit(1)
		}
	}

	sim := simulator.NewSimulator(config)
	if err := sim.Platform().LoadProgram(words); err != nil {
		fmt.Fprintf(os.Stderr, "load: %v\n", err)
		os.Exit(1)
	}
	if err := sim.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "run: %v\n", err)
		os.Exit(1)
	}
	if *dumpRegs {
		sim.Platform().DumpRegs()
	} else {
		sim.Fini()
	}
}
