// Copyright The bincheck Authors. All Rights Reserved.

// bincheck: static analysis of lifted binaries for security weaknesses.
// -config  yaml configuration selecting domains and extraction targets.
// -project path to the lifted IR of the binary, as produced by the frontend.

package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/bincheck/bincheck/analysis"
	"github.com/bincheck/bincheck/analysis/cfg"
	"github.com/bincheck/bincheck/analysis/config"
	"github.com/bincheck/bincheck/analysis/ir"
	"github.com/bincheck/bincheck/analysis/strings"
	"github.com/bincheck/bincheck/internal/formatutil"
	"github.com/davecgh/go-spew/spew"
)

var (
	configPath  = flag.String("config", "", "Config file path for the analysis")
	projectPath = flag.String("project", "", "Path to the lifted IR of the binary")
)

const usage = ` Analyze a lifted binary for security weaknesses.
Usage:
    bincheck -config config.yaml -project project.json
`

func main() {
	flag.Parse()

	if *projectPath == "" {
		_, _ = fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
		os.Exit(2)
	}

	cfgFile := config.NewDefault()
	if *configPath != "" {
		var err error
		cfgFile, err = config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "could not load config %s: %v\n", *configPath, err)
			os.Exit(1)
		}
	}
	logger := config.NewLogGroup(cfgFile)
	logger.Debugf("configuration:\n%s", spew.Sdump(cfgFile))

	logger.Infof(formatutil.Faint("Reading lifted IR"))
	project, memory, err := ir.LoadProject(*projectPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not load project: %v\n", err)
		os.Exit(1)
	}

	state, err := analysis.NewState(cfgFile, logger, project, memory)
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not build analysis state: %v\n", err)
		os.Exit(1)
	}
	logGraphStats(logger, state)

	registry := analysis.NewRegistry()
	if err := registry.Register(strings.Module()); err != nil {
		fmt.Fprintf(os.Stderr, "could not register modules: %v\n", err)
		os.Exit(1)
	}

	start := time.Now()
	warnings := registry.RunAll(state)
	logger.Infof("Analysis took %3.4f s", time.Since(start).Seconds())

	for _, w := range warnings {
		fmt.Printf("%s %s\n", formatutil.Red("WARNING:"), formatutil.Sanitize(w.String()))
	}
	if len(warnings) == 0 {
		logger.Infof(formatutil.Green("No warnings"))
	}
}

// logGraphStats reports the size of the control-flow graph, how much of it
// is reachable from the program entry points and how many nodes sit on
// cycles, as a quick sanity check of the lifted input.
func logGraphStats(logger *config.LogGroup, state *analysis.State) {
	graph := state.Graph
	program := &state.Project.Program.Term

	reached := map[int64]bool{}
	for _, entry := range program.EntryPoints {
		sub := program.FindSub(entry)
		if sub == nil || len(sub.Term.Blocks) == 0 {
			logger.Warnf("entry point %s has no code", entry)
			continue
		}
		start := graph.BlockStart(sub.Term.Blocks[0].Tid)
		if start == nil {
			continue
		}
		for _, n := range cfg.Reachable(graph, start) {
			reached[n.ID()] = true
		}
	}
	logger.Infof("CFG: %d nodes, %d reachable from entry, %d on loops",
		len(graph.NodeList()), len(reached), len(cfg.LoopNodes(graph)))
}
