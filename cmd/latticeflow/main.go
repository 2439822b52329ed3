// Command latticeflow runs the whole-program analysis pipeline over a JSON
// program fixture and prints dead statements and taint flows it found. main
// delegates to a run() that returns an exit code, kept separate so tests can
// re-exec the binary in a subprocess and assert on os.Exit behavior without
// tearing down the test process itself.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/gookit/color"

	"github.com/latticeflow/latticeflow"
	"github.com/latticeflow/latticeflow/cmd/latticeflow/vflag"
	"github.com/latticeflow/latticeflow/config"
	"github.com/latticeflow/latticeflow/heapmodel"
)

const (
	exitSuccess = 0
	exitFailure = 1
)

var (
	flagInput       = flag.String("input", "", "path to a JSON program fixture")
	flagPTAMode     = vflag.New(string(config.Insensitive), string(config.Insensitive), string(config.KCFA), string(config.ObjectSensitive))
	flagKCFALimit   = flag.Int("kcfa-limit", 1, "call-string depth for -pta-mode=kcfa")
	flagObjSensDep  = flag.Int("objsens-depth", 1, "allocation-site chain depth for -pta-mode=objsens")
	flagTaintConfig = flag.String("taint-config", "", "path to a taint rule YAML file")
	flagColor       = flag.Bool("color", false, "colorize dead-code and taint-flow output")
	flagOutput      = flag.String("o", "", "write the report here instead of stdout")
)

func init() {
	flag.Var(flagPTAMode, "pta-mode", "pointer analysis mode: insensitive, kcfa, objsens")
}

func main() {
	os.Exit(run())
}

func run() int {
	flag.Parse()
	logger := log.New(os.Stderr, "latticeflow: ", 0)

	if *flagInput == "" {
		fmt.Fprintln(os.Stderr, "latticeflow: -input is required")
		return exitFailure
	}

	data, err := os.ReadFile(*flagInput)
	if err != nil {
		logger.Printf("read fixture: %v", err)
		return exitFailure
	}

	loaded, err := loadProgramFixture(data)
	if err != nil {
		logger.Printf("load fixture: %v", err)
		return exitFailure
	}

	opts := &config.AnalysisOptions{
		EntryPoints:            loaded.EntryPoints,
		Context:                config.ContextSensitivity(flagPTAMode.String()),
		KCFALimit:              *flagKCFALimit,
		ObjectSensitivityDepth: *flagObjSensDep,
		TaintConfigPath:        *flagTaintConfig,
	}

	p := latticeflow.NewProgram(loaded.Hierarchy, heapmodel.New(), loaded.Classes, opts, logger)
	if err := p.Analyze(context.Background()); err != nil {
		logger.Printf("analyze: %v", err)
		return exitFailure
	}

	report, err := p.Report()
	if err != nil {
		logger.Printf("report: %v", err)
		return exitFailure
	}

	out := io.Writer(os.Stdout)
	if *flagOutput != "" {
		f, err := os.Create(*flagOutput)
		if err != nil {
			logger.Printf("create output: %v", err)
			return exitFailure
		}
		defer f.Close()
		out = f
	}

	printReport(out, report, *flagColor)
	return exitSuccess
}

func printReport(w io.Writer, report *latticeflow.Report, useColor bool) {
	fmt.Fprintf(w, "reachable methods: %d\n", report.ReachableMethods)
	fmt.Fprintf(w, "call graph edges: %d\n", report.CallGraphEdges)

	for _, pm := range report.PerMethod {
		for _, s := range pm.DeadCode {
			line := fmt.Sprintf("dead: %s.%s stmt#%d", pm.Method.Declaring.Name, pm.Method.Name, s.Index())
			if useColor {
				fmt.Fprintln(w, color.Yellow.Sprint(line))
			} else {
				fmt.Fprintln(w, line)
			}
		}
	}

	for _, flow := range report.TaintFlows {
		line := fmt.Sprintf("taint: %s -> %s (arg %d)", flow.Source.String(), flow.Sink.String(), flow.SinkArgIndex)
		if useColor {
			fmt.Fprintln(w, color.Red.Sprint(line))
		} else {
			fmt.Fprintln(w, line)
		}
	}
}
