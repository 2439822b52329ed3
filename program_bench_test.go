package latticeflow

import (
	"context"
	"testing"

	"github.com/latticeflow/latticeflow/config"
	"github.com/latticeflow/latticeflow/heapmodel"
	"github.com/latticeflow/latticeflow/testutils"
)

// BenchmarkAnalyzeFanout_Insensitive builds the corpus once outside the
// timed loop, then re-runs a full Analyze+Report b.N times.
func BenchmarkAnalyzeFanout_Insensitive(b *testing.B) {
	synth := testutils.GenerateFanoutProgram(180)
	opts := &config.AnalysisOptions{
		EntryPoints: []string{"Main."},
		Context:     config.Insensitive,
	}

	b.ResetTimer()
	for range b.N {
		p := NewProgram(synth.Hierarchy, heapmodel.New(), synth.Classes, opts, testLogger())
		if err := p.Analyze(context.Background()); err != nil {
			b.Fatalf("Analyze: %v", err)
		}
		if _, err := p.Report(); err != nil {
			b.Fatalf("Report: %v", err)
		}
	}
}

// BenchmarkAnalyzeFanout_ContextSensitive runs a smaller corpus from the same
// generator (60 workers instead of 180) through the 1-CFA context-sensitive
// pointer analysis, which the insensitive benchmark
// above does not exercise at all.
func BenchmarkAnalyzeFanout_ContextSensitive(b *testing.B) {
	synth := testutils.GenerateFanoutProgram(60)
	opts := &config.AnalysisOptions{
		EntryPoints: []string{"Main."},
		Context:     config.KCFA,
		KCFALimit:   1,
	}

	b.ResetTimer()
	for range b.N {
		p := NewProgram(synth.Hierarchy, heapmodel.New(), synth.Classes, opts, testLogger())
		if err := p.Analyze(context.Background()); err != nil {
			b.Fatalf("Analyze: %v", err)
		}
		if _, err := p.Report(); err != nil {
			b.Fatalf("Report: %v", err)
		}
	}
}
