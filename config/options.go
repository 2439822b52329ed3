// Package config loads the two YAML-configured external interfaces —
// AnalysisOptions and TaintConfig — validating the taint rule file's shape
// against a JSON Schema before decoding it.
package config

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"
)

// ContextSensitivity selects which pta/cs context selector Program wires up.
type ContextSensitivity string

const (
	Insensitive       ContextSensitivity = "insensitive"
	KCFA              ContextSensitivity = "kcfa"
	ObjectSensitive    ContextSensitivity = "objsens"
)

// AnalysisOptions is AnalysisOptions: "at minimum, the name of a
// previously computed pointer-analysis result and the taint-config path."
// The remaining fields are this engine's concrete knobs for entry points and
// context selection, supplementing that minimum the way a real driver needs
// to.
type AnalysisOptions struct {
	// PointerAnalysisResult names a result previously persisted by the
	// store package. Program does not read it: every Analyze runs the
	// pointer analysis afresh, whatever this field holds.
	PointerAnalysisResult string `yaml:"pointerAnalysisResult"`
	// TaintConfigPath points at a TaintConfig rule file; empty disables
	// the taint overlay entirely.
	TaintConfigPath string `yaml:"taintConfigPath"`
	// EntryPoints lists "ClassName.subsignature" strings naming the
	// program's roots for call-graph construction.
	EntryPoints []string `yaml:"entryPoints"`
	// Context selects the pta/cs context sensitivity policy.
	Context ContextSensitivity `yaml:"context"`
	// KCFALimit is the call-string depth when Context == KCFA.
	KCFALimit int `yaml:"kcfaLimit"`
	// ObjectSensitivityDepth is the allocation-site chain depth when
	// Context == ObjectSensitive.
	ObjectSensitivityDepth int `yaml:"objectSensitivityDepth"`
}

// LoadAnalysisOptions reads and parses an AnalysisOptions file.
func LoadAnalysisOptions(path string) (*AnalysisOptions, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read analysis options %q: %w", path, err)
	}
	var opts AnalysisOptions
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return nil, fmt.Errorf("parse analysis options %q: %w", path, err)
	}
	return &opts, nil
}
