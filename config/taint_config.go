package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"go.yaml.in/yaml/v3"

	"github.com/latticeflow/latticeflow/ir"
	"github.com/latticeflow/latticeflow/taint"
)

// ClassResolver looks up a declared class by the fully-qualified name a
// rule file names it with. Rule files are plain text; the taint package's
// rule vocabulary is keyed on *ir.JClass pointer identity, so loading a
// rule file always requires a bridge back into whichever class hierarchy
// the program under analysis actually built.
type ClassResolver func(name string) (*ir.JClass, bool)

var taintConfigJSONSchema = mustCompileTaintSchema()

func mustCompileTaintSchema() *jsonschema.Schema {
	c := jsonschema.NewCompiler()
	if err := c.AddResource("taint-config.json", strings.NewReader(taintConfigSchema)); err != nil {
		panic(err)
	}
	sch, err := c.Compile("taint-config.json")
	if err != nil {
		panic(err)
	}
	return sch
}

type rawPosition struct {
	Kind  string `yaml:"kind"`
	Index int    `yaml:"index"`
}

func (p rawPosition) resolve() (taint.Position, error) {
	switch p.Kind {
	case "base":
		return taint.Position{Kind: taint.Base}, nil
	case "arg":
		return taint.ArgPos(p.Index), nil
	case "result":
		return taint.Position{Kind: taint.Result}, nil
	default:
		return taint.Position{}, fmt.Errorf("unknown position kind %q", p.Kind)
	}
}

type rawSource struct {
	Class      string `yaml:"class"`
	Method     string `yaml:"method"`
	ResultType string `yaml:"resultType"`
}

type rawTransfer struct {
	Class      string      `yaml:"class"`
	Method     string      `yaml:"method"`
	From       rawPosition `yaml:"from"`
	To         rawPosition `yaml:"to"`
	OutputType string      `yaml:"outputType"`
}

type rawSink struct {
	Class    string `yaml:"class"`
	Method   string `yaml:"method"`
	ArgIndex int    `yaml:"argIndex"`
}

type rawTaintConfig struct {
	Sources   []rawSource   `yaml:"sources"`
	Transfers []rawTransfer `yaml:"transfers"`
	Sinks     []rawSink     `yaml:"sinks"`
}

// LoadTaintConfig reads, schema-validates, and resolves a taint rule file
// into a taint.Config. resolve maps each rule's class name onto the
// *ir.JClass the analyzed program actually declared; a rule whose class or
// position cannot be resolved is dropped.
func LoadTaintConfig(path string, resolve ClassResolver) (*taint.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read taint config %q: %w", path, err)
	}
	if err := validateTaintConfig(data); err != nil {
		return nil, fmt.Errorf("taint config %q: %w", path, err)
	}

	var raw rawTaintConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse taint config %q: %w", path, err)
	}
	return raw.resolve(resolve), nil
}

// validateTaintConfig round-trips the YAML document through JSON so the
// values reaching the schema validator are JSON-canonical (float64 numbers,
// map[string]any objects), matching what encoding/json itself would decode
// — jsonschema/v6 is built against that shape.
func validateTaintConfig(data []byte) error {
	var yamlDoc any
	if err := yaml.Unmarshal(data, &yamlDoc); err != nil {
		return fmt.Errorf("parse: %w", err)
	}
	jsonBytes, err := json.Marshal(yamlDoc)
	if err != nil {
		return fmt.Errorf("normalize: %w", err)
	}
	var jsonDoc any
	if err := json.Unmarshal(jsonBytes, &jsonDoc); err != nil {
		return fmt.Errorf("normalize: %w", err)
	}
	if err := taintConfigJSONSchema.Validate(jsonDoc); err != nil {
		return fmt.Errorf("does not match schema: %w", err)
	}
	return nil
}

func (r *rawTaintConfig) resolve(resolve ClassResolver) *taint.Config {
	cfg := &taint.Config{}

	for _, s := range r.Sources {
		class, ok := resolve(s.Class)
		if !ok {
			continue
		}
		cfg.Sources = append(cfg.Sources, taint.Source{
			Declaring:  class,
			Sub:        ir.Subsignature(s.Method),
			ResultType: taint.TypeTag(s.ResultType),
		})
	}

	for _, t := range r.Transfers {
		class, ok := resolve(t.Class)
		if !ok {
			continue
		}
		from, ferr := t.From.resolve()
		to, terr := t.To.resolve()
		if ferr != nil || terr != nil {
			continue
		}
		cfg.Transfers = append(cfg.Transfers, taint.Transfer{
			Declaring:  class,
			Sub:        ir.Subsignature(t.Method),
			From:       from,
			To:         to,
			OutputType: taint.TypeTag(t.OutputType),
		})
	}

	for _, s := range r.Sinks {
		class, ok := resolve(s.Class)
		if !ok {
			continue
		}
		cfg.Sinks = append(cfg.Sinks, taint.Sink{
			Declaring: class,
			Sub:       ir.Subsignature(s.Method),
			ArgIndex:  s.ArgIndex,
		})
	}

	return cfg
}
