// Package vflag provides a flag.Value that only accepts one of a fixed set
// of allowed string values, for CLI flags like -pta-mode whose
// legal values are a closed enum rather than free-form text.
package vflag

import "fmt"

// ValidatedFlag binds a string flag to a closed set of allowed values. The
// zero value is valid and unrestricted (Allowed empty accepts anything),
// matching flag.Value's requirement that a flag's default be constructible
// without a separate initializer.
type ValidatedFlag struct {
	Value   string
	Allowed []string
}

// New returns a ValidatedFlag defaulting to def and restricted to allowed.
func New(def string, allowed ...string) *ValidatedFlag {
	return &ValidatedFlag{Value: def, Allowed: allowed}
}

func (f *ValidatedFlag) String() string {
	if f == nil {
		return ""
	}
	return f.Value
}

func (f *ValidatedFlag) Set(v string) error {
	if len(f.Allowed) > 0 && !f.isAllowed(v) {
		return fmt.Errorf("invalid value %q, must be one of %v", v, f.Allowed)
	}
	f.Value = v
	return nil
}

func (f *ValidatedFlag) isAllowed(v string) bool {
	for _, a := range f.Allowed {
		if a == v {
			return true
		}
	}
	return false
}
