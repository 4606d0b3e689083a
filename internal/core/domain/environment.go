package domain

import (
	"maps"
	"os"
	"slices"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// scrubbedVariables never reach a plan. TZ=UTC0 crashes the analyzer with "unknown zone".
var scrubbedVariables = []string{"TZ"}

// IsScrubbed reports whether key is removed from every EnvironmentPlan.
func IsScrubbed(key string) bool {
	return slices.Contains(scrubbedVariables, key)
}

// EnvironmentPlan is the immutable set of variables every build and test
// process runs under. Derived plans are new values; the receiver never changes.
type EnvironmentPlan struct {
	vars map[string]string
}

// NewEnvironmentPlan copies vars into a plan, dropping scrubbed variables.
func NewEnvironmentPlan(vars map[string]string) EnvironmentPlan {
	clean := make(map[string]string, len(vars))
	for k, v := range vars {
		if IsScrubbed(k) {
			continue
		}
		clean[k] = v
	}
	return EnvironmentPlan{vars: clean}
}

// Get returns the value bound to key.
func (p EnvironmentPlan) Get(key string) (string, bool) {
	v, ok := p.vars[key]
	return v, ok
}

// Len returns the number of bound variables.
func (p EnvironmentPlan) Len() int {
	return len(p.vars)
}

// Keys returns the bound variable names in sorted order.
func (p EnvironmentPlan) Keys() []string {
	return slices.Sorted(maps.Keys(p.vars))
}

// Environ returns the plan as sorted "KEY=VALUE" strings suitable for exec.Cmd.Env.
func (p EnvironmentPlan) Environ() []string {
	keys := p.Keys()
	env := make([]string, 0, len(keys))
	for _, k := range keys {
		env = append(env, k+"="+p.vars[k])
	}
	return env
}

// With returns a new plan with overrides applied on top of the receiver.
func (p EnvironmentPlan) With(overrides map[string]string) EnvironmentPlan {
	merged := maps.Clone(p.vars)
	if merged == nil {
		merged = make(map[string]string, len(overrides))
	}
	maps.Copy(merged, overrides)
	return NewEnvironmentPlan(merged)
}

// WithPathAppended returns a new plan whose PATH ends with dir.
func (p EnvironmentPlan) WithPathAppended(dir string) EnvironmentPlan {
	path, ok := p.vars["PATH"]
	if !ok || path == "" {
		return p.With(map[string]string{"PATH": dir})
	}
	return p.With(map[string]string{"PATH": path + string(os.PathListSeparator) + dir})
}

// Digest returns a stable fingerprint of the plan's contents.
func (p EnvironmentPlan) Digest() string {
	d := xxhash.New()
	for _, kv := range p.Environ() {
		_, _ = d.WriteString(kv)
		_, _ = d.WriteString("\x00")
	}
	return strconv.FormatUint(d.Sum64(), 16)
}
