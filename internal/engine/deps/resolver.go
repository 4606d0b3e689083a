// Package deps narrows the declared dependency list to the running platform.
package deps

import "go.trai.ch/kiln/internal/core/domain"

// Resolve returns the specs that apply under strategy, in declaration order.
// Duplicate names keep their first applicable occurrence.
func Resolve(specs []domain.DependencySpec, strategy domain.Strategy) []domain.DependencySpec {
	seen := make(map[string]struct{}, len(specs))
	out := make([]domain.DependencySpec, 0, len(specs))

	for _, spec := range specs {
		if !strategy.Matches(spec.Scope) {
			continue
		}
		if _, dup := seen[spec.Name]; dup {
			continue
		}
		seen[spec.Name] = struct{}{}
		out = append(out, spec)
	}
	return out
}

// ByPhase returns the specs declared for phase, in order.
func ByPhase(specs []domain.DependencySpec, phase domain.Phase) []domain.DependencySpec {
	var out []domain.DependencySpec
	for _, spec := range specs {
		if spec.Phase == phase {
			out = append(out, spec)
		}
	}
	return out
}

// BuildTools returns the specs whose binaries must be on PATH during the build.
func BuildTools(specs []domain.DependencySpec) []domain.DependencySpec {
	var out []domain.DependencySpec
	for _, spec := range specs {
		if spec.Phase.NeededForBuild() {
			out = append(out, spec)
		}
	}
	return out
}

// Names returns the names of specs, in order.
func Names(specs []domain.DependencySpec) []string {
	names := make([]string, len(specs))
	for i, spec := range specs {
		names[i] = spec.Name
	}
	return names
}
