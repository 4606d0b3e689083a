package domain

// Phase describes when a dependency is needed.
type Phase string

const (
	// PhaseBuild is needed only while building.
	PhaseBuild Phase = "build"
	// PhaseBuildAndTest is needed while building and while running acceptance tests.
	PhaseBuildAndTest Phase = "build-and-test"
	// PhaseRuntime is needed by the installed analyzer.
	PhaseRuntime Phase = "runtime"
)

// Phases lists every phase in presentation order.
func Phases() []Phase {
	return []Phase{PhaseBuild, PhaseBuildAndTest, PhaseRuntime}
}

// NeededForBuild reports whether the phase requires the dependency during the build.
func (p Phase) NeededForBuild() bool {
	return p == PhaseBuild || p == PhaseBuildAndTest
}

// DependencySpec declares a single build or runtime dependency.
type DependencySpec struct {
	// Name is the package name, optionally pinned (e.g., "openjdk@11").
	Name string

	// Phase is when the dependency is required.
	Phase Phase

	// Scope restricts the dependency to a platform family.
	Scope Scope
}
