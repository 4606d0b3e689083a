package domain

import "strings"

// Patch is a guarded textual substitution applied to one build script.
type Patch struct {
	// File is the path of the script, relative to the step's working directory.
	File string

	// Old is the text to replace.
	Old string

	// New is the replacement. A file that already contains New is left untouched.
	New string

	// Scope restricts the patch to a platform family.
	Scope Scope
}

// Apply returns content with the patch applied and whether anything changed.
// Content that already carries the replacement is returned unchanged, so
// applying a patch twice yields the same text as applying it once.
func (p Patch) Apply(content string) (string, bool, error) {
	if strings.Contains(content, p.New) {
		return content, false, nil
	}
	if !strings.Contains(content, p.Old) {
		return content, false, ErrPatchTargetMissing
	}
	return strings.ReplaceAll(content, p.Old, p.New), true, nil
}

// BuildStep is one ordered action that moves the source tree towards an install.
type BuildStep struct {
	// Name identifies the step in logs and errors.
	Name string

	// Command is the executable to run. Empty for marker steps.
	Command string

	// Args are passed to Command.
	Args []string

	// Dir is the working directory. Empty means the pipeline's source directory.
	Dir string

	// Marker, when set, names a file whose creation is the whole step.
	Marker string

	// Patch is applied before the step runs, if its scope matches the platform.
	Patch *Patch
}

// IsMarker reports whether the step only creates a marker file.
func (s BuildStep) IsMarker() bool {
	return s.Marker != "" && s.Command == ""
}

// CommandLine renders the step's invocation for logs.
func (s BuildStep) CommandLine() string {
	if s.IsMarker() {
		return "touch " + s.Marker
	}
	return strings.Join(append([]string{s.Command}, s.Args...), " ")
}
