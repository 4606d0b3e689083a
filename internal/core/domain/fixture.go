package domain

// Language is a source language exercised by the acceptance suite.
type Language string

const (
	// LanguageC is compiled with clang.
	LanguageC Language = "c"
	// LanguageJava is compiled with javac.
	LanguageJava Language = "java"
)

// Fixture is a literal source file crafted to trigger, or avoid, one diagnostic.
type Fixture struct {
	Language Language
	Filename string
	Source   string
}

// ExpectedResult is the exact output an analyzer run must produce.
type ExpectedResult struct {
	// Stdout is compared verbatim, without trimming or normalization.
	Stdout string

	// ExitCode is the required process exit status.
	ExitCode int
}

// Case binds a fixture to the compiler invocation and the result it must yield.
type Case struct {
	// ID is unique within a suite (e.g., "c/fail").
	ID string

	Fixture Fixture

	// Compiler is the native compiler invocation the analyzer wraps, without the file.
	Compiler []string

	Expected ExpectedResult
}
