package domain

import "go.trai.ch/zerr"

var (
	// ErrBuildStepFailed is returned when a build step exits with a nonzero status.
	ErrBuildStepFailed = zerr.New("build step failed")

	// ErrDependencyMissing is returned when a step's executable cannot be found in the plan's PATH.
	ErrDependencyMissing = zerr.New("required dependency is missing")

	// ErrPatchTargetMissing is returned when neither the patch target nor its replacement is present.
	ErrPatchTargetMissing = zerr.New("patch target not found")

	// ErrPatchReadFailed is returned when the file to patch cannot be read.
	ErrPatchReadFailed = zerr.New("failed to read file to patch")

	// ErrPatchWriteFailed is returned when the patched file cannot be written back.
	ErrPatchWriteFailed = zerr.New("failed to write patched file")

	// ErrMarkerWriteFailed is returned when a marker file cannot be created.
	ErrMarkerWriteFailed = zerr.New("failed to create marker file")

	// ErrStepTimeout is returned when an external process exceeds its wall-clock timeout.
	ErrStepTimeout = zerr.New("process timed out")

	// ErrProcessStartFailed is returned when an external process cannot be started.
	ErrProcessStartFailed = zerr.New("failed to start process")

	// ErrInstallFailed is returned when the install phase does not complete.
	ErrInstallFailed = zerr.New("install failed")

	// ErrAcceptanceFailed is returned when at least one acceptance case does not match.
	ErrAcceptanceFailed = zerr.New("acceptance tests failed")

	// ErrOutputMismatch is recorded on a case whose stdout or exit code differs from the expectation.
	ErrOutputMismatch = zerr.New("output mismatch")

	// ErrAnalyzerNotFound is returned when the installed analyzer binary does not exist.
	ErrAnalyzerNotFound = zerr.New("analyzer binary not found")

	// ErrFixtureWriteFailed is returned when a fixture cannot be materialized.
	ErrFixtureWriteFailed = zerr.New("failed to write fixture")

	// ErrFixtureNotFound is returned when embedded fixture data is missing.
	ErrFixtureNotFound = zerr.New("fixture data not found")

	// ErrPackageRootCreateFailed is returned when the isolated package-manager root cannot be created.
	ErrPackageRootCreateFailed = zerr.New("failed to create package manager root")

	// ErrReceiptReadFailed is returned when a stored receipt cannot be read.
	ErrReceiptReadFailed = zerr.New("failed to read install receipt")

	// ErrReceiptUnmarshalFailed is returned when a stored receipt is not valid JSON.
	ErrReceiptUnmarshalFailed = zerr.New("failed to unmarshal install receipt")

	// ErrReceiptMarshalFailed is returned when a receipt cannot be encoded.
	ErrReceiptMarshalFailed = zerr.New("failed to marshal install receipt")

	// ErrReceiptCreateFailed is returned when the receipt directory cannot be created.
	ErrReceiptCreateFailed = zerr.New("failed to create receipt directory")

	// ErrReceiptWriteFailed is returned when a receipt cannot be written.
	ErrReceiptWriteFailed = zerr.New("failed to write install receipt")

	// ErrConfigReadFailed is returned when the config file cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read config file")

	// ErrConfigParseFailed is returned when the config file cannot be parsed.
	ErrConfigParseFailed = zerr.New("failed to parse config file")

	// ErrInvalidTimeout is returned when a configured timeout is not a valid duration.
	ErrInvalidTimeout = zerr.New("invalid timeout, expected a duration such as '30m'")

	// ErrUnknownPlatform is returned when a platform name is not recognized.
	ErrUnknownPlatform = zerr.New("unknown platform, expected linux, macos or other")

	// ErrInvalidJobs is returned when the configured job count is negative.
	ErrInvalidJobs = zerr.New("jobs must not be negative")
)
