package domain

const (
	// ConfigFileName is the name of the optional configuration file.
	ConfigFileName = "kiln.yaml"

	// ReleaseMarker is the marker file that switches the analyzer build into release mode.
	ReleaseMarker = ".release"

	// BuildScript is the analyzer's own build driver.
	BuildScript = "build-infer.sh"

	// AnalyzerBinary is the name of the installed analyzer executable.
	AnalyzerBinary = "infer"

	// WorkDirName is the directory under the source checkout that holds
	// per-run state such as package manager roots and materialized fixtures.
	WorkDirName = ".kiln"

	// ReceiptsDirName is the directory under the work directory holding install receipts.
	ReceiptsDirName = "receipts"

	// DefaultPrefix is the install prefix used when none is configured.
	DefaultPrefix = "/usr/local"

	// DirPerm is the default permission for directories (rwxr-x---).
	DirPerm = 0o750

	// FilePerm is the default permission for files (rw-r--r--).
	FilePerm = 0o644

	// PrivateFilePerm is the default permission for private files (rw-------).
	PrivateFilePerm = 0o600
)
