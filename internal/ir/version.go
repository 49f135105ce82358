package ir

// Version constants recorded with every stored build.
const (
	// IRVersion is the version of the text form and fingerprint inputs.
	IRVersion = "1"

	// CompilerVersion is the eir compiler version.
	CompilerVersion = "0.1.0"
)
