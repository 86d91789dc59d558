package version

// Version is the current version of the argo-contraction engine.
// This value is set at build time using ldflags:
// -ldflags "-X github.com/rxtech-lab/argo-contraction/internal/version.Version=1.2.3"
// The default value "main" indicates a development build.
var Version = "main"

// SignalSchemaVersion is the version of the SignalEvent output schema written by
// the journal. Bump the minor version for additive changes and the major version
// for anything a downstream consumer would have to adapt to.
const SignalSchemaVersion = "1.0.0"

// GetVersion returns the current version of the engine.
func GetVersion() string {
	return Version
}
