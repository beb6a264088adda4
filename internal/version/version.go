package version

// Version is the magicbytes release, overridden at build time with
// -ldflags "-X github.com/petrarca/magicbytes/internal/version.Version=..."
var Version = "dev"

const (
	// FormatVersion is the version of the identify output structure.
	// Bump it on breaking changes to the JSON/YAML result layout.
	FormatVersion = "0.1"
)
