package version

// Set at build time via
// -ldflags "-X github.com/Layr-Labs/season-points/internal/version.Version=... -X github.com/Layr-Labs/season-points/internal/version.Commit=..."
var (
	Version = "unknown"
	Commit  = "unknown"
)

func GetVersion() string {
	return Version
}

func GetCommit() string {
	return Commit
}
