package version

import "fmt"

// Build-time variables (set via ldflags during CI/CD builds)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func PrintVersion() {
	fmt.Printf("redirect-check (version: %s)\n", Version)
	if BuildTime != "unknown" {
		fmt.Printf("Build Time: %s\n", BuildTime)
	}
	if GitCommit != "unknown" {
		fmt.Printf("Git Commit: %s\n", GitCommit)
	}
}
