package version

import "fmt"

// Build variables injected at link time:
// -X 'github.com/compozy/autotune/pkg/version.Version=v1.0.0'
// -X 'github.com/compozy/autotune/pkg/version.CommitHash=abc123'
// -X 'github.com/compozy/autotune/pkg/version.BuildDate=2024-01-01T00:00:00Z'
var (
	Version    = "unknown"
	CommitHash = "unknown"
	BuildDate  = "unknown"
)

// Info returns build information in a structured format
type Info struct {
	Version    string `json:"version"     yaml:"version"`
	CommitHash string `json:"commit_hash" yaml:"commit_hash"`
	BuildDate  string `json:"build_date"  yaml:"build_date"`
}

func (i Info) String() string {
	return fmt.Sprintf("autotune %s (commit %s, built %s)", i.Version, i.CommitHash, i.BuildDate)
}

// Get returns the current build information
func Get() Info {
	return Info{
		Version:    Version,
		CommitHash: CommitHash,
		BuildDate:  BuildDate,
	}
}
