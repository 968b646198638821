package ports

import (
	"context"
)

// BranchDetector reads the current git branch of a working directory.
// This is a driven port (implemented by adapters).
type BranchDetector interface {
	// CurrentBranch returns the short branch name of the repository that
	// contains workingDir.
	CurrentBranch(ctx context.Context, workingDir string) (string, error)
}
