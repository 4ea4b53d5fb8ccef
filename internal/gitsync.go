package internal

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SyncResult reports which branch of the converge logic ran.
type SyncResult int

const (
	SyncCloned SyncResult = iota
	SyncUpdated
)

func (r SyncResult) String() string {
	if r == SyncCloned {
		return "cloned"
	}
	return "updated"
}

// DeriveDirName extracts the local directory name for a repository URL:
// the last path segment with any trailing ".git" stripped. The two spellings
// of the same repository derive the same name.
func DeriveDirName(repoURL string) (string, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(repoURL), "/")
	name := trimmed[strings.LastIndexByte(trimmed, '/')+1:]
	name = strings.TrimSuffix(name, ".git")
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("cannot derive a directory name from %q", repoURL)
	}
	return name, nil
}

// Sync converges targetDir onto the repository at location: clone when the
// directory is absent, fast-forward pull when present. Local modifications or
// diverged history surface as an error and abort the run; there is no
// conflict-resolution or rollback policy here.
func Sync(ctx context.Context, location, targetDir string) (SyncResult, error) {
	targetDir = ExpandUserPath(targetDir)
	log := WithStep("sync")

	if _, err := os.Stat(targetDir); os.IsNotExist(err) {
		log.Info().Str("repo", location).Str("dir", targetDir).Msg("cloning")
		parentDir := filepath.Dir(targetDir)
		if err := os.MkdirAll(parentDir, 0o755); err != nil {
			return 0, WrapKind(ErrSyncFailure, err, "creating parent directory")
		}
		if err := ExecuteCommand(ctx, GitCommand, []string{"clone", location, filepath.Base(targetDir)}, parentDir); err != nil {
			return 0, WrapKind(ErrSyncFailure, err, fmt.Sprintf("cloning %s", location))
		}
		return SyncCloned, nil
	}

	log.Info().Str("dir", targetDir).Msg("pulling")
	if err := ExecuteCommand(ctx, GitCommand, []string{"pull", "--ff-only"}, targetDir); err != nil {
		return 0, WrapKind(ErrSyncFailure, err, fmt.Sprintf("updating %s", targetDir))
	}
	return SyncUpdated, nil
}
