package paths

import (
	"EasyDockerDeploy/internal/constants"
	"EasyDockerDeploy/internal/version"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/adrg/xdg"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

var (
	// StateHomeOverride allows overriding the state home for tests.
	StateHomeOverride string
	// ConfigHomeOverride allows overriding the config home for tests.
	ConfigHomeOverride string
	// CatalogRepoDirOverride allows overriding the cloned catalog directory for tests.
	CatalogRepoDirOverride string
)

func appDirName() string {
	return strings.ToLower(version.ApplicationName)
}

// GetConfigFilePath returns the absolute path to the edd.toml file.
// It places it in a subdirectory named after the application (e.g., ~/.config/easydockerdeploy/edd.toml).
func GetConfigFilePath() string {
	if ConfigHomeOverride != "" {
		return filepath.Join(ConfigHomeOverride, constants.AppTOMLFileName)
	}
	if runtime.GOOS == "darwin" {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", appDirName(), constants.AppTOMLFileName)
	}
	return filepath.Join(xdg.ConfigHome, appDirName(), constants.AppTOMLFileName)
}

// GetConfigDir returns the absolute path to the configuration directory.
func GetConfigDir() string {
	return filepath.Dir(GetConfigFilePath())
}

// GetCacheDir returns the default absolute path to the catalog cache directory.
func GetCacheDir() string {
	return filepath.Join(xdg.CacheHome, appDirName())
}

// GetStateDir returns the absolute path to the state directory.
func GetStateDir() string {
	if StateHomeOverride != "" {
		return StateHomeOverride
	}
	return filepath.Join(xdg.StateHome, appDirName())
}

// GetLogFilePath returns the path of the application log file.
func GetLogFilePath() string {
	return filepath.Join(GetStateDir(), constants.LogFileName)
}

// GetTimestampsDir returns the absolute path to the timestamps directory.
func GetTimestampsDir() string {
	return filepath.Join(GetStateDir(), constants.TimestampsDirName)
}

// GetCatalogRepoDir returns the directory the catalog repository is cloned into
// when the git source is selected.
func GetCatalogRepoDir() string {
	if CatalogRepoDirOverride != "" {
		return CatalogRepoDirOverride
	}
	return filepath.Join(GetStateDir(), constants.CatalogRepoDirName)
}

// GetCatalogRepoVersion retrieves the checked out revision of the cloned catalog repository.
func GetCatalogRepoVersion() string {
	r, err := git.PlainOpen(GetCatalogRepoDir())
	if err != nil {
		return "Not Cloned"
	}

	head, err := r.Head()
	if err != nil {
		return "Unknown Version"
	}

	// Prefer a tag pointing at HEAD
	tags, err := r.Tags()
	foundTag := ""
	if err == nil {
		_ = tags.ForEach(func(ref *plumbing.Reference) error {
			if ref.Hash() == head.Hash() {
				foundTag = ref.Name().Short()
				return fmt.Errorf("found")
			}
			return nil
		})
	}
	if foundTag != "" {
		return foundTag
	}

	branchName := "HEAD"
	if head.Name().IsBranch() {
		branchName = head.Name().Short()
	}

	hash := head.Hash().String()
	if len(hash) > 7 {
		hash = hash[:7]
	}

	return fmt.Sprintf("%s commit %s", branchName, hash)
}

