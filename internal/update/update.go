package update

import (
	"EasyDockerDeploy/internal/console"
	"EasyDockerDeploy/internal/logger"
	"EasyDockerDeploy/internal/paths"
	"EasyDockerDeploy/internal/version"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/creativeprojects/go-selfupdate"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// releaseSlug is the GitHub repository releases are published to.
const releaseSlug = "easydockerdeploy/easy-docker-deploy"

// catalogRepoName is how the cloned catalog repository is shown.
const catalogRepoName = "awesome-selfhosted"

var (
	// AppUpdateAvailable is true if an application update is available.
	AppUpdateAvailable bool
	// CatalogUpdateAvailable is true if the cloned catalog repository is behind its remote.
	CatalogUpdateAvailable bool
	// LatestAppVersion is the tag name of the latest application release.
	LatestAppVersion string
	// LatestCatalogVersion is the short hash of the latest catalog commit.
	LatestCatalogVersion string
)

// SelfUpdate handles updating the application binary using GitHub Releases.
func SelfUpdate(ctx context.Context, force bool, yes bool, requestedVersion string) error {
	repo := selfupdate.ParseSlug(releaseSlug)

	currentChannel := GetCurrentChannel()
	if requestedVersion == "" {
		requestedVersion = currentChannel
	}

	var (
		latest *selfupdate.Release
		found  bool
		err    error
	)

	// Detect latest version first
	updater, err := getUpdater(ctx, requestedVersion)
	if err != nil {
		return fmt.Errorf("failed to create updater: %w", err)
	}

	if strings.HasPrefix(requestedVersion, "v") {
		// Specific version requested
		latest, found, err = updater.DetectVersion(ctx, repo, requestedVersion)
	} else {
		// Default latest for the channel
		latest, found, err = updater.DetectLatest(ctx, repo)
	}

	if err != nil {
		return fmt.Errorf("failed to detect latest version: %w", err)
	}
	if !found {
		return fmt.Errorf("no version found for target %s", requestedVersion)
	}

	remoteVersion := latest.Version()
	currentVersion := version.Version
	// Strict channel matching (except when a specific version was requested)
	if !strings.HasPrefix(requestedVersion, "v") {
		remoteChannel := GetChannelFromVersion(remoteVersion)
		if !strings.EqualFold(remoteChannel, currentChannel) && !strings.EqualFold(requestedVersion, remoteChannel) {
			logger.Warn(ctx, "{{_ApplicationName_}}%s{{|-|}} is on channel '{{_Branch_}}%s{{|-|}}', but latest release is on channel '{{_Branch_}}%s{{|-|}}'. Ignoring.", version.ApplicationName, currentChannel, remoteChannel)
			return nil
		}
	}

	question := ""
	initiationNotice := ""
	noNotice := fmt.Sprintf("{{_ApplicationName_}}%s{{|-|}} will not be updated.", version.ApplicationName)

	if currentVersion == remoteVersion {
		if force {
			question = fmt.Sprintf("Would you like to forcefully re-apply {{_ApplicationName_}}%s{{|-|}} update '{{_Version_}}%s{{|-|}}'?", version.ApplicationName, currentVersion)
			initiationNotice = fmt.Sprintf("Forcefully re-applying {{_ApplicationName_}}%s{{|-|}} update '{{_Version_}}%s{{|-|}}'", version.ApplicationName, remoteVersion)
		} else {
			logger.Notice(ctx, "{{_ApplicationName_}}%s{{|-|}} is already up to date on channel '%s'.", version.ApplicationName, requestedVersion)
			logger.Notice(ctx, "Current version is '{{_Version_}}%s{{|-|}}'", currentVersion)
			return nil
		}
	} else {
		question = fmt.Sprintf("Would you like to update {{_ApplicationName_}}%s{{|-|}} from '{{_Version_}}%s{{|-|}}' to '{{_Version_}}%s{{|-|}}' now?", version.ApplicationName, currentVersion, remoteVersion)
		initiationNotice = fmt.Sprintf("Updating {{_ApplicationName_}}%s{{|-|}} from '{{_Version_}}%s{{|-|}}' to '{{_Version_}}%s{{|-|}}'", version.ApplicationName, currentVersion, remoteVersion)
	}

	// Prompt user
	if !console.QuestionPrompt(ctx, logger.Notice, question, "Y", yes) {
		logger.Notice(ctx, noNotice)
		return nil
	}

	// Execution
	logger.Notice(ctx, initiationNotice)
	if strings.HasPrefix(requestedVersion, "v") {
		var exe string
		if exe, err = os.Executable(); err == nil {
			err = updater.UpdateTo(ctx, latest, exe)
		}
	} else {
		_, err = updater.UpdateSelf(ctx, version.Version, repo)
	}

	if err != nil {
		if strings.Contains(err.Error(), "permission denied") || strings.Contains(err.Error(), "Access is denied") {
			logger.Warn(ctx, "Permission denied. Attempting to run with sudo...")
			exe, _ := os.Executable()
			args := os.Args[1:]
			cmd := exec.Command("sudo", append([]string{exe}, args...)...)
			cmd.Stdin = os.Stdin
			cmd.Stdout = os.Stdout
			cmd.Stderr = os.Stderr
			if runErr := cmd.Run(); runErr != nil {
				return fmt.Errorf("failed to update with sudo: %w", runErr)
			}
			return nil
		}
		return fmt.Errorf("failed to update application: %w", err)
	}

	logger.Notice(ctx, "Updated {{_ApplicationName_}}%s{{|-|}} to '{{_Version_}}%s{{|-|}}'", version.ApplicationName, remoteVersion)

	return nil
}

// UpdateCatalogRepo moves the cloned catalog repository to the requested
// branch or tag. It only applies to the git catalog source.
func UpdateCatalogRepo(ctx context.Context, force bool, yes bool, requestedBranch string) error {
	repoDir := paths.GetCatalogRepoDir()
	if _, err := os.Stat(repoDir); os.IsNotExist(err) {
		logger.Info(ctx, "The catalog repository is not cloned at '{{_Folder_}}%s{{|-|}}', nothing to update.", repoDir)
		return nil
	}

	repo, err := git.PlainOpen(repoDir)
	if err != nil {
		return fmt.Errorf("failed to open catalog repo: %w", err)
	}

	if requestedBranch == "" {
		requestedBranch = currentBranch(repo)
	}

	err = repo.FetchContext(ctx, &git.FetchOptions{
		RemoteName: "origin",
		Tags:       git.AllTags,
	})
	if err != nil && err != git.NoErrAlreadyUpToDate {
		return fmt.Errorf("failed to fetch catalog repo: %w", err)
	}

	head, err := repo.Head()
	if err != nil {
		return fmt.Errorf("failed to get catalog repo HEAD: %w", err)
	}
	currentHash := head.Hash().String()[:7]
	currentDisplay := paths.GetCatalogRepoVersion()

	remoteRef, err := repo.Reference(plumbing.ReferenceName("refs/remotes/origin/"+requestedBranch), true)
	if err != nil {
		// Fallback to tags if branch not found
		remoteRef, err = repo.Reference(plumbing.ReferenceName("refs/tags/"+requestedBranch), true)
	}
	if err != nil {
		return fmt.Errorf("failed to resolve catalog target %s: %w", requestedBranch, err)
	}
	remoteHash := remoteRef.Hash().String()[:7]
	remoteDisplay := remoteHash

	tags, _ := repo.Tags()
	_ = tags.ForEach(func(ref *plumbing.Reference) error {
		if ref.Hash() == remoteRef.Hash() {
			remoteDisplay = ref.Name().Short()
			return fmt.Errorf("found")
		}
		return nil
	})

	question := ""
	initiationNotice := ""
	noNotice := fmt.Sprintf("{{_ApplicationName_}}%s{{|-|}} will not be updated.", catalogRepoName)

	if currentHash == remoteHash {
		if force {
			question = fmt.Sprintf("Would you like to forcefully re-apply {{_ApplicationName_}}%s{{|-|}} update '{{_Version_}}%s{{|-|}}'?", catalogRepoName, currentDisplay)
			initiationNotice = fmt.Sprintf("Forcefully re-applying {{_ApplicationName_}}%s{{|-|}} update '{{_Version_}}%s{{|-|}}'", catalogRepoName, remoteDisplay)
		} else {
			logger.Notice(ctx, "{{_ApplicationName_}}%s{{|-|}} is already up to date on branch '{{_Branch_}}%s{{|-|}}'.", catalogRepoName, requestedBranch)
			logger.Notice(ctx, "Current version is '{{_Version_}}%s{{|-|}}'", currentDisplay)
			return nil
		}
	} else {
		question = fmt.Sprintf("Would you like to update {{_ApplicationName_}}%s{{|-|}} from '{{_Version_}}%s{{|-|}}' to '{{_Version_}}%s{{|-|}}' now?", catalogRepoName, currentDisplay, remoteDisplay)
		initiationNotice = fmt.Sprintf("Updating {{_ApplicationName_}}%s{{|-|}} from '{{_Version_}}%s{{|-|}}' to '{{_Version_}}%s{{|-|}}'", catalogRepoName, currentDisplay, remoteDisplay)
	}

	if !console.QuestionPrompt(ctx, logger.Notice, question, "Y", yes) {
		logger.Notice(ctx, noNotice)
		return nil
	}

	logger.Notice(ctx, initiationNotice)
	w, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get catalog worktree: %w", err)
	}

	// The shallow clone has no local branch for most targets; a detached
	// checkout of the resolved commit always works.
	err = w.Checkout(&git.CheckoutOptions{
		Hash:  remoteRef.Hash(),
		Force: true,
	})
	if err != nil {
		return fmt.Errorf("failed to update catalog repo to %s: %w", requestedBranch, err)
	}

	logger.Notice(ctx, "Updated {{_ApplicationName_}}%s{{|-|}} to '{{_Version_}}%s{{|-|}}'", catalogRepoName, paths.GetCatalogRepoVersion())
	return nil
}

// GetUpdateStatus checks for updates in the background without prompting.
func GetUpdateStatus(ctx context.Context) (appUpdate bool, catalogUpdate bool) {
	appUpdate, appVer := checkAppUpdate(ctx)
	catalogUpdate, catalogVer := checkCatalogUpdate(ctx)

	AppUpdateAvailable = appUpdate
	LatestAppVersion = appVer
	CatalogUpdateAvailable = catalogUpdate
	LatestCatalogVersion = catalogVer

	return appUpdate, catalogUpdate
}

// CheckUpdates performs a startup update check and notifies the user if updates are available.
func CheckUpdates(ctx context.Context) {
	GetUpdateStatus(ctx)

	if AppUpdateAvailable {
		msg := []string{
			GetAppVersionDisplay(),
			fmt.Sprintf("An update to {{_ApplicationName_}}%s{{|-|}} is available.", version.ApplicationName),
			fmt.Sprintf("Run '{{_UserCommand_}}%s -u{{|-|}}' to update to version '{{_Version_}}%s{{|-|}}'.", version.CommandName, LatestAppVersion),
		}
		logger.Warn(ctx, msg)
	} else {
		// Info level is hidden by default (-v shows it)
		logger.Info(ctx, GetAppVersionDisplay())
	}

	if CatalogUpdateAvailable {
		msg := []string{
			GetCatalogVersionDisplay(),
			fmt.Sprintf("An update to {{_ApplicationName_}}%s{{|-|}} is available.", catalogRepoName),
			fmt.Sprintf("Run '{{_UserCommand_}}%s --update-catalog{{|-|}}' to update to version '{{_Version_}}%s{{|-|}}'.", version.CommandName, LatestCatalogVersion),
		}
		logger.Warn(ctx, msg)
	} else {
		logger.Info(ctx, GetCatalogVersionDisplay())
	}
}

// GetAppVersionDisplay returns a formatted version string for the application.
func GetAppVersionDisplay() string {
	return fmt.Sprintf("{{_ApplicationName_}}%s{{|-|}} [{{_Version_}}%s{{|-|}}]", version.ApplicationName, version.Version)
}

// GetCatalogVersionDisplay returns a formatted version string for the cloned catalog.
func GetCatalogVersionDisplay() string {
	return fmt.Sprintf("{{_ApplicationName_}}%s{{|-|}} [{{_Version_}}%s{{|-|}}]", catalogRepoName, paths.GetCatalogRepoVersion())
}

func checkAppUpdate(ctx context.Context) (bool, string) {
	repo := selfupdate.ParseSlug(releaseSlug)

	channel := GetCurrentChannel()
	updater, err := getUpdater(ctx, channel)
	if err != nil {
		return false, ""
	}

	latest, found, err := updater.DetectLatest(ctx, repo)
	if err != nil || !found {
		return false, ""
	}

	remoteVersion := latest.Version()
	remoteChannel := GetChannelFromVersion(remoteVersion)
	if !strings.EqualFold(remoteChannel, channel) {
		return false, ""
	}

	if compareVersions(remoteVersion, version.Version) > 0 {
		return true, remoteVersion
	}
	return false, version.Version
}

func checkCatalogUpdate(ctx context.Context) (bool, string) {
	repoDir := paths.GetCatalogRepoDir()
	if _, err := os.Stat(repoDir); os.IsNotExist(err) {
		return false, ""
	}

	repo, err := git.PlainOpen(repoDir)
	if err != nil {
		return false, ""
	}

	err = repo.FetchContext(ctx, &git.FetchOptions{
		RemoteName: "origin",
	})
	if err != nil && err != git.NoErrAlreadyUpToDate {
		return false, ""
	}

	head, err := repo.Head()
	if err != nil {
		return false, ""
	}

	remoteHead, err := repo.Reference(plumbing.ReferenceName("refs/remotes/origin/"+currentBranch(repo)), true)
	if err != nil {
		return false, ""
	}

	if head.Hash() != remoteHead.Hash() {
		return true, remoteHead.Hash().String()[:7]
	}
	return false, head.Hash().String()[:7]
}

// currentBranch returns the checked out branch, or "master" when HEAD is detached.
func currentBranch(repo *git.Repository) string {
	head, err := repo.Head()
	if err == nil && head.Name().IsBranch() {
		return head.Name().Short()
	}
	return "master"
}

// compareVersions compares two version strings and returns:
// -1 if v1 < v2
//
//	0 if v1 == v2
//	1 if v1 > v2
func compareVersions(v1, v2 string) int {
	v1 = strings.TrimPrefix(v1, "v")
	v2 = strings.TrimPrefix(v2, "v")

	// First try strictly semantic versioning
	sv1, err1 := semver.NewVersion(v1)
	sv2, err2 := semver.NewVersion(v2)
	if err1 == nil && err2 == nil {
		return sv1.Compare(sv2)
	}

	// Fallback for custom versioning (e.g. 2024.01.01.1)
	// Split by dots and compare parts
	p1 := strings.Split(v1, ".")
	p2 := strings.Split(v2, ".")

	for i := 0; i < len(p1) && i < len(p2); i++ {
		s1 := p1[i]
		s2 := p2[i]

		if s1 == s2 {
			continue
		}

		// Handle suffixes (e.g. "1.0.0-beta" vs "1.0.0")
		// If one has a suffix and the other doesn't, and they are otherwise equal:
		// the one without a suffix is GREATER (stable > pre-release)
		h1 := strings.Contains(s1, "-")
		h2 := strings.Contains(s2, "-")
		if h1 || h2 {
			if h1 != h2 {
				if h1 {
					return -1 // s1 has suffix, s2 doesn't -> s1 < s2
				}
				return 1 // s2 has suffix, s1 doesn't -> s1 > s2
			}
			// Both have suffixes, just string compare
			if s1 > s2 {
				return 1
			}
			return -1
		}

		// Try numeric comparison
		n1, e1 := strconv.Atoi(s1)
		n2, e2 := strconv.Atoi(s2)

		if e1 == nil && e2 == nil {
			if n1 > n2 {
				return 1
			}
			return -1
		}

		// Fallback to string comparison
		if s1 > s2 {
			return 1
		}
		return -1
	}

	if len(p1) > len(p2) {
		// 1.0.0.1 > 1.0.0
		// But check if the extra part is a suffix
		if strings.Contains(p1[len(p2)], "-") {
			return -1
		}
		return 1
	}

	// Lengths are different, but no dash in the longer part
	// 1.0.1 > 1.0
	if len(p1) > len(p2) {
		return 1
	}
	return -1
}

// getUpdater returns a configured selfupdate.Updater for the given channel.
func getUpdater(ctx context.Context, channel string) (*selfupdate.Updater, error) {
	cfg := selfupdate.Config{}
	// Only allow prereleases if the user is on a prerelease/dev channel
	if !strings.EqualFold(channel, "stable") {
		cfg.Prerelease = true
	} else {
		cfg.Prerelease = false
	}
	return selfupdate.NewUpdater(cfg)
}

// GetCurrentChannel returns the update channel based on the current version string.
// v1.YYYYMMDD.N is stable, v0.0.0.0-dev is dev, -Prerelease is prerelease, -rc1 is rc1, etc.
func GetCurrentChannel() string {
	return GetChannelFromVersion(version.Version)
}

// GetChannelFromVersion extracts the channel (suffix) from a version string.
func GetChannelFromVersion(v string) string {
	parts := strings.SplitN(v, "-", 2)
	if len(parts) > 1 {
		return parts[1]
	}
	return "stable"
}
