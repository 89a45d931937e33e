package system

import (
	"EasyDockerDeploy/internal/logger"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
)

// EnsureOwnedDir creates path and, when running under sudo, hands it back
// to the invoking user so containers running as PUID/PGID can write to it.
func EnsureOwnedDir(ctx context.Context, path string) error {
	if path == "" {
		return fmt.Errorf("empty directory path")
	}
	path = filepath.Clean(path)
	if isSystemPath(path) {
		logger.Error(ctx, "Refusing to manage '{{_Folder_}}%s{{|-|}}' because it is a system path.", path)
		return fmt.Errorf("%s is a system path", path)
	}

	if err := os.MkdirAll(path, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	if runtime.GOOS == "windows" || os.Geteuid() != 0 || os.Getenv("SUDO_UID") == "" {
		return nil
	}

	home, _ := os.UserHomeDir()
	if home != "" && !strings.HasPrefix(path, home) {
		logger.Warn(ctx, "Setting ownership of '{{_Folder_}}%s{{|-|}}' outside of '{{_Folder_}}%s{{|-|}}' may be unsafe.", path, home)
	}

	puid, pgid := GetIDs()
	logger.Info(ctx, "Taking ownership of '{{_Folder_}}%s{{|-|}}' for user '{{_User_}}%d{{|-|}}' and group '{{_User_}}%d{{|-|}}'", path, puid, pgid)
	if err := os.Chown(path, puid, pgid); err != nil {
		return fmt.Errorf("failed to take ownership of %s: %w", path, err)
	}
	return nil
}

// GetIDs returns the PUID and PGID detected from environment variables (SUDO_UID/SUDO_GID) or os package.
func GetIDs() (int, int) {
	uid := os.Getuid()
	if sudoUID := os.Getenv("SUDO_UID"); sudoUID != "" {
		if i, err := strconv.Atoi(sudoUID); err == nil {
			uid = i
		}
	}
	gid := os.Getgid()
	if sudoGID := os.Getenv("SUDO_GID"); sudoGID != "" {
		if i, err := strconv.Atoi(sudoGID); err == nil {
			gid = i
		}
	} else if runtime.GOOS != "windows" && uid != os.Getuid() {
		// Primary group of the sudo user
		cmd := exec.Command("id", "-g", strconv.Itoa(uid))
		if out, err := cmd.Output(); err == nil {
			if i, err := strconv.Atoi(strings.TrimSpace(string(out))); err == nil {
				gid = i
			}
		}
	}
	// Windows reports -1
	if uid < 0 {
		uid = 1000
	}
	if gid < 0 {
		gid = 1000
	}
	return uid, gid
}

func isSystemPath(path string) bool {
	systemPaths := []string{
		"/", "/bin", "/boot", "/dev", "/etc", "/home", "/lib", "/media",
		"/mnt", "/opt", "/proc", "/root", "/sbin", "/srv", "/sys", "/tmp", "/unix",
		"/usr", "/usr/include", "/usr/lib", "/usr/libexec", "/usr/local", "/usr/share",
		"/var", "/var/log", "/var/mail", "/var/spool", "/var/tmp",
	}
	for _, sp := range systemPaths {
		if path == sp {
			return true
		}
	}
	return false
}
