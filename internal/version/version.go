package version

import (
	"os"
	"path/filepath"
	"strings"
)

// ApplicationName is the human-readable name of the application.
var ApplicationName = "EasyDockerDeploy"

// CommandName is the name of the executable command (e.g., "edd").
// It is initialized dynamically from the executable filename.
var CommandName = "edd"

// Version is the current version of the application.
// This is intended to be overwritten at build time using:
// -ldflags "-X EasyDockerDeploy/internal/version.Version=v1.YYYYMMDD.N"
var Version = "v0.0.0.0-dev"

// Commit is the git commit hash of the build.
var Commit = "none"

// BuildDate is the date the binary was built.
var BuildDate = "unknown"

// UserAgent is sent with every outgoing HTTP request.
func UserAgent() string {
	return "easy-docker-deploy/" + strings.TrimPrefix(Version, "v")
}

func init() {
	exePath := os.Args[0]
	baseName := filepath.Base(exePath)
	// Strip extension (e.g., .exe on Windows)
	ext := filepath.Ext(baseName)
	CommandName = strings.TrimSuffix(baseName, ext)

	// Fallback to "edd" for dev runs and test binaries
	if strings.EqualFold(CommandName, ApplicationName) || strings.EqualFold(CommandName, "main") || strings.HasSuffix(CommandName, ".test") {
		CommandName = "edd"
	}
}
