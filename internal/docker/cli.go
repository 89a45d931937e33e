package docker

import (
	execpkg "EasyDockerDeploy/internal/exec"
	"context"
)

// RunCommand runs a docker CLI command through runner, logging the command
// line and each line of its output at debug level.
func RunCommand(ctx context.Context, runner execpkg.Runner, errorMessage string, args ...string) error {
	return runner.RunAndLog(ctx, "info", "docker:debug", "error", errorMessage, "docker", args...)
}

// Available reports whether the docker CLI can be run at all.
func Available(ctx context.Context, runner execpkg.Runner) bool {
	_, err := runner.Output(ctx, "docker", "version", "--format", "{{.Client.Version}}")
	return err == nil
}
