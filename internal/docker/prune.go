package docker

import (
	"EasyDockerDeploy/internal/console"
	execpkg "EasyDockerDeploy/internal/exec"
	"EasyDockerDeploy/internal/logger"
	"context"
)

// Prune removes unused docker resources after asking.
func Prune(ctx context.Context, runner execpkg.Runner, assumeYes bool) error {
	question := "Would you like to remove all unused containers, networks, volumes, images and build cache?"
	yesNotice := "Removing unused docker resources."
	noNotice := "Nothing will be removed."

	if !console.QuestionPrompt(ctx, logger.Notice, question, "Y", assumeYes) {
		logger.Notice(ctx, noNotice)
		return nil
	}

	logger.Notice(ctx, yesNotice)

	args := []string{"system", "prune", "--all", "--force", "--volumes"}
	return RunCommand(ctx, runner, "Failed to remove unused docker resources.", args...)
}
