package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"EasyDockerDeploy/cmd"
	"EasyDockerDeploy/internal/assets"
	"EasyDockerDeploy/internal/config"
	"EasyDockerDeploy/internal/console"
	"EasyDockerDeploy/internal/logger"
	"EasyDockerDeploy/internal/paths"
	"EasyDockerDeploy/internal/update"
	"EasyDockerDeploy/internal/version"
)

func main() {
	os.Exit(run())
}

func run() (exitCode int) {
	slog.SetDefault(logger.NewLogger())
	ctx := context.Background()

	// Defer cleanup to ensure it runs even if we return early or panic
	defer cleanup(ctx)

	// Recover from logger.FatalError to ensure cleanup runs
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(logger.FatalError); ok {
				exitCode = 1
			} else {
				panic(r)
			}
		}
		if exitCode != 0 {
			fmt.Fprintln(os.Stderr, console.Parse(fmt.Sprintf("{{_ApplicationName_}}%s{{|-|}} did not finish running successfully.", version.ApplicationName)))
		}
	}()
	defer logger.Recover(ctx)

	conf, err := config.LoadAppConfig()
	if err != nil {
		logger.Warn(ctx, "%v", err)
	}
	if err := conf.Validate(); err != nil {
		logger.Error(ctx, "Invalid configuration in '{{_File_}}%s{{|-|}}': %v", paths.GetConfigFilePath(), err)
		return 1
	}

	// Presets are extracted so they can be customized
	if err := assets.EnsureAssets(ctx); err != nil {
		logger.Error(ctx, "Failed to ensure assets: %v", err)
		// The embedded copies are still used
	}

	groups, err := cmd.Parse(os.Args[1:])
	if err != nil {
		logger.Error(ctx, err.Error())
		return 1
	}

	update.CheckUpdates(ctx)

	return cmd.Execute(ctx, conf, groups)
}

func cleanup(ctx context.Context) {
	logger.Info(ctx, "Cleaning up...")
	logger.Cleanup()
}
