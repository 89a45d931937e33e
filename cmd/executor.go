package cmd

import (
	"EasyDockerDeploy/internal/cache"
	"EasyDockerDeploy/internal/catalog"
	"EasyDockerDeploy/internal/config"
	"EasyDockerDeploy/internal/deploy"
	"EasyDockerDeploy/internal/docker"
	execpkg "EasyDockerDeploy/internal/exec"
	"EasyDockerDeploy/internal/logger"
	"EasyDockerDeploy/internal/source"
	"EasyDockerDeploy/internal/version"
	"context"
	"fmt"
	"strings"
)

// CmdState holds the state of flags for a single command group.
type CmdState struct {
	Force bool
	Yes   bool
}

// dockerAPI is what the commands use of docker.Client.
type dockerAPI interface {
	deploy.DockerAPI
	ManagedContainers(ctx context.Context) ([]docker.ContainerStatus, error)
}

// app holds the resources shared by the command groups of one run. The
// catalog service and the docker client are created on first use.
type app struct {
	conf    config.AppConfig
	runner  execpkg.Runner
	service *catalog.Service
	docker  dockerAPI
	closers []func()

	plannerOpts []deploy.PlannerOption
}

func newApp(conf config.AppConfig, runner execpkg.Runner) *app {
	return &app{conf: conf, runner: runner}
}

func (a *app) catalogService() (*catalog.Service, error) {
	if a.service != nil {
		return a.service, nil
	}
	src, closeSource, err := source.New(a.conf.Catalog)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, closeSource)

	store := cache.New[catalog.Application](a.conf.CacheDir)
	if a.conf.Catalog.ProbeRepositories {
		fetcher := source.NewFetcher(a.conf.Catalog)
		a.closers = append(a.closers, fetcher.Close)
		probe := catalog.NewGitHubProbe(fetcher, catalog.DefaultGitHubAPI)
		a.service = catalog.NewScraper(src, store, catalog.NewHeuristic(probe))
	} else {
		a.service = catalog.NewService(src, store, catalog.WithTTL(a.conf.Catalog.TTL()))
	}
	return a.service, nil
}

func (a *app) catalog(ctx context.Context, force bool) (*catalog.Catalog, error) {
	svc, err := a.catalogService()
	if err != nil {
		return nil, err
	}
	return svc.Catalog(ctx, force)
}

func (a *app) dockerClient(ctx context.Context) dockerAPI {
	if a.docker == nil {
		c := docker.NewClient(ctx, a.runner)
		a.closers = append(a.closers, func() { _ = c.Close() })
		a.docker = c
	}
	return a.docker
}

func (a *app) newPlanner(presets deploy.Presets) (*deploy.Planner, error) {
	return deploy.NewPlanner(a.conf, presets, a.plannerOpts...)
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// Execute runs the command groups in order, stopping at the first one that
// fails. It returns the process exit code.
func Execute(ctx context.Context, conf config.AppConfig, groups []CommandGroup) int {
	a := newApp(conf, execpkg.OSRunner{})
	defer a.close()
	return a.execute(ctx, groups)
}

func (a *app) execute(ctx context.Context, groups []CommandGroup) int {
	ranCommand := false

	for _, group := range groups {
		state := CmdState{}

		for _, flag := range group.Flags {
			switch flag {
			case "-v", "--verbose":
				logger.SetLevel(logger.LevelInfo)
			case "-x", "--debug":
				logger.SetLevel(logger.LevelDebug)
			case "-f", "--force":
				state.Force = true
			case "-y", "--yes":
				state.Yes = true
			}
		}

		if group.Command == "" {
			logger.SetLevel(logger.LevelNotice)
			continue
		}
		ranCommand = true

		cmdStr := version.CommandName + " " + strings.Join(group.FullSlice(), " ")
		logger.Notice(ctx, fmt.Sprintf("%s command: '{{_UserCommand_}}%s{{|-|}}'", version.ApplicationName, cmdStr))
		logger.Debug(ctx, fmt.Sprintf("Execution Args -> State: %+v, Command: %v", state, group.CommandSlice()))

		err := a.run(ctx, group, state)

		logger.SetLevel(logger.LevelNotice)

		if err != nil {
			logger.Error(ctx, "%v", err)
			return 1
		}
	}

	if !ranCommand {
		PrintHelp("")
	}
	return 0
}

func (a *app) run(ctx context.Context, group CommandGroup, state CmdState) error {
	switch group.Command {
	case "-h", "--help":
		handleHelp(&group)
		return nil
	case "-V", "--version":
		handleVersion(ctx)
		return nil
	case "-u", "--update", "--update-app", "--update-catalog":
		return handleUpdate(ctx, &group, &state)
	case "--config-show":
		handleConfigShow(ctx, &a.conf)
		return nil

	case "-l", "--list", "--search", "--category", "--docker-ready":
		return a.handleList(ctx, &group, &state)
	case "--categories":
		return a.handleCategories(ctx, &state)
	case "--info":
		return a.handleInfo(ctx, &group, &state)
	case "--refresh":
		return a.handleRefresh(ctx)
	case "--cache-status":
		return a.handleCacheStatus(ctx)
	case "--clear-cache":
		return a.handleClearCache(ctx, &group)

	case "-d", "--deploy":
		return a.handleDeploy(ctx, &group, &state)
	case "--preset":
		return a.handlePreset(ctx, &group, &state)
	case "-c", "--compose":
		return a.handleCompose(ctx, &group, &state)
	case "-s", "--status":
		return a.handleStatus(ctx)
	case "-p", "--prune":
		return docker.Prune(ctx, a.runner, state.Yes)
	}
	return fmt.Errorf("the '{{_UserCommand_}}%s{{|-|}}' command is not implemented", group.Command)
}
