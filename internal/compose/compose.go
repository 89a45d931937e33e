package compose

import (
	"EasyDockerDeploy/internal/console"
	"EasyDockerDeploy/internal/constants"
	execpkg "EasyDockerDeploy/internal/exec"
	"EasyDockerDeploy/internal/logger"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Commands lists the compose operations accepted by Execute.
var Commands = []string{"down", "logs", "ps", "pull", "restart", "stop", "up", "update"}

// ErrUnknownCommand is returned by Execute for operations not in Commands.
var ErrUnknownCommand = errors.New("unknown compose command")

// Project is one deployment directory holding a docker-compose.yml.
type Project struct {
	Name string
	Dir  string
}

// ComposeFile returns the path of the project's compose file.
func (p Project) ComposeFile() string {
	return filepath.Join(p.Dir, constants.ComposeFileName)
}

// EnvFile returns the path of the project's .env file.
func (p Project) EnvFile() string {
	return filepath.Join(p.Dir, constants.EnvFileName)
}

func (p Project) args(op ...string) []string {
	args := []string{"compose", "--project-directory", p.Dir + string(filepath.Separator)}
	return append(args, op...)
}

// FindProject returns the deployment named name under baseDir.
func FindProject(baseDir, name string) (Project, error) {
	p := Project{Name: name, Dir: filepath.Join(baseDir, name)}
	if !fileExists(p.ComposeFile()) {
		return Project{}, fmt.Errorf("no deployment named %q in %s", name, baseDir)
	}
	return p, nil
}

// ListProjects returns every deployment under baseDir, sorted by name.
// A missing baseDir yields no projects.
func ListProjects(baseDir string) ([]Project, error) {
	entries, err := os.ReadDir(baseDir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var projects []Project
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		p := Project{Name: e.Name(), Dir: filepath.Join(baseDir, e.Name())}
		if fileExists(p.ComposeFile()) {
			projects = append(projects, p)
		}
	}
	sort.Slice(projects, func(i, j int) bool { return projects[i].Name < projects[j].Name })
	return projects, nil
}

// Execute runs a compose operation against each project. Destructive
// operations ask first unless yes is set; ps and logs never ask.
func Execute(ctx context.Context, runner execpkg.Runner, yes bool, command string, projects ...Project) error {
	if len(projects) == 0 {
		logger.Warn(ctx, "No deployments found.")
		return nil
	}

	var names []string
	for _, p := range projects {
		names = append(names, p.Name)
	}
	appNamesJoined := strings.Join(names, ", ")

	var question, yesNotice, noNotice string
	var ops [][]string

	switch command {
	case "down":
		question = fmt.Sprintf("Stop and remove: {{_App_}}%s{{|-|}}?", appNamesJoined)
		yesNotice = fmt.Sprintf("Stopping and removing {{_App_}}%s{{|-|}}.", appNamesJoined)
		noNotice = fmt.Sprintf("Not stopping and removing: {{_App_}}%s{{|-|}}.", appNamesJoined)
		ops = [][]string{{"down", "--remove-orphans"}}

	case "pull":
		question = fmt.Sprintf("Pull the latest images for: {{_App_}}%s{{|-|}}?", appNamesJoined)
		yesNotice = fmt.Sprintf("Pulling the latest images for: {{_App_}}%s{{|-|}}.", appNamesJoined)
		noNotice = fmt.Sprintf("Not pulling the latest images for: {{_App_}}%s{{|-|}}.", appNamesJoined)
		ops = [][]string{{"pull"}}

	case "restart":
		question = fmt.Sprintf("Restart: {{_App_}}%s{{|-|}}?", appNamesJoined)
		yesNotice = fmt.Sprintf("Restarting: {{_App_}}%s{{|-|}}.", appNamesJoined)
		noNotice = fmt.Sprintf("Not restarting: {{_App_}}%s{{|-|}}.", appNamesJoined)
		ops = [][]string{{"restart"}}

	case "stop":
		question = fmt.Sprintf("Stop: {{_App_}}%s{{|-|}}?", appNamesJoined)
		yesNotice = fmt.Sprintf("Stopping: {{_App_}}%s{{|-|}}.", appNamesJoined)
		noNotice = fmt.Sprintf("Not stopping: {{_App_}}%s{{|-|}}.", appNamesJoined)
		ops = [][]string{{"stop"}}

	case "up":
		question = fmt.Sprintf("Start: {{_App_}}%s{{|-|}}?", appNamesJoined)
		yesNotice = fmt.Sprintf("Starting: {{_App_}}%s{{|-|}}.", appNamesJoined)
		noNotice = fmt.Sprintf("Not starting: {{_App_}}%s{{|-|}}.", appNamesJoined)
		ops = [][]string{{"up", "-d", "--remove-orphans"}}

	case "update":
		question = fmt.Sprintf("Update and start: {{_App_}}%s{{|-|}}?", appNamesJoined)
		yesNotice = fmt.Sprintf("Updating and starting: {{_App_}}%s{{|-|}}.", appNamesJoined)
		noNotice = fmt.Sprintf("Not updating and starting: {{_App_}}%s{{|-|}}.", appNamesJoined)
		ops = [][]string{{"pull"}, {"up", "-d", "--remove-orphans"}}

	case "ps":
		for _, p := range projects {
			if err := runDockerCommand(ctx, runner, p.args("ps", "--all")...); err != nil {
				return err
			}
		}
		return nil

	case "logs":
		for _, p := range projects {
			if err := runDockerCommand(ctx, runner, p.args("logs", "--tail", "100")...); err != nil {
				return err
			}
		}
		return nil

	default:
		return fmt.Errorf("%w: %s (expected one of %s)", ErrUnknownCommand, command, strings.Join(Commands, ", "))
	}

	if !console.QuestionPrompt(ctx, logger.Notice, question, "Y", yes) {
		logger.Notice(ctx, noNotice)
		return nil
	}
	logger.Notice(ctx, yesNotice)

	var errs []error
	for _, p := range projects {
		if err := runOps(ctx, runner, p, ops); err != nil {
			// Keep going so one broken deployment does not block the rest.
			errs = append(errs, err)
			continue
		}
		switch command {
		case "up", "update":
			MarkUp(ctx, p)
		case "down":
			ClearUp(p)
		}
	}
	return errors.Join(errs...)
}

// Up starts a single project without prompting and records its marker.
func Up(ctx context.Context, runner execpkg.Runner, p Project) error {
	if err := runDockerCommand(ctx, runner, p.args("up", "-d", "--remove-orphans")...); err != nil {
		return err
	}
	MarkUp(ctx, p)
	return nil
}

func runOps(ctx context.Context, runner execpkg.Runner, p Project, ops [][]string) error {
	for _, op := range ops {
		if err := runDockerCommand(ctx, runner, p.args(op...)...); err != nil {
			return fmt.Errorf("%s: %w", p.Name, err)
		}
	}
	return nil
}

// runDockerCommand lets compose stream its own output.
func runDockerCommand(ctx context.Context, runner execpkg.Runner, args ...string) error {
	return runner.RunAndLog(ctx,
		"notice",
		"",
		"error",
		"Failed to run compose.",
		"docker",
		args...,
	)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
