package deploy

import (
	"EasyDockerDeploy/internal/compose"
	execpkg "EasyDockerDeploy/internal/exec"
	"EasyDockerDeploy/internal/logger"
	"context"
	"strings"
)

// DockerAPI is the part of docker.Client a deployment needs.
type DockerAPI interface {
	EnsureNetwork(ctx context.Context, name, driver string) error
	PullImage(ctx context.Context, image string) error
}

// Options control what Deploy does after writing the files.
type Options struct {
	// Pull pulls the images before starting.
	Pull bool
	// Start brings the project up. Without it only the files are written.
	Start bool
	// Force runs compose up even when nothing changed.
	Force bool
}

// Deployer writes deployments and starts them with docker compose.
type Deployer struct {
	docker DockerAPI
	runner execpkg.Runner
	writer *Writer
}

func NewDeployer(docker DockerAPI, runner execpkg.Runner, writer *Writer) *Deployer {
	if writer == nil {
		writer = NewWriter()
	}
	return &Deployer{docker: docker, runner: runner, writer: writer}
}

// Deploy writes plan and, with opts.Start, creates its network, pulls the
// image and runs compose up.
func (d *Deployer) Deploy(ctx context.Context, plan *Plan, opts Options) error {
	changed, err := d.writer.Write(ctx, plan)
	if err != nil {
		return err
	}
	if !opts.Start {
		logger.Notice(ctx, "Run '{{_UserCommand_}}edd --compose up %s{{|-|}}' to start {{_App_}}%s{{|-|}}.", plan.Name, plan.App.Name)
		return nil
	}

	if err := d.docker.EnsureNetwork(ctx, plan.Network, "bridge"); err != nil {
		return newError(KindNetwork, plan.App.Name, err)
	}
	if opts.Pull {
		if err := d.docker.PullImage(ctx, plan.Image); err != nil {
			return newError(KindCommand, plan.App.Name, err)
		}
	}
	if err := d.up(ctx, plan.Project(), changed || opts.Pull, opts.Force); err != nil {
		return newError(KindCommand, plan.App.Name, err)
	}
	logger.Notice(ctx, "Deployed {{_App_}}%s{{|-|}} as {{_Var_}}%s{{|-|}}.", plan.App.Name, plan.Name)
	for _, port := range plan.Ports {
		logger.Notice(ctx, "  http://localhost:{{_Port_}}%s{{|-|}}", hostPort(port))
	}
	return nil
}

// DeployStack writes a preset stack and, with opts.Start, pulls every image
// and runs compose up. The stack network is created by compose.
func (d *Deployer) DeployStack(ctx context.Context, plan *StackPlan, opts Options) error {
	changed, err := d.writer.WriteStack(ctx, plan)
	if err != nil {
		return err
	}
	if !opts.Start {
		logger.Notice(ctx, "Run '{{_UserCommand_}}edd --compose up %s{{|-|}}' to start the {{_App_}}%s{{|-|}} stack.", plan.Name, plan.Name)
		return nil
	}
	if opts.Pull {
		for _, image := range plan.File.Images() {
			if err := d.docker.PullImage(ctx, image); err != nil {
				return newError(KindCommand, plan.Name, err)
			}
		}
	}
	if err := d.up(ctx, plan.Project(), changed || opts.Pull, opts.Force); err != nil {
		return newError(KindCommand, plan.Name, err)
	}
	logger.Notice(ctx, "Deployed the {{_App_}}%s{{|-|}} stack: %d services.", plan.Name, len(plan.Services))
	for _, port := range plan.Ports {
		logger.Notice(ctx, "  http://localhost:{{_Port_}}%s{{|-|}}", hostPort(port))
	}
	return nil
}

func (d *Deployer) up(ctx context.Context, p compose.Project, changed, force bool) error {
	if !changed && !force && !compose.NeedsUp(p) {
		logger.Info(ctx, "{{_App_}}%s{{|-|}} is already up to date.", p.Name)
		return nil
	}
	return compose.Up(ctx, d.runner, p)
}

func hostPort(mapping string) string {
	host, _, _ := strings.Cut(mapping, ":")
	return host
}
