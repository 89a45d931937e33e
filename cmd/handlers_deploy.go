package cmd

import (
	"EasyDockerDeploy/internal/assets"
	"EasyDockerDeploy/internal/catalog"
	"EasyDockerDeploy/internal/compose"
	"EasyDockerDeploy/internal/console"
	"EasyDockerDeploy/internal/deploy"
	"EasyDockerDeploy/internal/logger"
	"EasyDockerDeploy/internal/system"
	"EasyDockerDeploy/internal/version"
	"context"
	"fmt"
	"strings"
)

// customCategory labels deployments of known applications missing from the catalog.
const customCategory = "Custom"

func presetNames() string {
	return strings.Join(assets.StackNames(), ", ")
}

func (a *app) handleDeploy(ctx context.Context, group *CommandGroup, state *CmdState) error {
	req, err := parseDeployArgs(group.Args)
	if err != nil {
		return err
	}
	presets, err := deploy.LoadPresets()
	if err != nil {
		return err
	}
	entry, err := a.resolveApplication(ctx, req.App, presets)
	if err != nil {
		return err
	}
	planner, err := a.newPlanner(presets)
	if err != nil {
		return err
	}
	plan, err := planner.Plan(entry, req.Overrides)
	if err != nil {
		return err
	}

	logger.Notice(ctx, "Deploying {{_App_}}%s{{|-|}} as {{_Var_}}%s{{|-|}}", entry.Name, plan.Name)
	logger.Info(ctx, "  Image:   {{_Image_}}%s{{|-|}}", plan.Image)
	logger.Info(ctx, "  Folder:  {{_Folder_}}%s{{|-|}}", plan.Dir)
	logger.Info(ctx, "  Network: {{_Network_}}%s{{|-|}}", plan.Network)
	for _, port := range plan.Ports {
		logger.Info(ctx, "  Port:    {{_Port_}}%s{{|-|}}", port)
	}

	question := fmt.Sprintf("Would you like to start {{_App_}}%s{{|-|}} now?", entry.Name)
	start := console.QuestionPrompt(ctx, logger.Notice, question, "Y", state.Yes)

	d := deploy.NewDeployer(a.dockerClient(ctx), a.runner, nil)
	return d.Deploy(ctx, plan, deploy.Options{Pull: !req.NoPull, Start: start, Force: state.Force})
}

// resolveApplication finds name in the catalog. A name the catalog does not
// list, or a catalog that cannot be loaded, still deploys when a preset
// exists for it.
func (a *app) resolveApplication(ctx context.Context, name string, presets deploy.Presets) (catalog.Application, error) {
	cat, err := a.catalog(ctx, false)
	if err == nil {
		if entry, ok := cat.Get(name); ok {
			return entry, nil
		}
	}
	if !presets.Has(name) {
		if err != nil {
			return catalog.Application{}, err
		}
		return catalog.Application{}, fmt.Errorf("no application named '{{_App_}}%s{{|-|}}' in the catalog", name)
	}
	if err != nil {
		logger.Warn(ctx, "The catalog is unavailable, using the preset for {{_App_}}%s{{|-|}}: %v", name, err)
	} else {
		logger.Info(ctx, "{{_App_}}%s{{|-|}} is not in the catalog, using its preset.", name)
	}
	return catalog.Application{Name: name, Category: customCategory}, nil
}

func (a *app) handlePreset(ctx context.Context, group *CommandGroup, state *CmdState) error {
	name := group.Args[0]
	stack, err := deploy.LoadStack(name)
	if err != nil {
		return fmt.Errorf("%w (available: %s)", err, presetNames())
	}
	presets, err := deploy.LoadPresets()
	if err != nil {
		return err
	}
	planner, err := a.newPlanner(presets)
	if err != nil {
		return err
	}
	puid, pgid := system.GetIDs()
	plan, err := planner.PlanStack(ctx, name, stack, deploy.StackSettings{
		PUID:     puid,
		PGID:     pgid,
		Timezone: system.Timezone(),
	})
	if err != nil {
		return err
	}

	logger.Notice(ctx, "Deploying the {{_App_}}%s{{|-|}} stack: %s", name, strings.Join(plan.Services, ", "))
	for _, folder := range plan.Folders {
		logger.Info(ctx, "  Folder: {{_Folder_}}%s{{|-|}}", folder)
	}

	question := fmt.Sprintf("Would you like to start the {{_App_}}%s{{|-|}} stack now?", name)
	start := console.QuestionPrompt(ctx, logger.Notice, question, "Y", state.Yes)

	d := deploy.NewDeployer(a.dockerClient(ctx), a.runner, nil)
	return d.DeployStack(ctx, plan, deploy.Options{Pull: true, Start: start, Force: state.Force})
}

func (a *app) handleCompose(ctx context.Context, group *CommandGroup, state *CmdState) error {
	command := group.Args[0]

	var projects []compose.Project
	if names := group.Args[1:]; len(names) > 0 {
		for _, name := range names {
			p, err := compose.FindProject(a.conf.BaseDir, deploy.SanitizeName(name))
			if err != nil {
				return err
			}
			projects = append(projects, p)
		}
	} else {
		var err error
		projects, err = compose.ListProjects(a.conf.BaseDir)
		if err != nil {
			return err
		}
		if len(projects) == 0 {
			logger.Notice(ctx, "Nothing is deployed in {{_Folder_}}%s{{|-|}}.", a.conf.BaseDir)
			return nil
		}
	}
	return compose.Execute(ctx, a.runner, state.Yes, command, projects...)
}

func (a *app) handleStatus(ctx context.Context) error {
	containers, err := a.dockerClient(ctx).ManagedContainers(ctx)
	if err != nil {
		return err
	}
	if len(containers) == 0 {
		logger.Notice(ctx, "No containers deployed by {{_ApplicationName_}}%s{{|-|}} were found.", version.ApplicationName)
		return nil
	}

	headers := []string{
		"{{_UsageCommand_}}Name{{|-|}}",
		"{{_UsageCommand_}}Application{{|-|}}",
		"{{_UsageCommand_}}Category{{|-|}}",
		"{{_UsageCommand_}}State{{|-|}}",
		"{{_UsageCommand_}}Status{{|-|}}",
		"{{_UsageCommand_}}Ports{{|-|}}",
	}
	data := make([]string, 0, len(containers)*len(headers))
	for _, c := range containers {
		stateTag := "{{_NotDocker_}}"
		if c.State == "running" {
			stateTag = "{{_Docker_}}"
		}
		data = append(data,
			"{{_Var_}}"+c.Name+"{{|-|}}",
			"{{_App_}}"+c.App+"{{|-|}}",
			"{{_Category_}}"+c.Category+"{{|-|}}",
			stateTag+c.State+"{{|-|}}",
			c.Status,
			"{{_Port_}}"+strings.Join(c.Ports, ", ")+"{{|-|}}",
		)
	}
	console.FprintTable(logger.DisplayWriter, headers, data, a.conf.UI.LineCharacters)
	return nil
}
