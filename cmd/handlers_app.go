package cmd

import (
	"EasyDockerDeploy/internal/config"
	"EasyDockerDeploy/internal/console"
	"EasyDockerDeploy/internal/logger"
	"EasyDockerDeploy/internal/paths"
	"EasyDockerDeploy/internal/update"
	"EasyDockerDeploy/internal/version"
	"context"
	"errors"
	"fmt"
	"strconv"
)

func handleHelp(group *CommandGroup) {
	target := ""
	if len(group.Args) > 0 {
		target = group.Args[0]
	}
	PrintHelp(target)
}

func handleVersion(ctx context.Context) {
	logger.Display(ctx, fmt.Sprintf("{{_ApplicationName_}}%s{{|-|}} [{{_Version_}}%s{{|-|}}] commit %s, built %s", version.ApplicationName, version.Version, version.Commit, version.BuildDate))
	logger.Display(ctx, fmt.Sprintf("{{_ApplicationName_}}awesome-selfhosted{{|-|}} [{{_Version_}}%s{{|-|}}]", paths.GetCatalogRepoVersion()))
}

func handleUpdate(ctx context.Context, group *CommandGroup, state *CmdState) error {
	arg := ""
	if len(group.Args) > 0 {
		arg = group.Args[0]
	}

	var errs []error
	switch group.Command {
	case "-u", "--update":
		if err := update.UpdateCatalogRepo(ctx, state.Force, state.Yes, ""); err != nil {
			errs = append(errs, fmt.Errorf("catalog update failed: %w", err))
		}
		if err := update.SelfUpdate(ctx, state.Force, state.Yes, arg); err != nil {
			errs = append(errs, fmt.Errorf("app update failed: %w", err))
		}
	case "--update-app":
		if err := update.SelfUpdate(ctx, state.Force, state.Yes, arg); err != nil {
			errs = append(errs, fmt.Errorf("app update failed: %w", err))
		}
	case "--update-catalog":
		if err := update.UpdateCatalogRepo(ctx, state.Force, state.Yes, arg); err != nil {
			errs = append(errs, fmt.Errorf("catalog update failed: %w", err))
		}
	}
	return errors.Join(errs...)
}

func handleConfigShow(ctx context.Context, conf *config.AppConfig) {
	headers := []string{
		"{{_UsageCommand_}}Option{{|-|}}",
		"{{_UsageCommand_}}Value{{|-|}}",
		"{{_UsageCommand_}}Expanded Value{{|-|}}",
	}

	boolToYesNo := func(val bool) string {
		if val {
			return "{{_Var_}}yes{{|-|}}"
		}
		return "{{_Var_}}no{{|-|}}"
	}
	folder := func(s string) string {
		return "{{_Folder_}}" + s + "{{|-|}}"
	}
	variable := func(s string) string {
		return "{{_Var_}}" + s + "{{|-|}}"
	}

	token := "not set"
	if conf.Catalog.GitHubToken != "" {
		token = "set"
	}

	data := []string{
		"Base Folder", folder(conf.Paths.BaseFolder), folder(conf.BaseDir),
		"Cache Folder", folder(conf.Paths.CacheFolder), folder(conf.CacheDir),
		"Docker Network", variable(conf.Docker.Network), "",
		"Port Range", variable(conf.Docker.PortRange), "",
		"Registry", variable(conf.Docker.Registry), "",
		"Catalog Source", variable(conf.Catalog.Source), "",
		"Catalog URL", variable(conf.Catalog.URL), "{{_URL_}}" + conf.Catalog.DocumentURL() + "{{|-|}}",
		"GitHub Repository", variable(conf.Catalog.GitHubRepo), "",
		"GitHub Branch", variable(conf.Catalog.GitHubBranch), "",
		"GitHub Token", variable(token), "",
		"Cache TTL", variable(strconv.Itoa(conf.Catalog.CacheTTL)), variable(conf.Catalog.TTL().String()),
		"Probe Repositories", boolToYesNo(conf.Catalog.ProbeRepositories), "",
		"Max Retries", variable(strconv.Itoa(conf.Catalog.MaxRetries)), "",
		"Line Characters", boolToYesNo(conf.UI.LineCharacters), "",
	}

	logger.Info(ctx, "Configuration options stored in '{{_File_}}%s{{|-|}}':", paths.GetConfigFilePath())
	console.FprintTable(logger.DisplayWriter, headers, data, conf.UI.LineCharacters)
}
