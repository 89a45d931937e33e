package cmd

import (
	"EasyDockerDeploy/internal/cache"
	"EasyDockerDeploy/internal/catalog"
	"EasyDockerDeploy/internal/console"
	"EasyDockerDeploy/internal/logger"
	"EasyDockerDeploy/internal/strutil"
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// descriptionWidth is the width the description column is cut to. A wide
// terminal gets the room left over by the other columns.
func descriptionWidth() int {
	const minWidth, otherColumns = 60, 70
	if !console.IsTTY() {
		return minWidth
	}
	return max(minWidth, console.TerminalWidth()-otherColumns)
}

func (a *app) handleList(ctx context.Context, group *CommandGroup, state *CmdState) error {
	cat, err := a.catalog(ctx, state.Force)
	if err != nil {
		return err
	}
	query := strings.Join(group.Args, " ")

	var apps []catalog.Application
	var title string
	switch group.Command {
	case "-l", "--list":
		if query == "" {
			apps, title = cat.All(), "applications"
		} else {
			apps, title = cat.ByCategory(query), fmt.Sprintf("applications in {{_Category_}}%s{{|-|}}", query)
		}
	case "--category":
		apps, title = cat.ByCategory(query), fmt.Sprintf("applications in {{_Category_}}%s{{|-|}}", query)
	case "--search":
		apps, title = cat.Search(query), fmt.Sprintf("applications matching '{{_Highlight_}}%s{{|-|}}'", query)
	case "--docker-ready":
		apps, title = cat.DockerReadyOnly(), "{{_Docker_}}Docker ready{{|-|}} applications"
	}

	if len(apps) == 0 {
		logger.Notice(ctx, "No %s found.", title)
		if query != "" && group.Command != "--search" {
			logger.Notice(ctx, "Run '{{_UserCommand_}}edd --categories{{|-|}}' to see the available categories.")
		}
		return nil
	}
	a.printApplications(apps)
	logger.Notice(ctx, "Found {{_Highlight_}}%d{{|-|}} %s.", len(apps), title)
	return nil
}

func (a *app) printApplications(apps []catalog.Application) {
	headers := []string{
		"{{_UsageCommand_}}Name{{|-|}}",
		"{{_UsageCommand_}}Category{{|-|}}",
		"{{_UsageCommand_}}Language{{|-|}}",
		"{{_UsageCommand_}}Docker{{|-|}}",
		"{{_UsageCommand_}}Description{{|-|}}",
	}
	width := descriptionWidth()
	data := make([]string, 0, len(apps)*len(headers))
	for _, entry := range apps {
		data = append(data,
			"{{_App_}}"+entry.Name+"{{|-|}}",
			"{{_Category_}}"+entry.Category+"{{|-|}}",
			"{{_Language_}}"+entry.LanguageOr("-")+"{{|-|}}",
			dockerMark(entry.DockerReady),
			strutil.Limit(entry.Description, width),
		)
	}
	console.FprintTable(logger.DisplayWriter, headers, data, a.conf.UI.LineCharacters)
}

func dockerMark(ready bool) string {
	if ready {
		return "{{_Docker_}}yes{{|-|}}"
	}
	return "{{_NotDocker_}}no{{|-|}}"
}

func (a *app) handleCategories(ctx context.Context, state *CmdState) error {
	cat, err := a.catalog(ctx, state.Force)
	if err != nil {
		return err
	}
	headers := []string{
		"{{_UsageCommand_}}Category{{|-|}}",
		"{{_UsageCommand_}}Applications{{|-|}}",
	}
	categories := cat.Categories()
	data := make([]string, 0, len(categories)*2)
	for _, c := range categories {
		data = append(data, "{{_Category_}}"+c.Name+"{{|-|}}", strconv.Itoa(c.Count))
	}
	console.FprintTable(logger.DisplayWriter, headers, data, a.conf.UI.LineCharacters)
	logger.Notice(ctx, "Found {{_Highlight_}}%d{{|-|}} categories.", len(categories))
	return nil
}

func (a *app) handleInfo(ctx context.Context, group *CommandGroup, state *CmdState) error {
	cat, err := a.catalog(ctx, state.Force)
	if err != nil {
		return err
	}
	name := strings.Join(group.Args, " ")
	entry, ok := cat.Get(name)
	if !ok {
		return fmt.Errorf("no application named '{{_App_}}%s{{|-|}}' in the catalog", name)
	}

	optional := func(tag string, v *string) string {
		if v == nil {
			return "-"
		}
		return "{{_" + tag + "_}}" + *v + "{{|-|}}"
	}

	logger.Display(ctx, "{{_App_}}%s{{|-|}}", entry.Name)
	logger.Display(ctx, "  %s", entry.Description)
	logger.Display(ctx, "")
	logger.Display(ctx, "  Category:         {{_Category_}}%s{{|-|}}", entry.Category)
	logger.Display(ctx, "  Language:         %s", optional("Language", entry.Language))
	logger.Display(ctx, "  License:          %s", optional("License", entry.LicenseType))
	logger.Display(ctx, "  Docker ready:     %s", dockerMark(entry.DockerReady))
	logger.Display(ctx, "  Docker image:     %s", optional("Image", entry.DockerURL))
	logger.Display(ctx, "  Repository:       %s", optional("URL", entry.RepositoryURL))
	logger.Display(ctx, "  Deployment guide: %s", optional("URL", entry.DeploymentGuide))
	return nil
}

func (a *app) handleRefresh(ctx context.Context) error {
	svc, err := a.catalogService()
	if err != nil {
		return err
	}
	apps, err := svc.GetApplications(ctx, true)
	if err != nil {
		return err
	}
	diagnostics := svc.Diagnostics()
	for _, d := range diagnostics {
		logger.Debug(ctx, "%s", d)
	}
	if len(diagnostics) > 0 {
		logger.Warn(ctx, "Skipped {{_Highlight_}}%d{{|-|}} malformed lines. Run with '{{_UserCommand_}}-x{{|-|}}' to see them.", len(diagnostics))
	}
	logger.Notice(ctx, "Cached {{_Highlight_}}%d{{|-|}} applications.", len(apps))
	return nil
}

func (a *app) handleCacheStatus(ctx context.Context) error {
	svc, err := a.catalogService()
	if err != nil {
		return err
	}
	st := svc.CacheStatus()
	state := cacheState(st, svc.TTL())

	headers := []string{
		"{{_UsageCommand_}}Key{{|-|}}",
		"{{_UsageCommand_}}File{{|-|}}",
		"{{_UsageCommand_}}Status{{|-|}}",
		"{{_UsageCommand_}}TTL{{|-|}}",
	}
	data := []string{
		"{{_Key_}}" + st.Key + "{{|-|}}",
		"{{_File_}}" + st.Path + "{{|-|}}",
		state,
		svc.TTL().String(),
	}
	console.FprintTable(logger.DisplayWriter, headers, data, a.conf.UI.LineCharacters)
	return nil
}

func (a *app) handleClearCache(ctx context.Context, group *CommandGroup) error {
	svc, err := a.catalogService()
	if err != nil {
		return err
	}
	if err := svc.ClearCache(group.Args...); err != nil {
		return err
	}
	if len(group.Args) == 0 {
		logger.Notice(ctx, "Cleared the catalog cache.")
	} else {
		logger.Notice(ctx, "Cleared the catalog cache for {{_Key_}}%s{{|-|}}.", strings.Join(group.Args, ", "))
	}
	return nil
}

// cacheState renders the status column. An entry as old as the TTL is
// expired, as in cache.Store.IsValid.
func cacheState(st cache.Status, ttl time.Duration) string {
	switch {
	case !st.Exists:
		return "{{_NotDocker_}}" + st.Describe() + "{{|-|}}"
	case st.Age >= ttl:
		return "{{_Update_}}" + st.Describe() + ", expired{{|-|}}"
	default:
		return "{{_Docker_}}" + st.Describe() + "{{|-|}}"
	}
}
