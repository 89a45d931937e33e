package cmd

import (
	"EasyDockerDeploy/internal/compose"
	"EasyDockerDeploy/internal/console"
	"EasyDockerDeploy/internal/logger"
	"EasyDockerDeploy/internal/version"
	"fmt"
	"strings"
)

// PrintHelp prints usage information.
// If target is empty, prints global usage.
// If target is specified, prints usage for that specific flag/command.
func PrintHelp(target string) {
	fmt.Fprintln(logger.DisplayWriter, console.Parse(GetUsage(target)))
}

// GetUsage returns usage information as a string.
// If target is empty, returns global usage.
// If target is specified, returns usage for that specific flag/command.
func GetUsage(target string) string {
	var sb strings.Builder
	printStr := func(s string) {
		sb.WriteString(s + "\n")
	}

	appName := version.ApplicationName
	appCmd := version.CommandName

	if target == "" {
		printStr(fmt.Sprintf("Usage: {{_UsageCommand_}}%s{{|-|}} [{{_UsageCommand_}}<Flags>{{|-|}}] [{{_UsageCommand_}}<Command>{{|-|}}] ...", appCmd))
		printStr("")
		printStr(fmt.Sprintf("{{_ApplicationName_}}%s{{|-|}} [{{_Version_}}%s{{|-|}}]", appName, version.Version))
		printStr("Browse the awesome-selfhosted catalog and deploy applications with Docker Compose.")
		printStr("")
		printStr("You may include multiple commands on the command-line, and they will be executed in")
		printStr("the order given, only stopping on an error. Any flags included only apply to the")
		printStr("following command, and get reset before the next command.")
		printStr("")
		printStr("Flags:")
		printStr("")
	}

	showAll := target == ""
	match := func(opts ...string) bool {
		if showAll {
			return true
		}
		for _, o := range opts {
			if o == target {
				return true
			}
		}
		return false
	}

	// Flags
	if match("-f", "--force") {
		printStr("{{_UsageCommand_}}-f --force{{|-|}}")
		printStr("	Refresh the catalog or rerun compose even when nothing changed")
	}
	if match("-v", "--verbose") {
		printStr("{{_UsageCommand_}}-v --verbose{{|-|}}")
		printStr("	Verbose")
	}
	if match("-x", "--debug") {
		printStr("{{_UsageCommand_}}-x --debug{{|-|}}")
		printStr("	Debug")
	}
	if match("-y", "--yes") {
		printStr("{{_UsageCommand_}}-y --yes{{|-|}}")
		printStr("	Assume Yes for all prompts")
	}

	if showAll {
		printStr("")
		printStr("Catalog Commands:")
		printStr("")
	}

	if match("-l", "--list") {
		printStr("{{_UsageCommand_}}-l --list{{|-|}} [{{_UsageCategory_}}<category>{{|-|}}]")
		printStr("	List all applications, or those of a category")
	}
	if match("--search") {
		printStr("{{_UsageCommand_}}--search{{|-|}} {{_UsageOption_}}<query>{{|-|}}")
		printStr("	Search application names and descriptions")
	}
	if match("--category") {
		printStr("{{_UsageCommand_}}--category{{|-|}} {{_UsageCategory_}}<category>{{|-|}}")
		printStr("	List the applications of a category")
	}
	if match("--categories") {
		printStr("{{_UsageCommand_}}--categories{{|-|}}")
		printStr("	List the categories with their number of applications")
	}
	if match("--docker-ready") {
		printStr("{{_UsageCommand_}}--docker-ready{{|-|}}")
		printStr("	List the applications that look Docker ready")
	}
	if match("--info") {
		printStr("{{_UsageCommand_}}--info{{|-|}} {{_UsageApp_}}<app>{{|-|}}")
		printStr("	Show the details of an application")
	}
	if match("--refresh") {
		printStr("{{_UsageCommand_}}--refresh{{|-|}}")
		printStr("	Download the catalog again and rewrite the cache")
	}
	if match("--cache-status") {
		printStr("{{_UsageCommand_}}--cache-status{{|-|}}")
		printStr("	Show where the catalog is cached and how old it is")
	}
	if match("--clear-cache") {
		printStr("{{_UsageCommand_}}--clear-cache{{|-|}} [{{_UsageOption_}}<key>{{|-|}}]")
		printStr("	Remove one cache entry, or all of them")
	}

	if showAll {
		printStr("")
		printStr("Deployment Commands:")
		printStr("")
	}

	if match("-d", "--deploy", "--port", "--volume", "--network", "--env", "--no-pull") {
		printStr("{{_UsageCommand_}}-d --deploy{{|-|}} {{_UsageApp_}}<app>{{|-|}} [{{_UsageOption_}}--port <port>{{|-|}}] [{{_UsageOption_}}--volume <volume>{{|-|}}] [{{_UsageOption_}}--network <network>{{|-|}}] [{{_UsageOption_}}--env <KEY=VALUE>{{|-|}}] [{{_UsageOption_}}--no-pull{{|-|}}]")
		printStr("	Write the compose project of an application and start it.")
		printStr("	Options may also be given as '{{_UsageOption_}}port=8081{{|-|}}' or '{{_UsageOption_}}env=KEY=VALUE{{|-|}}'.")
		printStr("	Without '{{_UsageCommand_}}-y{{|-|}}' you are asked before the containers are started.")
	}
	if match("--preset") {
		printStr("{{_UsageCommand_}}--preset{{|-|}} {{_UsageOption_}}<stack>{{|-|}}")
		printStr("	Deploy a preset stack. Available stacks: " + presetNames())
	}
	if match("-c", "--compose") {
		printStr(fmt.Sprintf("{{_UsageCommand_}}-c --compose{{|-|}} < %s > [{{_UsageApp_}}<app>{{|-|}} ...]", composeCommandList()))
		printStr("	Run docker compose commands on deployed applications, or on all of them.")
		printStr("	The '{{_UsageOption_}}update{{|-|}}' command is the same as a '{{_UsageOption_}}pull{{|-|}}' followed by an '{{_UsageOption_}}up{{|-|}}'")
	}
	if match("-s", "--status") {
		printStr("{{_UsageCommand_}}-s --status{{|-|}}")
		printStr("	List the containers deployed by " + appName)
	}
	if match("-p", "--prune") {
		printStr("{{_UsageCommand_}}-p --prune{{|-|}}")
		printStr("	Remove unused docker resources")
	}

	if showAll {
		printStr("")
		printStr("Other Commands:")
		printStr("")
	}

	if match("--config-show") {
		printStr("{{_UsageCommand_}}--config-show{{|-|}}")
		printStr(fmt.Sprintf("	Shows the current configuration from '{{_UsageFile_}}%s.toml{{|-|}}'", appCmd))
	}
	if match("-h", "--help") {
		printStr("{{_UsageCommand_}}-h --help{{|-|}}")
		printStr("	Show this usage information")
		printStr("{{_UsageCommand_}}-h --help{{|-|}} {{_UsageOption_}}<option>{{|-|}}")
		printStr("	Show the usage of the specified option")
	}
	if match("-u", "--update", "--update-app", "--update-catalog") {
		printStr("{{_UsageCommand_}}-u --update{{|-|}}")
		printStr(fmt.Sprintf("	Update {{_ApplicationName_}}%s{{|-|}} and the catalog repository", appName))
		printStr("{{_UsageCommand_}}--update-app{{|-|}} [{{_UsageOption_}}<version>{{|-|}}]")
		printStr(fmt.Sprintf("	Update {{_ApplicationName_}}%s{{|-|}} only, optionally to a specific version", appName))
		printStr("{{_UsageCommand_}}--update-catalog{{|-|}} [{{_UsageOption_}}<branch>{{|-|}}]")
		printStr("	Update the cloned catalog repository only")
	}
	if match("-V", "--version") {
		printStr("{{_UsageCommand_}}-V --version{{|-|}}")
		printStr("	Display version information")
	}

	return strings.TrimSuffix(sb.String(), "\n")
}

func composeCommandList() string {
	parts := make([]string, len(compose.Commands))
	for i, c := range compose.Commands {
		parts[i] = fmt.Sprintf("{{_UsageOption_}}%s{{|-|}}", c)
	}
	return strings.Join(parts, " | ")
}
