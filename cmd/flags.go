package cmd

import (
	"EasyDockerDeploy/internal/version"
	"strings"
	"sync"

	"github.com/spf13/pflag"
)

// commandFlags is the set of known commands, used to validate the command
// line and to look up help text.
var commandFlags = sync.OnceValue(newFlagSet)

func newFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet(version.CommandName, pflag.ContinueOnError)

	// Modifiers
	fs.BoolP("force", "f", false, "Force execution")
	fs.BoolP("verbose", "v", false, "Verbose output")
	fs.BoolP("debug", "x", false, "Debug output")
	fs.BoolP("yes", "y", false, "Assume yes")
	fs.BoolP("help", "h", false, "Show help")

	// Catalog
	fs.StringP("list", "l", "", "List applications (optionally of one category)")
	fs.String("search", "", "Search applications by name or description")
	fs.String("category", "", "List the applications of a category")
	fs.Bool("categories", false, "List categories")
	fs.Bool("docker-ready", false, "List Docker ready applications")
	fs.String("info", "", "Show application details")
	fs.Bool("refresh", false, "Refresh the catalog cache")
	fs.Bool("cache-status", false, "Show the catalog cache status")
	fs.String("clear-cache", "", "Clear the catalog cache")

	// Deployment
	fs.StringP("deploy", "d", "", "Deploy an application")
	fs.String("preset", "", "Deploy a preset stack")
	fs.StringP("compose", "c", "", "Docker Compose operations (up, down, pull, etc.)")
	fs.BoolP("status", "s", false, "Show managed containers")
	fs.BoolP("prune", "p", false, "Prune docker resources")

	// Deploy sub-options, only valid after --deploy
	fs.String("port", "", "Host port or host:container mapping")
	fs.String("volume", "", "Volume mapping or host folder")
	fs.String("network", "", "Docker network")
	fs.String("env", "", "Environment variable KEY=VALUE")
	fs.Bool("no-pull", false, "Do not pull the image")

	// Application
	fs.Bool("config-show", false, "Show configuration")
	fs.StringP("version", "V", "", "Show version")
	fs.StringP("update", "u", "", "Update EasyDockerDeploy and the catalog repository")
	fs.String("update-app", "", "Update EasyDockerDeploy only (can specify version)")
	fs.String("update-catalog", "", "Update the catalog repository only (can specify branch)")

	return fs
}

// lookupCommand finds the flag for "--name" or "-n".
func lookupCommand(arg string) *pflag.Flag {
	fs := commandFlags()
	name, _, _ := strings.Cut(arg, "=")
	switch {
	case strings.HasPrefix(name, "--"):
		return fs.Lookup(name[2:])
	case len(name) == 2 && name[0] == '-':
		return fs.ShorthandLookup(name[1:])
	}
	return nil
}
