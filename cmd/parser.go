package cmd

import (
	"EasyDockerDeploy/internal/compose"
	"EasyDockerDeploy/internal/deploy"
	"EasyDockerDeploy/internal/version"
	"errors"
	"fmt"
	"strings"
)

var ErrHelp = errors.New("help shown")

// ParseError reports where the command line went wrong, pointing a caret at
// the failing argument.
type ParseError struct {
	Args           []string // The full argument list passed to Parse
	Index          int      // The index where the error occurred
	Message        string   // %c is replaced by the command, %o by the failing option
	FailingCommand string   // The command being processed (e.g. "--deploy")
}

func (e *ParseError) Error() string {
	indent := "   "

	cmdLineParts := []string{fmt.Sprintf("{{_UserCommand_}}%s{{|-|}}", version.CommandName)}
	for i := 0; i <= e.Index && i < len(e.Args); i++ {
		str := e.Args[i]
		if i == e.Index {
			str = fmt.Sprintf("{{_UserCommandError_}}%s{{|-|}}", str)
		} else {
			str = fmt.Sprintf("{{_UserCommand_}}%s{{|-|}}", str)
		}
		cmdLineParts = append(cmdLineParts, str)
	}
	cmdLineStr := "'" + strings.Join(cmdLineParts, " ") + "'"

	// indent + quote + command name + space
	caretOffset := len(indent) + 1 + len(version.CommandName) + 1
	for i := 0; i < e.Index && i < len(e.Args); i++ {
		caretOffset += len(e.Args[i]) + 1
	}
	pointerLine := strings.Repeat(" ", caretOffset) + "{{_UserCommandErrorMarker_}}^{{|-|}}"

	failingOpt := ""
	if e.Index < len(e.Args) {
		failingOpt = e.Args[e.Index]
	}
	replacer := strings.NewReplacer(
		"%c", fmt.Sprintf("'{{_UserCommand_}}%s{{|-|}}'", e.FailingCommand),
		"%o", fmt.Sprintf("'{{_UserCommand_}}%s{{|-|}}'", failingOpt),
	)
	formattedMsg := replacer.Replace(e.Message)

	var sb strings.Builder
	fmt.Fprintf(&sb, "Error in command line:\n\n%s%s\n%s\n\n%s%s\n", indent, cmdLineStr, pointerLine, indent, formattedMsg)
	if e.FailingCommand != "" {
		fmt.Fprintf(&sb, "\n%sUsage is:\n", indent)
		for _, line := range strings.Split(GetUsage(e.FailingCommand), "\n") {
			fmt.Fprintf(&sb, "%s%s\n", indent, line)
		}
	} else {
		fmt.Fprintf(&sb, "\n%sRun '{{_UserCommand_}}%s --help{{|-|}}' for usage.\n", indent, version.CommandName)
	}
	return sb.String()
}

// CommandGroup is one command with the modifiers that precede it and the
// arguments it consumed.
type CommandGroup struct {
	Flags   []string
	Command string
	Args    []string
}

// FullSlice returns the reconstructed slice of strings for the group
func (cg CommandGroup) FullSlice() []string {
	var s []string
	s = append(s, cg.Flags...)
	if cg.Command != "" {
		s = append(s, cg.Command)
	}
	s = append(s, cg.Args...)
	return s
}

// CommandSlice returns the command and its arguments as a slice
func (cg CommandGroup) CommandSlice() []string {
	var s []string
	if cg.Command != "" {
		s = append(s, cg.Command)
	}
	s = append(s, cg.Args...)
	return s
}

// HasFlag reports whether one of the given modifiers precedes the command.
func (cg CommandGroup) HasFlag(names ...string) bool {
	for _, f := range cg.Flags {
		for _, n := range names {
			if f == n {
				return true
			}
		}
	}
	return false
}

// Flatten converts a slice of CommandGroups into a single slice of strings
func Flatten(groups []CommandGroup) []string {
	var s []string
	for _, g := range groups {
		s = append(s, g.FullSlice()...)
	}
	return s
}

var modifiers = map[string]bool{
	"-f": true, "--force": true,
	"-v": true, "--verbose": true,
	"-x": true, "--debug": true,
	"-y": true, "--yes": true,
}

// deployValueOptions take a value, either as the next argument or after "=".
var deployValueOptions = map[string]bool{
	"--port": true, "--volume": true, "--network": true, "--env": true,
}

func isDeployOption(arg string) bool {
	name, _, _ := strings.Cut(arg, "=")
	return deployValueOptions[name] || name == "--no-pull"
}

// Parse splits the command line into command groups. Modifiers apply to the
// command that follows them.
func Parse(args []string) ([]CommandGroup, error) {
	// Expand combined short flags (e.g. -fy -> -f -y)
	var expandedArgs []string
	for _, arg := range args {
		if strings.HasPrefix(arg, "-") && !strings.HasPrefix(arg, "--") && len(arg) > 2 {
			for _, c := range arg[1:] {
				expandedArgs = append(expandedArgs, fmt.Sprintf("-%c", c))
			}
		} else {
			expandedArgs = append(expandedArgs, arg)
		}
	}

	isArg := func(i int) bool {
		return i < len(expandedArgs) && !strings.HasPrefix(expandedArgs[i], "-")
	}

	var groups []CommandGroup
	var currentGroup CommandGroup
	var lastCommand string

	i := 0
	for i < len(expandedArgs) {
		arg := expandedArgs[i]

		if !strings.HasPrefix(arg, "-") {
			return nil, &ParseError{Args: expandedArgs, Index: i, Message: fmt.Sprintf("Invalid option '%s'", arg), FailingCommand: lastCommand}
		}

		if modifiers[arg] {
			currentGroup.Flags = append(currentGroup.Flags, arg)
			lastCommand = arg
			i++
			continue
		}

		if isDeployOption(arg) {
			return nil, &ParseError{Args: expandedArgs, Index: i, Message: "Option %o is only valid after '{{_UserCommand_}}--deploy{{|-|}}'."}
		}
		if lookupCommand(arg) == nil {
			return nil, &ParseError{Args: expandedArgs, Index: i, Message: "Invalid option %o"}
		}

		currentGroup.Command = arg
		lastCommand = arg
		cmd := arg
		i++

		consumesUntilDash := false

		switch cmd {
		// Commands that require at least one argument, taking all until the next flag
		case "--search", "--category", "--info":
			if !isArg(i) {
				return nil, &ParseError{Args: expandedArgs, Index: i - 1, FailingCommand: cmd, Message: fmt.Sprintf("Command %s requires an argument.", cmd)}
			}
			consumesUntilDash = true

		// Commands that take optional arguments until the next flag
		case "-l", "--list", "--clear-cache":
			consumesUntilDash = true

		case "-c", "--compose":
			if !isArg(i) {
				return nil, &ParseError{Args: expandedArgs, Index: i - 1, FailingCommand: cmd, Message: fmt.Sprintf("Command %s requires an argument.", cmd)}
			}
			sub := expandedArgs[i]
			if !isComposeCommand(sub) {
				return nil, &ParseError{Args: expandedArgs, Index: i, FailingCommand: cmd, Message: "Invalid option %o"}
			}
			currentGroup.Args = append(currentGroup.Args, sub)
			i++
			consumesUntilDash = true

		case "-d", "--deploy":
			start := i
			for i < len(expandedArgs) {
				next := expandedArgs[i]
				if !strings.HasPrefix(next, "-") {
					currentGroup.Args = append(currentGroup.Args, next)
					i++
					continue
				}
				if !isDeployOption(next) {
					break
				}
				currentGroup.Args = append(currentGroup.Args, next)
				i++
				if deployValueOptions[next] {
					if !isArg(i) {
						return nil, &ParseError{Args: expandedArgs, Index: i - 1, FailingCommand: cmd, Message: "Option %o requires a value."}
					}
					currentGroup.Args = append(currentGroup.Args, expandedArgs[i])
					i++
				}
			}
			if _, err := parseDeployArgs(currentGroup.Args); err != nil {
				index := start - 1
				if i > start {
					index = i - 1
				}
				return nil, &ParseError{Args: expandedArgs, Index: index, FailingCommand: cmd, Message: err.Error()}
			}

		// Commands that require exactly one argument
		case "--preset":
			if !isArg(i) {
				return nil, &ParseError{Args: expandedArgs, Index: i - 1, FailingCommand: cmd, Message: fmt.Sprintf("Command %s requires an argument.", cmd)}
			}
			currentGroup.Args = append(currentGroup.Args, expandedArgs[i])
			i++

		// Commands that accept an optional argument
		case "-u", "--update", "--update-app", "--update-catalog", "-V", "--version":
			if isArg(i) {
				currentGroup.Args = append(currentGroup.Args, expandedArgs[i])
				i++
			}

		case "-h", "--help":
			// Help takes the flag to describe
			if i < len(expandedArgs) && strings.HasPrefix(expandedArgs[i], "-") {
				currentGroup.Args = append(currentGroup.Args, expandedArgs[i])
				i++
			}

		// Commands that take no arguments; anything left over fails on the next pass
		case "--categories", "--docker-ready", "--refresh", "--cache-status",
			"-s", "--status", "-p", "--prune", "--config-show":
		}

		if consumesUntilDash {
			for isArg(i) {
				currentGroup.Args = append(currentGroup.Args, expandedArgs[i])
				i++
			}
		}

		groups = append(groups, currentGroup)
		currentGroup = CommandGroup{}
	}

	// Trailing modifiers without a command
	if len(currentGroup.Flags) > 0 {
		groups = append(groups, currentGroup)
	}

	return groups, nil
}

func isComposeCommand(s string) bool {
	for _, c := range compose.Commands {
		if c == s {
			return true
		}
	}
	return false
}

// deployRequest is the parsed argument list of a --deploy group.
type deployRequest struct {
	App       string
	Overrides deploy.Overrides
	NoPull    bool
}

// parseDeployArgs reads the application name and its options. Options are
// accepted as "--port 8081", "--port=8081" or "port=8081".
func parseDeployArgs(args []string) (deployRequest, error) {
	var req deployRequest
	var words []string

	for i := 0; i < len(args); i++ {
		arg := args[i]
		key, value, hasValue := strings.Cut(strings.TrimPrefix(arg, "--"), "=")
		dashed := strings.HasPrefix(arg, "--")

		switch {
		case key == "no-pull" && !hasValue:
			req.NoPull = true
			continue
		case !deployValueOptions["--"+key]:
			if dashed {
				return req, fmt.Errorf("Unknown deploy option '%s'.", arg)
			}
			words = append(words, arg)
			continue
		case !dashed && !hasValue:
			// A bare word such as "network" is part of the application name.
			words = append(words, arg)
			continue
		case dashed && !hasValue:
			if i+1 >= len(args) {
				return req, fmt.Errorf("Option '--%s' requires a value.", key)
			}
			i++
			value = args[i]
		}

		if value == "" {
			return req, fmt.Errorf("Option '%s' requires a value.", key)
		}
		switch key {
		case "port":
			req.Overrides.Ports = append(req.Overrides.Ports, value)
		case "volume":
			req.Overrides.Volumes = append(req.Overrides.Volumes, value)
		case "network":
			req.Overrides.Network = value
		case "env":
			name, val, ok := strings.Cut(value, "=")
			if !ok || name == "" {
				return req, fmt.Errorf("Environment option '%s' must be in the form KEY=VALUE.", value)
			}
			if req.Overrides.Env == nil {
				req.Overrides.Env = map[string]string{}
			}
			req.Overrides.Env[name] = val
		}
	}

	if len(words) == 0 {
		return req, errors.New("Command %c requires an application name.")
	}
	req.App = strings.Join(words, " ")
	return req, nil
}
