package exec

import (
	"EasyDockerDeploy/internal/logger"
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Runner executes external programs. Docker and compose helpers take a Runner
// so tests can record invocations instead of spawning processes.
type Runner interface {
	RunAndLog(ctx context.Context, runningNoticeType, outputNoticeType, errorNoticeType, errorMessage, command string, args ...string) error
	Output(ctx context.Context, command string, args ...string) (string, error)
}

// OSRunner is the Runner backed by os/exec.
type OSRunner struct{}

// RunAndLog implements Runner.
func (OSRunner) RunAndLog(ctx context.Context, runningNoticeType, outputNoticeType, errorNoticeType, errorMessage, command string, args ...string) error {
	return RunAndLog(ctx, runningNoticeType, outputNoticeType, errorNoticeType, errorMessage, command, args...)
}

// Output implements Runner.
func (OSRunner) Output(ctx context.Context, command string, args ...string) (string, error) {
	return RunCommandOutput(ctx, command, args...)
}

// RunAndLog executes a command, captures output, prefixes each line, and logs appropriately.
//
// Parameters:
//   - ctx: Context for the command execution
//   - runningNoticeType: Notice type for logging the "Running: ..." message ("notice", "info", etc.). Empty string to skip.
//   - outputNoticeType: Notice type for logging output. Can include prefix like "git:info" or "docker:notice". Empty string to skip.
//   - errorNoticeType: Notice type for logging errors ("error", "warn", etc.). Empty string to skip.
//   - errorMessage: Message to log on error
//   - command: Command name (e.g., "docker", "git")
//   - args: Command arguments
//
// Returns error if command fails.
func RunAndLog(ctx context.Context, runningNoticeType, outputNoticeType, errorNoticeType, errorMessage, command string, args ...string) error {
	cmdText := command
	if len(args) > 0 {
		cmdText = fmt.Sprintf("%s %s", command, strings.Join(args, " "))
	}

	// Log the running command if runningNoticeType is set
	if runningNoticeType != "" {
		logByType(ctx, runningNoticeType, "Running: {{_RunningCommand_}}%s{{|-|}}", cmdText)
	}

	// Execute the command
	cmd := exec.CommandContext(ctx, command, args...)
	var outputBuf bytes.Buffer

	// If outputNoticeType is set, capture output to process it.
	// Otherwise, stream directly to stdout/stderr.
	if outputNoticeType != "" {
		cmd.Stdout = &outputBuf
		cmd.Stderr = &outputBuf
	} else {
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
	}

	err := cmd.Run()
	output := outputBuf.String()

	// Process output if we have any and outputNoticeType is set
	if outputNoticeType != "" && output != "" {
		// Parse prefix and notice type (e.g., "docker:notice" -> prefix="docker:", type="notice")
		prefix := ""
		noticeType := outputNoticeType
		if strings.Contains(outputNoticeType, ":") {
			parts := strings.SplitN(outputNoticeType, ":", 2)
			prefix = parts[0] + ":"
			noticeType = parts[1]
		}

		// Prefix each line and log
		scanner := bufio.NewScanner(strings.NewReader(output))
		for scanner.Scan() {
			line := scanner.Text()
			if line != "" { // Skip empty lines
				if prefix != "" {
					prefixedLine := fmt.Sprintf("{{_RunningCommand_}}%s{{|-|}} %s", prefix, line)
					logByType(ctx, noticeType, prefixedLine)
				} else {
					logByType(ctx, noticeType, line)
				}
			}
		}
	}

	// Handle error
	if err != nil {
		if errorNoticeType != "" && errorMessage != "" {
			// Log error message and failing command
			logByType(ctx, errorNoticeType, errorMessage)
			logByType(ctx, errorNoticeType, "Failing command: {{_FailingCommand_}}%s{{|-|}}", cmdText)
		}
		return &CommandError{Command: cmdText, Output: output, Err: err}
	}

	return nil
}

// logByType logs a message with the appropriate logger function based on type
func logByType(ctx context.Context, noticeType string, format string, args ...any) {
	switch strings.ToLower(noticeType) {
	case "notice":
		logger.Notice(ctx, format, args...)
	case "info":
		logger.Info(ctx, format, args...)
	case "warn", "warning":
		logger.Warn(ctx, format, args...)
	case "error":
		logger.Error(ctx, format, args...)
	case "debug":
		logger.Debug(ctx, format, args...)
	default:
		logger.Notice(ctx, format, args...)
	}
}

// RunCommand executes a command without logging. Use this for simple command execution.
func RunCommand(ctx context.Context, command string, args ...string) error {
	cmd := exec.CommandContext(ctx, command, args...)
	return cmd.Run()
}

// RunCommandOutput executes a command and returns its combined output.
func RunCommandOutput(ctx context.Context, command string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, command, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return string(output), &CommandError{Command: strings.TrimSpace(command + " " + strings.Join(args, " ")), Output: string(output), Err: err}
	}
	return string(output), nil
}

// CommandError reports a failed external command together with what it printed.
type CommandError struct {
	Command string
	Output  string
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command failed: %s: %v", e.Command, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}
