package deploy

import (
	"EasyDockerDeploy/internal/compose"
	"EasyDockerDeploy/internal/logger"
	"EasyDockerDeploy/internal/system"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Writer writes deployment directories: the compose file, the .env file and
// the host folders mounted as volumes.
type Writer struct {
	ensureDir func(ctx context.Context, path string) error
}

// NewWriter creates a Writer that hands created folders to the sudo user.
func NewWriter() *Writer {
	return &Writer{ensureDir: system.EnsureOwnedDir}
}

// Write writes the plan and reports whether the compose or .env file changed.
func (w *Writer) Write(ctx context.Context, plan *Plan) (bool, error) {
	changed, err := w.writeProject(ctx, plan.Project(), plan.ComposeFile(), plan.Environment, plan.HostFolders())
	if err != nil {
		var de *Error
		if errors.As(err, &de) {
			de.App = plan.App.Name
		}
		return false, err
	}
	return changed, nil
}

// WriteStack writes a preset stack.
func (w *Writer) WriteStack(ctx context.Context, plan *StackPlan) (bool, error) {
	changed, err := w.writeProject(ctx, plan.Project(), plan.File, plan.Environment, plan.Folders)
	if err != nil {
		return false, err
	}
	return changed, nil
}

func (w *Writer) writeProject(ctx context.Context, p compose.Project, f *compose.File, env map[string]string, folders []string) (bool, error) {
	if err := w.ensureDir(ctx, p.Dir); err != nil {
		return false, newError(KindVolume, p.Name, err)
	}
	for _, folder := range folders {
		if err := w.ensureDir(ctx, folder); err != nil {
			return false, newError(KindVolume, p.Name, err)
		}
	}

	content, err := compose.ValidateFile(ctx, p.Name, p.Dir, f)
	if err != nil {
		return false, newError(KindConfiguration, p.Name, err)
	}

	composeChanged, err := writeIfChanged(ctx, p.ComposeFile(), content, true)
	if err != nil {
		return false, newError(KindConfiguration, p.Name, err)
	}

	envChanged := false
	if len(env) > 0 {
		envChanged, err = writeIfChanged(ctx, p.EnvFile(), []byte(EnvFileContent(env)), false)
		if err != nil {
			return false, newError(KindConfiguration, p.Name, err)
		}
	} else if _, err := os.Stat(p.EnvFile()); err == nil {
		if err := os.Remove(p.EnvFile()); err != nil {
			return false, newError(KindConfiguration, p.Name, err)
		}
		envChanged = true
	}

	if composeChanged || envChanged {
		logger.Notice(ctx, "Wrote '{{_File_}}%s{{|-|}}'.", p.ComposeFile())
	} else {
		logger.Info(ctx, "'{{_File_}}%s{{|-|}}' is up to date.", p.ComposeFile())
	}
	return composeChanged || envChanged, nil
}

// writeIfChanged writes content to path unless it already holds it. When
// showDiff is set, changes to an existing file are logged as a diff.
func writeIfChanged(ctx context.Context, path string, content []byte, showDiff bool) (bool, error) {
	old, err := os.ReadFile(path)
	switch {
	case err == nil && bytes.Equal(old, content):
		return false, nil
	case err == nil && showDiff:
		logger.Notice(ctx, "Updating '{{_File_}}%s{{|-|}}':", filepath.Base(path))
		for _, line := range strings.Split(strings.TrimSuffix(UnifiedDiff(string(old), string(content)), "\n"), "\n") {
			switch {
			case strings.HasPrefix(line, "+"):
				logger.Notice(ctx, "{{_DiffAdd_}}%s{{|-|}}", line)
			case strings.HasPrefix(line, "-"):
				logger.Notice(ctx, "{{_DiffRemove_}}%s{{|-|}}", line)
			default:
				logger.Info(ctx, "{{_Diff_}}%s{{|-|}}", line)
			}
		}
	case err != nil && !os.IsNotExist(err):
		return false, fmt.Errorf("failed to read %s: %w", path, err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, content, 0644); err != nil {
		return false, fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return false, fmt.Errorf("failed to write %s: %w", path, err)
	}
	return true, nil
}

// UnifiedDiff renders a line diff of two texts. Every line is prefixed with
// "+", "-" or a space.
func UnifiedDiff(oldText, newText string) string {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(oldText, newText)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var sb strings.Builder
	for _, d := range diffs {
		prefix := " "
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			prefix = "+"
		case diffmatchpatch.DiffDelete:
			prefix = "-"
		}
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			sb.WriteString(prefix)
			sb.WriteString(line)
			if !strings.HasSuffix(line, "\n") {
				sb.WriteString("\n")
			}
		}
	}
	return sb.String()
}

// EnvFileContent renders env as sorted KEY=VALUE lines.
func EnvFileContent(env map[string]string) string {
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&sb, "%s=%s\n", k, env[k])
	}
	return sb.String()
}
