package assets

import (
	"EasyDockerDeploy/internal/constants"
	"EasyDockerDeploy/internal/logger"
	"EasyDockerDeploy/internal/paths"
	"context"
	"embed"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

//go:embed presets
var embeddedFS embed.FS

const (
	presetsDir = "presets"
	appsFile   = "apps.yml"
	stacksDir  = constants.StacksDirName
)

// PresetsDir is where EnsureAssets extracts the presets. A file there takes
// precedence over the embedded copy.
func PresetsDir() string {
	return filepath.Join(paths.GetConfigDir(), presetsDir)
}

// AppPresets returns the known application defaults.
func AppPresets() ([]byte, error) {
	return read(appsFile)
}

// Stack returns the definition of the named preset stack.
func Stack(name string) ([]byte, error) {
	if name == "" || strings.ContainsAny(name, `/\.`) {
		return nil, fmt.Errorf("invalid stack name %q", name)
	}
	data, err := read(path.Join(stacksDir, name+".yml"))
	if err != nil {
		return nil, fmt.Errorf("unknown stack %q: %w", name, err)
	}
	return data, nil
}

// StackNames lists the embedded preset stacks.
func StackNames() []string {
	entries, err := fs.ReadDir(embeddedFS, path.Join(presetsDir, stacksDir))
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		if name, ok := strings.CutSuffix(e.Name(), ".yml"); ok && !e.IsDir() {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

func read(rel string) ([]byte, error) {
	if data, err := os.ReadFile(filepath.Join(PresetsDir(), filepath.FromSlash(rel))); err == nil {
		return data, nil
	}
	return embeddedFS.ReadFile(path.Join(presetsDir, rel))
}

// EnsureAssets extracts embedded presets to the config directory if they are
// missing, so they can be customized.
func EnsureAssets(ctx context.Context) error {
	if err := extractFolder(ctx, presetsDir, PresetsDir()); err != nil {
		return fmt.Errorf("failed to extract presets: %w", err)
	}
	return nil
}

func extractFolder(ctx context.Context, srcDir, destDir string) error {
	return fs.WalkDir(embeddedFS, srcDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		relPath := strings.TrimPrefix(strings.TrimPrefix(p, srcDir), "/")
		if relPath == "" {
			return os.MkdirAll(destDir, 0755)
		}

		targetPath := filepath.Join(destDir, filepath.FromSlash(relPath))

		if d.IsDir() {
			return os.MkdirAll(targetPath, 0755)
		}

		// Never overwrite user edits
		if _, err := os.Stat(targetPath); err == nil {
			return nil
		}

		logger.Info(ctx, "Extracting asset: {{_File_}}%s{{|-|}}", relPath)

		if err := os.MkdirAll(filepath.Dir(targetPath), 0755); err != nil {
			return err
		}

		srcFile, err := embeddedFS.Open(p)
		if err != nil {
			return err
		}
		defer srcFile.Close()

		destFile, err := os.Create(targetPath)
		if err != nil {
			return err
		}
		defer destFile.Close()

		_, err = io.Copy(destFile, srcFile)
		return err
	})
}
