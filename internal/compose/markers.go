package compose

import (
	"EasyDockerDeploy/internal/constants"
	"EasyDockerDeploy/internal/logger"
	"EasyDockerDeploy/internal/paths"
	"context"
	"os"
	"path/filepath"
)

// NeedsUp reports whether the project's compose or .env file changed since
// it was last brought up. A project that was never started needs up.
func NeedsUp(p Project) bool {
	if !fileExists(markerPath(p, constants.ComposeFileName)) {
		return true
	}
	return fileChanged(p.ComposeFile(), markerPath(p, constants.ComposeFileName)) ||
		fileChanged(p.EnvFile(), markerPath(p, constants.EnvFileName))
}

// MarkUp records the current modification times of the project's files.
func MarkUp(ctx context.Context, p Project) {
	for _, name := range []string{constants.ComposeFileName, constants.EnvFileName} {
		if err := updateTimestamp(filepath.Join(p.Dir, name), markerPath(p, name)); err != nil {
			logger.Debug(ctx, "Failed to update marker for {{_File_}}%s{{|-|}}: %v", name, err)
		}
	}
}

// ClearUp removes the project's markers.
func ClearUp(p Project) {
	for _, name := range []string{constants.ComposeFileName, constants.EnvFileName} {
		_ = os.Remove(markerPath(p, name))
	}
}

func markerPath(p Project, filename string) string {
	return filepath.Join(paths.GetTimestampsDir(), constants.UpMarkerPrefix+p.Name+"_"+filename)
}

func fileChanged(path, timestampFile string) bool {
	info, err := os.Stat(path)
	tsInfo, tsErr := os.Stat(timestampFile)

	// Neither exists: optional file that was never written
	if os.IsNotExist(err) && os.IsNotExist(tsErr) {
		return false
	}
	if (err == nil) != (tsErr == nil) {
		return true
	}
	return !info.ModTime().Equal(tsInfo.ModTime())
}

func updateTimestamp(path, timestampFile string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		_ = os.Remove(timestampFile)
		return nil
	}
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(timestampFile), 0755); err != nil {
		return err
	}
	f, err := os.Create(timestampFile)
	if err != nil {
		return err
	}
	f.Close()

	return os.Chtimes(timestampFile, info.ModTime(), info.ModTime())
}
