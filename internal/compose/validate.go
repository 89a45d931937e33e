package compose

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/compose-spec/compose-go/v2/loader"
	"github.com/compose-spec/compose-go/v2/types"
	"gopkg.in/yaml.v3"
)

// Validate checks a compose document against the Compose schema before it is
// written. Interpolation is skipped so ${VAR} references are accepted as is.
func Validate(ctx context.Context, projectName, workingDir string, content []byte) error {
	// Syntax first, the schema loader reports YAML errors less clearly.
	var dst map[string]any
	if err := yaml.Unmarshal(content, &dst); err != nil {
		return fmt.Errorf("invalid compose YAML: %w", err)
	}

	configDetails := types.ConfigDetails{
		WorkingDir: workingDir,
		ConfigFiles: []types.ConfigFile{
			{
				Filename: filepath.Join(workingDir, "docker-compose.yml"),
				Content:  content,
			},
		},
	}

	_, err := loader.LoadWithContext(ctx, configDetails, func(options *loader.Options) {
		options.SetProjectName(projectName, true)
		options.SkipInterpolation = true
		options.SkipValidation = false
		options.SkipConsistencyCheck = true
	})
	if err != nil {
		return fmt.Errorf("compose validation failed for %s: %w", projectName, err)
	}
	return nil
}

// ValidateFile marshals f and validates the result.
func ValidateFile(ctx context.Context, projectName, workingDir string, f *File) ([]byte, error) {
	content, err := f.Marshal()
	if err != nil {
		return nil, err
	}
	if err := Validate(ctx, projectName, workingDir, content); err != nil {
		return nil, err
	}
	return content, nil
}
