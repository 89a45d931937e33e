package deploy

import (
	"EasyDockerDeploy/internal/assets"
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// PortPreset maps a container port to the host port the search starts from.
type PortPreset struct {
	Container int `yaml:"container"`
	Host      int `yaml:"host"`
}

// VolumePreset maps a container path to a folder below the deployment directory.
type VolumePreset struct {
	Container string `yaml:"container"`
	Host      string `yaml:"host"`
}

// AppPreset holds the defaults for one known application.
type AppPreset struct {
	Image       string            `yaml:"image"`
	Ports       []PortPreset      `yaml:"ports"`
	Volumes     []VolumePreset    `yaml:"volumes"`
	Environment map[string]string `yaml:"environment"`
}

// Presets maps sanitized application names to their defaults.
type Presets map[string]AppPreset

var (
	defaultPorts   = []PortPreset{{Container: 80, Host: 8080}}
	defaultVolumes = []VolumePreset{{Container: "/data", Host: "data"}}
)

// LoadPresets reads the application presets.
func LoadPresets() (Presets, error) {
	data, err := assets.AppPresets()
	if err != nil {
		return nil, fmt.Errorf("failed to read application presets: %w", err)
	}
	return ParsePresets(data)
}

// ParsePresets decodes an apps.yml document.
func ParsePresets(data []byte) (Presets, error) {
	var p Presets
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("invalid application presets: %w", err)
	}
	if p == nil {
		p = Presets{}
	}
	return p, nil
}

// Lookup returns the defaults for an application name. Ports and volumes
// missing from a preset fall back to port 80 on 8080 and /data.
func (p Presets) Lookup(appName string) AppPreset {
	preset := p[SanitizeName(appName)]
	if len(preset.Ports) == 0 {
		preset.Ports = defaultPorts
	}
	if len(preset.Volumes) == 0 {
		preset.Volumes = defaultVolumes
	}
	env := make(map[string]string, len(preset.Environment))
	for k, v := range preset.Environment {
		env[k] = v
	}
	preset.Environment = env
	return preset
}

// Has reports whether appName has its own preset.
func (p Presets) Has(appName string) bool {
	_, ok := p[SanitizeName(appName)]
	return ok
}

var unsafeNameChars = regexp.MustCompile(`[^a-z0-9-]+`)

// SanitizeName turns an application name into a container, folder and
// project name: lowercase, spaces and underscores become "-", dots are
// dropped. Anything else Docker would reject is removed as well.
func SanitizeName(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.ReplaceAll(s, " ", "-")
	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, "_", "-")
	s = unsafeNameChars.ReplaceAllString(s, "")
	return strings.Trim(s, "-")
}
