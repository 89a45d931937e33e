package deploy

import (
	"EasyDockerDeploy/internal/assets"
	"EasyDockerDeploy/internal/compose"
	"EasyDockerDeploy/internal/constants"
	"EasyDockerDeploy/internal/logger"
	"EasyDockerDeploy/internal/system"
	"EasyDockerDeploy/internal/validate"
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"
)

// Stack is a preset group of services deployed as one compose project.
type Stack struct {
	Description string                  `yaml:"description"`
	Network     string                  `yaml:"network"`
	Folders     []string                `yaml:"folders"`
	Services    map[string]StackService `yaml:"services"`
}

// StackService is one service of a stack. Volumes may use {folder}
// placeholders naming entries of Stack.Folders.
type StackService struct {
	Description string            `yaml:"description"`
	Image       string            `yaml:"image"`
	Ports       []string          `yaml:"ports"`
	Volumes     []string          `yaml:"volumes"`
	Environment map[string]string `yaml:"environment"`
}

// StackSettings are applied to every service of a stack.
type StackSettings struct {
	PUID     int
	PGID     int
	Timezone string
}

// StackPlan is a stack ready to be written.
type StackPlan struct {
	ID          string
	Name        string
	Dir         string
	File        *compose.File
	Environment map[string]string
	Folders     []string
	Services    []string
	Ports       []string
}

// Project returns the compose project of the stack.
func (s *StackPlan) Project() compose.Project {
	return compose.Project{Name: s.Name, Dir: s.Dir}
}

// LoadStack reads the named preset stack.
func LoadStack(name string) (*Stack, error) {
	data, err := assets.Stack(name)
	if err != nil {
		return nil, err
	}
	return ParseStack(data)
}

// ParseStack decodes a stack document.
func ParseStack(data []byte) (*Stack, error) {
	var s Stack
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("invalid stack definition: %w", err)
	}
	if len(s.Services) == 0 {
		return nil, fmt.Errorf("invalid stack definition: no services")
	}
	if s.Network == "" {
		return nil, fmt.Errorf("invalid stack definition: no network")
	}
	return &s, nil
}

// PlanStack expands a stack into a compose project named name below the
// planner's base directory. Ports that are already in use are reported but
// kept, the stack's services expect their fixed ports.
func (p *Planner) PlanStack(ctx context.Context, name string, s *Stack, settings StackSettings) (*StackPlan, error) {
	project := SanitizeName(name)
	if project == "" {
		return nil, newError(KindConfiguration, name, fmt.Errorf("invalid stack name %q", name))
	}
	if err := validate.ValidateNetworkName(s.Network); err != nil {
		return nil, newError(KindConfiguration, name, fmt.Errorf("network %q: %w", s.Network, err))
	}

	dir := filepath.Join(p.baseDir, project)
	placeholders := make(map[string]string, len(s.Folders))
	var oldnew []string
	for _, folder := range s.Folders {
		placeholders[folder] = filepath.Join(dir, folder)
		oldnew = append(oldnew, "{"+folder+"}", placeholders[folder])
	}
	expand := strings.NewReplacer(oldnew...)

	tz := settings.Timezone
	if tz == "" {
		tz = system.DefaultTimezone
	}
	common := map[string]string{
		"PUID": strconv.Itoa(settings.PUID),
		"PGID": strconv.Itoa(settings.PGID),
		"TZ":   tz,
	}

	plan := &StackPlan{
		ID:          p.newID(),
		Name:        project,
		Dir:         dir,
		Environment: common,
		File: &compose.File{
			Name:     project,
			Services: make(map[string]compose.Service, len(s.Services)),
			Networks: map[string]compose.Network{
				s.Network: {Name: s.Network, Driver: "bridge"},
			},
		},
	}

	folders := make(map[string]bool)
	for _, f := range placeholders {
		folders[f] = true
	}

	svcNames := make([]string, 0, len(s.Services))
	for svcName := range s.Services {
		svcNames = append(svcNames, svcName)
	}
	sort.Strings(svcNames)

	for _, svcName := range svcNames {
		svc := s.Services[svcName]
		env := make(map[string]string, len(common)+len(svc.Environment))
		for k, v := range common {
			env[k] = v
		}
		for k, v := range svc.Environment {
			env[k] = v
		}
		if err := validate.ValidateEnvVars(env); err != nil {
			return nil, newError(KindConfiguration, name, fmt.Errorf("%s environment: %w", svcName, err))
		}

		for _, port := range svc.Ports {
			norm, err := validate.NormalizePortSpec(port)
			if err != nil {
				return nil, newError(KindConfiguration, name, fmt.Errorf("%s port %q: %w", svcName, port, err))
			}
			host, _, _ := strings.Cut(norm, ":")
			if n, _ := strconv.Atoi(host); !p.ports.Available(n) {
				logger.Warn(ctx, "Port {{_Port_}}%d{{|-|}} for {{_App_}}%s{{|-|}} is already in use.", n, svcName)
			}
			plan.Ports = append(plan.Ports, norm)
		}

		var volumes []string
		for _, v := range svc.Volumes {
			v = expand.Replace(v)
			if strings.Contains(v, "{") {
				return nil, newError(KindVolume, name, fmt.Errorf("%s volume %q uses an unknown folder", svcName, v))
			}
			if err := validation.Validate(v, validate.VolumeSpec); err != nil {
				return nil, newError(KindVolume, name, fmt.Errorf("%s volume %q: %w", svcName, v, err))
			}
			if host := volumeHostPath(v); strings.HasPrefix(host, dir) {
				folders[host] = true
			}
			volumes = append(volumes, v)
		}

		plan.File.Services[svcName] = compose.Service{
			Image:         svc.Image,
			ContainerName: svcName,
			Restart:       compose.DefaultRestartPolicy,
			Ports:         svc.Ports,
			Volumes:       volumes,
			Environment:   env,
			Networks:      []string{s.Network},
			Labels: map[string]string{
				constants.LabelID:       plan.ID,
				constants.LabelApp:      svcName,
				constants.LabelCategory: project,
				constants.LabelManaged:  "true",
			},
		}
		plan.Services = append(plan.Services, svcName)
	}

	for f := range folders {
		plan.Folders = append(plan.Folders, f)
	}
	sort.Strings(plan.Folders)
	return plan, nil
}
