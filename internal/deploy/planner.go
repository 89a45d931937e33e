package deploy

import (
	"EasyDockerDeploy/internal/catalog"
	"EasyDockerDeploy/internal/compose"
	"EasyDockerDeploy/internal/config"
	"EasyDockerDeploy/internal/constants"
	"EasyDockerDeploy/internal/validate"
	"errors"
	"fmt"
	"net"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/distribution/reference"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
)

// PortChecker reports whether a host port can be used.
type PortChecker interface {
	Available(port int) bool
}

// PortCheckerFunc adapts a function to PortChecker.
type PortCheckerFunc func(port int) bool

func (f PortCheckerFunc) Available(port int) bool {
	return f(port)
}

// ListenChecker tries to bind the port on all interfaces.
type ListenChecker struct{}

func (ListenChecker) Available(port int) bool {
	l, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return false
	}
	_ = l.Close()
	return true
}

// Overrides are the user supplied changes to a plan.
type Overrides struct {
	// Ports holds "8080" or "8080:80". A bare port replaces the host side
	// of the preset mapping at the same position.
	Ports []string
	// Volumes holds "host:container[:mode]" or a bare host path for the
	// first preset volume.
	Volumes []string
	Network string
	Env     map[string]string
}

// Plan is everything needed to write and start one deployment.
type Plan struct {
	ID          string
	App         catalog.Application
	Name        string
	Dir         string
	Image       string
	Ports       []string
	Volumes     []string
	Environment map[string]string
	Network     string
}

// Project returns the compose project the plan writes.
func (p *Plan) Project() compose.Project {
	return compose.Project{Name: p.Name, Dir: p.Dir}
}

// Labels returns the labels written on the service.
func (p *Plan) Labels() map[string]string {
	return map[string]string{
		constants.LabelID:       p.ID,
		constants.LabelApp:      p.App.Name,
		constants.LabelCategory: p.App.Category,
		constants.LabelManaged:  "true",
	}
}

// ComposeFile builds the single service compose file for the plan.
func (p *Plan) ComposeFile() *compose.File {
	return &compose.File{
		Name: p.Name,
		Services: map[string]compose.Service{
			p.Name: {
				Image:         p.Image,
				ContainerName: p.Name,
				Restart:       compose.DefaultRestartPolicy,
				Ports:         p.Ports,
				Volumes:       p.Volumes,
				Environment:   p.Environment,
				Networks:      []string{p.Network},
				Labels:        p.Labels(),
			},
		},
		Networks: map[string]compose.Network{
			p.Network: {External: true},
		},
	}
}

// Planner turns catalog entries into deployment plans.
type Planner struct {
	baseDir  string
	registry string
	network  string
	minPort  int
	maxPort  int
	presets  Presets
	ports    PortChecker
	newID    func() string
}

// PlannerOption configures a Planner.
type PlannerOption func(*Planner)

// WithPortChecker replaces the net.Listen based port check.
func WithPortChecker(c PortChecker) PlannerOption {
	return func(p *Planner) {
		p.ports = c
	}
}

// WithIDFunc replaces the deployment id generator.
func WithIDFunc(f func() string) PlannerOption {
	return func(p *Planner) {
		p.newID = f
	}
}

// NewPlanner creates a planner from the docker and path settings of conf.
func NewPlanner(conf config.AppConfig, presets Presets, opts ...PlannerOption) (*Planner, error) {
	lo, hi, err := conf.Docker.PortBounds()
	if err != nil {
		return nil, err
	}
	if presets == nil {
		presets = Presets{}
	}
	p := &Planner{
		baseDir:  conf.BaseDir,
		registry: conf.Docker.Registry,
		network:  conf.Docker.Network,
		minPort:  lo,
		maxPort:  hi,
		presets:  presets,
		ports:    ListenChecker{},
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// BaseDir returns the directory deployments are written below.
func (p *Planner) BaseDir() string {
	return p.baseDir
}

// Plan builds the deployment of app with overrides applied.
func (p *Planner) Plan(app catalog.Application, o Overrides) (*Plan, error) {
	name := SanitizeName(app.Name)
	if name == "" {
		return nil, newError(KindConfiguration, app.Name, fmt.Errorf("name %q has no usable characters", app.Name))
	}
	preset := p.presets.Lookup(app.Name)
	dir := filepath.Join(p.baseDir, name)

	network := p.network
	if o.Network != "" {
		network = o.Network
	}
	if err := validate.ValidateNetworkName(network); err != nil {
		return nil, newError(KindConfiguration, app.Name, fmt.Errorf("network %q: %w", network, err))
	}

	ports, err := p.planPorts(preset.Ports, o.Ports)
	if err != nil {
		kind := KindConfiguration
		var rangeErr *portRangeError
		if errors.As(err, &rangeErr) {
			kind = KindPortAllocation
		}
		return nil, newError(kind, app.Name, err)
	}

	volumes, err := planVolumes(dir, preset.Volumes, o.Volumes)
	if err != nil {
		return nil, newError(KindVolume, app.Name, err)
	}

	env := preset.Environment
	for k, v := range o.Env {
		env[k] = v
	}
	if err := validate.ValidateEnvVars(env); err != nil {
		return nil, newError(KindConfiguration, app.Name, fmt.Errorf("environment: %w", err))
	}

	return &Plan{
		ID:          p.newID(),
		App:         app,
		Name:        name,
		Dir:         dir,
		Image:       resolveImage(app.Image(), preset.Image, p.registry, name),
		Ports:       ports,
		Volumes:     volumes,
		Environment: env,
		Network:     network,
	}, nil
}

type portRangeError struct {
	start, end int
}

func (e *portRangeError) Error() string {
	return fmt.Sprintf("no available ports found in range %d-%d", e.start, e.end)
}

func (p *Planner) planPorts(presets []PortPreset, overrides []string) ([]string, error) {
	byContainer := make(map[int]string)
	byIndex := make(map[int]string)
	taken := make(map[int]bool)
	var extra []string
	bare := 0
	for _, spec := range overrides {
		norm, err := validate.NormalizePortSpec(spec)
		if err != nil {
			return nil, fmt.Errorf("port %q: %w", spec, err)
		}
		host, cont, _ := strings.Cut(norm, ":")
		h, _ := strconv.Atoi(host)
		taken[h] = true
		if !strings.Contains(spec, ":") {
			if bare < len(presets) {
				byIndex[bare] = host
			} else {
				extra = append(extra, norm)
			}
			bare++
			continue
		}
		c, _ := strconv.Atoi(cont)
		if containsContainerPort(presets, c) {
			byContainer[c] = norm
		} else {
			extra = append(extra, norm)
		}
	}

	var mappings []string
	for i, pp := range presets {
		if m, ok := byContainer[pp.Container]; ok {
			mappings = append(mappings, m)
			continue
		}
		if host, ok := byIndex[i]; ok {
			mappings = append(mappings, fmt.Sprintf("%s:%d", host, pp.Container))
			continue
		}
		host, err := p.findPort(pp.Host, taken)
		if err != nil {
			return nil, err
		}
		taken[host] = true
		mappings = append(mappings, fmt.Sprintf("%d:%d", host, pp.Container))
	}
	return append(mappings, extra...), nil
}

func containsContainerPort(presets []PortPreset, port int) bool {
	for _, pp := range presets {
		if pp.Container == port {
			return true
		}
	}
	return false
}

// findPort returns the first free port from start up to the range maximum.
// A start above the range maximum begins at the range minimum.
func (p *Planner) findPort(start int, taken map[int]bool) (int, error) {
	if start < 1 || start > p.maxPort {
		start = p.minPort
	}
	for port := start; port <= p.maxPort; port++ {
		if taken[port] {
			continue
		}
		if p.ports.Available(port) {
			return port, nil
		}
	}
	return 0, &portRangeError{start: start, end: p.maxPort}
}

func planVolumes(dir string, presets []VolumePreset, overrides []string) ([]string, error) {
	byContainer := make(map[string]string)
	var extra []string
	for i, spec := range overrides {
		if !strings.Contains(spec, ":") {
			if len(presets) == 0 || i > 0 {
				return nil, fmt.Errorf("volume %q: expected host:container", spec)
			}
			spec = spec + ":" + presets[0].Container
		}
		if err := validation.Validate(spec, validate.VolumeSpec); err != nil {
			return nil, fmt.Errorf("volume %q: %w", spec, err)
		}
		cont := volumeContainerPath(spec)
		if containsContainerPath(presets, cont) {
			byContainer[cont] = spec
		} else {
			extra = append(extra, spec)
		}
	}

	var volumes []string
	for _, vp := range presets {
		if v, ok := byContainer[vp.Container]; ok {
			volumes = append(volumes, v)
			continue
		}
		volumes = append(volumes, filepath.Join(dir, vp.Host)+":"+vp.Container)
	}
	return append(volumes, extra...), nil
}

// volumeContainerPath returns the container side of "host:container[:mode]".
func volumeContainerPath(spec string) string {
	parts := strings.Split(spec, ":")
	for i := len(parts) - 1; i >= 1; i-- {
		if strings.HasPrefix(parts[i], "/") {
			return parts[i]
		}
	}
	return ""
}

func containsContainerPath(presets []VolumePreset, path string) bool {
	for _, vp := range presets {
		if vp.Container == path {
			return true
		}
	}
	return false
}

// HostFolders returns the host side of every volume below the plan directory.
func (p *Plan) HostFolders() []string {
	var folders []string
	for _, v := range p.Volumes {
		host := volumeHostPath(v)
		if rel, err := filepath.Rel(p.Dir, host); err == nil && !strings.HasPrefix(rel, "..") {
			folders = append(folders, host)
		}
	}
	sort.Strings(folders)
	return folders
}

func volumeHostPath(spec string) string {
	cont := volumeContainerPath(spec)
	idx := strings.LastIndex(spec, ":"+cont)
	if cont == "" || idx < 0 {
		return ""
	}
	return spec[:idx]
}

// resolveImage picks the image for a deployment: a pullable catalog
// reference, then the preset image, then <registry>/<name>:latest.
func resolveImage(dockerURL, presetImage, registry, name string) string {
	if img := imageFromHubURL(dockerURL); img != "" {
		if _, err := validate.NormalizeImage(img); err == nil {
			return img
		}
	}
	if dockerURL != "" {
		if _, err := validate.NormalizeImage(dockerURL); err == nil {
			if named, err := reference.ParseNormalizedNamed(dockerURL); err == nil {
				return reference.FamiliarString(reference.TagNameOnly(named))
			}
		}
	}
	if presetImage != "" {
		return presetImage
	}
	if registry == "" {
		registry = "docker.io"
	}
	return fmt.Sprintf("%s/%s:latest", strings.TrimSuffix(registry, "/"), name)
}

// imageFromHubURL converts https://hub.docker.com/r/org/repo (or /_/name)
// to an image reference.
func imageFromHubURL(s string) string {
	rest, ok := strings.CutPrefix(s, "https://hub.docker.com/")
	if !ok {
		rest, ok = strings.CutPrefix(s, "http://hub.docker.com/")
	}
	if !ok {
		return ""
	}
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	switch {
	case len(parts) >= 3 && parts[0] == "r":
		return parts[1] + "/" + parts[2] + ":latest"
	case len(parts) >= 2 && parts[0] == "_":
		return parts[1] + ":latest"
	}
	return ""
}
