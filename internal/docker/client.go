package docker

import (
	"EasyDockerDeploy/internal/constants"
	execpkg "EasyDockerDeploy/internal/exec"
	"EasyDockerDeploy/internal/logger"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/containerd/errdefs"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/client"
)

// ErrDaemonUnavailable is returned when no daemon API client could be created.
var ErrDaemonUnavailable = errors.New("docker daemon API unavailable")

// ContainerStatus is one managed container.
type ContainerStatus struct {
	ID       string
	Name     string
	Image    string
	State    string
	Status   string
	App      string
	Category string
	Ports    []string
}

// Client talks to the daemon API where it can and falls back to the docker
// CLI where it cannot.
type Client struct {
	api    *client.Client
	runner execpkg.Runner
}

// NewClient connects to the detected daemon. Extra options override the
// detected host. A client that cannot be created leaves the CLI fallback.
func NewClient(ctx context.Context, runner execpkg.Runner, opts ...client.Opt) *Client {
	all := append([]client.Opt{
		client.FromEnv,
		client.WithHost(DetectHost()),
		client.WithAPIVersionNegotiation(),
	}, opts...)
	api, err := client.NewClientWithOpts(all...)
	if err != nil {
		logger.Debug(ctx, "Failed to create docker API client: %v", err)
		api = nil
	}
	return &Client{api: api, runner: runner}
}

// Close releases the API connection.
func (c *Client) Close() error {
	if c.api == nil {
		return nil
	}
	return c.api.Close()
}

// Ping checks that the daemon answers.
func (c *Client) Ping(ctx context.Context) error {
	if c.api == nil {
		return ErrDaemonUnavailable
	}
	if _, err := c.api.Ping(ctx); err != nil {
		return fmt.Errorf("docker daemon is not reachable: %w", err)
	}
	return nil
}

// EnsureNetwork creates the named network unless it already exists.
func (c *Client) EnsureNetwork(ctx context.Context, name, driver string) error {
	if driver == "" {
		driver = "bridge"
	}
	if c.api != nil {
		_, err := c.api.NetworkInspect(ctx, name, network.InspectOptions{})
		switch {
		case err == nil:
			logger.Debug(ctx, "Network {{_Network_}}%s{{|-|}} already exists.", name)
			return nil
		case errdefs.IsNotFound(err):
			_, err = c.api.NetworkCreate(ctx, name, network.CreateOptions{
				Driver: driver,
				Labels: map[string]string{constants.LabelManaged: "true"},
			})
			if err == nil || errdefs.IsConflict(err) || alreadyExists(err) {
				logger.Info(ctx, "Network {{_Network_}}%s{{|-|}} is ready.", name)
				return nil
			}
			return fmt.Errorf("failed to create network %s: %w", name, err)
		case ctx.Err() != nil:
			return ctx.Err()
		default:
			logger.Debug(ctx, "Docker API failed (%v), using the docker CLI.", err)
		}
	}
	return c.ensureNetworkCLI(ctx, name, driver)
}

func (c *Client) ensureNetworkCLI(ctx context.Context, name, driver string) error {
	if _, err := c.runner.Output(ctx, "docker", "network", "inspect", name); err == nil {
		return nil
	}
	err := c.runner.RunAndLog(ctx, "info", "docker:info", "", "", "docker", "network", "create", "--driver", driver, name)
	if err != nil && !alreadyExists(err) {
		return fmt.Errorf("failed to create network %s: %w", name, err)
	}
	logger.Info(ctx, "Network {{_Network_}}%s{{|-|}} is ready.", name)
	return nil
}

// PullImage pulls image with the docker CLI so its progress is shown.
func (c *Client) PullImage(ctx context.Context, image string) error {
	return c.runner.RunAndLog(ctx, "notice", "", "error", "Failed to pull image.", "docker", "pull", image)
}

// ManagedContainers lists every container carrying the managed label.
func (c *Client) ManagedContainers(ctx context.Context) ([]ContainerStatus, error) {
	if c.api != nil {
		list, err := c.api.ContainerList(ctx, container.ListOptions{
			All:     true,
			Filters: filters.NewArgs(filters.Arg("label", constants.LabelManaged+"=true")),
		})
		if err == nil {
			out := make([]ContainerStatus, 0, len(list))
			for _, ctr := range list {
				st := ContainerStatus{
					ID:       shortID(ctr.ID),
					Image:    ctr.Image,
					State:    ctr.State,
					Status:   ctr.Status,
					App:      ctr.Labels[constants.LabelApp],
					Category: ctr.Labels[constants.LabelCategory],
				}
				if len(ctr.Names) > 0 {
					st.Name = strings.TrimPrefix(ctr.Names[0], "/")
				}
				for _, p := range ctr.Ports {
					if p.PublicPort != 0 {
						st.Ports = append(st.Ports, fmt.Sprintf("%d->%d/%s", p.PublicPort, p.PrivatePort, p.Type))
					}
				}
				out = append(out, st)
			}
			sortStatuses(out)
			return out, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logger.Debug(ctx, "Docker API failed (%v), using the docker CLI.", err)
	}
	return c.managedContainersCLI(ctx)
}

// psLine is one line of `docker ps --format {{json .}}`.
type psLine struct {
	ID     string `json:"ID"`
	Names  string `json:"Names"`
	Image  string `json:"Image"`
	State  string `json:"State"`
	Status string `json:"Status"`
	Ports  string `json:"Ports"`
	Labels string `json:"Labels"`
}

func (c *Client) managedContainersCLI(ctx context.Context) ([]ContainerStatus, error) {
	out, err := c.runner.Output(ctx, "docker", "ps", "--all",
		"--filter", "label="+constants.LabelManaged+"=true",
		"--format", "{{json .}}")
	if err != nil {
		return nil, fmt.Errorf("failed to list containers: %w", err)
	}
	return parsePS(out)
}

func parsePS(out string) ([]ContainerStatus, error) {
	var statuses []ContainerStatus
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var ps psLine
		if err := json.Unmarshal([]byte(line), &ps); err != nil {
			return nil, fmt.Errorf("unexpected docker ps output %q: %w", line, err)
		}
		labels := parseLabels(ps.Labels)
		st := ContainerStatus{
			ID:       shortID(ps.ID),
			Name:     ps.Names,
			Image:    ps.Image,
			State:    ps.State,
			Status:   ps.Status,
			App:      labels[constants.LabelApp],
			Category: labels[constants.LabelCategory],
		}
		if ps.Ports != "" {
			st.Ports = strings.Split(ps.Ports, ", ")
		}
		statuses = append(statuses, st)
	}
	sortStatuses(statuses)
	return statuses, nil
}

// parseLabels splits the "k=v,k2=v2" form docker ps prints.
func parseLabels(s string) map[string]string {
	labels := make(map[string]string)
	for _, pair := range strings.Split(s, ",") {
		k, v, ok := strings.Cut(pair, "=")
		if ok {
			labels[strings.TrimSpace(k)] = v
		}
	}
	return labels
}

func sortStatuses(s []ContainerStatus) {
	sort.Slice(s, func(i, j int) bool { return s[i].Name < s[j].Name })
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}

func alreadyExists(err error) bool {
	var cmdErr *execpkg.CommandError
	if errors.As(err, &cmdErr) && strings.Contains(cmdErr.Output, "already exists") {
		return true
	}
	return strings.Contains(err.Error(), "already exists")
}
