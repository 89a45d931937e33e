package deploy

import (
	"EasyDockerDeploy/internal/catalog"
	"EasyDockerDeploy/internal/config"
	"EasyDockerDeploy/internal/paths"
	"EasyDockerDeploy/internal/testutils"
	"fmt"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

const testPresets = `
wikijs:
  image: ghcr.io/requarks/wiki:2
  ports:
    - container: 3000
      host: 3000
  volumes:
    - container: /data
      host: data
    - container: /config
      host: config
gitea:
  image: gitea/gitea:latest
  ports:
    - container: 3000
      host: 3000
    - container: 22
      host: 22
  volumes:
    - container: /data
      host: data
wordpress:
  image: wordpress:latest
  environment:
    WORDPRESS_DB_HOST: db
`

func strPtr(s string) *string {
	return &s
}

func busy(ports ...int) PortChecker {
	set := make(map[int]bool, len(ports))
	for _, p := range ports {
		set[p] = true
	}
	return PortCheckerFunc(func(port int) bool { return !set[port] })
}

func newTestPlanner(t *testing.T, portRange string, checker PortChecker) *Planner {
	t.Helper()
	presets, err := ParsePresets([]byte(testPresets))
	if err != nil {
		t.Fatal(err)
	}
	conf := config.Defaults()
	conf.BaseDir = t.TempDir()
	if portRange != "" {
		conf.Docker.PortRange = portRange
	}
	p, err := NewPlanner(conf, presets, WithPortChecker(checker), WithIDFunc(func() string { return "test-id" }))
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestPlanPreset(t *testing.T) {
	p := newTestPlanner(t, "", busy(3000))
	app := catalog.Application{Name: "Wiki.js", Category: "Wikis"}

	plan, err := p.Plan(app, Overrides{})
	if err != nil {
		t.Fatal(err)
	}
	dir := filepath.Join(p.BaseDir(), "wikijs")

	if plan.Name != "wikijs" || plan.Dir != dir || plan.ID != "test-id" {
		t.Errorf("unexpected identity: %+v", plan)
	}
	if plan.Image != "ghcr.io/requarks/wiki:2" {
		t.Errorf("Image = %q", plan.Image)
	}
	if want := []string{"3001:3000"}; !reflect.DeepEqual(plan.Ports, want) {
		t.Errorf("Ports = %v, want %v", plan.Ports, want)
	}
	wantVolumes := []string{
		filepath.Join(dir, "data") + ":/data",
		filepath.Join(dir, "config") + ":/config",
	}
	if !reflect.DeepEqual(plan.Volumes, wantVolumes) {
		t.Errorf("Volumes = %v, want %v", plan.Volumes, wantVolumes)
	}
	if plan.Network != "easy-docker-deploy" {
		t.Errorf("Network = %q", plan.Network)
	}
	wantFolders := []string{filepath.Join(dir, "config"), filepath.Join(dir, "data")}
	if got := plan.HostFolders(); !reflect.DeepEqual(got, wantFolders) {
		t.Errorf("HostFolders = %v, want %v", got, wantFolders)
	}

	labels := plan.Labels()
	if labels["com.easydockerdeploy.app"] != "Wiki.js" || labels["com.easydockerdeploy.category"] != "Wikis" ||
		labels["com.easydockerdeploy.id"] != "test-id" || labels["com.easydockerdeploy.managed"] != "true" {
		t.Errorf("Labels = %v", labels)
	}

	f := plan.ComposeFile()
	svc, ok := f.Services["wikijs"]
	if !ok || svc.Restart != "unless-stopped" || svc.ContainerName != "wikijs" {
		t.Errorf("service = %+v", svc)
	}
	if !f.Networks["easy-docker-deploy"].External {
		t.Errorf("network should be external: %+v", f.Networks)
	}
}

func TestPlanDefaults(t *testing.T) {
	p := newTestPlanner(t, "", busy())
	plan, err := p.Plan(catalog.Application{Name: "Home Assistant", Category: "Automation"}, Overrides{})
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"8080:80"}; !reflect.DeepEqual(plan.Ports, want) {
		t.Errorf("Ports = %v, want %v", plan.Ports, want)
	}
	if want := []string{filepath.Join(p.BaseDir(), "home-assistant", "data") + ":/data"}; !reflect.DeepEqual(plan.Volumes, want) {
		t.Errorf("Volumes = %v, want %v", plan.Volumes, want)
	}
	if plan.Image != "docker.io/home-assistant:latest" {
		t.Errorf("Image = %q", plan.Image)
	}
	if len(plan.Environment) != 0 {
		t.Errorf("Environment = %v", plan.Environment)
	}
}

func TestPlanOverrides(t *testing.T) {
	p := newTestPlanner(t, "", busy())
	app := catalog.Application{Name: "Gitea", Category: "Software Development", DockerURL: strPtr("https://hub.docker.com/r/gitea/gitea")}

	plan, err := p.Plan(app, Overrides{
		Ports:   []string{"3000", "2222:22", "9100:9100"},
		Volumes: []string{"/srv/gitea:/data"},
		Network: "proxy",
		Env:     map[string]string{"USER_UID": "1000"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"3000:3000", "2222:22", "9100:9100"}; !reflect.DeepEqual(plan.Ports, want) {
		t.Errorf("Ports = %v, want %v", plan.Ports, want)
	}
	if want := []string{"/srv/gitea:/data"}; !reflect.DeepEqual(plan.Volumes, want) {
		t.Errorf("Volumes = %v, want %v", plan.Volumes, want)
	}
	if plan.Network != "proxy" || plan.Environment["USER_UID"] != "1000" {
		t.Errorf("plan = %+v", plan)
	}
	if plan.Image != "gitea/gitea:latest" {
		t.Errorf("Image = %q", plan.Image)
	}
	if got := plan.HostFolders(); len(got) != 0 {
		t.Errorf("folders outside the deployment should not be created: %v", got)
	}
}

func TestPlanOverriddenPortIsReserved(t *testing.T) {
	p := newTestPlanner(t, "", busy())
	// The second preset port searches from 22, which the override already uses.
	plan, err := p.Plan(catalog.Application{Name: "Gitea"}, Overrides{Ports: []string{"22:3000"}})
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"22:3000", "23:22"}; !reflect.DeepEqual(plan.Ports, want) {
		t.Errorf("Ports = %v, want %v", plan.Ports, want)
	}
}

func TestPlanBareVolumeOverride(t *testing.T) {
	p := newTestPlanner(t, "", busy())
	plan, err := p.Plan(catalog.Application{Name: "Wiki.js"}, Overrides{Volumes: []string{"/mnt/wiki"}})
	if err != nil {
		t.Fatal(err)
	}
	if plan.Volumes[0] != "/mnt/wiki:/data" {
		t.Errorf("Volumes = %v", plan.Volumes)
	}

	_, err = p.Plan(catalog.Application{Name: "Wiki.js"}, Overrides{Volumes: []string{"/a:/data", "/b"}})
	if !IsKind(err, KindVolume) {
		t.Errorf("expected a volume error, got %v", err)
	}
}

func TestPlanErrors(t *testing.T) {
	tests := []struct {
		name      string
		portRange string
		checker   PortChecker
		app       string
		o         Overrides
		kind      Kind
		contains  string
	}{
		{"NoFreePort", "8000-8002", busy(8000, 8001, 8002), "Unknown", Overrides{}, KindPortAllocation, "no available ports found in range 8000-8002"},
		{"BadPort", "", busy(), "Unknown", Overrides{Ports: []string{"70000"}}, KindConfiguration, "70000"},
		{"ZeroPort", "", busy(), "Unknown", Overrides{Ports: []string{"0"}}, KindConfiguration, `port "0"`},
		{"BadNetwork", "", busy(), "Unknown", Overrides{Network: "-bad"}, KindConfiguration, "network"},
		{"BadEnv", "", busy(), "Unknown", Overrides{Env: map[string]string{"1BAD": "x"}}, KindConfiguration, "environment"},
		{"BadVolume", "", busy(), "Unknown", Overrides{Volumes: []string{"/a:relative"}}, KindVolume, "volume"},
		{"EmptyName", "", busy(), "...", Overrides{}, KindConfiguration, "no usable characters"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestPlanner(t, tt.portRange, tt.checker)
			_, err := p.Plan(catalog.Application{Name: tt.app}, tt.o)
			if !IsKind(err, tt.kind) {
				t.Fatalf("expected %s error, got %v", tt.kind, err)
			}
			if !strings.Contains(err.Error(), tt.contains) {
				t.Errorf("error %q does not mention %q", err, tt.contains)
			}
		})
	}
}

func TestResolveImage(t *testing.T) {
	tests := []struct {
		name      string
		dockerURL string
		preset    string
		registry  string
		app       string
		expected  string
	}{
		{"HubRepo", "https://hub.docker.com/r/linuxserver/jellyfin", "", "docker.io", "jellyfin", "linuxserver/jellyfin:latest"},
		{"HubOfficial", "https://hub.docker.com/_/nginx/", "", "docker.io", "nginx", "nginx:latest"},
		{"Reference", "ghcr.io/org/app", "", "docker.io", "app", "ghcr.io/org/app:latest"},
		{"TaggedReference", "nginx:1.25", "", "docker.io", "nginx", "nginx:1.25"},
		{"NotAnImage", "https://github.com/foo/bar", "preset/img:1", "docker.io", "bar", "preset/img:1"},
		{"HubRepoWithPunctuation", "https://hub.docker.com/r/acme/app,", "preset/img:1", "docker.io", "app", "preset/img:1"},
		{"RegistryDefault", "", "", "docker.io", "myapp", "docker.io/myapp:latest"},
		{"RegistryTrailingSlash", "", "", "registry.local:5000/", "myapp", "registry.local:5000/myapp:latest"},
		{"EmptyRegistry", "", "", "", "myapp", "docker.io/myapp:latest"},
	}

	var cases []testutils.TestCase
	for _, tt := range tests {
		got := resolveImage(tt.dockerURL, tt.preset, tt.registry, tt.app)
		cases = append(cases, testutils.TestCase{
			Name:     tt.name,
			Input:    fmt.Sprintf("%s|%s|%s", tt.dockerURL, tt.preset, tt.registry),
			Expected: tt.expected,
			Actual:   got,
			Pass:     got == tt.expected,
		})
	}
	testutils.PrintTestTable(t, cases)
}

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Wiki.js", "wikijs"},
		{"Home Assistant", "home-assistant"},
		{"my_app", "my-app"},
		{"Café (beta)", "caf-beta"},
		{"--x--", "x"},
		{"GitLab CE", "gitlab-ce"},
	}

	var cases []testutils.TestCase
	for _, tt := range tests {
		got := SanitizeName(tt.input)
		cases = append(cases, testutils.TestCase{
			Name:     tt.input,
			Input:    tt.input,
			Expected: tt.expected,
			Actual:   got,
			Pass:     got == tt.expected,
		})
	}
	testutils.PrintTestTable(t, cases)
}

func TestPresetsLookupCopiesEnvironment(t *testing.T) {
	presets, err := ParsePresets([]byte(testPresets))
	if err != nil {
		t.Fatal(err)
	}
	a := presets.Lookup("WordPress")
	a.Environment["EXTRA"] = "1"
	if _, ok := presets.Lookup("wordpress").Environment["EXTRA"]; ok {
		t.Error("Lookup must return a copy of the preset environment")
	}
	if a.Environment["WORDPRESS_DB_HOST"] != "db" {
		t.Errorf("Environment = %v", a.Environment)
	}
	if len(a.Ports) != 1 || a.Ports[0].Container != 80 {
		t.Errorf("default ports not applied: %v", a.Ports)
	}
}

func TestLoadEmbeddedPresets(t *testing.T) {
	paths.ConfigHomeOverride = t.TempDir()
	defer func() { paths.ConfigHomeOverride = "" }()

	presets, err := LoadPresets()
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"Wiki.js", "Gitea", "GitLab", "WordPress", "Nextcloud", "Jellyfin", "Heimdall"} {
		if !presets.Has(name) {
			t.Errorf("no preset for %s", name)
		}
	}
	if presets.Has("Not A Real App") {
		t.Error("unknown applications should have no preset")
	}
}
