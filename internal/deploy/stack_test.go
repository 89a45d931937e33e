package deploy

import (
	"EasyDockerDeploy/internal/paths"
	"EasyDockerDeploy/internal/testutils"
	"context"
	"path/filepath"
	"reflect"
	"sort"
	"strings"
	"testing"
)

func TestPlanMediaStack(t *testing.T) {
	paths.ConfigHomeOverride = t.TempDir()
	defer func() { paths.ConfigHomeOverride = "" }()
	ctx := context.Background()

	stack, err := LoadStack("media")
	if err != nil {
		t.Fatal(err)
	}
	p := newTestPlanner(t, "", busy(8080))
	plan, err := p.PlanStack(ctx, "media", stack, StackSettings{PUID: 1001, PGID: 1002, Timezone: "Europe/Berlin"})
	if err != nil {
		t.Fatal(err)
	}
	dir := filepath.Join(p.BaseDir(), "media")

	if want := []string{"jellyfin", "qbittorrent", "sonarr"}; !reflect.DeepEqual(plan.Services, want) {
		t.Errorf("Services = %v, want %v", plan.Services, want)
	}
	// Busy ports are reported, not reassigned.
	if want := []string{"8096:8096", "8080:8080", "8989:8989"}; !reflect.DeepEqual(plan.Ports, want) {
		t.Errorf("Ports = %v, want %v", plan.Ports, want)
	}

	qb := plan.File.Services["qbittorrent"]
	wantEnv := map[string]string{"PUID": "1001", "PGID": "1002", "TZ": "Europe/Berlin", "WEBUI_PORT": "8080"}
	if !reflect.DeepEqual(qb.Environment, wantEnv) {
		t.Errorf("qbittorrent environment = %v", qb.Environment)
	}
	if qb.Labels["com.easydockerdeploy.category"] != "media" || qb.Labels["com.easydockerdeploy.app"] != "qbittorrent" {
		t.Errorf("qbittorrent labels = %v", qb.Labels)
	}

	jf := plan.File.Services["jellyfin"]
	wantVolumes := []string{
		filepath.Join(dir, "config", "jellyfin") + ":/config",
		filepath.Join(dir, "media") + ":/media",
	}
	if !reflect.DeepEqual(jf.Volumes, wantVolumes) {
		t.Errorf("jellyfin volumes = %v", jf.Volumes)
	}
	if !reflect.DeepEqual(jf.Networks, []string{"media_network"}) {
		t.Errorf("jellyfin networks = %v", jf.Networks)
	}
	if n := plan.File.Networks["media_network"]; n.External || n.Driver != "bridge" {
		t.Errorf("stack network = %+v", n)
	}

	for _, want := range []string{"config", "media", "downloads", "config/jellyfin", "config/sonarr", "config/qbittorrent"} {
		folder := filepath.Join(dir, filepath.FromSlash(want))
		i := sort.SearchStrings(plan.Folders, folder)
		if i == len(plan.Folders) || plan.Folders[i] != folder {
			t.Errorf("folder %s missing from %v", want, plan.Folders)
		}
	}
}

func TestDeployStack(t *testing.T) {
	paths.ConfigHomeOverride = t.TempDir()
	paths.StateHomeOverride = t.TempDir()
	defer func() {
		paths.ConfigHomeOverride = ""
		paths.StateHomeOverride = ""
	}()
	ctx := context.Background()

	stack, err := LoadStack("media")
	if err != nil {
		t.Fatal(err)
	}
	p := newTestPlanner(t, "", busy())
	plan, err := p.PlanStack(ctx, "media", stack, StackSettings{PUID: 1000, PGID: 1000})
	if err != nil {
		t.Fatal(err)
	}

	docker := &fakeDocker{}
	runner := &testutils.FakeRunner{}
	if err := NewDeployer(docker, runner, testWriter()).DeployStack(ctx, plan, Options{Pull: true, Start: true}); err != nil {
		t.Fatal(err)
	}
	wantPulls := []string{
		"lscr.io/linuxserver/jellyfin:latest",
		"lscr.io/linuxserver/qbittorrent:latest",
		"lscr.io/linuxserver/sonarr:latest",
	}
	if !reflect.DeepEqual(docker.pulls, wantPulls) {
		t.Errorf("pulls = %v", docker.pulls)
	}
	if len(docker.networks) != 0 {
		t.Errorf("stack networks are created by compose, got %v", docker.networks)
	}
	if got := runner.Commands(); len(got) != 1 || !strings.HasSuffix(got[0], "up -d --remove-orphans") {
		t.Errorf("commands = %v", got)
	}
	if plan.Environment["TZ"] != "Etc/UTC" {
		t.Errorf("default timezone not applied: %v", plan.Environment)
	}
}

func TestPlanStackErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		kind Kind
	}{
		{"UnknownFolder", "network: n\nservices:\n  a:\n    image: a\n    volumes: [\"{nope}/x:/x\"]\n", KindVolume},
		{"BadPort", "network: n\nservices:\n  a:\n    image: a\n    ports: [\"99999\"]\n", KindConfiguration},
		{"BadNetwork", "network: \"-n\"\nservices:\n  a:\n    image: a\n", KindConfiguration},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stack, err := ParseStack([]byte(tt.doc))
			if err != nil {
				t.Fatal(err)
			}
			_, err = newTestPlanner(t, "", busy()).PlanStack(context.Background(), "custom", stack, StackSettings{})
			if !IsKind(err, tt.kind) {
				t.Errorf("expected %s error, got %v", tt.kind, err)
			}
		})
	}

	if _, err := ParseStack([]byte("network: n\n")); err == nil {
		t.Error("a stack without services should be rejected")
	}
}
