package compose

import (
	"EasyDockerDeploy/internal/console"
	"EasyDockerDeploy/internal/paths"
	"EasyDockerDeploy/internal/testutils"
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func sampleFile() *File {
	return &File{
		Services: map[string]Service{
			"gitea": {
				Image:         "gitea/gitea:latest",
				ContainerName: "gitea",
				Restart:       DefaultRestartPolicy,
				Ports:         []string{"8081:3000"},
				Volumes:       []string{"/srv/gitea/data:/data"},
				Environment:   map[string]string{"USER_UID": "1000"},
				Networks:      []string{"easy-docker-deploy"},
				Labels:        map[string]string{"com.easydockerdeploy.app": "Gitea"},
			},
		},
		Networks: map[string]Network{
			"easy-docker-deploy": {External: true},
		},
	}
}

func TestFileMarshalRoundTrip(t *testing.T) {
	f := sampleFile()
	data, err := f.Marshal()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "services:\n  gitea:\n") {
		t.Errorf("unexpected layout:\n%s", data)
	}
	back, err := Unmarshal(data)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(f, back) {
		t.Errorf("round trip mismatch:\n%+v\n%+v", f, back)
	}
	if got := back.Images(); !reflect.DeepEqual(got, []string{"gitea/gitea:latest"}) {
		t.Errorf("Images = %v", got)
	}
}

func TestLoadEmptyServices(t *testing.T) {
	path := filepath.Join(t.TempDir(), "docker-compose.yml")
	_ = os.WriteFile(path, []byte("name: empty\n"), 0644)
	f, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if f.Services == nil || len(f.ServiceNames()) != 0 {
		t.Errorf("Services = %#v", f.Services)
	}
}

func TestValidate(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	if _, err := ValidateFile(ctx, "gitea", dir, sampleFile()); err != nil {
		t.Errorf("valid file rejected: %v", err)
	}

	tests := []struct {
		name    string
		content string
	}{
		{"Syntax", "services:\n  web:\n    ports: [ unclosed\n"},
		{"UnknownServiceKey", "services:\n  web:\n    image: nginx\n    imagez: nginx\n"},
		{"PortsNotAList", "services:\n  web:\n    image: nginx\n    ports: 8080\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := Validate(ctx, "web", dir, []byte(tt.content)); err == nil {
				t.Error("expected a validation error")
			}
		})
	}
}

func newProject(t *testing.T, base, name string) Project {
	t.Helper()
	p := Project{Name: name, Dir: filepath.Join(base, name)}
	if err := os.MkdirAll(p.Dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p.ComposeFile(), []byte("services: {}\n"), 0644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestListAndFindProjects(t *testing.T) {
	base := t.TempDir()
	newProject(t, base, "wikijs")
	newProject(t, base, "gitea")
	_ = os.MkdirAll(filepath.Join(base, "empty"), 0755)

	projects, err := ListProjects(base)
	if err != nil {
		t.Fatal(err)
	}
	if len(projects) != 2 || projects[0].Name != "gitea" || projects[1].Name != "wikijs" {
		t.Errorf("ListProjects = %+v", projects)
	}

	if _, err := FindProject(base, "empty"); err == nil {
		t.Error("directory without a compose file is not a project")
	}
	if p, err := FindProject(base, "gitea"); err != nil || p.Dir != filepath.Join(base, "gitea") {
		t.Errorf("FindProject = %+v, %v", p, err)
	}

	if projects, err := ListProjects(filepath.Join(base, "missing")); err != nil || projects != nil {
		t.Errorf("missing base = %v, %v", projects, err)
	}
}

func TestExecuteCommands(t *testing.T) {
	paths.StateHomeOverride = t.TempDir()
	defer func() { paths.StateHomeOverride = "" }()

	base := t.TempDir()
	p := newProject(t, base, "gitea")
	dirArg := p.Dir + string(filepath.Separator)

	tests := []struct {
		command string
		want    []string
	}{
		{"up", []string{"docker compose --project-directory " + dirArg + " up -d --remove-orphans"}},
		{"down", []string{"docker compose --project-directory " + dirArg + " down --remove-orphans"}},
		{"pull", []string{"docker compose --project-directory " + dirArg + " pull"}},
		{"restart", []string{"docker compose --project-directory " + dirArg + " restart"}},
		{"stop", []string{"docker compose --project-directory " + dirArg + " stop"}},
		{"ps", []string{"docker compose --project-directory " + dirArg + " ps --all"}},
		{"logs", []string{"docker compose --project-directory " + dirArg + " logs --tail 100"}},
		{"update", []string{
			"docker compose --project-directory " + dirArg + " pull",
			"docker compose --project-directory " + dirArg + " up -d --remove-orphans",
		}},
	}

	var cases []testutils.TestCase
	for _, tt := range tests {
		runner := &testutils.FakeRunner{}
		err := Execute(context.Background(), runner, true, tt.command, p)
		got := strings.Join(runner.Commands(), " && ")
		want := strings.Join(tt.want, " && ")
		cases = append(cases, testutils.TestCase{
			Name:     tt.command,
			Input:    tt.command,
			Expected: want,
			Actual:   got,
			Pass:     err == nil && got == want,
		})
	}
	testutils.PrintTestTable(t, cases)
}

func TestExecuteUnknownCommand(t *testing.T) {
	runner := &testutils.FakeRunner{}
	err := Execute(context.Background(), runner, true, "explode", Project{Name: "x", Dir: t.TempDir()})
	if !errors.Is(err, ErrUnknownCommand) {
		t.Errorf("err = %v", err)
	}
	if len(runner.Calls) != 0 {
		t.Errorf("nothing should run, got %v", runner.Commands())
	}
}

func TestExecuteDeclined(t *testing.T) {
	old := console.PromptInput
	console.PromptInput = strings.NewReader("n")
	defer func() { console.PromptInput = old }()

	runner := &testutils.FakeRunner{}
	if err := Execute(context.Background(), runner, false, "down", Project{Name: "x", Dir: t.TempDir()}); err != nil {
		t.Fatal(err)
	}
	if len(runner.Calls) != 0 {
		t.Errorf("declined prompt still ran %v", runner.Commands())
	}
}

func TestExecuteContinuesAfterFailure(t *testing.T) {
	paths.StateHomeOverride = t.TempDir()
	defer func() { paths.StateHomeOverride = "" }()

	base := t.TempDir()
	a := newProject(t, base, "a")
	b := newProject(t, base, "b")
	runner := &testutils.FakeRunner{Fail: map[string]error{
		"docker compose --project-directory " + a.Dir: errors.New("exit status 1"),
	}}

	err := Execute(context.Background(), runner, true, "up", a, b)
	if err == nil || !strings.Contains(err.Error(), "a:") {
		t.Errorf("err = %v", err)
	}
	if len(runner.Calls) != 2 {
		t.Errorf("second project should still run, calls = %v", runner.Commands())
	}
	if NeedsUp(b) {
		t.Error("successful up must record a marker")
	}
	if !NeedsUp(a) {
		t.Error("failed up must not record a marker")
	}
}

func TestMarkers(t *testing.T) {
	paths.StateHomeOverride = t.TempDir()
	defer func() { paths.StateHomeOverride = "" }()

	p := newProject(t, t.TempDir(), "gitea")
	ctx := context.Background()

	if !NeedsUp(p) {
		t.Fatal("never started project needs up")
	}
	MarkUp(ctx, p)
	if NeedsUp(p) {
		t.Fatal("unchanged project should not need up")
	}

	later := time.Now().Add(time.Minute)
	if err := os.Chtimes(p.ComposeFile(), later, later); err != nil {
		t.Fatal(err)
	}
	if !NeedsUp(p) {
		t.Error("changed compose file needs up")
	}

	MarkUp(ctx, p)
	_ = os.WriteFile(p.EnvFile(), []byte("A=1\n"), 0644)
	if !NeedsUp(p) {
		t.Error("new .env file needs up")
	}

	MarkUp(ctx, p)
	ClearUp(p)
	if !NeedsUp(p) {
		t.Error("cleared project needs up")
	}
}
