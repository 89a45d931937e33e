package cmd

import (
	"EasyDockerDeploy/internal/cache"
	"EasyDockerDeploy/internal/config"
	"EasyDockerDeploy/internal/console"
	"EasyDockerDeploy/internal/deploy"
	"EasyDockerDeploy/internal/docker"
	"EasyDockerDeploy/internal/logger"
	"EasyDockerDeploy/internal/paths"
	"EasyDockerDeploy/internal/testutils"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

const testDocument = "## Software\n\n" +
	"### Wikis\n" +
	"- [Wiki.js](https://js.wiki/) - Modern wiki with an official Docker image. `Nodejs` [AGPL-3.0]\n" +
	"- [DokuWiki](https://www.dokuwiki.org/) - Simple to use wiki. `PHP` [GPL-2.0]\n\n" +
	"### Software Development\n" +
	"- [Gitea](https://gitea.io/) - Painless self-hosted Git service. `Go` [MIT]\n"

type fakeDocker struct {
	networks   []string
	pulls      []string
	containers []docker.ContainerStatus
}

func (f *fakeDocker) EnsureNetwork(_ context.Context, name, _ string) error {
	f.networks = append(f.networks, name)
	return nil
}

func (f *fakeDocker) PullImage(_ context.Context, image string) error {
	f.pulls = append(f.pulls, image)
	return nil
}

func (f *fakeDocker) ManagedContainers(context.Context) ([]docker.ContainerStatus, error) {
	return f.containers, nil
}

// testApp builds an app reading document from a file. An empty document
// points the catalog at a file that does not exist.
func testApp(t *testing.T, document string) (*app, *fakeDocker, *testutils.FakeRunner) {
	t.Helper()
	paths.StateHomeOverride = t.TempDir()
	paths.ConfigHomeOverride = t.TempDir()
	t.Cleanup(func() {
		paths.StateHomeOverride = ""
		paths.ConfigHomeOverride = ""
	})

	docPath := filepath.Join(t.TempDir(), "README.md")
	if document != "" {
		if err := os.WriteFile(docPath, []byte(document), 0644); err != nil {
			t.Fatal(err)
		}
	}

	conf := config.Defaults()
	conf.Catalog.Source = config.SourceFile
	conf.Catalog.URL = docPath
	conf.BaseDir = t.TempDir()
	conf.CacheDir = t.TempDir()
	conf.UI.LineCharacters = false

	runner := &testutils.FakeRunner{}
	fake := &fakeDocker{}
	a := newApp(conf, runner)
	a.docker = fake
	a.plannerOpts = []deploy.PlannerOption{
		deploy.WithPortChecker(deploy.PortCheckerFunc(func(int) bool { return true })),
		deploy.WithIDFunc(func() string { return "test-id" }),
	}
	t.Cleanup(a.close)
	return a, fake, runner
}

func captureDisplay(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	old := logger.DisplayWriter
	logger.DisplayWriter = &buf
	t.Cleanup(func() { logger.DisplayWriter = old })
	return &buf
}

func runArgs(t *testing.T, a *app, args ...string) int {
	t.Helper()
	groups, err := Parse(args)
	if err != nil {
		t.Fatalf("Parse(%v): %v", args, err)
	}
	return a.execute(context.Background(), groups)
}

func TestExecuteCatalogCommands(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    []string
		notWant []string
	}{
		{"Categories", []string{"--categories"}, []string{"Wikis", "Software Development"}, nil},
		{"ListCategory", []string{"-l", "Wikis"}, []string{"Wiki.js", "DokuWiki"}, []string{"Gitea"}},
		{"Search", []string{"--search", "git"}, []string{"Gitea"}, []string{"DokuWiki"}},
		{"DockerReady", []string{"--docker-ready"}, []string{"Wiki.js"}, []string{"DokuWiki", "Gitea"}},
		{"Info", []string{"--info", "wiki.js"}, []string{"Wiki.js", "AGPL-3.0", "Nodejs", "https://js.wiki/"}, nil},
		{"CacheStatus", []string{"--refresh", "--cache-status"}, []string{"applications", "3 entries"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, _, _ := testApp(t, testDocument)
			out := captureDisplay(t)

			if code := runArgs(t, a, tt.args...); code != 0 {
				t.Fatalf("exit code = %d", code)
			}
			for _, want := range tt.want {
				if !strings.Contains(out.String(), want) {
					t.Errorf("output is missing %q:\n%s", want, out)
				}
			}
			for _, notWant := range tt.notWant {
				if strings.Contains(out.String(), notWant) {
					t.Errorf("output should not contain %q:\n%s", notWant, out)
				}
			}
		})
	}
}

func TestExecuteClearCache(t *testing.T) {
	a, _, _ := testApp(t, testDocument)
	out := captureDisplay(t)

	if code := runArgs(t, a, "--refresh", "--clear-cache", "--cache-status"); code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	if !strings.Contains(out.String(), "not cached") {
		t.Errorf("cache should be empty after clearing:\n%s", out)
	}
}

func TestExecuteStopsOnError(t *testing.T) {
	a, _, _ := testApp(t, testDocument)
	out := captureDisplay(t)

	if code := runArgs(t, a, "--info", "Nope", "--categories"); code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
	if strings.Contains(out.String(), "Wikis") {
		t.Errorf("commands after a failure must not run:\n%s", out)
	}
}

func TestExecuteDeploy(t *testing.T) {
	a, fake, runner := testApp(t, testDocument)

	if code := runArgs(t, a, "-y", "--deploy", "gitea", "port=8081", "--no-pull"); code != 0 {
		t.Fatalf("exit code = %d", code)
	}

	dir := filepath.Join(a.conf.BaseDir, "gitea")
	content, err := os.ReadFile(filepath.Join(dir, "docker-compose.yml"))
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"8081:3000", "com.easydockerdeploy.category: Software Development", "com.easydockerdeploy.id: test-id"} {
		if !strings.Contains(string(content), want) {
			t.Errorf("compose file is missing %q:\n%s", want, content)
		}
	}
	if !reflect.DeepEqual(fake.networks, []string{"easy-docker-deploy"}) {
		t.Errorf("networks = %v", fake.networks)
	}
	if len(fake.pulls) != 0 {
		t.Errorf("--no-pull should skip the pull: %v", fake.pulls)
	}
	up := "docker compose --project-directory " + dir + string(filepath.Separator) + " up -d --remove-orphans"
	if got := runner.Commands(); !reflect.DeepEqual(got, []string{up}) {
		t.Errorf("commands = %v", got)
	}
}

func TestExecuteDeployDeclined(t *testing.T) {
	a, fake, runner := testApp(t, testDocument)
	old := console.PromptInput
	console.PromptInput = strings.NewReader("n")
	defer func() { console.PromptInput = old }()

	if code := runArgs(t, a, "--deploy", "Wiki.js"); code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	if _, err := os.Stat(filepath.Join(a.conf.BaseDir, "wikijs", "docker-compose.yml")); err != nil {
		t.Errorf("files should be written before asking: %v", err)
	}
	if len(fake.networks) != 0 || len(runner.Calls) != 0 {
		t.Errorf("declined deployment touched docker: %v %v", fake.networks, runner.Commands())
	}
}

func TestExecuteDeployPresetFallback(t *testing.T) {
	tests := []struct {
		name     string
		document string
	}{
		{"NotInCatalog", testDocument},
		{"CatalogUnavailable", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, _, _ := testApp(t, tt.document)
			if code := runArgs(t, a, "-y", "--deploy", "Heimdall"); code != 0 {
				t.Fatalf("exit code = %d", code)
			}
			content, err := os.ReadFile(filepath.Join(a.conf.BaseDir, "heimdall", "docker-compose.yml"))
			if err != nil {
				t.Fatal(err)
			}
			if !strings.Contains(string(content), "com.easydockerdeploy.category: "+customCategory) {
				t.Errorf("preset deployment should be labelled %s:\n%s", customCategory, content)
			}
		})
	}

	a, _, _ := testApp(t, testDocument)
	if code := runArgs(t, a, "-y", "--deploy", "Not A Real App"); code != 1 {
		t.Errorf("unknown application: exit code = %d, want 1", code)
	}
}

func TestExecuteCompose(t *testing.T) {
	a, _, runner := testApp(t, testDocument)
	dir := filepath.Join(a.conf.BaseDir, "gitea")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "docker-compose.yml"), []byte("services: {}\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if code := runArgs(t, a, "-y", "-c", "down", "Gitea"); code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	down := "docker compose --project-directory " + dir + string(filepath.Separator) + " down --remove-orphans"
	if got := runner.Commands(); !reflect.DeepEqual(got, []string{down}) {
		t.Errorf("commands = %v", got)
	}

	if code := runArgs(t, a, "-c", "ps"); code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	if got := runner.Commands(); len(got) != 2 || !strings.HasSuffix(got[1], "ps --all") {
		t.Errorf("compose without names should run on every deployment: %v", got)
	}

	if code := runArgs(t, a, "-c", "up", "missing"); code != 1 {
		t.Errorf("unknown deployment: exit code = %d, want 1", code)
	}
}

func TestExecuteStatus(t *testing.T) {
	a, fake, _ := testApp(t, testDocument)
	out := captureDisplay(t)

	if code := runArgs(t, a, "-s"); code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	if out.Len() != 0 {
		t.Errorf("no containers should print no table:\n%s", out)
	}

	fake.containers = []docker.ContainerStatus{{
		Name:     "gitea",
		App:      "Gitea",
		Category: "Software Development",
		State:    "running",
		Status:   "Up 2 hours",
		Ports:    []string{"8081->3000/tcp"},
	}}
	if code := runArgs(t, a, "--status"); code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	for _, want := range []string{"gitea", "Software Development", "Up 2 hours", "8081->3000/tcp"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("status output is missing %q:\n%s", want, out)
		}
	}
}

func TestExecuteConfigShowAndHelp(t *testing.T) {
	a, _, _ := testApp(t, testDocument)
	out := captureDisplay(t)

	if code := runArgs(t, a, "--config-show"); code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	for _, want := range []string{"Base Folder", a.conf.BaseDir, "easy-docker-deploy", "not set"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("config output is missing %q:\n%s", want, out)
		}
	}

	out.Reset()
	if code := a.execute(context.Background(), nil); code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	if !strings.Contains(out.String(), "Usage:") {
		t.Errorf("no command should print the usage:\n%s", out)
	}
}

func TestCacheState(t *testing.T) {
	ttl := time.Hour
	tests := []struct {
		name string
		st   cache.Status
		want string
	}{
		{"Missing", cache.Status{}, "not cached"},
		{"Fresh", cache.Status{Exists: true, Age: ttl - time.Second}, "{{_Docker_}}"},
		{"ExactlyTTL", cache.Status{Exists: true, Age: ttl}, "expired"},
		{"Old", cache.Status{Exists: true, Age: 2 * ttl}, "expired"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cacheState(tt.st, ttl); !strings.Contains(got, tt.want) {
				t.Errorf("cacheState() = %q, want it to contain %q", got, tt.want)
			}
		})
	}
}

func TestDescriptionWidth(t *testing.T) {
	old := console.SetTTY(false)
	defer console.SetTTY(old)
	if got := descriptionWidth(); got != 60 {
		t.Errorf("descriptionWidth() without a terminal = %d, want 60", got)
	}
}
