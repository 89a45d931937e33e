package assets

import (
	"EasyDockerDeploy/internal/paths"
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestEmbeddedPresets(t *testing.T) {
	paths.ConfigHomeOverride = t.TempDir()
	defer func() { paths.ConfigHomeOverride = "" }()

	data, err := AppPresets()
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"wikijs:", "gitea:", "gitlab:", "wordpress:", "nextcloud:", "jellyfin:", "heimdall:"} {
		if !strings.Contains(string(data), "\n"+name) {
			t.Errorf("apps.yml is missing %s", name)
		}
	}

	if got := StackNames(); !reflect.DeepEqual(got, []string{"media"}) {
		t.Errorf("StackNames = %v", got)
	}
	if _, err := Stack("media"); err != nil {
		t.Error(err)
	}
	for _, bad := range []string{"", "../apps", "nope"} {
		if _, err := Stack(bad); err == nil {
			t.Errorf("Stack(%q) should fail", bad)
		}
	}
}

func TestEnsureAssetsKeepsUserEdits(t *testing.T) {
	paths.ConfigHomeOverride = t.TempDir()
	defer func() { paths.ConfigHomeOverride = "" }()
	ctx := context.Background()

	if err := EnsureAssets(ctx); err != nil {
		t.Fatal(err)
	}
	appsPath := filepath.Join(PresetsDir(), "apps.yml")
	if _, err := os.Stat(filepath.Join(PresetsDir(), "stacks", "media.yml")); err != nil {
		t.Errorf("stack not extracted: %v", err)
	}

	custom := []byte("custom:\n  image: custom/image:1\n")
	if err := os.WriteFile(appsPath, custom, 0644); err != nil {
		t.Fatal(err)
	}
	if err := EnsureAssets(ctx); err != nil {
		t.Fatal(err)
	}
	data, err := AppPresets()
	if err != nil || string(data) != string(custom) {
		t.Errorf("user copy should win: %q, %v", data, err)
	}
}
