package exec

import (
	"context"
	"errors"
	"runtime"
	"strings"
	"testing"
)

func TestRunCommandOutput(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses sh")
	}
	out, err := RunCommandOutput(context.Background(), "sh", "-c", "echo hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(out) != "hello" {
		t.Errorf("output = %q", out)
	}

	out, err = RunCommandOutput(context.Background(), "sh", "-c", "echo already exists >&2; exit 3")
	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) {
		t.Fatalf("expected CommandError, got %v", err)
	}
	if !strings.Contains(cmdErr.Output, "already exists") || !strings.Contains(out, "already exists") {
		t.Errorf("output not captured: %q", cmdErr.Output)
	}
	if !strings.HasPrefix(cmdErr.Command, "sh -c") {
		t.Errorf("command = %q", cmdErr.Command)
	}
}

func TestRunAndLogCapturesOutputOnFailure(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses sh")
	}
	err := OSRunner{}.RunAndLog(context.Background(), "", "docker:notice", "", "", "sh", "-c", "echo failing; echo 'network with name net already exists' >&2; exit 1")
	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) {
		t.Fatalf("expected CommandError, got %v", err)
	}
	// The logged lines are still returned with the error.
	for _, want := range []string{"failing", "already exists"} {
		if !strings.Contains(cmdErr.Output, want) {
			t.Errorf("output = %q, want it to contain %q", cmdErr.Output, want)
		}
	}
}
