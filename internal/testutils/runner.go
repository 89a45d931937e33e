package testutils

import (
	"context"
	"strings"
	"sync"
)

// Call is one recorded command invocation.
type Call struct {
	Command string
	Args    []string
}

func (c Call) String() string {
	return strings.TrimSpace(c.Command + " " + strings.Join(c.Args, " "))
}

// FakeRunner records commands instead of running them. Fail and Outputs are
// keyed by command line prefix; the longest matching prefix wins.
type FakeRunner struct {
	mu      sync.Mutex
	Calls   []Call
	Fail    map[string]error
	Outputs map[string]string
}

// RunAndLog records the call and returns the configured failure, if any.
func (f *FakeRunner) RunAndLog(ctx context.Context, _, _, _, _ string, command string, args ...string) error {
	line := f.record(command, args)
	if err := ctx.Err(); err != nil {
		return err
	}
	return lookup(f.Fail, line)
}

// Output records the call and returns the configured output and failure.
func (f *FakeRunner) Output(ctx context.Context, command string, args ...string) (string, error) {
	line := f.record(command, args)
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return lookup(f.Outputs, line), lookup(f.Fail, line)
}

// Commands returns every recorded command line.
func (f *FakeRunner) Commands() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.Calls))
	for i, c := range f.Calls {
		out[i] = c.String()
	}
	return out
}

func (f *FakeRunner) record(command string, args []string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := Call{Command: command, Args: append([]string(nil), args...)}
	f.Calls = append(f.Calls, c)
	return c.String()
}

func lookup[V any](m map[string]V, line string) V {
	var best V
	bestLen := -1
	for prefix, v := range m {
		if strings.HasPrefix(line, prefix) && len(prefix) > bestLen {
			best, bestLen = v, len(prefix)
		}
	}
	return best
}
