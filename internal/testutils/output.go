package testutils

import (
	"fmt"
	"os"
	"testing"
	"text/tabwriter"
)

// TestCase represents a single comparison row in a table-driven test.
type TestCase struct {
	Name     string
	Input    string
	Expected string
	Actual   string
	Pass     bool
}

const (
	reset = "\033[0m"
	red   = "\033[31m"
	green = "\033[32m"
)

// PrintTestTable prints a table of comparison results to stdout and marks the
// test as failed if any case has Pass=false. Failing rows are flagged with
// pointers and also reported through t.Errorf so they show up under -v=false.
func PrintTestTable(t *testing.T, cases []TestCase) {
	t.Helper()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)

	fmt.Fprintf(w, "  Case\tInput\tExpected\tReturned\t\n")

	for _, tc := range cases {
		color := green
		ptr := " "
		if !tc.Pass {
			color = red
			ptr = red + ">" + reset
			t.Errorf("%s: input %q expected %q, got %q", tc.Name, tc.Input, tc.Expected, tc.Actual)
		}
		fmt.Fprintf(w, "%s %s\t%s\t%s\t%s%s%s\t\n",
			ptr, tc.Name, tc.Input, tc.Expected, color, tc.Actual, reset)
	}

	w.Flush()
	fmt.Println()
}
