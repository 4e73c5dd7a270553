package testutil

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// AssertObserved checks that the project at path reported value for the
// given call of model.
func AssertObserved(t *testing.T, result *HarnessResult, path, model string, call int, value string) {
	t.Helper()

	expected := fmt.Sprintf("[%s] %s #%d: %s\n", path, model, call, value)
	require.True(t,
		strings.Contains(result.LogOutput, expected),
		"expected observation %q was not found in output", strings.TrimSpace(expected),
	)
}

// AssertObservedError checks that the call of model by the project at path failed.
func AssertObservedError(t *testing.T, result *HarnessResult, path, model string, call int) {
	t.Helper()

	expected := fmt.Sprintf("[%s] %s #%d: error:", path, model, call)
	require.True(t,
		strings.Contains(result.LogOutput, expected),
		"expected failed observation %q was not found in output", expected,
	)
}

// CountLines returns how many output lines equal line exactly.
func CountLines(result *HarnessResult, line string) int {
	n := 0
	for _, l := range strings.Split(result.LogOutput, "\n") {
		if l == line {
			n++
		}
	}
	return n
}
