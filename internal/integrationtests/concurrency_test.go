package integrationtests

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/specialistvlad/buildmodels/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func projectsConsuming(n int, model, typ string, times int, mutate bool) string {
	var sb strings.Builder
	for i := 0; i < n; i++ {
		fmt.Fprintf(&sb, "project \"p%02d\" {\n  consume %q {\n    type   = %s\n    times  = %d\n    mutate = %t\n  }\n}\n", i, model, typ, times, mutate)
	}
	return sb.String()
}

func TestConcurrency_SlowModelComputedOnceForAllProjects(t *testing.T) {
	// --- Arrange ---
	deps := &testutil.CountingModule[*[]string]{
		Model: "dependencies",
		Sleep: 50 * time.Millisecond,
		Value: func() (*[]string, error) { return &[]string{"core"}, nil },
	}
	files := map[string]string{"projects.hcl": projectsConsuming(20, "dependencies", "list(string)", 2, true)}

	// --- Act ---
	result := testutil.RunIntegrationTestWithOptions(context.Background(), t, files, testutil.Options{WorkerCount: 20}, deps)

	// --- Assert ---
	require.NoError(t, result.Err)
	assert.Equal(t, 1, deps.Calls())
	require.Len(t, deps.Runs(), 1)
	for i := 0; i < 20; i++ {
		name := fmt.Sprintf("p%02d", i)
		testutil.AssertObserved(t, result, ":"+name, "dependencies", 2, fmt.Sprintf("[core %s %s]", name, name))
	}
}

func TestConcurrency_IndependentModelsComputeInParallel(t *testing.T) {
	// --- Arrange ---
	const sleep = 150 * time.Millisecond
	slowA := &testutil.CountingModule[string]{Model: "a", Sleep: sleep, Value: func() (string, error) { return "A", nil }}
	slowB := &testutil.CountingModule[string]{Model: "b", Sleep: sleep, Value: func() (string, error) { return "B", nil }}
	files := map[string]string{
		"projects.hcl": `
			project "x" {
			  consume "a" {
			    type = string
			  }
			}
			project "y" {
			  consume "b" {
			    type = string
			  }
			}
		`,
	}

	// --- Act ---
	result := testutil.RunIntegrationTestWithOptions(context.Background(), t, files, testutil.Options{WorkerCount: 2}, slowA, slowB)

	// --- Assert ---
	require.NoError(t, result.Err)
	runA, runB := slowA.Runs()[0], slowB.Runs()[0]
	assert.True(t, runA.Start.Before(runB.End) && runB.Start.Before(runA.End),
		"work for different keys must not serialize: a=[%v,%v] b=[%v,%v]", runA.Start, runA.End, runB.Start, runB.End)
}
