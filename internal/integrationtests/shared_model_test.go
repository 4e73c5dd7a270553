package integrationtests

import (
	"testing"

	"github.com/specialistvlad/buildmodels/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSharedModel_EachProjectMutatesItsOwnCopy(t *testing.T) {
	// --- Arrange ---
	files := map[string]string{
		"settings.hcl": `
			model "someKey" {
			  type   = list(string)
			  value  = ["settings"]
			  marker = "someKey realized"
			}
		`,
		"projects.hcl": `
			project "root" {
			  consume "someKey" {
			    type   = list(string)
			    times  = 2
			    mutate = true
			  }
			}

			project "a" {
			  consume "someKey" {
			    type   = list(string)
			    times  = 2
			    mutate = true
			  }
			}
		`,
	}

	// --- Act ---
	result := testutil.RunIntegrationTest(t, files)

	// --- Assert ---
	require.NoError(t, result.Err)
	testutil.AssertObserved(t, result, ":", "someKey", 1, "[settings root]")
	testutil.AssertObserved(t, result, ":", "someKey", 2, "[settings root root]")
	testutil.AssertObserved(t, result, ":a", "someKey", 1, "[settings a]")
	testutil.AssertObserved(t, result, ":a", "someKey", 2, "[settings a a]")
	assert.Equal(t, 1, testutil.CountLines(result, "someKey realized"), "producer work must run exactly once")
}

func TestSharedModel_MapCopiesAreIsolated(t *testing.T) {
	// --- Arrange ---
	files := map[string]string{
		"main.hcl": `
			model "owners" {
			  type  = map(string)
			  value = { settings = "settings" }
			}

			project "a" {
			  consume "owners" {
			    type   = map(string)
			    times  = 2
			    mutate = true
			  }
			}

			project "b" {
			  consume "owners" {
			    type = map(string)
			  }
			}
		`,
	}

	// --- Act ---
	result := testutil.RunIntegrationTest(t, files)

	// --- Assert ---
	require.NoError(t, result.Err)
	testutil.AssertObserved(t, result, ":a", "owners", 1, "map[a:a settings:settings]")
	testutil.AssertObserved(t, result, ":a", "owners", 2, "map[a:a settings:settings]")
	testutil.AssertObserved(t, result, ":b", "owners", 1, "map[settings:settings]")
}
