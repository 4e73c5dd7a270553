// Package testutil provides the harness used by integration tests: it writes
// a build description to a temporary directory, runs a full build through
// app.App and captures everything the build printed.
package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/specialistvlad/buildmodels/internal/app"
	"github.com/specialistvlad/buildmodels/internal/hcl"
	"github.com/specialistvlad/buildmodels/internal/settings"
	"github.com/stretchr/testify/require"
)

// HarnessResult holds the outcomes of an integration test run.
type HarnessResult struct {
	LogOutput string
	Err       error
	App       *app.App
}

// Options tunes a harness run.
type Options struct {
	WorkerCount     int
	DisabledPlugins []string
	// LookupEnv backs env() and required_env() in the build description.
	LookupEnv func(string) (string, bool)
}

// RunIntegrationTest runs a build using a default background context. files
// maps paths relative to the build directory to their content.
func RunIntegrationTest(t *testing.T, files map[string]string, modules ...settings.Module) *HarnessResult {
	t.Helper()
	return RunIntegrationTestWithOptions(context.Background(), t, files, Options{}, modules...)
}

// RunIntegrationTestWithOptions runs a build with a caller-supplied context
// and options. When no module is given, only the build description's models
// are posted.
func RunIntegrationTestWithOptions(ctx context.Context, t *testing.T, files map[string]string, opts Options, modules ...settings.Module) *HarnessResult {
	t.Helper()

	buildDir := filepath.Join(t.TempDir(), "build")
	require.NoError(t, os.Mkdir(buildDir, 0o755))
	for name, content := range files {
		filePath := filepath.Join(buildDir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(filePath), 0o755))
		require.NoError(t, os.WriteFile(filePath, []byte(content), 0o644))
	}

	if len(modules) == 0 {
		modules = []settings.Module{noModules{}}
	}
	workers := opts.WorkerCount
	if workers == 0 {
		workers = 4
	}
	appConfig := &app.Config{
		BuildPath:       buildDir,
		LogLevel:        "debug",
		LogFormat:       "text",
		WorkerCount:     workers,
		DisabledPlugins: opts.DisabledPlugins,
	}

	loader := hcl.NewLoader()
	loader.LookupEnv = opts.LookupEnv

	logBuffer := &app.SafeBuffer{}
	var testApp *app.App
	var runErr error
	func() {
		defer func() {
			if r := recover(); r != nil {
				runErr = fmt.Errorf("application startup panicked | %v", r)
			}
		}()
		testApp = app.NewApp(logBuffer, appConfig, loader, modules...)
		runErr = testApp.Run(ctx)
	}()

	if os.Getenv("BGGO_TEST_LOGS") == "true" {
		t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
	}

	return &HarnessResult{
		LogOutput: logBuffer.String(),
		Err:       runErr,
		App:       testApp,
	}
}

// noModules stands in for the core modules when a test registers none.
type noModules struct{}

func (noModules) Register(*settings.Registry) {}
