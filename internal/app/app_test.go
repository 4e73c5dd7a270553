package app

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/specialistvlad/buildmodels/internal/buildsession"
	"github.com/specialistvlad/buildmodels/internal/hcl"
	"github.com/specialistvlad/buildmodels/internal/metrics"
	"github.com/specialistvlad/buildmodels/internal/modelkey"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeBuild(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "build.hcl")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestNewConfig(t *testing.T) {
	testCases := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{name: "valid", cfg: Config{BuildPath: "build.hcl", HealthcheckPort: 8080, WorkerCount: 4}},
		{name: "missing path", cfg: Config{}, wantErr: "BuildPath"},
		{name: "bad port", cfg: Config{BuildPath: "b", HealthcheckPort: 70000}, wantErr: "healthcheck port"},
		{name: "negative workers", cfg: Config{BuildPath: "b", WorkerCount: -1}, wantErr: "worker count"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := NewConfig(tc.cfg)
			if tc.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.cfg, *cfg)
		})
	}
}

func TestNewLogger(t *testing.T) {
	buf := &SafeBuffer{}
	logger := newLogger("warn", "json", buf)
	logger.Info("hidden")
	logger.Warn("shown", "k", "v")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"shown"`)

	buf = &SafeBuffer{}
	newLogger("bogus", "text", buf).Info("fallback")
	assert.Contains(t, buf.String(), "msg=fallback")
}

const someKeyBuild = `
model "someKey" {
  type   = list(string)
  value  = ["settings"]
  marker = "someKey realized"
}

model "unused" {
  type   = string
  value  = "never"
  marker = "unused realized"
}

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
`

func TestRun_SomeKeyBuild(t *testing.T) {
	cfg := &Config{BuildPath: writeBuild(t, someKeyBuild), LogFormat: "text", WorkerCount: 2}
	a, out := SetupAppTest(t, cfg, hcl.NewLoader())

	require.NoError(t, a.Run(context.Background()))

	logs := out.String()
	assert.Equal(t, 1, strings.Count(logs, "someKey realized\n"))
	assert.NotContains(t, logs, "unused realized")
	assert.Contains(t, logs, "[:] someKey #2: [settings root root]\n")
	assert.Contains(t, logs, "[:a] someKey #2: [settings a a]\n")
	assert.Contains(t, logs, "Build session closed.")
}

func TestRun_FailingProjectFailsBuild(t *testing.T) {
	build := `
model "token" {
  type  = string
  value = required_env("BUILDMODELS_TEST_SURELY_UNSET_TOKEN")
}

project "a" {
  consume "token" {
    type = string
  }
}

project "b" {
  consume "host" {
    type = map(string)
  }
}
`
	cfg := &Config{BuildPath: writeBuild(t, build), LogFormat: "text", WorkerCount: 2}
	a, out := SetupAppTest(t, cfg, hcl.NewLoader())

	err := a.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 projects failed")
	assert.Contains(t, out.String(), "[:a] token #1: error:")
	assert.Contains(t, out.String(), "[:b] host #1: map[")
}

func TestRun_Errors(t *testing.T) {
	t.Run("missing build path", func(t *testing.T) {
		cfg := &Config{BuildPath: filepath.Join(t.TempDir(), "missing.hcl")}
		a, _ := SetupAppTest(t, cfg, hcl.NewLoader())
		err := a.Run(context.Background())
		assert.ErrorContains(t, err, "failed to load build description")
	})

	t.Run("unknown disabled plugin", func(t *testing.T) {
		cfg := &Config{BuildPath: writeBuild(t, someKeyBuild), DisabledPlugins: []string{"nope"}}
		a, _ := SetupAppTest(t, cfg, hcl.NewLoader())
		err := a.Run(context.Background())
		assert.ErrorContains(t, err, "failed to apply settings")
	})

	t.Run("model clashes with plugin", func(t *testing.T) {
		build := "model \"env\" {\n  type  = string\n  value = \"x\"\n}\n"
		cfg := &Config{BuildPath: writeBuild(t, build)}
		a, _ := SetupAppTest(t, cfg, hcl.NewLoader())
		err := a.Run(context.Background())
		assert.ErrorContains(t, err, "duplicate model key")
	})

	t.Run("bad events URL", func(t *testing.T) {
		cfg := &Config{BuildPath: writeBuild(t, someKeyBuild), EventsURL: "localhost:9000"}
		a, out := SetupAppTest(t, cfg, hcl.NewLoader())
		err := a.Run(context.Background())
		assert.ErrorContains(t, err, "must include a scheme and host")
		assert.NotContains(t, out.String(), "someKey realized")
	})
}

func TestRun_DisabledPluginFreesName(t *testing.T) {
	build := `
model "env" {
  type  = map(string)
  value = { CUSTOM = "yes" }
}

project "a" {
  consume "env" {
    type = map(string)
  }
}
`
	cfg := &Config{BuildPath: writeBuild(t, build), DisabledPlugins: []string{"env_vars"}}
	a, out := SetupAppTest(t, cfg, hcl.NewLoader())
	require.NoError(t, a.Run(context.Background()))
	assert.Contains(t, out.String(), "[:a] env #1: map[CUSTOM:yes]")
}

type discardSink struct{}

func (discardSink) Send(string, map[string]any) error { return nil }

type plainFactory struct{}

func (plainFactory) NewSession(context.Context) (buildsession.Session, error) { return nil, nil }

func TestEventSessions(t *testing.T) {
	t.Run("keeps the configured factory", func(t *testing.T) {
		cfg := &Config{BuildPath: "b.hcl"}
		a, _ := SetupAppTest(t, cfg, hcl.NewLoader())
		a.sessions = &buildsession.LocalFactory{NewID: func() string { return "injected" }}

		f, err := a.eventSessions(discardSink{})
		require.NoError(t, err)
		s, err := f.NewSession(context.Background())
		require.NoError(t, err)
		defer func() { _ = s.Close(context.Background()) }()

		assert.Equal(t, "injected", s.ID())
	})

	t.Run("factory without event support", func(t *testing.T) {
		cfg := &Config{BuildPath: "b.hcl"}
		a, _ := SetupAppTest(t, cfg, hcl.NewLoader())
		a.sessions = plainFactory{}

		_, err := a.eventSessions(discardSink{})
		assert.ErrorContains(t, err, "does not support build events")
	})
}

func TestHealthMux(t *testing.T) {
	a, _ := SetupAppTest(t, &Config{BuildPath: "unused"}, hcl.NewLoader())
	m := metrics.New("b1")
	m.ModelPosted(modelkey.Of[int]("x"))
	srv := httptest.NewServer(a.newHealthMux(m.Registry()))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := new(strings.Builder)
	_, err = io.Copy(body, resp.Body)
	require.NoError(t, err)
	assert.Contains(t, body.String(), `buildmodels_models_posted_total{build_id="b1"} 1`)
}

func TestCloseHealthCheckServer_NotRunning(t *testing.T) {
	a, _ := SetupAppTest(t, &Config{BuildPath: "unused"}, hcl.NewLoader())
	assert.NoError(t, a.closeHealthCheckServer())
}
