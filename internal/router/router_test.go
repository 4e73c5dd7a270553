package router

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/specialistvlad/buildmodels/internal/canonical"
	"github.com/specialistvlad/buildmodels/internal/metrics"
	"github.com/specialistvlad/buildmodels/internal/modelerr"
	"github.com/specialistvlad/buildmodels/internal/modelkey"
	"github.com/specialistvlad/buildmodels/internal/scope"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// appendOwnName fetches the scope's list and appends the scope's name to it.
func appendOwnName(t *testing.T, ctx context.Context, h *Handle, p scope.Project) []string {
	t.Helper()
	v, err := h.Get(ctx, p)
	require.NoError(t, err)
	list := v.(*[]string)
	*list = append(*list, p.Name())
	return append([]string(nil), *list...)
}

func TestSomeKeyScenario(t *testing.T) {
	ctx := context.Background()
	r := New()
	key := modelkey.Of[*[]string]("someKey")
	var calls atomic.Int32
	require.NoError(t, r.PostModel(ctx, key, NewWork(func() (any, error) {
		calls.Add(1)
		return &[]string{"settings"}, nil
	})))

	h := r.GetBuildModel(key)
	root := scope.Root()
	a := scope.MustProject(":a")

	assert.Equal(t, []string{"settings", "root"}, appendOwnName(t, ctx, h, root))
	assert.Equal(t, []string{"settings", "root", "root"}, appendOwnName(t, ctx, h, root))
	assert.Equal(t, []string{"settings", "a"}, appendOwnName(t, ctx, h, a))
	assert.Equal(t, []string{"settings", "a", "a"}, appendOwnName(t, ctx, h, a))

	assert.Equal(t, int32(1), calls.Load())
}

func TestConditionalRealization(t *testing.T) {
	testCases := []struct {
		name       string
		consumers  int
		wantMarker int
	}{
		{name: "no consumer", consumers: 0, wantMarker: 0},
		{name: "one consumer", consumers: 1, wantMarker: 1},
		{name: "many consumers", consumers: 5, wantMarker: 1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			r := New()
			var markers atomic.Int32
			key, err := Post(ctx, r, "marked", func(context.Context) (string, error) {
				markers.Add(1)
				return "value", nil
			})
			require.NoError(t, err)

			// Obtaining handles never computes.
			h := r.GetBuildModel(key)
			for i := 0; i < tc.consumers; i++ {
				_, err := h.Get(ctx, scope.ID(fmt.Sprintf("consumer-%d", i)))
				require.NoError(t, err)
			}

			assert.Equal(t, int32(tc.wantMarker), markers.Load())
		})
	}
}

func TestGet_SingleFlightAcrossScopes(t *testing.T) {
	ctx := context.Background()
	r := New()
	var calls atomic.Int32
	start := make(chan struct{})
	key, err := Post(ctx, r, "shared", func(context.Context) (map[string]int, error) {
		calls.Add(1)
		return map[string]int{"n": 1}, nil
	})
	require.NoError(t, err)

	const goroutines = 24
	scopes := []scope.Scope{scope.Root(), scope.MustProject(":a"), scope.MustProject(":b")}
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			v, err := r.GetBuildModel(key).Get(ctx, scopes[i%len(scopes)])
			assert.NoError(t, err)
			assert.Equal(t, map[string]int{"n": 1}, v)
		}(i)
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, len(scopes), r.Summary().IsolatedCopies)
}

func TestGet_Isolation(t *testing.T) {
	ctx := context.Background()
	r := New()
	key, err := Post(ctx, r, "env", func(context.Context) (map[string]string, error) {
		return map[string]string{"HOME": "/root"}, nil
	})
	require.NoError(t, err)
	h := r.GetBuildModel(key)

	av, err := h.Get(ctx, scope.MustProject(":a"))
	require.NoError(t, err)
	av.(map[string]string)["HOME"] = "/tmp"

	bv, err := h.Get(ctx, scope.MustProject(":b"))
	require.NoError(t, err)
	assert.Equal(t, "/root", bv.(map[string]string)["HOME"])

	again, err := h.Get(ctx, scope.MustProject(":a"))
	require.NoError(t, err)
	assert.Equal(t, "/tmp", again.(map[string]string)["HOME"])
}

func TestGet_FailureIsCachedAcrossScopes(t *testing.T) {
	ctx := context.Background()
	r := New()
	cause := errors.New("resolution failed")
	var calls atomic.Int32
	key, err := Post(ctx, r, "deps", func(context.Context) ([]string, error) {
		calls.Add(1)
		return nil, cause
	})
	require.NoError(t, err)
	h := r.GetBuildModel(key)

	_, errA := h.Get(ctx, scope.MustProject(":a"))
	_, errB := h.Get(ctx, scope.MustProject(":b"))

	require.Error(t, errA)
	assert.ErrorIs(t, errA, modelerr.ErrComputationFailed)
	assert.ErrorIs(t, errA, cause)
	assert.Same(t, errA, errB)
	assert.Equal(t, int32(1), calls.Load())

	state, ok := r.State(key)
	require.True(t, ok)
	assert.Equal(t, canonical.Failed, state)
}

func TestGet_LookupErrors(t *testing.T) {
	ctx := context.Background()
	r := New()
	_, err := Post(ctx, r, "someKey", func(context.Context) ([]string, error) { return nil, nil })
	require.NoError(t, err)

	testCases := []struct {
		name    string
		key     modelkey.Key
		wantErr error
	}{
		{name: "unknown", key: modelkey.Of[[]string]("other"), wantErr: modelerr.ErrUnknownKey},
		{name: "type mismatch", key: modelkey.Of[string]("someKey"), wantErr: modelerr.ErrTypeMismatch},
		{name: "invalid", key: modelkey.Key{}, wantErr: modelerr.ErrInvalidKey},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			h := r.GetBuildModel(tc.key)
			assert.Equal(t, tc.key, h.Key())
			_, err := h.Get(ctx, scope.Root())
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}

	state, _ := r.State(modelkey.Of[[]string]("someKey"))
	assert.Equal(t, canonical.Pending, state)
}

func TestTypedHelpers(t *testing.T) {
	ctx := context.Background()
	r := New()
	_, err := Post(ctx, r, "count", func(context.Context) (int, error) { return 3, nil })
	require.NoError(t, err)
	_, err = Post(ctx, r, "nothing", func(context.Context) ([]string, error) { return nil, nil })
	require.NoError(t, err)

	n, err := Get[int](ctx, r, "count", scope.Root())
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	none, err := Get[[]string](ctx, r, "nothing", scope.Root())
	require.NoError(t, err)
	assert.Nil(t, none)

	_, err = Get[string](ctx, r, "count", scope.Root())
	assert.ErrorIs(t, err, modelerr.ErrTypeMismatch)

	_, err = Post(ctx, r, "count", func(context.Context) (int, error) { return 4, nil })
	assert.ErrorIs(t, err, modelerr.ErrDuplicateKey)

	keys := r.Keys()
	require.Len(t, keys, 2)
	assert.Equal(t, "count", keys[0].Name())
}

func TestRouter_Metrics(t *testing.T) {
	ctx := context.Background()
	m := metrics.New("b1")
	r := New(WithMetrics(m), WithBuildID("b1"))
	assert.Equal(t, "b1", r.BuildID())

	key, err := Post(ctx, r, "x", func(context.Context) (int, error) { return 1, nil })
	require.NoError(t, err)
	h := r.GetBuildModel(key)
	_, err = h.Get(ctx, scope.Root())
	require.NoError(t, err)
	_, err = h.Get(ctx, scope.Root())
	require.NoError(t, err)
	_, err = r.GetBuildModel(modelkey.Of[int]("missing")).Get(ctx, scope.Root())
	require.Error(t, err)

	count, err := testutil.GatherAndCount(m.Registry(), "buildmodels_model_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count, "one series for success and one for unknown_key")

	summary := r.Summary()
	assert.Equal(t, 1, summary.Realized)
	assert.Equal(t, 1, summary.IsolatedCopies)
}

func TestWithCopyFunc(t *testing.T) {
	ctx := context.Background()
	r := New(WithCopyFunc(func(v any) (any, error) {
		return nil, errors.New("copy refused")
	}))
	key, err := Post(ctx, r, "x", func(context.Context) (map[string]int, error) { return map[string]int{}, nil })
	require.NoError(t, err)

	_, err = r.GetBuildModel(key).Get(ctx, scope.Root())
	assert.ErrorIs(t, err, modelerr.ErrIsolation)

	// The canonical entry stays realized.
	state, _ := r.State(key)
	assert.Equal(t, canonical.Realized, state)
}
