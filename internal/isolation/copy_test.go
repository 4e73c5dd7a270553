package isolation

import (
	"errors"
	"testing"
	"time"
	"unsafe"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type artifact struct {
	Group   string
	Version string
	Tags    []string
	Extra   map[string]any
	Parent  *artifact
	Created time.Time
}

type hidden struct {
	Visible string
	secret  string
}

type node struct {
	Name string
	Next *node
}

type selfCopy struct {
	Items []string
}

func (s selfCopy) IsolatedCopy() (any, error) {
	return selfCopy{Items: append([]string{"copied"}, s.Items...)}, nil
}

type brokenCopy struct{}

func (brokenCopy) IsolatedCopy() (any, error) { return nil, errors.New("nope") }

type liarCopy struct{}

func (liarCopy) IsolatedCopy() (any, error) { return 42, nil }

func TestCopy_ProducesEqualIndependentValues(t *testing.T) {
	parent := &artifact{Group: "org.example", Version: "1"}
	testCases := []struct {
		name  string
		value any
	}{
		{name: "nil", value: nil},
		{name: "int", value: 7},
		{name: "string", value: "hello"},
		{name: "string slice", value: []string{"a", "b"}},
		{name: "empty slice", value: []string{}},
		{name: "nested map", value: map[string][]int{"x": {1, 2}, "y": nil}},
		{name: "array", value: [3]int{1, 2, 3}},
		{name: "struct", value: artifact{
			Group:   "org.example",
			Version: "2",
			Tags:    []string{"a"},
			Extra:   map[string]any{"k": []string{"v"}},
			Parent:  parent,
			Created: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		}},
		{name: "pointer", value: parent},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cp, err := Copy(tc.value)
			require.NoError(t, err)
			if diff := cmp.Diff(tc.value, cp); diff != "" {
				t.Errorf("copy mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCopy_MutationsDoNotLeak(t *testing.T) {
	orig := map[string][]string{"deps": {"a"}}
	cpAny, err := Copy(orig)
	require.NoError(t, err)
	cp := cpAny.(map[string][]string)

	cp["deps"][0] = "changed"
	cp["deps"] = append(cp["deps"], "b")
	cp["new"] = nil

	assert.Equal(t, map[string][]string{"deps": {"a"}}, orig)
}

func TestCopy_PointerIdentity(t *testing.T) {
	a := &artifact{Group: "g"}
	a.Parent = a
	cpAny, err := Copy(a)
	require.NoError(t, err)
	cp := cpAny.(*artifact)

	assert.NotSame(t, a, cp)
	assert.Same(t, cp, cp.Parent, "cycle must be preserved")

	shared := &node{Name: "shared"}
	pair := []*node{shared, shared}
	cpPairAny, err := Copy(pair)
	require.NoError(t, err)
	cpPair := cpPairAny.([]*node)
	assert.Same(t, cpPair[0], cpPair[1], "sharing must be preserved")
	assert.NotSame(t, shared, cpPair[0])
}

func TestCopy_Rejects(t *testing.T) {
	testCases := []struct {
		name  string
		value any
	}{
		{name: "channel", value: make(chan int)},
		{name: "function", value: func() {}},
		{name: "unsafe pointer", value: unsafe.Pointer(new(int))},
		{name: "unexported field", value: hidden{Visible: "v", secret: "s"}},
		{name: "nested channel", value: map[string]any{"c": make(chan int)}},
		{name: "failing copier", value: brokenCopy{}},
		{name: "copier returns wrong type", value: liarCopy{}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Copy(tc.value)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrUncopyable)
		})
	}
}

func TestCopy_NilFunctionsAreAllowed(t *testing.T) {
	type hooks struct {
		OnDone func()
	}
	cp, err := Copy(hooks{})
	require.NoError(t, err)
	assert.Nil(t, cp.(hooks).OnDone)
}

func TestCopy_UsesCopier(t *testing.T) {
	cp, err := Copy(selfCopy{Items: []string{"a"}})
	require.NoError(t, err)
	assert.Equal(t, selfCopy{Items: []string{"copied", "a"}}, cp)

	// Inside containers too.
	cp, err = Copy([]selfCopy{{Items: nil}})
	require.NoError(t, err)
	assert.Equal(t, []selfCopy{{Items: []string{"copied"}}}, cp)
}
