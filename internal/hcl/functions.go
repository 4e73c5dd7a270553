package hcl

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
)

// newEvalContext returns the context model values are evaluated in.
func newEvalContext(lookupEnv func(string) (string, bool)) *hcl.EvalContext {
	return &hcl.EvalContext{
		Functions: map[string]function.Function{
			"env":          envFunc(lookupEnv),
			"required_env": requiredEnvFunc(lookupEnv),
			"upper":        stdlib.UpperFunc,
			"lower":        stdlib.LowerFunc,
			"trimspace":    stdlib.TrimSpaceFunc,
			"format":       stdlib.FormatFunc,
			"join":         stdlib.JoinFunc,
			"split":        stdlib.SplitFunc,
			"concat":       stdlib.ConcatFunc,
			"distinct":     stdlib.DistinctFunc,
			"sort":         stdlib.SortFunc,
			"length":       stdlib.LengthFunc,
			"keys":         stdlib.KeysFunc,
			"values":       stdlib.ValuesFunc,
			"merge":        stdlib.MergeFunc,
			"contains":     stdlib.ContainsFunc,
			"coalesce":     stdlib.CoalesceFunc,
			"max":          stdlib.MaxFunc,
			"min":          stdlib.MinFunc,
		},
	}
}

var nameParam = []function.Parameter{{Name: "name", Type: cty.String}}

// envFunc returns the value of an environment variable, or "" when unset.
func envFunc(lookupEnv func(string) (string, bool)) function.Function {
	return function.New(&function.Spec{
		Params: nameParam,
		Type:   function.StaticReturnType(cty.String),
		Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
			v, _ := lookupEnv(args[0].AsString())
			return cty.StringVal(v), nil
		},
	})
}

// requiredEnvFunc is like envFunc but fails when the variable is unset.
func requiredEnvFunc(lookupEnv func(string) (string, bool)) function.Function {
	return function.New(&function.Spec{
		Params: nameParam,
		Type:   function.StaticReturnType(cty.String),
		Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
			name := args[0].AsString()
			v, ok := lookupEnv(name)
			if !ok {
				return cty.NilVal, fmt.Errorf("environment variable %q is not set", name)
			}
			return cty.StringVal(v), nil
		},
	})
}
