// This file maps HCL type expressions (e.g. `string`, `list(number)`) to
// cty.Types and cty.Types to the Go types models are published as.

package hcl

import (
	"context"
	"fmt"
	"reflect"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/ext/typeexpr"
	"github.com/specialistvlad/buildmodels/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
)

// typeConstraint parses a type expression and checks that models of that
// type can be published as Go values.
func typeConstraint(ctx context.Context, expr hcl.Expression) (cty.Type, error) {
	if !exprDefined(expr) {
		return cty.NilType, fmt.Errorf("a type is required")
	}
	t, diags := typeexpr.TypeConstraint(expr)
	if diags.HasErrors() {
		return cty.NilType, diags
	}
	if _, err := goType(t, true); err != nil {
		return cty.NilType, err
	}
	ctxlog.FromContext(ctx).Debug("Parsed type expression.", "type", t.FriendlyName())
	return t, nil
}

// goType returns the Go type for t. Top-level lists and sets are published
// behind a pointer so a consumer can grow its own copy in place.
func goType(t cty.Type, top bool) (reflect.Type, error) {
	switch {
	case t == cty.String:
		return reflect.TypeFor[string](), nil
	case t == cty.Number:
		return reflect.TypeFor[float64](), nil
	case t == cty.Bool:
		return reflect.TypeFor[bool](), nil
	case t == cty.DynamicPseudoType:
		return nil, fmt.Errorf("type 'any' is not supported for models")
	case t.IsListType() || t.IsSetType():
		elem, err := goType(t.ElementType(), false)
		if err != nil {
			return nil, err
		}
		st := reflect.SliceOf(elem)
		if top {
			return reflect.PointerTo(st), nil
		}
		return st, nil
	case t.IsMapType():
		elem, err := goType(t.ElementType(), false)
		if err != nil {
			return nil, err
		}
		return reflect.MapOf(reflect.TypeFor[string](), elem), nil
	default:
		return nil, fmt.Errorf("type %s is not supported for models", t.FriendlyName())
	}
}
