package hcl

import (
	"github.com/hashicorp/hcl/v2"
)

// fileRoot decodes all top-level blocks of one file.
type fileRoot struct {
	Models   []*modelBlock   `hcl:"model,block"`
	Projects []*projectBlock `hcl:"project,block"`
}

type modelBlock struct {
	Name      string         `hcl:"name,label"`
	Type      hcl.Expression `hcl:"type"`
	Value     hcl.Expression `hcl:"value"`
	Marker    *string        `hcl:"marker,optional"`
	DeclRange hcl.Range      `hcl:",def_range"`
}

type projectBlock struct {
	Name      string          `hcl:"name,label"`
	Path      *string         `hcl:"path,optional"`
	Consumes  []*consumeBlock `hcl:"consume,block"`
	DeclRange hcl.Range       `hcl:",def_range"`
}

type consumeBlock struct {
	Model  string         `hcl:"model,label"`
	Type   hcl.Expression `hcl:"type"`
	Times  *int           `hcl:"times,optional"`
	Mutate *bool          `hcl:"mutate,optional"`
}
