package config

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
)

// Model is the unified representation of a build description.
type Model struct {
	Models   []*ModelDefinition
	Projects []*Project
}

// ModelDefinition is the format-agnostic representation of a `model` block.
type ModelDefinition struct {
	Name string
	Type cty.Type
	// Value is kept unevaluated until the model is first demanded.
	Value hcl.Expression
	// Marker is printed when the model's work runs. Empty disables it.
	Marker    string
	DeclRange hcl.Range
}

// Project is the format-agnostic representation of a `project` block.
type Project struct {
	Name string
	// Path is the project's scope path, such as `:` or `:a`.
	Path     string
	Consumes []*Consume
}

// Consume describes how a project uses one model.
type Consume struct {
	Model string
	Type  cty.Type
	// Times is the number of times the project requests the model.
	Times int
	// Mutate makes the project add its own name to its copy on each request.
	Mutate bool
}
