package hcl

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/specialistvlad/buildmodels/internal/config"
	"github.com/specialistvlad/buildmodels/internal/ctxlog"
	"github.com/specialistvlad/buildmodels/internal/fsutil"
	"github.com/specialistvlad/buildmodels/internal/scope"
)

const rootProjectName = "root"

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct {
	// LookupEnv backs the env() and required_env() functions of the returned
	// Converter. Defaults to os.LookupEnv.
	LookupEnv func(string) (string, bool)
}

// NewLoader creates a new HCL build description loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses every `.hcl` file found under paths and merges their blocks.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, config.Converter, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	files, err := findAllHCLFiles(paths)
	if err != nil {
		return nil, nil, err
	}
	if len(files) == 0 {
		return nil, nil, fmt.Errorf("no .hcl files found in %v", paths)
	}
	logger.Debug("Discovered HCL files.", "count", len(files))

	model := &config.Model{}
	projectPaths := make(map[string]string)
	parser := hclparse.NewParser()

	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}

		var root fileRoot
		diags = gohcl.DecodeBody(hclFile.Body, nil, &root)
		if diags.HasErrors() {
			return nil, nil, fmt.Errorf("failed to decode HCL file %s: %w", file, diags)
		}

		for _, mb := range root.Models {
			def, err := translateModel(ctx, mb)
			if err != nil {
				return nil, nil, err
			}
			model.Models = append(model.Models, def)
		}
		for _, pb := range root.Projects {
			p, err := translateProject(ctx, pb)
			if err != nil {
				return nil, nil, err
			}
			if other, dup := projectPaths[p.Path]; dup {
				return nil, nil, fmt.Errorf("%s: project %q uses path %q already used by project %q", pb.DeclRange, p.Name, p.Path, other)
			}
			projectPaths[p.Path] = p.Name
			model.Projects = append(model.Projects, p)
		}
	}

	sort.Slice(model.Projects, func(i, j int) bool { return model.Projects[i].Path < model.Projects[j].Path })

	logger.Debug("HCL loading complete.", "models", len(model.Models), "projects", len(model.Projects))
	return model, NewConverter(l.LookupEnv), nil
}

func translateModel(ctx context.Context, mb *modelBlock) (*config.ModelDefinition, error) {
	t, err := typeConstraint(ctx, mb.Type)
	if err != nil {
		return nil, fmt.Errorf("%s: in model %q: %w", mb.DeclRange, mb.Name, err)
	}
	if !exprDefined(mb.Value) {
		return nil, fmt.Errorf("%s: in model %q: a value is required", mb.DeclRange, mb.Name)
	}
	def := &config.ModelDefinition{
		Name:      mb.Name,
		Type:      t,
		Value:     mb.Value,
		DeclRange: mb.DeclRange,
	}
	if mb.Marker != nil {
		def.Marker = *mb.Marker
	}
	return def, nil
}

func translateProject(ctx context.Context, pb *projectBlock) (*config.Project, error) {
	p := &config.Project{Name: pb.Name}

	switch {
	case pb.Path != nil:
		p.Path = *pb.Path
	case pb.Name == rootProjectName:
		p.Path = scope.Root().String()
	default:
		p.Path = ":" + pb.Name
	}
	if _, err := scope.ParseProject(p.Path); err != nil {
		return nil, fmt.Errorf("%s: in project %q: %w", pb.DeclRange, pb.Name, err)
	}

	for _, cb := range pb.Consumes {
		t, err := typeConstraint(ctx, cb.Type)
		if err != nil {
			return nil, fmt.Errorf("%s: in project %q, consume %q: %w", pb.DeclRange, pb.Name, cb.Model, err)
		}
		c := &config.Consume{Model: cb.Model, Type: t, Times: 1}
		if cb.Times != nil {
			if *cb.Times < 0 {
				return nil, fmt.Errorf("%s: in project %q, consume %q: times must not be negative, got %d", pb.DeclRange, pb.Name, cb.Model, *cb.Times)
			}
			c.Times = *cb.Times
		}
		if cb.Mutate != nil {
			c.Mutate = *cb.Mutate
		}
		p.Consumes = append(p.Consumes, c)
	}
	return p, nil
}

// findAllHCLFiles walks all given paths and returns a sorted list of all .hcl
// files found.
func findAllHCLFiles(paths []string) ([]string, error) {
	var allFiles []string
	seen := make(map[string]struct{})
	add := func(p string) {
		if _, ok := seen[p]; !ok {
			seen[p] = struct{}{}
			allFiles = append(allFiles, p)
		}
	}

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("error accessing path %s: %w", path, err)
		}

		if info.IsDir() {
			found, err := fsutil.FindFilesByExtension(path, ".hcl")
			if err != nil {
				return nil, err
			}
			for _, f := range found {
				add(f)
			}
		} else if filepath.Ext(path) == ".hcl" {
			add(path)
		}
	}
	sort.Strings(allFiles)
	return allFiles, nil
}

var _ config.Loader = (*Loader)(nil)

// exprDefined reports whether expr was written in the source. Optional
// attributes left out decode to zero-width expressions.
func exprDefined(expr hcl.Expression) bool {
	if expr == nil {
		return false
	}
	r := expr.Range()
	return r.End.Byte > r.Start.Byte
}
