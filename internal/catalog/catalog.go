package catalog

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/everstacklabs/kai/internal/task"
)

//go:embed data/*.yaml
var builtin embed.FS

// file is the on-disk shape of a catalog YAML document.
type file struct {
	Models []Model `yaml:"models"`
}

// Registry is a read-only lookup of model schemas. It is built once at
// startup and shared by the callers that need it.
type Registry struct {
	models map[string]*Model
}

// NewRegistry builds a registry from the given models. Later entries with a
// duplicate ID replace earlier ones.
func NewRegistry(models ...Model) *Registry {
	r := &Registry{models: make(map[string]*Model, len(models))}
	for i := range models {
		m := models[i]
		r.models[m.ID] = &m
	}
	return r
}

// Load reads the embedded catalog, then any *.yaml files in extraDir.
// An empty extraDir loads only the embedded models.
func Load(extraDir string) (*Registry, error) {
	var models []Model
	builtinModels, err := loadFS(builtin, "data")
	if err != nil {
		return nil, fmt.Errorf("loading builtin catalog: %w", err)
	}
	models = append(models, builtinModels...)

	if extraDir != "" {
		if _, err := os.Stat(extraDir); err != nil {
			return nil, fmt.Errorf("reading catalog dir: %w", err)
		}
		extra, err := loadFS(os.DirFS(extraDir), ".")
		if err != nil {
			return nil, fmt.Errorf("loading catalog %s: %w", extraDir, err)
		}
		models = append(models, extra...)
	}

	return NewRegistry(models...), nil
}

// LoadDir reads only the *.yaml files in dir, without the embedded models.
func LoadDir(dir string) (*Registry, error) {
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("reading catalog dir: %w", err)
	}
	models, err := loadFS(os.DirFS(dir), ".")
	if err != nil {
		return nil, fmt.Errorf("loading catalog %s: %w", dir, err)
	}
	return NewRegistry(models...), nil
}

func loadFS(fsys fs.FS, dir string) ([]Model, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, err
	}

	var models []Model
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		data, err := fs.ReadFile(fsys, filepath.ToSlash(filepath.Join(dir, e.Name())))
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", e.Name(), err)
		}
		var f file
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", e.Name(), err)
		}
		models = append(models, f.Models...)
	}
	return models, nil
}

// Get returns the model with the given ID.
func (r *Registry) Get(id string) (*Model, bool) {
	m, ok := r.models[id]
	return m, ok
}

// All returns every model sorted by category then ID.
func (r *Registry) All() []*Model {
	out := make([]*Model, 0, len(r.models))
	for _, m := range r.models {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// ByCategory returns the models of one category sorted by ID.
func (r *Registry) ByCategory(t task.Type) []*Model {
	var out []*Model
	for _, m := range r.models {
		if m.Category == t {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Resolve returns the model for id, checking it belongs to category t.
// Failures are *ResolutionError values wrapping ErrModelNotFound or
// ErrWrongCategory.
func (r *Registry) Resolve(id string, t task.Type) (*Model, error) {
	m, ok := r.models[id]
	if !ok {
		return nil, &ResolutionError{ModelID: id, Want: t, Err: ErrModelNotFound}
	}
	if t != "" && m.Category != t {
		return nil, &ResolutionError{ModelID: id, Want: t, Got: m.Category, Err: ErrWrongCategory}
	}
	return m, nil
}

// Len returns the number of models.
func (r *Registry) Len() int {
	return len(r.models)
}
