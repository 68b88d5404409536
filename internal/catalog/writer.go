package catalog

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/everstacklabs/kai/internal/task"
)

// WriteResult reports what happened when a category file was exported.
type WriteResult struct {
	Path     string
	Category task.Type
	Models   int
	IsNew    bool
}

// Export writes the registry as one YAML file per category into dir, in the
// same layout Load reads. Existing files are replaced.
func (r *Registry) Export(dir string) ([]WriteResult, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating catalog dir: %w", err)
	}

	var results []WriteResult
	for _, t := range task.Types {
		models := r.ByCategory(t)
		if len(models) == 0 {
			continue
		}

		f := file{Models: make([]Model, 0, len(models))}
		for _, m := range models {
			f.Models = append(f.Models, *m)
		}

		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(f); err != nil {
			return nil, fmt.Errorf("encoding %s models: %w", t, err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("encoding %s models: %w", t, err)
		}

		path := filepath.Join(dir, string(t)+".yaml")
		_, statErr := os.Stat(path)
		if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
			return nil, fmt.Errorf("writing %s: %w", path, err)
		}
		results = append(results, WriteResult{
			Path:     path,
			Category: t,
			Models:   len(models),
			IsNew:    os.IsNotExist(statErr),
		})
	}
	return results, nil
}
