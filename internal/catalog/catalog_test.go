package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/everstacklabs/kai/internal/task"
)

func TestLoadBuiltin(t *testing.T) {
	r, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	for _, id := range []string{"google/imagen4-fast", "grok-imagine/text-to-video", "kling-2.6/text-to-video", "V4_5", "V5"} {
		if _, ok := r.Get(id); !ok {
			t.Errorf("expected builtin model %q", id)
		}
	}

	for _, typ := range task.Types {
		if len(r.ByCategory(typ)) == 0 {
			t.Errorf("no %s models loaded", typ)
		}
	}
}

func TestBuiltinSchemasAreWellFormed(t *testing.T) {
	r, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	kinds := map[Kind]bool{KindString: true, KindNumber: true, KindInteger: true, KindBoolean: true, KindEnum: true, KindArray: true}
	for _, m := range r.All() {
		if !m.Category.Valid() {
			t.Errorf("%s: invalid category %q", m.ID, m.Category)
		}
		seen := map[string]bool{}
		for _, p := range m.Params {
			if !kinds[p.Kind] {
				t.Errorf("%s.%s: unknown kind %q", m.ID, p.Name, p.Kind)
			}
			if seen[p.Name] {
				t.Errorf("%s: duplicate param %q", m.ID, p.Name)
			}
			seen[p.Name] = true
		}
	}
}

func TestSchemaOrderPreserved(t *testing.T) {
	r, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	m, _ := r.Get("grok-imagine/text-to-video")
	want := []string{"prompt", "aspect_ratio", "mode"}
	if len(m.Params) != len(want) {
		t.Fatalf("got %d params, want %d", len(m.Params), len(want))
	}
	for i, name := range want {
		if m.Params[i].Name != name {
			t.Errorf("param %d = %q, want %q", i, m.Params[i].Name, name)
		}
	}
	if m.Params[1].Default != "2:3" {
		t.Errorf("aspect_ratio default = %v, want 2:3", m.Params[1].Default)
	}
}

func TestResolve(t *testing.T) {
	r := NewRegistry(
		Model{ID: "img", Name: "Image", Category: task.TypeImage},
		Model{ID: "vid", Name: "Video", Category: task.TypeVideo},
	)

	m, err := r.Resolve("img", task.TypeImage)
	if err != nil || m.ID != "img" {
		t.Fatalf("Resolve(img) = %v, %v", m, err)
	}

	_, err = r.Resolve("missing", task.TypeImage)
	if !errors.Is(err, ErrModelNotFound) {
		t.Errorf("expected ErrModelNotFound, got %v", err)
	}
	var re *ResolutionError
	if !errors.As(err, &re) || re.ModelID != "missing" {
		t.Errorf("expected *ResolutionError for missing, got %v", err)
	}

	_, err = r.Resolve("vid", task.TypeImage)
	if !errors.Is(err, ErrWrongCategory) {
		t.Errorf("expected ErrWrongCategory, got %v", err)
	}
	if err.Error() != `model "vid" is a video model, not image` {
		t.Errorf("unexpected message: %s", err)
	}
}

func TestLoadExtraDirOverrides(t *testing.T) {
	dir := t.TempDir()
	doc := `models:
  - id: "google/imagen4-fast"
    name: "Imagen override"
    provider: "Google"
    category: image
    params:
      - name: prompt
        kind: string
        required: true
  - id: "custom/model"
    name: "Custom"
    provider: "Acme"
    category: video
    params: []
`
	if err := os.WriteFile(filepath.Join(dir, "extra.yaml"), []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "README.md"), []byte("ignored"), 0o644); err != nil {
		t.Fatal(err)
	}

	r, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	m, ok := r.Get("google/imagen4-fast")
	if !ok || m.Name != "Imagen override" {
		t.Errorf("override not applied: %+v", m)
	}
	if _, ok := r.Get("custom/model"); !ok {
		t.Error("custom model not loaded")
	}
}

func TestLoadMissingDir(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Fatal("expected error for missing catalog dir")
	}
	if _, err := LoadDir(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Fatal("expected error for missing catalog dir")
	}
}

func TestLoadDirSkipsBuiltin(t *testing.T) {
	dir := t.TempDir()
	doc := `models:
  - id: "custom/model"
    name: "Custom"
    provider: "Acme"
    category: video
    params: []
`
	if err := os.WriteFile(filepath.Join(dir, "video.yaml"), []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	r, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	if r.Len() != 1 {
		t.Errorf("Len = %d, want 1", r.Len())
	}
	if _, ok := r.Get("google/imagen4-fast"); ok {
		t.Error("builtin model should not be loaded")
	}
}

func TestRequiredParams(t *testing.T) {
	m := Model{Params: []Param{
		{Name: "prompt", Kind: KindString, Required: true},
		{Name: "customMode", Kind: KindBoolean, Required: true, Default: false},
		{Name: "seed", Kind: KindInteger},
	}}
	got := m.RequiredParams()
	if len(got) != 1 || got[0] != "prompt" {
		t.Errorf("RequiredParams = %v, want [prompt]", got)
	}
}

func TestExportRoundTrip(t *testing.T) {
	r, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	dir := t.TempDir()
	results, err := r.Export(dir)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if len(results) != len(task.Types) {
		t.Fatalf("got %d files, want %d", len(results), len(task.Types))
	}
	for _, res := range results {
		if !res.IsNew {
			t.Errorf("%s: expected IsNew", res.Path)
		}
	}

	again, err := Load(dir)
	if err != nil {
		t.Fatalf("reloading export: %v", err)
	}
	if again.Len() != r.Len() {
		t.Errorf("reloaded %d models, want %d", again.Len(), r.Len())
	}

	results, err = r.Export(dir)
	if err != nil {
		t.Fatal(err)
	}
	if results[0].IsNew {
		t.Error("second export should overwrite, not create")
	}
}
