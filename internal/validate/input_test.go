package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/everstacklabs/kai/internal/catalog"
)

func ptr[T any](v T) *T { return &v }

func promptSeedModel() *catalog.Model {
	return &catalog.Model{
		ID:   "test/prompt-seed",
		Name: "Prompt and seed",
		Params: []catalog.Param{
			{Name: "prompt", Kind: catalog.KindString, Required: true, MaxLength: ptr(100)},
			{Name: "seed", Kind: catalog.KindInteger},
		},
	}
}

func fullModel() *catalog.Model {
	return &catalog.Model{
		ID:   "test/full",
		Name: "Every kind",
		Params: []catalog.Param{
			{Name: "prompt", Kind: catalog.KindString, Required: true, MaxLength: ptr(50)},
			{Name: "style", Kind: catalog.KindString, Options: []string{"anime", "photo"}},
			{Name: "guidance_scale", Kind: catalog.KindNumber, Default: 2.5, Min: ptr(1.0), Max: ptr(10.0)},
			{Name: "steps", Kind: catalog.KindInteger, Min: ptr(1.0), Max: ptr(50.0)},
			{Name: "fps", Kind: catalog.KindNumber, Options: []string{"24", "30"}},
			{Name: "sound", Kind: catalog.KindBoolean},
			{Name: "aspect_ratio", Kind: catalog.KindEnum, Default: "1:1", Options: []string{"1:1", "16:9", "9:16"}},
			{Name: "duration", Kind: catalog.KindEnum, Required: true, Default: "5", Options: []string{"5", "10"}},
			{Name: "image_urls", Kind: catalog.KindArray, Min: ptr(1.0), Max: ptr(2.0)},
		},
	}
}

func mustValidationError(t *testing.T, err error) *ValidationError {
	t.Helper()
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
	return verr
}

func TestBuildInputScenarioA(t *testing.T) {
	m := promptSeedModel()

	_, err := BuildInput(m, map[string]any{"prompt": strings.Repeat("x", 101)})
	verr := mustValidationError(t, err)
	want := []Issue{{"prompt", "Must be at most 100 characters"}}
	if !reflect.DeepEqual(verr.Issues, want) {
		t.Errorf("issues = %v, want %v", verr.Issues, want)
	}

	_, err = BuildInput(m, map[string]any{"prompt": "ok", "seed": "3.5"})
	verr = mustValidationError(t, err)
	want = []Issue{{"seed", "Expected integer"}}
	if !reflect.DeepEqual(verr.Issues, want) {
		t.Errorf("issues = %v, want %v", verr.Issues, want)
	}
}

func TestBuildInputCoercesEveryKind(t *testing.T) {
	got, err := BuildInput(fullModel(), map[string]any{
		"prompt":         "a red fox",
		"style":          "anime",
		"guidance_scale": "7.5",
		"steps":          "20",
		"fps":            30,
		"sound":          "TRUE",
		"aspect_ratio":   "16:9",
		"image_urls":     "https://a/1.png, https://a/2.png",
	})
	if err != nil {
		t.Fatalf("BuildInput: %v", err)
	}

	want := map[string]any{
		"prompt":         "a red fox",
		"style":          "anime",
		"guidance_scale": 7.5,
		"steps":          int64(20),
		"fps":            30.0,
		"sound":          true,
		"aspect_ratio":   "16:9",
		"duration":       "5",
		"image_urls":     []any{"https://a/1.png", "https://a/2.png"},
	}
	if !reflect.DeepEqual(got.Input, want) {
		t.Errorf("input = %#v\nwant %#v", got.Input, want)
	}
	if got.CallbackURL != "" {
		t.Errorf("callback = %q, want empty", got.CallbackURL)
	}
}

func TestBuildInputDefaults(t *testing.T) {
	got, err := BuildInput(fullModel(), map[string]any{"prompt": "p", "guidance_scale": ""})
	if err != nil {
		t.Fatalf("BuildInput: %v", err)
	}
	if got.Input["guidance_scale"] != 2.5 {
		t.Errorf("guidance_scale = %v, want default 2.5", got.Input["guidance_scale"])
	}
	if got.Input["aspect_ratio"] != "1:1" {
		t.Errorf("aspect_ratio = %v, want default 1:1", got.Input["aspect_ratio"])
	}
	// Required with a default falls back instead of failing.
	if got.Input["duration"] != "5" {
		t.Errorf("duration = %v, want default 5", got.Input["duration"])
	}
	for _, k := range []string{"style", "steps", "sound", "image_urls"} {
		if _, ok := got.Input[k]; ok {
			t.Errorf("%s should be omitted when not provided", k)
		}
	}
}

func TestBuildInputDefaultNotRevalidated(t *testing.T) {
	m := &catalog.Model{ID: "m", Params: []catalog.Param{
		{Name: "ratio", Kind: catalog.KindEnum, Default: "weird", Options: []string{"1:1"}},
	}}
	got, err := BuildInput(m, nil)
	if err != nil {
		t.Fatalf("BuildInput: %v", err)
	}
	if got.Input["ratio"] != "weird" {
		t.Errorf("ratio = %v, want the default verbatim", got.Input["ratio"])
	}
}

func TestBuildInputRequiredMissing(t *testing.T) {
	for _, raw := range []map[string]any{
		nil,
		{},
		{"prompt": nil},
		{"prompt": ""},
	} {
		t.Run(fmt.Sprint(raw), func(t *testing.T) {
			out, err := BuildInput(promptSeedModel(), raw)
			if out != nil {
				t.Errorf("expected no output, got %v", out.Input)
			}
			verr := mustValidationError(t, err)
			want := []Issue{{"prompt", "Required parameter is missing"}}
			if !reflect.DeepEqual(verr.Issues, want) {
				t.Errorf("issues = %v, want %v", verr.Issues, want)
			}
		})
	}
}

func TestBuildInputUnknownFields(t *testing.T) {
	_, err := BuildInput(promptSeedModel(), map[string]any{
		"prompt":  "ok",
		"zoom":    2,
		"aspect":  "1:1",
		"negativ": "blur",
	})
	verr := mustValidationError(t, err)
	want := []Issue{
		{"aspect", "Unknown parameter for this model"},
		{"negativ", "Unknown parameter for this model"},
		{"zoom", "Unknown parameter for this model"},
	}
	if !reflect.DeepEqual(verr.Issues, want) {
		t.Errorf("issues = %v, want %v", verr.Issues, want)
	}
}

func TestBuildInputAccumulatesIssues(t *testing.T) {
	_, err := BuildInput(fullModel(), map[string]any{
		"prompt":         strings.Repeat("é", 51),
		"style":          "oil",
		"guidance_scale": 0,
		"steps":          "many",
		"fps":            25,
		"sound":          "yes",
		"aspect_ratio":   "4:3",
		"image_urls":     "[]",
		"extra":          true,
	})
	verr := mustValidationError(t, err)
	want := []Issue{
		{"prompt", "Must be at most 50 characters"},
		{"style", "Value must be one of: anime, photo"},
		{"guidance_scale", "Must be at least 1"},
		{"steps", "Expected integer"},
		{"fps", "Value must be one of: 24, 30"},
		{"sound", "Expected boolean"},
		{"aspect_ratio", "Value must be one of: 1:1, 16:9, 9:16"},
		{"image_urls", "Must contain at least 1 item(s)"},
		{"extra", "Unknown parameter for this model"},
	}
	if !reflect.DeepEqual(verr.Issues, want) {
		t.Errorf("issues =\n%v\nwant\n%v", verr.Issues, want)
	}
	if verr.Model.ID != "test/full" {
		t.Errorf("model = %q", verr.Model.ID)
	}
	if verr.Error() != `input validation failed for model "test/full"` {
		t.Errorf("message = %q", verr.Error())
	}
}

func TestBuildInputTwoIndependentFailures(t *testing.T) {
	_, err := BuildInput(fullModel(), map[string]any{
		"prompt": "ok",
		"steps":  99,
		"sound":  3,
	})
	verr := mustValidationError(t, err)
	if len(verr.Issues) != 2 {
		t.Fatalf("got %d issues, want 2: %v", len(verr.Issues), verr.Issues)
	}
	if verr.Issues[0].Field != "steps" || verr.Issues[1].Field != "sound" {
		t.Errorf("issues = %v", verr.Issues)
	}
}

func TestBuildInputNumberBothBounds(t *testing.T) {
	m := &catalog.Model{ID: "m", Params: []catalog.Param{
		{Name: "n", Kind: catalog.KindNumber, Min: ptr(5.0), Max: ptr(1.0), Options: []string{"3"}},
	}}
	_, err := BuildInput(m, map[string]any{"n": 4})
	verr := mustValidationError(t, err)
	want := []Issue{
		{"n", "Must be at least 5"},
		{"n", "Must be at most 1"},
		{"n", "Value must be one of: 3"},
	}
	if !reflect.DeepEqual(verr.Issues, want) {
		t.Errorf("issues = %v, want %v", verr.Issues, want)
	}
}

func TestBuildInputArrayBounds(t *testing.T) {
	_, err := BuildInput(fullModel(), map[string]any{
		"prompt":     "ok",
		"image_urls": []string{"a", "b", "c"},
	})
	verr := mustValidationError(t, err)
	want := []Issue{{"image_urls", "Must contain at most 2 item(s)"}}
	if !reflect.DeepEqual(verr.Issues, want) {
		t.Errorf("issues = %v, want %v", verr.Issues, want)
	}

	got, err := BuildInput(fullModel(), map[string]any{
		"prompt":     "ok",
		"image_urls": `["https://a/1.png"]`,
	})
	if err != nil {
		t.Fatalf("BuildInput: %v", err)
	}
	if !reflect.DeepEqual(got.Input["image_urls"], []any{"https://a/1.png"}) {
		t.Errorf("image_urls = %#v", got.Input["image_urls"])
	}
}

func TestBuildInputStringIsStrict(t *testing.T) {
	_, err := BuildInput(promptSeedModel(), map[string]any{"prompt": 12})
	verr := mustValidationError(t, err)
	want := []Issue{{"prompt", "Expected string"}}
	if !reflect.DeepEqual(verr.Issues, want) {
		t.Errorf("issues = %v, want %v", verr.Issues, want)
	}
}

func TestBuildInputEnumStringifies(t *testing.T) {
	m := &catalog.Model{ID: "m", Params: []catalog.Param{
		{Name: "duration", Kind: catalog.KindEnum, Options: []string{"5", "10"}},
		{Name: "free", Kind: catalog.KindEnum},
	}}
	got, err := BuildInput(m, map[string]any{"duration": 10, "free": 1.5})
	if err != nil {
		t.Fatalf("BuildInput: %v", err)
	}
	if got.Input["duration"] != "10" {
		t.Errorf("duration = %#v, want \"10\"", got.Input["duration"])
	}
	if got.Input["free"] != "1.5" {
		t.Errorf("free = %#v, want \"1.5\"", got.Input["free"])
	}
}

func TestBuildInputCallbackAliases(t *testing.T) {
	tests := []struct {
		name string
		raw  map[string]any
		want string
	}{
		{"camel", map[string]any{"callBackUrl": "https://cb/1"}, "https://cb/1"},
		{"lower camel", map[string]any{"callbackUrl": " https://cb/2 "}, "https://cb/2"},
		{"snake", map[string]any{"callback_url": "https://cb/3"}, "https://cb/3"},
		{"first non-empty wins", map[string]any{"callBackUrl": "  ", "callbackUrl": "https://cb/b", "callback_url": "https://cb/c"}, "https://cb/b"},
		{"non-string ignored", map[string]any{"callBackUrl": 5, "callback_url": "https://cb/c"}, "https://cb/c"},
		{"none", map[string]any{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := map[string]any{"prompt": "ok"}
			for k, v := range tt.raw {
				raw[k] = v
			}
			got, err := BuildInput(promptSeedModel(), raw)
			if err != nil {
				t.Fatalf("aliases must not count as unknown: %v", err)
			}
			if got.CallbackURL != tt.want {
				t.Errorf("callback = %q, want %q", got.CallbackURL, tt.want)
			}
			for _, alias := range CallbackAliases {
				if _, ok := got.Input[alias]; ok {
					t.Errorf("%s leaked into the payload", alias)
				}
			}
		})
	}
}

func TestBuildInputUnsupportedKind(t *testing.T) {
	m := &catalog.Model{ID: "m", Params: []catalog.Param{{Name: "x", Kind: "object"}}}
	_, err := BuildInput(m, map[string]any{"x": "{}"})
	verr := mustValidationError(t, err)
	if len(verr.Issues) != 1 || verr.Issues[0].Field != "x" {
		t.Errorf("issues = %v", verr.Issues)
	}
}

func TestFormatIssues(t *testing.T) {
	_, err := BuildInput(promptSeedModel(), map[string]any{"seed": "x"})
	verr := mustValidationError(t, err)
	got := FormatIssues(verr)
	want := "input validation failed for model \"test/prompt-seed\"\n" +
		"  - prompt: Required parameter is missing\n" +
		"  - seed: Expected integer"
	if got != want {
		t.Errorf("FormatIssues =\n%s\nwant\n%s", got, want)
	}
}
