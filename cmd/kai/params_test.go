package main

import (
	"testing"

	"github.com/everstacklabs/kai/internal/catalog"
)

func TestParsePairs(t *testing.T) {
	got, err := parsePairs([]string{"aspect_ratio=16:9", "expr=a=b", " seed =42", "empty="})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := map[string]any{"aspect_ratio": "16:9", "expr": "a=b", "seed": "42", "empty": ""}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("%s = %v, want %v", k, got[k], v)
		}
	}
}

func TestParsePairsInvalid(t *testing.T) {
	for _, in := range []string{"novalue", "=x"} {
		if _, err := parsePairs([]string{in}); err == nil {
			t.Errorf("parsePairs(%q): expected error", in)
		}
	}
}

func TestParseJSONParams(t *testing.T) {
	got, err := parseJSONParams(`{"n": 2, "tags": ["a"]}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got["n"] != 2.0 {
		t.Errorf("n = %v", got["n"])
	}

	if got, err := parseJSONParams("  "); err != nil || got != nil {
		t.Errorf("blank input: got %v, %v", got, err)
	}
	for _, in := range []string{"[1,2]", "null", "{bad"} {
		if _, err := parseJSONParams(in); err == nil {
			t.Errorf("parseJSONParams(%q): expected error", in)
		}
	}
}

func TestMergeOrder(t *testing.T) {
	m := &catalog.Model{ID: "m", Params: []catalog.Param{
		{Name: "prompt", Kind: catalog.KindString},
		{Name: "aspect_ratio", Kind: catalog.KindEnum, Options: []string{"1:1", "16:9"}},
		{Name: "seed", Kind: catalog.KindInteger},
	}}

	defaults := declaredDefaults(m, map[string]any{"aspect_ratio": "16:9", "duration": 5})
	if _, ok := defaults["duration"]; ok {
		t.Fatal("undeclared default should be dropped")
	}

	got := mergeParams(
		defaults,
		map[string]any{"prompt": "flag", "seed": "1"},
		map[string]any{"seed": 2.0, "aspect_ratio": "1:1"},
		map[string]any{"seed": "3"},
	)
	if got["prompt"] != "flag" || got["aspect_ratio"] != "1:1" || got["seed"] != "3" {
		t.Errorf("merged = %v", got)
	}
}
