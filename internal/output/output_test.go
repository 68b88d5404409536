package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/everstacklabs/kai/internal/catalog"
	"github.com/everstacklabs/kai/internal/history"
	"github.com/everstacklabs/kai/internal/provider"
	"github.com/everstacklabs/kai/internal/task"
	"github.com/everstacklabs/kai/internal/validate"
)

func ptr[T any](v T) *T { return &v }

func testModel() *catalog.Model {
	return &catalog.Model{
		ID:       "acme/text-to-image",
		Name:     "Acme Image",
		Provider: "Acme",
		Category: task.TypeImage,
		Pricing:  &catalog.Pricing{Credits: 4, USD: 0.02},
		Params: []catalog.Param{
			{Name: "prompt", Kind: catalog.KindString, Required: true, MaxLength: ptr(5000)},
			{Name: "image_size", Kind: catalog.KindEnum, Required: true, Options: []string{"square", "landscape"}},
			{Name: "steps", Kind: catalog.KindInteger, Default: 30, Min: ptr(1.0), Max: ptr(50.0)},
		},
	}
}

func TestStatus(t *testing.T) {
	var buf bytes.Buffer
	New(&buf).Status(task.Status{ID: "t1", State: task.StateGenerating, Progress: ptr(45), Message: "PENDING"})

	out := buf.String()
	for _, want := range []string{"t1", "generating", "[#########-----------] 45%", "PENDING"} {
		if !strings.Contains(out, want) {
			t.Errorf("status output missing %q:\n%s", want, out)
		}
	}
}

func TestProgressBar(t *testing.T) {
	tests := []struct {
		percent int
		want    string
	}{
		{0, "[----------]"},
		{50, "[#####-----]"},
		{100, "[##########]"},
		{140, "[##########]"},
		{-5, "[----------]"},
	}
	for _, tt := range tests {
		if got := progressBar(tt.percent, 10); got != tt.want {
			t.Errorf("progressBar(%d) = %q, want %q", tt.percent, got, tt.want)
		}
	}
}

func TestResult(t *testing.T) {
	var buf bytes.Buffer
	New(&buf).Result(&task.Result{
		ID:    "m1",
		State: task.StateSuccess,
		Outputs: []task.Output{
			{URL: "https://cdn.test/1.mp3", Type: task.OutputAudio, Duration: 182.4},
			{Type: task.OutputText},
		},
		Metadata: map[string]any{
			"tracks": map[string]any{"trk-1": map[string]any{"title": "Drift", "duration": 182.4}},
			"lyrics": []any{map[string]any{"title": "Verse", "text": "la la"}},
		},
	})

	out := buf.String()
	for _, want := range []string{"https://cdn.test/1.mp3", "Duration: 182.4s", "(inline text)", "trk-1", "Drift", "== Verse ==", "la la"} {
		if !strings.Contains(out, want) {
			t.Errorf("result output missing %q:\n%s", want, out)
		}
	}
}

func TestResultFailure(t *testing.T) {
	var buf bytes.Buffer
	New(&buf).Result(&task.Result{ID: "x", State: task.StateFail, Error: "content policy"})
	if !strings.Contains(buf.String(), "content policy") {
		t.Errorf("missing error:\n%s", buf.String())
	}
	if strings.Contains(buf.String(), "Outputs:") {
		t.Errorf("unexpected outputs section:\n%s", buf.String())
	}
}

func TestModelsAndModel(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf)
	p.Models([]*catalog.Model{testModel()})
	if !strings.Contains(buf.String(), "4 cr | $0.020") || !strings.Contains(buf.String(), "Total: 1 models") {
		t.Errorf("unexpected listing:\n%s", buf.String())
	}

	buf.Reset()
	p.Models(nil)
	if !strings.Contains(buf.String(), "No models available") {
		t.Errorf("unexpected empty listing:\n%s", buf.String())
	}

	buf.Reset()
	p.Model(testModel(), "image")
	out := buf.String()
	for _, want := range []string{
		"kai image generate --prompt <text> --model acme/text-to-image --param image_size=<enum>",
		"prompt* <string>",
		"Max length: 5000",
		"Options: square, landscape",
		"steps <integer> (default: 30)",
		"Range: 1 to 50",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("model docs missing %q:\n%s", want, out)
		}
	}
}

func TestIssues(t *testing.T) {
	var buf bytes.Buffer
	New(&buf).Issues(&validate.ValidationError{
		Model: testModel(),
		Issues: []validate.Issue{
			{Field: "prompt", Message: "Required parameter is missing"},
			{Field: "seed", Message: "Unknown parameter for this model"},
		},
	}, "image")

	out := buf.String()
	for _, want := range []string{"  - prompt: Required parameter is missing", "  - seed: Unknown parameter for this model", "Usage:", "--params-json"} {
		if !strings.Contains(out, want) {
			t.Errorf("issues output missing %q:\n%s", want, out)
		}
	}
}

func TestWordsAndHistory(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf)
	p.Words([]provider.AlignedWord{{Word: "Hello", Start: 1.2, End: 1.6, Synced: true}, {Word: "there", Start: 1.6, End: 2}})
	if !strings.Contains(buf.String(), "Hello") || !strings.Contains(buf.String(), "there (unsynced)") {
		t.Errorf("unexpected words:\n%s", buf.String())
	}

	buf.Reset()
	p.History([]history.Entry{{TaskID: "t1", Command: history.CmdImageGenerate, Status: history.StatusSuccess, Model: "acme"}})
	if !strings.Contains(buf.String(), "image:generate") {
		t.Errorf("unexpected history:\n%s", buf.String())
	}
}

func TestJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := New(&buf).JSON(task.Status{ID: "t1", State: task.StateSuccess}); err != nil {
		t.Fatal(err)
	}
	var got map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, buf.String())
	}
	if got["status"] != "success" {
		t.Errorf("status = %v", got["status"])
	}
	if !strings.HasPrefix(buf.String(), "{\n  \"id\"") {
		t.Errorf("expected indented JSON, got:\n%s", buf.String())
	}
}
