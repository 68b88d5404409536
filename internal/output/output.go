// Package output renders tasks, results and catalog entries for the
// terminal, as plain text or indented JSON.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/everstacklabs/kai/internal/catalog"
	"github.com/everstacklabs/kai/internal/history"
	"github.com/everstacklabs/kai/internal/provider"
	"github.com/everstacklabs/kai/internal/task"
	"github.com/everstacklabs/kai/internal/validate"
)

// Printer writes human-readable output to w.
type Printer struct {
	w io.Writer
}

// New creates a Printer.
func New(w io.Writer) *Printer {
	return &Printer{w: w}
}

// JSON writes v as indented JSON followed by a newline.
func (p *Printer) JSON(v any) error {
	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Line writes a formatted line.
func (p *Printer) Line(format string, args ...any) {
	fmt.Fprintf(p.w, format+"\n", args...)
}

func (p *Printer) kv(key string, value any) {
	fmt.Fprintf(p.w, "  %-16s %v\n", key+":", value)
}

// Status writes one task observation.
func (p *Printer) Status(s task.Status) {
	p.Line("Task Status:")
	p.kv("ID", s.ID)
	p.kv("Status", s.State)
	if s.Progress != nil {
		p.kv("Progress", fmt.Sprintf("%s %d%%", progressBar(*s.Progress, 20), *s.Progress))
	}
	if s.QueuePosition != nil {
		p.kv("Queue Position", *s.QueuePosition)
	}
	if s.EstimatedTime != nil {
		p.kv("Estimated Time", fmt.Sprintf("%ds", *s.EstimatedTime))
	}
	if s.Message != "" {
		p.kv("Message", s.Message)
	}
}

func progressBar(percent, width int) string {
	percent = max(0, min(100, percent))
	filled := (percent*width + 50) / 100
	return "[" + strings.Repeat("#", filled) + strings.Repeat("-", width-filled) + "]"
}

// Result writes a finished task and its outputs.
func (p *Printer) Result(r *task.Result) {
	p.Line("Task Result:")
	p.kv("ID", r.ID)
	p.kv("Status", r.State)
	if r.Error != "" {
		p.kv("Error", r.Error)
	}
	if len(r.Outputs) > 0 {
		p.Line("")
		p.Line("Outputs:")
		for _, o := range r.Outputs {
			loc := o.URL
			if loc == "" {
				loc = "(inline " + string(o.Type) + ")"
			}
			p.Line("  - %s", loc)
			if o.Filename != "" {
				p.Line("    Filename: %s", o.Filename)
			}
			if o.Duration > 0 {
				p.Line("    Duration: %ss", strconv.FormatFloat(o.Duration, 'f', -1, 64))
			}
			if o.Width > 0 && o.Height > 0 {
				p.Line("    Size: %dx%d", o.Width, o.Height)
			}
		}
	}
	p.tracks(r.Metadata)
	p.lyrics(r.Metadata)
}

func (p *Printer) tracks(md map[string]any) {
	tracks, _ := md["tracks"].(map[string]any)
	if len(tracks) == 0 {
		return
	}
	ids := make([]string, 0, len(tracks))
	for id := range tracks {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	p.Line("")
	p.Line("Tracks:")
	for _, id := range ids {
		t, _ := tracks[id].(map[string]any)
		p.kv("Audio ID", id)
		if title, _ := t["title"].(string); title != "" {
			p.kv("Title", title)
		}
		if tags, _ := t["tags"].(string); tags != "" {
			p.kv("Tags", tags)
		}
		if d, ok := t["duration"].(float64); ok && d > 0 {
			p.kv("Duration", strconv.FormatFloat(d, 'f', -1, 64)+"s")
		}
		if u, _ := t["audio_url"].(string); u != "" {
			p.kv("Audio URL", u)
		}
		p.Line("")
	}
}

func (p *Printer) lyrics(md map[string]any) {
	var sheets []map[string]any
	switch v := md["lyrics"].(type) {
	case []map[string]any:
		sheets = v
	case []any:
		for _, s := range v {
			if m, ok := s.(map[string]any); ok {
				sheets = append(sheets, m)
			}
		}
	}
	for _, s := range sheets {
		p.Line("")
		if title, _ := s["title"].(string); title != "" {
			p.Line("== %s ==", title)
		}
		if text, _ := s["text"].(string); text != "" {
			p.Line("%s", text)
		}
	}
}

// Task writes a freshly created task.
func (p *Printer) Task(t *task.Task) {
	p.Line("Task created: %s", t.ID)
	p.kv("Model", t.Model)
	p.kv("Family", t.Family)
	p.kv("Status", t.State)
}

// Models writes a catalog listing, one model per line.
func (p *Printer) Models(models []*catalog.Model) {
	if len(models) == 0 {
		p.Line("No models available")
		return
	}
	for _, m := range models {
		p.Line("%-45s %-32s %s", m.ID, m.Name, credits(m.Pricing))
	}
	p.Line("")
	p.Line("Total: %d models", len(models))
}

func credits(pr *catalog.Pricing) string {
	if pr == nil || pr.Credits <= 0 {
		return "-"
	}
	s := strconv.FormatFloat(pr.Credits, 'f', -1, 64) + " cr"
	if pr.USD > 0 {
		s += fmt.Sprintf(" | $%.3f", pr.USD)
	}
	return s
}

// Model writes the documentation of one catalog entry: description, usage
// line and parameter table. command is the CLI group, e.g. "image".
func (p *Printer) Model(m *catalog.Model, command string) {
	p.Line("%s", m.Name)
	p.Line("  %s", m.ID)
	if m.Description != "" {
		p.Line("  %s", m.Description)
	}
	p.Line("")
	p.kv("Category", m.Category)
	if m.Provider != "" {
		p.kv("Provider", m.Provider)
	}
	if m.DocURL != "" {
		p.kv("Doc URL", m.DocURL)
	}
	if m.Pricing != nil {
		p.kv("Pricing", credits(m.Pricing))
	}
	if len(m.Capabilities) > 0 {
		p.kv("Capabilities", strings.Join(m.Capabilities, ", "))
	}

	p.Line("")
	p.Line("Usage:")
	p.Line("  %s", usage(m, command))

	if len(m.Params) == 0 {
		return
	}
	p.Line("")
	p.Line("Parameters:")
	for _, prm := range m.Params {
		req := ""
		if prm.Required {
			req = "*"
		}
		line := fmt.Sprintf("  %s%s <%s>", prm.Name, req, prm.Kind)
		if prm.HasDefault() {
			line += fmt.Sprintf(" (default: %v)", prm.Default)
		}
		p.Line("%s", line)
		if prm.Description != "" {
			p.Line("    %s", prm.Description)
		}
		if len(prm.Options) > 0 {
			p.Line("    Options: %s", strings.Join(prm.Options, ", "))
		}
		if prm.Min != nil || prm.Max != nil {
			p.Line("    Range: %s to %s", bound(prm.Min), bound(prm.Max))
		}
		if prm.MaxLength != nil {
			p.Line("    Max length: %d", *prm.MaxLength)
		}
	}
}

func bound(f *float64) string {
	if f == nil {
		return "-"
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}

func usage(m *catalog.Model, command string) string {
	if command == "" {
		command = string(m.Category)
	}
	prompt := "[--prompt <text>]"
	if prm, ok := m.Param("prompt"); ok && prm.Required && !prm.HasDefault() {
		prompt = "--prompt <text>"
	}
	parts := []string{"kai", command, "generate", prompt, "--model", m.ID}
	for _, name := range m.RequiredParams() {
		if name == "prompt" {
			continue
		}
		prm, _ := m.Param(name)
		parts = append(parts, fmt.Sprintf("--param %s=<%s>", name, prm.Kind))
	}
	return strings.Join(parts, " ")
}

// Issues writes a validation failure followed by the model documentation.
func (p *Printer) Issues(err *validate.ValidationError, command string) {
	p.Line("Input validation failed. Please review the issues below.")
	for _, is := range err.Issues {
		p.Line("  - %s", is)
	}
	if err.Model != nil && err.Model.Name != "" {
		p.Line("")
		p.Model(err.Model, command)
	}
	p.Line("")
	p.Line("Tip: pass model fields with --param key=value or --params-json.")
}

// Words writes aligned lyrics, one word per line.
func (p *Printer) Words(words []provider.AlignedWord) {
	if len(words) == 0 {
		p.Line("No aligned words returned")
		return
	}
	for _, w := range words {
		mark := ""
		if !w.Synced {
			mark = " (unsynced)"
		}
		p.Line("%8.2fs %8.2fs  %s%s", w.Start, w.End, w.Word, mark)
	}
}

// History writes history entries, newest first as given.
func (p *Printer) History(entries []history.Entry) {
	if len(entries) == 0 {
		p.Line("No history entries")
		return
	}
	for _, e := range entries {
		p.Line("%-20s %-36s %-16s %-8s %s", e.CreatedAt.Local().Format("2006-01-02 15:04:05"), e.TaskID, e.Command, e.Status, e.Model)
	}
}

// Entry writes one history entry in full.
func (p *Printer) Entry(e *history.Entry) {
	p.kv("Task ID", e.TaskID)
	p.kv("Command", e.Command)
	p.kv("Family", e.Family)
	p.kv("Model", e.Model)
	p.kv("Status", e.Status)
	p.kv("Created", e.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	if e.CompletedAt != nil {
		p.kv("Completed", e.CompletedAt.Local().Format("2006-01-02 15:04:05"))
	}
	if e.Prompt != "" {
		p.kv("Prompt", e.Prompt)
	}
	if e.Error != "" {
		p.kv("Error", e.Error)
	}
	for _, o := range e.Outputs {
		p.Line("  - %s", o.URL)
	}
}
