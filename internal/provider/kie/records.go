package kie

import (
	"context"
	"encoding/json"
	"log/slog"

	kieapi "github.com/everstacklabs/kai/internal/kie"
	"github.com/everstacklabs/kai/internal/task"
)

// record is one observation of a remote task: its canonical status plus
// whatever outputs the payload already carries.
type record struct {
	status   task.Status
	outputs  []task.Output
	metadata map[string]any
}

func (r *record) result(ref task.Ref) *task.Result {
	res := &task.Result{
		ID:       ref.ID,
		State:    r.status.State,
		Outputs:  r.outputs,
		Metadata: r.metadata,
	}
	if res.Outputs == nil {
		res.Outputs = []task.Output{}
	}
	if res.State == task.StateFail {
		res.Error = r.status.Message
	}
	return res
}

func (p *Provider) fetch(ctx context.Context, ref task.Ref) (*record, error) {
	if ref.ID == "" {
		return nil, kieapi.ErrTaskIDRequired
	}
	mapper := task.MapperFor(ref.Family)

	switch ref.Family {
	case task.FamilyMusic:
		rec, err := p.api.MusicRecord(ctx, ref.ID)
		if err != nil {
			return nil, err
		}
		out := &record{status: mapper.Map(ref.ID, rec.Status, rec.ErrorMessage)}
		out.outputs, out.metadata = musicOutputs(rec.Tracks())
		return out, nil

	case task.FamilyLyrics:
		rec, err := p.api.LyricsRecord(ctx, ref.ID)
		if err != nil {
			return nil, err
		}
		out := &record{status: mapper.Map(ref.ID, rec.Status, rec.ErrorMessage)}
		out.outputs, out.metadata = lyricsOutputs(rec.Sheets())
		return out, nil

	case task.FamilyMusicVideo:
		rec, err := p.api.MusicVideoRecord(ctx, ref.ID)
		if err != nil {
			return nil, err
		}
		out := &record{status: mapper.Map(ref.ID, rec.SuccessFlag, rec.ErrorMessage)}
		if u := rec.VideoURL(); u != "" {
			out.outputs = []task.Output{{URL: u, Type: task.OutputVideo}}
		}
		return out, nil

	default:
		rec, err := p.api.JobRecord(ctx, ref.ID)
		if err != nil {
			return nil, err
		}
		out := &record{status: mapper.Map(ref.ID, rec.State, rec.FailMsg)}
		out.status.Progress = rec.Progress
		if out.status.State == task.StateSuccess {
			out.outputs = jobOutputs(ref.ID, rec.ResultJSON)
		}
		out.metadata = jobMetadata(rec)
		return out, nil
	}
}

// jobOutputs decodes the JSON-encoded result URL list of a market job.
// A malformed payload yields no outputs.
func jobOutputs(id, raw string) []task.Output {
	if raw == "" {
		return nil
	}
	var res kieapi.JobResult
	if err := json.Unmarshal([]byte(raw), &res); err != nil {
		slog.Warn("unparseable result payload", "task_id", id, "error", err)
		return nil
	}
	outputs := make([]task.Output, 0, len(res.ResultURLs))
	for _, u := range res.ResultURLs {
		if u == "" {
			continue
		}
		outputs = append(outputs, task.Output{URL: u, Type: task.InferOutputType(u)})
	}
	return outputs
}

func jobMetadata(rec *kieapi.JobRecord) map[string]any {
	md := map[string]any{}
	if rec.Model != "" {
		md["model"] = rec.Model
	}
	if rec.CostTime > 0 {
		md["cost_time_ms"] = rec.CostTime
	}
	if rec.CreateTime > 0 {
		md["create_time"] = rec.CreateTime
	}
	if rec.CompleteTime > 0 {
		md["complete_time"] = rec.CompleteTime
	}
	if len(md) == 0 {
		return nil
	}
	return md
}

func musicOutputs(tracks []kieapi.Track) ([]task.Output, map[string]any) {
	if len(tracks) == 0 {
		return nil, nil
	}
	var outputs []task.Output
	byID := make(map[string]any, len(tracks))
	for _, t := range tracks {
		if t.AudioURL != "" {
			outputs = append(outputs, task.Output{URL: t.AudioURL, Type: task.OutputAudio, Duration: t.Duration})
		}
		if t.ImageURL != "" {
			outputs = append(outputs, task.Output{URL: t.ImageURL, Type: task.OutputImage})
		}
		byID[t.ID] = map[string]any{
			"title":      t.Title,
			"tags":       t.Tags,
			"model":      t.ModelName,
			"prompt":     t.Prompt,
			"duration":   t.Duration,
			"audio_url":  t.AudioURL,
			"stream_url": t.StreamAudioURL,
			"image_url":  t.ImageURL,
		}
	}
	return outputs, map[string]any{"tracks": byID}
}

func lyricsOutputs(sheets []kieapi.Lyrics) ([]task.Output, map[string]any) {
	if len(sheets) == 0 {
		return nil, nil
	}
	outputs := make([]task.Output, 0, len(sheets))
	list := make([]map[string]any, 0, len(sheets))
	for _, s := range sheets {
		outputs = append(outputs, task.Output{Type: task.OutputText})
		list = append(list, map[string]any{"title": s.Title, "text": s.Text})
	}
	return outputs, map[string]any{"lyrics": list}
}
