package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/everstacklabs/kai/internal/history"
	"github.com/everstacklabs/kai/internal/output"
	"github.com/everstacklabs/kai/internal/poll"
	"github.com/everstacklabs/kai/internal/provider"
	"github.com/everstacklabs/kai/internal/task"
)

// group is one generation command tree: image, video or music.
type group struct {
	Type    task.Type
	Short   string
	History string
}

var (
	imageGroup = group{Type: task.TypeImage, Short: "Generate images", History: history.CmdImageGenerate}
	videoGroup = group{Type: task.TypeVideo, Short: "Generate videos", History: history.CmdVideoGenerate}
	musicGroup = group{Type: task.TypeMusic, Short: "Generate music, lyrics and music videos", History: history.CmdMusicGenerate}
)

// generationCmd builds the `<group> generate|list|info` tree.
func generationCmd(g group) *cobra.Command {
	cmd := &cobra.Command{
		Use:   string(g.Type),
		Short: g.Short,
	}
	cmd.AddCommand(
		generateCmd(g),
		listModelsCmd(g),
		modelInfoCmd(g),
	)
	return cmd
}

// waitFlags are shared by every command that can wait for a task.
type waitFlags struct {
	wait     bool
	timeout  time.Duration
	interval time.Duration
	download bool
	output   string
	json     bool
}

func (f *waitFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.wait, "wait", false, "Wait for the task to finish")
	cmd.Flags().DurationVar(&f.timeout, "timeout", 0, "Maximum time to wait (default: from config)")
	cmd.Flags().DurationVar(&f.interval, "interval", 0, "Initial polling interval (default: from config)")
	cmd.Flags().BoolVar(&f.download, "download", false, "Download outputs when finished (implies --wait)")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "Download directory or s3://bucket/prefix (default: from config)")
	cmd.Flags().BoolVar(&f.json, "json", false, "Print JSON")
}

func generateCmd(g group) *cobra.Command {
	var (
		wf          waitFlags
		modelID     string
		prompt      string
		pairs       []string
		paramsJSON  string
		callbackURL string
		music       musicFlags
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: fmt.Sprintf("Submit a %s generation task", g.Type),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			p, err := a.provider("")
			if err != nil {
				return err
			}

			defModel, defParams := a.cfg.TaskDefaults(g.Type)
			if modelID == "" {
				modelID = defModel
			}
			if modelID == "" {
				return fmt.Errorf("--model is required (see `kai %s list`)", g.Type)
			}

			var defaults map[string]any
			if m, ok := p.Model(modelID); ok {
				defaults = declaredDefaults(m, defParams)
			}

			named := map[string]any{}
			if prompt != "" {
				named["prompt"] = prompt
			}
			if callbackURL != "" {
				named["callBackUrl"] = callbackURL
			}
			if g.Type == task.TypeMusic {
				music.apply(cmd, named)
			}

			fromJSON, err := parseJSONParams(paramsJSON)
			if err != nil {
				return err
			}
			fromPairs, err := parsePairs(pairs)
			if err != nil {
				return err
			}
			params := mergeParams(defaults, named, fromJSON, fromPairs)

			ctx := cmd.Context()
			t, err := p.CreateTask(ctx, g.Type, modelID, params)
			if err != nil {
				return err
			}
			a.record(history.Entry{
				TaskID:   t.ID,
				Provider: p.Name(),
				Family:   t.Family,
				Command:  g.History,
				Model:    t.Model,
				Prompt:   promptOf(params),
				Params:   params,
			})
			return a.finish(ctx, p, t, wf)
		},
	}

	cmd.Flags().StringVarP(&modelID, "model", "m", "", "Model ID (default: from config)")
	cmd.Flags().StringVarP(&prompt, "prompt", "p", "", "Text prompt")
	cmd.Flags().StringArrayVar(&pairs, "param", nil, "Model parameter as key=value (repeatable)")
	cmd.Flags().StringVar(&paramsJSON, "params-json", "", "Model parameters as a JSON object")
	cmd.Flags().StringVar(&callbackURL, "callback-url", "", "URL notified when the task finishes")
	if g.Type == task.TypeMusic {
		music.register(cmd)
	}
	wf.register(cmd)

	return cmd
}

// finish prints a created task and, when asked, waits for it and downloads
// its outputs.
func (a *app) finish(ctx context.Context, p provider.Provider, t *task.Task, wf waitFlags) error {
	out := output.New(os.Stdout)
	if !wf.wait && !wf.download {
		if wf.json {
			return out.JSON(t)
		}
		out.Task(t)
		out.Line("")
		out.Line("Check progress with: kai status %s --family %s", t.ID, t.Family)
		return nil
	}

	if !wf.json {
		out.Task(t)
		out.Line("")
	}
	return a.wait(ctx, p, t.Ref(), wf)
}

// wait polls ref to completion, records the result and reports it.
func (a *app) wait(ctx context.Context, p provider.Provider, ref task.Ref, wf waitFlags) error {
	out := output.New(os.Stdout)
	opts := a.pollOptions(wf.timeout, wf.interval)
	if !wf.json {
		progress := output.New(os.Stderr)
		opts.OnProgress = func(s task.Status) {
			line := "Waiting: " + string(s.State)
			if s.Progress != nil {
				line += fmt.Sprintf(" (%d%%)", *s.Progress)
			}
			progress.Line("%s", line)
		}
	}

	res, err := p.WaitForCompletion(ctx, ref, opts)
	if err != nil {
		if errors.Is(err, poll.ErrCancelled) {
			return fmt.Errorf("stopped waiting for task %s: %w", ref.ID, err)
		}
		return err
	}
	a.complete(res)

	var saved []string
	var dlErr error
	if wf.download && res.State == task.StateSuccess {
		saved, dlErr = a.download(ctx, res, wf.output)
	}

	if wf.json {
		if err := out.JSON(struct {
			*task.Result
			Saved []string `json:"saved,omitempty"`
		}{res, saved}); err != nil {
			return err
		}
	} else {
		out.Result(res)
		if len(saved) > 0 {
			out.Line("")
			out.Line("Saved:")
			for _, s := range saved {
				out.Line("  %s", s)
			}
		}
	}

	if dlErr != nil {
		return dlErr
	}
	if res.State != task.StateSuccess {
		return errFailed
	}
	return nil
}

func promptOf(params map[string]any) string {
	s, _ := params["prompt"].(string)
	return strings.TrimSpace(s)
}
