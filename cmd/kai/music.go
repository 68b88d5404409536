package main

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/everstacklabs/kai/internal/history"
	"github.com/everstacklabs/kai/internal/output"
	"github.com/everstacklabs/kai/internal/provider"
)

// musicFlags are the named Suno fields of `music generate`. Only flags the
// user set are passed on, so catalog defaults still apply.
type musicFlags struct {
	custom       bool
	instrumental bool
	style        string
	title        string
	negativeTags string
	vocalGender  string
}

func (f *musicFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.custom, "custom", false, "Custom mode: --style and --title are required")
	cmd.Flags().BoolVar(&f.instrumental, "instrumental", false, "Generate without vocals")
	cmd.Flags().StringVar(&f.style, "style", "", "Music style (custom mode)")
	cmd.Flags().StringVar(&f.title, "title", "", "Track title (custom mode)")
	cmd.Flags().StringVar(&f.negativeTags, "negative-tags", "", "Styles to avoid")
	cmd.Flags().StringVar(&f.vocalGender, "vocal-gender", "", "Preferred vocal gender (m or f)")
}

func (f *musicFlags) apply(cmd *cobra.Command, params map[string]any) {
	set := func(flag, key string, v any) {
		if cmd.Flags().Changed(flag) {
			params[key] = v
		}
	}
	set("custom", "customMode", f.custom)
	set("instrumental", "instrumental", f.instrumental)
	set("style", "style", f.style)
	set("title", "title", f.title)
	set("negative-tags", "negativeTags", f.negativeTags)
	set("vocal-gender", "vocalGender", f.vocalGender)
}

func musicCmd() *cobra.Command {
	cmd := generationCmd(musicGroup)
	cmd.AddCommand(
		lyricsCmd(),
		timestampsCmd(),
		musicVideoCmd(),
	)
	return cmd
}

func lyricsCmd() *cobra.Command {
	var (
		wf          waitFlags
		prompt      string
		callbackURL string
	)

	cmd := &cobra.Command{
		Use:   "lyrics",
		Short: "Generate song lyrics from a prompt",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			mp, err := a.musicProvider()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			t, err := mp.CreateLyricsTask(ctx, provider.LyricsRequest{Prompt: prompt, CallbackURL: callbackURL})
			if err != nil {
				return err
			}
			a.record(history.Entry{
				TaskID:   t.ID,
				Provider: mp.Name(),
				Family:   t.Family,
				Command:  history.CmdMusicLyrics,
				Model:    t.Model,
				Prompt:   strings.TrimSpace(prompt),
			})
			return a.finish(ctx, mp, t, wf)
		},
	}

	cmd.Flags().StringVarP(&prompt, "prompt", "p", "", "What the lyrics should be about")
	cmd.Flags().StringVar(&callbackURL, "callback-url", "", "URL notified when the task finishes (default: from config)")
	wf.register(cmd)
	return cmd
}

func timestampsCmd() *cobra.Command {
	var (
		taskID  string
		audioID string
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "timestamps",
		Short: "Fetch lyrics aligned to a generated track",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			mp, err := a.musicProvider()
			if err != nil {
				return err
			}

			words, err := mp.TimestampedLyrics(cmd.Context(), taskID, audioID)
			if err != nil {
				return err
			}

			out := output.New(os.Stdout)
			if asJSON {
				return out.JSON(words)
			}
			out.Words(words)
			return nil
		},
	}

	cmd.Flags().StringVar(&taskID, "task-id", "", "Music task ID")
	cmd.Flags().StringVar(&audioID, "audio-id", "", "Track ID within the task")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	_ = cmd.MarkFlagRequired("task-id")
	_ = cmd.MarkFlagRequired("audio-id")
	return cmd
}

func musicVideoCmd() *cobra.Command {
	var (
		wf  waitFlags
		req provider.MusicVideoRequest
	)

	cmd := &cobra.Command{
		Use:   "video",
		Short: "Render a video for a generated track",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			mp, err := a.musicProvider()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			t, err := mp.CreateMusicVideoTask(ctx, req)
			if err != nil {
				return err
			}
			a.record(history.Entry{
				TaskID:   t.ID,
				Provider: mp.Name(),
				Family:   t.Family,
				Command:  history.CmdMusicVideo,
				Model:    t.Model,
				Params:   map[string]any{"taskId": req.TaskID, "audioId": req.AudioID},
			})
			return a.finish(ctx, mp, t, wf)
		},
	}

	cmd.Flags().StringVar(&req.TaskID, "task-id", "", "Music task ID")
	cmd.Flags().StringVar(&req.AudioID, "audio-id", "", "Track ID within the task")
	cmd.Flags().StringVar(&req.Author, "author", "", "Author name shown in the video")
	cmd.Flags().StringVar(&req.Domain, "domain", "", "Domain watermark shown in the video")
	cmd.Flags().StringVar(&req.CallbackURL, "callback-url", "", "URL notified when the task finishes (default: from config)")
	wf.register(cmd)
	return cmd
}
