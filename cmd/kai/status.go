package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/everstacklabs/kai/internal/history"
	"github.com/everstacklabs/kai/internal/output"
	"github.com/everstacklabs/kai/internal/task"
)

// ref builds the task reference for id. An explicit --family wins; otherwise
// the history entry of the task supplies it, defaulting to job.
func (a *app) ref(cmd *cobra.Command, id string) (task.Ref, error) {
	if cmd.Flags().Changed("family") {
		name, _ := cmd.Flags().GetString("family")
		f, ok := task.ParseFamily(name)
		if !ok {
			return task.Ref{}, fmt.Errorf("unknown task family %q (want job, music, lyrics or music_video)", name)
		}
		return task.Ref{ID: id, Family: f}, nil
	}

	e, err := a.history.Find(id)
	switch {
	case err == nil:
		return e.Ref(), nil
	case !errors.Is(err, history.ErrNotFound):
		slog.Warn("failed to read history", "error", err)
	}
	return task.Ref{ID: id, Family: task.FamilyJob}, nil
}

func statusCmd() *cobra.Command {
	var wf waitFlags

	cmd := &cobra.Command{
		Use:   "status <task-id>",
		Short: "Show the status of a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			p, err := a.provider("")
			if err != nil {
				return err
			}
			ref, err := a.ref(cmd, args[0])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if wf.wait || wf.download {
				return a.wait(ctx, p, ref, wf)
			}

			s, err := p.GetTaskStatus(ctx, ref)
			if err != nil {
				return err
			}
			out := output.New(os.Stdout)
			if wf.json {
				return out.JSON(s)
			}
			out.Status(s)
			if s.State.IsTerminal() {
				out.Line("")
				out.Line("Fetch outputs with: kai download %s --family %s", ref.ID, ref.Family)
			}
			return nil
		},
	}

	cmd.Flags().String("family", "job", "Task family: job, music, lyrics or music_video (default: from history)")
	wf.register(cmd)
	return cmd
}

func downloadCmd() *cobra.Command {
	var dest string

	cmd := &cobra.Command{
		Use:   "download <task-id>",
		Short: "Download the outputs of a finished task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			p, err := a.provider("")
			if err != nil {
				return err
			}
			ref, err := a.ref(cmd, args[0])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			res, err := p.GetResult(ctx, ref)
			if err != nil {
				return err
			}
			if res.State != task.StateSuccess {
				return fmt.Errorf("task %s failed: %s", res.ID, res.Error)
			}

			saved, err := a.download(ctx, res, dest)
			for _, s := range saved {
				fmt.Println(s)
			}
			if len(saved) == 0 && err == nil {
				fmt.Println("Nothing to download")
			}
			return err
		},
	}

	cmd.Flags().String("family", "job", "Task family: job, music, lyrics or music_video (default: from history)")
	cmd.Flags().StringVarP(&dest, "output", "o", "", "Directory or s3://bucket/prefix (default: from config)")
	return cmd
}
