package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/everstacklabs/kai/internal/history"
	"github.com/everstacklabs/kai/internal/output"
)

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show previously submitted tasks",
	}
	cmd.AddCommand(historyListCmd(), historyShowCmd(), historyClearCmd())
	return cmd
}

func historyListCmd() *cobra.Command {
	var (
		q      history.Query
		status string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List history entries, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			switch history.Status(status) {
			case "", history.StatusPending, history.StatusSuccess, history.StatusFail:
				q.Status = history.Status(status)
			default:
				return fmt.Errorf("unknown status %q (want pending, success or fail)", status)
			}

			entries, err := history.New(cfg.HistoryPath).List(q)
			if err != nil {
				return err
			}
			out := output.New(os.Stdout)
			if asJSON {
				return out.JSON(entries)
			}
			out.History(entries)
			return nil
		},
	}

	cmd.Flags().StringVar(&q.Type, "type", "", "Only image, video or music tasks")
	cmd.Flags().StringVar(&status, "status", "", "Only pending, success or fail entries")
	cmd.Flags().IntVarP(&q.Limit, "limit", "n", 20, "Maximum entries to show (0 for all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}

func historyShowCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <task-id>",
		Short: "Show one history entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			e, err := history.New(cfg.HistoryPath).Find(args[0])
			if err != nil {
				return err
			}
			out := output.New(os.Stdout)
			if asJSON {
				return out.JSON(e)
			}
			out.Entry(e)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}

func historyClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete every history entry",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := history.New(cfg.HistoryPath).Clear(); err != nil {
				return err
			}
			fmt.Println("History cleared")
			return nil
		},
	}
}
