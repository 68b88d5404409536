package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/everstacklabs/kai/internal/config"
	"github.com/everstacklabs/kai/internal/output"
	"github.com/everstacklabs/kai/internal/task"
)

func providerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "provider",
		Short: "List and select generation providers",
	}
	cmd.AddCommand(providerListCmd(), providerUseCmd(), providerInfoCmd())
	return cmd
}

func providerListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered providers",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}

			def := a.providers.Default()
			for _, name := range a.providers.List() {
				p, err := a.providers.Get(name)
				if err != nil {
					return err
				}
				mark := " "
				if name == def {
					mark = "*"
				}
				state := "not configured"
				if p.Configured() {
					state = "configured"
				}
				fmt.Printf("%s %-12s %-20s %s\n", mark, name, p.DisplayName(), state)
			}
			return nil
		},
	}
}

func providerUseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "use <name>",
		Short: "Set the default provider",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			if err := a.providers.SetDefault(args[0]); err != nil {
				return err
			}

			store, err := config.Open(cfgFile)
			if err != nil {
				return err
			}
			if err := store.Set("default_provider", args[0]); err != nil {
				return err
			}
			fmt.Printf("Default provider set to %s\n", args[0])
			return nil
		},
	}
}

func providerInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info [name]",
		Short: "Show provider capabilities and model counts",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			name := ""
			if len(args) == 1 {
				name = args[0]
			}
			p, err := a.providers.Get(name)
			if err != nil {
				return err
			}

			out := output.New(os.Stdout)
			out.Line("%s (%s)", p.DisplayName(), p.Name())
			caps := make([]string, 0, len(p.Capabilities()))
			for _, c := range p.Capabilities() {
				caps = append(caps, string(c))
			}
			out.Line("  %-16s %s", "Capabilities:", strings.Join(caps, ", "))
			for _, t := range task.Types {
				out.Line("  %-16s %d", string(t)+" models:", len(p.Models(t)))
			}
			pc := a.cfg.Provider(p.Name())
			if pc.BaseURL != "" {
				out.Line("  %-16s %s", "Base URL:", pc.BaseURL)
			}
			key := "(not set)"
			if pc.APIKey != "" {
				key = config.Mask(pc.APIKey)
			}
			out.Line("  %-16s %s", "API key:", key)
			return nil
		},
	}
}
