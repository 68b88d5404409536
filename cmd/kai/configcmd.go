package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/everstacklabs/kai/internal/config"
)

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Read and edit the kai configuration",
	}
	cmd.AddCommand(configGetCmd(), configSetCmd(), configListCmd(), configPathCmd())
	return cmd
}

func configGetCmd() *cobra.Command {
	var unmask bool

	cmd := &cobra.Command{
		Use:   "get <key>",
		Short: "Print one setting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := config.Open(cfgFile)
			if err != nil {
				return err
			}
			val, ok := store.Get(args[0])
			if !ok {
				return fmt.Errorf("%s is not set", config.NormalizeKey(args[0]))
			}
			if !unmask {
				val = config.MaskSetting(config.NormalizeKey(args[0]), val)
			}
			fmt.Println(val)
			return nil
		},
	}

	cmd.Flags().BoolVar(&unmask, "unmask", false, "Show secrets in full")
	return cmd
}

func configSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Persist one setting to the config file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := config.Open(cfgFile)
			if err != nil {
				return err
			}
			if err := store.Set(args[0], args[1]); err != nil {
				return err
			}
			if _, err := store.Config(); err != nil {
				return fmt.Errorf("saved, but the config no longer validates: %w", err)
			}
			key := config.NormalizeKey(args[0])
			fmt.Printf("%s = %v\n", key, config.MaskSetting(key, config.ParseValue(args[1])))
			return nil
		},
	}
}

func configListCmd() *cobra.Command {
	var unmask bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print every effective setting",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := config.Open(cfgFile)
			if err != nil {
				return err
			}
			for _, s := range store.List(unmask) {
				fmt.Printf("%-32s %v\n", s.Key, s.Value)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&unmask, "unmask", false, "Show secrets in full")
	return cmd
}

func configPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the config file location",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfgFile != "" {
				fmt.Println(cfgFile)
				return nil
			}
			fmt.Println(config.DefaultPath())
			return nil
		},
	}
}
