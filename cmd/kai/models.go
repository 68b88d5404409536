package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/everstacklabs/kai/internal/catalog"
	"github.com/everstacklabs/kai/internal/diff"
	"github.com/everstacklabs/kai/internal/docs"
	"github.com/everstacklabs/kai/internal/output"
	"github.com/everstacklabs/kai/internal/validate"
)

func listModelsCmd(g group) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: fmt.Sprintf("List %s models", g.Type),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			p, err := a.providers.Get("")
			if err != nil {
				return err
			}

			models := p.Models(g.Type)
			out := output.New(os.Stdout)
			if asJSON {
				return out.JSON(models)
			}
			out.Models(models)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}

func modelInfoCmd(g group) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "info <model-id>",
		Short: fmt.Sprintf("Show the parameters of a %s model", g.Type),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}

			m, err := a.catalog.Resolve(args[0], g.Type)
			if err != nil {
				return err
			}

			out := output.New(os.Stdout)
			if asJSON {
				return out.JSON(m)
			}
			out.Model(m, string(g.Type))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}

func modelsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "models",
		Short: "Maintain the model catalog",
	}
	cmd.AddCommand(lintCmd(), exportCmd(), diffCmd(), discoverCmd(), checkDocsCmd())
	return cmd
}

func lintCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lint",
		Short: "Check the model catalog for schema defects (CI check)",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := catalogFromFlag(cmd)
			if err != nil {
				return err
			}

			report := validate.LintCatalog(reg)
			fmt.Println(validate.FormatReport(report))

			if report.HasErrors() {
				return errFailed
			}
			return nil
		},
	}

	cmd.Flags().String("catalog-path", "", "Extra model directory merged over the builtin catalog (default: from config)")
	return cmd
}

func exportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export <dir>",
		Short: "Write the model catalog as YAML, one file per category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}

			results, err := a.catalog.Export(args[0])
			if err != nil {
				return err
			}
			for _, r := range results {
				state := "updated"
				if r.IsNew {
					state = "created"
				}
				fmt.Printf("%-8s %-40s %d models\n", state, r.Path, r.Models)
			}
			return nil
		},
	}
}

func diffCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "diff <dir>",
		Short: "Compare the builtin catalog with a directory of model YAML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			base, err := catalog.Load("")
			if err != nil {
				return err
			}
			candidate, err := catalog.LoadDir(args[0])
			if err != nil {
				return err
			}

			fmt.Println(diff.RenderSummary(diff.Compute(base, candidate)))
			return nil
		},
	}
}

func discoverCmd() *cobra.Command {
	var indexURL string

	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Compare the published documentation index with the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := catalogFromFlag(cmd)
			if err != nil {
				return err
			}

			d, err := docs.New().Discover(cmd.Context(), indexURL, reg)
			if err != nil {
				return err
			}

			fmt.Printf("Documented market pages: %d\n", len(d.Pages))
			if len(d.Uncatalogued) > 0 {
				fmt.Printf("\nNot in catalog (%d):\n", len(d.Uncatalogued))
				for _, p := range d.Uncatalogued {
					fmt.Printf("  + %s\n", p)
				}
			}
			if len(d.Unlisted) > 0 {
				fmt.Printf("\nNot in docs index (%d):\n", len(d.Unlisted))
				for _, id := range d.Unlisted {
					fmt.Printf("  - %s\n", id)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&indexURL, "index", docs.DefaultIndexURL, "Documentation index URL")
	cmd.Flags().String("catalog-path", "", "Extra model directory merged over the builtin catalog (default: from config)")
	return cmd
}

func checkDocsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check-docs [model-id...]",
		Short: "Check that each model's doc page mentions its parameters",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := catalogFromFlag(cmd)
			if err != nil {
				return err
			}

			models := reg.All()
			if len(args) > 0 {
				models = models[:0]
				for _, id := range args {
					m, ok := reg.Get(id)
					if !ok {
						return &catalog.ResolutionError{ModelID: id, Err: catalog.ErrModelNotFound}
					}
					models = append(models, m)
				}
			}

			failed := false
			for _, c := range docs.New().CheckParams(cmd.Context(), models) {
				switch {
				case c.Err != nil:
					failed = true
					fmt.Printf("%-45s error: %v\n", c.ModelID, c.Err)
				case len(c.Missing) > 0:
					failed = true
					fmt.Printf("%-45s not on page: %s\n", c.ModelID, strings.Join(c.Missing, ", "))
				default:
					fmt.Printf("%-45s ok\n", c.ModelID)
				}
			}
			if failed {
				return errFailed
			}
			return nil
		},
	}

	cmd.Flags().String("catalog-path", "", "Extra model directory merged over the builtin catalog (default: from config)")
	return cmd
}

// catalogFromFlag loads the catalog named by --catalog-path, falling back to
// the configured one.
func catalogFromFlag(cmd *cobra.Command) (*catalog.Registry, error) {
	path, _ := cmd.Flags().GetString("catalog-path")
	if path == "" {
		cfg, err := loadConfig()
		if err != nil {
			return nil, err
		}
		path = cfg.CatalogPath
	}

	reg, err := catalog.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading catalog: %w", err)
	}
	return reg, nil
}
