package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/everstacklabs/kai/internal/config"
	"github.com/everstacklabs/kai/internal/kie"
	"github.com/everstacklabs/kai/internal/output"
	"github.com/everstacklabs/kai/internal/validate"
)

var cfgFile string

// errFailed reports a failure that has already been printed.
var errFailed = errors.New("command failed")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := &cobra.Command{
		Use:           "kai",
		Short:         "Creative generation from the terminal",
		Long:          "Generates images, videos and music through the Kie.ai API, waits for the results and downloads them.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging()
		},
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.config/kai/config.yaml)")

	rootCmd.AddCommand(
		generationCmd(imageGroup),
		generationCmd(videoGroup),
		musicCmd(),
		statusCmd(),
		downloadCmd(),
		providerCmd(),
		configCmd(),
		historyCmd(),
		modelsCmd(),
	)

	err := rootCmd.ExecuteContext(ctx)
	stop()
	os.Exit(exitCode(err))
}

// exitCode prints err and maps it to the process exit status.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	if errors.Is(err, errFailed) {
		return 1
	}

	var verr *validate.ValidationError
	var apiErr *kie.APIError
	switch {
	case errors.As(err, &verr):
		command := ""
		if verr.Model != nil {
			command = string(verr.Model.Category)
		}
		output.New(os.Stderr).Issues(verr, command)
	case errors.As(err, &apiErr):
		fmt.Fprintf(os.Stderr, "API error (%d): %s\n", apiErr.Code, apiErr.Message)
	case errors.Is(err, config.ErrAPIKeyRequired), errors.Is(err, kie.ErrAPIKeyRequired):
		fmt.Fprintf(os.Stderr, "Error: %v\nSet it with `kai config set kie.api_key <key>` or the KIE_API_KEY environment variable.\n", err)
	default:
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return 1
}

// setupLogging installs the configured logger as the slog default. A broken
// config file is reported by the command that loads it.
func setupLogging() error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		slog.Debug("config not loaded for logging", "error", err)
		return nil
	}
	slog.SetDefault(cfg.NewLogger())
	return nil
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}
