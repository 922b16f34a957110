// Package commands - Sub-commands of the dataprep CLI.
package commands

import (
	"github.com/nvr-ai/go-dataset/config"
	"github.com/nvr-ai/go-dataset/logger"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// ErrCheckFailed is returned by evaluate and check when the dataset verdict is a fail.
var ErrCheckFailed = errors.New("IoU check failed")

// ExitCode maps a command error to the process exit code: 2 for a failed IoU
// check, 1 for anything else.
func ExitCode(err error) int {
	if errors.Is(err, ErrCheckFailed) {
		return 2
	}
	return 1
}

// NewRootCmd creates the dataprep root command with all sub-commands.
func NewRootCmd(version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dataprep",
		Short: "Prepare YOLO datasets and evaluate detector predictions",
		Long: `dataprep converts CSV bounding-box annotations to YOLO label files, splits
a converted dataset into train/test/val sets, writes the dataset YAML for
training and evaluates predictions against ground truth.

Settings are read from dataprep.yaml (or --config), DATAPREP_* environment
variables and flags, in increasing priority. For example:
  DATAPREP_EVALUATE_THRESHOLD=0.85 dataprep evaluate`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().String("config", "", "Path to configuration file")
	cmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().Bool("pretty", false, "Human-readable log output")

	cmd.AddCommand(newConvertCmd())
	cmd.AddCommand(newSplitCmd())
	cmd.AddCommand(newYAMLCmd())
	cmd.AddCommand(newEvaluateCmd())
	cmd.AddCommand(newCheckCmd())

	return cmd
}

// loadConfig resolves the configuration for cmd and installs the logger.
// bindings maps config keys to the command's own flag names.
func loadConfig(cmd *cobra.Command, bindings map[string]string) (*config.Config, error) {
	all := map[string]string{
		"log.level":  "log-level",
		"log.pretty": "pretty",
	}
	for k, v := range bindings {
		all[k] = v
	}

	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(configPath, cmd.Flags(), all)
	if err != nil {
		return nil, err
	}

	if err := logger.Setup(cfg.Log); err != nil {
		return nil, err
	}

	return cfg, nil
}
