package commands

import (
	"fmt"

	"github.com/nvr-ai/go-dataset/evaluate"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newEvaluateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Score predictions against ground truth and write the IoU report",
		Long: `Matches each image's most confident prediction against its ground truth
boxes, writes one CSV row per image and prints the pass/fail verdict.

The dataset passes when at least 80% of the images have an IoU above the
threshold. A failing verdict exits with status 2.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, map[string]string{
				"evaluate.ground_truth": "ground-truth",
				"evaluate.predictions":  "predictions",
				"evaluate.output":       "output",
				"evaluate.summary":      "summary",
				"evaluate.threshold":    "threshold",
				"evaluate.workers":      "workers",
			})
			if err != nil {
				return err
			}
			ec := cfg.Evaluate

			records, err := evaluate.ProcessLabels(cmd.Context(), evaluate.Options{
				GroundTruthDir: ec.GroundTruth,
				PredictDir:     ec.Predictions,
				Workers:        ec.Workers,
			})
			if err != nil {
				return err
			}

			if err := evaluate.WriteReport(ec.Output, records); err != nil {
				return err
			}

			if ec.Summary != "" {
				if err := evaluate.SaveSummary(ec.Summary, evaluate.Summarize(records, ec.Threshold)); err != nil {
					return err
				}
				log.Info().Str("path", ec.Summary).Msg("summary written")
			}

			pass, err := evaluate.Aggregate(records, ec.Threshold)
			if err != nil {
				return err
			}
			return verdict(cmd, pass)
		},
	}

	cmd.Flags().String("ground-truth", "", "Ground-truth label directory")
	cmd.Flags().String("predictions", "", "Prediction label directory")
	cmd.Flags().StringP("output", "o", "", "Output CSV report")
	cmd.Flags().String("summary", "", "Optional JSON summary file")
	cmd.Flags().Float64("threshold", 0, "IoU threshold")
	cmd.Flags().Int("workers", 0, "Concurrent label readers (0 for one per CPU)")

	return cmd
}

func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [report.csv]",
		Short: "Re-evaluate the pass/fail verdict of an existing IoU report",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, map[string]string{
				"evaluate.threshold": "threshold",
			})
			if err != nil {
				return err
			}

			path := cfg.Evaluate.Output
			if len(args) == 1 {
				path = args[0]
			}

			pass, err := evaluate.CheckCSV(path, cfg.Evaluate.Threshold)
			if err != nil {
				return err
			}
			return verdict(cmd, pass)
		},
	}

	cmd.Flags().Float64("threshold", 0, "IoU threshold")

	return cmd
}

func verdict(cmd *cobra.Command, pass bool) error {
	if !pass {
		fmt.Fprintln(cmd.OutOrStdout(), "FAIL")
		return ErrCheckFailed
	}
	fmt.Fprintln(cmd.OutOrStdout(), "PASS")
	return nil
}
