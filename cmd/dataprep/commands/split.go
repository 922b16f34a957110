package commands

import (
	"github.com/nvr-ai/go-dataset/split"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newSplitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "split",
		Short: "Split a converted dataset into train, test and val sets",
		Long: `Randomly samples labeled images into train, test and val sets.

The train set is drawn from the source train folder; test and val are drawn
without overlap from the source test folder. Set --seed for a reproducible split.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, map[string]string{
				"split.source": "source",
				"split.output": "output",
				"split.train":  "train",
				"split.test":   "test",
				"split.val":    "val",
				"split.seed":   "seed",
				"split.resize": "resize",
			})
			if err != nil {
				return err
			}

			res, err := split.Split(cfg.Split.SplitOptions())
			if err != nil {
				return err
			}

			log.Info().
				Str("output", cfg.Split.Output).
				Int("train", len(res.Train)).
				Int("test", len(res.Test)).
				Int("val", len(res.Val)).
				Msg("split complete")
			return nil
		},
	}

	cmd.Flags().String("source", "", "Converted dataset directory")
	cmd.Flags().String("output", "", "Output dataset directory")
	cmd.Flags().Int("train", 0, "Number of train images")
	cmd.Flags().Int("test", 0, "Number of test images")
	cmd.Flags().Int("val", 0, "Number of val images")
	cmd.Flags().Int64("seed", 0, "Shuffle seed (0 for random)")
	cmd.Flags().Uint("resize", 0, "Downscale images so the longer side fits (0 to copy as is)")

	return cmd
}
