package commands

import (
	"github.com/nvr-ai/go-dataset/convert"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newConvertCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert CSV bounding-box annotations to YOLO label files",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, map[string]string{
				"convert.csv":     "csv",
				"convert.output":  "output",
				"convert.classes": "classes",
			})
			if err != nil {
				return err
			}

			res, err := convert.ConvertCSV(cfg.Convert.CSV, cfg.Convert.Output, convert.Options{Classes: cfg.Convert.Classes})
			if err != nil {
				return err
			}

			log.Info().
				Str("output", res.OutputDir).
				Int("images", res.Images).
				Int("boxes", res.Boxes).
				Msg("conversion complete")
			return nil
		},
	}

	cmd.Flags().String("csv", "", "CSV annotations file")
	cmd.Flags().String("output", "", "Output directory for label files")
	cmd.Flags().StringSlice("classes", nil, "Class names, in class id order")

	return cmd
}
