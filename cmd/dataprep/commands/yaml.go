package commands

import (
	"github.com/nvr-ai/go-dataset/dataset"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newYAMLCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "yaml",
		Short: "Write the dataset YAML used for training",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, map[string]string{
				"yaml.path":  "path",
				"yaml.root":  "root",
				"yaml.train": "train",
				"yaml.val":   "val",
				"yaml.test":  "test",
				"yaml.names": "names",
			})
			if err != nil {
				return err
			}

			if err := dataset.WriteConfig(dataset.Config{
				Path:  cfg.YAML.Path,
				Root:  cfg.YAML.Root,
				Train: cfg.YAML.Train,
				Val:   cfg.YAML.Val,
				Test:  cfg.YAML.Test,
				Names: cfg.YAML.ClassNames(),
			}); err != nil {
				return err
			}

			log.Info().Str("path", cfg.YAML.Path).Int("classes", len(cfg.YAML.Names)).Msg("dataset config written")
			return nil
		},
	}

	cmd.Flags().String("path", "", "Output YAML file (must end with .yaml)")
	cmd.Flags().String("root", "", "Dataset root directory")
	cmd.Flags().String("train", "", "Train images, relative to root")
	cmd.Flags().String("val", "", "Val images, relative to root")
	cmd.Flags().String("test", "", "Test images, relative to root")
	cmd.Flags().StringSlice("names", nil, "Class names, in class id order")

	return cmd
}
