// Package config - Layered configuration for the dataprep tool.
//
// Values are resolved, lowest priority first, from built-in defaults, a YAML
// config file, DATAPREP_* environment variables and command-line flags.
package config

import (
	"strings"

	"github.com/nvr-ai/go-dataset/evaluate"
	"github.com/nvr-ai/go-dataset/logger"
	"github.com/nvr-ai/go-dataset/split"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment variable overrides, e.g. DATAPREP_EVALUATE_THRESHOLD.
const EnvPrefix = "DATAPREP"

// Config is the complete tool configuration.
type Config struct {
	Log      logger.Options `mapstructure:"log"`
	Convert  Convert        `mapstructure:"convert"`
	Split    Split          `mapstructure:"split"`
	YAML     YAML           `mapstructure:"yaml"`
	Evaluate Evaluate       `mapstructure:"evaluate"`
}

// Convert configures the CSV to YOLO conversion.
type Convert struct {
	CSV     string   `mapstructure:"csv"`
	Output  string   `mapstructure:"output"`
	Classes []string `mapstructure:"classes"`
}

// Split configures the dataset split.
type Split struct {
	Source string `mapstructure:"source"`
	Output string `mapstructure:"output"`
	Train  int    `mapstructure:"train"`
	Test   int    `mapstructure:"test"`
	Val    int    `mapstructure:"val"`
	// Seed of zero means a random shuffle.
	Seed   int64 `mapstructure:"seed"`
	Resize uint  `mapstructure:"resize"`
}

// YAML configures the dataset YAML generation.
type YAML struct {
	Path  string   `mapstructure:"path"`
	Root  string   `mapstructure:"root"`
	Train string   `mapstructure:"train"`
	Val   string   `mapstructure:"val"`
	Test  string   `mapstructure:"test"`
	Names []string `mapstructure:"names"`
}

// Evaluate configures the prediction evaluation.
type Evaluate struct {
	GroundTruth string  `mapstructure:"ground_truth"`
	Predictions string  `mapstructure:"predictions"`
	Output      string  `mapstructure:"output"`
	Summary     string  `mapstructure:"summary"`
	Threshold   float64 `mapstructure:"threshold"`
	Workers     int     `mapstructure:"workers"`
}

// SplitOptions converts the split section to split.Options.
func (s Split) SplitOptions() split.Options {
	opts := split.Options{
		SourceDir:     s.Source,
		OutputDir:     s.Output,
		TrainSize:     s.Train,
		TestSize:      s.Test,
		ValSize:       s.Val,
		ResizeMaxSide: s.Resize,
	}
	if s.Seed != 0 {
		seed := s.Seed
		opts.Seed = &seed
	}
	return opts
}

// ClassNames returns the names as a class id to name map.
func (y YAML) ClassNames() map[int]string {
	out := make(map[int]string, len(y.Names))
	for i, name := range y.Names {
		out[i] = name
	}
	return out
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	v.SetDefault("convert.csv", "data/annotations.csv")
	v.SetDefault("convert.output", "data/converted/labels")
	v.SetDefault("convert.classes", []string{})

	d := split.DefaultOptions()
	v.SetDefault("split.source", d.SourceDir)
	v.SetDefault("split.output", d.OutputDir)
	v.SetDefault("split.train", d.TrainSize)
	v.SetDefault("split.test", d.TestSize)
	v.SetDefault("split.val", d.ValSize)
	v.SetDefault("split.seed", 0)
	v.SetDefault("split.resize", 0)

	v.SetDefault("yaml.path", "data.yaml")
	v.SetDefault("yaml.root", d.OutputDir)
	v.SetDefault("yaml.train", "images/train")
	v.SetDefault("yaml.val", "images/val")
	v.SetDefault("yaml.test", "images/test")
	v.SetDefault("yaml.names", []string{"graffiti"})

	v.SetDefault("evaluate.ground_truth", d.OutputDir+"/labels/test")
	v.SetDefault("evaluate.predictions", "runs/detect/predict/labels")
	v.SetDefault("evaluate.output", "iou_results.csv")
	v.SetDefault("evaluate.summary", "")
	v.SetDefault("evaluate.threshold", evaluate.DefaultThreshold)
	v.SetDefault("evaluate.workers", 0)
}

// Load resolves the configuration.
//
// Arguments:
//   - configPath: An explicit config file. When empty, "dataprep.yaml" is looked
//     up in the working directory and $HOME/.dataprep, and a missing file is not an error.
//   - flags: Command-line flags to bind. May be nil.
//   - bindings: Config keys mapped to the flag names that override them.
//
// Returns:
//   - *Config: The validated configuration.
//   - error: Error if the file cannot be read, a flag is unknown or validation fails.
func Load(configPath string, flags *pflag.FlagSet, bindings map[string]string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrap(err, "failed to read config file")
		}
	} else {
		v.SetConfigName("dataprep")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.dataprep")

		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, errors.Wrap(err, "failed to read config file")
			}
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, name := range bindings {
		if flags == nil {
			break
		}
		flag := flags.Lookup(name)
		if flag == nil {
			return nil, errors.Errorf("unknown flag %q for key %q", name, key)
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return nil, errors.Wrapf(err, "failed to bind flag %q", name)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate rejects values no command can work with.
func (c *Config) Validate() error {
	if c.Split.Train < 0 || c.Split.Test < 0 || c.Split.Val < 0 {
		return errors.New("split sizes must not be negative")
	}
	if c.Evaluate.Threshold < 0 || c.Evaluate.Threshold > 1 {
		return errors.Errorf("evaluate threshold %v outside [0, 1]", c.Evaluate.Threshold)
	}
	if c.Evaluate.Workers < 0 {
		return errors.New("evaluate workers must not be negative")
	}
	return nil
}
