// Package dataset - YOLO dataset YAML configuration.
package dataset

import (
	"bytes"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfigPath is returned when the output path does not end with ".yaml".
var ErrInvalidConfigPath = errors.New("path must end with .yaml")

// Config describes a dataset for the training pipeline.
type Config struct {
	// Path is where the YAML file is written. Must end with ".yaml".
	Path string `yaml:"-"`
	// Root is the dataset root directory.
	Root string `yaml:"path"`
	// Train is the train images path, relative to Root.
	Train string `yaml:"train"`
	// Val is the validation images path, relative to Root.
	Val string `yaml:"val"`
	// Test is the optional test images path, relative to Root.
	Test string `yaml:"test"`
	// Names maps class ids to class names.
	Names map[int]string `yaml:"names"`
}

func scalar(value, comment string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value, LineComment: comment}
}

// Marshal renders the dataset YAML.
//
// Every path key carries a trailing comment, an unset test path is written as an
// empty value, and class names are ordered by id under a "# Classes" heading.
//
// Arguments:
//   - cfg: The dataset description. Path is not used.
//
// Returns:
//   - []byte: The YAML document.
//   - error: Error if encoding fails.
//
// Example output:
//
//	path: /data/graffiti # dataset root dir
//	train: images/train # train images
//	val: images/val # val images
//	test: # test images (optional)
//
//	# Classes
//	names:
//	    0: graffiti
func Marshal(cfg Config) ([]byte, error) {
	test := scalar(cfg.Test, "test images")
	if cfg.Test == "" {
		test = &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", LineComment: "test images (optional)"}
	}

	names := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	ids := make([]int, 0, len(cfg.Names))
	for id := range cfg.Names {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		names.Content = append(names.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.Itoa(id)},
			scalar(cfg.Names[id], ""),
		)
	}

	namesKey := scalar("names", "")
	namesKey.HeadComment = "# Classes"

	doc := &yaml.Node{
		Kind: yaml.MappingNode,
		Tag:  "!!map",
		Content: []*yaml.Node{
			scalar("path", ""), scalar(cfg.Root, "dataset root dir"),
			scalar("train", ""), scalar(cfg.Train, "train images"),
			scalar("val", ""), scalar(cfg.Val, "val images"),
			scalar("test", ""), test,
			namesKey, names,
		},
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, errors.Wrap(err, "failed to encode dataset config")
	}
	if err := enc.Close(); err != nil {
		return nil, errors.Wrap(err, "failed to encode dataset config")
	}

	return buf.Bytes(), nil
}

// WriteConfig renders cfg and writes it to cfg.Path.
func WriteConfig(cfg Config) error {
	if !strings.HasSuffix(cfg.Path, ".yaml") {
		return errors.Wrapf(ErrInvalidConfigPath, "got %q", cfg.Path)
	}

	data, err := Marshal(cfg)
	if err != nil {
		return err
	}

	if err := os.WriteFile(cfg.Path, data, 0o644); err != nil {
		return errors.Wrap(err, "failed to write dataset config")
	}
	return nil
}

// ReadConfig parses a dataset YAML file.
func ReadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrap(err, "failed to read dataset config")
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Wrapf(err, "failed to parse %s", path)
	}
	cfg.Path = path
	return cfg, nil
}
