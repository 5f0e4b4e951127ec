package agent

import (
	"errors"
	"fmt"
	"github.com/Leantar/pollwatch/models"
	"github.com/Leantar/pollwatch/modules/config"
	"gopkg.in/yaml.v3"
	"os"
	"path/filepath"
	"strings"
)

type Config struct {
	Settings  Settings  `yaml:"Settings"`
	WatchList WatchList `yaml:"WatchList"`
}

type Settings struct {
	Database  string `yaml:"Database"`
	Recursive bool   `yaml:"Recursive"`
	Worker    string `yaml:"Worker"`
	Checksum  string `yaml:"Checksum,omitempty"`
	Shell     bool   `yaml:"Shell,omitempty"`
}

// WatchList holds the absolute paths of watched files and directories in
// the order they appear in the config file. It is written as a mapping with
// empty values; a plain sequence is accepted as well.
type WatchList []string

func (w *WatchList) UnmarshalYAML(value *yaml.Node) error {
	var nodes []*yaml.Node

	switch value.Kind {
	case yaml.MappingNode:
		for i := 0; i < len(value.Content); i += 2 {
			nodes = append(nodes, value.Content[i])
		}
	case yaml.SequenceNode:
		nodes = value.Content
	default:
		return fmt.Errorf("line %d: WatchList must be a mapping or a sequence of paths", value.Line)
	}

	list := make(WatchList, 0, len(nodes))
	seen := make(map[string]struct{}, len(nodes))
	for _, n := range nodes {
		if n.Kind != yaml.ScalarNode {
			return fmt.Errorf("line %d: watched path must be a string", n.Line)
		}
		if _, ok := seen[n.Value]; ok {
			continue
		}
		seen[n.Value] = struct{}{}
		list = append(list, n.Value)
	}

	*w = list
	return nil
}

func (w WatchList) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, path := range w {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: path},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null"},
		)
	}
	return node, nil
}

func (c Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.Settings.Database) == "" {
		errs = append(errs, errors.New("Settings.Database is required"))
	}
	if strings.TrimSpace(c.Settings.Worker) == "" {
		errs = append(errs, errors.New("Settings.Worker is required"))
	}
	if !models.ValidChecksum(c.Settings.Checksum) {
		errs = append(errs, fmt.Errorf("Settings.Checksum %q is not one of %s, %s, %s",
			c.Settings.Checksum, models.ChecksumBlake3, models.ChecksumXXHash, models.ChecksumMD5))
	}
	for _, path := range c.WatchList {
		if !filepath.IsAbs(path) {
			errs = append(errs, fmt.Errorf("watched path %q is not absolute", path))
		}
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: %w", config.ErrInvalid, err)
	}
	return nil
}

// LoadConfig reads and validates the config file at path.
func LoadConfig(path string) (Config, error) {
	var conf Config
	if err := config.FromYamlFile(path, &conf); err != nil {
		return Config{}, err
	}
	if err := conf.Validate(); err != nil {
		return Config{}, err
	}
	return conf, nil
}

// SaveConfig validates conf and writes it to path.
func SaveConfig(path string, conf Config) error {
	if err := conf.Validate(); err != nil {
		return err
	}
	return config.ToYamlFile(path, conf)
}

// ResolvePath makes p absolute and resolves symlinks when p exists.
func ResolvePath(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}

	resolved, err := filepath.EvalSymlinks(abs)
	if errors.Is(err, os.ErrNotExist) {
		return abs, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", abs, err)
	}

	return resolved, nil
}

func ResolveWatchList(paths []string) (WatchList, error) {
	list := make(WatchList, 0, len(paths))
	seen := make(map[string]struct{}, len(paths))

	for _, p := range paths {
		resolved, err := ResolvePath(p)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[resolved]; ok {
			continue
		}
		seen[resolved] = struct{}{}
		list = append(list, resolved)
	}

	return list, nil
}
