package main

import (
	"flag"
	"os"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// listFlag is a comma separated flag that also decodes from a yaml list.
type listFlag []string

func (l *listFlag) String() string {
	return strings.Join(*l, ",")
}

func (l *listFlag) Set(s string) error {
	var items []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	*l = items
	return nil
}

type CollectConfig struct {
	Files    listFlag `yaml:"files"`
	Out      string   `yaml:"out"`
	Lower    bool     `yaml:"lower"`
	Specials listFlag `yaml:"specials"`
}

type BatchConfig struct {
	Src        string `yaml:"src"`
	EqMask     string `yaml:"eq_mask"`
	Topic      string `yaml:"topic"`
	Tgt        string `yaml:"tgt"`
	SrcVocab   string `yaml:"src_vocab"`
	TgtVocab   string `yaml:"tgt_vocab"`
	TopicVocab string `yaml:"topic_vocab"`
	Lower      bool   `yaml:"lower"`
	Batch      int    `yaml:"batch"`
	Seed       int64  `yaml:"seed"`
	BatchFirst bool   `yaml:"batch_first"`
	Cuda       bool   `yaml:"cuda"`
	Out        string `yaml:"out"`
}

// loadConfig decodes a yaml file over the values already in cfg.
func loadConfig(path string, cfg interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "read config")
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return errors.Wrapf(err, "parse config %s", path)
	}
	return nil
}

// parseWithConfig parses args into fs. When -config names a file, its
// values replace the flag defaults and explicit flags are applied again on
// top, so the command line always wins.
func parseWithConfig(fs *flag.FlagSet, args []string, cfg interface{}) error {
	configPath := fs.String("config", "", "YAML config file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *configPath == "" {
		return nil
	}
	if err := loadConfig(*configPath, cfg); err != nil {
		return err
	}
	return fs.Parse(args)
}
