package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/yargevad/filepathx"

	"github.com/TimAnthonyAlexander/s2sprep/vocab"
)

func collectFlags(config *CollectConfig, handling flag.ErrorHandling) *flag.FlagSet {
	fs := flag.NewFlagSet("collect", handling)
	config.Specials = vocab.DefaultSpecials()
	fs.Var(&config.Files, "files", "Comma separated corpus files, ** globs allowed (required)")
	fs.StringVar(&config.Out, "out", "", "Output vocabulary file (required)")
	fs.BoolVar(&config.Lower, "lower", false, "Lower-case tokens before counting")
	fs.Var(&config.Specials, "specials", "Comma separated special tokens, lowest indices first")
	return fs
}

func runCollect(args []string) {
	config := CollectConfig{}
	fs := collectFlags(&config, flag.ExitOnError)

	if err := parseWithConfig(fs, args, &config); err != nil {
		log.Fatalf("collect: %v", err)
	}
	if len(config.Files) == 0 || config.Out == "" {
		fmt.Println("Error: --files and --out are required")
		fs.PrintDefaults()
		os.Exit(1)
	}

	v, err := collectVocab(config)
	if err != nil {
		log.Fatalf("collect: %v", err)
	}
	printCoverage(v)
}

func collectVocab(config CollectConfig) (*vocab.Vocabulary, error) {
	paths, err := expandFiles(config.Files)
	if err != nil {
		return nil, err
	}

	fmt.Printf("📚 Counting tokens in %d files...\n", len(paths))
	v, err := vocab.Collect(paths, config.Out, vocab.Options{
		Lower:    config.Lower,
		Specials: config.Specials,
	})
	if err != nil {
		return nil, err
	}
	fmt.Printf("   Wrote %d entries to %s\n", v.Size(), config.Out)
	return v, nil
}

// expandFiles resolves glob patterns with ** support. Plain paths pass
// through untouched so a missing file surfaces as an open error.
func expandFiles(patterns []string) ([]string, error) {
	var paths []string
	for _, p := range patterns {
		if !strings.ContainsAny(p, "*?[") {
			paths = append(paths, p)
			continue
		}
		matches, err := filepathx.Glob(p)
		if err != nil {
			return nil, errors.Wrapf(err, "glob %s", p)
		}
		if len(matches) == 0 {
			return nil, errors.Errorf("%s matches no files", p)
		}
		paths = append(paths, matches...)
	}
	return paths, nil
}

var coverageMarks = []float64{0.5, 0.9, 0.95, 0.99}

// printCoverage reports how many corpus entries are needed to reach each
// coverage mark.
func printCoverage(v *vocab.Vocabulary) {
	fmt.Printf("   Tokens: %d, specials: %d\n", v.Total, len(v.Specials()))
	mark := 0
	for _, e := range v.Entries {
		if e.Special {
			continue
		}
		for mark < len(coverageMarks) && e.Coverage >= coverageMarks[mark] {
			fmt.Printf("   %4.0f%% coverage at index %d\n", coverageMarks[mark]*100, e.Index)
			mark++
		}
	}
}
