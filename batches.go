package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"gorgonia.org/gorgonia"

	"github.com/TimAnthonyAlexander/s2sprep/dataset"
	"github.com/TimAnthonyAlexander/s2sprep/vocab"
)

type Manifest struct {
	SrcPath    string        `json:"src_path"`
	SrcHash    string        `json:"src_hash"`
	TgtPath    string        `json:"tgt_path,omitempty"`
	Examples   int           `json:"examples"`
	Batches    int           `json:"batches"`
	BatchSize  int           `json:"batch_size"`
	BatchFirst bool          `json:"batch_first"`
	Device     string        `json:"device"`
	Seed       int64         `json:"seed"`
	SrcVocab   int           `json:"src_vocab_size"`
	TgtVocab   int           `json:"tgt_vocab_size,omitempty"`
	SrcUnkRate float64       `json:"src_unk_rate"`
	Shapes     []BatchShapes `json:"shapes"`
	CreatedAt  time.Time     `json:"created_at"`
}

// BatchShapes records the tensor shapes of one batch as bound into a graph.
type BatchShapes struct {
	Index         int              `json:"index"`
	Size          int              `json:"size"`
	MaxSourceLen  int64            `json:"max_source_len"`
	SourceTokens  int64            `json:"source_tokens"`
	Inputs        map[string][]int `json:"inputs"`
	OriginalOrder []int            `json:"original_order"`
}

func batchFlags(config *BatchConfig, handling flag.ErrorHandling) *flag.FlagSet {
	fs := flag.NewFlagSet("batches", handling)
	fs.StringVar(&config.Src, "src", "", "Source corpus, one example per line (required)")
	fs.StringVar(&config.EqMask, "eq", "", "Equation mask, integer indices per line (required)")
	fs.StringVar(&config.Topic, "topic", "", "Topic feature corpus (required)")
	fs.StringVar(&config.Tgt, "tgt", "", "Target corpus")
	fs.StringVar(&config.SrcVocab, "src-vocab", "", "Source vocabulary (required)")
	fs.StringVar(&config.TgtVocab, "tgt-vocab", "", "Target vocabulary, defaults to the source vocabulary")
	fs.StringVar(&config.TopicVocab, "topic-vocab", "", "Topic vocabulary; without one topic lines hold integer indices")
	fs.BoolVar(&config.Lower, "lower", false, "Lower-case tokens before lookup")
	fs.IntVar(&config.Batch, "batch", 64, "Batch size")
	fs.Int64Var(&config.Seed, "seed", 1337, "Shuffle seed")
	fs.BoolVar(&config.BatchFirst, "batch-first", false, "Lay tensors out as (batch, length)")
	fs.BoolVar(&config.Cuda, "cuda", false, "Allocate batches on the GPU")
	fs.StringVar(&config.Out, "out", "", "Directory for manifest.json")
	return fs
}

func runBatches(args []string) {
	config := BatchConfig{}
	fs := batchFlags(&config, flag.ExitOnError)

	if err := parseWithConfig(fs, args, &config); err != nil {
		log.Fatalf("batches: %v", err)
	}
	if config.Src == "" || config.EqMask == "" || config.Topic == "" || config.SrcVocab == "" {
		fmt.Println("Error: --src, --eq, --topic and --src-vocab are required")
		fs.PrintDefaults()
		os.Exit(1)
	}

	manifest, err := buildBatches(config)
	if err != nil {
		log.Fatalf("batches: %v", err)
	}

	if config.Out == "" {
		return
	}
	manifestPath, err := writeManifest(config.Out, manifest)
	if err != nil {
		log.Fatalf("batches: %v", err)
	}
	fmt.Printf("📋 Manifest saved to: %s\n", manifestPath)
}

func writeManifest(dir string, manifest *Manifest) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	manifestPath := filepath.Join(dir, "manifest.json")
	if err := saveJSON(manifestPath, manifest); err != nil {
		return "", errors.Wrap(err, "save manifest")
	}
	return manifestPath, nil
}

func buildBatches(config BatchConfig) (*Manifest, error) {
	if config.SrcVocab == "" {
		return nil, errors.New("source vocabulary is required")
	}
	srcVocab, err := loadVocab(config.SrcVocab)
	if err != nil {
		return nil, err
	}
	tgtVocab := srcVocab
	if config.TgtVocab != "" {
		if tgtVocab, err = loadVocab(config.TgtVocab); err != nil {
			return nil, err
		}
	}
	topicVocab, err := loadVocab(config.TopicVocab)
	if err != nil {
		return nil, err
	}

	fmt.Printf("🔢 Encoding corpora...\n")
	src, err := streamReader{vocab: srcVocab, lower: config.Lower}.readStream(config.Src)
	if err != nil {
		return nil, err
	}
	eqMask, err := streamReader{}.readStream(config.EqMask)
	if err != nil {
		return nil, err
	}
	topic, err := streamReader{vocab: topicVocab, lower: config.Lower}.readStream(config.Topic)
	if err != nil {
		return nil, err
	}
	tgt, err := streamReader{vocab: tgtVocab, lower: config.Lower, wrap: true}.readStream(config.Tgt)
	if err != nil {
		return nil, err
	}

	unkRate := unknownRate(src, srcVocab)
	fmt.Printf("   Examples: %d, source UNK rate: %.2f%%\n", len(src), unkRate*100)
	if unkRate > 0.1 {
		fmt.Printf("   ⚠️  High UNK rate! Consider rebuilding the vocabulary\n")
	}

	ds, err := dataset.New(src, eqMask, topic, tgt, dataset.Config{
		BatchSize:  config.Batch,
		Device:     dataset.DeviceFor(config.Cuda),
		BatchFirst: config.BatchFirst,
		Pad:        vocab.PAD,
	})
	if err != nil {
		return nil, err
	}
	ds.Shuffle(rand.New(rand.NewSource(config.Seed)))

	srcHash, err := hashFile(config.Src)
	if err != nil {
		return nil, errors.Wrap(err, "hash source corpus")
	}
	manifest := &Manifest{
		SrcPath:    config.Src,
		SrcHash:    srcHash,
		TgtPath:    config.Tgt,
		Examples:   ds.Examples(),
		Batches:    ds.Len(),
		BatchSize:  config.Batch,
		BatchFirst: config.BatchFirst,
		Device:     ds.Config().Device.String(),
		Seed:       config.Seed,
		SrcVocab:   srcVocab.Size(),
		SrcUnkRate: unkRate,
		CreatedAt:  time.Now(),
	}
	if ds.HasTarget() {
		manifest.TgtVocab = tgtVocab.Size()
	}

	fmt.Printf("📦 Assembling %d batches of up to %d examples...\n", ds.Len(), config.Batch)
	for i := 0; i < ds.Len(); i++ {
		b, err := ds.Batch(i)
		if err != nil {
			return nil, err
		}
		shapes, err := describeBatch(i, b)
		if err != nil {
			return nil, err
		}
		manifest.Shapes = append(manifest.Shapes, shapes)
	}
	return manifest, nil
}

// describeBatch binds b into a fresh graph and records the node shapes.
func describeBatch(index int, b *dataset.Batch) (BatchShapes, error) {
	in, err := b.Bind(gorgonia.NewGraph())
	if err != nil {
		return BatchShapes{}, errors.Wrapf(err, "batch %d", index)
	}

	lengths := b.SourceLengths.Data().([]int64)
	return BatchShapes{
		Index:        index,
		Size:         b.Size(),
		MaxSourceLen: lo.Max(lengths),
		SourceTokens: lo.Sum(lengths),
		Inputs: lo.SliceToMap([]*gorgonia.Node(in.Nodes()), func(n *gorgonia.Node) (string, []int) {
			return n.Name(), []int(n.Shape())
		}),
		OriginalOrder: b.Indices,
	}, nil
}

func unknownRate(seqs [][]int64, v *vocab.Vocabulary) float64 {
	unk, ok := v.Index(vocab.UnkWord)
	if !ok {
		return 0
	}
	var total, unknown int
	for _, seq := range seqs {
		total += len(seq)
		unknown += lo.Count(seq, int64(unk))
	}
	if total == 0 {
		return 0
	}
	return float64(unknown) / float64(total)
}

func saveJSON(path string, data interface{}) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

func loadJSON(path string, data interface{}) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return json.NewDecoder(f).Decode(data)
}
