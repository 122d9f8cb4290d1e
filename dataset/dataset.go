// Package dataset batches parallel index sequences into padded tensors for
// a recurrent encoder-decoder.
//
// Each example has four streams: source tokens, an equation mask, topic
// (LDA) features and an optional target. A batch pads every stream to its
// own longest example and orders the examples by decreasing source length,
// which packed RNN encoders require.
package dataset

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"

	"gorgonia.org/tensor"
)

var (
	ErrBatchIndex = errors.New("batch index out of range")
	ErrMisaligned = errors.New("streams have different example counts")
	ErrDevice     = errors.New("device not available")
)

// Stream names one of the parallel sequences of a Dataset.
type Stream int

const (
	Source Stream = iota
	EqMask
	Topic
	Target
)

func (s Stream) String() string {
	switch s {
	case Source:
		return "src"
	case EqMask:
		return "eq_mask"
	case Topic:
		return "topic"
	case Target:
		return "tgt"
	default:
		return fmt.Sprintf("Stream(%d)", int(s))
	}
}

type Config struct {
	BatchSize int
	Device    Device
	// BatchFirst lays tensors out as (batch, length) instead of the
	// default sequence-major (length, batch).
	BatchFirst bool
	// AlignRight pads the listed streams on the left.
	AlignRight map[Stream]bool
	// Pad fills positions past the end of an example.
	Pad int64
}

// Dataset holds aligned example streams. It is meant for a single owner:
// Shuffle reorders the streams in place without synchronisation.
type Dataset struct {
	src    [][]int64
	eqMask [][]int64
	topic  [][]int64
	tgt    [][]int64

	cfg        Config
	engine     tensor.Engine
	numBatches int
}

// New wraps the streams. tgt may be nil for source-only data; all other
// streams must have one entry per source example.
func New(src, eqMask, topic, tgt [][]int64, cfg Config) (*Dataset, error) {
	if cfg.BatchSize <= 0 {
		return nil, fmt.Errorf("batch size must be positive, got %d", cfg.BatchSize)
	}
	if tgt != nil && len(tgt) != len(src) {
		return nil, fmt.Errorf("%w: %d source, %d target", ErrMisaligned, len(src), len(tgt))
	}
	if len(eqMask) != len(src) {
		return nil, fmt.Errorf("%w: %d source, %d eq mask", ErrMisaligned, len(src), len(eqMask))
	}
	if len(topic) != len(src) {
		return nil, fmt.Errorf("%w: %d source, %d topic", ErrMisaligned, len(src), len(topic))
	}
	eng, err := cfg.Device.engine()
	if err != nil {
		return nil, err
	}

	return &Dataset{
		src:        src,
		eqMask:     eqMask,
		topic:      topic,
		tgt:        tgt,
		cfg:        cfg,
		engine:     eng,
		numBatches: (len(src) + cfg.BatchSize - 1) / cfg.BatchSize,
	}, nil
}

// Len returns the number of batches.
func (d *Dataset) Len() int {
	return d.numBatches
}

// Examples returns the number of examples.
func (d *Dataset) Examples() int {
	return len(d.src)
}

func (d *Dataset) HasTarget() bool {
	return d.tgt != nil
}

func (d *Dataset) Config() Config {
	return d.cfg
}

// Shuffle applies one random permutation to every stream, keeping the
// streams of each example together. It changes the order seen by all later
// Batch calls. A nil rng uses the global source.
func (d *Dataset) Shuffle(rng *rand.Rand) {
	var perm []int
	if rng != nil {
		perm = rng.Perm(len(d.src))
	} else {
		perm = rand.Perm(len(d.src))
	}

	d.src = permute(d.src, perm)
	d.eqMask = permute(d.eqMask, perm)
	d.topic = permute(d.topic, perm)
	if d.tgt != nil {
		d.tgt = permute(d.tgt, perm)
	}
}

// Batch assembles batch index. Examples come out sorted by decreasing
// source length; Batch.Indices maps each row back to its position in the
// unsorted slice.
func (d *Dataset) Batch(index int) (*Batch, error) {
	if index < 0 || index >= d.numBatches {
		return nil, fmt.Errorf("%w: %d > %d", ErrBatchIndex, index, d.numBatches)
	}
	lo := index * d.cfg.BatchSize
	hi := min(lo+d.cfg.BatchSize, len(d.src))

	src, srcLens := Pad(d.src[lo:hi], d.cfg.Pad, d.cfg.AlignRight[Source])
	topic, topicLens := Pad(d.topic[lo:hi], d.cfg.Pad, d.cfg.AlignRight[Topic])
	eqMask, _ := Pad(d.eqMask[lo:hi], d.cfg.Pad, d.cfg.AlignRight[EqMask])
	var tgt [][]int64
	if d.tgt != nil {
		tgt, _ = Pad(d.tgt[lo:hi], d.cfg.Pad, d.cfg.AlignRight[Target])
	}

	order := byLengthDesc(srcLens)

	b := &Batch{
		Indices: order,
		Device:  d.cfg.Device,
	}
	b.Source = d.stack(permute(src, order))
	b.SourceLengths = d.lengths(permute(srcLens, order), 1, len(order))
	b.Topic = d.stack(permute(topic, order))
	b.TopicLengths = d.lengths(permute(topicLens, order), len(order))
	b.EqMask = d.stack(permute(eqMask, order))
	if tgt != nil {
		b.Target = d.stack(permute(tgt, order))
	}
	return b, nil
}

// byLengthDesc returns row positions ordered by decreasing length. Equal
// lengths keep their original order.
func byLengthDesc(lengths []int) []int {
	order := make([]int, len(lengths))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return lengths[order[a]] > lengths[order[b]]
	})
	return order
}

func permute[T any](xs []T, order []int) []T {
	out := make([]T, len(order))
	for i, j := range order {
		out[i] = xs[j]
	}
	return out
}

// stack turns equal-width rows into a tensor in the configured layout.
func (d *Dataset) stack(rows [][]int64) *tensor.Dense {
	n, width := len(rows), len(rows[0])
	backing := make([]int64, n*width)
	for i, row := range rows {
		for j, v := range row {
			if d.cfg.BatchFirst {
				backing[i*width+j] = v
			} else {
				backing[j*n+i] = v
			}
		}
	}

	shape := []int{width, n}
	if d.cfg.BatchFirst {
		shape = []int{n, width}
	}
	return tensor.New(
		tensor.WithEngine(d.engine),
		tensor.WithShape(shape...),
		tensor.WithBacking(backing),
	)
}

func (d *Dataset) lengths(lens []int, shape ...int) *tensor.Dense {
	backing := make([]int64, len(lens))
	for i, l := range lens {
		backing[i] = int64(l)
	}
	return tensor.New(
		tensor.WithEngine(d.engine),
		tensor.WithShape(shape...),
		tensor.WithBacking(backing),
	)
}
