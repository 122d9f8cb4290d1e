package dataset

import (
	"fmt"

	"gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// Batch is one padded, length-sorted minibatch. Token tensors are
// (length, batch) or (batch, length) depending on Config.BatchFirst.
type Batch struct {
	Source *tensor.Dense
	// SourceLengths has shape (1, batch).
	SourceLengths *tensor.Dense
	Topic         *tensor.Dense
	// TopicLengths has shape (batch).
	TopicLengths *tensor.Dense
	// Target is nil when the dataset has no target stream.
	Target *tensor.Dense
	EqMask *tensor.Dense
	// Indices[i] is the position, within the unsorted batch slice, of the
	// example in row i.
	Indices []int
	Device  Device
}

// Size returns the number of examples in the batch.
func (b *Batch) Size() int {
	return len(b.Indices)
}

// Inputs are the graph nodes holding one batch.
type Inputs struct {
	Source        *gorgonia.Node
	SourceLengths *gorgonia.Node
	Topic         *gorgonia.Node
	TopicLengths  *gorgonia.Node
	EqMask        *gorgonia.Node
	Target        *gorgonia.Node
}

// Nodes returns the bound nodes, skipping an absent target.
func (in *Inputs) Nodes() gorgonia.Nodes {
	nodes := gorgonia.Nodes{in.Source, in.SourceLengths, in.Topic, in.TopicLengths, in.EqMask}
	if in.Target != nil {
		nodes = append(nodes, in.Target)
	}
	return nodes
}

// Bind adds the batch tensors to g as input nodes carrying their values.
// Use a fresh graph per batch: gorgonia merges input nodes that share a
// name, type and shape.
func (b *Batch) Bind(g *gorgonia.ExprGraph) (in *Inputs, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("bind batch: %v", r)
		}
	}()

	in = &Inputs{
		Source:        input(g, Source.String(), b.Source),
		SourceLengths: input(g, "src_lengths", b.SourceLengths),
		Topic:         input(g, Topic.String(), b.Topic),
		TopicLengths:  input(g, "topic_lengths", b.TopicLengths),
		EqMask:        input(g, EqMask.String(), b.EqMask),
	}
	if b.Target != nil {
		in.Target = input(g, Target.String(), b.Target)
	}
	return in, nil
}

func input(g *gorgonia.ExprGraph, name string, t *tensor.Dense) *gorgonia.Node {
	return gorgonia.NewTensor(g, t.Dtype(), t.Dims(),
		gorgonia.WithShape(t.Shape()...),
		gorgonia.WithName(name),
		gorgonia.WithValue(t),
	)
}
