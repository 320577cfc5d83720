// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

// Package fieldpath decodes the Huffman-coded field-path section of an
// entity update.
//
// A field path addresses one leaf field within a class's nested serializer
// tree as a sequence of child indices, at most seven levels deep. Updates
// encode the set of changed paths as a stream of tree-navigation operations
// (advance sibling, push, pop, finish) compressed with a fixed Huffman
// codebook; the operation weights are a protocol constant and must match
// the encoder bit-for-bit.
//
// Paths are emitted in stream order, which is also the order the update's
// field values follow; consumers must preserve it.
package fieldpath

import (
	"github.com/pkg/errors"

	"github.com/hax0r31337/demoinfocs2-lite/support/bitreader"
)

// ErrCorruptFieldPath is returned when the operation stream walks outside
// the representable path space (depth overflow, pop below the root, or an
// exhausted bitstream mid-symbol). The entity update being decoded is
// indeterminate and must be discarded.
var ErrCorruptFieldPath = errors.New("fieldpath: corrupt field path stream")

// MaxDepth is the deepest path the protocol can express.
const MaxDepth = 7

// Path is the tree address of a single field: indices from the serializer
// root down to a leaf. Path is comparable and usable as a map key.
type Path struct {
	idx  [MaxDepth]int32
	last int8
}

// Depth returns the number of valid indices in p.
func (p Path) Depth() int { return int(p.last) + 1 }

// At returns the index at level i.
func (p Path) At(i int) int32 { return p.idx[i] }

// Slice returns the valid indices of p. The returned slice aliases p's
// storage and must not be retained past p's lifetime.
func (p *Path) Slice() []int32 { return p.idx[:p.last+1] }

// Prefix returns the path truncated to depth n.
func (p Path) Prefix(n int) Path {
	out := Path{last: int8(n - 1)}
	copy(out.idx[:n], p.idx[:n])
	return out
}

// HasPrefix reports whether q is a prefix of p.
func (p Path) HasPrefix(q Path) bool {
	if q.last > p.last {
		return false
	}
	for i := int8(0); i <= q.last; i++ {
		if p.idx[i] != q.idx[i] {
			return false
		}
	}
	return true
}

// Make builds a Path from explicit indices. It is intended for subscription
// setup and tests; the decoder builds paths internally.
func Make(indices ...int32) Path {
	if len(indices) == 0 || len(indices) > MaxDepth {
		panic("fieldpath: invalid path depth")
	}
	p := Path{last: int8(len(indices) - 1)}
	copy(p.idx[:], indices)
	return p
}

// decoder state for one update's path stream.
type pathState struct {
	Path
	done bool
}

func (p *pathState) push(v int32) error {
	if p.last >= MaxDepth-1 {
		return ErrCorruptFieldPath
	}
	p.last++
	p.idx[p.last] = v
	return nil
}

func (p *pathState) pop(n int) error {
	if n < 0 || int(p.last) < n {
		return ErrCorruptFieldPath
	}
	for i := int(p.last); i > int(p.last)-n; i-- {
		p.idx[i] = 0
	}
	p.last -= int8(n)
	return nil
}

// Read decodes one complete field-path section from r, appending each
// emitted path to *paths. The slice is reused across updates by callers to
// avoid churn; Read never truncates it.
func Read(r *bitreader.R, paths *[]Path) error {
	node := huffmanRoot
	st := pathState{}
	st.idx[0] = -1

	for !st.done {
		bit, err := r.ReadBit()
		if err != nil {
			return errors.Wrap(ErrCorruptFieldPath, err.Error())
		}

		if bit {
			node = node.right
		} else {
			node = node.left
		}
		if node == nil {
			return ErrCorruptFieldPath
		}
		if node.op == nil {
			continue
		}

		if err := node.op.fn(r, &st); err != nil {
			if errors.Cause(err) == bitreader.ErrTruncated {
				err = errors.Wrap(ErrCorruptFieldPath, err.Error())
			}
			return err
		}
		node = huffmanRoot

		if !st.done {
			*paths = append(*paths, st.Path)
		}
	}

	return nil
}
