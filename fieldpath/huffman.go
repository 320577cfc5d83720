// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package fieldpath

import (
	"container/heap"

	"github.com/hax0r31337/demoinfocs2-lite/support/bitreader"
)

// opFn applies one navigation operation to the in-progress path, reading any
// operand bits it needs from r.
type opFn func(r *bitreader.R, p *pathState) error

type pathOp struct {
	name   string
	weight uint32
	fn     opFn
}

// The 40 path operations with their fixed encoder weights. Order, weights,
// and operand codings are a protocol constant; changing any of them moves
// every Huffman code.
var pathOps = [40]pathOp{
	{"PlusOne", 36271, func(_ *bitreader.R, p *pathState) error {
		p.idx[p.last]++
		return nil
	}},
	{"PlusTwo", 10334, func(_ *bitreader.R, p *pathState) error {
		p.idx[p.last] += 2
		return nil
	}},
	{"PlusThree", 1375, func(_ *bitreader.R, p *pathState) error {
		p.idx[p.last] += 3
		return nil
	}},
	{"PlusFour", 646, func(_ *bitreader.R, p *pathState) error {
		p.idx[p.last] += 4
		return nil
	}},
	{"PlusN", 4128, func(r *bitreader.R, p *pathState) error {
		n, err := r.ReadUBitVarFP()
		if err != nil {
			return err
		}
		p.idx[p.last] += n + 5
		return nil
	}},
	{"PushOneLeftDeltaZeroRightZero", 35, func(_ *bitreader.R, p *pathState) error {
		return p.push(0)
	}},
	{"PushOneLeftDeltaZeroRightNonZero", 3, func(r *bitreader.R, p *pathState) error {
		v, err := r.ReadUBitVarFP()
		if err != nil {
			return err
		}
		return p.push(v)
	}},
	{"PushOneLeftDeltaOneRightZero", 521, func(_ *bitreader.R, p *pathState) error {
		p.idx[p.last]++
		return p.push(0)
	}},
	{"PushOneLeftDeltaOneRightNonZero", 2942, func(r *bitreader.R, p *pathState) error {
		p.idx[p.last]++
		v, err := r.ReadUBitVarFP()
		if err != nil {
			return err
		}
		return p.push(v)
	}},
	{"PushOneLeftDeltaNRightZero", 560, func(r *bitreader.R, p *pathState) error {
		n, err := r.ReadUBitVarFP()
		if err != nil {
			return err
		}
		p.idx[p.last] += n
		return p.push(0)
	}},
	{"PushOneLeftDeltaNRightNonZero", 471, func(r *bitreader.R, p *pathState) error {
		n, err := r.ReadUBitVarFP()
		if err != nil {
			return err
		}
		p.idx[p.last] += n + 2
		v, err := r.ReadUBitVarFP()
		if err != nil {
			return err
		}
		return p.push(v + 1)
	}},
	{"PushOneLeftDeltaNRightNonZeroPack6Bits", 10530, func(r *bitreader.R, p *pathState) error {
		n, err := r.ReadBits(3)
		if err != nil {
			return err
		}
		p.idx[p.last] += int32(n) + 2
		v, err := r.ReadBits(3)
		if err != nil {
			return err
		}
		return p.push(int32(v) + 1)
	}},
	{"PushOneLeftDeltaNRightNonZeroPack8Bits", 251, func(r *bitreader.R, p *pathState) error {
		n, err := r.ReadBits(4)
		if err != nil {
			return err
		}
		p.idx[p.last] += int32(n) + 2
		v, err := r.ReadBits(4)
		if err != nil {
			return err
		}
		return p.push(int32(v) + 1)
	}},
	{"PushTwoLeftDeltaZero", 0, func(r *bitreader.R, p *pathState) error {
		return p.pushFP(r, 2)
	}},
	{"PushTwoPack5LeftDeltaZero", 0, func(r *bitreader.R, p *pathState) error {
		return p.pushPack5(r, 2)
	}},
	{"PushThreeLeftDeltaZero", 0, func(r *bitreader.R, p *pathState) error {
		return p.pushFP(r, 3)
	}},
	{"PushThreePack5LeftDeltaZero", 0, func(r *bitreader.R, p *pathState) error {
		return p.pushPack5(r, 3)
	}},
	{"PushTwoLeftDeltaOne", 0, func(r *bitreader.R, p *pathState) error {
		p.idx[p.last]++
		return p.pushFP(r, 2)
	}},
	{"PushTwoPack5LeftDeltaOne", 0, func(r *bitreader.R, p *pathState) error {
		p.idx[p.last]++
		return p.pushPack5(r, 2)
	}},
	{"PushThreeLeftDeltaOne", 0, func(r *bitreader.R, p *pathState) error {
		p.idx[p.last]++
		return p.pushFP(r, 3)
	}},
	{"PushThreePack5LeftDeltaOne", 0, func(r *bitreader.R, p *pathState) error {
		p.idx[p.last]++
		return p.pushPack5(r, 3)
	}},
	{"PushTwoLeftDeltaN", 0, func(r *bitreader.R, p *pathState) error {
		if err := p.advanceUBit(r); err != nil {
			return err
		}
		return p.pushFP(r, 2)
	}},
	{"PushTwoPack5LeftDeltaN", 0, func(r *bitreader.R, p *pathState) error {
		if err := p.advanceUBit(r); err != nil {
			return err
		}
		return p.pushPack5(r, 2)
	}},
	{"PushThreeLeftDeltaN", 0, func(r *bitreader.R, p *pathState) error {
		if err := p.advanceUBit(r); err != nil {
			return err
		}
		return p.pushFP(r, 3)
	}},
	{"PushThreePack5LeftDeltaN", 0, func(r *bitreader.R, p *pathState) error {
		if err := p.advanceUBit(r); err != nil {
			return err
		}
		return p.pushPack5(r, 3)
	}},
	{"PushN", 0, func(r *bitreader.R, p *pathState) error {
		n, err := r.ReadUBitVar()
		if err != nil {
			return err
		}
		d, err := r.ReadUBitVar()
		if err != nil {
			return err
		}
		p.idx[p.last] += int32(d)
		return p.pushFP(r, int(n))
	}},
	{"PushNAndNonTopological", 310, func(r *bitreader.R, p *pathState) error {
		if err := p.offsetEach(r, offsetVarintPlusOne); err != nil {
			return err
		}
		n, err := r.ReadUBitVar()
		if err != nil {
			return err
		}
		return p.pushFP(r, int(n))
	}},
	{"PopOnePlusOne", 2, func(_ *bitreader.R, p *pathState) error {
		if err := p.pop(1); err != nil {
			return err
		}
		p.idx[p.last]++
		return nil
	}},
	{"PopOnePlusN", 0, func(r *bitreader.R, p *pathState) error {
		if err := p.pop(1); err != nil {
			return err
		}
		n, err := r.ReadUBitVarFP()
		if err != nil {
			return err
		}
		p.idx[p.last] += n + 1
		return nil
	}},
	{"PopAllButOnePlusOne", 1837, func(_ *bitreader.R, p *pathState) error {
		if err := p.pop(int(p.last)); err != nil {
			return err
		}
		p.idx[0]++
		return nil
	}},
	{"PopAllButOnePlusN", 149, func(r *bitreader.R, p *pathState) error {
		if err := p.pop(int(p.last)); err != nil {
			return err
		}
		n, err := r.ReadUBitVarFP()
		if err != nil {
			return err
		}
		p.idx[0] += n + 1
		return nil
	}},
	{"PopAllButOnePlusNPack3Bits", 300, func(r *bitreader.R, p *pathState) error {
		if err := p.pop(int(p.last)); err != nil {
			return err
		}
		n, err := r.ReadBits(3)
		if err != nil {
			return err
		}
		p.idx[0] += int32(n) + 1
		return nil
	}},
	{"PopAllButOnePlusNPack6Bits", 634, func(r *bitreader.R, p *pathState) error {
		if err := p.pop(int(p.last)); err != nil {
			return err
		}
		n, err := r.ReadBits(6)
		if err != nil {
			return err
		}
		p.idx[0] += int32(n) + 1
		return nil
	}},
	{"PopNPlusOne", 0, func(r *bitreader.R, p *pathState) error {
		n, err := r.ReadUBitVarFP()
		if err != nil {
			return err
		}
		if err := p.pop(int(n)); err != nil {
			return err
		}
		p.idx[p.last]++
		return nil
	}},
	{"PopNPlusN", 0, func(r *bitreader.R, p *pathState) error {
		n, err := r.ReadUBitVarFP()
		if err != nil {
			return err
		}
		if err := p.pop(int(n)); err != nil {
			return err
		}
		d, err := r.ReadVarInt32()
		if err != nil {
			return err
		}
		p.idx[p.last] += d
		return nil
	}},
	{"PopNAndNonTopographical", 1, func(r *bitreader.R, p *pathState) error {
		n, err := r.ReadUBitVarFP()
		if err != nil {
			return err
		}
		if err := p.pop(int(n)); err != nil {
			return err
		}
		return p.offsetEach(r, offsetVarint)
	}},
	{"NonTopoComplex", 76, func(r *bitreader.R, p *pathState) error {
		return p.offsetEach(r, offsetVarint)
	}},
	{"NonTopoPenultimatePlusOne", 271, func(_ *bitreader.R, p *pathState) error {
		if p.last > 0 {
			p.idx[p.last-1]++
		}
		return nil
	}},
	{"NonTopoComplexPack4Bits", 99, func(r *bitreader.R, p *pathState) error {
		return p.offsetEach(r, offsetPack4)
	}},
	{"FieldPathEncodeFinish", 25474, func(_ *bitreader.R, p *pathState) error {
		p.done = true
		return nil
	}},
}

// pushFP pushes n levels, each index read in the field-path coding.
func (p *pathState) pushFP(r *bitreader.R, n int) error {
	for i := 0; i < n; i++ {
		v, err := r.ReadUBitVarFP()
		if err != nil {
			return err
		}
		if err := p.push(v); err != nil {
			return err
		}
	}
	return nil
}

// pushPack5 pushes n levels, each index a packed 5-bit field.
func (p *pathState) pushPack5(r *bitreader.R, n int) error {
	for i := 0; i < n; i++ {
		v, err := r.ReadBits(5)
		if err != nil {
			return err
		}
		if err := p.push(int32(v)); err != nil {
			return err
		}
	}
	return nil
}

// advanceUBit adds a ubit-coded delta plus 2 to the current level.
func (p *pathState) advanceUBit(r *bitreader.R) error {
	d, err := r.ReadUBitVar()
	if err != nil {
		return err
	}
	p.idx[p.last] += int32(d) + 2
	return nil
}

type offsetKind int

const (
	// zigzag varint delta.
	offsetVarint offsetKind = iota
	// zigzag varint delta plus one.
	offsetVarintPlusOne
	// 4-bit field biased by -7.
	offsetPack4
)

// offsetEach applies a per-level optional delta: one presence bit per level,
// followed by the delta in the given coding when set.
func (p *pathState) offsetEach(r *bitreader.R, kind offsetKind) error {
	for i := int8(0); i <= p.last; i++ {
		present, err := r.ReadBit()
		if err != nil {
			return err
		}
		if !present {
			continue
		}

		var d int32
		switch kind {
		case offsetPack4:
			v, err := r.ReadBits(4)
			if err != nil {
				return err
			}
			d = int32(v) - 7
		default:
			v, err := r.ReadVarInt32()
			if err != nil {
				return err
			}
			d = v
			if kind == offsetVarintPlusOne {
				d++
			}
		}
		p.idx[i] += d
	}
	return nil
}

type huffmanNode struct {
	weight uint32
	value  int32
	op     *pathOp
	left   *huffmanNode
	right  *huffmanNode
}

// nodeHeap pops the lowest weight first; ties go to the higher value. This
// ordering reproduces the encoder's tree construction exactly, so the
// resulting codes match the wire format bit-for-bit.
type nodeHeap []*huffmanNode

func (h nodeHeap) Len() int { return len(h) }
func (h nodeHeap) Less(i, j int) bool {
	if h[i].weight != h[j].weight {
		return h[i].weight < h[j].weight
	}
	return h[i].value > h[j].value
}
func (h nodeHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *nodeHeap) Push(x interface{}) { *h = append(*h, x.(*huffmanNode)) }
func (h *nodeHeap) Pop() interface{} {
	old := *h
	n := len(old) - 1
	x := old[n]
	old[n] = nil
	*h = old[:n]
	return x
}

var huffmanRoot = buildHuffman()

func buildHuffman() *huffmanNode {
	h := make(nodeHeap, 0, len(pathOps))
	for i := range pathOps {
		w := pathOps[i].weight
		if w == 0 {
			w = 1
		}
		h = append(h, &huffmanNode{weight: w, value: int32(i), op: &pathOps[i]})
	}
	heap.Init(&h)

	next := int32(len(pathOps))
	for h.Len() > 1 {
		a := heap.Pop(&h).(*huffmanNode)
		b := heap.Pop(&h).(*huffmanNode)
		heap.Push(&h, &huffmanNode{
			weight: a.weight + b.weight,
			value:  next,
			left:   a,
			right:  b,
		})
		next++
	}
	return heap.Pop(&h).(*huffmanNode)
}

// Codebook returns the operation-name-to-code mapping of the live tree,
// codes written as "0"/"1" strings in read order (0 = left, 1 = right).
// It exists for diagnostics and tests; the decoder walks the tree directly.
func Codebook() map[string]string {
	book := make(map[string]string, len(pathOps))
	var walk func(n *huffmanNode, code string)
	walk = func(n *huffmanNode, code string) {
		if n == nil {
			return
		}
		if n.op != nil {
			book[n.op.name] = code
			return
		}
		walk(n.left, code+"0")
		walk(n.right, code+"1")
	}
	walk(huffmanRoot, "")
	return book
}
