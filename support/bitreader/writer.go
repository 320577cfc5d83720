// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package bitreader

// W is the write-side counterpart of R. The decode pipeline itself never
// writes bits; W exists for tests and tooling that synthesize streams for R
// to consume.
//
// W uses the same LSB-first layout that R reads.
type W struct {
	buf []byte
	// n is the number of bits written so far.
	n uint64
}

// Bytes returns the accumulated buffer. Trailing unwritten bits of the last
// byte are zero.
func (w *W) Bytes() []byte { return w.buf }

// Len returns the number of bits written.
func (w *W) Len() uint64 { return w.n }

// WriteBit appends a single bit.
func (w *W) WriteBit(b bool) {
	if w.n&7 == 0 {
		w.buf = append(w.buf, 0)
	}
	if b {
		w.buf[w.n>>3] |= 1 << (w.n & 7)
	}
	w.n++
}

// WriteBits appends the low n bits of v, LSB-first.
func (w *W) WriteBits(v uint64, n uint) {
	for i := uint(0); i < n; i++ {
		w.WriteBit(v&(1<<i) != 0)
	}
}

// WriteByte appends 8 bits.
func (w *W) WriteByte(b byte) { w.WriteBits(uint64(b), 8) }

// WriteBytes appends p.
func (w *W) WriteBytes(p []byte) {
	for _, b := range p {
		w.WriteByte(b)
	}
}

// WriteVarUint64 appends a base-128 varint.
func (w *W) WriteVarUint64(v uint64) {
	for v >= 0x80 {
		w.WriteByte(byte(v) | 0x80)
		v >>= 7
	}
	w.WriteByte(byte(v))
}

// WriteVarInt64 appends a zigzag-encoded signed varint.
func (w *W) WriteVarInt64(v int64) {
	w.WriteVarUint64(uint64((v << 1) ^ (v >> 63)))
}

// WriteUBitVar appends v in the six-bit "ubit" coding read by ReadUBitVar.
func (w *W) WriteUBitVar(v uint32) {
	switch {
	case v < 0x10:
		w.WriteBits(uint64(v), 6)
	case v < 0x100:
		w.WriteBits(uint64(0x10|(v&15)), 6)
		w.WriteBits(uint64(v>>4), 4)
	case v < 0x1000:
		w.WriteBits(uint64(0x20|(v&15)), 6)
		w.WriteBits(uint64(v>>4), 8)
	default:
		w.WriteBits(uint64(0x30|(v&15)), 6)
		w.WriteBits(uint64(v>>4), 28)
	}
}

// WriteUBitVarFP appends v in the field-path coding read by ReadUBitVarFP.
func (w *W) WriteUBitVarFP(v int32) {
	u := uint64(uint32(v))
	switch {
	case u < 1<<2:
		w.WriteBit(true)
		w.WriteBits(u, 2)
	case u < 1<<4:
		w.WriteBit(false)
		w.WriteBit(true)
		w.WriteBits(u, 4)
	case u < 1<<10:
		w.WriteBit(false)
		w.WriteBit(false)
		w.WriteBit(true)
		w.WriteBits(u, 10)
	case u < 1<<17:
		w.WriteBit(false)
		w.WriteBit(false)
		w.WriteBit(false)
		w.WriteBit(true)
		w.WriteBits(u, 17)
	default:
		w.WriteBit(false)
		w.WriteBit(false)
		w.WriteBit(false)
		w.WriteBit(false)
		w.WriteBits(u, 31)
	}
}

// WriteString appends a null-terminated string.
func (w *W) WriteString(s string) {
	w.WriteBytes([]byte(s))
	w.WriteByte(0)
}
