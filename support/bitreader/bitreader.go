// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

// Package bitreader offers R, a slice-backed bit-level cursor.
//
// Demo payloads are LSB-first bitstreams: within each byte, the first bit
// read is the least significant one. R exposes the integer codings those
// streams use (fixed-width fields, LEB128-style varints, the six-bit "ubit"
// coding and its field-path variant) on top of a single bit cursor.
//
// R never substitutes values on malformed input; any read that would pass
// the end of the buffer fails with ErrTruncated and leaves the cursor where
// it was. R is not safe for concurrent use; each in-flight command buffer
// gets its own instance.
package bitreader

import (
	"github.com/pkg/errors"
)

// ErrTruncated is returned when a read would consume bits past the end of
// the underlying buffer.
var ErrTruncated = errors.New("bitreader: truncated read past end of buffer")

// The maximum varint width, in bytes, for a uint64 payload.
const maxVarintBytes = 10

// R is a bit-level reader positioned over an immutable byte slice.
//
// The zero value reads from an empty buffer. R can be copied to snapshot its
// current state.
type R struct {
	// Buffer is the backing buffer for this reader.
	Buffer []byte

	// pos is the reader's position within Buffer, in bits.
	pos uint64
}

// New returns an R positioned at the start of buf.
func New(buf []byte) *R { return &R{Buffer: buf} }

// Pos returns the current cursor position, in bits.
func (r *R) Pos() uint64 { return r.pos }

// BitsRemaining returns the number of unread bits.
func (r *R) BitsRemaining() uint64 {
	total := uint64(len(r.Buffer)) << 3
	if r.pos >= total {
		return 0
	}
	return total - r.pos
}

// ByteAligned reports whether the cursor sits on a byte boundary.
func (r *R) ByteAligned() bool { return r.pos&7 == 0 }

// Skip advances the cursor by n bits without decoding them.
func (r *R) Skip(n uint64) error {
	if r.BitsRemaining() < n {
		return ErrTruncated
	}
	r.pos += n
	return nil
}

// ReadBit reads a single bit.
func (r *R) ReadBit() (bool, error) {
	if r.pos >= uint64(len(r.Buffer))<<3 {
		return false, ErrTruncated
	}
	b := (r.Buffer[r.pos>>3] >> (r.pos & 7)) & 1
	r.pos++
	return b != 0, nil
}

// ReadBits reads n bits (n <= 64) as an unsigned integer, LSB-first.
func (r *R) ReadBits(n uint) (uint64, error) {
	if n > 64 {
		return 0, errors.Errorf("bitreader: invalid read width %d", n)
	}
	if r.BitsRemaining() < uint64(n) {
		return 0, ErrTruncated
	}

	var v uint64
	for read := uint(0); read < n; {
		byteIdx := r.pos >> 3
		bitOff := uint(r.pos & 7)

		take := 8 - bitOff
		if remaining := n - read; take > remaining {
			take = remaining
		}

		chunk := uint64(r.Buffer[byteIdx]>>bitOff) & ((1 << take) - 1)
		v |= chunk << read

		read += take
		r.pos += uint64(take)
	}
	return v, nil
}

// ReadByte reads 8 bits, using a direct slice access when byte-aligned.
func (r *R) ReadByte() (byte, error) {
	if r.ByteAligned() {
		idx := r.pos >> 3
		if idx >= uint64(len(r.Buffer)) {
			return 0, ErrTruncated
		}
		r.pos += 8
		return r.Buffer[idx], nil
	}

	v, err := r.ReadBits(8)
	return byte(v), err
}

// ReadBytes fills p with the next len(p) bytes.
func (r *R) ReadBytes(p []byte) error {
	if r.ByteAligned() {
		idx := r.pos >> 3
		if idx+uint64(len(p)) > uint64(len(r.Buffer)) {
			return ErrTruncated
		}
		copy(p, r.Buffer[idx:])
		r.pos += uint64(len(p)) << 3
		return nil
	}

	for i := range p {
		b, err := r.ReadByte()
		if err != nil {
			return err
		}
		p[i] = b
	}
	return nil
}

// ReadVarUint64 reads a base-128 varint of up to 64 bits.
func (r *R) ReadVarUint64() (uint64, error) {
	var v uint64
	var shift uint
	for i := 0; i < maxVarintBytes; i++ {
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		v |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			return v, nil
		}
		shift += 7
	}
	return 0, errors.New("bitreader: varint exceeds 10 bytes")
}

// ReadVarUint32 reads a base-128 varint truncated to 32 bits.
func (r *R) ReadVarUint32() (uint32, error) {
	v, err := r.ReadVarUint64()
	return uint32(v), err
}

// ReadVarInt64 reads a zigzag-encoded signed varint.
func (r *R) ReadVarInt64() (int64, error) {
	v, err := r.ReadVarUint64()
	if err != nil {
		return 0, err
	}
	if v&1 != 0 {
		return ^int64(v >> 1), nil
	}
	return int64(v >> 1), nil
}

// ReadVarInt32 reads a zigzag-encoded signed varint truncated to 32 bits.
func (r *R) ReadVarInt32() (int32, error) {
	v, err := r.ReadVarInt64()
	return int32(v), err
}

// SkipVarint consumes a varint without materializing its value.
func (r *R) SkipVarint() error {
	for i := 0; i < maxVarintBytes; i++ {
		b, err := r.ReadByte()
		if err != nil {
			return err
		}
		if b&0x80 == 0 {
			return nil
		}
	}
	return errors.New("bitreader: varint exceeds 10 bytes")
}

// ReadUBitVar reads the six-bit "ubit" coding: a 6-bit value whose top two
// bits select a 0/4/8/28-bit extension of the low four bits.
func (r *R) ReadUBitVar() (uint32, error) {
	v, err := r.ReadBits(6)
	if err != nil {
		return 0, err
	}

	var ext uint
	switch v & 0x30 {
	case 0x10:
		ext = 4
	case 0x20:
		ext = 8
	case 0x30:
		ext = 28
	default:
		return uint32(v), nil
	}

	more, err := r.ReadBits(ext)
	if err != nil {
		return 0, err
	}
	return uint32(v&15) | uint32(more<<4), nil
}

// ReadUBitVarFP reads the field-path variant of the ubit coding: a unary
// prefix selecting a 2/4/10/17/31-bit payload.
func (r *R) ReadUBitVarFP() (int32, error) {
	for _, width := range [...]uint{2, 4, 10, 17} {
		b, err := r.ReadBit()
		if err != nil {
			return 0, err
		}
		if b {
			v, err := r.ReadBits(width)
			return int32(v), err
		}
	}

	v, err := r.ReadBits(31)
	return int32(v), err
}

// ReadString reads a null-terminated string.
func (r *R) ReadString() (string, error) {
	var s []byte
	for {
		b, err := r.ReadByte()
		if err != nil {
			return "", err
		}
		if b == 0 {
			return string(s), nil
		}
		s = append(s, b)
	}
}

// SkipString consumes a null-terminated string without materializing it.
func (r *R) SkipString() error {
	for {
		b, err := r.ReadByte()
		if err != nil {
			return err
		}
		if b == 0 {
			return nil
		}
	}
}
