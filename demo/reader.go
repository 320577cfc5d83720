// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

// Package demo reads CS2 demo files: the fixed file header, the framed
// command stream, and the protobuf messages the frames embed. It owns the
// per-file parse session that routes those messages to the schema, entity,
// string-table, and game-event registries.
package demo

import (
	"bufio"
	"bytes"
	"io"

	"github.com/golang/snappy"
	"github.com/lunixbochs/struc"
	"github.com/pkg/errors"

	"github.com/hax0r31337/demoinfocs2-lite/support/bufferpool"
)

// Cmd is a demo command identifier.
type Cmd int32

// Demo commands, as the container numbers them.
const (
	CmdStop         Cmd = 0
	CmdFileHeader   Cmd = 1
	CmdFileInfo     Cmd = 2
	CmdSyncTick     Cmd = 3
	CmdSendTables   Cmd = 4
	CmdClassInfo    Cmd = 5
	CmdStringTables Cmd = 6
	CmdPacket       Cmd = 7
	CmdSignonPacket Cmd = 8
	CmdConsoleCmd   Cmd = 9
	CmdCustomData   Cmd = 10
	CmdUserCmd      Cmd = 12
	CmdFullPacket   Cmd = 13

	// cmdCompressedFlag marks a snappy-compressed frame body.
	cmdCompressedFlag = 64
)

func (c Cmd) String() string {
	switch c {
	case CmdStop:
		return "Stop"
	case CmdFileHeader:
		return "FileHeader"
	case CmdFileInfo:
		return "FileInfo"
	case CmdSyncTick:
		return "SyncTick"
	case CmdSendTables:
		return "SendTables"
	case CmdClassInfo:
		return "ClassInfo"
	case CmdStringTables:
		return "StringTables"
	case CmdPacket:
		return "Packet"
	case CmdSignonPacket:
		return "SignonPacket"
	case CmdConsoleCmd:
		return "ConsoleCmd"
	case CmdCustomData:
		return "CustomData"
	case CmdUserCmd:
		return "UserCmd"
	case CmdFullPacket:
		return "FullPacket"
	default:
		return "Unknown"
	}
}

// demoMagic opens every CS2 demo file.
var demoMagic = [8]byte{'P', 'B', 'D', 'E', 'M', 'S', '2', 0}

// fileHeader is the fixed 16-byte prefix of the container: an 8-byte file
// stamp, a little-endian int32 offset to the summary frame, and 4 bytes of
// padding.
type fileHeader struct {
	Stamp          [8]byte
	FileInfoOffset int32 `struc:",little"`
	Padding        [4]byte
}

// frameBufferSize covers the vast majority of observed frames; larger ones
// fall back to one-off allocations.
const frameBufferSize = 256 * 1024

// Command is one decoded frame of the demo stream.
type Command struct {
	Cmd  Cmd
	Tick int32
	// Body is the frame payload, already decompressed. It is only valid
	// until Release; callers that retain it must copy.
	Body []byte

	buf *bufferpool.Buffer
}

// Release returns the command's buffer to the reader's pool. The zero
// Command releases safely.
func (c *Command) Release() {
	if c.buf != nil {
		c.buf.Release()
		c.buf = nil
	}
	c.Body = nil
}

// Reader demultiplexes the demo's framed command stream.
//
// Reader must be instantiated with NewReader, which consumes and validates
// the fixed file header.
type Reader struct {
	src io.Reader
	br  *bufio.Reader

	pool bufferpool.Pool

	// fileInfoOffset is the byte offset of the summary frame, from the
	// file header.
	fileInfoOffset int32

	// commands counts frames handed out, for error attribution.
	commands int64

	stopped bool
}

// NewReader validates the file header and prepares the frame stream.
func NewReader(src io.Reader) (*Reader, error) {
	r := &Reader{
		src:  src,
		pool: bufferpool.Pool{Size: frameBufferSize},
	}
	if err := r.start(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Reader) start() error {
	r.br = bufio.NewReader(r.src)
	r.commands = 0
	r.stopped = false

	var hdr fileHeader
	if err := struc.Unpack(r.br, &hdr); err != nil {
		return errors.Wrap(ErrCorruptFraming, "reading file header")
	}
	if !bytes.Equal(hdr.Stamp[:], demoMagic[:]) {
		return errors.Wrapf(ErrCorruptFraming, "bad magic %q", hdr.Stamp[:])
	}
	r.fileInfoOffset = hdr.FileInfoOffset
	return nil
}

// Reset rewinds the reader to the first frame. The source must be an
// io.Seeker.
func (r *Reader) Reset() error {
	s, ok := r.src.(io.Seeker)
	if !ok {
		return errors.New("demo: source does not support seeking")
	}
	if _, err := s.Seek(0, io.SeekStart); err != nil {
		return errors.Wrap(err, "demo: rewinding source")
	}
	return r.start()
}

// FileInfoOffset returns the byte offset of the summary frame recorded in
// the file header, or zero for demos cut before completion.
func (r *Reader) FileInfoOffset() int32 { return r.fileInfoOffset }

// Commands returns the number of frames read so far.
func (r *Reader) Commands() int64 { return r.commands }

// ReadCommand reads and decompresses the next frame. After the Stop frame
// has been returned, and at the end of a truncated stream, it returns
// io.EOF.
func (r *Reader) ReadCommand(c *Command) error {
	if r.stopped {
		return io.EOF
	}

	rawCmd, err := r.readVarint(true)
	if err != nil {
		return err
	}
	tick, err := r.readVarint(false)
	if err != nil {
		return err
	}
	size, err := r.readVarint(false)
	if err != nil {
		return err
	}

	compressed := rawCmd&cmdCompressedFlag != 0
	c.Cmd = Cmd(rawCmd &^ cmdCompressedFlag)
	c.Tick = int32(tick)

	body, err := r.readBody(c, int(size))
	if err != nil {
		return err
	}
	if compressed {
		if body, err = r.decompress(c, body); err != nil {
			return err
		}
	}
	c.Body = body

	r.commands++
	framesRead.Inc()
	frameBytes.Add(float64(size))
	if c.Cmd == CmdStop {
		r.stopped = true
	}
	return nil
}

// readVarint reads a frame-envelope varint. A clean EOF before the first
// byte of the frame's command is the end of the stream; anywhere else it is
// corrupt framing.
func (r *Reader) readVarint(atFrameStart bool) (uint64, error) {
	var v uint64
	var shift uint
	for {
		b, err := r.br.ReadByte()
		if err == io.EOF {
			if atFrameStart && shift == 0 {
				return 0, io.EOF
			}
			return 0, errors.Wrap(ErrCorruptFraming, "truncated frame envelope")
		}
		if err != nil {
			return 0, err
		}
		v |= uint64(b&0x7F) << shift
		if b&0x80 == 0 {
			return v, nil
		}
		if shift += 7; shift >= 64 {
			return 0, errors.Wrap(ErrCorruptFraming, "oversized frame varint")
		}
	}
}

func (r *Reader) readBody(c *Command, size int) ([]byte, error) {
	c.Release()

	var body []byte
	if size <= frameBufferSize {
		c.buf = r.pool.Get()
		body = c.buf.Bytes()[:size]
	} else {
		body = make([]byte, size)
	}
	if _, err := io.ReadFull(r.br, body); err != nil {
		c.Release()
		return nil, errors.Wrapf(ErrCorruptFraming, "frame body of %d bytes: %v", size, err)
	}
	return body, nil
}

// decompress inflates a compressed frame body, swapping the command's
// backing buffer when the output fits the pool size.
func (r *Reader) decompress(c *Command, body []byte) ([]byte, error) {
	n, err := snappy.DecodedLen(body)
	if err != nil {
		return nil, errors.Wrap(ErrCorruptFraming, "bad snappy header")
	}

	var dst []byte
	var dstBuf *bufferpool.Buffer
	if n <= frameBufferSize {
		dstBuf = r.pool.Get()
		dst = dstBuf.Bytes()[:n]
	} else {
		dst = make([]byte, n)
	}

	out, err := snappy.Decode(dst, body)
	if err != nil {
		if dstBuf != nil {
			dstBuf.Release()
		}
		return nil, errors.Wrap(ErrCorruptFraming, "decompressing frame body")
	}
	decompressedBytes.Add(float64(len(out)))

	c.Release()
	c.buf = dstBuf
	return out, nil
}
