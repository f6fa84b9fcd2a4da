package chunk

import (
	"encoding/binary"
	"io"
	"math"

	"github.com/pkg/errors"
)

// Header is a decoded chunk header. Offset is the stream position of the
// header's first byte; Length includes the header itself.
type Header struct {
	ID     uint16
	Length uint32
	Offset int64
}

// End returns the stream offset just past the chunk.
func (h Header) End() int64 {
	return h.Offset + int64(h.Length)
}

// PayloadLen returns the chunk length without its header.
func (h Header) PayloadLen() int64 {
	return int64(h.Length) - HeaderSize
}

// Reader decodes a chunk stream from an io.ReadSeeker.
//
// A Reader offers one chunk of lookahead: PeekChunkID buffers the next
// header, and Backpedal returns the most recently read header to that
// buffer so the enclosing loop reads it again as its own next chunk.
// A Reader is not safe for concurrent use.
type Reader struct {
	rs    io.ReadSeeker
	order binary.ByteOrder
	flip  bool

	base int64 // stream offset where the reader started
	size int64 // stream length relative to base
	pos  int64 // bytes consumed relative to base

	last   Header
	peeked bool

	stack sizeStack
	buf   [8]byte
}

// NewReader creates a Reader positioned at the current offset of rs.
// Offsets reported by the reader are relative to that position.
func NewReader(rs io.ReadSeeker) (*Reader, error) {
	base, err := rs.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, errors.Wrap(err, "chunk: locate stream start")
	}
	end, err := rs.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, errors.Wrap(err, "chunk: locate stream end")
	}
	if _, err := rs.Seek(base, io.SeekStart); err != nil {
		return nil, errors.Wrap(err, "chunk: rewind stream")
	}
	return &Reader{
		rs:    rs,
		order: HostEndian().ByteOrder(),
		base:  base,
		size:  end - base,
		stack: sizeStack{enabled: ValidateByDefault},
	}, nil
}

// EnableValidation turns inner-chunk size validation on or off.
func (r *Reader) EnableValidation(on bool) {
	r.stack.enabled = on
	r.stack.offsets = r.stack.offsets[:0]
}

// SetEndian forces the byte order used for scalar reads.
func (r *Reader) SetEndian(e Endian) {
	r.order = e.ByteOrder()
	r.flip = e.Resolve() != HostEndian()
}

// ByteOrder returns the byte order scalars are decoded with.
func (r *Reader) ByteOrder() binary.ByteOrder {
	return r.order
}

// Endian returns the resolved byte order of the stream.
func (r *Reader) Endian() Endian {
	if r.order == binary.BigEndian {
		return EndianBig
	}
	return EndianLittle
}

// Flip reports whether the stream's byte order differs from the host's.
// Raw buffers returned by ReadData must be swapped by the caller when set.
func (r *Reader) Flip() bool {
	return r.flip
}

// DetermineEndianness inspects the leading u16 marker without consuming it.
// The marker must read as want in one of the two byte orders.
func (r *Reader) DetermineEndianness(want uint16) error {
	const op = "DetermineEndianness"
	if err := r.settle(); err != nil {
		return err
	}
	if r.remaining() < SizeUint16 {
		return Errorf(ErrCorruptData, op, "stream too short for header marker")
	}
	var b [2]byte
	if _, err := io.ReadFull(r.rs, b[:]); err != nil {
		return r.ioError(err, op)
	}
	if _, err := r.rs.Seek(-2, io.SeekCurrent); err != nil {
		return errors.Wrapf(err, "%s: rewind", op)
	}
	switch {
	case binary.LittleEndian.Uint16(b[:]) == want:
		r.SetEndian(EndianLittle)
	case binary.BigEndian.Uint16(b[:]) == want:
		r.SetEndian(EndianBig)
	default:
		return Errorf(ErrInvalidParameters, op, "header chunk marker 0x%02X%02X not recognised", b[0], b[1])
	}
	return nil
}

// Offset returns the logical read position relative to the reader's start.
// A buffered lookahead header is not counted as consumed.
func (r *Reader) Offset() int64 {
	if r.peeked {
		return r.pos - HeaderSize
	}
	return r.pos
}

// Size returns the stream length relative to the reader's start.
func (r *Reader) Size() int64 {
	return r.size
}

// EOF reports whether no bytes remain.
func (r *Reader) EOF() bool {
	return r.Offset() >= r.size
}

// Seek moves to an absolute offset relative to the reader's start and drops
// any buffered lookahead.
func (r *Reader) Seek(off int64) error {
	if off < 0 || off > r.size {
		return Errorf(ErrInvalidParameters, "Seek", "offset %d outside stream of %d bytes", off, r.size)
	}
	if _, err := r.rs.Seek(r.base+off, io.SeekStart); err != nil {
		return errors.Wrapf(err, "Seek: offset %d", off)
	}
	r.pos = off
	r.peeked = false
	return nil
}

func (r *Reader) remaining() int64 {
	return r.size - r.pos
}

// settle returns a buffered lookahead header to the stream so raw reads see it.
func (r *Reader) settle() error {
	if !r.peeked {
		return nil
	}
	if _, err := r.rs.Seek(-HeaderSize, io.SeekCurrent); err != nil {
		return errors.Wrap(err, "chunk: return lookahead header")
	}
	r.pos -= HeaderSize
	r.peeked = false
	return nil
}

func (r *Reader) ioError(err error, op string) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return Errorf(ErrCorruptData, op, "unexpected end of stream at offset %d", r.pos)
	}
	return errors.Wrapf(err, "%s: offset %d", op, r.pos)
}

func (r *Reader) fill(p []byte, op string) error {
	if err := r.settle(); err != nil {
		return err
	}
	if int64(len(p)) > r.remaining() {
		return Errorf(ErrCorruptData, op, "need %d bytes at offset %d, %d remain", len(p), r.pos, r.remaining())
	}
	n, err := io.ReadFull(r.rs, p)
	r.pos += int64(n)
	if err != nil {
		return r.ioError(err, op)
	}
	return nil
}

func (r *Reader) readHeader() (Header, error) {
	const op = "ReadChunk"
	h := Header{Offset: r.pos}
	switch rem := r.remaining(); {
	case rem <= 0:
		return h, io.EOF
	case rem < HeaderSize:
		return h, Errorf(ErrCorruptData, op, "truncated chunk header at offset %d", r.pos)
	}
	b := r.buf[:HeaderSize]
	n, err := io.ReadFull(r.rs, b)
	r.pos += int64(n)
	if err != nil {
		return h, r.ioError(err, op)
	}
	h.ID = r.order.Uint16(b[0:2])
	h.Length = r.order.Uint32(b[2:6])
	if h.Length < HeaderSize {
		return h, Errorf(ErrCorruptData, op, "chunk 0x%04X at offset %d declares length %d", h.ID, h.Offset, h.Length)
	}
	return h, nil
}

// ReadChunk reads the next chunk header, or returns a header buffered by
// PeekChunkID or Backpedal. It returns io.EOF when the stream is exhausted.
func (r *Reader) ReadChunk() (Header, error) {
	var h Header
	if r.peeked {
		h = r.last
		r.peeked = false
	} else {
		var err error
		if h, err = r.readHeader(); err != nil {
			return h, err
		}
	}
	if err := r.stack.header(h.ID, h.Offset, h.Length, "ReadChunk"); err != nil {
		return h, err
	}
	r.last = h
	return h, nil
}

// PeekChunkID returns the next chunk's ID without consuming its header.
func (r *Reader) PeekChunkID() (uint16, error) {
	if r.peeked {
		return r.last.ID, nil
	}
	h, err := r.readHeader()
	if err != nil {
		return 0, err
	}
	r.last = h
	r.peeked = true
	return h.ID, nil
}

// Backpedal un-reads the most recently read chunk header. The next
// ReadChunk or PeekChunkID returns it again.
func (r *Reader) Backpedal() {
	if r.peeked {
		return
	}
	r.peeked = true
	r.stack.rewind(r.last.Offset)
}

// SkipChunk moves past the remainder of h.
func (r *Reader) SkipChunk(h Header) error {
	end := h.End()
	if end > r.size {
		end = r.size
	}
	return r.Seek(end)
}

// Depth returns the number of open validation levels.
func (r *Reader) Depth() int {
	return len(r.stack.offsets)
}

// AbandonChunk discards a partially read chunk h: validation levels opened
// inside it are dropped back to depth and the stream moves past h.
func (r *Reader) AbandonChunk(h Header, depth int) error {
	if depth < len(r.stack.offsets) {
		r.stack.offsets = r.stack.offsets[:depth]
	}
	return r.SkipChunk(h)
}

// PushInnerChunk opens a nesting level for size validation.
func (r *Reader) PushInnerChunk() {
	r.stack.push(r.Offset())
}

// PopInnerChunk closes a nesting level, failing with ErrCorruptData when the
// inner chunks did not end where the last one declared.
func (r *Reader) PopInnerChunk() error {
	return r.stack.pop(r.Offset(), "PopInnerChunk")
}

// ReadData reads n raw bytes. No byte swapping is applied.
func (r *Reader) ReadData(n int) ([]byte, error) {
	if n < 0 {
		return nil, Errorf(ErrCorruptData, "ReadData", "negative length %d", n)
	}
	p := make([]byte, n)
	if err := r.fill(p, "ReadData"); err != nil {
		return nil, err
	}
	return p, nil
}

// ReadBool reads a single byte boolean.
func (r *Reader) ReadBool() (bool, error) {
	b := r.buf[:1]
	if err := r.fill(b, "ReadBool"); err != nil {
		return false, err
	}
	return b[0] != 0, nil
}

// ReadUint16 reads a u16.
func (r *Reader) ReadUint16() (uint16, error) {
	b := r.buf[:2]
	if err := r.fill(b, "ReadUint16"); err != nil {
		return 0, err
	}
	return r.order.Uint16(b), nil
}

// ReadUint32 reads a u32.
func (r *Reader) ReadUint32() (uint32, error) {
	b := r.buf[:4]
	if err := r.fill(b, "ReadUint32"); err != nil {
		return 0, err
	}
	return r.order.Uint32(b), nil
}

// ReadInt32 reads an i32.
func (r *Reader) ReadInt32() (int32, error) {
	v, err := r.ReadUint32()
	return int32(v), err
}

// ReadFloat32 reads an f32.
func (r *Reader) ReadFloat32() (float32, error) {
	v, err := r.ReadUint32()
	return math.Float32frombits(v), err
}

// ReadUint16s fills dst.
func (r *Reader) ReadUint16s(dst []uint16) error {
	p, err := r.readArray(len(dst), SizeUint16, "ReadUint16s")
	if err != nil {
		return err
	}
	for i := range dst {
		dst[i] = r.order.Uint16(p[i*2:])
	}
	return nil
}

// ReadUint32s fills dst.
func (r *Reader) ReadUint32s(dst []uint32) error {
	p, err := r.readArray(len(dst), SizeUint32, "ReadUint32s")
	if err != nil {
		return err
	}
	for i := range dst {
		dst[i] = r.order.Uint32(p[i*4:])
	}
	return nil
}

// ReadFloat32s fills dst.
func (r *Reader) ReadFloat32s(dst []float32) error {
	p, err := r.readArray(len(dst), SizeFloat32, "ReadFloat32s")
	if err != nil {
		return err
	}
	for i := range dst {
		dst[i] = math.Float32frombits(r.order.Uint32(p[i*4:]))
	}
	return nil
}

// ReadBools fills dst.
func (r *Reader) ReadBools(dst []bool) error {
	p, err := r.readArray(len(dst), SizeBool, "ReadBools")
	if err != nil {
		return err
	}
	for i := range dst {
		dst[i] = p[i] != 0
	}
	return nil
}

func (r *Reader) readArray(count, width int, op string) ([]byte, error) {
	if count == 0 {
		return nil, nil
	}
	if int64(count)*int64(width) > r.remaining() {
		return nil, Errorf(ErrCorruptData, op, "%d elements of %d bytes exceed the %d bytes remaining", count, width, r.remaining())
	}
	p := make([]byte, count*width)
	if err := r.fill(p, op); err != nil {
		return nil, err
	}
	return p, nil
}

// ReadString reads bytes up to a '\0' or '\n' terminator, consuming the
// terminator. Reaching the end of the stream also ends the string.
func (r *Reader) ReadString() (string, error) {
	if err := r.settle(); err != nil {
		return "", err
	}
	var out []byte
	b := r.buf[:1]
	for r.remaining() > 0 {
		if err := r.fill(b, "ReadString"); err != nil {
			return "", err
		}
		if b[0] == 0 || b[0] == '\n' {
			break
		}
		out = append(out, b[0])
	}
	return string(out), nil
}

// ReadFixedString reads exactly n bytes as a string, with no terminator scan.
func (r *Reader) ReadFixedString(n int) (string, error) {
	p, err := r.ReadData(n)
	if err != nil {
		return "", err
	}
	return string(p), nil
}
