package chunk

import (
	"encoding/binary"
	"io"
	"math"

	"github.com/pkg/errors"
)

// Writer encodes a chunk stream. It counts the bytes it emits and keeps the
// first error it hits; later calls become no-ops and Err reports it.
type Writer struct {
	w     io.Writer
	order binary.ByteOrder
	flip  bool
	n     int64
	err   error
	stack sizeStack
	buf   []byte
}

// NewWriter creates a Writer emitting scalars in the resolved byte order of e.
func NewWriter(w io.Writer, e Endian) *Writer {
	return &Writer{
		w:     w,
		order: e.ByteOrder(),
		flip:  e.Resolve() != HostEndian(),
		stack: sizeStack{enabled: ValidateByDefault},
	}
}

// EnableValidation turns inner-chunk size validation on or off.
func (w *Writer) EnableValidation(on bool) {
	w.stack.enabled = on
	w.stack.offsets = w.stack.offsets[:0]
}

// Flip reports whether the output byte order differs from the host's.
// Raw buffers passed to WriteData must be swapped by the caller when set.
func (w *Writer) Flip() bool {
	return w.flip
}

// ByteOrder returns the byte order scalars are encoded with.
func (w *Writer) ByteOrder() binary.ByteOrder {
	return w.order
}

// Offset returns the number of bytes written so far.
func (w *Writer) Offset() int64 {
	return w.n
}

// Err returns the first error encountered.
func (w *Writer) Err() error {
	return w.err
}

// Fail records err unless an earlier error is already recorded.
func (w *Writer) Fail(err error) {
	if w.err == nil {
		w.err = err
	}
}

func (w *Writer) write(p []byte) {
	if w.err != nil {
		return
	}
	n, err := w.w.Write(p)
	w.n += int64(n)
	if err != nil {
		w.err = errors.Wrapf(err, "chunk: write at offset %d", w.n)
	}
}

func (w *Writer) scratch(n int) []byte {
	if cap(w.buf) < n {
		w.buf = make([]byte, n)
	}
	return w.buf[:n]
}

// WriteChunkHeader emits {id, length}. length includes the header.
func (w *Writer) WriteChunkHeader(id uint16, length uint32) {
	if w.err != nil {
		return
	}
	if err := w.stack.header(id, w.n, length, "WriteChunkHeader"); err != nil {
		w.err = err
		return
	}
	b := w.scratch(HeaderSize)
	w.order.PutUint16(b[0:2], id)
	w.order.PutUint32(b[2:6], length)
	w.write(b)
}

// PushInnerChunk opens a nesting level for size validation.
func (w *Writer) PushInnerChunk() {
	w.stack.push(w.n)
}

// PopInnerChunk closes a nesting level. A mismatch between written bytes and
// the declared chunk lengths is recorded as ErrCorruptData.
func (w *Writer) PopInnerChunk() {
	if w.err != nil {
		return
	}
	if err := w.stack.pop(w.n, "PopInnerChunk"); err != nil {
		w.err = err
	}
}

// WriteData emits raw bytes without any byte swapping.
func (w *Writer) WriteData(p []byte) {
	w.write(p)
}

// WriteBool emits a single byte boolean.
func (w *Writer) WriteBool(v bool) {
	b := w.scratch(1)
	b[0] = 0
	if v {
		b[0] = 1
	}
	w.write(b)
}

// WriteUint16 emits a u16.
func (w *Writer) WriteUint16(v uint16) {
	b := w.scratch(2)
	w.order.PutUint16(b, v)
	w.write(b)
}

// WriteUint32 emits a u32.
func (w *Writer) WriteUint32(v uint32) {
	b := w.scratch(4)
	w.order.PutUint32(b, v)
	w.write(b)
}

// WriteInt32 emits an i32.
func (w *Writer) WriteInt32(v int32) {
	w.WriteUint32(uint32(v))
}

// WriteFloat32 emits an f32.
func (w *Writer) WriteFloat32(v float32) {
	w.WriteUint32(math.Float32bits(v))
}

// WriteUint16s emits a u16 array with no framing.
func (w *Writer) WriteUint16s(vs []uint16) {
	b := w.scratch(len(vs) * 2)
	for i, v := range vs {
		w.order.PutUint16(b[i*2:], v)
	}
	w.write(b)
}

// WriteUint32s emits a u32 array with no framing.
func (w *Writer) WriteUint32s(vs []uint32) {
	b := w.scratch(len(vs) * 4)
	for i, v := range vs {
		w.order.PutUint32(b[i*4:], v)
	}
	w.write(b)
}

// WriteFloat32s emits an f32 array with no framing.
func (w *Writer) WriteFloat32s(vs []float32) {
	b := w.scratch(len(vs) * 4)
	for i, v := range vs {
		w.order.PutUint32(b[i*4:], math.Float32bits(v))
	}
	w.write(b)
}

// WriteBools emits a bool array, one byte each.
func (w *Writer) WriteBools(vs []bool) {
	b := w.scratch(len(vs))
	for i, v := range vs {
		b[i] = 0
		if v {
			b[i] = 1
		}
	}
	w.write(b)
}

// WriteString emits s followed by a '\0' terminator.
func (w *Writer) WriteString(s string) {
	b := w.scratch(len(s) + 1)
	copy(b, s)
	b[len(s)] = 0
	w.write(b)
}
