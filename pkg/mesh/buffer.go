package mesh

import (
	"fmt"
)

// BufferUsage is a hint for how a buffer will be accessed once loaded.
type BufferUsage uint32

const (
	UsageStatic           BufferUsage = 1
	UsageDynamic          BufferUsage = 2
	UsageWriteOnly        BufferUsage = 4
	UsageDiscardable      BufferUsage = 8
	UsageStaticWriteOnly  BufferUsage = UsageStatic | UsageWriteOnly
	UsageDynamicWriteOnly BufferUsage = UsageDynamic | UsageWriteOnly
)

// VertexBuffer holds raw interleaved vertex data in host byte order.
type VertexBuffer struct {
	VertexSize  int
	NumVertices int
	Usage       BufferUsage
	Shadow      bool
	Data        []byte
}

// SizeInBytes returns the byte length the buffer was sized for.
func (b *VertexBuffer) SizeInBytes() int {
	return b.VertexSize * b.NumVertices
}

// IndexBuffer holds index data. 16-bit buffers keep their values widened to
// uint32 in memory and are narrowed again when written.
type IndexBuffer struct {
	Is32Bit bool
	Usage   BufferUsage
	Shadow  bool
	Indices []uint32
}

// IndexSize returns the on-wire size of one index.
func (b *IndexBuffer) IndexSize() int {
	if b.Is32Bit {
		return 4
	}
	return 2
}

// IndexData is a range of an index buffer. Several IndexData values may
// share one buffer; sharing is by pointer identity.
type IndexData struct {
	Start  uint32
	Count  uint32
	Buffer *IndexBuffer
}

// BufferManager allocates the buffers a mesh is loaded into.
type BufferManager interface {
	CreateVertexBuffer(vertexSize, numVertices int, usage BufferUsage, shadow bool) (*VertexBuffer, error)
	CreateIndexBuffer(is32Bit bool, numIndices int, usage BufferUsage, shadow bool) (*IndexBuffer, error)
}

// HeapBufferManager allocates buffers in ordinary Go memory.
type HeapBufferManager struct {
	// MaxBytes caps a single allocation when non-zero.
	MaxBytes int
}

// CreateVertexBuffer implements BufferManager.
func (m HeapBufferManager) CreateVertexBuffer(vertexSize, numVertices int, usage BufferUsage, shadow bool) (*VertexBuffer, error) {
	if vertexSize < 0 || numVertices < 0 {
		return nil, fmt.Errorf("invalid vertex buffer shape %d x %d", vertexSize, numVertices)
	}
	size := vertexSize * numVertices
	if m.MaxBytes > 0 && size > m.MaxBytes {
		return nil, fmt.Errorf("vertex buffer of %d bytes exceeds limit %d", size, m.MaxBytes)
	}
	return &VertexBuffer{
		VertexSize:  vertexSize,
		NumVertices: numVertices,
		Usage:       usage,
		Shadow:      shadow,
		Data:        make([]byte, size),
	}, nil
}

// CreateIndexBuffer implements BufferManager.
func (m HeapBufferManager) CreateIndexBuffer(is32Bit bool, numIndices int, usage BufferUsage, shadow bool) (*IndexBuffer, error) {
	if numIndices < 0 {
		return nil, fmt.Errorf("invalid index count %d", numIndices)
	}
	if m.MaxBytes > 0 && numIndices*4 > m.MaxBytes {
		return nil, fmt.Errorf("index buffer of %d indices exceeds limit %d bytes", numIndices, m.MaxBytes)
	}
	return &IndexBuffer{
		Is32Bit: is32Bit,
		Usage:   usage,
		Shadow:  shadow,
		Indices: make([]uint32, numIndices),
	}, nil
}
