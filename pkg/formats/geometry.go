package formats

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Faultbox/meshcodec/pkg/chunk"
	"github.com/Faultbox/meshcodec/pkg/mesh"
)

// flipVertexData byte-swaps every element of vertexCount interleaved
// vertices in place, each element at its own base type width.
func flipVertexData(data []byte, vertexCount, vertexSize int, elems []mesh.VertexElement) {
	for v := 0; v < vertexCount; v++ {
		base := v * vertexSize
		for _, el := range elems {
			width := el.Type.SwapWidth()
			size := el.Size()
			off := base + int(el.Offset)
			if width == 0 || off+size > len(data) {
				continue
			}
			chunk.FlipEndian(data[off:off+size], width, size/width)
		}
	}
}

func vertexBufferBytes(vd *mesh.VertexData, buf *mesh.VertexBuffer) int {
	return int(vd.VertexCount) * buf.VertexSize
}

func (e *encoder) calcGeometrySize(vd *mesh.VertexData) int {
	size := chunk.HeaderSize
	size += chunk.SizeUint32 // unsigned int vertexCount

	size += chunk.HeaderSize + len(vd.Declaration.Elements)*vertexElementSize
	for _, idx := range vd.BindIndices() {
		size += chunk.HeaderSize
		size += chunk.SizeUint16 // unsigned short bindIndex
		size += chunk.SizeUint16 // unsigned short vertexSize
		size += chunk.HeaderSize + vertexBufferBytes(vd, vd.Bindings[idx])
	}
	return size
}

func (e *encoder) writeGeometry(vd *mesh.VertexData) {
	e.w.WriteChunkHeader(chunkGeometry, uint32(e.calcGeometrySize(vd)))
	e.w.WriteUint32(vd.VertexCount)

	e.w.PushInnerChunk()
	elems := vd.Declaration.Elements
	e.w.WriteChunkHeader(chunkGeometryVertexDecl, uint32(chunk.HeaderSize+len(elems)*vertexElementSize))
	e.w.PushInnerChunk()
	for _, el := range elems {
		e.w.WriteChunkHeader(chunkGeometryVertexElement, vertexElementSize)
		e.w.WriteUint16(el.Source)
		e.w.WriteUint16(uint16(el.Type))
		e.w.WriteUint16(uint16(el.Semantic))
		e.w.WriteUint16(el.Offset)
		e.w.WriteUint16(el.Index)
	}
	e.w.PopInnerChunk()

	for _, idx := range vd.BindIndices() {
		buf := vd.Bindings[idx]
		n := vertexBufferBytes(vd, buf)
		e.w.WriteChunkHeader(chunkGeometryVertexBuffer, uint32(2*chunk.HeaderSize+2*chunk.SizeUint16+n))
		e.w.WriteUint16(idx)
		e.w.WriteUint16(uint16(buf.VertexSize))

		e.w.PushInnerChunk()
		e.w.WriteChunkHeader(chunkGeometryVertexBufferData, uint32(chunk.HeaderSize+n))
		data := buf.Data[:n]
		if e.w.Flip() {
			data = append([]byte(nil), data...)
			flipVertexData(data, int(vd.VertexCount), buf.VertexSize, vd.Declaration.ElementsBySource(idx))
		}
		e.w.WriteData(data)
		e.w.PopInnerChunk()
	}
	e.w.PopInnerChunk()
}

// readGeometry reads a GEOMETRY chunk body in the layout of the decoder's
// format. Packed ARGB colours are converted to ABGR afterwards.
func (d *decoder) readGeometry() (*mesh.VertexData, error) {
	var vd *mesh.VertexData
	var err error
	if d.f.rev.atLeast(rev1_3) {
		vd, err = d.readBufferedGeometry()
	} else {
		vd, err = d.readLegacyGeometry()
	}
	if err != nil {
		return nil, err
	}
	vd.ConvertPackedColour()
	return vd, nil
}

func (d *decoder) readBufferedGeometry() (*mesh.VertexData, error) {
	vd := mesh.NewVertexData()
	var err error
	if vd.VertexCount, err = d.r.ReadUint32(); err != nil {
		return nil, err
	}

	d.r.PushInnerChunk()
	for {
		h, ok, err := d.nextChild(chunkGeometryVertexDecl, chunkGeometryVertexBuffer)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		switch h.ID {
		case chunkGeometryVertexDecl:
			err = d.readVertexDeclaration(vd)
		case chunkGeometryVertexBuffer:
			err = d.readVertexBuffer(vd)
		}
		if err != nil {
			return nil, err
		}
	}
	if err := d.r.PopInnerChunk(); err != nil {
		return nil, err
	}
	return vd, nil
}

func (d *decoder) readVertexDeclaration(vd *mesh.VertexData) error {
	d.r.PushInnerChunk()
	for {
		_, ok, err := d.nextChild(chunkGeometryVertexElement)
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		if err := d.readVertexElement(vd); err != nil {
			return err
		}
	}
	return d.r.PopInnerChunk()
}

func (d *decoder) readVertexElement(vd *mesh.VertexData) error {
	const op = "readVertexElement"
	var f [5]uint16
	if err := d.r.ReadUint16s(f[:]); err != nil {
		return err
	}
	source, typ, sem, offset, index := f[0], mesh.VertexElementType(f[1]), mesh.VertexElementSemantic(f[2]), f[3], f[4]
	if !typ.Valid() {
		return chunk.Errorf(chunk.ErrCorruptData, op, "unknown vertex element type %d", f[1])
	}
	if typ == mesh.TypeColour {
		d.log.Warn("VET_COLOUR element type is deprecated, upgrade the mesh to store an explicit byte order",
			zap.String("mesh", d.m.Name))
	}
	vd.Declaration.AddElement(source, offset, typ, sem, index)
	return nil
}

func (d *decoder) readVertexBuffer(vd *mesh.VertexData) error {
	const op = "readVertexBuffer"
	bindIndex, err := d.r.ReadUint16()
	if err != nil {
		return err
	}
	vertexSize, err := d.r.ReadUint16()
	if err != nil {
		return err
	}

	d.r.PushInnerChunk()
	if _, err := d.expectChunk(chunkGeometryVertexBufferData, op); err != nil {
		return chunk.Errorf(chunk.ErrItemNotFound, op, "can't find vertex buffer data area in %s", d.m.Name)
	}
	if want := vd.Declaration.VertexSize(bindIndex); int(vertexSize) != want {
		return chunk.Errorf(chunk.ErrInternal, op,
			"buffer vertex size %d does not agree with vertex declaration size %d for source %d",
			vertexSize, want, bindIndex)
	}

	n := int64(vertexSize) * int64(vd.VertexCount)
	if n > d.r.Size()-d.r.Offset() {
		return chunk.Errorf(chunk.ErrCorruptData, op, "vertex buffer of %d bytes exceeds the remaining stream", n)
	}
	buf, err := d.opts.Buffers.CreateVertexBuffer(int(vertexSize), int(vd.VertexCount), d.m.VertexBufferUsage, d.m.VertexShadow)
	if err != nil {
		return errors.Wrapf(err, "%s: allocate vertex buffer", op)
	}
	data, err := d.r.ReadData(int(n))
	if err != nil {
		return err
	}
	copy(buf.Data, data)
	if d.r.Flip() {
		flipVertexData(buf.Data, int(vd.VertexCount), int(vertexSize), vd.Declaration.ElementsBySource(bindIndex))
	}
	vd.SetBinding(bindIndex, buf)
	return d.r.PopInnerChunk()
}
