package formats

import (
	"encoding/binary"

	"github.com/chewxy/math32"
	"github.com/pkg/errors"

	"github.com/Faultbox/meshcodec/pkg/chunk"
	"github.com/Faultbox/meshcodec/pkg/mesh"
)

// readLegacyGeometry reads the v1.20 and older geometry layout: a vertex
// count and positions, followed by one chunk per additional attribute.
// Every attribute gets a buffer of its own on the next free source.
func (d *decoder) readLegacyGeometry() (*mesh.VertexData, error) {
	vd := mesh.NewVertexData()
	var err error
	if vd.VertexCount, err = d.r.ReadUint32(); err != nil {
		return nil, err
	}

	var bindIdx uint16
	if err := d.readLegacyAttribute(vd, bindIdx, mesh.TypeFloat3, mesh.SemanticPosition, 0); err != nil {
		return nil, err
	}
	bindIdx++

	var texCoordSet uint16
	d.r.PushInnerChunk()
	for {
		h, ok, err := d.nextChild(chunkGeometryNormals, chunkGeometryColours, chunkGeometryTexCoords)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		switch h.ID {
		case chunkGeometryNormals:
			err = d.readLegacyAttribute(vd, bindIdx, mesh.TypeFloat3, mesh.SemanticNormal, 0)
		case chunkGeometryColours:
			err = d.readLegacyAttribute(vd, bindIdx, mesh.TypeColour, mesh.SemanticDiffuse, 0)
		case chunkGeometryTexCoords:
			err = d.readLegacyTexCoords(vd, bindIdx, texCoordSet)
			texCoordSet++
		}
		if err != nil {
			return nil, err
		}
		bindIdx++
	}
	if err := d.r.PopInnerChunk(); err != nil {
		return nil, err
	}
	return vd, nil
}

func (d *decoder) readLegacyTexCoords(vd *mesh.VertexData, bindIdx, set uint16) error {
	const op = "readLegacyTexCoords"
	dim, err := d.r.ReadUint16()
	if err != nil {
		return err
	}
	typ, ok := mesh.FloatType(int(dim))
	if !ok {
		return chunk.Errorf(chunk.ErrCorruptData, op, "texture coordinate set %d has %d dimensions", set, dim)
	}
	return d.readLegacyAttribute(vd, bindIdx, typ, mesh.SemanticTexCoords, set)
}

// readLegacyAttribute reads VertexCount values of typ into a new buffer
// bound to bindIdx and declares the element. Floats and packed colours are
// both read as 4 byte words and stored in host order.
func (d *decoder) readLegacyAttribute(vd *mesh.VertexData, bindIdx uint16, typ mesh.VertexElementType,
	sem mesh.VertexElementSemantic, index uint16) error {
	const op = "readLegacyAttribute"
	size := typ.Size()
	words := int64(vd.VertexCount) * int64(size/chunk.SizeUint32)
	if words*chunk.SizeUint32 > d.r.Size()-d.r.Offset() {
		return chunk.Errorf(chunk.ErrCorruptData, op, "%s data of %d vertices exceeds the remaining stream", sem, vd.VertexCount)
	}

	buf, err := d.opts.Buffers.CreateVertexBuffer(size, int(vd.VertexCount), d.m.VertexBufferUsage, d.m.VertexShadow)
	if err != nil {
		return errors.Wrapf(err, "%s: allocate %s buffer", op, sem)
	}
	if typ == mesh.TypeColour {
		values := make([]uint32, words)
		if err := d.r.ReadUint32s(values); err != nil {
			return err
		}
		for i, v := range values {
			binary.NativeEndian.PutUint32(buf.Data[i*4:], v)
		}
	} else {
		values := make([]float32, words)
		if err := d.r.ReadFloat32s(values); err != nil {
			return err
		}
		if sem == mesh.SemanticTexCoords && typ == mesh.TypeFloat2 && d.f.rev == rev1_1 {
			// v1.10 files store v with the origin at the bottom.
			for i := 1; i < len(values); i += 2 {
				values[i] = 1 - values[i]
			}
		}
		for i, v := range values {
			binary.NativeEndian.PutUint32(buf.Data[i*4:], math32.Float32bits(v))
		}
	}

	vd.Declaration.AddElement(bindIdx, 0, typ, sem, index)
	vd.SetBinding(bindIdx, buf)
	return nil
}
