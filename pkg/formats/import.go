package formats

import (
	"io"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Faultbox/meshcodec/pkg/chunk"
	"github.com/Faultbox/meshcodec/pkg/math"
	"github.com/Faultbox/meshcodec/pkg/mesh"
)

// decoder holds the state of one import call.
type decoder struct {
	r        *chunk.Reader
	m        *mesh.Mesh
	f        format
	opts     Options
	log      *zap.Logger
	listener Listener
}

func newDecoder(r *chunk.Reader, m *mesh.Mesh, f format, opts Options, listener Listener) *decoder {
	return &decoder{r: r, m: m, f: f, opts: opts, log: opts.Logger, listener: listener}
}

// nextChild reads the next chunk header and reports whether its ID is one
// of ids. Any other chunk is backpedalled for the enclosing loop; the end of
// the stream reports false with no error.
func (d *decoder) nextChild(ids ...uint16) (chunk.Header, bool, error) {
	h, err := d.r.ReadChunk()
	if errors.Is(err, io.EOF) {
		return h, false, nil
	}
	if err != nil {
		return h, false, err
	}
	for _, id := range ids {
		if h.ID == id {
			return h, true, nil
		}
	}
	d.r.Backpedal()
	return h, false, nil
}

// expectChunk reads the next chunk header and fails with ErrItemNotFound
// unless it has the given ID.
func (d *decoder) expectChunk(id uint16, op string) (chunk.Header, error) {
	h, err := d.r.ReadChunk()
	if errors.Is(err, io.EOF) {
		return h, chunk.Errorf(chunk.ErrItemNotFound, op, "missing %s chunk in %s", ChunkName(id), d.m.Name)
	}
	if err != nil {
		return h, err
	}
	if h.ID != id {
		return h, chunk.Errorf(chunk.ErrItemNotFound, op, "missing %s chunk in %s, found %s",
			ChunkName(id), d.m.Name, ChunkName(h.ID))
	}
	return h, nil
}

func (d *decoder) importMesh() error {
	d.log.Debug("importing mesh", zap.String("mesh", d.m.Name), zap.String("version", d.f.tag))
	if err := d.readFileHeader(); err != nil {
		return err
	}

	d.r.PushInnerChunk()
	for {
		h, err := d.r.ReadChunk()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		if h.ID != chunkMesh {
			d.log.Debug("skipping unknown chunk", zap.String("chunk", ChunkName(h.ID)), zap.Int64("offset", h.Offset))
			if err := d.r.SkipChunk(h); err != nil {
				return err
			}
			continue
		}
		if err := d.readMesh(); err != nil {
			return err
		}
	}
	if err := d.r.PopInnerChunk(); err != nil {
		return err
	}
	d.log.Debug("mesh imported", zap.String("mesh", d.m.Name), zap.Int("submeshes", len(d.m.SubMeshes)))
	return nil
}

func (d *decoder) readFileHeader() error {
	const op = "readFileHeader"
	id, err := d.r.ReadUint16()
	if err != nil {
		return err
	}
	if id != chunkHeader {
		return chunk.Errorf(chunk.ErrInternal, op, "invalid file: no header")
	}
	ver, err := d.r.ReadString()
	if err != nil {
		return err
	}
	if ver != d.f.tag {
		return chunk.Errorf(chunk.ErrInternal, op,
			"invalid file: version incompatible, file reports %s, serializer is %s", ver, d.f.tag)
	}
	return nil
}

// readMesh reads mesh level chunks until the end of the stream. Files
// written by some older exporters declare a short MESH length, so the
// declared length does not bound this loop.
func (d *decoder) readMesh() error {
	// bool skeletallyAnimated, implied by the skeleton link
	if _, err := d.r.ReadBool(); err != nil {
		return err
	}
	d.m.AutoBuildEdgeLists = !d.f.rev.atLeast(rev1_3)

	d.r.PushInnerChunk()
	for {
		h, err := d.r.ReadChunk()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		switch h.ID {
		case chunkGeometry:
			err = d.readSharedGeometry(h)
		case chunkSubMesh:
			err = d.readSubMesh()
		case chunkSkeletonLink:
			err = d.readSkeletonLink()
		case chunkMeshBoneAssignment:
			var ba mesh.BoneAssignment
			if ba, err = d.readBoneAssignment(); err == nil {
				d.m.BoneAssignments = append(d.m.BoneAssignments, ba)
			}
		case chunkMeshLod:
			err = d.readLodLevel()
		case chunkMeshBounds:
			err = d.readBoundsInfo()
		case chunkSubMeshNameTable:
			err = d.readSubMeshNameTable()
		case chunkEdgeLists:
			err = d.readEdgeList()
		case chunkPoses:
			err = d.readPoses()
		case chunkAnimations:
			err = d.readAnimations()
		case chunkTableExtremes:
			err = d.readExtremes(h)
		default:
			d.log.Debug("skipping unknown mesh chunk", zap.String("chunk", ChunkName(h.ID)), zap.Int64("offset", h.Offset))
			err = d.r.SkipChunk(h)
		}
		if err != nil {
			return err
		}
	}
	return d.r.PopInnerChunk()
}

// readSharedGeometry reads the mesh level geometry. A geometry chunk missing
// its buffers is dropped rather than failing the import.
func (d *decoder) readSharedGeometry(h chunk.Header) error {
	depth := d.r.Depth()
	vd, err := d.readGeometry()
	if chunk.IsKind(err, chunk.ErrItemNotFound) {
		d.log.Warn("shared geometry is incomplete, dropped",
			zap.String("mesh", d.m.Name), zap.Error(err))
		d.m.SharedVertexData = nil
		return d.r.AbandonChunk(h, depth)
	}
	if err != nil {
		return err
	}
	d.m.SharedVertexData = vd
	return nil
}

func (d *decoder) readIndexBuffer(is32 bool, count uint32) (*mesh.IndexBuffer, error) {
	const op = "readIndexBuffer"
	width := int64(chunk.SizeUint16)
	if is32 {
		width = chunk.SizeUint32
	}
	if int64(count)*width > d.r.Size()-d.r.Offset() {
		return nil, chunk.Errorf(chunk.ErrCorruptData, op, "%d indices exceed the remaining stream", count)
	}
	buf, err := d.opts.Buffers.CreateIndexBuffer(is32, int(count), d.m.IndexBufferUsage, d.m.IndexShadow)
	if err != nil {
		return nil, errors.Wrapf(err, "%s: allocate %d indices", op, count)
	}
	if count == 0 {
		return buf, nil
	}
	if is32 {
		return buf, d.r.ReadUint32s(buf.Indices[:count])
	}
	shorts := make([]uint16, count)
	if err := d.r.ReadUint16s(shorts); err != nil {
		return nil, err
	}
	for i, v := range shorts {
		buf.Indices[i] = uint32(v)
	}
	return buf, nil
}

func (d *decoder) readSubMesh() error {
	const op = "readSubMesh"
	sm := d.m.CreateSubMesh()

	name, err := d.r.ReadString()
	if err != nil {
		return err
	}
	if d.listener != nil {
		name = d.listener.ProcessMaterialName(d.m, name)
	}
	if name != "" && d.opts.Materials != nil && !d.opts.Materials.HasMaterial(name) {
		d.log.Warn("material not found, submesh left without material",
			zap.String("mesh", d.m.Name), zap.String("material", name), zap.Int("submesh", len(d.m.SubMeshes)-1))
		name = ""
	}
	sm.MaterialName = name

	if sm.UseSharedVertices, err = d.r.ReadBool(); err != nil {
		return err
	}
	count, err := d.r.ReadUint32()
	if err != nil {
		return err
	}
	is32, err := d.r.ReadBool()
	if err != nil {
		return err
	}
	buf, err := d.readIndexBuffer(is32, count)
	if err != nil {
		return err
	}
	sm.IndexData = &mesh.IndexData{Start: 0, Count: count, Buffer: buf}

	d.r.PushInnerChunk()
	if !sm.UseSharedVertices {
		if _, err := d.expectChunk(chunkGeometry, op); err != nil {
			return err
		}
		if sm.VertexData, err = d.readGeometry(); err != nil {
			return err
		}
	}

	for {
		h, ok, err := d.nextChild(chunkSubMeshOperation, chunkSubMeshBoneAssignment, chunkSubMeshTextureAlias)
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		switch h.ID {
		case chunkSubMeshOperation:
			opType, err := d.r.ReadUint16()
			if err != nil {
				return err
			}
			sm.Operation = mesh.OperationType(opType)
		case chunkSubMeshBoneAssignment:
			ba, err := d.readBoneAssignment()
			if err != nil {
				return err
			}
			sm.BoneAssignments = append(sm.BoneAssignments, ba)
		case chunkSubMeshTextureAlias:
			var ta mesh.TextureAlias
			if ta.Alias, err = d.r.ReadString(); err != nil {
				return err
			}
			if ta.Texture, err = d.r.ReadString(); err != nil {
				return err
			}
			sm.TextureAliases = append(sm.TextureAliases, ta)
		}
	}
	return d.r.PopInnerChunk()
}

func (d *decoder) readBoneAssignment() (mesh.BoneAssignment, error) {
	var ba mesh.BoneAssignment
	var err error
	if ba.VertexIndex, err = d.r.ReadUint32(); err != nil {
		return ba, err
	}
	if ba.BoneIndex, err = d.r.ReadUint16(); err != nil {
		return ba, err
	}
	ba.Weight, err = d.r.ReadFloat32()
	return ba, err
}

func (d *decoder) readSkeletonLink() error {
	name, err := d.r.ReadString()
	if err != nil {
		return err
	}
	if d.listener != nil {
		name = d.listener.ProcessSkeletonName(d.m, name)
	}
	d.m.SkeletonName = name
	return nil
}

func (d *decoder) readBoundsInfo() error {
	var v [7]float32
	if err := d.r.ReadFloat32s(v[:]); err != nil {
		return err
	}
	d.m.Bounds = math.NewAABB(math.Vec3{v[0], v[1], v[2]}, math.Vec3{v[3], v[4], v[5]})
	d.m.BoundRadius = v[6]
	return nil
}

func (d *decoder) readSubMeshNameTable() error {
	d.r.PushInnerChunk()
	for {
		_, ok, err := d.nextChild(chunkSubMeshNameElement)
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		index, err := d.r.ReadUint16()
		if err != nil {
			return err
		}
		name, err := d.r.ReadString()
		if err != nil {
			return err
		}
		d.m.NameSubMesh(name, index)
	}
	return d.r.PopInnerChunk()
}

func (d *decoder) readExtremes(h chunk.Header) error {
	const op = "readExtremes"
	index, err := d.r.ReadUint16()
	if err != nil {
		return err
	}
	if int(index) >= len(d.m.SubMeshes) {
		return chunk.Errorf(chunk.ErrItemNotFound, op, "extremes reference submesh %d of %d", index, len(d.m.SubMeshes))
	}
	payload := h.PayloadLen() - chunk.SizeUint16
	if payload < 0 || payload%(3*chunk.SizeFloat32) != 0 {
		return chunk.Errorf(chunk.ErrCorruptData, op, "extremes payload of %d bytes is not a list of points", payload)
	}
	floats := make([]float32, payload/chunk.SizeFloat32)
	if err := d.r.ReadFloat32s(floats); err != nil {
		return err
	}
	sm := d.m.SubMeshes[index]
	sm.ExtremityPoints = sm.ExtremityPoints[:0]
	for i := 0; i+2 < len(floats); i += 3 {
		sm.ExtremityPoints = append(sm.ExtremityPoints, math.Vec3{floats[i], floats[i+1], floats[i+2]})
	}
	return nil
}
