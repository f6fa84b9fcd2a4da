package formats

import (
	"go.uber.org/zap"

	"github.com/Faultbox/meshcodec/pkg/chunk"
	"github.com/Faultbox/meshcodec/pkg/mesh"
)

// Fixed chunk sizes.
const (
	boneAssignmentSize = chunk.HeaderSize + chunk.SizeUint32 + chunk.SizeUint16 + chunk.SizeFloat32
	boundsSize         = chunk.HeaderSize + 7*chunk.SizeFloat32
	operationSize      = chunk.HeaderSize + chunk.SizeUint16
	vertexElementSize  = chunk.HeaderSize + 5*chunk.SizeUint16
)

// encoder holds the state of one export call.
type encoder struct {
	w   *chunk.Writer
	m   *mesh.Mesh
	f   format
	log *zap.Logger

	opts     Options
	lodCount int    // exported LOD levels including the full mesh
	strategy string // LOD strategy name as stored in this format
}

func newEncoder(w *chunk.Writer, m *mesh.Mesh, f format, opts Options) *encoder {
	e := &encoder{w: w, m: m, f: f, opts: opts, log: opts.Logger}
	e.strategy = m.LodStrategy
	if e.strategy == "" {
		e.strategy = opts.Strategies.Default()
	}
	if !f.rev.atLeast(rev1_10) {
		e.strategy = legacyStrategyName(e.strategy)
	}
	e.lodCount = e.exportedLodCount()
	return e
}

// exportedLodCount decides how many LOD levels this format can carry.
func (e *encoder) exportedLodCount() int {
	if len(e.m.LodLevels) == 0 {
		return 1
	}
	if !e.f.rev.atLeast(rev1_10) && e.m.IsLodMixed() {
		e.log.Warn("format cannot store mixed manual and generated LOD levels, LOD skipped",
			zap.String("mesh", e.m.Name), zap.String("version", e.f.tag))
		return 1
	}
	if !e.f.rev.atLeast(rev1_41) && !isDistanceStrategy(e.strategy) {
		e.log.Warn("format only stores distance based LOD, LOD skipped",
			zap.String("mesh", e.m.Name), zap.String("strategy", e.strategy), zap.String("version", e.f.tag))
		return 1
	}
	return e.m.NumLodLevels()
}

func (e *encoder) exportMesh() error {
	e.log.Debug("exporting mesh", zap.String("mesh", e.m.Name), zap.String("version", e.f.tag))
	e.writeFileHeader()
	e.w.PushInnerChunk()
	e.writeMesh()
	e.w.PopInnerChunk()
	if err := e.w.Err(); err != nil {
		return err
	}
	e.log.Debug("mesh exported", zap.String("mesh", e.m.Name), zap.Int64("bytes", e.w.Offset()))
	return nil
}

func (e *encoder) writeFileHeader() {
	e.w.WriteUint16(chunkHeader)
	e.w.WriteString(e.f.tag)
}

func (e *encoder) calcMeshSize() int {
	m := e.m
	size := chunk.HeaderSize
	size += chunk.SizeBool // bool skeletallyAnimated

	if m.SharedVertexData != nil {
		size += e.calcGeometrySize(m.SharedVertexData)
	}
	for _, sm := range m.SubMeshes {
		size += e.calcSubMeshSize(sm)
	}
	if m.HasSkeleton() {
		size += e.calcSkeletonLinkSize(m.SkeletonName)
	}
	size += len(m.BoneAssignments) * boneAssignmentSize
	if e.lodCount > 1 {
		size += e.calcLodLevelSize()
	}
	size += boundsSize
	size += e.calcSubMeshNameTableSize()
	if m.EdgeListsBuilt {
		size += e.calcEdgeListSize()
	}
	if len(m.Poses) > 0 {
		size += e.calcPosesSize()
	}
	if len(m.Animations) > 0 {
		size += e.calcAnimationsSize()
	}
	for _, sm := range m.SubMeshes {
		if len(sm.ExtremityPoints) > 0 {
			size += calcExtremesSize(sm)
		}
	}
	return size
}

func (e *encoder) writeMesh() {
	m := e.m
	e.w.WriteChunkHeader(chunkMesh, uint32(e.calcMeshSize()))
	e.w.WriteBool(m.HasSkeleton())

	e.w.PushInnerChunk()
	if m.SharedVertexData != nil {
		e.writeGeometry(m.SharedVertexData)
	}
	for _, sm := range m.SubMeshes {
		e.writeSubMesh(sm)
	}
	if m.HasSkeleton() {
		e.writeSkeletonLink(m.SkeletonName)
	}
	for _, ba := range m.BoneAssignments {
		e.writeBoneAssignment(chunkMeshBoneAssignment, ba)
	}
	if e.lodCount > 1 {
		e.writeLodLevel()
	}
	e.writeBoundsInfo()
	e.writeSubMeshNameTable()
	if m.EdgeListsBuilt {
		e.writeEdgeList()
	}
	if len(m.Poses) > 0 {
		e.writePoses()
	}
	if len(m.Animations) > 0 {
		e.writeAnimations()
	}
	for i, sm := range m.SubMeshes {
		if len(sm.ExtremityPoints) > 0 {
			e.writeExtremes(uint16(i), sm)
		}
	}
	e.w.PopInnerChunk()
}

func indexBufferIs32(id *mesh.IndexData) bool {
	return id != nil && id.Buffer != nil && id.Buffer.Is32Bit
}

func indexBytes(id *mesh.IndexData) int {
	if id == nil || id.Count == 0 {
		return 0
	}
	if indexBufferIs32(id) {
		return int(id.Count) * chunk.SizeUint32
	}
	return int(id.Count) * chunk.SizeUint16
}

// writeIndices emits count indices of buf starting at start, in the
// buffer's index width.
func (e *encoder) writeIndices(buf *mesh.IndexBuffer, start, count uint32) {
	if count == 0 {
		return
	}
	src := buf.Indices[start : start+count]
	if buf.Is32Bit {
		e.w.WriteUint32s(src)
		return
	}
	shorts := make([]uint16, len(src))
	for i, v := range src {
		shorts[i] = uint16(v)
	}
	e.w.WriteUint16s(shorts)
}

func (e *encoder) calcSubMeshSize(sm *mesh.SubMesh) int {
	size := chunk.HeaderSize
	size += chunk.StringSize(sm.MaterialName)
	size += chunk.SizeBool   // bool useSharedVertices
	size += chunk.SizeUint32 // unsigned int indexCount
	size += chunk.SizeBool   // bool indexes32bit
	size += indexBytes(sm.IndexData)

	if !sm.UseSharedVertices {
		size += e.calcGeometrySize(sm.VertexData)
	}
	for _, ta := range sm.TextureAliases {
		size += calcTextureAliasSize(ta)
	}
	size += operationSize
	size += len(sm.BoneAssignments) * boneAssignmentSize
	return size
}

func (e *encoder) writeSubMesh(sm *mesh.SubMesh) {
	e.w.WriteChunkHeader(chunkSubMesh, uint32(e.calcSubMeshSize(sm)))
	e.w.WriteString(sm.MaterialName)
	e.w.WriteBool(sm.UseSharedVertices)

	var count uint32
	if sm.IndexData != nil {
		count = sm.IndexData.Count
	}
	e.w.WriteUint32(count)
	e.w.WriteBool(indexBufferIs32(sm.IndexData))
	if count > 0 {
		e.writeIndices(sm.IndexData.Buffer, 0, count)
	}

	e.w.PushInnerChunk()
	if !sm.UseSharedVertices {
		e.writeGeometry(sm.VertexData)
	}
	for _, ta := range sm.TextureAliases {
		e.w.WriteChunkHeader(chunkSubMeshTextureAlias, uint32(calcTextureAliasSize(ta)))
		e.w.WriteString(ta.Alias)
		e.w.WriteString(ta.Texture)
	}
	e.w.WriteChunkHeader(chunkSubMeshOperation, operationSize)
	e.w.WriteUint16(uint16(sm.Operation))
	for _, ba := range sm.BoneAssignments {
		e.writeBoneAssignment(chunkSubMeshBoneAssignment, ba)
	}
	e.w.PopInnerChunk()
}

func calcTextureAliasSize(ta mesh.TextureAlias) int {
	return chunk.HeaderSize + chunk.StringSize(ta.Alias) + chunk.StringSize(ta.Texture)
}

func (e *encoder) writeBoneAssignment(id uint16, ba mesh.BoneAssignment) {
	e.w.WriteChunkHeader(id, boneAssignmentSize)
	e.w.WriteUint32(ba.VertexIndex)
	e.w.WriteUint16(ba.BoneIndex)
	e.w.WriteFloat32(ba.Weight)
}

func (e *encoder) calcSkeletonLinkSize(name string) int {
	return chunk.HeaderSize + chunk.StringSize(name)
}

func (e *encoder) writeSkeletonLink(name string) {
	e.w.WriteChunkHeader(chunkSkeletonLink, uint32(e.calcSkeletonLinkSize(name)))
	e.w.WriteString(name)
}

func (e *encoder) writeBoundsInfo() {
	b := e.m.Bounds
	e.w.WriteChunkHeader(chunkMeshBounds, boundsSize)
	e.w.WriteFloat32s(b.Min[:])
	e.w.WriteFloat32s(b.Max[:])
	e.w.WriteFloat32(e.m.BoundRadius)
}

func (e *encoder) calcSubMeshNameTableSize() int {
	size := chunk.HeaderSize
	for _, name := range e.m.SubMeshNameList() {
		size += chunk.HeaderSize + chunk.SizeUint16 + chunk.StringSize(name)
	}
	return size
}

func (e *encoder) writeSubMeshNameTable() {
	e.w.WriteChunkHeader(chunkSubMeshNameTable, uint32(e.calcSubMeshNameTableSize()))
	e.w.PushInnerChunk()
	for _, name := range e.m.SubMeshNameList() {
		e.w.WriteChunkHeader(chunkSubMeshNameElement,
			uint32(chunk.HeaderSize+chunk.SizeUint16+chunk.StringSize(name)))
		e.w.WriteUint16(e.m.SubMeshNames[name])
		e.w.WriteString(name)
	}
	e.w.PopInnerChunk()
}

func calcExtremesSize(sm *mesh.SubMesh) int {
	return chunk.HeaderSize + chunk.SizeUint16 + len(sm.ExtremityPoints)*3*chunk.SizeFloat32
}

func (e *encoder) writeExtremes(index uint16, sm *mesh.SubMesh) {
	e.w.WriteChunkHeader(chunkTableExtremes, uint32(calcExtremesSize(sm)))
	e.w.WriteUint16(index)
	floats := make([]float32, 0, len(sm.ExtremityPoints)*3)
	for _, p := range sm.ExtremityPoints {
		floats = append(floats, p[0], p[1], p[2])
	}
	e.w.WriteFloat32s(floats)
}
