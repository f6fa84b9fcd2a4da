package formats

import (
	"github.com/chewxy/math32"
	"go.uber.org/zap"

	"github.com/Faultbox/meshcodec/pkg/chunk"
	"github.com/Faultbox/meshcodec/pkg/mesh"
)

// LOD chunk layouts by format:
//
//	v1.10         LOD {strategy, numLevels} then MANUAL | GENERATED per level
//	v1.8, v1.41   LOD {strategy, numLevels, manual} then USAGE {MANUAL | GENERATED...} per level
//	v1.40, v1.30  as v1.8 without the strategy, user values stored squared

// lodUsesStrategyName reports whether the LOD header carries a strategy name.
func (f format) lodUsesStrategyName() bool {
	return f.rev.atLeast(rev1_41)
}

// lodSquaredValues reports whether user values are stored as squared distances.
func (f format) lodSquaredValues() bool {
	return !f.rev.atLeast(rev1_41)
}

func indexWidth(is32 bool) int {
	if is32 {
		return chunk.SizeUint32
	}
	return chunk.SizeUint16
}

// lodBufferIndex finds the buffer a generated level's faces can alias: the
// first earlier level sharing the buffer, 0 for the submesh's own buffer, or
// -1 when the level owns it.
func (e *encoder) lodBufferIndex(lod, sub int, faces *mesh.IndexData) int32 {
	for i := 1; i < lod; i++ {
		if prev := e.m.LodFaces(i, sub); prev != nil && prev.Buffer == faces.Buffer {
			return int32(i)
		}
	}
	if main := e.m.SubMeshes[sub].IndexData; main != nil && main.Buffer == faces.Buffer {
		return 0
	}
	return -1
}

func (e *encoder) calcLodLevelSize() int {
	size := chunk.HeaderSize
	if e.f.lodUsesStrategyName() {
		size += chunk.StringSize(e.strategy)
	}
	size += chunk.SizeUint16 // unsigned short numLevels
	if !e.f.rev.atLeast(rev1_10) {
		size += chunk.SizeBool // bool manual
	}
	for lod := 1; lod < e.lodCount; lod++ {
		if e.f.rev.atLeast(rev1_10) {
			size += e.calcLodLevelEntrySize(lod)
		} else {
			size += e.calcLodUsageSize(lod)
		}
	}
	return size
}

func (e *encoder) calcLodLevelEntrySize(lod int) int {
	level := e.m.LodLevels[lod-1]
	size := chunk.HeaderSize
	size += chunk.SizeFloat32 // float userValue
	if level.IsManual() {
		return size + chunk.StringSize(level.ManualName)
	}
	for sub := range e.m.SubMeshes {
		faces := e.m.LodFaces(lod, sub)
		size += chunk.SizeUint32 // unsigned int indexCount
		size += chunk.SizeUint32 // unsigned int indexStart
		size += chunk.SizeUint32 // int bufferIndex
		if e.lodBufferIndex(lod, sub, faces) == -1 {
			size += chunk.SizeBool   // bool indexes32Bit
			size += chunk.SizeUint32 // unsigned int bufferIndexCount
			size += len(faces.Buffer.Indices) * indexWidth(faces.Buffer.Is32Bit)
		}
	}
	return size
}

func (e *encoder) calcLodUsageSize(lod int) int {
	level := e.m.LodLevels[lod-1]
	size := chunk.HeaderSize
	size += chunk.SizeFloat32 // float userValue
	if level.IsManual() {
		return size + chunk.HeaderSize + chunk.StringSize(level.ManualName)
	}
	for sub := range e.m.SubMeshes {
		faces := e.m.LodFaces(lod, sub)
		size += chunk.HeaderSize
		size += chunk.SizeUint32 // unsigned int indexCount
		size += chunk.SizeBool   // bool indexes32Bit
		size += indexBytes(faces)
	}
	return size
}

func (e *encoder) writeLodLevel() {
	e.w.WriteChunkHeader(chunkMeshLod, uint32(e.calcLodLevelSize()))
	if e.f.lodUsesStrategyName() {
		e.w.WriteString(e.strategy)
	}
	e.w.WriteUint16(uint16(e.lodCount))
	if !e.f.rev.atLeast(rev1_10) {
		e.w.WriteBool(e.m.IsLodManual())
	}

	e.w.PushInnerChunk()
	for lod := 1; lod < e.lodCount; lod++ {
		if e.f.rev.atLeast(rev1_10) {
			e.writeLodLevelEntry(lod)
		} else {
			e.writeLodUsage(lod)
		}
	}
	e.w.PopInnerChunk()
}

func (e *encoder) writeLodLevelEntry(lod int) {
	level := e.m.LodLevels[lod-1]
	size := uint32(e.calcLodLevelEntrySize(lod))
	if level.IsManual() {
		e.w.WriteChunkHeader(chunkMeshLodManual, size)
		e.w.WriteFloat32(level.UserValue)
		e.w.WriteString(level.ManualName)
		return
	}

	e.w.WriteChunkHeader(chunkMeshLodGenerated, size)
	e.w.WriteFloat32(level.UserValue)
	for sub := range e.m.SubMeshes {
		faces := e.m.LodFaces(lod, sub)
		bufferIndex := e.lodBufferIndex(lod, sub, faces)
		e.w.WriteUint32(faces.Count)
		e.w.WriteUint32(faces.Start)
		e.w.WriteInt32(bufferIndex)
		if bufferIndex == -1 {
			n := uint32(len(faces.Buffer.Indices))
			e.w.WriteBool(faces.Buffer.Is32Bit)
			e.w.WriteUint32(n)
			e.writeIndices(faces.Buffer, 0, n)
		}
	}
}

func (e *encoder) writeLodUsage(lod int) {
	level := e.m.LodLevels[lod-1]
	e.w.WriteChunkHeader(chunkMeshLodUsage, uint32(e.calcLodUsageSize(lod)))
	value := level.UserValue
	if e.f.lodSquaredValues() {
		value *= value
	}
	e.w.WriteFloat32(value)

	e.w.PushInnerChunk()
	if level.IsManual() {
		e.w.WriteChunkHeader(chunkMeshLodManual, uint32(chunk.HeaderSize+chunk.StringSize(level.ManualName)))
		e.w.WriteString(level.ManualName)
	} else {
		for sub := range e.m.SubMeshes {
			faces := e.m.LodFaces(lod, sub)
			e.w.WriteChunkHeader(chunkMeshLodGenerated,
				uint32(chunk.HeaderSize+chunk.SizeUint32+chunk.SizeBool+indexBytes(faces)))
			e.w.WriteUint32(faces.Count)
			e.w.WriteBool(indexBufferIs32(faces))
			if faces.Count > 0 {
				e.writeIndices(faces.Buffer, faces.Start, faces.Count)
			}
		}
	}
	e.w.PopInnerChunk()
}

// resolveStrategy maps a stored strategy name onto a known strategy,
// falling back to the resolver's default.
func (d *decoder) resolveStrategy(name string) string {
	if resolved, ok := d.opts.Strategies.Resolve(name); ok {
		return resolved
	}
	fallback := d.opts.Strategies.Default()
	d.log.Warn("unknown LOD strategy, using default",
		zap.String("mesh", d.m.Name), zap.String("strategy", name), zap.String("default", fallback))
	return fallback
}

func (d *decoder) readLodLevel() error {
	name := "Distance"
	if d.f.lodUsesStrategyName() {
		var err error
		if name, err = d.r.ReadString(); err != nil {
			return err
		}
	}
	d.m.LodStrategy = d.resolveStrategy(name)

	numLevels, err := d.r.ReadUint16()
	if err != nil {
		return err
	}
	manual := false
	if !d.f.rev.atLeast(rev1_10) {
		if manual, err = d.r.ReadBool(); err != nil {
			return err
		}
	}

	d.m.LodLevels = make([]mesh.LodLevel, 0, max(int(numLevels)-1, 0))
	d.r.PushInnerChunk()
	for lod := 1; lod < int(numLevels); lod++ {
		var level mesh.LodLevel
		if d.f.rev.atLeast(rev1_10) {
			level, err = d.readLodLevelEntry(lod)
		} else {
			level, err = d.readLodUsage(manual)
		}
		if err != nil {
			return err
		}
		d.m.LodLevels = append(d.m.LodLevels, level)
	}
	return d.r.PopInnerChunk()
}

func (d *decoder) readLodLevelEntry(lod int) (mesh.LodLevel, error) {
	const op = "readLodLevel"
	var level mesh.LodLevel
	h, ok, err := d.nextChild(chunkMeshLodManual, chunkMeshLodGenerated)
	if err != nil {
		return level, err
	}
	if !ok {
		return level, chunk.Errorf(chunk.ErrItemNotFound, op, "missing LOD level %d in %s", lod, d.m.Name)
	}
	if level.UserValue, err = d.r.ReadFloat32(); err != nil {
		return level, err
	}
	if h.ID == chunkMeshLodManual {
		level.ManualName, err = d.r.ReadString()
		return level, err
	}

	level.Faces = make([]*mesh.IndexData, len(d.m.SubMeshes))
	for sub := range d.m.SubMeshes {
		var v [2]uint32
		if err := d.r.ReadUint32s(v[:]); err != nil {
			return level, err
		}
		bufferIndex, err := d.r.ReadInt32()
		if err != nil {
			return level, err
		}
		faces := &mesh.IndexData{Count: v[0], Start: v[1]}
		switch {
		case bufferIndex == -1:
			is32, err := d.r.ReadBool()
			if err != nil {
				return level, err
			}
			n, err := d.r.ReadUint32()
			if err != nil {
				return level, err
			}
			if faces.Buffer, err = d.readIndexBuffer(is32, n); err != nil {
				return level, err
			}
		case bufferIndex == 0:
			faces.Buffer = d.m.SubMeshes[sub].IndexData.Buffer
		case bufferIndex > 0:
			if prev := d.m.LodFaces(int(bufferIndex), sub); prev != nil {
				faces.Buffer = prev.Buffer
			}
		}
		if faces.Buffer == nil {
			return level, chunk.Errorf(chunk.ErrItemNotFound, op,
				"LOD level %d submesh %d references unknown index buffer %d", lod, sub, bufferIndex)
		}
		level.Faces[sub] = faces
	}
	return level, nil
}

func (d *decoder) readLodUsage(manual bool) (mesh.LodLevel, error) {
	const op = "readLodUsage"
	var level mesh.LodLevel
	if _, err := d.expectChunk(chunkMeshLodUsage, op); err != nil {
		return level, err
	}
	value, err := d.r.ReadFloat32()
	if err != nil {
		return level, err
	}
	if d.f.lodSquaredValues() {
		value = math32.Sqrt(value)
	}
	level.UserValue = value

	d.r.PushInnerChunk()
	if manual {
		if _, err := d.expectChunk(chunkMeshLodManual, op); err != nil {
			return level, err
		}
		if level.ManualName, err = d.r.ReadString(); err != nil {
			return level, err
		}
	} else {
		level.Faces = make([]*mesh.IndexData, len(d.m.SubMeshes))
		for sub := range d.m.SubMeshes {
			if _, err := d.expectChunk(chunkMeshLodGenerated, op); err != nil {
				return level, err
			}
			count, err := d.r.ReadUint32()
			if err != nil {
				return level, err
			}
			is32, err := d.r.ReadBool()
			if err != nil {
				return level, err
			}
			buf, err := d.readIndexBuffer(is32, count)
			if err != nil {
				return level, err
			}
			level.Faces[sub] = &mesh.IndexData{Count: count, Buffer: buf}
		}
	}
	return level, d.r.PopInnerChunk()
}
