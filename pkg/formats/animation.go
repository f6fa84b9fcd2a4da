package formats

import (
	"github.com/Faultbox/meshcodec/pkg/chunk"
	"github.com/Faultbox/meshcodec/pkg/math"
	"github.com/Faultbox/meshcodec/pkg/mesh"
)

const poseRefSize = chunk.HeaderSize + chunk.SizeUint16 + chunk.SizeFloat32

// vertexNormals reports whether poses and morph key frames may carry
// normals. Older files store positions only.
func (f format) vertexNormals() bool {
	return f.rev.atLeast(rev1_8)
}

func (e *encoder) poseNormals(p *mesh.Pose) bool {
	return p.IncludesNormals && e.f.vertexNormals()
}

func (e *encoder) calcPosesSize() int {
	size := chunk.HeaderSize
	for _, p := range e.m.Poses {
		size += e.calcPoseSize(p)
	}
	return size
}

func (e *encoder) calcPoseSize(p *mesh.Pose) int {
	size := chunk.HeaderSize
	size += chunk.StringSize(p.Name)
	size += chunk.SizeUint16 // unsigned short target
	if e.f.vertexNormals() {
		size += chunk.SizeBool // bool includesNormals
	}
	size += len(p.Vertices) * e.calcPoseVertexSize(p)
	return size
}

func (e *encoder) calcPoseVertexSize(p *mesh.Pose) int {
	size := chunk.HeaderSize
	size += chunk.SizeUint32      // unsigned long vertexIndex
	size += 3 * chunk.SizeFloat32 // float xoffset, yoffset, zoffset
	if e.poseNormals(p) {
		size += 3 * chunk.SizeFloat32 // float xnormal, ynormal, znormal
	}
	return size
}

func (e *encoder) writePoses() {
	e.w.WriteChunkHeader(chunkPoses, uint32(e.calcPosesSize()))
	e.w.PushInnerChunk()
	for _, p := range e.m.Poses {
		e.writePose(p)
	}
	e.w.PopInnerChunk()
}

func (e *encoder) writePose(p *mesh.Pose) {
	e.w.WriteChunkHeader(chunkPose, uint32(e.calcPoseSize(p)))
	e.w.WriteString(p.Name)
	e.w.WriteUint16(p.Target)
	if e.f.vertexNormals() {
		e.w.WriteBool(p.IncludesNormals)
	}

	normals := e.poseNormals(p)
	vertexSize := uint32(e.calcPoseVertexSize(p))
	e.w.PushInnerChunk()
	for _, v := range p.Vertices {
		e.w.WriteChunkHeader(chunkPoseVertex, vertexSize)
		e.w.WriteUint32(v.Index)
		e.w.WriteFloat32s(v.Offset[:])
		if normals {
			e.w.WriteFloat32s(v.Normal[:])
		}
	}
	e.w.PopInnerChunk()
}

func (e *encoder) calcAnimationsSize() int {
	size := chunk.HeaderSize
	for _, a := range e.m.Animations {
		size += e.calcAnimationSize(a)
	}
	return size
}

func (e *encoder) writesBaseInfo(a *mesh.Animation) bool {
	return a.UseBaseKeyFrame && e.f.rev.atLeast(rev1_8)
}

func calcBaseInfoSize(a *mesh.Animation) int {
	return chunk.HeaderSize + chunk.StringSize(a.BaseKeyFrameAnimation) + chunk.SizeFloat32
}

func (e *encoder) calcAnimationSize(a *mesh.Animation) int {
	size := chunk.HeaderSize
	size += chunk.StringSize(a.Name)
	size += chunk.SizeFloat32 // float length
	if e.writesBaseInfo(a) {
		size += calcBaseInfoSize(a)
	}
	for _, t := range a.Tracks {
		size += e.calcAnimationTrackSize(t)
	}
	return size
}

func (e *encoder) calcAnimationTrackSize(t *mesh.VertexTrack) int {
	size := chunk.HeaderSize
	size += chunk.SizeUint16 // unsigned short type
	size += chunk.SizeUint16 // unsigned short target
	switch t.Type {
	case mesh.VertexAnimationMorph:
		for i := range t.MorphKeyFrames {
			size += e.calcMorphKeyframeSize(&t.MorphKeyFrames[i])
		}
	case mesh.VertexAnimationPose:
		for i := range t.PoseKeyFrames {
			size += calcPoseKeyframeSize(&t.PoseKeyFrames[i])
		}
	}
	return size
}

// morphFloats returns the floats a morph key frame stores in this format.
func (e *encoder) morphFloats(k *mesh.MorphKeyFrame) []float32 {
	if !k.IncludesNormals || e.f.vertexNormals() {
		return k.Vertices
	}
	out := make([]float32, 0, len(k.Vertices)/2)
	for i := 0; i+5 < len(k.Vertices); i += 6 {
		out = append(out, k.Vertices[i:i+3]...)
	}
	return out
}

func (e *encoder) calcMorphKeyframeSize(k *mesh.MorphKeyFrame) int {
	size := chunk.HeaderSize
	size += chunk.SizeFloat32 // float time
	if e.f.vertexNormals() {
		size += chunk.SizeBool // bool includeNormals
	}
	n := len(k.Vertices)
	if k.IncludesNormals && !e.f.vertexNormals() {
		n = n / 6 * 3
	}
	size += n * chunk.SizeFloat32
	return size
}

func calcPoseKeyframeSize(k *mesh.PoseKeyFrame) int {
	return chunk.HeaderSize + chunk.SizeFloat32 + len(k.PoseRefs)*poseRefSize
}

func (e *encoder) writeAnimations() {
	e.w.WriteChunkHeader(chunkAnimations, uint32(e.calcAnimationsSize()))
	e.w.PushInnerChunk()
	for _, a := range e.m.Animations {
		e.writeAnimation(a)
	}
	e.w.PopInnerChunk()
}

func (e *encoder) writeAnimation(a *mesh.Animation) {
	e.w.WriteChunkHeader(chunkAnimation, uint32(e.calcAnimationSize(a)))
	e.w.WriteString(a.Name)
	e.w.WriteFloat32(a.Length)

	e.w.PushInnerChunk()
	if e.writesBaseInfo(a) {
		e.w.WriteChunkHeader(chunkAnimationBaseInfo, uint32(calcBaseInfoSize(a)))
		e.w.WriteString(a.BaseKeyFrameAnimation)
		e.w.WriteFloat32(a.BaseKeyFrameTime)
	}
	for _, t := range a.Tracks {
		e.writeAnimationTrack(t)
	}
	e.w.PopInnerChunk()
}

func (e *encoder) writeAnimationTrack(t *mesh.VertexTrack) {
	e.w.WriteChunkHeader(chunkAnimationTrack, uint32(e.calcAnimationTrackSize(t)))
	e.w.WriteUint16(uint16(t.Type))
	e.w.WriteUint16(t.Target)

	e.w.PushInnerChunk()
	switch t.Type {
	case mesh.VertexAnimationMorph:
		for i := range t.MorphKeyFrames {
			k := &t.MorphKeyFrames[i]
			e.w.WriteChunkHeader(chunkAnimationMorphFrame, uint32(e.calcMorphKeyframeSize(k)))
			e.w.WriteFloat32(k.Time)
			if e.f.vertexNormals() {
				e.w.WriteBool(k.IncludesNormals)
			}
			e.w.WriteFloat32s(e.morphFloats(k))
		}
	case mesh.VertexAnimationPose:
		for i := range t.PoseKeyFrames {
			k := &t.PoseKeyFrames[i]
			e.w.WriteChunkHeader(chunkAnimationPoseFrame, uint32(calcPoseKeyframeSize(k)))
			e.w.WriteFloat32(k.Time)
			e.w.PushInnerChunk()
			for _, ref := range k.PoseRefs {
				e.w.WriteChunkHeader(chunkAnimationPoseRef, poseRefSize)
				e.w.WriteUint16(ref.PoseIndex)
				e.w.WriteFloat32(ref.Influence)
			}
			e.w.PopInnerChunk()
		}
	}
	e.w.PopInnerChunk()
}

func (d *decoder) readPoses() error {
	d.r.PushInnerChunk()
	for {
		_, ok, err := d.nextChild(chunkPose)
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		p, err := d.readPose()
		if err != nil {
			return err
		}
		d.m.Poses = append(d.m.Poses, p)
	}
	return d.r.PopInnerChunk()
}

func (d *decoder) readPose() (*mesh.Pose, error) {
	const op = "readPose"
	p := &mesh.Pose{}
	var err error
	if p.Name, err = d.r.ReadString(); err != nil {
		return nil, err
	}
	if p.Target, err = d.r.ReadUint16(); err != nil {
		return nil, err
	}
	if d.f.vertexNormals() {
		if p.IncludesNormals, err = d.r.ReadBool(); err != nil {
			return nil, err
		}
	}
	if _, ok := d.m.TargetVertexData(p.Target); !ok {
		return nil, chunk.Errorf(chunk.ErrItemNotFound, op, "pose %s targets missing vertex data %d", p.Name, p.Target)
	}

	floats := make([]float32, 3)
	if p.IncludesNormals {
		floats = make([]float32, 6)
	}
	d.r.PushInnerChunk()
	for {
		_, ok, err := d.nextChild(chunkPoseVertex)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		var v mesh.PoseVertex
		if v.Index, err = d.r.ReadUint32(); err != nil {
			return nil, err
		}
		if err := d.r.ReadFloat32s(floats); err != nil {
			return nil, err
		}
		v.Offset = math.Vec3{floats[0], floats[1], floats[2]}
		if p.IncludesNormals {
			v.Normal = math.Vec3{floats[3], floats[4], floats[5]}
		}
		p.Vertices = append(p.Vertices, v)
	}
	return p, d.r.PopInnerChunk()
}

func (d *decoder) readAnimations() error {
	d.r.PushInnerChunk()
	for {
		_, ok, err := d.nextChild(chunkAnimation)
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		a, err := d.readAnimation()
		if err != nil {
			return err
		}
		d.m.Animations = append(d.m.Animations, a)
	}
	return d.r.PopInnerChunk()
}

func (d *decoder) readAnimation() (*mesh.Animation, error) {
	a := &mesh.Animation{}
	var err error
	if a.Name, err = d.r.ReadString(); err != nil {
		return nil, err
	}
	if a.Length, err = d.r.ReadFloat32(); err != nil {
		return nil, err
	}

	d.r.PushInnerChunk()
	for {
		h, ok, err := d.nextChild(chunkAnimationBaseInfo, chunkAnimationTrack)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		switch h.ID {
		case chunkAnimationBaseInfo:
			a.UseBaseKeyFrame = true
			if a.BaseKeyFrameAnimation, err = d.r.ReadString(); err != nil {
				return nil, err
			}
			if a.BaseKeyFrameTime, err = d.r.ReadFloat32(); err != nil {
				return nil, err
			}
		case chunkAnimationTrack:
			t, err := d.readAnimationTrack()
			if err != nil {
				return nil, err
			}
			a.Tracks = append(a.Tracks, t)
		}
	}
	return a, d.r.PopInnerChunk()
}

func (d *decoder) readAnimationTrack() (*mesh.VertexTrack, error) {
	const op = "readAnimationTrack"
	var f [2]uint16
	if err := d.r.ReadUint16s(f[:]); err != nil {
		return nil, err
	}
	t := &mesh.VertexTrack{Type: mesh.VertexAnimationType(f[0]), Target: f[1]}
	if t.Type != mesh.VertexAnimationMorph && t.Type != mesh.VertexAnimationPose {
		return nil, chunk.Errorf(chunk.ErrCorruptData, op, "unknown vertex animation type %d", f[0])
	}
	vd, ok := d.m.TargetVertexData(t.Target)
	if !ok {
		return nil, chunk.Errorf(chunk.ErrItemNotFound, op, "track targets missing vertex data %d", t.Target)
	}

	d.r.PushInnerChunk()
	for {
		h, ok, err := d.nextChild(chunkAnimationMorphFrame, chunkAnimationPoseFrame)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		if h.ID == chunkAnimationMorphFrame {
			k, err := d.readMorphKeyframe(vd.VertexCount)
			if err != nil {
				return nil, err
			}
			t.MorphKeyFrames = append(t.MorphKeyFrames, k)
		} else {
			k, err := d.readPoseKeyframe()
			if err != nil {
				return nil, err
			}
			t.PoseKeyFrames = append(t.PoseKeyFrames, k)
		}
	}
	return t, d.r.PopInnerChunk()
}

func (d *decoder) readMorphKeyframe(vertexCount uint32) (mesh.MorphKeyFrame, error) {
	var k mesh.MorphKeyFrame
	var err error
	if k.Time, err = d.r.ReadFloat32(); err != nil {
		return k, err
	}
	if d.f.vertexNormals() {
		if k.IncludesNormals, err = d.r.ReadBool(); err != nil {
			return k, err
		}
	}
	k.Vertices = make([]float32, int(vertexCount)*k.FloatsPerVertex())
	return k, d.r.ReadFloat32s(k.Vertices)
}

func (d *decoder) readPoseKeyframe() (mesh.PoseKeyFrame, error) {
	var k mesh.PoseKeyFrame
	var err error
	if k.Time, err = d.r.ReadFloat32(); err != nil {
		return k, err
	}
	d.r.PushInnerChunk()
	for {
		_, ok, err := d.nextChild(chunkAnimationPoseRef)
		if err != nil {
			return k, err
		}
		if !ok {
			break
		}
		var ref mesh.PoseRef
		if ref.PoseIndex, err = d.r.ReadUint16(); err != nil {
			return k, err
		}
		if ref.Influence, err = d.r.ReadFloat32(); err != nil {
			return k, err
		}
		k.PoseRefs = append(k.PoseRefs, ref)
	}
	return k, d.r.PopInnerChunk()
}
