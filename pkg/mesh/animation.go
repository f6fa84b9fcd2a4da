package mesh

import (
	"github.com/Faultbox/meshcodec/pkg/math"
)

// PoseVertex is a sparse per-vertex pose offset with its optional normal.
type PoseVertex struct {
	Index  uint32
	Offset math.Vec3
	Normal math.Vec3
}

// Pose is a named blend target. Target 0 is the shared geometry, n is
// submesh n-1.
type Pose struct {
	Name            string
	Target          uint16
	IncludesNormals bool
	Vertices        []PoseVertex
}

// VertexAnimationType selects how a vertex track animates its target.
type VertexAnimationType uint16

const (
	VertexAnimationNone  VertexAnimationType = 0
	VertexAnimationMorph VertexAnimationType = 1
	VertexAnimationPose  VertexAnimationType = 2
)

func (t VertexAnimationType) String() string {
	switch t {
	case VertexAnimationMorph:
		return "morph"
	case VertexAnimationPose:
		return "pose"
	default:
		return "none"
	}
}

// MorphKeyFrame is a dense vertex buffer snapshot. Vertices holds 3 floats
// per vertex, or 6 when IncludesNormals (position then normal).
type MorphKeyFrame struct {
	Time            float32
	IncludesNormals bool
	Vertices        []float32
}

// FloatsPerVertex returns the stride of Vertices in floats.
func (k MorphKeyFrame) FloatsPerVertex() int {
	if k.IncludesNormals {
		return 6
	}
	return 3
}

// PoseRef weights one pose within a pose key frame.
type PoseRef struct {
	PoseIndex uint16
	Influence float32
}

// PoseKeyFrame blends a set of poses at a point in time.
type PoseKeyFrame struct {
	Time     float32
	PoseRefs []PoseRef
}

// VertexTrack animates one target's vertices.
type VertexTrack struct {
	Target         uint16
	Type           VertexAnimationType
	MorphKeyFrames []MorphKeyFrame
	PoseKeyFrames  []PoseKeyFrame
}

// Animation is a named set of vertex tracks. With UseBaseKeyFrame the
// animation is additive relative to BaseKeyFrameAnimation (itself when
// empty) sampled at BaseKeyFrameTime.
type Animation struct {
	Name                  string
	Length                float32
	UseBaseKeyFrame       bool
	BaseKeyFrameAnimation string
	BaseKeyFrameTime      float32
	Tracks                []*VertexTrack
}
