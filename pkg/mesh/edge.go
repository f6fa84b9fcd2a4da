package mesh

import (
	"github.com/Faultbox/meshcodec/pkg/math"
)

// EdgeTriangle is one triangle of an edge list with its face normal.
type EdgeTriangle struct {
	IndexSet        uint32
	VertexSet       uint32
	VertIndex       [3]uint32
	SharedVertIndex [3]uint32
	Normal          math.Vec4
}

// Edge joins two triangles. A degenerate edge has only one triangle.
type Edge struct {
	TriIndex        [2]uint32
	VertIndex       [2]uint32
	SharedVertIndex [2]uint32
	Degenerate      bool
}

// EdgeGroup holds the edges of one vertex set. Its triangles are the
// contiguous range TriStart..TriStart+TriCount of the owning EdgeData.
type EdgeGroup struct {
	VertexSet uint32
	TriStart  uint32
	TriCount  uint32
	Edges     []Edge
}

// EdgeData is the precomputed adjacency of one LOD level.
type EdgeData struct {
	IsClosed   bool
	Triangles  []EdgeTriangle
	EdgeGroups []EdgeGroup
}
