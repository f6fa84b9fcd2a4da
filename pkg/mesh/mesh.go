// Package mesh defines the in-memory mesh model the .mesh codec reads into
// and writes from: geometry, submeshes, skinning, LOD, edge lists, poses and
// vertex animation.
package mesh

import (
	"fmt"
	"sort"

	"github.com/Faultbox/meshcodec/pkg/math"
)

// OperationType is the primitive topology of a submesh's index data.
type OperationType uint16

const (
	OperationPointList     OperationType = 1
	OperationLineList      OperationType = 2
	OperationLineStrip     OperationType = 3
	OperationTriangleList  OperationType = 4
	OperationTriangleStrip OperationType = 5
	OperationTriangleFan   OperationType = 6
)

func (o OperationType) String() string {
	switch o {
	case OperationPointList:
		return "point_list"
	case OperationLineList:
		return "line_list"
	case OperationLineStrip:
		return "line_strip"
	case OperationTriangleList:
		return "triangle_list"
	case OperationTriangleStrip:
		return "triangle_strip"
	case OperationTriangleFan:
		return "triangle_fan"
	default:
		return fmt.Sprintf("operation(%d)", uint16(o))
	}
}

// BoneAssignment binds a vertex to a skeleton bone with a weight.
type BoneAssignment struct {
	VertexIndex uint32
	BoneIndex   uint16
	Weight      float32
}

// TextureAlias maps a material texture alias name to a texture.
type TextureAlias struct {
	Alias   string
	Texture string
}

// SubMesh is an independently materialed part of a mesh.
type SubMesh struct {
	MaterialName      string
	UseSharedVertices bool
	Operation         OperationType
	IndexData         *IndexData
	VertexData        *VertexData // nil when UseSharedVertices
	BoneAssignments   []BoneAssignment
	TextureAliases    []TextureAlias
	ExtremityPoints   []math.Vec3
}

// NewSubMesh returns a submesh with an empty index range and triangle list
// topology.
func NewSubMesh() *SubMesh {
	return &SubMesh{
		UseSharedVertices: true,
		Operation:         OperationTriangleList,
		IndexData:         &IndexData{},
	}
}

// Mesh is a complete mesh resource.
type Mesh struct {
	Name string

	SharedVertexData *VertexData
	SubMeshes        []*SubMesh
	SubMeshNames     map[string]uint16

	SkeletonName    string
	BoneAssignments []BoneAssignment

	LodStrategy string
	LodLevels   []LodLevel // level 0 is the full mesh and is not stored

	Bounds      math.AABB
	BoundRadius float32

	EdgeLists          []*EdgeData // one per LOD level when built
	EdgeListsBuilt     bool
	AutoBuildEdgeLists bool

	Poses      []*Pose
	Animations []*Animation

	VertexBufferUsage BufferUsage
	IndexBufferUsage  BufferUsage
	VertexShadow      bool
	IndexShadow       bool
}

// New returns an empty mesh with default buffer usage.
func New(name string) *Mesh {
	return &Mesh{
		Name:              name,
		SubMeshNames:      make(map[string]uint16),
		VertexBufferUsage: UsageStaticWriteOnly,
		IndexBufferUsage:  UsageStaticWriteOnly,
		VertexShadow:      true,
		IndexShadow:       true,
	}
}

// HasSkeleton reports whether the mesh links a skeleton.
func (m *Mesh) HasSkeleton() bool {
	return m.SkeletonName != ""
}

// CreateSubMesh appends a new submesh and returns it.
func (m *Mesh) CreateSubMesh() *SubMesh {
	sm := NewSubMesh()
	m.SubMeshes = append(m.SubMeshes, sm)
	return sm
}

// NameSubMesh records name for the submesh at index.
func (m *Mesh) NameSubMesh(name string, index uint16) {
	if m.SubMeshNames == nil {
		m.SubMeshNames = make(map[string]uint16)
	}
	m.SubMeshNames[name] = index
}

// SubMeshNameList returns the name table sorted by name.
func (m *Mesh) SubMeshNameList() []string {
	names := make([]string, 0, len(m.SubMeshNames))
	for n := range m.SubMeshNames {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// SetBounds sets the bounding box and radius.
func (m *Mesh) SetBounds(b math.AABB, radius float32) {
	m.Bounds = b
	m.BoundRadius = radius
}

// TargetVertexData resolves a pose or track target: 0 is the shared
// geometry, n is the dedicated vertex data of submesh n-1.
func (m *Mesh) TargetVertexData(target uint16) (*VertexData, bool) {
	if target == 0 {
		return m.SharedVertexData, m.SharedVertexData != nil
	}
	i := int(target) - 1
	if i >= len(m.SubMeshes) {
		return nil, false
	}
	vd := m.SubMeshes[i].VertexData
	return vd, vd != nil
}

// EdgeList returns the edge data for a LOD level, or nil.
func (m *Mesh) EdgeList(lod int) *EdgeData {
	if lod < 0 || lod >= len(m.EdgeLists) {
		return nil
	}
	return m.EdgeLists[lod]
}
