// Package formats implements the versioned .mesh binary serializer: the
// current format, the chain of older formats it can still read and write,
// and the dispatcher that picks one by the file's version string.
package formats

import (
	"fmt"
)

// Mesh chunk identifiers.
const (
	chunkHeader = 0x1000
	chunkMesh   = 0x3000

	chunkSubMesh               = 0x4000
	chunkSubMeshOperation      = 0x4010
	chunkSubMeshBoneAssignment = 0x4100
	chunkSubMeshTextureAlias   = 0x4200

	chunkGeometry                 = 0x5000
	chunkGeometryVertexDecl       = 0x5100
	chunkGeometryVertexElement    = 0x5110
	chunkGeometryVertexBuffer     = 0x5200
	chunkGeometryVertexBufferData = 0x5210

	// Files up to v1.20 store one chunk per attribute instead.
	chunkGeometryNormals   = 0x5100
	chunkGeometryColours   = 0x5200
	chunkGeometryTexCoords = 0x5300

	chunkSkeletonLink        = 0x6000
	chunkMeshBoneAssignment  = 0x7000
	chunkMeshLod             = 0x8000
	chunkMeshLodUsage        = 0x8100
	chunkMeshLodManual       = 0x8110
	chunkMeshLodGenerated    = 0x8120
	chunkMeshBounds          = 0x9000
	chunkSubMeshNameTable    = 0xA000
	chunkSubMeshNameElement  = 0xA100
	chunkEdgeLists           = 0xB000
	chunkEdgeListLod         = 0xB100
	chunkEdgeGroup           = 0xB110
	chunkPoses               = 0xC000
	chunkPose                = 0xC100
	chunkPoseVertex          = 0xC111
	chunkAnimations          = 0xD000
	chunkAnimation           = 0xD100
	chunkAnimationBaseInfo   = 0xD105
	chunkAnimationTrack      = 0xD110
	chunkAnimationMorphFrame = 0xD111
	chunkAnimationPoseFrame  = 0xD112
	chunkAnimationPoseRef    = 0xD113
	chunkTableExtremes       = 0xE000
)

var chunkNames = map[uint16]string{
	chunkHeader:                   "HEADER",
	chunkMesh:                     "MESH",
	chunkSubMesh:                  "SUBMESH",
	chunkSubMeshOperation:         "SUBMESH_OPERATION",
	chunkSubMeshBoneAssignment:    "SUBMESH_BONE_ASSIGNMENT",
	chunkSubMeshTextureAlias:      "SUBMESH_TEXTURE_ALIAS",
	chunkGeometry:                 "GEOMETRY",
	chunkGeometryVertexDecl:       "GEOMETRY_VERTEX_DECLARATION",
	chunkGeometryVertexElement:    "GEOMETRY_VERTEX_ELEMENT",
	chunkGeometryVertexBuffer:     "GEOMETRY_VERTEX_BUFFER",
	chunkGeometryVertexBufferData: "GEOMETRY_VERTEX_BUFFER_DATA",
	chunkGeometryTexCoords:        "GEOMETRY_TEXCOORDS",
	chunkSkeletonLink:             "MESH_SKELETON_LINK",
	chunkMeshBoneAssignment:       "MESH_BONE_ASSIGNMENT",
	chunkMeshLod:                  "MESH_LOD_LEVEL",
	chunkMeshLodUsage:             "MESH_LOD_USAGE",
	chunkMeshLodManual:            "MESH_LOD_MANUAL",
	chunkMeshLodGenerated:         "MESH_LOD_GENERATED",
	chunkMeshBounds:               "MESH_BOUNDS",
	chunkSubMeshNameTable:         "SUBMESH_NAME_TABLE",
	chunkSubMeshNameElement:       "SUBMESH_NAME_TABLE_ELEMENT",
	chunkEdgeLists:                "EDGE_LISTS",
	chunkEdgeListLod:              "EDGE_LIST_LOD",
	chunkEdgeGroup:                "EDGE_GROUP",
	chunkPoses:                    "POSES",
	chunkPose:                     "POSE",
	chunkPoseVertex:               "POSE_VERTEX",
	chunkAnimations:               "ANIMATIONS",
	chunkAnimation:                "ANIMATION",
	chunkAnimationBaseInfo:        "ANIMATION_BASEINFO",
	chunkAnimationTrack:           "ANIMATION_TRACK",
	chunkAnimationMorphFrame:      "ANIMATION_MORPH_KEYFRAME",
	chunkAnimationPoseFrame:       "ANIMATION_POSE_KEYFRAME",
	chunkAnimationPoseRef:         "ANIMATION_POSE_REF",
	chunkTableExtremes:            "TABLE_EXTREMES",
}

// ChunkName returns the registry name of a chunk ID. IDs reused by the
// pre-v1.30 geometry layout report their current meaning.
func ChunkName(id uint16) string {
	if n, ok := chunkNames[id]; ok {
		return n
	}
	return fmt.Sprintf("UNKNOWN_0x%04X", id)
}
