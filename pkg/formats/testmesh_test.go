package formats

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/chewxy/math32"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/Faultbox/meshcodec/pkg/chunk"
	"github.com/Faultbox/meshcodec/pkg/math"
	"github.com/Faultbox/meshcodec/pkg/mesh"
)

// floatBytes packs values in host byte order, the layout of in-memory buffers.
func floatBytes(vals ...float32) []byte {
	out := make([]byte, 4*len(vals))
	for i, v := range vals {
		binary.NativeEndian.PutUint32(out[i*4:], math32.Float32bits(v))
	}
	return out
}

// nativeFloats unpacks a host byte order buffer.
func nativeFloats(data []byte) []float32 {
	out := make([]float32, len(data)/4)
	for i := range out {
		out[i] = math32.Float32frombits(binary.NativeEndian.Uint32(data[i*4:]))
	}
	return out
}

func vertexBuffer(t *testing.T, m *mesh.Mesh, vertexSize, count int, data []byte) *mesh.VertexBuffer {
	t.Helper()
	buf, err := mesh.HeapBufferManager{}.CreateVertexBuffer(vertexSize, count, m.VertexBufferUsage, m.VertexShadow)
	if err != nil {
		t.Fatalf("CreateVertexBuffer: %v", err)
	}
	if len(data) != len(buf.Data) {
		t.Fatalf("vertex data is %d bytes, buffer is %d", len(data), len(buf.Data))
	}
	copy(buf.Data, data)
	return buf
}

func indexBuffer(t *testing.T, m *mesh.Mesh, is32 bool, indices ...uint32) *mesh.IndexBuffer {
	t.Helper()
	buf, err := mesh.HeapBufferManager{}.CreateIndexBuffer(is32, len(indices), m.IndexBufferUsage, m.IndexShadow)
	if err != nil {
		t.Fatalf("CreateIndexBuffer: %v", err)
	}
	copy(buf.Indices, indices)
	return buf
}

// newSimpleMesh builds a triangle on shared geometry with one submesh.
func newSimpleMesh(t *testing.T) *mesh.Mesh {
	t.Helper()
	m := mesh.New("robot.mesh")

	shared := mesh.NewVertexData()
	shared.VertexCount = 3
	shared.Declaration.AddElement(0, 0, mesh.TypeFloat3, mesh.SemanticPosition, 0)
	shared.Declaration.AddElement(0, 12, mesh.TypeFloat3, mesh.SemanticNormal, 0)
	shared.Declaration.AddElement(1, 0, mesh.TypeFloat2, mesh.SemanticTexCoords, 0)
	shared.SetBinding(0, vertexBuffer(t, m, 24, 3, floatBytes(
		0, 0, 0, 0, 0, 1,
		1, 0, 0, 0, 0, 1,
		0, 1, 0, 0, 0, 1,
	)))
	shared.SetBinding(1, vertexBuffer(t, m, 8, 3, floatBytes(0, 0, 1, 0, 0, 1)))
	m.SharedVertexData = shared

	body := m.CreateSubMesh()
	body.MaterialName = "Robot/Body"
	body.IndexData = &mesh.IndexData{Count: 3, Buffer: indexBuffer(t, m, false, 0, 1, 2)}
	m.NameSubMesh("body", 0)

	m.SetBounds(math.NewAABB(math.Vec3{-1, -1, -1}, math.Vec3{1, 1, 1}), 1.75)
	return m
}

// addHead adds a submesh with its own geometry, 32 bit indices, bone
// assignments and a texture alias.
func addHead(t *testing.T, m *mesh.Mesh) *mesh.SubMesh {
	t.Helper()
	head := m.CreateSubMesh()
	head.MaterialName = "Robot/Head"
	head.UseSharedVertices = false

	vd := mesh.NewVertexData()
	vd.VertexCount = 3
	vd.Declaration.AddElement(0, 0, mesh.TypeFloat3, mesh.SemanticPosition, 0)
	vd.Declaration.AddElement(0, 12, mesh.TypeColourABGR, mesh.SemanticDiffuse, 0)
	data := bytes.Join([][]byte{
		floatBytes(0, 0, 0), {0x11, 0x22, 0x33, 0xFF},
		floatBytes(1, 0, 0), {0x44, 0x55, 0x66, 0xFF},
		floatBytes(0, 1, 0), {0x77, 0x88, 0x99, 0xFF},
	}, nil)
	vd.SetBinding(0, vertexBuffer(t, m, 16, 3, data))
	head.VertexData = vd

	head.IndexData = &mesh.IndexData{Count: 6, Buffer: indexBuffer(t, m, true, 0, 1, 2, 2, 1, 0)}
	head.BoneAssignments = []mesh.BoneAssignment{
		{VertexIndex: 0, BoneIndex: 1, Weight: 1},
		{VertexIndex: 1, BoneIndex: 1, Weight: 0.5},
		{VertexIndex: 2, BoneIndex: 2, Weight: 0.25},
	}
	head.TextureAliases = []mesh.TextureAlias{{Alias: "diffuse", Texture: "robot_head.png"}}
	m.NameSubMesh("head", uint16(len(m.SubMeshes)-1))
	return head
}

func testEdgeData() *mesh.EdgeData {
	return &mesh.EdgeData{
		IsClosed: false,
		Triangles: []mesh.EdgeTriangle{{
			VertIndex:       [3]uint32{0, 1, 2},
			SharedVertIndex: [3]uint32{0, 1, 2},
			Normal:          math.Vec4{0, 0, 1, 0},
		}},
		EdgeGroups: []mesh.EdgeGroup{{
			TriCount: 1,
			Edges: []mesh.Edge{
				{TriIndex: [2]uint32{0, 0}, VertIndex: [2]uint32{0, 1}, SharedVertIndex: [2]uint32{0, 1}, Degenerate: true},
			},
		}},
	}
}

// newTestMesh builds a mesh exercising every section of the format
// except LOD.
func newTestMesh(t *testing.T) *mesh.Mesh {
	t.Helper()
	m := newSimpleMesh(t)
	m.SubMeshes[0].ExtremityPoints = []math.Vec3{{0, 0, 0}, {1, 0, 0}}
	addHead(t, m)

	m.SkeletonName = "robot.skeleton"
	m.BoneAssignments = []mesh.BoneAssignment{{VertexIndex: 0, BoneIndex: 0, Weight: 1}}

	m.EdgeListsBuilt = true
	m.EdgeLists = []*mesh.EdgeData{testEdgeData()}

	m.Poses = []*mesh.Pose{
		{Name: "smile", Target: 0, IncludesNormals: true, Vertices: []mesh.PoseVertex{
			{Index: 1, Offset: math.Vec3{0, 0.5, 0}, Normal: math.Vec3{0, 1, 0}},
		}},
		{Name: "frown", Target: 2, Vertices: []mesh.PoseVertex{
			{Index: 0, Offset: math.Vec3{0, -0.5, 0}},
			{Index: 2, Offset: math.Vec3{0.25, 0, 0}},
		}},
	}

	morph := func(time, shift float32) mesh.MorphKeyFrame {
		k := mesh.MorphKeyFrame{Time: time, IncludesNormals: true}
		for v := 0; v < 3; v++ {
			k.Vertices = append(k.Vertices, float32(v)+shift, shift, 0, 0, 0, 1)
		}
		return k
	}
	m.Animations = []*mesh.Animation{
		{
			Name:                  "wave",
			Length:                2,
			UseBaseKeyFrame:       true,
			BaseKeyFrameAnimation: "idle",
			BaseKeyFrameTime:      0.5,
			Tracks: []*mesh.VertexTrack{{
				Target:         0,
				Type:           mesh.VertexAnimationMorph,
				MorphKeyFrames: []mesh.MorphKeyFrame{morph(0, 0), morph(1, 0.5)},
			}},
		},
		{
			Name:   "talk",
			Length: 1,
			Tracks: []*mesh.VertexTrack{{
				Target: 2,
				Type:   mesh.VertexAnimationPose,
				PoseKeyFrames: []mesh.PoseKeyFrame{
					{Time: 0, PoseRefs: []mesh.PoseRef{{PoseIndex: 1, Influence: 1}}},
					{Time: 1, PoseRefs: []mesh.PoseRef{{PoseIndex: 0, Influence: 0.5}, {PoseIndex: 1, Influence: 0.5}}},
				},
			}},
		},
	}
	return m
}

// addGeneratedLod appends a generated LOD level using buffers, one per submesh.
func addGeneratedLod(m *mesh.Mesh, value float32, buffers ...*mesh.IndexBuffer) {
	level := mesh.LodLevel{UserValue: value}
	for _, buf := range buffers {
		level.Faces = append(level.Faces, &mesh.IndexData{Count: uint32(len(buf.Indices)), Buffer: buf})
	}
	m.LodLevels = append(m.LodLevels, level)
}

func testOptions(t *testing.T) Options {
	return Options{ValidateChunkSizes: true, Logger: zaptest.NewLogger(t, zaptest.Level(zap.WarnLevel))}
}

func exportBytes(t *testing.T, m *mesh.Mesh, v Version, endian chunk.Endian) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := NewMeshSerializer(testOptions(t)).ExportMesh(m, &buf, v, endian); err != nil {
		t.Fatalf("ExportMesh(%v, %v): %v", v, endian, err)
	}
	return buf.Bytes()
}

func importBytes(t *testing.T, data []byte, opts Options, listener Listener) *mesh.Mesh {
	t.Helper()
	m := mesh.New("robot.mesh")
	if err := NewMeshSerializer(opts).ImportMesh(bytes.NewReader(data), m, listener); err != nil {
		t.Fatalf("ImportMesh: %v", err)
	}
	return m
}

// Fixture builders for hand-written little endian files.

func enc(fn func(w *chunk.Writer)) []byte {
	var b bytes.Buffer
	fn(chunk.NewWriter(&b, chunk.EndianLittle))
	return b.Bytes()
}

func chunkOf(id uint16, parts ...[]byte) []byte {
	body := bytes.Join(parts, nil)
	return enc(func(w *chunk.Writer) {
		w.WriteChunkHeader(id, uint32(chunk.HeaderSize+len(body)))
		w.WriteData(body)
	})
}

func fileOf(tag string, chunks ...[]byte) []byte {
	head := enc(func(w *chunk.Writer) {
		w.WriteUint16(chunkHeader)
		w.WriteString(tag)
	})
	return append(head, bytes.Join(chunks, nil)...)
}

func leFloats(vs ...float32) []byte { return enc(func(w *chunk.Writer) { w.WriteFloat32s(vs) }) }
func leU32s(vs ...uint32) []byte { return enc(func(w *chunk.Writer) { w.WriteUint32s(vs) }) }
func leU16s(vs ...uint16) []byte { return enc(func(w *chunk.Writer) { w.WriteUint16s(vs) }) }
func leBools(vs ...bool) []byte { return enc(func(w *chunk.Writer) { w.WriteBools(vs) }) }
func leString(s string) []byte { return enc(func(w *chunk.Writer) { w.WriteString(s) }) }
