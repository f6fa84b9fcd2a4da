package formats

import (
	"bytes"
	"encoding/binary"
	"reflect"
	"testing"

	"github.com/Faultbox/meshcodec/pkg/chunk"
	"github.com/Faultbox/meshcodec/pkg/math"
	"github.com/Faultbox/meshcodec/pkg/mesh"
)

func compareMesh(t *testing.T, want, got *mesh.Mesh) {
	t.Helper()
	sections := []struct {
		name      string
		want, got any
	}{
		{"shared geometry", want.SharedVertexData, got.SharedVertexData},
		{"skeleton", want.SkeletonName, got.SkeletonName},
		{"bone assignments", want.BoneAssignments, got.BoneAssignments},
		{"lod strategy", want.LodStrategy, got.LodStrategy},
		{"lod levels", want.LodLevels, got.LodLevels},
		{"bounds", want.Bounds, got.Bounds},
		{"radius", want.BoundRadius, got.BoundRadius},
		{"submesh names", want.SubMeshNames, got.SubMeshNames},
		{"edge lists", want.EdgeLists, got.EdgeLists},
		{"edge lists built", want.EdgeListsBuilt, got.EdgeListsBuilt},
		{"poses", want.Poses, got.Poses},
		{"animations", want.Animations, got.Animations},
	}
	for _, s := range sections {
		if !reflect.DeepEqual(s.want, s.got) {
			t.Errorf("%s differ:\n got %+v\nwant %+v", s.name, s.got, s.want)
		}
	}

	if len(got.SubMeshes) != len(want.SubMeshes) {
		t.Fatalf("got %d submeshes, want %d", len(got.SubMeshes), len(want.SubMeshes))
	}
	for i := range want.SubMeshes {
		if !reflect.DeepEqual(want.SubMeshes[i], got.SubMeshes[i]) {
			t.Errorf("submesh %d differs:\n got %+v\nwant %+v", i, got.SubMeshes[i], want.SubMeshes[i])
		}
	}
}

// meshChunkLength returns the declared length of the MESH chunk following
// the file header.
func meshChunkLength(t *testing.T, data []byte, endian chunk.Endian) (uint16, uint32, int) {
	t.Helper()
	end := bytes.IndexByte(data[2:], 0)
	if end < 0 {
		t.Fatal("file header has no terminated version string")
	}
	off := 2 + end + 1
	order := endian.ByteOrder()
	return order.Uint16(data[off:]), order.Uint32(data[off+2:]), off
}

func TestRoundTrip_Latest(t *testing.T) {
	for _, endian := range []chunk.Endian{chunk.EndianLittle, chunk.EndianBig} {
		t.Run(endian.String(), func(t *testing.T) {
			want := newTestMesh(t)
			data := exportBytes(t, want, VersionLatest, endian)

			got := importBytes(t, data, testOptions(t), nil)
			compareMesh(t, want, got)
			if got.AutoBuildEdgeLists {
				t.Error("current files should not request edge list rebuilding")
			}
		})
	}
}

func TestExport_SizeAgreement(t *testing.T) {
	shapes := []struct {
		name  string
		build func(t *testing.T) *mesh.Mesh
	}{
		{"empty", func(t *testing.T) *mesh.Mesh {
			m := mesh.New("empty.mesh")
			m.SetBounds(math.NewAABB(math.Vec3{0, 0, 0}, math.Vec3{1, 1, 1}), 1)
			return m
		}},
		{"shared only", newSimpleMesh},
		{"dedicated only", func(t *testing.T) *mesh.Mesh {
			m := mesh.New("head.mesh")
			addHead(t, m)
			m.SetBounds(math.NewAABB(math.Vec3{0, 0, 0}, math.Vec3{1, 1, 0}), 1.5)
			return m
		}},
		{"full", newTestMesh},
	}

	for _, shape := range shapes {
		for _, info := range Versions() {
			if !info.Writable {
				continue
			}
			t.Run(shape.name+"/"+info.Tag, func(t *testing.T) {
				m := shape.build(t)
				data := exportBytes(t, m, info.Version, chunk.EndianLittle)

				id, length, off := meshChunkLength(t, data, chunk.EndianLittle)
				if id != chunkMesh {
					t.Fatalf("first chunk = %s, want MESH", ChunkName(id))
				}
				if int(length) != len(data)-off {
					t.Errorf("MESH declares %d bytes, file holds %d after the header", length, len(data)-off)
				}
				importBytes(t, data, testOptions(t), nil)
			})
		}
	}
}

func TestExport_EndianIdempotent(t *testing.T) {
	src := newTestMesh(t)
	little := exportBytes(t, src, VersionLatest, chunk.EndianLittle)
	big := exportBytes(t, src, VersionLatest, chunk.EndianBig)
	if bytes.Equal(little, big) {
		t.Fatal("big and little endian exports should differ")
	}

	for _, tt := range []struct {
		name   string
		data   []byte
		endian chunk.Endian
	}{
		{"little", little, chunk.EndianLittle},
		{"big", big, chunk.EndianBig},
	} {
		t.Run(tt.name, func(t *testing.T) {
			m := importBytes(t, tt.data, testOptions(t), nil)
			again := exportBytes(t, m, VersionLatest, tt.endian)
			if !bytes.Equal(again, tt.data) {
				t.Errorf("re-export differs from original (%d vs %d bytes)", len(again), len(tt.data))
			}
			if swapped := exportBytes(t, m, VersionLatest, chunk.EndianLittle); !bytes.Equal(swapped, little) {
				t.Error("re-export as little endian differs from direct little endian export")
			}
		})
	}
}

func TestRoundTrip_AllVersions(t *testing.T) {
	for _, info := range Versions() {
		if !info.Writable {
			continue
		}
		t.Run(info.Tag, func(t *testing.T) {
			src := newTestMesh(t)
			src.LodStrategy = StrategyDistanceBox
			addGeneratedLod(src, 10,
				indexBuffer(t, src, false, 0, 1, 2),
				indexBuffer(t, src, true, 0, 1, 2))
			src.EdgeLists = append(src.EdgeLists, testEdgeData())

			data := exportBytes(t, src, info.Version, chunk.EndianLittle)
			probed, err := NewMeshSerializer(Options{}).Probe(bytes.NewReader(data))
			if err != nil {
				t.Fatalf("Probe: %v", err)
			}
			if probed.Tag != info.Tag || probed.Version != info.Version || probed.Endian != chunk.EndianLittle {
				t.Errorf("Probe = %+v, want tag %s", probed, info.Tag)
			}

			got := importBytes(t, data, testOptions(t), nil)
			if len(got.SubMeshes) != 2 || got.SharedVertexData == nil || got.SharedVertexData.VertexCount != 3 {
				t.Fatalf("geometry not restored: %d submeshes", len(got.SubMeshes))
			}
			if !reflect.DeepEqual(got.SharedVertexData, src.SharedVertexData) {
				t.Error("shared geometry differs")
			}
			if !reflect.DeepEqual(got.SubMeshes[1], src.SubMeshes[1]) {
				t.Errorf("head submesh differs: got %+v", got.SubMeshes[1])
			}
			if got.LodStrategy != StrategyDistanceBox {
				t.Errorf("LodStrategy = %q, want %q", got.LodStrategy, StrategyDistanceBox)
			}
			if len(got.LodLevels) != 1 || got.LodLevels[0].UserValue != 10 || got.LodLevels[0].Faces[1].Count != 3 {
				t.Errorf("LOD levels = %+v", got.LodLevels)
			}
			if !reflect.DeepEqual(got.EdgeLists, src.EdgeLists) {
				t.Errorf("edge lists differ: got %+v", got.EdgeLists)
			}
			if len(got.Poses) != 2 || len(got.Animations) != 2 {
				t.Fatalf("got %d poses and %d animations, want 2 and 2", len(got.Poses), len(got.Animations))
			}

			normals := info.Version == Version1_10 || info.Version == Version1_8
			if got.Poses[0].IncludesNormals != normals {
				t.Errorf("pose IncludesNormals = %v, want %v", got.Poses[0].IncludesNormals, normals)
			}
			frame := got.Animations[0].Tracks[0].MorphKeyFrames[1]
			if frame.IncludesNormals != normals || len(frame.Vertices) != 3*frame.FloatsPerVertex() {
				t.Errorf("morph frame normals %v with %d floats", frame.IncludesNormals, len(frame.Vertices))
			}
			if frame.Vertices[frame.FloatsPerVertex()] != 1.5 {
				t.Errorf("second vertex x = %v, want 1.5", frame.Vertices[frame.FloatsPerVertex()])
			}
			if got.Animations[0].UseBaseKeyFrame != normals {
				t.Errorf("UseBaseKeyFrame = %v, want %v", got.Animations[0].UseBaseKeyFrame, normals)
			}
			if !reflect.DeepEqual(got.Animations[1], src.Animations[1]) {
				t.Errorf("pose animation differs: got %+v", got.Animations[1])
			}
		})
	}
}

func TestExport_Rejected(t *testing.T) {
	tests := []struct {
		name    string
		version Version
		mutate  func(m *mesh.Mesh)
	}{
		{"legacy version", VersionLegacy, func(m *mesh.Mesh) {}},
		{"unknown version", Version(42), func(m *mesh.Mesh) {}},
		{"null bounds", VersionLatest, func(m *mesh.Mesh) { m.Bounds = math.AABB{} }},
		{"zero radius", VersionLatest, func(m *mesh.Mesh) { m.BoundRadius = 0 }},
		{"missing dedicated geometry", VersionLatest, func(m *mesh.Mesh) { m.SubMeshes[1].VertexData = nil }},
		{"short vertex buffer", VersionLatest, func(m *mesh.Mesh) {
			m.SharedVertexData.Bindings[1].Data = m.SharedVertexData.Bindings[1].Data[:8]
		}},
		{"index count beyond buffer", VersionLatest, func(m *mesh.Mesh) { m.SubMeshes[0].IndexData.Count = 9 }},
		{"morph frame size", VersionLatest, func(m *mesh.Mesh) {
			k := &m.Animations[0].Tracks[0].MorphKeyFrames[0]
			k.Vertices = k.Vertices[:6]
		}},
		{"pose target", VersionLatest, func(m *mesh.Mesh) { m.Poses[0].Target = 7 }},
		{"missing edge list", VersionLatest, func(m *mesh.Mesh) { m.EdgeLists = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestMesh(t)
			tt.mutate(m)

			var buf bytes.Buffer
			err := NewMeshSerializer(testOptions(t)).ExportMesh(m, &buf, tt.version, chunk.EndianNative)
			if !chunk.IsKind(err, chunk.ErrInvalidParameters) {
				t.Fatalf("ExportMesh error = %v, want ErrInvalidParameters", err)
			}
			if buf.Len() != 0 {
				t.Errorf("rejected export wrote %d bytes", buf.Len())
			}
		})
	}
}

func TestImport_UnknownVersion(t *testing.T) {
	data := fileOf("[MeshSerializer_v9.99]", chunkOf(chunkMesh, leBools(false)))
	err := NewMeshSerializer(Options{}).ImportMesh(bytes.NewReader(data), mesh.New("x"), nil)
	if !chunk.IsKind(err, chunk.ErrUnsupportedVersion) {
		t.Fatalf("ImportMesh error = %v, want ErrUnsupportedVersion", err)
	}
}

func TestImport_BadHeader(t *testing.T) {
	data := []byte{0x34, 0x12, 'x', 0}
	err := NewMeshSerializer(Options{}).ImportMesh(bytes.NewReader(data), mesh.New("x"), nil)
	if err == nil {
		t.Fatal("expected an error for a missing header marker")
	}
}

func TestImport_Truncated(t *testing.T) {
	data := exportBytes(t, newTestMesh(t), VersionLatest, chunk.EndianLittle)
	err := NewMeshSerializer(testOptions(t)).ImportMesh(bytes.NewReader(data[:len(data)-5]), mesh.New("x"), nil)
	if !chunk.IsKind(err, chunk.ErrCorruptData) {
		t.Fatalf("ImportMesh error = %v, want ErrCorruptData", err)
	}
}

func TestImport_DuffSharedGeometry(t *testing.T) {
	element := leU16s(0, uint16(mesh.TypeFloat3), uint16(mesh.SemanticPosition), 0, 0)
	geometry := chunkOf(chunkGeometry, leU32s(3),
		chunkOf(chunkGeometryVertexDecl, chunkOf(chunkGeometryVertexElement, element)),
		chunkOf(chunkGeometryVertexBuffer, leU16s(0, 12)))
	sub := chunkOf(chunkSubMesh, leString("Robot/Body"), leBools(true), leU32s(0), leBools(false),
		chunkOf(chunkSubMeshOperation, leU16s(uint16(mesh.OperationTriangleList))))
	data := fileOf(LatestVersionTag(), chunkOf(chunkMesh, leBools(false), geometry, sub))

	m := importBytes(t, data, testOptions(t), nil)
	if m.SharedVertexData != nil {
		t.Error("incomplete shared geometry should be dropped")
	}
	if len(m.SubMeshes) != 1 || m.SubMeshes[0].MaterialName != "Robot/Body" {
		t.Fatalf("submesh after duff geometry not read: %+v", m.SubMeshes)
	}
}

func TestImport_VertexSizeMismatch(t *testing.T) {
	element := leU16s(0, uint16(mesh.TypeFloat3), uint16(mesh.SemanticPosition), 0, 0)
	geometry := chunkOf(chunkGeometry, leU32s(1),
		chunkOf(chunkGeometryVertexDecl, chunkOf(chunkGeometryVertexElement, element)),
		chunkOf(chunkGeometryVertexBuffer, leU16s(0, 16),
			chunkOf(chunkGeometryVertexBufferData, make([]byte, 16))))
	data := fileOf(LatestVersionTag(), chunkOf(chunkMesh, leBools(false), geometry))

	err := NewMeshSerializer(testOptions(t)).ImportMesh(bytes.NewReader(data), mesh.New("x"), nil)
	if !chunk.IsKind(err, chunk.ErrInternal) {
		t.Fatalf("ImportMesh error = %v, want ErrInternal", err)
	}
}

func TestImport_Lookahead(t *testing.T) {
	sub := chunkOf(chunkSubMesh, leString("Robot/Body"), leBools(true), leU32s(3), leBools(false), leU16s(0, 1, 2),
		chunkOf(chunkSubMeshBoneAssignment, leU32s(0), leU16s(3), leFloats(1)),
		chunkOf(chunkSubMeshOperation, leU16s(uint16(mesh.OperationTriangleStrip))),
		chunkOf(chunkSubMeshBoneAssignment, leU32s(1), leU16s(4), leFloats(0.5)))
	unknown := chunkOf(0xF100, []byte{1, 2, 3, 4})
	bounds := chunkOf(chunkMeshBounds, leFloats(-1, -1, -1, 1, 1, 1, 2))
	data := fileOf(LatestVersionTag(), chunkOf(chunkMesh, leBools(false), sub, unknown, bounds))

	m := importBytes(t, data, testOptions(t), nil)
	if len(m.SubMeshes) != 1 {
		t.Fatalf("got %d submeshes, want 1", len(m.SubMeshes))
	}
	sm := m.SubMeshes[0]
	if sm.Operation != mesh.OperationTriangleStrip {
		t.Errorf("Operation = %v, want triangle strip", sm.Operation)
	}
	want := []mesh.BoneAssignment{{VertexIndex: 0, BoneIndex: 3, Weight: 1}, {VertexIndex: 1, BoneIndex: 4, Weight: 0.5}}
	if !reflect.DeepEqual(sm.BoneAssignments, want) {
		t.Errorf("BoneAssignments = %+v, want %+v", sm.BoneAssignments, want)
	}
	if !reflect.DeepEqual(sm.IndexData.Buffer.Indices, []uint32{0, 1, 2}) {
		t.Errorf("Indices = %v", sm.IndexData.Buffer.Indices)
	}
	if m.BoundRadius != 2 || m.Bounds.Max != (math.Vec3{1, 1, 1}) {
		t.Errorf("bounds after skipped chunk = %+v radius %v", m.Bounds, m.BoundRadius)
	}
}

func TestImport_ConvertsPackedColour(t *testing.T) {
	element := leU16s(0, uint16(mesh.TypeColourARGB), uint16(mesh.SemanticDiffuse), 0, 0)
	geometry := chunkOf(chunkGeometry, leU32s(1),
		chunkOf(chunkGeometryVertexDecl, chunkOf(chunkGeometryVertexElement, element)),
		chunkOf(chunkGeometryVertexBuffer, leU16s(0, 4),
			chunkOf(chunkGeometryVertexBufferData, leU32s(0xAA112233))))
	data := fileOf(LatestVersionTag(), chunkOf(chunkMesh, leBools(false), geometry))

	m := importBytes(t, data, testOptions(t), nil)
	vd := m.SharedVertexData
	if vd == nil {
		t.Fatal("shared geometry missing")
	}
	if typ := vd.Declaration.Elements[0].Type; typ != mesh.TypeColourABGR {
		t.Errorf("element type = %v, want colour_abgr", typ)
	}
	if got := binary.NativeEndian.Uint32(vd.Bindings[0].Data); got != 0xAA332211 {
		t.Errorf("colour = %#x, want 0xaa332211", got)
	}
}

type recordingListener struct {
	prefix    string
	materials []string
	skeletons []string
	completed int
}

func (l *recordingListener) ProcessMaterialName(m *mesh.Mesh, name string) string {
	l.materials = append(l.materials, name)
	return l.prefix + name
}

func (l *recordingListener) ProcessSkeletonName(m *mesh.Mesh, name string) string {
	l.skeletons = append(l.skeletons, name)
	return "skeletons/" + name
}

func (l *recordingListener) ProcessMeshCompleted(m *mesh.Mesh) {
	l.completed++
}

type materialSet map[string]bool

func (s materialSet) HasMaterial(name string) bool { return s[name] }

func TestImport_ListenerAndMaterials(t *testing.T) {
	data := exportBytes(t, newTestMesh(t), VersionLatest, chunk.EndianLittle)

	listener := &recordingListener{prefix: "Legacy/"}
	opts := testOptions(t)
	opts.Materials = materialSet{"Legacy/Robot/Body": true}
	m := importBytes(t, data, opts, listener)

	if !reflect.DeepEqual(listener.materials, []string{"Robot/Body", "Robot/Head"}) {
		t.Errorf("material hook saw %v", listener.materials)
	}
	if m.SubMeshes[0].MaterialName != "Legacy/Robot/Body" {
		t.Errorf("resolved material = %q", m.SubMeshes[0].MaterialName)
	}
	if m.SubMeshes[1].MaterialName != "" {
		t.Errorf("unresolved material should be cleared, got %q", m.SubMeshes[1].MaterialName)
	}
	if m.SkeletonName != "skeletons/robot.skeleton" {
		t.Errorf("SkeletonName = %q", m.SkeletonName)
	}
	if listener.completed != 1 {
		t.Errorf("ProcessMeshCompleted called %d times, want 1", listener.completed)
	}
}

func TestProbe(t *testing.T) {
	data := exportBytes(t, newSimpleMesh(t), Version1_8, chunk.EndianBig)
	r := bytes.NewReader(data)

	info, err := NewMeshSerializer(Options{}).Probe(r)
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	want := FileInfo{Tag: "[MeshSerializer_v1.8]", Version: Version1_8, Endian: chunk.EndianBig, Writable: true}
	if info != want {
		t.Errorf("Probe = %+v, want %+v", info, want)
	}
	if r.Len() != len(data) {
		t.Error("Probe should leave the stream at its start")
	}
}

func TestParseVersion(t *testing.T) {
	tests := []struct {
		in      string
		want    Version
		wantErr bool
	}{
		{"", VersionLatest, false},
		{"latest", VersionLatest, false},
		{"1.8", Version1_8, false},
		{"[MeshSerializer_v1.41]", Version1_7, false},
		{"legacy", VersionLegacy, false},
		{"2.0", VersionLatest, true},
	}

	for _, tt := range tests {
		got, err := ParseVersion(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseVersion(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseVersion(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	infos := Versions()
	if infos[0].Tag != LatestVersionTag() || !infos[0].Writable {
		t.Errorf("newest registered format = %+v", infos[0])
	}
	if last := infos[len(infos)-1]; last.Writable {
		t.Errorf("oldest format %s should be read only", last.Tag)
	}
}
