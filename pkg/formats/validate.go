package formats

import (
	"github.com/Faultbox/meshcodec/pkg/chunk"
	"github.com/Faultbox/meshcodec/pkg/mesh"
)

// validate checks that the mesh can be written consistently. It runs before
// any byte is emitted so a rejected mesh leaves the output untouched.
func (e *encoder) validate() error {
	const op = "ExportMesh"
	m := e.m
	if m.Bounds.IsNull() || m.BoundRadius == 0 {
		return chunk.Errorf(chunk.ErrInvalidParameters, op,
			"mesh %s has no bounds, set them before exporting", m.Name)
	}

	if m.SharedVertexData != nil {
		if err := validateVertexData(m.SharedVertexData, "shared geometry"); err != nil {
			return err
		}
	}
	for i, sm := range m.SubMeshes {
		if sm.UseSharedVertices && m.SharedVertexData == nil {
			return chunk.Errorf(chunk.ErrInvalidParameters, op, "submesh %d uses shared vertices, mesh has none", i)
		}
		if !sm.UseSharedVertices {
			if sm.VertexData == nil {
				return chunk.Errorf(chunk.ErrInvalidParameters, op, "submesh %d has no vertex data", i)
			}
			if err := validateVertexData(sm.VertexData, "submesh geometry"); err != nil {
				return err
			}
		}
		if id := sm.IndexData; id != nil && id.Count > 0 {
			if id.Buffer == nil || int(id.Count) > len(id.Buffer.Indices) {
				return chunk.Errorf(chunk.ErrInvalidParameters, op, "submesh %d index count %d exceeds its buffer", i, id.Count)
			}
		}
	}

	if err := e.validateLod(); err != nil {
		return err
	}
	if m.EdgeListsBuilt {
		for lod := 0; lod < e.lodCount; lod++ {
			if !e.lodIsManual(lod) && m.EdgeList(lod) == nil {
				return chunk.Errorf(chunk.ErrInvalidParameters, op, "edge list for LOD %d is missing", lod)
			}
		}
	}
	return e.validateAnimations()
}

func validateVertexData(vd *mesh.VertexData, what string) error {
	const op = "ExportMesh"
	for _, el := range vd.Declaration.Elements {
		if !el.Type.Valid() {
			return chunk.Errorf(chunk.ErrInvalidParameters, op, "%s: invalid vertex element type %d", what, el.Type)
		}
		if _, ok := vd.Bindings[el.Source]; !ok {
			return chunk.Errorf(chunk.ErrInvalidParameters, op, "%s: element source %d has no buffer", what, el.Source)
		}
	}
	for _, idx := range vd.BindIndices() {
		buf := vd.Bindings[idx]
		if buf == nil {
			return chunk.Errorf(chunk.ErrInvalidParameters, op, "%s: buffer %d is nil", what, idx)
		}
		if want := vd.Declaration.VertexSize(idx); buf.VertexSize != want {
			return chunk.Errorf(chunk.ErrInvalidParameters, op,
				"%s: buffer %d vertex size %d does not match its declaration size %d", what, idx, buf.VertexSize, want)
		}
		if len(buf.Data) < vertexBufferBytes(vd, buf) {
			return chunk.Errorf(chunk.ErrInvalidParameters, op,
				"%s: buffer %d holds %d bytes, %d vertices need %d", what, idx, len(buf.Data), vd.VertexCount, vertexBufferBytes(vd, buf))
		}
	}
	return nil
}

func (e *encoder) validateLod() error {
	const op = "ExportMesh"
	for lod := 1; lod < e.lodCount; lod++ {
		level := e.m.LodLevels[lod-1]
		if level.IsManual() {
			continue
		}
		if len(level.Faces) != len(e.m.SubMeshes) {
			return chunk.Errorf(chunk.ErrInvalidParameters, op,
				"LOD %d has faces for %d submeshes, mesh has %d", lod, len(level.Faces), len(e.m.SubMeshes))
		}
		for sub, faces := range level.Faces {
			if faces == nil || faces.Buffer == nil {
				return chunk.Errorf(chunk.ErrInvalidParameters, op, "LOD %d submesh %d has no index buffer", lod, sub)
			}
			if int(faces.Start)+int(faces.Count) > len(faces.Buffer.Indices) {
				return chunk.Errorf(chunk.ErrInvalidParameters, op,
					"LOD %d submesh %d index range exceeds its buffer", lod, sub)
			}
		}
	}
	return nil
}

func (e *encoder) validateAnimations() error {
	const op = "ExportMesh"
	m := e.m
	for _, p := range m.Poses {
		if _, ok := m.TargetVertexData(p.Target); !ok {
			return chunk.Errorf(chunk.ErrInvalidParameters, op, "pose %s targets missing vertex data %d", p.Name, p.Target)
		}
	}
	for _, a := range m.Animations {
		for _, t := range a.Tracks {
			vd, ok := m.TargetVertexData(t.Target)
			if !ok {
				return chunk.Errorf(chunk.ErrInvalidParameters, op,
					"animation %s track targets missing vertex data %d", a.Name, t.Target)
			}
			switch t.Type {
			case mesh.VertexAnimationMorph:
				for _, k := range t.MorphKeyFrames {
					if len(k.Vertices) != int(vd.VertexCount)*k.FloatsPerVertex() {
						return chunk.Errorf(chunk.ErrInvalidParameters, op,
							"animation %s morph key frame at %g holds %d floats for %d vertices",
							a.Name, k.Time, len(k.Vertices), vd.VertexCount)
					}
				}
			case mesh.VertexAnimationPose:
				for _, k := range t.PoseKeyFrames {
					for _, ref := range k.PoseRefs {
						if int(ref.PoseIndex) >= len(m.Poses) {
							return chunk.Errorf(chunk.ErrInvalidParameters, op,
								"animation %s references pose %d of %d", a.Name, ref.PoseIndex, len(m.Poses))
						}
					}
				}
			default:
				return chunk.Errorf(chunk.ErrInvalidParameters, op, "animation %s has a track of type %s", a.Name, t.Type)
			}
		}
	}
	return nil
}
