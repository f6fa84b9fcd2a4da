package mesh

// LodLevel is one reduced level of detail. A level is manual when it names
// a separate mesh; otherwise Faces holds one index range per submesh.
type LodLevel struct {
	UserValue  float32
	ManualName string
	Faces      []*IndexData
}

// IsManual reports whether the level references an external mesh.
func (l LodLevel) IsManual() bool {
	return l.ManualName != ""
}

// NumLodLevels returns the LOD level count including the full-detail level.
func (m *Mesh) NumLodLevels() int {
	return len(m.LodLevels) + 1
}

// IsLodManual reports whether the mesh has LOD levels and all are manual.
func (m *Mesh) IsLodManual() bool {
	if len(m.LodLevels) == 0 {
		return false
	}
	for _, l := range m.LodLevels {
		if !l.IsManual() {
			return false
		}
	}
	return true
}

// IsLodMixed reports whether manual and generated levels are both present.
func (m *Mesh) IsLodMixed() bool {
	manual, generated := false, false
	for _, l := range m.LodLevels {
		if l.IsManual() {
			manual = true
		} else {
			generated = true
		}
	}
	return manual && generated
}

// LodFaces returns the index data of submesh sub at LOD level lod (1-based),
// or nil when the level is manual or absent.
func (m *Mesh) LodFaces(lod, sub int) *IndexData {
	if lod < 1 || lod > len(m.LodLevels) {
		return nil
	}
	faces := m.LodLevels[lod-1].Faces
	if sub < 0 || sub >= len(faces) {
		return nil
	}
	return faces[sub]
}
