package mesh

// Summary is a serialisable overview of a mesh.
type Summary struct {
	Name            string            `yaml:"name,omitempty"`
	Skeleton        string            `yaml:"skeleton,omitempty"`
	SharedVertices  uint32            `yaml:"shared_vertices"`
	SharedElements  []string          `yaml:"shared_elements,omitempty"`
	BoneAssignments int               `yaml:"bone_assignments"`
	SubMeshes       []SubMeshSummary  `yaml:"submeshes"`
	SubMeshNames    map[string]uint16 `yaml:"submesh_names,omitempty"`
	Bounds          BoundsSummary     `yaml:"bounds"`
	LodStrategy     string            `yaml:"lod_strategy,omitempty"`
	LodLevels       []LodSummary      `yaml:"lod_levels,omitempty"`
	EdgeLists       int               `yaml:"edge_lists"`
	Poses           []string          `yaml:"poses,omitempty"`
	Animations      []string          `yaml:"animations,omitempty"`
}

// SubMeshSummary describes one submesh.
type SubMeshSummary struct {
	Material        string   `yaml:"material"`
	Operation       string   `yaml:"operation"`
	SharedVertices  bool     `yaml:"shared_vertices"`
	Indices         uint32   `yaml:"indices"`
	Index32Bit      bool     `yaml:"index_32bit"`
	Vertices        uint32   `yaml:"vertices,omitempty"`
	Elements        []string `yaml:"elements,omitempty"`
	BoneAssignments int      `yaml:"bone_assignments"`
	Extremes        int      `yaml:"extremes,omitempty"`
}

// BoundsSummary is the bounding volume.
type BoundsSummary struct {
	Min    [3]float32 `yaml:"min,flow"`
	Max    [3]float32 `yaml:"max,flow"`
	Radius float32    `yaml:"radius"`
}

// LodSummary describes one stored LOD level.
type LodSummary struct {
	UserValue float32 `yaml:"user_value"`
	Manual    string  `yaml:"manual,omitempty"`
}

func describeElements(vd *VertexData) []string {
	if vd == nil {
		return nil
	}
	out := make([]string, 0, len(vd.Declaration.Elements))
	for _, e := range vd.Declaration.Elements {
		out = append(out, e.Semantic.String()+":"+e.Type.String())
	}
	return out
}

// Summarize builds a Summary of m.
func (m *Mesh) Summarize() Summary {
	s := Summary{
		Name:            m.Name,
		Skeleton:        m.SkeletonName,
		BoneAssignments: len(m.BoneAssignments),
		SubMeshNames:    m.SubMeshNames,
		LodStrategy:     m.LodStrategy,
		EdgeLists:       len(m.EdgeLists),
		Bounds: BoundsSummary{
			Min:    m.Bounds.Min,
			Max:    m.Bounds.Max,
			Radius: m.BoundRadius,
		},
	}
	if m.SharedVertexData != nil {
		s.SharedVertices = m.SharedVertexData.VertexCount
		s.SharedElements = describeElements(m.SharedVertexData)
	}
	for _, sm := range m.SubMeshes {
		ss := SubMeshSummary{
			Material:        sm.MaterialName,
			Operation:       sm.Operation.String(),
			SharedVertices:  sm.UseSharedVertices,
			BoneAssignments: len(sm.BoneAssignments),
			Extremes:        len(sm.ExtremityPoints),
		}
		if sm.IndexData != nil {
			ss.Indices = sm.IndexData.Count
			ss.Index32Bit = sm.IndexData.Buffer != nil && sm.IndexData.Buffer.Is32Bit
		}
		if sm.VertexData != nil {
			ss.Vertices = sm.VertexData.VertexCount
			ss.Elements = describeElements(sm.VertexData)
		}
		s.SubMeshes = append(s.SubMeshes, ss)
	}
	for _, l := range m.LodLevels {
		s.LodLevels = append(s.LodLevels, LodSummary{UserValue: l.UserValue, Manual: l.ManualName})
	}
	for _, p := range m.Poses {
		s.Poses = append(s.Poses, p.Name)
	}
	for _, a := range m.Animations {
		s.Animations = append(s.Animations, a.Name)
	}
	return s
}
