package formats

import (
	"testing"

	"github.com/Faultbox/meshcodec/pkg/chunk"
	"github.com/Faultbox/meshcodec/pkg/mesh"
)

func trianglesInSets(sets ...uint32) []mesh.EdgeTriangle {
	tris := make([]mesh.EdgeTriangle, len(sets))
	for i, s := range sets {
		tris[i] = mesh.EdgeTriangle{IndexSet: uint32(i), VertexSet: s}
	}
	return tris
}

func TestReorganiseTriangles(t *testing.T) {
	t.Run("single group takes every triangle", func(t *testing.T) {
		ed := &mesh.EdgeData{
			Triangles:  trianglesInSets(0, 0, 0, 0),
			EdgeGroups: []mesh.EdgeGroup{{TriStart: 7, TriCount: 1}},
		}
		if err := reorganiseTriangles(ed); err != nil {
			t.Fatalf("reorganiseTriangles: %v", err)
		}
		if g := ed.EdgeGroups[0]; g.TriStart != 0 || g.TriCount != 4 {
			t.Errorf("range = %d+%d, want 0+4", g.TriStart, g.TriCount)
		}
	})

	t.Run("grouped triangles keep their order", func(t *testing.T) {
		ed := &mesh.EdgeData{
			Triangles: trianglesInSets(0, 0, 1, 1, 1),
			EdgeGroups: []mesh.EdgeGroup{
				{VertexSet: 0, Edges: []mesh.Edge{{TriIndex: [2]uint32{0, 1}}}},
				{VertexSet: 1, Edges: []mesh.Edge{{TriIndex: [2]uint32{3, 4}}}},
			},
		}
		if err := reorganiseTriangles(ed); err != nil {
			t.Fatalf("reorganiseTriangles: %v", err)
		}
		for i, tri := range ed.Triangles {
			if tri.IndexSet != uint32(i) {
				t.Fatalf("triangle %d moved, holds %d", i, tri.IndexSet)
			}
		}
		g0, g1 := ed.EdgeGroups[0], ed.EdgeGroups[1]
		if g0.TriStart != 0 || g0.TriCount != 2 || g1.TriStart != 2 || g1.TriCount != 3 {
			t.Errorf("ranges = %d+%d, %d+%d", g0.TriStart, g0.TriCount, g1.TriStart, g1.TriCount)
		}
		if got := g1.Edges[0].TriIndex; got != [2]uint32{3, 4} {
			t.Errorf("edge triangles = %v, want unchanged", got)
		}
	})

	t.Run("interleaved sets are regrouped", func(t *testing.T) {
		ed := &mesh.EdgeData{
			Triangles: trianglesInSets(1, 0, 1, 0),
			EdgeGroups: []mesh.EdgeGroup{
				{VertexSet: 0, Edges: []mesh.Edge{{TriIndex: [2]uint32{1, 3}}}},
				{VertexSet: 1, Edges: []mesh.Edge{{TriIndex: [2]uint32{2, 9}, Degenerate: true}}},
			},
		}
		if err := reorganiseTriangles(ed); err != nil {
			t.Fatalf("reorganiseTriangles: %v", err)
		}
		want := []uint32{1, 3, 0, 2}
		for i, tri := range ed.Triangles {
			if tri.IndexSet != want[i] {
				t.Errorf("triangle %d holds %d, want %d", i, tri.IndexSet, want[i])
			}
		}
		if got := ed.EdgeGroups[0].Edges[0].TriIndex; got != [2]uint32{0, 1} {
			t.Errorf("group 0 edge = %v, want [0 1]", got)
		}
		// the second index of a degenerate edge is left alone
		if got := ed.EdgeGroups[1].Edges[0].TriIndex; got != [2]uint32{3, 9} {
			t.Errorf("group 1 edge = %v, want [3 9]", got)
		}
	})

	t.Run("unknown vertex set", func(t *testing.T) {
		ed := &mesh.EdgeData{
			Triangles:  trianglesInSets(0, 2),
			EdgeGroups: []mesh.EdgeGroup{{VertexSet: 0}, {VertexSet: 1}},
		}
		if err := reorganiseTriangles(ed); !chunk.IsKind(err, chunk.ErrCorruptData) {
			t.Errorf("error = %v, want corrupt data", err)
		}
	})

	t.Run("edge beyond the triangle list", func(t *testing.T) {
		ed := &mesh.EdgeData{
			Triangles: trianglesInSets(1, 0, 1),
			EdgeGroups: []mesh.EdgeGroup{
				{VertexSet: 0, Edges: []mesh.Edge{{TriIndex: [2]uint32{0, 5}}}},
				{VertexSet: 1},
			},
		}
		if err := reorganiseTriangles(ed); !chunk.IsKind(err, chunk.ErrCorruptData) {
			t.Errorf("error = %v, want corrupt data", err)
		}
	})
}
