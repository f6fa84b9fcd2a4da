package formats

import (
	"github.com/Faultbox/meshcodec/pkg/chunk"
	"github.com/Faultbox/meshcodec/pkg/math"
	"github.com/Faultbox/meshcodec/pkg/mesh"
)

const (
	edgeTriangleSize = 8*chunk.SizeUint32 + 4*chunk.SizeFloat32
	edgeSize         = 6*chunk.SizeUint32 + chunk.SizeBool
)

// edgeGroupRanges reports whether edge groups store their triangle range.
// Older files keep triangles grouped by vertex set implicitly.
func (f format) edgeGroupRanges() bool {
	return f.rev.atLeast(rev1_4)
}

func (e *encoder) lodIsManual(lod int) bool {
	return lod > 0 && e.m.LodLevels[lod-1].IsManual()
}

func (e *encoder) calcEdgeListSize() int {
	size := chunk.HeaderSize
	for lod := 0; lod < e.lodCount; lod++ {
		size += e.calcEdgeListLodSize(lod)
	}
	return size
}

func (e *encoder) calcEdgeListLodSize(lod int) int {
	size := chunk.HeaderSize
	size += chunk.SizeUint16 // unsigned short lodIndex
	size += chunk.SizeBool   // bool isManual
	if e.lodIsManual(lod) {
		return size
	}
	ed := e.m.EdgeList(lod)
	if e.f.edgeGroupRanges() {
		size += chunk.SizeBool // bool isClosed
	}
	size += chunk.SizeUint32 // unsigned long numTriangles
	size += chunk.SizeUint32 // unsigned long numEdgeGroups
	size += len(ed.Triangles) * edgeTriangleSize
	for i := range ed.EdgeGroups {
		size += e.calcEdgeGroupSize(&ed.EdgeGroups[i])
	}
	return size
}

func (e *encoder) calcEdgeGroupSize(g *mesh.EdgeGroup) int {
	size := chunk.HeaderSize
	size += chunk.SizeUint32 // unsigned long vertexSet
	if e.f.edgeGroupRanges() {
		size += chunk.SizeUint32 // unsigned long triStart
		size += chunk.SizeUint32 // unsigned long triCount
	}
	size += chunk.SizeUint32 // unsigned long numEdges
	size += len(g.Edges) * edgeSize
	return size
}

func (e *encoder) writeEdgeList() {
	e.w.WriteChunkHeader(chunkEdgeLists, uint32(e.calcEdgeListSize()))
	e.w.PushInnerChunk()
	for lod := 0; lod < e.lodCount; lod++ {
		manual := e.lodIsManual(lod)
		e.w.WriteChunkHeader(chunkEdgeListLod, uint32(e.calcEdgeListLodSize(lod)))
		e.w.WriteUint16(uint16(lod))
		e.w.WriteBool(manual)
		if manual {
			continue
		}

		ed := e.m.EdgeList(lod)
		if e.f.edgeGroupRanges() {
			e.w.WriteBool(ed.IsClosed)
		}
		e.w.WriteUint32(uint32(len(ed.Triangles)))
		e.w.WriteUint32(uint32(len(ed.EdgeGroups)))
		for i := range ed.Triangles {
			t := &ed.Triangles[i]
			e.w.WriteUint32(t.IndexSet)
			e.w.WriteUint32(t.VertexSet)
			e.w.WriteUint32s(t.VertIndex[:])
			e.w.WriteUint32s(t.SharedVertIndex[:])
			e.w.WriteFloat32s(t.Normal[:])
		}

		e.w.PushInnerChunk()
		for i := range ed.EdgeGroups {
			e.writeEdgeGroup(&ed.EdgeGroups[i])
		}
		e.w.PopInnerChunk()
	}
	e.w.PopInnerChunk()
}

func (e *encoder) writeEdgeGroup(g *mesh.EdgeGroup) {
	e.w.WriteChunkHeader(chunkEdgeGroup, uint32(e.calcEdgeGroupSize(g)))
	e.w.WriteUint32(g.VertexSet)
	if e.f.edgeGroupRanges() {
		e.w.WriteUint32(g.TriStart)
		e.w.WriteUint32(g.TriCount)
	}
	e.w.WriteUint32(uint32(len(g.Edges)))
	for i := range g.Edges {
		edge := &g.Edges[i]
		e.w.WriteUint32s(edge.TriIndex[:])
		e.w.WriteUint32s(edge.VertIndex[:])
		e.w.WriteUint32s(edge.SharedVertIndex[:])
		e.w.WriteBool(edge.Degenerate)
	}
}

func (d *decoder) readEdgeList() error {
	const op = "readEdgeList"
	d.m.EdgeLists = make([]*mesh.EdgeData, d.m.NumLodLevels())

	d.r.PushInnerChunk()
	for {
		_, ok, err := d.nextChild(chunkEdgeListLod)
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		lodIndex, err := d.r.ReadUint16()
		if err != nil {
			return err
		}
		manual, err := d.r.ReadBool()
		if err != nil {
			return err
		}
		if int(lodIndex) >= len(d.m.EdgeLists) {
			return chunk.Errorf(chunk.ErrCorruptData, op,
				"edge list for LOD %d, mesh has %d levels", lodIndex, len(d.m.EdgeLists))
		}
		if manual {
			d.m.EdgeLists[lodIndex] = nil
			continue
		}
		ed, err := d.readEdgeData()
		if err != nil {
			return err
		}
		d.m.EdgeLists[lodIndex] = ed
	}
	d.m.EdgeListsBuilt = true
	return d.r.PopInnerChunk()
}

func (d *decoder) readEdgeData() (*mesh.EdgeData, error) {
	const op = "readEdgeData"
	ed := &mesh.EdgeData{}
	var err error
	if d.f.edgeGroupRanges() {
		if ed.IsClosed, err = d.r.ReadBool(); err != nil {
			return nil, err
		}
	}
	var counts [2]uint32
	if err := d.r.ReadUint32s(counts[:]); err != nil {
		return nil, err
	}
	numTriangles, numGroups := counts[0], counts[1]
	if int64(numTriangles)*edgeTriangleSize > d.r.Size()-d.r.Offset() {
		return nil, chunk.Errorf(chunk.ErrCorruptData, op, "%d edge triangles exceed the remaining stream", numTriangles)
	}

	ed.Triangles = make([]mesh.EdgeTriangle, numTriangles)
	var raw [8]uint32
	var normal [4]float32
	for i := range ed.Triangles {
		if err := d.r.ReadUint32s(raw[:]); err != nil {
			return nil, err
		}
		if err := d.r.ReadFloat32s(normal[:]); err != nil {
			return nil, err
		}
		ed.Triangles[i] = mesh.EdgeTriangle{
			IndexSet:        raw[0],
			VertexSet:       raw[1],
			VertIndex:       [3]uint32{raw[2], raw[3], raw[4]},
			SharedVertIndex: [3]uint32{raw[5], raw[6], raw[7]},
			Normal:          math.Vec4(normal),
		}
	}

	ed.EdgeGroups = make([]mesh.EdgeGroup, 0, min(numGroups, 1024))
	d.r.PushInnerChunk()
	for g := uint32(0); g < numGroups; g++ {
		if _, err := d.expectChunk(chunkEdgeGroup, op); err != nil {
			return nil, err
		}
		group, err := d.readEdgeGroup()
		if err != nil {
			return nil, err
		}
		ed.EdgeGroups = append(ed.EdgeGroups, group)
	}
	if err := d.r.PopInnerChunk(); err != nil {
		return nil, err
	}

	if !d.f.edgeGroupRanges() {
		ed.IsClosed = true
		for _, g := range ed.EdgeGroups {
			for _, edge := range g.Edges {
				if edge.Degenerate {
					ed.IsClosed = false
				}
			}
		}
		if err := reorganiseTriangles(ed); err != nil {
			return nil, err
		}
	}
	return ed, nil
}

func (d *decoder) readEdgeGroup() (mesh.EdgeGroup, error) {
	const op = "readEdgeGroup"
	var g mesh.EdgeGroup
	var err error
	if g.VertexSet, err = d.r.ReadUint32(); err != nil {
		return g, err
	}
	if d.f.edgeGroupRanges() {
		if g.TriStart, err = d.r.ReadUint32(); err != nil {
			return g, err
		}
		if g.TriCount, err = d.r.ReadUint32(); err != nil {
			return g, err
		}
	}
	numEdges, err := d.r.ReadUint32()
	if err != nil {
		return g, err
	}
	if int64(numEdges)*edgeSize > d.r.Size()-d.r.Offset() {
		return g, chunk.Errorf(chunk.ErrCorruptData, op, "%d edges exceed the remaining stream", numEdges)
	}

	g.Edges = make([]mesh.Edge, numEdges)
	var raw [6]uint32
	for i := range g.Edges {
		if err := d.r.ReadUint32s(raw[:]); err != nil {
			return g, err
		}
		degenerate, err := d.r.ReadBool()
		if err != nil {
			return g, err
		}
		g.Edges[i] = mesh.Edge{
			TriIndex:        [2]uint32{raw[0], raw[1]},
			VertIndex:       [2]uint32{raw[2], raw[3]},
			SharedVertIndex: [2]uint32{raw[4], raw[5]},
			Degenerate:      degenerate,
		}
	}
	return g, nil
}

// reorganiseTriangles fills in each edge group's triangle range for files
// that predate stored ranges. Triangles that are not already contiguous per
// vertex set are reordered, and edge triangle indices remapped to match.
func reorganiseTriangles(ed *mesh.EdgeData) error {
	const op = "reorganiseTriangles"
	numTriangles := uint32(len(ed.Triangles))
	groups := ed.EdgeGroups

	if len(groups) == 1 {
		groups[0].TriStart = 0
		groups[0].TriCount = numTriangles
		return nil
	}
	for i := range groups {
		groups[i].TriStart = 0
		groups[i].TriCount = 0
	}

	grouped := true
	var last *mesh.EdgeGroup
	for t := range ed.Triangles {
		set := ed.Triangles[t].VertexSet
		if int(set) >= len(groups) {
			return chunk.Errorf(chunk.ErrCorruptData, op, "triangle %d references vertex set %d of %d", t, set, len(groups))
		}
		g := &groups[set]
		if g != last {
			if g.TriCount == 0 && g.TriStart == 0 {
				g.TriStart = uint32(t)
			} else {
				grouped = false
			}
			last = g
		}
		g.TriCount++
	}
	if grouped {
		return nil
	}

	var start uint32
	for i := range groups {
		groups[i].TriStart = start
		start += groups[i].TriCount
		groups[i].TriCount = 0
	}

	remap := make([]uint32, numTriangles)
	triangles := make([]mesh.EdgeTriangle, numTriangles)
	for t, tri := range ed.Triangles {
		g := &groups[tri.VertexSet]
		idx := g.TriStart + g.TriCount
		g.TriCount++
		remap[t] = idx
		triangles[idx] = tri
	}
	ed.Triangles = triangles

	for gi := range groups {
		for ei := range groups[gi].Edges {
			edge := &groups[gi].Edges[ei]
			if edge.TriIndex[0] >= numTriangles || (!edge.Degenerate && edge.TriIndex[1] >= numTriangles) {
				return chunk.Errorf(chunk.ErrCorruptData, op, "edge references triangle beyond %d", numTriangles)
			}
			edge.TriIndex[0] = remap[edge.TriIndex[0]]
			if !edge.Degenerate {
				edge.TriIndex[1] = remap[edge.TriIndex[1]]
			}
		}
	}
	return nil
}
