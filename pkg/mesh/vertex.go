package mesh

import (
	"encoding/binary"
	"fmt"
	"sort"
)

// VertexElementSemantic identifies what a vertex element means.
type VertexElementSemantic uint16

const (
	SemanticPosition     VertexElementSemantic = 1
	SemanticBlendWeights VertexElementSemantic = 2
	SemanticBlendIndices VertexElementSemantic = 3
	SemanticNormal       VertexElementSemantic = 4
	SemanticDiffuse      VertexElementSemantic = 5
	SemanticSpecular     VertexElementSemantic = 6
	SemanticTexCoords    VertexElementSemantic = 7
	SemanticBinormal     VertexElementSemantic = 8
	SemanticTangent      VertexElementSemantic = 9
)

var semanticNames = map[VertexElementSemantic]string{
	SemanticPosition:     "position",
	SemanticBlendWeights: "blend_weights",
	SemanticBlendIndices: "blend_indices",
	SemanticNormal:       "normal",
	SemanticDiffuse:      "diffuse",
	SemanticSpecular:     "specular",
	SemanticTexCoords:    "texcoord",
	SemanticBinormal:     "binormal",
	SemanticTangent:      "tangent",
}

func (s VertexElementSemantic) String() string {
	if n, ok := semanticNames[s]; ok {
		return n
	}
	return fmt.Sprintf("semantic(%d)", uint16(s))
}

// VertexElementType is the storage type of one vertex element.
type VertexElementType uint16

const (
	TypeFloat1 VertexElementType = iota
	TypeFloat2
	TypeFloat3
	TypeFloat4
	TypeColour // Platform packed colour, stored as ARGB in files
	TypeShort1
	TypeShort2
	TypeShort3
	TypeShort4
	TypeUByte4
	TypeColourARGB
	TypeColourABGR
	TypeDouble1
	TypeDouble2
	TypeDouble3
	TypeDouble4
	TypeUShort1
	TypeUShort2
	TypeUShort3
	TypeUShort4
	TypeInt1
	TypeInt2
	TypeInt3
	TypeInt4
	TypeUInt1
	TypeUInt2
	TypeUInt3
	TypeUInt4
	TypeByte4
	TypeByte4Norm
	TypeUByte4Norm
	TypeShort2Norm
	TypeShort4Norm
	TypeUShort2Norm
	TypeUShort4Norm
)

type typeInfo struct {
	name  string
	count int // components
	width int // bytes per component
	swap  int // byte-swap width, 0 for byte packed types
}

var typeTable = [...]typeInfo{
	TypeFloat1:      {"float1", 1, 4, 4},
	TypeFloat2:      {"float2", 2, 4, 4},
	TypeFloat3:      {"float3", 3, 4, 4},
	TypeFloat4:      {"float4", 4, 4, 4},
	TypeColour:      {"colour", 1, 4, 4},
	TypeShort1:      {"short1", 1, 2, 2},
	TypeShort2:      {"short2", 2, 2, 2},
	TypeShort3:      {"short3", 3, 2, 2},
	TypeShort4:      {"short4", 4, 2, 2},
	TypeUByte4:      {"ubyte4", 4, 1, 0},
	TypeColourARGB:  {"colour_argb", 1, 4, 4},
	TypeColourABGR:  {"colour_abgr", 1, 4, 4},
	TypeDouble1:     {"double1", 1, 8, 8},
	TypeDouble2:     {"double2", 2, 8, 8},
	TypeDouble3:     {"double3", 3, 8, 8},
	TypeDouble4:     {"double4", 4, 8, 8},
	TypeUShort1:     {"ushort1", 1, 2, 2},
	TypeUShort2:     {"ushort2", 2, 2, 2},
	TypeUShort3:     {"ushort3", 3, 2, 2},
	TypeUShort4:     {"ushort4", 4, 2, 2},
	TypeInt1:        {"int1", 1, 4, 4},
	TypeInt2:        {"int2", 2, 4, 4},
	TypeInt3:        {"int3", 3, 4, 4},
	TypeInt4:        {"int4", 4, 4, 4},
	TypeUInt1:       {"uint1", 1, 4, 4},
	TypeUInt2:       {"uint2", 2, 4, 4},
	TypeUInt3:       {"uint3", 3, 4, 4},
	TypeUInt4:       {"uint4", 4, 4, 4},
	TypeByte4:       {"byte4", 4, 1, 0},
	TypeByte4Norm:   {"byte4_norm", 4, 1, 0},
	TypeUByte4Norm:  {"ubyte4_norm", 4, 1, 0},
	TypeShort2Norm:  {"short2_norm", 2, 2, 2},
	TypeShort4Norm:  {"short4_norm", 4, 2, 2},
	TypeUShort2Norm: {"ushort2_norm", 2, 2, 2},
	TypeUShort4Norm: {"ushort4_norm", 4, 2, 2},
}

// Valid reports whether t is a known element type.
func (t VertexElementType) Valid() bool {
	return int(t) < len(typeTable)
}

func (t VertexElementType) String() string {
	if !t.Valid() {
		return fmt.Sprintf("type(%d)", uint16(t))
	}
	return typeTable[t].name
}

// Size returns the element size in bytes, 0 for unknown types.
func (t VertexElementType) Size() int {
	if !t.Valid() {
		return 0
	}
	return typeTable[t].count * typeTable[t].width
}

// ComponentCount returns the number of components of t.
func (t VertexElementType) ComponentCount() int {
	if !t.Valid() {
		return 0
	}
	return typeTable[t].count
}

// SwapWidth returns the width used when byte-swapping t, or 0 when the type
// is a packed byte array that is never swapped.
func (t VertexElementType) SwapWidth() int {
	if !t.Valid() {
		return 0
	}
	return typeTable[t].swap
}

// IsColour reports whether t is one of the packed colour types.
func (t VertexElementType) IsColour() bool {
	return t == TypeColour || t == TypeColourARGB || t == TypeColourABGR
}

// FloatType returns the float type with dim components.
func FloatType(dim int) (VertexElementType, bool) {
	if dim < 1 || dim > 4 {
		return 0, false
	}
	return TypeFloat1 + VertexElementType(dim-1), true
}

// VertexElement describes one attribute inside a vertex buffer.
type VertexElement struct {
	Source   uint16
	Offset   uint16
	Type     VertexElementType
	Semantic VertexElementSemantic
	Index    uint16
}

// Size returns the element size in bytes.
func (e VertexElement) Size() int {
	return e.Type.Size()
}

// VertexDeclaration is an ordered list of vertex elements.
type VertexDeclaration struct {
	Elements []VertexElement
}

// AddElement appends an element and returns it.
func (d *VertexDeclaration) AddElement(source, offset uint16, typ VertexElementType, sem VertexElementSemantic, index uint16) VertexElement {
	e := VertexElement{Source: source, Offset: offset, Type: typ, Semantic: sem, Index: index}
	d.Elements = append(d.Elements, e)
	return e
}

// VertexSize returns the summed size of all elements bound to source.
func (d *VertexDeclaration) VertexSize(source uint16) int {
	size := 0
	for _, e := range d.Elements {
		if e.Source == source {
			size += e.Size()
		}
	}
	return size
}

// ElementsBySource returns the elements bound to source in declaration order.
func (d *VertexDeclaration) ElementsBySource(source uint16) []VertexElement {
	var out []VertexElement
	for _, e := range d.Elements {
		if e.Source == source {
			out = append(out, e)
		}
	}
	return out
}

// FindElement returns the element with the given semantic and index.
func (d *VertexDeclaration) FindElement(sem VertexElementSemantic, index uint16) (VertexElement, bool) {
	for _, e := range d.Elements {
		if e.Semantic == sem && e.Index == index {
			return e, true
		}
	}
	return VertexElement{}, false
}

// VertexData is a vertex declaration plus the buffers bound to its sources.
// Buffer contents are always kept in host byte order.
type VertexData struct {
	VertexStart uint32
	VertexCount uint32
	Declaration VertexDeclaration
	Bindings    map[uint16]*VertexBuffer
}

// NewVertexData returns an empty VertexData.
func NewVertexData() *VertexData {
	return &VertexData{Bindings: make(map[uint16]*VertexBuffer)}
}

// SetBinding binds buf to source.
func (v *VertexData) SetBinding(source uint16, buf *VertexBuffer) {
	if v.Bindings == nil {
		v.Bindings = make(map[uint16]*VertexBuffer)
	}
	v.Bindings[source] = buf
}

// BindIndices returns the bound sources in ascending order.
func (v *VertexData) BindIndices() []uint16 {
	out := make([]uint16, 0, len(v.Bindings))
	for idx := range v.Bindings {
		out = append(out, idx)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// NextFreeBinding returns the lowest source index with no buffer bound.
func (v *VertexData) NextFreeBinding() uint16 {
	var i uint16
	for {
		if _, ok := v.Bindings[i]; !ok {
			return i
		}
		i++
	}
}

// ConvertPackedColour rewrites every ARGB packed colour element to ABGR by
// swapping its red and blue channels, and retypes the element. It returns
// the number of elements converted.
func (v *VertexData) ConvertPackedColour() int {
	converted := 0
	for i := range v.Declaration.Elements {
		e := &v.Declaration.Elements[i]
		if e.Type != TypeColour && e.Type != TypeColourARGB {
			continue
		}
		buf := v.Bindings[e.Source]
		if buf != nil {
			for vert := 0; vert < buf.NumVertices; vert++ {
				off := vert*buf.VertexSize + int(e.Offset)
				if off+4 > len(buf.Data) {
					break
				}
				p := buf.Data[off : off+4]
				c := binary.NativeEndian.Uint32(p)
				c = (c & 0xFF00FF00) | (c&0x00FF0000)>>16 | (c&0x000000FF)<<16
				binary.NativeEndian.PutUint32(p, c)
			}
		}
		e.Type = TypeColourABGR
		converted++
	}
	return converted
}
