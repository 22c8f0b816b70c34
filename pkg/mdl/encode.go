package mdl

import (
	"encoding/binary"
	"fmt"
	stdmath "math"
	"sort"

	"github.com/ShadoowDz/DarkGamersZ/pkg/math"
	"github.com/ShadoowDz/DarkGamersZ/pkg/scene"
)

// Fixed record sizes. All fields are little-endian; counts and offsets are
// 32-bit, vectors are 32-bit floats.
const (
	headerSize = 4 + 4 + modelNameLen + 4 + // magic, version, name, length
		5*12 + 4 + // eye position, hull min/max, view min/max, flags
		2*4 + 2*4 + 2*4 + // bones, bone controllers, hitboxes
		2*4 + 2*4 + // sequences, sequence groups
		3*4 + 3*4 + // textures (+data offset), skins (refs, families, offset)
		2*4 + 2*4 + // body parts, attachments
		3*4 + 3*4 // sound table, transitions

	boneRecordSize   = boneNameLen + 4 + 4 + 6*4 + 4*12 // name, parent, flags, controllers, pos/rot/scales
	vertexRecordSize = 1 + 12 + 12 + 8                  // bone, position, normal, uv
	groupHeaderSize  = 4 + 4                            // material, triangle count
	triangleSize     = 3 * 2                            // three uint16 vertex indices
	seqHeaderSize    = sequenceNameLen + 4 + 4 + 4 + 4 + 4 + 2*12
	bonePoseSize     = 12 + 16 // position + quaternion
	texRecordSize    = textureNameLen + 4 + 4 + 4 + 4
	paletteSize      = MaxPaletteColors * 3
)

// triGroup is one per-material triangle batch.
type triGroup struct {
	material  int
	triangles []int
}

// Encode serializes a compliant scene into the MDL byte layout. Every section
// is sized first, absolute offsets are derived from the sizes, and payloads
// are written in a single forward pass; offsets are never backpatched.
// A ceiling violation here means an upstream pass broke its contract, so the
// job is aborted with a *CeilingError.
func Encode(s *scene.Scene, limits Limits) ([]byte, error) {
	if err := limits.Check(s); err != nil {
		return nil, err
	}
	for i := range s.Textures {
		if !s.Textures[i].Indexed() {
			return nil, fmt.Errorf("%w: texture %d (%s)", ErrTextureNotIndexed, i, s.Textures[i].Name)
		}
	}

	groups := groupTriangles(s)

	// Size pass.
	bodySize := 0
	if len(s.Vertices) > 0 {
		bodySize = 4 + 4 + len(s.Vertices)*vertexRecordSize
		for _, g := range groups {
			bodySize += groupHeaderSize + len(g.triangles)*triangleSize
		}
	}
	seqSize := 0
	for _, seq := range s.Sequences {
		seqSize += seqHeaderSize + len(seq.Keys)*(4+len(s.Bones)*bonePoseSize)
	}
	texDataSize := 0
	for _, tex := range s.Textures {
		texDataSize += paletteSize + tex.Width*tex.Height
	}

	// Offset pass. Sections follow the header in a fixed order: bones, body
	// part, sequences, texture directory, texture data.
	boneOffset := headerSize
	bodyOffset := boneOffset + len(s.Bones)*boneRecordSize
	seqOffset := bodyOffset + bodySize
	texOffset := seqOffset + seqSize
	texDataOffset := texOffset + len(s.Textures)*texRecordSize
	total := texDataOffset + texDataSize

	texPayloadOffsets := make([]int, len(s.Textures))
	next := texDataOffset
	for i, tex := range s.Textures {
		texPayloadOffsets[i] = next
		next += paletteSize + tex.Width*tex.Height
	}

	// Write pass.
	w := newWriter(total)
	writeHeader(w, s, headerValues{
		length:        total,
		boneOffset:    boneOffset,
		bodyOffset:    bodyOffset,
		seqOffset:     seqOffset,
		texOffset:     texOffset,
		texDataOffset: texDataOffset,
	})
	writeBones(w, s)
	writeBodyPart(w, s, groups)
	writeSequences(w, s)
	writeTextureDir(w, s, texPayloadOffsets)
	writeTextureData(w, s)

	if w.pos != total {
		return nil, fmt.Errorf("encoder wrote %d bytes, sized %d", w.pos, total)
	}
	return w.buf, nil
}

type headerValues struct {
	length        int
	boneOffset    int
	bodyOffset    int
	seqOffset     int
	texOffset     int
	texDataOffset int
}

func writeHeader(w *writer, s *scene.Scene, hv headerValues) {
	bbmin, bbmax := s.Bounds()

	w.raw([]byte(Magic))
	w.u32(Version)
	w.name(s.Name, modelNameLen)
	w.u32(uint32(hv.length))

	w.vec3(math.Vec3{}) // eye position
	w.vec3(bbmin)       // hull min
	w.vec3(bbmax)
	w.vec3(bbmin) // view min
	w.vec3(bbmax)
	w.u32(0) // flags

	w.countOffset(len(s.Bones), hv.boneOffset)
	w.countOffset(0, 0) // bone controllers
	w.countOffset(0, 0) // hitboxes
	w.countOffset(len(s.Sequences), hv.seqOffset)
	w.countOffset(0, 0) // sequence groups

	w.countOffset(len(s.Textures), hv.texOffset)
	if len(s.Textures) > 0 {
		w.u32(uint32(hv.texDataOffset))
	} else {
		w.u32(0)
	}
	w.u32(0) // skin references
	w.u32(0) // skin families
	w.u32(0) // skin offset

	if len(s.Vertices) > 0 {
		w.countOffset(1, hv.bodyOffset)
	} else {
		w.countOffset(0, 0)
	}
	w.countOffset(0, 0) // attachments

	w.u32(0) // sound table
	w.u32(0)
	w.u32(0)
	w.u32(0) // transitions
	w.u32(0)
	w.u32(0)
}

func writeBones(w *writer, s *scene.Scene) {
	for _, b := range s.Bones {
		w.name(b.Name, boneNameLen)
		w.i32(int32(b.Parent))
		w.u32(0) // flags
		for i := 0; i < 6; i++ {
			w.i32(-1) // bone controller slots
		}
		w.vec3(b.Position)
		rx, ry, rz := b.Rotation.ToEuler()
		w.vec3(math.Vec3{X: rx, Y: ry, Z: rz})
		w.vec3(math.Vec3{X: 1, Y: 1, Z: 1}) // position scale
		w.vec3(math.Vec3{X: 1, Y: 1, Z: 1}) // rotation scale
	}
}

func writeBodyPart(w *writer, s *scene.Scene, groups []triGroup) {
	if len(s.Vertices) == 0 {
		return
	}
	w.u32(uint32(len(s.Vertices)))
	w.u32(uint32(len(groups)))
	for i := range s.Vertices {
		v := &s.Vertices[i]
		w.u8(dominantBone(s, v))
		w.vec3(v.Position)
		w.vec3(v.Normal)
		w.f32(v.UV.X)
		w.f32(v.UV.Y)
	}
	for _, g := range groups {
		w.u32(uint32(g.material))
		w.u32(uint32(len(g.triangles)))
		for _, ti := range g.triangles {
			tri := s.Triangles[ti]
			w.u16(uint16(tri.V[0]))
			w.u16(uint16(tri.V[1]))
			w.u16(uint16(tri.V[2]))
		}
	}
}

func writeSequences(w *writer, s *scene.Scene) {
	bbmin, bbmax := s.Bounds()
	for _, seq := range s.Sequences {
		w.name(seq.Name, sequenceNameLen)
		w.f32(seq.FPS)
		w.u32(0) // flags
		w.u32(0) // activity
		w.u32(0) // activity weight
		w.u32(uint32(len(seq.Keys)))
		w.vec3(bbmin)
		w.vec3(bbmax)
		for _, key := range seq.Keys {
			w.f32(key.Time)
			for _, pose := range key.Bones {
				w.vec3(pose.Position)
				w.f32(pose.Rotation.X)
				w.f32(pose.Rotation.Y)
				w.f32(pose.Rotation.Z)
				w.f32(pose.Rotation.W)
			}
		}
	}
}

func writeTextureDir(w *writer, s *scene.Scene, payloadOffsets []int) {
	for i, tex := range s.Textures {
		w.name(tex.Name, textureNameLen)
		w.u32(0) // flags
		w.u32(uint32(tex.Width))
		w.u32(uint32(tex.Height))
		w.u32(uint32(payloadOffsets[i]))
	}
}

func writeTextureData(w *writer, s *scene.Scene) {
	for _, tex := range s.Textures {
		for i := 0; i < MaxPaletteColors; i++ {
			if i < len(tex.Palette) {
				w.u8(tex.Palette[i][0])
				w.u8(tex.Palette[i][1])
				w.u8(tex.Palette[i][2])
			} else {
				w.u8(0)
				w.u8(0)
				w.u8(0)
			}
		}
		w.raw(tex.Index)
	}
}

// groupTriangles batches triangles per material in ascending material order.
// Within a group, original triangle order is preserved so output is stable.
func groupTriangles(s *scene.Scene) []triGroup {
	byMaterial := make(map[int][]int)
	for i, tri := range s.Triangles {
		byMaterial[tri.Material] = append(byMaterial[tri.Material], i)
	}
	materials := make([]int, 0, len(byMaterial))
	for m := range byMaterial {
		materials = append(materials, m)
	}
	sort.Ints(materials)

	groups := make([]triGroup, 0, len(materials))
	for _, m := range materials {
		groups = append(groups, triGroup{material: m, triangles: byMaterial[m]})
	}
	return groups
}

// dominantBone returns the highest-weight influence, ties broken by lower
// bone index. Unweighted vertices ride the root bone.
func dominantBone(s *scene.Scene, v *scene.Vertex) uint8 {
	best := -1
	bestWeight := float32(-1)
	for _, inf := range v.Weights {
		if inf.Weight > bestWeight || (inf.Weight == bestWeight && inf.Bone < best) {
			best = inf.Bone
			bestWeight = inf.Weight
		}
	}
	if best < 0 {
		if root := s.Root(); root != scene.RootBone {
			return uint8(root)
		}
		return 0
	}
	return uint8(best)
}

// writer fills a preallocated buffer with little-endian fields, tracking the
// absolute write position so size/offset mismatches are caught.
type writer struct {
	buf []byte
	pos int
}

func newWriter(size int) *writer {
	return &writer{buf: make([]byte, size)}
}

func (w *writer) raw(b []byte) {
	copy(w.buf[w.pos:], b)
	w.pos += len(b)
}

func (w *writer) u8(v uint8) {
	w.buf[w.pos] = v
	w.pos++
}

func (w *writer) u16(v uint16) {
	binary.LittleEndian.PutUint16(w.buf[w.pos:], v)
	w.pos += 2
}

func (w *writer) u32(v uint32) {
	binary.LittleEndian.PutUint32(w.buf[w.pos:], v)
	w.pos += 4
}

func (w *writer) i32(v int32) {
	w.u32(uint32(v))
}

func (w *writer) f32(v float32) {
	w.u32(stdmath.Float32bits(v))
}

func (w *writer) vec3(v math.Vec3) {
	w.f32(v.X)
	w.f32(v.Y)
	w.f32(v.Z)
}

func (w *writer) countOffset(count, offset int) {
	w.u32(uint32(count))
	w.u32(uint32(offset))
}

// name writes a fixed-width null-terminated string field.
func (w *writer) name(s string, width int) {
	b := []byte(s)
	if len(b) >= width {
		b = b[:width-1]
	}
	copy(w.buf[w.pos:], b)
	w.pos += width
}
