package mdl

import (
	"encoding/binary"
	"fmt"
	stdmath "math"

	"github.com/ShadoowDz/DarkGamersZ/pkg/math"
)

// BoneInfo is one entry of the decoded bone table.
type BoneInfo struct {
	Name   string
	Parent int32
}

// SequenceInfo is one entry of the decoded sequence directory.
type SequenceInfo struct {
	Name       string
	FPS        float32
	FrameCount int
}

// TextureInfo is one entry of the decoded texture directory.
type TextureInfo struct {
	Name       string
	Width      int
	Height     int
	DataOffset uint32
}

// Info holds the decoded header and section directories of an MDL file.
// Decode reads directories and counts, not full payloads; it exists for
// inspection tooling and round-trip verification.
type Info struct {
	Name    string
	Version uint32
	Length  uint32

	HullMin math.Vec3
	HullMax math.Vec3

	VertexCount   int
	TriangleCount int
	GroupCount    int

	Bones     []BoneInfo
	Sequences []SequenceInfo
	Textures  []TextureInfo
}

// Decode parses the header, bone table, sequence directory and texture
// directory from raw MDL bytes.
func Decode(data []byte) (*Info, error) {
	if len(data) < headerSize {
		return nil, ErrTruncatedData
	}
	if string(data[:4]) != Magic {
		return nil, ErrInvalidMagic
	}

	r := &reader{buf: data, pos: 4}
	info := &Info{}

	info.Version = r.u32()
	if info.Version != Version {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, info.Version)
	}
	info.Name = r.name(modelNameLen)
	info.Length = r.u32()
	if int(info.Length) != len(data) {
		return nil, fmt.Errorf("%w: header length %d, have %d bytes", ErrTruncatedData, info.Length, len(data))
	}

	r.skip(12) // eye position
	info.HullMin = r.vec3()
	info.HullMax = r.vec3()
	r.skip(24) // view min/max
	r.skip(4)  // flags

	numBones, boneOffset := r.u32(), r.u32()
	r.skip(16) // bone controllers, hitboxes
	numSeq, seqOffset := r.u32(), r.u32()
	r.skip(8) // sequence groups
	numTex, texOffset := r.u32(), r.u32()
	r.skip(4)  // texture data offset
	r.skip(12) // skins
	numBodyParts, bodyOffset := r.u32(), r.u32()

	if r.err != nil {
		return nil, ErrTruncatedData
	}

	if err := decodeBones(data, &info.Bones, numBones, boneOffset); err != nil {
		return nil, err
	}
	if numBodyParts > 0 {
		if err := decodeBodyPart(data, info, bodyOffset); err != nil {
			return nil, err
		}
	}
	if err := decodeSequences(data, info, numSeq, seqOffset, len(info.Bones)); err != nil {
		return nil, err
	}
	return info, decodeTextureDir(data, info, numTex, texOffset)
}

func decodeBones(data []byte, out *[]BoneInfo, count, offset uint32) error {
	r := &reader{buf: data, pos: int(offset)}
	for i := uint32(0); i < count; i++ {
		name := r.name(boneNameLen)
		parent := int32(r.u32())
		r.skip(boneRecordSize - boneNameLen - 4)
		if r.err != nil {
			return fmt.Errorf("%w: bone %d", ErrTruncatedData, i)
		}
		*out = append(*out, BoneInfo{Name: name, Parent: parent})
	}
	return nil
}

func decodeBodyPart(data []byte, info *Info, offset uint32) error {
	r := &reader{buf: data, pos: int(offset)}
	numVertices := r.u32()
	numGroups := r.u32()
	r.skip(int(numVertices) * vertexRecordSize)
	info.VertexCount = int(numVertices)
	info.GroupCount = int(numGroups)
	for g := uint32(0); g < numGroups; g++ {
		r.skip(4) // material
		triCount := r.u32()
		r.skip(int(triCount) * triangleSize)
		info.TriangleCount += int(triCount)
	}
	if r.err != nil {
		return fmt.Errorf("%w: body part", ErrTruncatedData)
	}
	return nil
}

func decodeSequences(data []byte, info *Info, count, offset uint32, numBones int) error {
	r := &reader{buf: data, pos: int(offset)}
	for i := uint32(0); i < count; i++ {
		var si SequenceInfo
		si.Name = r.name(sequenceNameLen)
		si.FPS = r.f32()
		r.skip(12) // flags, activity, activity weight
		si.FrameCount = int(r.u32())
		r.skip(24) // bounding box
		r.skip(si.FrameCount * (4 + numBones*bonePoseSize))
		if r.err != nil {
			return fmt.Errorf("%w: sequence %d", ErrTruncatedData, i)
		}
		info.Sequences = append(info.Sequences, si)
	}
	return nil
}

func decodeTextureDir(data []byte, info *Info, count, offset uint32) error {
	r := &reader{buf: data, pos: int(offset)}
	for i := uint32(0); i < count; i++ {
		var ti TextureInfo
		ti.Name = r.name(textureNameLen)
		r.skip(4) // flags
		ti.Width = int(r.u32())
		ti.Height = int(r.u32())
		ti.DataOffset = r.u32()
		if r.err != nil {
			return fmt.Errorf("%w: texture %d", ErrTruncatedData, i)
		}
		info.Textures = append(info.Textures, ti)
	}
	return nil
}

// reader walks a byte slice with little-endian accessors, latching the first
// out-of-bounds access as an error.
type reader struct {
	buf []byte
	pos int
	err error
}

func (r *reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if r.pos+n > len(r.buf) || n < 0 {
		r.err = ErrTruncatedData
		return nil
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b
}

func (r *reader) skip(n int) {
	r.take(n)
}

func (r *reader) u32() uint32 {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (r *reader) f32() float32 {
	return stdmath.Float32frombits(r.u32())
}

func (r *reader) vec3() math.Vec3 {
	return math.Vec3{X: r.f32(), Y: r.f32(), Z: r.f32()}
}

// name reads a fixed-width null-terminated string field.
func (r *reader) name(width int) string {
	b := r.take(width)
	if b == nil {
		return ""
	}
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}
