// Package mdl encodes scene models into the GoldSrc MDL binary format and
// parses enough of it back for inspection. The format imposes hard ceilings
// on every structural count; Encode refuses input that exceeds them.
package mdl

import (
	"errors"
	"fmt"

	"github.com/ShadoowDz/DarkGamersZ/pkg/scene"
)

// MDL format identity.
const (
	Magic   = "IDST"
	Version = 10
)

// Format ceilings. These are constants of the target runtime, not tunables.
const (
	MaxVertices      = 2048
	MaxTriangles     = 4080
	MaxBones         = 128
	MaxSequences     = 32
	MaxKeyframes     = 512
	MaxTextureSize   = 512
	MaxPaletteColors = 256
)

// Fixed-width name fields.
const (
	modelNameLen    = 64
	boneNameLen     = 32
	sequenceNameLen = 32
	textureNameLen  = 64
)

// Encoding errors.
var (
	ErrCeilingExceeded   = errors.New("format ceiling exceeded")
	ErrTextureNotIndexed = errors.New("texture has no palette: quantize before encoding")
)

// Decoding errors.
var (
	ErrInvalidMagic       = errors.New("invalid MDL magic: expected 'IDST'")
	ErrUnsupportedVersion = errors.New("unsupported MDL version")
	ErrTruncatedData      = errors.New("truncated MDL data")
)

// Limits carries the format ceilings as an explicit value so they can be
// threaded through the pipeline rather than read from globals. Concurrent
// jobs each hold their own copy.
type Limits struct {
	Vertices      int
	Triangles     int
	Bones         int
	Sequences     int
	Keyframes     int
	TextureSize   int
	PaletteColors int
}

// DefaultLimits returns the GoldSrc ceilings.
func DefaultLimits() Limits {
	return Limits{
		Vertices:      MaxVertices,
		Triangles:     MaxTriangles,
		Bones:         MaxBones,
		Sequences:     MaxSequences,
		Keyframes:     MaxKeyframes,
		TextureSize:   MaxTextureSize,
		PaletteColors: MaxPaletteColors,
	}
}

// CeilingError reports a structural count that exceeds its format ceiling.
type CeilingError struct {
	Ceiling string // which ceiling, e.g. "vertices"
	Limit   int
	Got     int
}

func (e *CeilingError) Error() string {
	return fmt.Sprintf("%s: %s count %d exceeds limit %d", ErrCeilingExceeded.Error(), e.Ceiling, e.Got, e.Limit)
}

// Unwrap lets errors.Is match ErrCeilingExceeded.
func (e *CeilingError) Unwrap() error {
	return ErrCeilingExceeded
}

// Check validates every ceiling against the scene. It returns the first
// violation as a *CeilingError, or nil if the scene is compliant.
func (l Limits) Check(s *scene.Scene) error {
	if len(s.Vertices) > l.Vertices {
		return &CeilingError{Ceiling: "vertices", Limit: l.Vertices, Got: len(s.Vertices)}
	}
	if len(s.Triangles) > l.Triangles {
		return &CeilingError{Ceiling: "triangles", Limit: l.Triangles, Got: len(s.Triangles)}
	}
	if len(s.Bones) > l.Bones {
		return &CeilingError{Ceiling: "bones", Limit: l.Bones, Got: len(s.Bones)}
	}
	if len(s.Sequences) > l.Sequences {
		return &CeilingError{Ceiling: "sequences", Limit: l.Sequences, Got: len(s.Sequences)}
	}
	for _, seq := range s.Sequences {
		if len(seq.Keys) > l.Keyframes {
			return &CeilingError{Ceiling: "keyframes", Limit: l.Keyframes, Got: len(seq.Keys)}
		}
	}
	for _, tex := range s.Textures {
		if tex.Width > l.TextureSize || tex.Height > l.TextureSize {
			return &CeilingError{Ceiling: "texture size", Limit: l.TextureSize, Got: max(tex.Width, tex.Height)}
		}
		if len(tex.Palette) > l.PaletteColors {
			return &CeilingError{Ceiling: "palette colors", Limit: l.PaletteColors, Got: len(tex.Palette)}
		}
	}
	return nil
}
