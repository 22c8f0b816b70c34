// Package scene provides the format-agnostic in-memory model representation
// shared by the conversion pipeline: geometry, skeleton, animation, materials.
package scene

import (
	"errors"
	"fmt"

	"github.com/ShadoowDz/DarkGamersZ/pkg/math"
)

// ErrMalformedScene reports structurally invalid input: out-of-range indices,
// degenerate triangles, a cyclic or multi-rooted bone graph.
var ErrMalformedScene = errors.New("malformed scene")

// RootBone is the parent index of the skeleton root.
const RootBone = -1

// Influence binds a vertex to a bone with a blend weight.
type Influence struct {
	Bone   int
	Weight float32
}

// Vertex holds position, shading normal, texture coordinate and skin weights.
type Vertex struct {
	Position math.Vec3
	Normal   math.Vec3
	UV       math.Vec2
	Weights  []Influence
}

// Triangle references three vertices and a material.
type Triangle struct {
	V        [3]int
	Material int
}

// Bone is one record in the skeleton arena. Parent is an index into
// Scene.Bones, or RootBone for the root. Position and Rotation describe the
// bind-pose local transform.
type Bone struct {
	Name     string
	Parent   int
	Position math.Vec3
	Rotation math.Quat
}

// BonePose is one bone's local transform sample within a keyframe.
type BonePose struct {
	Position math.Vec3
	Rotation math.Quat
}

// Keyframe samples every bone at one timestamp. Bones is indexed in step with
// Scene.Bones.
type Keyframe struct {
	Time  float32
	Bones []BonePose
}

// Sequence is a named animation: ordered keyframes at a nominal frame rate.
type Sequence struct {
	Name string
	FPS  float32
	Keys []Keyframe
}

// Material references a texture by index into Scene.Textures (or -1 for none).
type Material struct {
	Name    string
	Texture int
	Flags   uint32
}

// Texture is either source RGBA pixels (4 bytes per pixel, not yet quantized)
// or an indexed image with a palette. Exactly one of RGBA and Index is set.
type Texture struct {
	Name    string
	Width   int
	Height  int
	RGBA    []byte       // len == Width*Height*4 when set
	Palette [][3]uint8   // quantized palette, at most 256 entries
	Index   []byte       // len == Width*Height when set
}

// Indexed reports whether the texture has been quantized to palette form.
func (t *Texture) Indexed() bool {
	return t.Palette != nil
}

// Scene is the mutable intermediate representation of one conversion job.
// It is built once from parsed input, mutated in place by each pipeline pass
// in turn, and discarded after encoding.
type Scene struct {
	Name      string
	Vertices  []Vertex
	Triangles []Triangle
	Bones     []Bone
	Sequences []Sequence
	Materials []Material
	Textures  []Texture
}

// Validate checks the structural invariants the pipeline depends on. All
// failures wrap ErrMalformedScene.
func (s *Scene) Validate() error {
	if err := s.validateGeometry(); err != nil {
		return err
	}
	if err := s.validateSkeleton(); err != nil {
		return err
	}
	if err := s.validateAnimations(); err != nil {
		return err
	}
	return s.validateMaterials()
}

func (s *Scene) validateGeometry() error {
	for i, tri := range s.Triangles {
		for _, v := range tri.V {
			if v < 0 || v >= len(s.Vertices) {
				return fmt.Errorf("%w: triangle %d references vertex %d of %d", ErrMalformedScene, i, v, len(s.Vertices))
			}
		}
		if tri.V[0] == tri.V[1] || tri.V[1] == tri.V[2] || tri.V[0] == tri.V[2] {
			return fmt.Errorf("%w: triangle %d is degenerate (%v)", ErrMalformedScene, i, tri.V)
		}
		if tri.Material < 0 || (len(s.Materials) > 0 && tri.Material >= len(s.Materials)) {
			return fmt.Errorf("%w: triangle %d references material %d of %d", ErrMalformedScene, i, tri.Material, len(s.Materials))
		}
		if len(s.Materials) == 0 && tri.Material != 0 {
			return fmt.Errorf("%w: triangle %d references material %d but scene has none", ErrMalformedScene, i, tri.Material)
		}
	}

	for i, v := range s.Vertices {
		for _, w := range v.Weights {
			if w.Bone < 0 || w.Bone >= len(s.Bones) {
				return fmt.Errorf("%w: vertex %d weighted to bone %d of %d", ErrMalformedScene, i, w.Bone, len(s.Bones))
			}
			if w.Weight < 0 {
				return fmt.Errorf("%w: vertex %d has negative weight %f", ErrMalformedScene, i, w.Weight)
			}
		}
	}
	return nil
}

func (s *Scene) validateSkeleton() error {
	roots := 0
	for i, b := range s.Bones {
		if b.Parent == RootBone {
			roots++
			continue
		}
		if b.Parent < 0 || b.Parent >= len(s.Bones) {
			return fmt.Errorf("%w: bone %d (%s) has parent %d of %d", ErrMalformedScene, i, b.Name, b.Parent, len(s.Bones))
		}
	}
	if len(s.Bones) > 0 && roots != 1 {
		return fmt.Errorf("%w: skeleton has %d roots, want 1", ErrMalformedScene, roots)
	}

	// Walk each parent chain; revisiting a bone within one walk means a cycle.
	for i := range s.Bones {
		seen := make(map[int]bool)
		for b := i; b != RootBone; b = s.Bones[b].Parent {
			if seen[b] {
				return fmt.Errorf("%w: bone %d is part of a parent cycle", ErrMalformedScene, i)
			}
			seen[b] = true
		}
	}
	return nil
}

func (s *Scene) validateAnimations() error {
	for _, seq := range s.Sequences {
		prev := float32(0)
		for k, key := range seq.Keys {
			if k > 0 && key.Time <= prev {
				return fmt.Errorf("%w: sequence %q keyframe %d time %f not after %f", ErrMalformedScene, seq.Name, k, key.Time, prev)
			}
			prev = key.Time
			if len(key.Bones) != len(s.Bones) {
				return fmt.Errorf("%w: sequence %q keyframe %d has %d bone poses, want %d", ErrMalformedScene, seq.Name, k, len(key.Bones), len(s.Bones))
			}
		}
	}
	return nil
}

func (s *Scene) validateMaterials() error {
	for i, m := range s.Materials {
		if m.Texture != -1 && (m.Texture < 0 || m.Texture >= len(s.Textures)) {
			return fmt.Errorf("%w: material %d (%s) references texture %d of %d", ErrMalformedScene, i, m.Name, m.Texture, len(s.Textures))
		}
	}
	for i, t := range s.Textures {
		if t.Width <= 0 || t.Height <= 0 {
			return fmt.Errorf("%w: texture %d (%s) has size %dx%d", ErrMalformedScene, i, t.Name, t.Width, t.Height)
		}
		switch {
		case t.Indexed():
			if len(t.Index) != t.Width*t.Height {
				return fmt.Errorf("%w: texture %d (%s) index buffer has %d bytes, want %d", ErrMalformedScene, i, t.Name, len(t.Index), t.Width*t.Height)
			}
			for _, idx := range t.Index {
				if int(idx) >= len(t.Palette) {
					return fmt.Errorf("%w: texture %d (%s) pixel index %d outside palette of %d", ErrMalformedScene, i, t.Name, idx, len(t.Palette))
				}
			}
		case t.RGBA != nil:
			if len(t.RGBA) != t.Width*t.Height*4 {
				return fmt.Errorf("%w: texture %d (%s) RGBA buffer has %d bytes, want %d", ErrMalformedScene, i, t.Name, len(t.RGBA), t.Width*t.Height*4)
			}
		default:
			return fmt.Errorf("%w: texture %d (%s) has no pixel data", ErrMalformedScene, i, t.Name)
		}
	}
	return nil
}

// Root returns the index of the skeleton root, or RootBone if there are no bones.
func (s *Scene) Root() int {
	for i, b := range s.Bones {
		if b.Parent == RootBone {
			return i
		}
	}
	return RootBone
}

// BoneChildren returns the indices of all direct children of the given bone.
func (s *Scene) BoneChildren(bone int) []int {
	var children []int
	for i, b := range s.Bones {
		if b.Parent == bone {
			children = append(children, i)
		}
	}
	return children
}

// VertexTriangles returns, for every vertex, the indices of the triangles
// referencing it.
func (s *Scene) VertexTriangles() [][]int {
	adj := make([][]int, len(s.Vertices))
	for ti, tri := range s.Triangles {
		for _, v := range tri.V {
			adj[v] = append(adj[v], ti)
		}
	}
	return adj
}

// Bounds returns the axis-aligned bounding box of all vertex positions.
// A scene with no vertices returns two zero vectors.
func (s *Scene) Bounds() (bbmin, bbmax math.Vec3) {
	if len(s.Vertices) == 0 {
		return math.Vec3{}, math.Vec3{}
	}
	bbmin = s.Vertices[0].Position
	bbmax = bbmin
	for _, v := range s.Vertices[1:] {
		bbmin = bbmin.Min(v.Position)
		bbmax = bbmax.Max(v.Position)
	}
	return bbmin, bbmax
}
