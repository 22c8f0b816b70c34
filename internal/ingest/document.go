// Package ingest loads scene documents and their referenced texture images
// into a validated scene.Scene. The document is a YAML description of the
// model; textures are ordinary image files resolved relative to it.
package ingest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/ShadoowDz/DarkGamersZ/pkg/math"
	"github.com/ShadoowDz/DarkGamersZ/pkg/scene"
)

// ErrBadDocument marks a scene document that could not be parsed or that
// references something it does not define.
var ErrBadDocument = errors.New("ingest: bad scene document")

type document struct {
	Name      string        `yaml:"name"`
	Vertices  []docVertex   `yaml:"vertices"`
	Triangles []docTriangle `yaml:"triangles"`
	Bones     []docBone     `yaml:"bones"`
	Sequences []docSequence `yaml:"sequences"`
	Materials []docMaterial `yaml:"materials"`
}

type docVertex struct {
	Position [3]float32     `yaml:"position"`
	Normal   [3]float32     `yaml:"normal"`
	UV       [2]float32     `yaml:"uv"`
	UVs      [][2]float32   `yaml:"uvs"` // multi-channel form; only the first survives
	Weights  []docInfluence `yaml:"weights"`
}

type docInfluence struct {
	Bone   int     `yaml:"bone"`
	Weight float32 `yaml:"weight"`
}

type docTriangle struct {
	V        [3]int `yaml:"v"`
	Material int    `yaml:"material"`
}

type docBone struct {
	Name     string     `yaml:"name"`
	Parent   int        `yaml:"parent"`
	Position [3]float32 `yaml:"position"`
	Rotation [3]float32 `yaml:"rotation"` // Euler XYZ, radians
}

type docSequence struct {
	Name string   `yaml:"name"`
	FPS  float32  `yaml:"fps"`
	Keys []docKey `yaml:"keys"`
}

type docKey struct {
	Time  float32   `yaml:"time"`
	Bones []docPose `yaml:"bones"`
}

type docPose struct {
	Position [3]float32 `yaml:"position"`
	Rotation [4]float32 `yaml:"rotation"` // quaternion x, y, z, w
}

type docMaterial struct {
	Name    string `yaml:"name"`
	Texture string `yaml:"texture"` // image file path, relative to the document
	Flags   uint32 `yaml:"flags"`
}

// Load reads a YAML scene document and its referenced texture files and
// returns a validated scene plus any warnings about dropped features.
func Load(path string) (*scene.Scene, []string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("ingest: read %s: %w", path, err)
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, nil, fmt.Errorf("%w: %s: %v", ErrBadDocument, path, err)
	}

	s, warnings, err := build(&doc, filepath.Dir(path))
	if err != nil {
		return nil, nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, nil, err
	}
	return s, warnings, nil
}

func build(doc *document, dir string) (*scene.Scene, []string, error) {
	s := &scene.Scene{Name: doc.Name}
	var warnings []string

	for i, v := range doc.Vertices {
		uv := math.Vec2{X: v.UV[0], Y: v.UV[1]}
		if len(v.UVs) > 0 {
			uv = math.Vec2{X: v.UVs[0][0], Y: v.UVs[0][1]}
			if len(v.UVs) > 1 {
				warnings = append(warnings, fmt.Sprintf(
					"ingest: vertex %d has %d uv channels, kept the first", i, len(v.UVs)))
			}
		}
		weights := make([]scene.Influence, len(v.Weights))
		for w, inf := range v.Weights {
			weights[w] = scene.Influence{Bone: inf.Bone, Weight: inf.Weight}
		}
		s.Vertices = append(s.Vertices, scene.Vertex{
			Position: vec3(v.Position),
			Normal:   vec3(v.Normal),
			UV:       uv,
			Weights:  weights,
		})
	}

	for _, t := range doc.Triangles {
		s.Triangles = append(s.Triangles, scene.Triangle{V: t.V, Material: t.Material})
	}

	for _, b := range doc.Bones {
		s.Bones = append(s.Bones, scene.Bone{
			Name:     b.Name,
			Parent:   b.Parent,
			Position: vec3(b.Position),
			Rotation: math.QuatFromEuler(b.Rotation[0], b.Rotation[1], b.Rotation[2]),
		})
	}

	for _, seq := range doc.Sequences {
		out := scene.Sequence{Name: seq.Name, FPS: seq.FPS}
		for _, k := range seq.Keys {
			key := scene.Keyframe{Time: k.Time}
			for _, p := range k.Bones {
				key.Bones = append(key.Bones, scene.BonePose{
					Position: vec3(p.Position),
					Rotation: math.Quat{X: p.Rotation[0], Y: p.Rotation[1], Z: p.Rotation[2], W: p.Rotation[3]},
				})
			}
			out.Keys = append(out.Keys, key)
		}
		s.Sequences = append(s.Sequences, out)
	}

	// Texture files referenced by more than one material load once and share
	// one scene texture slot.
	texIndex := make(map[string]int)
	for _, m := range doc.Materials {
		mat := scene.Material{Name: m.Name, Texture: -1, Flags: m.Flags}
		if m.Texture != "" {
			idx, ok := texIndex[m.Texture]
			if !ok {
				tex, err := LoadTexture(filepath.Join(dir, m.Texture))
				if err != nil {
					return nil, nil, err
				}
				idx = len(s.Textures)
				s.Textures = append(s.Textures, *tex)
				texIndex[m.Texture] = idx
			}
			mat.Texture = idx
		}
		s.Materials = append(s.Materials, mat)
	}

	return s, warnings, nil
}

func vec3(v [3]float32) math.Vec3 {
	return math.Vec3{X: v[0], Y: v[1], Z: v[2]}
}
