package pipeline

import (
	"bytes"
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/ShadoowDz/DarkGamersZ/pkg/math"
	"github.com/ShadoowDz/DarkGamersZ/pkg/mdl"
	"github.com/ShadoowDz/DarkGamersZ/pkg/scene"
)

func allPasses() Options {
	return Options{
		OptimizeVertices:  true,
		OptimizeTextures:  true,
		SimplifyBones:     true,
		ConvertAnimations: true,
	}
}

// compliantScene is already hard-weighted, indexed and under every ceiling.
func compliantScene() *scene.Scene {
	return &scene.Scene{
		Name: "ready",
		Vertices: []scene.Vertex{
			{Position: math.Vec3{X: 0, Y: 0, Z: 0}, Normal: math.Vec3{X: 0, Y: 0, Z: 1}, Weights: []scene.Influence{{Bone: 0, Weight: 1}}},
			{Position: math.Vec3{X: 1, Y: 0, Z: 0}, Normal: math.Vec3{X: 0, Y: 0, Z: 1}, Weights: []scene.Influence{{Bone: 0, Weight: 1}}},
			{Position: math.Vec3{X: 0, Y: 1, Z: 0}, Normal: math.Vec3{X: 0, Y: 0, Z: 1}, Weights: []scene.Influence{{Bone: 0, Weight: 1}}},
		},
		Triangles: []scene.Triangle{{V: [3]int{0, 1, 2}}},
		Bones:     []scene.Bone{{Name: "root", Parent: scene.RootBone, Rotation: math.QuatIdentity()}},
		Materials: []scene.Material{{Name: "flat", Texture: 0}},
		Textures: []scene.Texture{{
			Name: "flat", Width: 2, Height: 2,
			Palette: [][3]uint8{{200, 100, 50}},
			Index:   []byte{0, 0, 0, 0},
		}},
		Sequences: []scene.Sequence{{Name: "idle", FPS: 30, Keys: []scene.Keyframe{
			{Time: 0, Bones: []scene.BonePose{{Rotation: math.QuatIdentity()}}},
		}}},
	}
}

// oversizedScene exceeds the bone and keyframe ceilings and carries an
// unquantized oversized texture.
func oversizedScene() *scene.Scene {
	s := &scene.Scene{Name: "fat"}
	for i := 0; i < 200; i++ {
		parent := i - 1
		if i == 0 {
			parent = scene.RootBone
		}
		s.Bones = append(s.Bones, scene.Bone{Name: "b", Parent: parent, Rotation: math.QuatIdentity()})
	}
	s.Vertices = []scene.Vertex{
		{Position: math.Vec3{X: 0, Y: 0, Z: 0}, Weights: []scene.Influence{{Bone: 199, Weight: 0.6}, {Bone: 0, Weight: 0.4}}},
		{Position: math.Vec3{X: 1, Y: 0, Z: 0}, Weights: []scene.Influence{{Bone: 0, Weight: 1}}},
		{Position: math.Vec3{X: 0, Y: 1, Z: 0}, Weights: []scene.Influence{{Bone: 0, Weight: 1}}},
	}
	s.Triangles = []scene.Triangle{{V: [3]int{0, 1, 2}}}

	seq := scene.Sequence{Name: "run", FPS: 30}
	for i := 0; i < 600; i++ {
		poses := make([]scene.BonePose, 200)
		for p := range poses {
			poses[p].Rotation = math.QuatIdentity()
		}
		seq.Keys = append(seq.Keys, scene.Keyframe{Time: float32(i) / 30, Bones: poses})
	}
	s.Sequences = []scene.Sequence{seq}

	rgba := make([]byte, 600*600*4)
	for i := 0; i < 600*600; i++ {
		rgba[i*4] = byte(i)
		rgba[i*4+1] = byte(i >> 8)
		rgba[i*4+3] = 255
	}
	s.Textures = []scene.Texture{{Name: "skin", Width: 600, Height: 600, RGBA: rgba}}
	s.Materials = []scene.Material{{Name: "skin", Texture: 0}}
	return s
}

func TestRunCompliantSceneRoundTrip(t *testing.T) {
	s := compliantScene()
	want := compliantScene()

	job := New(s, allPasses(), mdl.DefaultLimits(), nil)
	res, err := job.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if job.State() != StateCompleted {
		t.Errorf("state = %v, want Completed", job.State())
	}
	if len(res.Warnings) != 0 {
		t.Errorf("warnings = %v, want none", res.Warnings)
	}
	if !reflect.DeepEqual(s, want) {
		t.Error("compliant scene was modified by the pipeline")
	}
	if len(res.Buffer) == 0 {
		t.Error("no output buffer")
	}
}

func TestRunOversizedScene(t *testing.T) {
	s := oversizedScene()
	job := New(s, allPasses(), mdl.DefaultLimits(), nil)
	res, err := job.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	out := res.Stats.Output
	if out.Bones > mdl.MaxBones {
		t.Errorf("%d bones in output, want <= %d", out.Bones, mdl.MaxBones)
	}
	for _, seq := range s.Sequences {
		if len(seq.Keys) > mdl.MaxKeyframes {
			t.Errorf("sequence %q has %d keyframes, want <= %d", seq.Name, len(seq.Keys), mdl.MaxKeyframes)
		}
	}
	for _, tex := range s.Textures {
		if tex.Width > mdl.MaxTextureSize || tex.Height > mdl.MaxTextureSize {
			t.Errorf("texture %q is %dx%d", tex.Name, tex.Width, tex.Height)
		}
		if !tex.Indexed() {
			t.Errorf("texture %q not quantized", tex.Name)
		}
	}
	if len(res.Warnings) == 0 {
		t.Error("oversized scene produced no warnings")
	}
	if res.Stats.Input.Bones != 200 {
		t.Errorf("input stats bones = %d, want 200", res.Stats.Input.Bones)
	}

	// Output must decode.
	info, err := mdl.Decode(res.Buffer)
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	if len(info.Bones) != out.Bones {
		t.Errorf("decoded %d bones, stats say %d", len(info.Bones), out.Bones)
	}
}

func TestRunDeterministic(t *testing.T) {
	a, err := New(oversizedScene(), allPasses(), mdl.DefaultLimits(), nil).Run(context.Background())
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	b, err := New(oversizedScene(), allPasses(), mdl.DefaultLimits(), nil).Run(context.Background())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if !bytes.Equal(a.Buffer, b.Buffer) {
		t.Error("identical input produced different output buffers")
	}
}

func TestRunMalformedScene(t *testing.T) {
	s := compliantScene()
	s.Triangles[0].V[0] = 99

	job := New(s, allPasses(), mdl.DefaultLimits(), nil)
	_, err := job.Run(context.Background())
	if !errors.Is(err, scene.ErrMalformedScene) {
		t.Errorf("Run() = %v, want ErrMalformedScene", err)
	}
	if job.State() != StateFailed {
		t.Errorf("state = %v, want Failed", job.State())
	}
}

func TestRunDisabledPassHitsCeiling(t *testing.T) {
	s := oversizedScene()
	opts := allPasses()
	opts.SimplifyBones = false

	job := New(s, opts, mdl.DefaultLimits(), nil)
	_, err := job.Run(context.Background())
	if !errors.Is(err, mdl.ErrCeilingExceeded) {
		t.Errorf("Run() = %v, want ErrCeilingExceeded", err)
	}
	if job.State() != StateFailed {
		t.Errorf("state = %v, want Failed", job.State())
	}
}

func TestRunCanceledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	job := New(compliantScene(), allPasses(), mdl.DefaultLimits(), nil)
	_, err := job.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Run() = %v, want context.Canceled", err)
	}
	if job.State() != StateFailed {
		t.Errorf("state = %v, want Failed", job.State())
	}
}

func TestRunBudgetExceeded(t *testing.T) {
	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	job := New(compliantScene(), allPasses(), mdl.DefaultLimits(), nil)
	_, err := job.Run(ctx)
	if !errors.Is(err, ErrBudgetExceeded) {
		t.Errorf("Run() = %v, want ErrBudgetExceeded", err)
	}
}

func TestStateString(t *testing.T) {
	states := map[State]string{
		StateInitialized:   "Initialized",
		StateGeometryPass:  "GeometryPass",
		StateSkeletonPass:  "SkeletonPass",
		StateAnimationPass: "AnimationPass",
		StateTexturePass:   "TexturePass",
		StateEncoding:      "Encoding",
		StateCompleted:     "Completed",
		StateFailed:        "Failed",
	}
	for s, want := range states {
		if got := s.String(); got != want {
			t.Errorf("State(%d).String() = %q, want %q", int(s), got, want)
		}
	}
}
