// Package pipeline orchestrates one conversion job: it runs the optimizer
// passes in a fixed order over a single scene, validates every format
// ceiling, invokes the binary encoder and collects warnings and statistics.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/ShadoowDz/DarkGamersZ/internal/optimize"
	"github.com/ShadoowDz/DarkGamersZ/internal/quantize"
	"github.com/ShadoowDz/DarkGamersZ/pkg/mdl"
	"github.com/ShadoowDz/DarkGamersZ/pkg/scene"
)

// ErrBudgetExceeded reports that the job's time budget ran out between
// passes. No partial output is produced.
var ErrBudgetExceeded = errors.New("conversion time budget exceeded")

// State is the job's position in the conversion state machine. Transitions
// are strictly sequential and never revisit an earlier state; Failed is
// reachable from every state on a fatal error.
type State int

const (
	StateInitialized State = iota
	StateGeometryPass
	StateSkeletonPass
	StateAnimationPass
	StateTexturePass
	StateEncoding
	StateCompleted
	StateFailed
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateInitialized:
		return "Initialized"
	case StateGeometryPass:
		return "GeometryPass"
	case StateSkeletonPass:
		return "SkeletonPass"
	case StateAnimationPass:
		return "AnimationPass"
	case StateTexturePass:
		return "TexturePass"
	case StateEncoding:
		return "Encoding"
	case StateCompleted:
		return "Completed"
	case StateFailed:
		return "Failed"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

// Options selects which passes run. A disabled pass is skipped entirely; if
// the scene then still exceeds a ceiling the job fails at encode time.
type Options struct {
	OptimizeVertices  bool
	OptimizeTextures  bool
	SimplifyBones     bool
	ConvertAnimations bool

	// SequencePriority orders sequence names from most to least important
	// for the animation pass; empty means first-appearance order.
	SequencePriority []string
}

// Counts is a snapshot of the scene's structural counts.
type Counts struct {
	Vertices  int
	Triangles int
	Bones     int
	Sequences int
	Textures  int
}

// Stats summarizes one completed conversion.
type Stats struct {
	Input      Counts
	Output     Counts
	OutputSize int
}

// Result is the product of a completed job.
type Result struct {
	Buffer   []byte
	Warnings []string
	Stats    Stats
}

// Job converts one scene. Each job owns its scene exclusively; jobs share no
// state, so any number may run concurrently.
type Job struct {
	scene  *scene.Scene
	opts   Options
	limits mdl.Limits
	log    *zap.Logger

	state    State
	warnings []string
}

// New prepares a conversion job. A nil logger disables logging.
func New(s *scene.Scene, opts Options, limits mdl.Limits, log *zap.Logger) *Job {
	if log == nil {
		log = zap.NewNop()
	}
	return &Job{scene: s, opts: opts, limits: limits, log: log, state: StateInitialized}
}

// State returns the job's current state.
func (j *Job) State() State {
	return j.state
}

// Run drives the job to completion: validate, optimizer passes in fixed
// order, ceiling validation, encode. Cancellation is cooperative and only
// observed between passes; a pass that has started always finishes, because
// interrupting it would leave the scene's invariants broken.
func (j *Job) Run(ctx context.Context) (*Result, error) {
	if err := j.scene.Validate(); err != nil {
		return nil, j.fail(err)
	}
	input := snapshot(j.scene)

	passes := []struct {
		state   State
		enabled bool
		run     func() []string
	}{
		{StateGeometryPass, j.opts.OptimizeVertices, j.geometryPass},
		{StateSkeletonPass, j.opts.SimplifyBones, j.skeletonPass},
		{StateAnimationPass, j.opts.ConvertAnimations, j.animationPass},
		{StateTexturePass, j.opts.OptimizeTextures, j.texturePass},
	}

	for _, pass := range passes {
		if err := j.advance(ctx, pass.state); err != nil {
			return nil, j.fail(err)
		}
		if !pass.enabled {
			j.log.Debug("pass disabled, skipping", zap.Stringer("state", pass.state))
			continue
		}
		j.warn(pass.run()...)
	}

	if err := j.advance(ctx, StateEncoding); err != nil {
		return nil, j.fail(err)
	}
	buf, err := mdl.Encode(j.scene, j.limits)
	if err != nil {
		return nil, j.fail(err)
	}

	j.state = StateCompleted
	res := &Result{
		Buffer:   buf,
		Warnings: j.warnings,
		Stats: Stats{
			Input:      input,
			Output:     snapshot(j.scene),
			OutputSize: len(buf),
		},
	}
	j.log.Info("conversion completed",
		zap.Int("vertices", res.Stats.Output.Vertices),
		zap.Int("triangles", res.Stats.Output.Triangles),
		zap.Int("bones", res.Stats.Output.Bones),
		zap.Int("sequences", res.Stats.Output.Sequences),
		zap.Int("textures", res.Stats.Output.Textures),
		zap.Int("bytes", res.Stats.OutputSize),
		zap.Int("warnings", len(res.Warnings)))
	return res, nil
}

// advance checks for cancellation at the stage boundary and moves to the
// next state.
func (j *Job) advance(ctx context.Context, next State) error {
	if err := ctx.Err(); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: before %s", ErrBudgetExceeded, next)
		}
		return fmt.Errorf("job canceled before %s: %w", next, err)
	}
	j.log.Debug("entering state", zap.Stringer("state", next))
	j.state = next
	return nil
}

func (j *Job) fail(err error) error {
	j.state = StateFailed
	j.log.Error("conversion failed", zap.Error(err))
	return err
}

func (j *Job) warn(warnings ...string) {
	for _, w := range warnings {
		j.log.Warn(w)
	}
	j.warnings = append(j.warnings, warnings...)
}

func (j *Job) geometryPass() []string {
	return optimize.Geometry(j.scene, j.limits.Vertices, j.limits.Triangles)
}

func (j *Job) skeletonPass() []string {
	return optimize.Skeleton(j.scene, j.limits.Bones)
}

func (j *Job) animationPass() []string {
	return optimize.Animations(j.scene, j.limits.Sequences, j.limits.Keyframes, j.opts.SequencePriority)
}

func (j *Job) texturePass() []string {
	var warnings []string
	for i := range j.scene.Textures {
		warnings = append(warnings, quantize.Texture(&j.scene.Textures[i], j.limits.TextureSize, j.limits.PaletteColors)...)
	}
	return warnings
}

func snapshot(s *scene.Scene) Counts {
	return Counts{
		Vertices:  len(s.Vertices),
		Triangles: len(s.Triangles),
		Bones:     len(s.Bones),
		Sequences: len(s.Sequences),
		Textures:  len(s.Textures),
	}
}
