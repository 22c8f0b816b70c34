package optimize

import (
	"fmt"
	stdmath "math"
	"sort"

	"github.com/ShadoowDz/DarkGamersZ/pkg/scene"
)

// Animations reduces the sequence count to maxSequences and resamples any
// sequence with more than maxKeyframes keys. Priority lists sequence names
// from most to least important; sequences it does not mention rank below the
// ones it does, in first-appearance order. Dropped sequences each produce a
// warning.
func Animations(s *scene.Scene, maxSequences, maxKeyframes int, priority []string) []string {
	var warnings []string

	if len(s.Sequences) > maxSequences {
		warnings = append(warnings, dropSequences(s, maxSequences, priority)...)
	}

	for i := range s.Sequences {
		seq := &s.Sequences[i]
		if len(seq.Keys) <= maxKeyframes {
			continue
		}
		before := len(seq.Keys)
		seq.Keys = resample(seq.Keys, maxKeyframes)
		warnings = append(warnings, fmt.Sprintf(
			"animation: sequence %q resampled from %d to %d keyframes", seq.Name, before, len(seq.Keys)))
	}
	return warnings
}

func dropSequences(s *scene.Scene, maxSequences int, priority []string) []string {
	rank := func(seq *scene.Sequence, appearance int) int {
		for i, name := range priority {
			if seq.Name == name {
				return i
			}
		}
		return len(priority) + appearance
	}

	order := make([]int, len(s.Sequences))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return rank(&s.Sequences[order[i]], order[i]) < rank(&s.Sequences[order[j]], order[j])
	})

	kept := make([]bool, len(s.Sequences))
	for _, i := range order[:maxSequences] {
		kept[i] = true
	}

	var warnings []string
	newSeqs := make([]scene.Sequence, 0, maxSequences)
	for i := range s.Sequences {
		if kept[i] {
			newSeqs = append(newSeqs, s.Sequences[i])
		} else {
			warnings = append(warnings, fmt.Sprintf("animation: dropped sequence %q (over sequence limit)", s.Sequences[i].Name))
		}
	}
	s.Sequences = newSeqs
	return warnings
}

// resample decimates keys to exactly target samples spread uniformly across
// the original time range. The first and last original keyframes are always
// kept; samples between keyframes interpolate bone poses with linear
// translation and shortest-arc spherical rotation.
func resample(keys []scene.Keyframe, target int) []scene.Keyframe {
	first, last := keys[0], keys[len(keys)-1]
	span := last.Time - first.Time

	out := make([]scene.Keyframe, target)
	out[0] = first
	out[target-1] = last
	for i := 1; i < target-1; i++ {
		t := first.Time + span*float32(i)/float32(target-1)
		// Rounding on very short spans can repeat a float32 timestamp; nudge
		// forward so times stay strictly increasing.
		if t <= out[i-1].Time {
			t = stdmath.Nextafter32(out[i-1].Time, stdmath.MaxFloat32)
		}
		out[i] = sampleAt(keys, t)
	}
	return out
}

// sampleAt evaluates the keyframe track at time t, interpolating between the
// bracketing keys. t is within (first, last) by construction.
func sampleAt(keys []scene.Keyframe, t float32) scene.Keyframe {
	// First key with Time >= t.
	hi := sort.Search(len(keys), func(i int) bool { return keys[i].Time >= t })
	if keys[hi].Time == t {
		return keys[hi]
	}
	lo := hi - 1

	a, b := keys[lo], keys[hi]
	u := (t - a.Time) / (b.Time - a.Time)

	poses := make([]scene.BonePose, len(a.Bones))
	for i := range poses {
		poses[i] = scene.BonePose{
			Position: a.Bones[i].Position.Lerp(b.Bones[i].Position, u),
			Rotation: a.Bones[i].Rotation.Slerp(b.Bones[i].Rotation, u),
		}
	}
	return scene.Keyframe{Time: t, Bones: poses}
}
