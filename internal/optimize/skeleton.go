package optimize

import (
	"fmt"
	"sort"

	"github.com/ShadoowDz/DarkGamersZ/pkg/scene"
)

// Skeleton reduces the bone count to the ceiling and then enforces hard
// weighting. Bones are ranked by the total vertex-weight mass they carry; the
// root plus the top (ceiling-1) bones survive, ties going to the lower index.
// Every dropped bone's children reparent to its nearest surviving ancestor,
// and vertex weights follow the same walk. Hard weighting then keeps each
// vertex's single strongest influence at weight 1.0, warning once per vertex
// whose blend is lost — that conversion cannot be undone.
func Skeleton(s *scene.Scene, maxBones int) []string {
	var warnings []string

	if len(s.Bones) > maxBones {
		warnings = append(warnings, reduceBones(s, maxBones)...)
	}
	warnings = append(warnings, hardWeight(s)...)
	return warnings
}

func reduceBones(s *scene.Scene, maxBones int) []string {
	mass := make([]float32, len(s.Bones))
	for _, v := range s.Vertices {
		for _, inf := range v.Weights {
			w := inf.Weight
			if w < 0 {
				w = -w
			}
			mass[inf.Bone] += w
		}
	}

	root := s.Root()
	order := make([]int, 0, len(s.Bones))
	for i := range s.Bones {
		if i != root {
			order = append(order, i)
		}
	}
	sort.SliceStable(order, func(i, j int) bool {
		if mass[order[i]] != mass[order[j]] {
			return mass[order[i]] > mass[order[j]]
		}
		return order[i] < order[j]
	})

	kept := make([]bool, len(s.Bones))
	kept[root] = true
	for _, b := range order[:maxBones-1] {
		kept[b] = true
	}

	// nearestKept walks the parent chain up to the closest surviving ancestor.
	nearestKept := func(b int) int {
		for !kept[b] {
			b = s.Bones[b].Parent
		}
		return b
	}

	remap := make([]int, len(s.Bones))
	newBones := make([]scene.Bone, 0, maxBones)
	for i := range s.Bones {
		if kept[i] {
			remap[i] = len(newBones)
			newBones = append(newBones, s.Bones[i])
		} else {
			remap[i] = -1
		}
	}
	for i := range newBones {
		if p := newBones[i].Parent; p != scene.RootBone {
			newBones[i].Parent = remap[nearestKept(p)]
		}
	}

	for vi := range s.Vertices {
		for wi := range s.Vertices[vi].Weights {
			inf := &s.Vertices[vi].Weights[wi]
			inf.Bone = remap[nearestKept(inf.Bone)]
		}
		s.Vertices[vi].Weights = mergeInfluences(s.Vertices[vi].Weights)
	}

	// Keyframe pose arrays track Scene.Bones indexing; drop poses of removed
	// bones so they stay in step.
	for si := range s.Sequences {
		for ki := range s.Sequences[si].Keys {
			key := &s.Sequences[si].Keys[ki]
			newPoses := make([]scene.BonePose, 0, len(newBones))
			for bi, pose := range key.Bones {
				if kept[bi] {
					newPoses = append(newPoses, pose)
				}
			}
			key.Bones = newPoses
		}
	}

	before := len(s.Bones)
	s.Bones = newBones
	return []string{fmt.Sprintf("skeleton: reduced %d bones to %d, reassigning weights to surviving ancestors", before, len(s.Bones))}
}

// mergeInfluences sums weights that now target the same bone, preserving
// first-appearance order.
func mergeInfluences(weights []scene.Influence) []scene.Influence {
	merged := weights[:0]
	for _, inf := range weights {
		found := false
		for i := range merged {
			if merged[i].Bone == inf.Bone {
				merged[i].Weight += inf.Weight
				found = true
				break
			}
		}
		if !found {
			merged = append(merged, inf)
		}
	}
	return merged
}

// hardWeight binds every vertex to exactly one bone at weight 1.0. The
// strongest influence wins, ties going to the lower bone index; vertices with
// no influences bind to the root so the encoder never sees an unskinned
// vertex.
func hardWeight(s *scene.Scene) []string {
	var warnings []string
	root := s.Root()
	for vi := range s.Vertices {
		v := &s.Vertices[vi]
		if len(v.Weights) == 0 {
			if root != scene.RootBone {
				v.Weights = []scene.Influence{{Bone: root, Weight: 1}}
			}
			continue
		}

		nonzero := 0
		best := 0
		for i, inf := range v.Weights {
			if inf.Weight != 0 {
				nonzero++
			}
			b := v.Weights[best]
			if inf.Weight > b.Weight || (inf.Weight == b.Weight && inf.Bone < b.Bone) {
				best = i
			}
		}

		if nonzero > 1 {
			warnings = append(warnings, fmt.Sprintf(
				"skeleton: vertex %d had %d bone influences, collapsed to bone %d (blending lost)",
				vi, nonzero, v.Weights[best].Bone))
		}
		v.Weights = []scene.Influence{{Bone: v.Weights[best].Bone, Weight: 1}}
	}
	return warnings
}
