// Package optimize implements the lossy reduction passes that bring a scene
// under the target format's structural ceilings: geometry decimation,
// skeleton simplification and animation resampling.
package optimize

import (
	"fmt"
	"sort"

	"github.com/ShadoowDz/DarkGamersZ/pkg/math"
	"github.com/ShadoowDz/DarkGamersZ/pkg/scene"
)

// Geometry reduces vertex and triangle counts to the given ceilings by
// iterative edge collapse. Collapse cost combines edge length with the normal
// deviation around both endpoints; ties break on the lower vertex index pair,
// so the pass is deterministic. If topology blocks further collapses it falls
// back to dropping the smallest-area triangles and reports a warning.
// A scene already within both ceilings is left untouched.
func Geometry(s *scene.Scene, maxVertices, maxTriangles int) []string {
	if len(s.Vertices) <= maxVertices && len(s.Triangles) <= maxTriangles {
		return nil
	}

	d := newDecimator(s)
	startV, startT := d.liveVertices, d.liveTriangles

	for d.liveVertices > maxVertices || d.liveTriangles > maxTriangles {
		if !d.collapseBest() {
			break
		}
	}

	var warnings []string
	if d.liveVertices > maxVertices || d.liveTriangles > maxTriangles {
		dropped := d.dropSmallestTriangles(maxVertices, maxTriangles)
		warnings = append(warnings, fmt.Sprintf(
			"geometry: collapse exhausted, dropped %d smallest triangles to meet ceilings", dropped))
	}

	d.compact(s)
	warnings = append(warnings, fmt.Sprintf(
		"geometry: decimated %d vertices / %d triangles to %d / %d",
		startV, startT, len(s.Vertices), len(s.Triangles)))
	return warnings
}

// decimator tracks live vertices and triangles during edge collapse; arrays
// keep their original indexing until compact rewrites the scene.
type decimator struct {
	verts []scene.Vertex
	tris  []scene.Triangle

	vertAlive []bool
	triAlive  []bool

	liveVertices  int
	liveTriangles int
}

func newDecimator(s *scene.Scene) *decimator {
	d := &decimator{
		verts:         s.Vertices,
		tris:          s.Triangles,
		vertAlive:     make([]bool, len(s.Vertices)),
		triAlive:      make([]bool, len(s.Triangles)),
		liveVertices:  len(s.Vertices),
		liveTriangles: len(s.Triangles),
	}
	for i := range d.vertAlive {
		d.vertAlive[i] = true
	}
	for i := range d.triAlive {
		d.triAlive[i] = true
	}
	return d
}

// faceNormal returns the unit face normal of a live triangle.
func (d *decimator) faceNormal(ti int) math.Vec3 {
	tri := d.tris[ti]
	a := d.verts[tri.V[0]].Position
	b := d.verts[tri.V[1]].Position
	c := d.verts[tri.V[2]].Position
	return b.Sub(a).Cross(c.Sub(a)).Normalize()
}

// curvatures returns a per-vertex estimate of local normal deviation:
// half of (1 - minimum dot product) over all pairs of adjacent face normals.
// Flat fans score 0, sharp creases approach 1.
func (d *decimator) curvatures() []float32 {
	normals := make([]math.Vec3, len(d.tris))
	adjacent := make([][]int, len(d.verts))
	for ti := range d.tris {
		if !d.triAlive[ti] {
			continue
		}
		normals[ti] = d.faceNormal(ti)
		for _, v := range d.tris[ti].V {
			adjacent[v] = append(adjacent[v], ti)
		}
	}

	curv := make([]float32, len(d.verts))
	for v, fan := range adjacent {
		minDot := float32(1)
		for i := 0; i < len(fan); i++ {
			for j := i + 1; j < len(fan); j++ {
				if dot := normals[fan[i]].Dot(normals[fan[j]]); dot < minDot {
					minDot = dot
				}
			}
		}
		curv[v] = (1 - minDot) / 2
	}
	return curv
}

// collapseBest finds the lowest-cost live edge and collapses its higher
// vertex into the lower one. Returns false when no collapsible edge remains.
func (d *decimator) collapseBest() bool {
	curv := d.curvatures()

	bestA, bestB := -1, -1
	bestCost := float32(0)
	for ti, tri := range d.tris {
		if !d.triAlive[ti] {
			continue
		}
		for e := 0; e < 3; e++ {
			a, b := tri.V[e], tri.V[(e+1)%3]
			if a > b {
				a, b = b, a
			}
			length := d.verts[a].Position.Distance(d.verts[b].Position)
			cost := length * (1 + curv[a] + curv[b])
			if bestA < 0 || cost < bestCost ||
				(cost == bestCost && (a < bestA || (a == bestA && b < bestB))) {
				bestA, bestB, bestCost = a, b, cost
			}
		}
	}
	if bestA < 0 {
		return false
	}

	d.collapse(bestA, bestB)
	return true
}

// collapse merges vertex b into surviving vertex a, rewriting every live
// triangle and dropping those that become degenerate.
func (d *decimator) collapse(a, b int) {
	d.vertAlive[b] = false
	d.liveVertices--

	for ti := range d.tris {
		if !d.triAlive[ti] {
			continue
		}
		tri := &d.tris[ti]
		for i := range tri.V {
			if tri.V[i] == b {
				tri.V[i] = a
			}
		}
		if tri.V[0] == tri.V[1] || tri.V[1] == tri.V[2] || tri.V[0] == tri.V[2] {
			d.triAlive[ti] = false
			d.liveTriangles--
		}
	}
}

// dropSmallestTriangles is the fallback when collapsing cannot reach the
// ceilings: live triangles go in ascending area order (original index breaks
// ties) and are dropped until both ceilings hold, orphaning and removing the
// vertices they alone referenced. Returns the number of dropped triangles.
func (d *decimator) dropSmallestTriangles(maxVertices, maxTriangles int) int {
	type triArea struct {
		index int
		area  float32
	}
	var order []triArea
	for ti := range d.tris {
		if !d.triAlive[ti] {
			continue
		}
		tri := d.tris[ti]
		a := d.verts[tri.V[0]].Position
		b := d.verts[tri.V[1]].Position
		c := d.verts[tri.V[2]].Position
		area := b.Sub(a).Cross(c.Sub(a)).Length() / 2
		order = append(order, triArea{index: ti, area: area})
	}
	sort.SliceStable(order, func(i, j int) bool {
		if order[i].area != order[j].area {
			return order[i].area < order[j].area
		}
		return order[i].index < order[j].index
	})

	refs := make([]int, len(d.verts))
	for ti := range d.tris {
		if d.triAlive[ti] {
			for _, v := range d.tris[ti].V {
				refs[v]++
			}
		}
	}

	dropped := 0
	for _, t := range order {
		if d.liveTriangles <= maxTriangles && d.liveVertices <= maxVertices {
			break
		}
		d.triAlive[t.index] = false
		d.liveTriangles--
		dropped++
		for _, v := range d.tris[t.index].V {
			refs[v]--
			if refs[v] == 0 && d.vertAlive[v] {
				d.vertAlive[v] = false
				d.liveVertices--
			}
		}
	}
	return dropped
}

// compact rewrites the scene with dead vertices and triangles removed,
// remapping every surviving triangle index so nothing dangles.
func (d *decimator) compact(s *scene.Scene) {
	remap := make([]int, len(d.verts))
	newVerts := make([]scene.Vertex, 0, d.liveVertices)
	for i := range d.verts {
		if d.vertAlive[i] {
			remap[i] = len(newVerts)
			newVerts = append(newVerts, d.verts[i])
		} else {
			remap[i] = -1
		}
	}

	newTris := make([]scene.Triangle, 0, d.liveTriangles)
	for ti := range d.tris {
		if !d.triAlive[ti] {
			continue
		}
		tri := d.tris[ti]
		for i := range tri.V {
			tri.V[i] = remap[tri.V[i]]
		}
		newTris = append(newTris, tri)
	}

	s.Vertices = newVerts
	s.Triangles = newTris
}
