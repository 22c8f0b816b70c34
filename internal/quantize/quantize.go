// Package quantize converts arbitrary-depth RGBA images to 8-bit indexed
// form: area-averaged down-scaling to the format's maximum texture size,
// median-cut palette construction, and nearest-entry index mapping.
package quantize

import (
	"fmt"
	"sort"
	"sync"

	"github.com/ShadoowDz/DarkGamersZ/pkg/scene"
)

// Texture brings one texture within the size and palette ceilings, replacing
// RGBA payloads with an indexed palette form in place. Textures already
// indexed and within ceilings are untouched. Deterministic for identical
// pixels and ceilings.
func Texture(t *scene.Texture, maxSize, maxColors int) []string {
	if t.Indexed() && t.Width <= maxSize && t.Height <= maxSize && len(t.Palette) <= maxColors {
		return nil
	}

	rgba := t.RGBA
	if rgba == nil {
		rgba = expandIndexed(t)
	}

	var warnings []string
	w, h := t.Width, t.Height
	if w > maxSize || h > maxSize {
		var nw, nh int
		rgba, nw, nh = Downscale(rgba, w, h, maxSize)
		warnings = append(warnings, fmt.Sprintf(
			"texture %q resized from %dx%d to %dx%d", t.Name, w, h, nw, nh))
		w, h = nw, nh
	}

	palette := Palette(rgba, maxColors)
	t.Width, t.Height = w, h
	t.Palette = palette
	t.Index = MapIndices(rgba, palette)
	t.RGBA = nil
	return warnings
}

// expandIndexed rebuilds RGBA pixels from an indexed texture so it can be
// rescaled and requantized. Alpha is opaque; the format has no translucency.
func expandIndexed(t *scene.Texture) []byte {
	rgba := make([]byte, t.Width*t.Height*4)
	for i, idx := range t.Index {
		c := t.Palette[idx]
		rgba[i*4+0] = c[0]
		rgba[i*4+1] = c[1]
		rgba[i*4+2] = c[2]
		rgba[i*4+3] = 255
	}
	return rgba
}

// Downscale area-averages rgba pixels so neither dimension exceeds maxSize,
// preserving aspect ratio. Each destination pixel is the coverage-weighted
// mean of the source pixels it spans.
func Downscale(rgba []byte, w, h, maxSize int) ([]byte, int, int) {
	if w <= maxSize && h <= maxSize {
		return rgba, w, h
	}

	scale := float64(maxSize) / float64(max(w, h))
	nw := max(1, int(float64(w)*scale+0.5))
	nh := max(1, int(float64(h)*scale+0.5))
	if nw > maxSize {
		nw = maxSize
	}
	if nh > maxSize {
		nh = maxSize
	}

	out := make([]byte, nw*nh*4)
	sx := float64(w) / float64(nw)
	sy := float64(h) / float64(nh)

	for dy := 0; dy < nh; dy++ {
		y0, y1 := float64(dy)*sy, float64(dy+1)*sy
		for dx := 0; dx < nw; dx++ {
			x0, x1 := float64(dx)*sx, float64(dx+1)*sx

			var r, g, b, a, area float64
			for y := int(y0); y < h && float64(y) < y1; y++ {
				cy := overlap(y0, y1, float64(y), float64(y+1))
				if cy <= 0 {
					continue
				}
				for x := int(x0); x < w && float64(x) < x1; x++ {
					cx := overlap(x0, x1, float64(x), float64(x+1))
					if cx <= 0 {
						continue
					}
					cover := cx * cy
					i := (y*w + x) * 4
					r += float64(rgba[i]) * cover
					g += float64(rgba[i+1]) * cover
					b += float64(rgba[i+2]) * cover
					a += float64(rgba[i+3]) * cover
					area += cover
				}
			}

			o := (dy*nw + dx) * 4
			out[o] = byte(r/area + 0.5)
			out[o+1] = byte(g/area + 0.5)
			out[o+2] = byte(b/area + 0.5)
			out[o+3] = byte(a/area + 0.5)
		}
	}
	return out, nw, nh
}

func overlap(a0, a1, b0, b1 float64) float64 {
	lo, hi := max(a0, b0), min(a1, b1)
	if hi <= lo {
		return 0
	}
	return hi - lo
}

// colorCount is one unique color and its pixel population.
type colorCount struct {
	c [3]uint8
	n int
}

// Palette builds at most maxColors palette entries by recursive median cut
// over the pixel population. Boxes split along their widest channel at the
// population median; the widest box (lowest index on ties) splits first.
// The result is deterministic for identical pixels.
func Palette(rgba []byte, maxColors int) [][3]uint8 {
	counts := make(map[[3]uint8]int)
	for i := 0; i+3 < len(rgba); i += 4 {
		counts[[3]uint8{rgba[i], rgba[i+1], rgba[i+2]}]++
	}

	colors := make([]colorCount, 0, len(counts))
	for c, n := range counts {
		colors = append(colors, colorCount{c: c, n: n})
	}
	// Map order is random; sort for determinism.
	sort.Slice(colors, func(i, j int) bool {
		a, b := colors[i].c, colors[j].c
		if a[0] != b[0] {
			return a[0] < b[0]
		}
		if a[1] != b[1] {
			return a[1] < b[1]
		}
		return a[2] < b[2]
	})

	boxes := [][]colorCount{colors}
	for len(boxes) < maxColors {
		bi, channel := widestBox(boxes)
		if bi < 0 {
			break
		}
		lo, hi := splitBox(boxes[bi], channel)
		boxes[bi] = lo
		boxes = append(boxes, hi)
	}

	palette := make([][3]uint8, len(boxes))
	for i, box := range boxes {
		palette[i] = meanColor(box)
	}
	return palette
}

// widestBox returns the splittable box with the largest channel range and
// that channel, or (-1, 0) when nothing can split further.
func widestBox(boxes [][]colorCount) (int, int) {
	best, bestChannel, bestRange := -1, 0, -1
	for i, box := range boxes {
		if len(box) < 2 {
			continue
		}
		for ch := 0; ch < 3; ch++ {
			lo, hi := box[0].c[ch], box[0].c[ch]
			for _, cc := range box[1:] {
				if cc.c[ch] < lo {
					lo = cc.c[ch]
				}
				if cc.c[ch] > hi {
					hi = cc.c[ch]
				}
			}
			if r := int(hi) - int(lo); r > bestRange {
				best, bestChannel, bestRange = i, ch, r
			}
		}
	}
	if bestRange <= 0 {
		return -1, 0
	}
	return best, bestChannel
}

// splitBox orders the box along the chosen channel and cuts at the pixel
// population median.
func splitBox(box []colorCount, channel int) ([]colorCount, []colorCount) {
	sorted := append([]colorCount(nil), box...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].c[channel] < sorted[j].c[channel]
	})

	total := 0
	for _, cc := range sorted {
		total += cc.n
	}
	acc := 0
	cut := 1
	for i, cc := range sorted {
		acc += cc.n
		if acc*2 >= total {
			cut = i + 1
			break
		}
	}
	if cut >= len(sorted) {
		cut = len(sorted) - 1
	}
	return sorted[:cut], sorted[cut:]
}

// meanColor returns the population-weighted mean of a box.
func meanColor(box []colorCount) [3]uint8 {
	var r, g, b, n int
	for _, cc := range box {
		r += int(cc.c[0]) * cc.n
		g += int(cc.c[1]) * cc.n
		b += int(cc.c[2]) * cc.n
		n += cc.n
	}
	if n == 0 {
		return [3]uint8{}
	}
	return [3]uint8{
		uint8((r + n/2) / n),
		uint8((g + n/2) / n),
		uint8((b + n/2) / n),
	}
}

// MapIndices maps every pixel to its nearest palette entry by squared RGB
// distance, lowest index winning ties. Rows are independent, so the search
// fans out across goroutines without affecting the result.
func MapIndices(rgba []byte, palette [][3]uint8) []byte {
	n := len(rgba) / 4
	out := make([]byte, n)

	const rowSize = 4096
	var wg sync.WaitGroup
	for start := 0; start < n; start += rowSize {
		end := min(start+rowSize, n)
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			for i := start; i < end; i++ {
				out[i] = nearest(palette, rgba[i*4], rgba[i*4+1], rgba[i*4+2])
			}
		}(start, end)
	}
	wg.Wait()
	return out
}

func nearest(palette [][3]uint8, r, g, b uint8) byte {
	best := 0
	bestDist := 1 << 30
	for i, c := range palette {
		dr := int(c[0]) - int(r)
		dg := int(c[1]) - int(g)
		db := int(c[2]) - int(b)
		if d := dr*dr + dg*dg + db*db; d < bestDist {
			best, bestDist = i, d
		}
	}
	return byte(best)
}
