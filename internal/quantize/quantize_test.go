package quantize

import (
	"bytes"
	"testing"

	"github.com/ShadoowDz/DarkGamersZ/pkg/scene"
)

// gradient fills w x h RGBA pixels with a smooth 24-bit color ramp.
func gradient(w, h int) []byte {
	rgba := make([]byte, w*h*4)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := (y*w + x) * 4
			rgba[i] = byte(x * 255 / (w - 1))
			rgba[i+1] = byte(y * 255 / (h - 1))
			rgba[i+2] = byte((x + y) * 255 / (w + h - 2))
			rgba[i+3] = 255
		}
	}
	return rgba
}

func TestTexture1024To512(t *testing.T) {
	tex := &scene.Texture{
		Name: "big", Width: 1024, Height: 1024,
		RGBA: gradient(1024, 1024),
	}

	warnings := Texture(tex, 512, 256)

	if tex.Width != 512 || tex.Height != 512 {
		t.Fatalf("size = %dx%d, want 512x512", tex.Width, tex.Height)
	}
	if len(tex.Palette) > 256 {
		t.Errorf("palette has %d colors, want <= 256", len(tex.Palette))
	}
	if len(tex.Index) != 512*512 {
		t.Fatalf("index buffer has %d bytes, want %d", len(tex.Index), 512*512)
	}
	for i, idx := range tex.Index {
		if int(idx) >= len(tex.Palette) {
			t.Fatalf("pixel %d index %d outside palette of %d", i, idx, len(tex.Palette))
		}
	}
	if tex.RGBA != nil {
		t.Error("source RGBA retained after quantization")
	}
	if len(warnings) != 1 {
		t.Errorf("got %d warnings, want 1 resize warning: %v", len(warnings), warnings)
	}
}

func TestTextureNoOpWhenCompliant(t *testing.T) {
	tex := &scene.Texture{
		Name: "ok", Width: 2, Height: 2,
		Palette: [][3]uint8{{1, 2, 3}, {4, 5, 6}},
		Index:   []byte{0, 1, 1, 0},
	}
	warnings := Texture(tex, 512, 256)
	if warnings != nil {
		t.Errorf("compliant texture produced warnings: %v", warnings)
	}
	if !bytes.Equal(tex.Index, []byte{0, 1, 1, 0}) {
		t.Error("compliant texture was modified")
	}
}

func TestTextureDeterministic(t *testing.T) {
	a := &scene.Texture{Name: "a", Width: 640, Height: 640, RGBA: gradient(640, 640)}
	b := &scene.Texture{Name: "b", Width: 640, Height: 640, RGBA: gradient(640, 640)}

	Texture(a, 512, 256)
	Texture(b, 512, 256)

	if len(a.Palette) != len(b.Palette) {
		t.Fatalf("palette sizes differ: %d vs %d", len(a.Palette), len(b.Palette))
	}
	for i := range a.Palette {
		if a.Palette[i] != b.Palette[i] {
			t.Fatalf("palette entry %d differs: %v vs %v", i, a.Palette[i], b.Palette[i])
		}
	}
	if !bytes.Equal(a.Index, b.Index) {
		t.Error("index buffers differ for identical input")
	}
}

func TestPaletteExactForFewColors(t *testing.T) {
	// Four distinct colors: the palette must represent each exactly and
	// mapping must reproduce the image losslessly.
	colors := [][3]uint8{{255, 0, 0}, {0, 255, 0}, {0, 0, 255}, {255, 255, 0}}
	rgba := make([]byte, 16*4)
	for i := 0; i < 16; i++ {
		c := colors[i%4]
		rgba[i*4], rgba[i*4+1], rgba[i*4+2], rgba[i*4+3] = c[0], c[1], c[2], 255
	}

	palette := Palette(rgba, 256)
	if len(palette) != 4 {
		t.Fatalf("palette has %d entries, want 4", len(palette))
	}
	index := MapIndices(rgba, palette)
	for i := 0; i < 16; i++ {
		got := palette[index[i]]
		want := colors[i%4]
		if got != want {
			t.Errorf("pixel %d decoded to %v, want %v", i, got, want)
		}
	}
}

func TestDownscaleHalvesExactly(t *testing.T) {
	// A 4x4 checkerboard of 0 and 255 averages to uniform 128 at 2x2.
	rgba := make([]byte, 4*4*4)
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			v := byte(0)
			if (x+y)%2 == 0 {
				v = 255
			}
			i := (y*4 + x) * 4
			rgba[i], rgba[i+1], rgba[i+2], rgba[i+3] = v, v, v, 255
		}
	}

	out, nw, nh := Downscale(rgba, 4, 4, 2)
	if nw != 2 || nh != 2 {
		t.Fatalf("size = %dx%d, want 2x2", nw, nh)
	}
	for i := 0; i < 4; i++ {
		if v := out[i*4]; v < 127 || v > 128 {
			t.Errorf("pixel %d value %d, want ~128", i, v)
		}
	}
}

func TestDownscaleNonSquare(t *testing.T) {
	rgba := gradient(1024, 256)
	_, nw, nh := Downscale(rgba, 1024, 256, 512)
	if nw != 512 || nh != 128 {
		t.Errorf("size = %dx%d, want 512x128 (aspect preserved)", nw, nh)
	}
}

func TestMapIndicesTieBreaksLow(t *testing.T) {
	palette := [][3]uint8{{10, 10, 10}, {10, 10, 10}}
	idx := MapIndices([]byte{10, 10, 10, 255}, palette)
	if idx[0] != 0 {
		t.Errorf("tie resolved to %d, want lowest index 0", idx[0])
	}
}
