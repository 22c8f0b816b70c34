package ingest

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/ftrvxmtrx/tga"
	_ "golang.org/x/image/bmp"

	"github.com/ShadoowDz/DarkGamersZ/pkg/scene"
)

// LoadTexture reads a PNG, JPEG, BMP or TGA file and returns it as an
// unquantized RGBA scene texture named after the file.
func LoadTexture(path string) (*scene.Texture, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ingest: read texture %s: %w", path, err)
	}

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("ingest: decode texture %s: %w", path, err)
	}

	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return &scene.Texture{
		Name:   name,
		Width:  b.Dx(),
		Height: b.Dy(),
		RGBA:   rgba.Pix,
	}, nil
}
