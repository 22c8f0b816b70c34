// texpreview runs the texture quantizer standalone: it loads an image, scales
// and palettizes it the way the converter would, and writes a WebP preview so
// the palette loss can be judged before a full conversion.
package main

import (
	"flag"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/HugoSmits86/nativewebp"

	"github.com/ShadoowDz/DarkGamersZ/internal/ingest"
	"github.com/ShadoowDz/DarkGamersZ/internal/quantize"
	"github.com/ShadoowDz/DarkGamersZ/pkg/mdl"
	"github.com/ShadoowDz/DarkGamersZ/pkg/scene"
)

func main() {
	size := flag.Int("size", mdl.MaxTextureSize, "Maximum texture dimension")
	colors := flag.Int("colors", mdl.MaxPaletteColors, "Maximum palette size")
	out := flag.String("o", "", "Output path (default: input name + .webp)")
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: texpreview [options] <image>")
		flag.PrintDefaults()
		os.Exit(1)
	}
	input := flag.Arg(0)

	output := *out
	if output == "" {
		output = strings.TrimSuffix(input, filepath.Ext(input)) + ".webp"
	}

	tex, err := ingest.LoadTexture(input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Input:   %s (%dx%d)\n", input, tex.Width, tex.Height)
	for _, w := range quantize.Texture(tex, *size, *colors) {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w)
	}
	fmt.Printf("Output:  %dx%d, %d colors\n", tex.Width, tex.Height, len(tex.Palette))

	f, err := os.Create(output)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	if err := nativewebp.Encode(f, toImage(tex), nil); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding %s: %v\n", output, err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %s\n", output)
}

// toImage expands a palettized texture back to NRGBA for the preview encoder.
func toImage(tex *scene.Texture) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, tex.Width, tex.Height))
	for i, p := range tex.Index {
		c := tex.Palette[p]
		img.Pix[i*4] = c[0]
		img.Pix[i*4+1] = c[1]
		img.Pix[i*4+2] = c[2]
		img.Pix[i*4+3] = 255
	}
	return img
}
