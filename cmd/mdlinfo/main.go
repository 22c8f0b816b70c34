// mdlinfo is a CLI utility for inspecting compiled studio model files.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/ShadoowDz/DarkGamersZ/pkg/mdl"
)

func main() {
	bones := flag.Bool("bones", false, "List the bone table")
	sequences := flag.Bool("sequences", false, "List the sequence directory")
	textures := flag.Bool("textures", false, "List the texture directory")
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: mdlinfo [options] <file.mdl>")
		flag.PrintDefaults()
		os.Exit(1)
	}
	path := flag.Arg(0)

	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	info, err := mdl.Decode(data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Model:     %s\n", info.Name)
	fmt.Printf("Version:   %d\n", info.Version)
	fmt.Printf("Size:      %d bytes\n", info.Length)
	fmt.Printf("Hull:      (%.2f %.2f %.2f) .. (%.2f %.2f %.2f)\n",
		info.HullMin.X, info.HullMin.Y, info.HullMin.Z,
		info.HullMax.X, info.HullMax.Y, info.HullMax.Z)
	fmt.Printf("Vertices:  %d\n", info.VertexCount)
	fmt.Printf("Triangles: %d (%d groups)\n", info.TriangleCount, info.GroupCount)
	fmt.Printf("Bones:     %d\n", len(info.Bones))
	fmt.Printf("Sequences: %d\n", len(info.Sequences))
	fmt.Printf("Textures:  %d\n", len(info.Textures))

	if *bones {
		fmt.Println("\nBone table:")
		for i, b := range info.Bones {
			fmt.Printf("  %3d  %-32s parent %d\n", i, b.Name, b.Parent)
		}
	}

	if *sequences {
		fmt.Println("\nSequences:")
		for i, s := range info.Sequences {
			fmt.Printf("  %3d  %-32s %3d frames @ %.1f fps\n", i, s.Name, s.FrameCount, s.FPS)
		}
	}

	if *textures {
		fmt.Println("\nTextures:")
		for i, t := range info.Textures {
			fmt.Printf("  %3d  %-64s %dx%d\n", i, t.Name, t.Width, t.Height)
		}
	}
}
