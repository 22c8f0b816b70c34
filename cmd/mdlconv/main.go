// mdlconv converts a scene document into a compiled studio model, optimizing
// geometry, skeleton, animations and textures down to the format's ceilings.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/ShadoowDz/DarkGamersZ/internal/config"
	"github.com/ShadoowDz/DarkGamersZ/internal/ingest"
	"github.com/ShadoowDz/DarkGamersZ/internal/logger"
	"github.com/ShadoowDz/DarkGamersZ/internal/pipeline"
	"github.com/ShadoowDz/DarkGamersZ/pkg/mdl"
)

func main() {
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if flag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: mdlconv [options] <scene.yaml> [output.mdl]")
		flag.PrintDefaults()
		os.Exit(1)
	}
	input := flag.Arg(0)
	output := strings.TrimSuffix(input, filepath.Ext(input)) + ".mdl"
	if flag.NArg() > 1 {
		output = flag.Arg(1)
	}

	opts := logger.DefaultOptions()
	opts.Level = cfg.Logging.Level
	opts.File = cfg.Logging.LogFile
	log := logger.New(opts)
	defer log.Sync()

	s, warnings, err := ingest.Load(input)
	if err != nil {
		log.Error("scene load failed", zap.String("input", input), zap.Error(err))
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	if cfg.Convert.TimeBudget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Convert.TimeBudget)
		defer cancel()
	}

	job := pipeline.New(s, pipeline.Options{
		OptimizeVertices:  cfg.Convert.OptimizeVertices,
		OptimizeTextures:  cfg.Convert.OptimizeTextures,
		SimplifyBones:     cfg.Convert.SimplifyBones,
		ConvertAnimations: cfg.Convert.ConvertAnimations,
		SequencePriority:  cfg.Convert.SequencePriority,
	}, mdl.DefaultLimits(), log)

	res, err := job.Run(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := os.WriteFile(output, res.Buffer, 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", output, err)
		os.Exit(1)
	}

	for _, w := range append(warnings, res.Warnings...) {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w)
	}

	in, out := res.Stats.Input, res.Stats.Output
	fmt.Printf("Wrote %s (%d bytes)\n", output, res.Stats.OutputSize)
	fmt.Printf("  vertices:  %d -> %d\n", in.Vertices, out.Vertices)
	fmt.Printf("  triangles: %d -> %d\n", in.Triangles, out.Triangles)
	fmt.Printf("  bones:     %d -> %d\n", in.Bones, out.Bones)
	fmt.Printf("  sequences: %d -> %d\n", in.Sequences, out.Sequences)
	fmt.Printf("  textures:  %d\n", out.Textures)
}
