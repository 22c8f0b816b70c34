package config

import "flag"

var (
	flagConfig       = flag.String("config", "", "Path to config file")
	flagDebug        = flag.Bool("debug", false, "Enable debug logging")
	flagLogFile      = flag.String("logfile", "", "Write logs to this file")
	flagBudget       = flag.Duration("budget", 0, "Time budget per conversion job (0 = unlimited)")
	flagNoGeometry   = flag.Bool("no-geometry", false, "Skip geometry decimation")
	flagNoTextures   = flag.Bool("no-textures", false, "Skip texture quantization")
	flagNoBones      = flag.Bool("no-bones", false, "Skip skeleton simplification")
	flagNoAnimations = flag.Bool("no-animations", false, "Skip animation conversion")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagLogFile != "" {
		cfg.Logging.LogFile = *flagLogFile
	}
	if *flagBudget > 0 {
		cfg.Convert.TimeBudget = *flagBudget
	}
	if *flagNoGeometry {
		cfg.Convert.OptimizeVertices = false
	}
	if *flagNoTextures {
		cfg.Convert.OptimizeTextures = false
	}
	if *flagNoBones {
		cfg.Convert.SimplifyBones = false
	}
	if *flagNoAnimations {
		cfg.Convert.ConvertAnimations = false
	}
}
