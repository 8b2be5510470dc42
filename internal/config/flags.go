package config

import (
	"fmt"
	"os"

	pflag "github.com/spf13/pflag"
)

// BindFlags registers every Config field on fs, using the current values of
// cfg as defaults. Flag names are the keys used by the changed map.
func BindFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.StringVar(&cfg.Source, "source", cfg.Source, "frame source: dir:<path>, watch:<path>, video:<file|device> or a directory")
	fs.BoolVar(&cfg.Loop, "loop", cfg.Loop, "restart a directory or video source after the last frame")

	fs.StringVar(&cfg.SlotsFile, "slots", cfg.SlotsFile, "slot positions file (.json, .toml, or a pickled CarParkPos)")
	fs.IntVar(&cfg.SlotWidth, "slot-width", cfg.SlotWidth, "slot width in pixels")
	fs.IntVar(&cfg.SlotHeight, "slot-height", cfg.SlotHeight, "slot height in pixels")
	fs.IntSliceVar(&cfg.Reserved, "reserved", cfg.Reserved, "0-based indices of reserved slots")

	fs.IntVar(&cfg.Thresholds.FreeBelow, "free-below", cfg.Thresholds.FreeBelow, "slots with fewer mask pixels are free")
	fs.IntVar(&cfg.Thresholds.OccupiedFrom, "occupied-from", cfg.Thresholds.OccupiedFrom, "slots with at least this many mask pixels are occupied")

	fs.StringVar(&cfg.Backend, "backend", cfg.Backend, "preprocessing backend (native or opencv)")
	fs.IntVar(&cfg.Preprocess.BlurKernel, "blur-kernel", cfg.Preprocess.BlurKernel, "Gaussian blur kernel size")
	fs.Float64Var(&cfg.Preprocess.BlurSigma, "blur-sigma", cfg.Preprocess.BlurSigma, "Gaussian blur sigma")
	fs.IntVar(&cfg.Preprocess.BlockSize, "block-size", cfg.Preprocess.BlockSize, "adaptive threshold block size")
	fs.Float64Var(&cfg.Preprocess.Offset, "offset", cfg.Preprocess.Offset, "adaptive threshold offset")
	fs.IntVar(&cfg.Preprocess.MedianKernel, "median-kernel", cfg.Preprocess.MedianKernel, "median filter size")
	fs.IntVar(&cfg.Preprocess.DilateKernel, "dilate-kernel", cfg.Preprocess.DilateKernel, "dilation structuring element size")
	fs.IntVar(&cfg.Preprocess.DilateIterations, "dilate-iterations", cfg.Preprocess.DilateIterations, "dilation iterations")

	fs.IntVar(&cfg.Workers, "workers", cfg.Workers, "frames processed in parallel (results stay in order)")
	fs.IntVar(&cfg.MaxFrames, "max-frames", cfg.MaxFrames, "stop after this many frames (0 = no limit)")
	fs.DurationVar(&cfg.FrameInterval, "frame-interval", cfg.FrameInterval, "minimum delay between frames")
	fs.StringVar(&cfg.OnInvalidFrame, "on-invalid-frame", cfg.OnInvalidFrame, "skip or abort when a frame cannot be preprocessed")

	fs.StringVar(&cfg.Output, "output", cfg.Output, "JSON lines output file (- for stdout)")
	fs.StringVar(&cfg.OverlayDir, "overlay-dir", cfg.OverlayDir, "write annotated frames into this directory")
	fs.StringVar(&cfg.StageDir, "stage-dir", cfg.StageDir, "write every preprocessing stage into this directory")
	fs.BoolVar(&cfg.Timestamp, "timestamp", cfg.Timestamp, "draw the frame timestamp on overlays")

	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "log format (console or json)")
}

// Resolve layers the config file and the environment under the flags that
// were set on fs, then validates the result.
//
// The config file is path, else $PARKWATCH_CONFIG, else
// ~/.parkwatch/config.toml if it exists. An explicitly named file must exist.
func Resolve(cfg *Config, fs *pflag.FlagSet, path string) error {
	changed := map[string]bool{}
	fs.Visit(func(f *pflag.Flag) { changed[f.Name] = true })

	if path == "" {
		path = os.Getenv("PARKWATCH_CONFIG")
	}
	explicit := path != ""
	if !explicit {
		path = DefaultConfigPath()
	}

	if path != "" && (explicit || FileExists(path)) {
		fc, err := LoadFileConfig(path)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if err := ApplyFileConfig(cfg, fc, changed); err != nil {
			return err
		}
	}

	if err := ApplyEnvConfig(cfg, changed); err != nil {
		return err
	}

	return cfg.Validate()
}
