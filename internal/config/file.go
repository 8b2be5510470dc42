package config

import (
	"os"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations, and pointers for
// booleans and for numbers whose zero value is meaningful, to make TOML
// friendly.
//
//	source = "dir:/var/lib/parkwatch/frames"
//	slots_file = "slots.json"
//	reserved = [1, 3, 7, 9]
//
//	[thresholds]
//	free_below = 900
//	occupied_from = 1500
//
//	[preprocess]
//	block_size = 25
//	offset = 16
type FileConfig struct {
	Source string `toml:"source"`
	Loop   *bool  `toml:"loop"`

	SlotsFile  string `toml:"slots_file"`
	SlotWidth  int    `toml:"slot_width"`
	SlotHeight int    `toml:"slot_height"`
	Reserved   []int  `toml:"reserved"`

	Thresholds FileThresholds `toml:"thresholds"`
	Backend    string         `toml:"backend"`
	Preprocess FilePreprocess `toml:"preprocess"`

	Workers        int    `toml:"workers"`
	MaxFrames      *int   `toml:"max_frames"`
	FrameInterval  string `toml:"frame_interval"`
	OnInvalidFrame string `toml:"on_invalid_frame"`

	Output     string `toml:"output"`
	OverlayDir string `toml:"overlay_dir"`
	StageDir   string `toml:"stage_dir"`
	Timestamp  *bool  `toml:"timestamp"`

	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`
}

// FileThresholds is the [thresholds] table.
type FileThresholds struct {
	FreeBelow    int `toml:"free_below"`
	OccupiedFrom int `toml:"occupied_from"`
}

// FilePreprocess is the [preprocess] table.
type FilePreprocess struct {
	BlurKernel       int      `toml:"blur_kernel"`
	BlurSigma        *float64 `toml:"blur_sigma"`
	BlockSize        int      `toml:"block_size"`
	Offset           *float64 `toml:"offset"`
	MedianKernel     int      `toml:"median_kernel"`
	DilateKernel     int      `toml:"dilate_kernel"`
	DilateIterations int      `toml:"dilate_iterations"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("source", fc.Source, &cfg.Source)
	s.setBool("loop", fc.Loop, &cfg.Loop)

	s.setString("slots", fc.SlotsFile, &cfg.SlotsFile)
	s.setInt("slot-width", fc.SlotWidth, &cfg.SlotWidth)
	s.setInt("slot-height", fc.SlotHeight, &cfg.SlotHeight)
	s.setIntList("reserved", fc.Reserved, &cfg.Reserved)

	s.setInt("free-below", fc.Thresholds.FreeBelow, &cfg.Thresholds.FreeBelow)
	s.setInt("occupied-from", fc.Thresholds.OccupiedFrom, &cfg.Thresholds.OccupiedFrom)

	s.setString("backend", fc.Backend, &cfg.Backend)
	s.setInt("blur-kernel", fc.Preprocess.BlurKernel, &cfg.Preprocess.BlurKernel)
	s.setFloatPtr("blur-sigma", fc.Preprocess.BlurSigma, &cfg.Preprocess.BlurSigma)
	s.setInt("block-size", fc.Preprocess.BlockSize, &cfg.Preprocess.BlockSize)
	s.setFloatPtr("offset", fc.Preprocess.Offset, &cfg.Preprocess.Offset)
	s.setInt("median-kernel", fc.Preprocess.MedianKernel, &cfg.Preprocess.MedianKernel)
	s.setInt("dilate-kernel", fc.Preprocess.DilateKernel, &cfg.Preprocess.DilateKernel)
	s.setInt("dilate-iterations", fc.Preprocess.DilateIterations, &cfg.Preprocess.DilateIterations)

	s.setInt("workers", fc.Workers, &cfg.Workers)
	s.setIntPtr("max-frames", fc.MaxFrames, &cfg.MaxFrames)
	if err := s.setDuration("frame-interval", fc.FrameInterval, &cfg.FrameInterval); err != nil {
		return err
	}
	s.setString("on-invalid-frame", fc.OnInvalidFrame, &cfg.OnInvalidFrame)

	s.setString("output", fc.Output, &cfg.Output)
	s.setString("overlay-dir", fc.OverlayDir, &cfg.OverlayDir)
	s.setString("stage-dir", fc.StageDir, &cfg.StageDir)
	s.setBool("timestamp", fc.Timestamp, &cfg.Timestamp)

	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)
	s.setString("log-format", fc.LogFormat, &cfg.LogFormat)

	return nil
}
