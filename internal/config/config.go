package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ironsheep/parkwatch/internal/imaging"
	"github.com/ironsheep/parkwatch/internal/occupancy"
	"github.com/ironsheep/parkwatch/internal/slots"
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid configuration")

// Invalid frame policies.
const (
	OnInvalidSkip  = "skip"
	OnInvalidAbort = "abort"
)

// Log formats.
const (
	LogFormatConsole = "console"
	LogFormatJSON    = "json"
)

// Config holds CLI configuration for parkwatch.
type Config struct {
	Source string
	Loop   bool

	SlotsFile  string
	SlotWidth  int
	SlotHeight int
	Reserved   []int

	Thresholds occupancy.Thresholds
	Backend    string
	Preprocess imaging.Params

	Workers        int
	MaxFrames      int
	FrameInterval  time.Duration
	OnInvalidFrame string

	Output     string
	OverlayDir string
	StageDir   string
	Timestamp  bool

	LogLevel  string
	LogFormat string
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		Loop:           true,
		SlotWidth:      107,
		SlotHeight:     48,
		Thresholds:     occupancy.DefaultThresholds(),
		Backend:        imaging.BackendNative,
		Preprocess:     imaging.DefaultParams(),
		Workers:        1,
		OnInvalidFrame: OnInvalidSkip,
		Output:         "-",
		Timestamp:      true,
		LogLevel:       "info",
		LogFormat:      LogFormatConsole,
	}
}

// Validate checks the configuration for errors.
//
// It does not require a source or a slots file; commands that need them call
// RequireSource and Layout.
func (c *Config) Validate() error {
	if c.SlotWidth <= 0 || c.SlotHeight <= 0 {
		return fmt.Errorf("%w: slot size must be positive, got %dx%d", ErrInvalidConfig, c.SlotWidth, c.SlotHeight)
	}
	if err := c.Thresholds.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := c.Preprocess.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	switch c.Backend {
	case imaging.BackendNative, imaging.BackendOpenCV:
	default:
		return fmt.Errorf("%w: unknown backend %q", ErrInvalidConfig, c.Backend)
	}
	if c.Workers < 1 {
		return fmt.Errorf("%w: workers must be >= 1, got %d", ErrInvalidConfig, c.Workers)
	}
	if c.MaxFrames < 0 {
		return fmt.Errorf("%w: max-frames must be >= 0, got %d", ErrInvalidConfig, c.MaxFrames)
	}
	if c.FrameInterval < 0 {
		return fmt.Errorf("%w: frame-interval must be >= 0", ErrInvalidConfig)
	}
	switch c.OnInvalidFrame {
	case OnInvalidSkip, OnInvalidAbort:
	default:
		return fmt.Errorf("%w: on-invalid-frame must be %q or %q, got %q", ErrInvalidConfig, OnInvalidSkip, OnInvalidAbort, c.OnInvalidFrame)
	}
	switch c.LogFormat {
	case LogFormatConsole, LogFormatJSON:
	default:
		return fmt.Errorf("%w: log-format must be %q or %q, got %q", ErrInvalidConfig, LogFormatConsole, LogFormatJSON, c.LogFormat)
	}

	if c.Output == "" {
		c.Output = "-"
	}
	return nil
}

// RequireSource reports an error when no frame source is configured.
func (c *Config) RequireSource() error {
	if c.Source == "" {
		return fmt.Errorf("%w: source is required", ErrInvalidConfig)
	}
	return nil
}

// Layout loads the slot positions file and builds the slot layout.
func (c *Config) Layout() (*slots.Config, error) {
	if c.SlotsFile == "" {
		return nil, fmt.Errorf("%w: slots file is required", ErrInvalidConfig)
	}
	return slots.Load(c.SlotsFile, c.SlotWidth, c.SlotHeight, c.Reserved)
}

// Preprocessor builds the configured preprocessing backend.
func (c *Config) Preprocessor() (imaging.Preprocessor, error) {
	return imaging.NewPreprocessor(c.Backend, c.Preprocess)
}

// Classifier builds a classifier with the configured thresholds.
func (c *Config) Classifier() (*occupancy.Classifier, error) {
	return occupancy.NewClassifier(c.Thresholds)
}

// DefaultConfigPath returns ~/.parkwatch/config.toml, or "" when the home
// directory cannot be determined.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".parkwatch", "config.toml")
	}
	return ""
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
