package config

import "os"

// ApplyEnvConfig applies PARKWATCH_* environment variables. They override
// the config file but not explicitly set flags.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("source", os.Getenv("PARKWATCH_SOURCE"), &cfg.Source)
	s.setBoolFromString("loop", os.Getenv("PARKWATCH_LOOP"), &cfg.Loop)

	s.setString("slots", os.Getenv("PARKWATCH_SLOTS"), &cfg.SlotsFile)
	if err := s.setIntFromString("slot-width", os.Getenv("PARKWATCH_SLOT_WIDTH"), &cfg.SlotWidth); err != nil {
		return err
	}
	if err := s.setIntFromString("slot-height", os.Getenv("PARKWATCH_SLOT_HEIGHT"), &cfg.SlotHeight); err != nil {
		return err
	}
	if err := s.setIntListFromString("reserved", os.Getenv("PARKWATCH_RESERVED"), &cfg.Reserved); err != nil {
		return err
	}

	if err := s.setIntFromString("free-below", os.Getenv("PARKWATCH_FREE_BELOW"), &cfg.Thresholds.FreeBelow); err != nil {
		return err
	}
	if err := s.setIntFromString("occupied-from", os.Getenv("PARKWATCH_OCCUPIED_FROM"), &cfg.Thresholds.OccupiedFrom); err != nil {
		return err
	}

	s.setString("backend", os.Getenv("PARKWATCH_BACKEND"), &cfg.Backend)
	if err := s.setFloatFromString("blur-sigma", os.Getenv("PARKWATCH_BLUR_SIGMA"), &cfg.Preprocess.BlurSigma); err != nil {
		return err
	}
	if err := s.setIntFromString("block-size", os.Getenv("PARKWATCH_BLOCK_SIZE"), &cfg.Preprocess.BlockSize); err != nil {
		return err
	}
	if err := s.setFloatFromString("offset", os.Getenv("PARKWATCH_OFFSET"), &cfg.Preprocess.Offset); err != nil {
		return err
	}

	if err := s.setIntFromString("workers", os.Getenv("PARKWATCH_WORKERS"), &cfg.Workers); err != nil {
		return err
	}
	if err := s.setCountFromString("max-frames", os.Getenv("PARKWATCH_MAX_FRAMES"), &cfg.MaxFrames); err != nil {
		return err
	}
	if err := s.setDuration("frame-interval", os.Getenv("PARKWATCH_FRAME_INTERVAL"), &cfg.FrameInterval); err != nil {
		return err
	}
	s.setString("on-invalid-frame", os.Getenv("PARKWATCH_ON_INVALID_FRAME"), &cfg.OnInvalidFrame)

	s.setString("output", os.Getenv("PARKWATCH_OUTPUT"), &cfg.Output)
	s.setString("overlay-dir", os.Getenv("PARKWATCH_OVERLAY_DIR"), &cfg.OverlayDir)
	s.setString("stage-dir", os.Getenv("PARKWATCH_STAGE_DIR"), &cfg.StageDir)
	s.setBoolFromString("timestamp", os.Getenv("PARKWATCH_TIMESTAMP"), &cfg.Timestamp)

	s.setString("log-level", os.Getenv("PARKWATCH_LOG_LEVEL"), &cfg.LogLevel)
	s.setString("log-format", os.Getenv("PARKWATCH_LOG_FORMAT"), &cfg.LogFormat)

	return nil
}
