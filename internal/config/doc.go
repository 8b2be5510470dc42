// Package config holds the run configuration of the parkwatch CLI and the
// layering that builds it.
//
// # Precedence
//
// Values are applied lowest first:
//  1. DefaultConfig
//  2. the TOML config file (--config, $PARKWATCH_CONFIG, or
//     ~/.parkwatch/config.toml when it exists)
//  3. PARKWATCH_* environment variables
//  4. flags set explicitly on the command line
//
// A layer never overrides a flag the user set; Resolve collects the set
// flags into a changed map that every setter consults.
//
// # Unset Values
//
// An empty string means "not set" in the file and the environment. Booleans
// and numbers whose zero value is meaningful (offset, blur_sigma,
// max_frames) are pointers in FileConfig, so offset = 0 is applied rather
// than ignored. Other counts and sizes ignore non-positive values.
//
// # Example File
//
//	source = "watch:/srv/lot/incoming"
//	slots_file = "/etc/parkwatch/CarParkPos"
//	reserved = [1, 3, 7, 9]
//	workers = 4
//
//	[thresholds]
//	free_below = 900
//	occupied_from = 1500
//
//	[preprocess]
//	block_size = 25
//	offset = 16
//
// # Validation
//
// Resolve finishes with Validate, which reports every error wrapped in
// ErrInvalidConfig. The source and the slots file are only required by the
// commands that use them (RequireSource, Layout).
package config
