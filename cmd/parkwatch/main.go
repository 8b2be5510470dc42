package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ironsheep/parkwatch/internal/config"
	"github.com/ironsheep/parkwatch/internal/logging"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

var longHelp = strings.TrimSpace(`
parkwatch reports which parking slots of a fixed camera view are free.

Each frame is reduced to a binary edge mask (grayscale, Gaussian blur,
inverted adaptive threshold, median filter, dilation). The mask pixels inside
every slot rectangle are counted: few pixels means free, many means occupied,
and counts in between mean a car is parked across the slot lines. Reserved
slots are always reported as reserved.

Configuration is layered: defaults, then the TOML config file
(~/.parkwatch/config.toml or --config), then PARKWATCH_* environment
variables, then flags.
`)

var exampleUsage = strings.TrimSpace(`
  parkwatch run --source dir:/srv/lot/frames --slots slots.json --reserved 1,3,7,9
  parkwatch run --source watch:/srv/lot/incoming --slots slots.toml --overlay-dir out/
  parkwatch classify frame.png --slots slots.json
  parkwatch render frame.png overlay.png --slots slots.json
  parkwatch mcp --slots slots.json
`)

// app carries the resolved configuration and logger into subcommands.
type app struct {
	cfg     config.Config
	cfgPath string
	log     zerolog.Logger
}

func main() {
	a := &app{cfg: config.DefaultConfig(), log: logging.Default()}

	root := &cobra.Command{
		Use:           "parkwatch",
		Short:         "Parking slot occupancy from camera frames",
		Long:          longHelp,
		Example:       exampleUsage,
		Version:       fmt.Sprintf("%s (built %s, commit %s)", Version, BuildTime, GitCommit),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Resolve(&a.cfg, cmd.Flags(), a.cfgPath); err != nil {
				return err
			}
			log, err := logging.New(os.Stderr, a.cfg.LogLevel, a.cfg.LogFormat)
			if err != nil {
				return err
			}
			a.log = log
			a.log.Debug().Interface("config", a.cfg).Msg("Configuration")
			return nil
		},
	}

	root.PersistentFlags().StringVar(&a.cfgPath, "config", "", "config file (default ~/.parkwatch/config.toml)")
	config.BindFlags(root.PersistentFlags(), &a.cfg)

	root.AddCommand(
		a.runCommand(),
		a.classifyCommand(),
		a.preprocessCommand(),
		a.renderCommand(),
		a.mcpCommand(),
	)

	if err := root.Execute(); err != nil {
		a.log.Error().Err(err).Msg("parkwatch failed")
		os.Exit(1)
	}
}
