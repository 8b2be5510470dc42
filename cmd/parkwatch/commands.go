package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ironsheep/parkwatch/internal/config"
	"github.com/ironsheep/parkwatch/internal/imaging"
	"github.com/ironsheep/parkwatch/internal/pipeline"
	"github.com/ironsheep/parkwatch/internal/render"
	"github.com/ironsheep/parkwatch/internal/server"
	"github.com/ironsheep/parkwatch/internal/slots"
	"github.com/ironsheep/parkwatch/internal/source"
)

func (a *app) runCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Classify a stream of frames and emit one JSON line per frame",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.cfg.RequireSource(); err != nil {
				return err
			}
			layout, err := a.cfg.Layout()
			if err != nil {
				return err
			}

			sinks, err := a.sinks(layout, true)
			if err != nil {
				return err
			}
			defer pipeline.CloseAll(sinks)

			runner, err := a.runner(layout, sinks)
			if err != nil {
				return err
			}

			src, err := source.Open(a.cfg.Source, source.Options{Loop: a.cfg.Loop, Logger: a.log})
			if err != nil {
				return err
			}
			defer src.Close()

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a.log.Info().
				Str("run_id", runner.RunID()).
				Str("source", a.cfg.Source).
				Int("slots", layout.Len()).
				Ints("reserved", layout.Reserved()).
				Msg("Starting")

			stats, err := runner.Run(ctx, src)
			if err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			a.log.Info().
				Int("processed", stats.Processed).
				Int("skipped", stats.Skipped).
				Int("last_free", stats.LastFree).
				Int("last_total", stats.LastTotal).
				Msg("Stopped")
			return nil
		},
	}
}

func (a *app) classifyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "classify <image>",
		Short: "Classify a single frame and print its report as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			layout, frame, err := a.loadFrame(args[0])
			if err != nil {
				return err
			}

			sinks, err := a.sinks(layout, false)
			if err != nil {
				return err
			}
			defer pipeline.CloseAll(sinks)

			runner, err := a.runner(layout, sinks)
			if err != nil {
				return err
			}
			report, err := runner.Process(frame)
			if err != nil {
				return err
			}
			for _, s := range sinks {
				if err := s.Write(cmd.Context(), report); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func (a *app) preprocessCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "preprocess <image> <mask.png>",
		Short: "Write the binary mask of a frame (and every stage with --stage-dir)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			img, err := imaging.LoadFrame(args[0])
			if err != nil {
				return err
			}
			pre, err := a.cfg.Preprocessor()
			if err != nil {
				return err
			}
			stages, err := pre.Stages(img)
			if err != nil {
				return err
			}
			if err := imaging.SaveImage(stages.Dilated, args[1]); err != nil {
				return err
			}

			if a.cfg.StageDir != "" {
				if err := os.MkdirAll(a.cfg.StageDir, 0o755); err != nil {
					return fmt.Errorf("failed to create stage directory: %w", err)
				}
				if err := pipeline.SaveStages(stages, a.cfg.StageDir, stem(args[0])); err != nil {
					return err
				}
			}

			nonzero, err := imaging.CountNonZero(stages.Dilated, stages.Dilated.Bounds())
			if err != nil {
				return err
			}
			a.log.Info().Str("backend", pre.Name()).Str("mask", args[1]).Int("nonzero", nonzero).Msg("Mask written")
			return nil
		},
	}
}

func (a *app) renderCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "render <image> <overlay.png>",
		Short: "Write the annotated overlay of a single frame",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			layout, frame, err := a.loadFrame(args[0])
			if err != nil {
				return err
			}
			runner, err := a.runner(layout, nil)
			if err != nil {
				return err
			}
			report, err := runner.Process(frame)
			if err != nil {
				return err
			}

			opts := render.DefaultOptions()
			if a.cfg.Timestamp {
				opts.Timestamp = frame.Timestamp
			}
			out, err := render.Overlay(frame.Image, layout, report.Result, opts)
			if err != nil {
				return err
			}
			if err := imaging.SaveImage(out, args[1]); err != nil {
				return err
			}
			a.log.Info().
				Str("overlay", args[1]).
				Int("free", report.Result.FreeCount).
				Int("total", report.Result.TotalCount).
				Msg("Overlay written")
			return nil
		},
	}
}

func (a *app) mcpCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the lot tools over MCP (JSON-RPC on stdin/stdout)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a.log.Debug().Str("version", Version).Str("build_time", BuildTime).Str("commit", GitCommit).Msg("MCP server starting")
			return server.New(a.cfg, a.log, Version).Run()
		},
	}
}

// loadFrame loads the layout and a single frame file, and checks that every
// slot fits the frame.
func (a *app) loadFrame(path string) (*slots.Config, source.Frame, error) {
	layout, err := a.cfg.Layout()
	if err != nil {
		return nil, source.Frame{}, err
	}
	img, err := imaging.LoadFrame(path)
	if err != nil {
		return nil, source.Frame{}, fmt.Errorf("%w: %w", imaging.ErrInvalidFrame, err)
	}
	if err := layout.CheckAll(img.Bounds()); err != nil {
		return nil, source.Frame{}, err
	}

	ts := time.Now()
	if fi, err := os.Stat(path); err == nil {
		ts = fi.ModTime()
	}
	return layout, source.Frame{Image: img, Seq: 1, Name: filepath.Base(path), Timestamp: ts}, nil
}

func (a *app) runner(layout *slots.Config, sinks []pipeline.Sink) (*pipeline.Runner, error) {
	pre, err := a.cfg.Preprocessor()
	if err != nil {
		return nil, err
	}
	cls, err := a.cfg.Classifier()
	if err != nil {
		return nil, err
	}
	return pipeline.New(pre, cls, layout, sinks, pipeline.Options{
		Workers:        a.cfg.Workers,
		MaxFrames:      a.cfg.MaxFrames,
		FrameInterval:  a.cfg.FrameInterval,
		AbortOnInvalid: a.cfg.OnInvalidFrame == config.OnInvalidAbort,
		Logger:         a.log,
	})
}

// sinks builds the configured outputs. The log sink is only useful for
// streams; a single classification is printed as JSON instead.
func (a *app) sinks(layout *slots.Config, logFrames bool) ([]pipeline.Sink, error) {
	var sinks []pipeline.Sink

	out, err := pipeline.OpenJSONLSink(a.cfg.Output)
	if err != nil {
		return nil, err
	}
	sinks = append(sinks, out)

	if logFrames {
		sinks = append(sinks, pipeline.NewLogSink(a.log))
	}
	if a.cfg.OverlayDir != "" {
		s, err := pipeline.NewOverlaySink(a.cfg.OverlayDir, layout, render.DefaultOptions(), a.cfg.Timestamp)
		if err != nil {
			pipeline.CloseAll(sinks)
			return nil, err
		}
		sinks = append(sinks, s)
	}
	if a.cfg.StageDir != "" {
		s, err := pipeline.NewStageSink(a.cfg.StageDir)
		if err != nil {
			pipeline.CloseAll(sinks)
			return nil, err
		}
		sinks = append(sinks, s)
	}
	return sinks, nil
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
