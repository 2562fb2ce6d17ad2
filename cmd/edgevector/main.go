package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/tacusci/logging/v2"
	"github.com/tauraamui/edgevector/pkg/config"
	"github.com/tauraamui/edgevector/pkg/configdef"
	"github.com/tauraamui/edgevector/pkg/log"
	"github.com/tauraamui/edgevector/pkg/pipeline"
	"github.com/tauraamui/edgevector/pkg/video/videobackend"
)

const description = "Extract every frame of a video to stills and measure the proportion of Canny edge pixels in each"

var exampleUsage = strings.TrimSpace(`
  edgevector --source clip.mp4 --image-dir ./frames --output edge_outfile.csv
  edgevector analyze --image-dir ./frames --frame-range 100:200 --workers 4
  edgevector window --fps 29.97 --window-seconds 2 --window-output edge_windows.csv
`)

func newRootCommand() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "edgevector",
		Short:         description,
		Example:       exampleUsage,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFull(cmd, opts)
		},
	}
	opts.bind(root.PersistentFlags())

	root.AddCommand(
		&cobra.Command{
			Use:   "run",
			Short: "Extract frames then analyze them (default)",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runFull(cmd, opts)
			},
		},
		&cobra.Command{
			Use:   "extract",
			Short: "Only write out an image file for each frame",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runExtract(cmd, opts)
			},
		},
		&cobra.Command{
			Use:   "analyze",
			Short: "Measure edge proportions of stills left by an earlier extraction",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runAnalyze(cmd, opts)
			},
		},
		newWindowCommand(opts),
		&cobra.Command{
			Use:   "setup",
			Short: "Write a default config file",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runSetup(opts)
			},
		},
	)

	return root
}

func newWindowCommand(opts *options) *cobra.Command {
	var fps float64
	cmd := &cobra.Command{
		Use:   "window",
		Short: "Average an existing output table over fixed time windows",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWindow(cmd, opts, fps)
		},
	}
	cmd.Flags().Float64Var(&fps, "fps", 0, "frame rate of the analyzed video, probed from --source when unset")
	return cmd
}

func runFull(cmd *cobra.Command, opts *options) error {
	p, err := newPipeline(cmd, opts)
	if err != nil {
		return err
	}

	ctx, cancel := interruptible()
	defer cancel()

	report, err := p.Run(ctx)
	if err != nil {
		return err
	}
	log.Info(
		"Run [%s] wrote %d rows, skipped %d frames (%d undecodable)",
		report.RunID, report.Rows, report.Summary.Skipped, report.Extraction.DecodeFailures,
	)
	return nil
}

func runExtract(cmd *cobra.Command, opts *options) error {
	p, err := newPipeline(cmd, opts)
	if err != nil {
		return err
	}

	ctx, cancel := interruptible()
	defer cancel()

	result, err := p.Extract(ctx)
	if err != nil {
		return err
	}
	log.Info("Wrote %d stills from source [%s]", len(result.Stills), result.SourceID)
	return nil
}

func runAnalyze(cmd *cobra.Command, opts *options) error {
	p, err := newPipeline(cmd, opts)
	if err != nil {
		return err
	}

	ctx, cancel := interruptible()
	defer cancel()

	var fps float64
	if p.Values().WindowSeconds > 0 {
		if fps, err = p.SourceFPS(ctx); err != nil {
			return err
		}
	}

	_, err = p.Analyze(ctx, fps)
	return err
}

func runWindow(cmd *cobra.Command, opts *options, fps float64) error {
	p, err := newPipeline(cmd, opts)
	if err != nil {
		return err
	}

	if p.Values().WindowSeconds <= 0 {
		return errors.New("window requires --window-seconds greater than 0")
	}

	if fps <= 0 {
		ctx, cancel := interruptible()
		defer cancel()
		if fps, err = p.SourceFPS(ctx); err != nil {
			return err
		}
	}

	_, err = p.Window(fps)
	return err
}

func runSetup(opts *options) error {
	log.Info("Setting up edgevector config...")
	err := config.DefaultCreateResolver(opts.configPath).Create()
	if err != nil {
		if !errors.Is(err, configdef.ErrConfigAlreadyExists) {
			return err
		}
		log.Error(err.Error())
	}
	log.Info("Setup successful...")
	return nil
}

func newPipeline(cmd *cobra.Command, opts *options) (*pipeline.Pipeline, error) {
	if opts.verbose {
		log.SetLevel("debug")
	}

	values, err := config.DefaultCreateResolver(opts.configPath).Resolve()
	if err != nil {
		return nil, err
	}
	opts.apply(cmd.Flags(), &values)

	return pipeline.New(afero.NewOsFs(), videobackend.Resolve(values.Backend), values)
}

// interruptible returns a context cancelled on SIGINT or SIGTERM.
func interruptible() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-interrupt:
			fmt.Print("\r")
			log.Error("Received signal: %s", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(interrupt)
		cancel()
	}
}

func init() {
	logging.CallbackLabelLevel = 5
	logging.ColorLogLevelLabelOnly = true
	log.SetLevel(os.Getenv("EDGEVECTOR_LOGGING_LEVEL"))
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		logging.Error(err.Error()) //nolint
		os.Exit(1)
	}
}
