package main

import (
	"github.com/spf13/pflag"
	"github.com/tauraamui/edgevector/pkg/configdef"
)

type options struct {
	configPath        string
	verbose           bool
	source            string
	imageDir          string
	output            string
	format            string
	thresholdLow      float64
	thresholdHigh     float64
	frameRange        string
	workers           int
	windowSeconds     float64
	windowOutput      string
	backend           string
	skipUnreadable    bool
	maxDecodeFailures int
}

func (o *options) bind(flags *pflag.FlagSet) {
	flags.StringVar(&o.configPath, "config", "", "path to config file (default $EDGEVECTOR_CONFIG or user config dir)")
	flags.BoolVarP(&o.verbose, "verbose", "v", false, "log per frame detail")
	flags.StringVarP(&o.source, "source", "s", "", "video file to extract frames from")
	flags.StringVar(&o.imageDir, "image-dir", configdef.DefaultImageDir, "directory stills are written to and read from")
	flags.StringVarP(&o.output, "output", "o", configdef.DefaultOutputPath, "edge proportion table to write")
	flags.StringVar(&o.format, "format", configdef.DefaultImageFormat, "still image format: jpg, png or bmp")
	flags.Float64Var(&o.thresholdLow, "threshold-low", configdef.DefaultThresholdLow, "lower Canny hysteresis threshold")
	flags.Float64Var(&o.thresholdHigh, "threshold-high", configdef.DefaultThresholdHigh, "upper Canny hysteresis threshold")
	flags.StringVar(&o.frameRange, "frame-range", "", "frames to analyze as start:end (end exclusive), start:, :end or n")
	flags.IntVarP(&o.workers, "workers", "w", 1, "number of stills analyzed concurrently")
	flags.Float64Var(&o.windowSeconds, "window-seconds", 0, "average proportions over windows of this many seconds, 0 disables")
	flags.StringVar(&o.windowOutput, "window-output", configdef.DefaultWindowOutputPath, "window average table to write")
	flags.StringVar(&o.backend, "backend", configdef.DefaultBackend, "video decoder: opencv or mock")
	flags.BoolVar(&o.skipUnreadable, "skip-unreadable", true, "skip stills which cannot be read instead of failing")
	flags.IntVar(&o.maxDecodeFailures, "max-decode-failures", 3, "consecutive undecodable frames tolerated before giving up")
}

// apply copies every flag set on the command line over values, leaving
// config file values in place for the rest.
func (o *options) apply(flags *pflag.FlagSet, values *configdef.Values) {
	flags.Visit(func(f *pflag.Flag) {
		switch f.Name {
		case "source":
			values.SourcePath = o.source
		case "image-dir":
			values.ImageDir = o.imageDir
		case "output":
			values.OutputPath = o.output
		case "format":
			values.ImageFormat = o.format
		case "threshold-low":
			values.ThresholdLow = o.thresholdLow
		case "threshold-high":
			values.ThresholdHigh = o.thresholdHigh
		case "frame-range":
			values.FrameRange = o.frameRange
		case "workers":
			values.Workers = o.workers
		case "window-seconds":
			values.WindowSeconds = o.windowSeconds
		case "window-output":
			values.WindowOutputPath = o.windowOutput
		case "backend":
			values.Backend = o.backend
		case "skip-unreadable":
			values.SkipUnreadable = o.skipUnreadable
		case "max-decode-failures":
			values.MaxDecodeFailures = o.maxDecodeFailures
		}
	})
}
