package configdef

import (
	"errors"
	"fmt"

	"gopkg.in/dealancer/validate.v2"
)

const (
	DefaultImageDir         = "."
	DefaultOutputPath       = "edge_outfile.csv"
	DefaultWindowOutputPath = "edge_windows.csv"
	DefaultImageFormat      = "jpg"
	DefaultThresholdLow     = 100
	DefaultThresholdHigh    = 200
	DefaultBackend          = "opencv"
)

type Values struct {
	SourcePath        string  `json:"source_path"`
	ImageDir          string  `json:"image_dir" validate:"empty=false"`
	OutputPath        string  `json:"output_path" validate:"empty=false"`
	ImageFormat       string  `json:"image_format" validate:"one_of=jpg,png,bmp"`
	ThresholdLow      float64 `json:"threshold_low" validate:"gte=0"`
	ThresholdHigh     float64 `json:"threshold_high" validate:"gte=0"`
	FrameRange        string  `json:"frame_range"`
	Workers           int     `json:"workers" validate:"gte=1 & lte=64"`
	MaxDecodeFailures int     `json:"max_decode_failures" validate:"gte=0 & lte=1000"`
	SkipUnreadable    bool    `json:"skip_unreadable"`
	WindowSeconds     float64 `json:"window_seconds" validate:"gte=0"`
	WindowOutputPath  string  `json:"window_output_path"`
	Backend           string  `json:"backend" validate:"one_of=opencv,mock"`
}

// Defaults returns the values edge analysis was tuned with,
// minus the source path which has no sensible default.
func Defaults() Values {
	return Values{
		ImageDir:          DefaultImageDir,
		OutputPath:        DefaultOutputPath,
		ImageFormat:       DefaultImageFormat,
		ThresholdLow:      DefaultThresholdLow,
		ThresholdHigh:     DefaultThresholdHigh,
		Workers:           1,
		MaxDecodeFailures: 3,
		SkipUnreadable:    true,
		WindowOutputPath:  DefaultWindowOutputPath,
		Backend:           DefaultBackend,
	}
}

func (v Values) RunValidate() error {
	if err := validate.Validate(&v); err != nil {
		return err
	}
	return v.Validate()
}

func (v Values) Validate() error {
	const validationErrorHeader = "validation failed: %w"
	if v.ThresholdLow > v.ThresholdHigh {
		return fmt.Errorf(validationErrorHeader, errors.New("threshold_low must not exceed threshold_high"))
	}
	if _, err := ParseFrameRange(v.FrameRange); err != nil {
		return fmt.Errorf(validationErrorHeader, err)
	}
	if v.WindowSeconds > 0 && len(v.WindowOutputPath) == 0 {
		return fmt.Errorf(validationErrorHeader, errors.New("window_output_path required when window_seconds is set"))
	}
	return nil
}

// Range returns the parsed frame range, which RunValidate guarantees is well formed.
func (v Values) Range() FrameRange {
	r, err := ParseFrameRange(v.FrameRange)
	if err != nil {
		return FrameRange{}
	}
	return r
}
