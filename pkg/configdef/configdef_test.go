package configdef_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/matryer/is"
	"github.com/tauraamui/edgevector/pkg/configdef"
)

func loadOverDefaults(t *testing.T, body string) configdef.Values {
	t.Helper()
	config := configdef.Defaults()
	if err := json.Unmarshal([]byte(body), &config); err != nil {
		t.Fatalf("unable to unmarshal test config: %v", err)
	}
	return config
}

func TestValidateDefaultsWithSourcePasses(t *testing.T) {
	is := is.New(t)
	config := loadOverDefaults(t, `{"source_path": "test.mov"}`)
	is.NoErr(config.RunValidate())
	is.Equal(config.ThresholdLow, 100.0)
	is.Equal(config.ThresholdHigh, 200.0)
	is.Equal(config.OutputPath, "edge_outfile.csv")
	is.Equal(config.Range(), configdef.All())
}

func TestValidateWithoutSourcePathPasses(t *testing.T) {
	is := is.New(t)
	config := loadOverDefaults(t, `{}`)
	is.NoErr(config.RunValidate())
}

func TestValidateFailsForMissingOutputPath(t *testing.T) {
	is := is.New(t)
	config := loadOverDefaults(t, `{"output_path": ""}`)
	is.Equal(config.RunValidate().Error(), `Validation error in field "OutputPath" of type "string" using validator "empty=false"`)
}

func TestValidateFailsForUnknownImageFormat(t *testing.T) {
	is := is.New(t)
	config := loadOverDefaults(t, `{"source_path": "test.mov", "image_format": "tiff"}`)
	is.True(config.RunValidate() != nil)
}

func TestValidateFailsForZeroWorkers(t *testing.T) {
	is := is.New(t)
	config := loadOverDefaults(t, `{"source_path": "test.mov", "workers": 0}`)
	is.Equal(config.RunValidate().Error(), `Validation error in field "Workers" of type "int" using validator "gte=1"`)
}

func TestValidateFailsForInvertedThresholds(t *testing.T) {
	is := is.New(t)
	config := loadOverDefaults(t, `{"source_path": "test.mov", "threshold_low": 250, "threshold_high": 200}`)
	is.Equal(config.RunValidate().Error(), "validation failed: threshold_low must not exceed threshold_high")
}

func TestValidateFailsForMalformedFrameRange(t *testing.T) {
	is := is.New(t)
	config := loadOverDefaults(t, `{"source_path": "test.mov", "frame_range": "10:2"}`)
	err := config.RunValidate()
	is.True(err != nil)
	is.True(errors.Is(err, configdef.ErrInvalidFrameRange))
}

func TestValidateFailsForWindowWithoutOutput(t *testing.T) {
	is := is.New(t)
	config := loadOverDefaults(t, `{"source_path": "test.mov", "window_seconds": 2, "window_output_path": ""}`)
	is.Equal(config.RunValidate().Error(), "validation failed: window_output_path required when window_seconds is set")
}

func TestParseFrameRange(t *testing.T) {
	tests := []struct {
		in       string
		expected configdef.FrameRange
	}{
		{in: "", expected: configdef.All()},
		{in: ":", expected: configdef.All()},
		{in: "0:193", expected: configdef.FrameRange{Start: 0, End: 193}},
		{in: "5:", expected: configdef.FrameRange{Start: 5, End: -1}},
		{in: ":7", expected: configdef.FrameRange{Start: 0, End: 7}},
		{in: "4", expected: configdef.FrameRange{Start: 4, End: 5}},
		{in: " 2 : 3 ", expected: configdef.FrameRange{Start: 2, End: 3}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			is := is.New(t)
			r, err := configdef.ParseFrameRange(tt.in)
			is.NoErr(err)
			is.Equal(r, tt.expected)
		})
	}
}

func TestParseFrameRangeRejectsBadInput(t *testing.T) {
	for _, in := range []string{"a:b", "-1:4", "9:3", "x", "1:-2"} {
		t.Run(in, func(t *testing.T) {
			is := is.New(t)
			_, err := configdef.ParseFrameRange(in)
			is.True(errors.Is(err, configdef.ErrInvalidFrameRange))
		})
	}
}

func TestFrameRangeContains(t *testing.T) {
	is := is.New(t)

	bounded := configdef.FrameRange{Start: 2, End: 4}
	is.True(!bounded.Contains(1))
	is.True(bounded.Contains(2))
	is.True(bounded.Contains(3))
	is.True(!bounded.Contains(4))

	open := configdef.FrameRange{Start: 2, End: -1}
	is.True(!open.Contains(0))
	is.True(open.Contains(1 << 20))

	is.Equal(configdef.All().String(), "all")
	is.Equal(open.String(), "2:")
	is.Equal(bounded.String(), "2:4")
}
