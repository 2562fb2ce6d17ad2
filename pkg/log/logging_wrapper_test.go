package log_test

import (
	"testing"

	"github.com/matryer/is"
	"github.com/tauraamui/edgevector/pkg/log"
)

func TestCaptureRecordsFormattedLinesPerLevel(t *testing.T) {
	is := is.New(t)

	lines := map[string][]string{}
	reset := log.Capture(func(level, msg string) {
		lines[level] = append(lines[level], msg)
	})

	log.Info("frames per second: %.2f", 29.97)
	log.Warn("skipping %s", "frame3")
	log.Debug("plain")
	reset()

	is.Equal(lines["info"], []string{"frames per second: 29.97"})
	is.Equal(lines["warn"], []string{"skipping frame3"})
	is.Equal(lines["debug"], []string{"plain"})
}

func TestCaptureResetRestoresOriginals(t *testing.T) {
	is := is.New(t)

	captured := 0
	reset := log.Capture(func(string, string) { captured++ })
	reset()

	log.SetLevel("silent")
	defer log.SetLevel("info")
	log.Info("not captured")
	is.Equal(captured, 0)
}
