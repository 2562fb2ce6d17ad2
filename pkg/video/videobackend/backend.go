package videobackend

import (
	"context"
	"errors"

	"github.com/spf13/afero"
	"github.com/tauraamui/edgevector/pkg/video/videoframe"
)

var fs afero.Fs = afero.NewOsFs()

var (
	ErrSourceUnavailable = errors.New("video source unavailable")
	ErrEndOfStream       = errors.New("end of video stream")
	ErrFrameDecode       = errors.New("unable to decode video frame")
	ErrSourceClosed      = errors.New("video source already closed")
)

// Source is a sequential frame reader. Read reports ErrEndOfStream once
// the container has no more frames, and ErrFrameDecode for a frame which
// could not be decoded mid-stream, after which reading may continue.
type Source interface {
	UUID() string
	FPS() float64
	FrameCount() int
	Read(videoframe.Frame) error
	Close() error
}

type Backend interface {
	Open(context.Context, string) (Source, error)
	NewFrame() videoframe.Frame
}

func Default() Backend {
	return OpenCV()
}

func OpenCV() Backend {
	return &openCVBackend{}
}

func Resolve(t string) Backend {
	switch t {
	case "mock":
		return Mock(DefaultMockSettings())
	default:
		return Default()
	}
}
