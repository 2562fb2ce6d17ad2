package extract

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/tauraamui/edgevector/pkg/framestore"
	"github.com/tauraamui/edgevector/pkg/log"
	"github.com/tauraamui/edgevector/pkg/video/videobackend"
	"github.com/tauraamui/xerror"
)

var ErrTooManyDecodeFailures = errors.New("too many consecutive frame decode failures")

type Result struct {
	SourceID       string
	Stills         []framestore.Still
	FPS            float64
	NominalFrames  int
	Decoded        int
	DecodeFailures int
	SaveFailures   int
}

// Duration estimates the playing time of the decoded frames from the
// nominal frame rate, zero when the source reported none.
func (r Result) Duration() time.Duration {
	if r.FPS <= 0 {
		return 0
	}
	return time.Duration(float64(r.Decoded) / r.FPS * float64(time.Second))
}

type Extractor struct {
	Backend           videobackend.Backend
	Store             framestore.Store
	MaxDecodeFailures int
}

// Run decodes path frame by frame, persisting each frame to the store
// before the next is read. The source is released exactly once whichever
// way the loop ends.
func (e Extractor) Run(ctx context.Context, path string) (Result, error) {
	log.Info("Getting video info & writing out image files for each frame...")

	src, err := e.Backend.Open(ctx, path)
	if err != nil {
		return Result{}, err
	}
	defer func() {
		if err := src.Close(); err != nil {
			log.Error("Unable to release video source [%s]: %v", src.UUID(), err)
		}
	}()

	result := Result{
		SourceID:      src.UUID(),
		FPS:           src.FPS(),
		NominalFrames: src.FrameCount(),
	}
	log.Info("Frames per second: %v", result.FPS)

	if err := e.extract(ctx, src, &result); err != nil {
		return result, err
	}

	if result.Decoded == 0 {
		return result, xerror.Errorf("%w: %s yielded no decodable frames", videobackend.ErrSourceUnavailable, path)
	}

	log.Info("Total number of frames: %d", result.Decoded)
	log.Info("Video duration in seconds: %d", int(math.Round(result.Duration().Seconds())))
	return result, nil
}

func (e Extractor) extract(ctx context.Context, src videobackend.Source, result *Result) error {
	frame := e.Backend.NewFrame()
	defer frame.Close()

	consecutiveFailures := 0
	for {
		if err := ctx.Err(); err != nil {
			return xerror.Errorf("frame extraction interrupted: %w", err)
		}

		err := src.Read(frame)
		if errors.Is(err, videobackend.ErrEndOfStream) {
			if consecutiveFailures > 0 {
				log.Warn("Video [%s] ended %d frames short of its nominal length", src.UUID(), consecutiveFailures)
			}
			return nil
		}

		if errors.Is(err, videobackend.ErrFrameDecode) {
			result.DecodeFailures++
			consecutiveFailures++
			log.Warn("Skipping undecodable frame from [%s]: %v", src.UUID(), err)
			continue
		}

		if err != nil {
			return err
		}

		// a failure run only counts against the limit once decoding resumes
		// after it, a run reaching the end of the stream is a short container
		if consecutiveFailures > e.MaxDecodeFailures {
			return xerror.Errorf("%w: %d in a row", ErrTooManyDecodeFailures, consecutiveFailures)
		}
		consecutiveFailures = 0
		index := result.Decoded
		result.Decoded++

		still, err := e.Store.Save(index, frame)
		if err != nil {
			result.SaveFailures++
			log.Warn("Skipping %s: %v", framestore.Name(index), err)
			continue
		}
		log.Debug("Wrote %s (%dx%d)", still.Path, still.Dimensions.W, still.Dimensions.H)
		result.Stills = append(result.Stills, still)
	}
}
