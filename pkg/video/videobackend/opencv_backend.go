package videobackend

import (
	"context"
	"os"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/tauraamui/edgevector/pkg/video/videoframe"
	"github.com/tauraamui/xerror"
	"gocv.io/x/gocv"
)

type openCVFrame struct {
	isClosed bool
	mat      gocv.Mat
}

func NewOpenCVFrame(mat gocv.Mat) videoframe.Frame {
	return &openCVFrame{mat: mat}
}

func (frame *openCVFrame) DataRef() interface{} {
	return &frame.mat
}

func (frame *openCVFrame) Dimensions() videoframe.Dimensions {
	return videoframe.Dimensions{W: frame.mat.Cols(), H: frame.mat.Rows()}
}

func (frame *openCVFrame) Empty() bool {
	return frame.isClosed || frame.mat.Empty()
}

func (frame *openCVFrame) Close() {
	if !frame.isClosed {
		frame.mat.Close()
		frame.isClosed = true
	}
}

type openCVBackend struct{}

func (b *openCVBackend) Open(cancel context.Context, path string) (Source, error) {
	if err := checkSourceFile(path); err != nil {
		return nil, err
	}

	src := openCVSource{}
	if err := src.open(cancel, path); err != nil {
		return nil, err
	}
	return &src, nil
}

func (b *openCVBackend) NewFrame() videoframe.Frame {
	return &openCVFrame{mat: gocv.NewMat()}
}

// checkSourceFile rejects missing, empty or directory paths before OpenCV
// gets a chance to hang on them. Stream URLs and image sequence patterns
// are left for OpenCV to resolve.
func checkSourceFile(path string) error {
	if len(path) == 0 {
		return xerror.Errorf("%w: no source path given", ErrSourceUnavailable)
	}
	if strings.Contains(path, "://") || strings.Contains(path, "%") {
		return nil
	}

	info, err := fs.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return xerror.Errorf("%w: %s does not exist", ErrSourceUnavailable, path)
		}
		return xerror.Errorf("%w: %s", ErrSourceUnavailable, err)
	}
	if info.IsDir() {
		return xerror.Errorf("%w: %s is a directory", ErrSourceUnavailable, path)
	}
	if info.Size() == 0 {
		return xerror.Errorf("%w: %s is empty", ErrSourceUnavailable, path)
	}
	return nil
}

type openCVSource struct {
	uuid       string
	mu         sync.Mutex
	isClosed   bool
	vc         *gocv.VideoCapture
	fps        float64
	frameCount int
	position   int
}

func (s *openCVSource) open(cancel context.Context, path string) error {
	results := make(chan openVideoStreamResult, 1)
	go openVideoStream(path, results)
	select {
	case r := <-results:
		if r.err != nil {
			return xerror.Errorf("%w: %s", ErrSourceUnavailable, r.err)
		}
		s.vc = r.vc
	case <-cancel.Done():
		go func() {
			if r := <-results; r.vc != nil {
				closeVideoCapture(r.vc) //nolint
			}
		}()
		return xerror.New("connection cancelled")
	}

	s.fps = videoCaptureProperty(s.vc, gocv.VideoCaptureFPS)
	if count := int(videoCaptureProperty(s.vc, gocv.VideoCaptureFrameCount)); count > 0 {
		s.frameCount = count
	}
	return nil
}

type openVideoStreamResult struct {
	vc  *gocv.VideoCapture
	err error
}

func openVideoStream(path string, d chan openVideoStreamResult) {
	vc, err := openVideoCapture(path)
	d <- openVideoStreamResult{vc: vc, err: err}
}

var openVideoCapture = func(path string) (*gocv.VideoCapture, error) {
	return gocv.OpenVideoCapture(path)
}

var readFromVideoCapture = func(vc *gocv.VideoCapture, mat *gocv.Mat) bool {
	if vc.IsOpened() {
		return vc.Read(mat)
	}
	return false
}

var seekVideoCapture = func(vc *gocv.VideoCapture, position int) {
	vc.Set(gocv.VideoCapturePosFrames, float64(position))
}

var videoCaptureProperty = func(vc *gocv.VideoCapture, prop gocv.VideoCaptureProperties) float64 {
	return vc.Get(prop)
}

var closeVideoCapture = func(vc *gocv.VideoCapture) error {
	return vc.Close()
}

func (s *openCVSource) UUID() string {
	if len(s.uuid) == 0 {
		s.uuid = uuid.NewString()
	}
	return s.uuid
}

func (s *openCVSource) FPS() float64 { return s.fps }

func (s *openCVSource) FrameCount() int { return s.frameCount }

func (s *openCVSource) Read(frame videoframe.Frame) error {
	mat, ok := frame.DataRef().(*gocv.Mat)
	if !ok {
		return xerror.New("must pass OpenCV frame to OpenCV source read")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isClosed {
		return ErrSourceClosed
	}

	position := s.position
	if readFromVideoCapture(s.vc, mat) {
		s.position++
		if mat.Empty() {
			return xerror.Errorf("%w: empty buffer at position %d", ErrFrameDecode, position)
		}
		return nil
	}

	// the capture reports a failed read the same way for a corrupt frame
	// as for the end of the container, only the nominal count tells them apart
	if position < s.frameCount {
		s.position++
		seekVideoCapture(s.vc, s.position)
		return xerror.Errorf("%w: position %d of %d", ErrFrameDecode, position, s.frameCount)
	}
	return ErrEndOfStream
}

func (s *openCVSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isClosed {
		return nil
	}
	s.isClosed = true
	if s.vc == nil {
		return nil
	}
	return closeVideoCapture(s.vc)
}
