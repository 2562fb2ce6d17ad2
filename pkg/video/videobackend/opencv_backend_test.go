package videobackend

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/matryer/is"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"github.com/tauraamui/edgevector/internal/videotest"
	"github.com/tauraamui/xerror"
	"gocv.io/x/gocv"
)

func overloadOpenVidCap(overload func(path string) (*gocv.VideoCapture, error)) func() {
	openVidCapRef := openVideoCapture
	openVideoCapture = overload
	return func() { openVideoCapture = openVidCapRef }
}

func overloadReadFromVidCap(overload func(vc *gocv.VideoCapture, mat *gocv.Mat) bool) func() {
	readFromVidCapRef := readFromVideoCapture
	readFromVideoCapture = overload
	return func() { readFromVideoCapture = readFromVidCapRef }
}

func overloadSeekVidCap(overload func(vc *gocv.VideoCapture, position int)) func() {
	seekVidCapRef := seekVideoCapture
	seekVideoCapture = overload
	return func() { seekVideoCapture = seekVidCapRef }
}

func overloadCloseVidCap(overload func(vc *gocv.VideoCapture) error) func() {
	closeVidCapRef := closeVideoCapture
	closeVideoCapture = overload
	return func() { closeVideoCapture = closeVidCapRef }
}

func overloadFs(overload afero.Fs) func() {
	fsRef := fs
	fs = overload
	return func() { fs = fsRef }
}

func TestCheckSourceFileRejectsMissingEmptyAndDirectories(t *testing.T) {
	is := is.New(t)
	memFs := afero.NewMemMapFs()
	defer overloadFs(memFs)()

	is.NoErr(memFs.MkdirAll("/videos/dir.mov", os.ModePerm))
	is.NoErr(afero.WriteFile(memFs, "/videos/empty.mov", []byte{}, 0666))
	is.NoErr(afero.WriteFile(memFs, "/videos/test.mov", []byte{0x0, 0x0, 0x0, 0x18}, 0666))

	for _, path := range []string{"", "/videos/missing.mov", "/videos/dir.mov", "/videos/empty.mov"} {
		err := checkSourceFile(path)
		is.True(errors.Is(err, ErrSourceUnavailable))
	}

	is.NoErr(checkSourceFile("/videos/test.mov"))
	is.NoErr(checkSourceFile("rtsp://camera.local/stream"))
	is.NoErr(checkSourceFile("/frames/img_%04d.jpg"))
}

func TestOpenWrapsOpenVideoCaptureFailureAsSourceUnavailable(t *testing.T) {
	is := is.New(t)
	memFs := afero.NewMemMapFs()
	defer overloadFs(memFs)()
	is.NoErr(afero.WriteFile(memFs, "/videos/test.mov", []byte{0x1}, 0666))

	defer overloadOpenVidCap(
		func(path string) (*gocv.VideoCapture, error) {
			return nil, xerror.New("test open error")
		},
	)()

	backend := openCVBackend{}
	src, err := backend.Open(context.TODO(), "/videos/test.mov")
	is.True(src == nil)
	is.True(errors.Is(err, ErrSourceUnavailable))
	is.Equal(err.Error(), "video source unavailable: test open error")
}

func TestOpenWithImmediateCancelInvoke(t *testing.T) {
	is := is.New(t)
	opening := make(chan struct{})
	defer overloadOpenVidCap(
		func(path string) (*gocv.VideoCapture, error) {
			<-opening
			return nil, xerror.New("too late")
		},
	)()
	defer close(opening)

	src := openCVSource{}
	ctx, cancel := context.WithCancel(context.TODO())
	cancel()

	is.Equal(src.open(ctx, "/videos/test.mov").Error(), "connection cancelled")
}

func TestSourceReadDistinguishesDecodeFailureFromEndOfStream(t *testing.T) {
	is := is.New(t)

	reads := 0
	defer overloadReadFromVidCap(func(vc *gocv.VideoCapture, mat *gocv.Mat) bool {
		reads++
		return false
	})()

	seeks := []int{}
	defer overloadSeekVidCap(func(vc *gocv.VideoCapture, position int) {
		seeks = append(seeks, position)
	})()

	src := openCVSource{vc: &gocv.VideoCapture{}, frameCount: 2}
	frame := &openCVFrame{mat: gocv.NewMat()}
	defer frame.Close()

	err := src.Read(frame)
	is.True(errors.Is(err, ErrFrameDecode))
	is.Equal(err.Error(), "unable to decode video frame: position 0 of 2")
	is.True(errors.Is(src.Read(frame), ErrFrameDecode))
	is.True(errors.Is(src.Read(frame), ErrEndOfStream))
	is.Equal(seeks, []int{1, 2})
	is.Equal(reads, 3)
}

func TestSourceReadWithUnknownFrameCountEndsOnFirstFailedRead(t *testing.T) {
	is := is.New(t)
	defer overloadReadFromVidCap(func(vc *gocv.VideoCapture, mat *gocv.Mat) bool {
		return false
	})()

	src := openCVSource{vc: &gocv.VideoCapture{}}
	frame := &openCVFrame{mat: gocv.NewMat()}
	defer frame.Close()

	is.True(errors.Is(src.Read(frame), ErrEndOfStream))
}

func TestSourceReadOfEmptyBufferIsDecodeFailure(t *testing.T) {
	is := is.New(t)
	defer overloadReadFromVidCap(func(vc *gocv.VideoCapture, mat *gocv.Mat) bool {
		return true
	})()

	src := openCVSource{vc: &gocv.VideoCapture{}, frameCount: 5}
	frame := &openCVFrame{mat: gocv.NewMat()}
	defer frame.Close()

	is.True(errors.Is(src.Read(frame), ErrFrameDecode))
	is.Equal(src.position, 1)
}

func TestSourceReleasesCaptureExactlyOnce(t *testing.T) {
	is := is.New(t)

	closes := 0
	defer overloadCloseVidCap(func(vc *gocv.VideoCapture) error {
		closes++
		return nil
	})()

	reads := 0
	defer overloadReadFromVidCap(func(vc *gocv.VideoCapture, mat *gocv.Mat) bool {
		reads++
		return true
	})()

	src := openCVSource{vc: &gocv.VideoCapture{}}
	is.NoErr(src.Close())
	is.NoErr(src.Close())
	is.Equal(closes, 1)

	frame := &openCVFrame{mat: gocv.NewMat()}
	defer frame.Close()
	is.True(errors.Is(src.Read(frame), ErrSourceClosed))
	is.Equal(reads, 0)
}

func TestSourceReadRejectsForeignFrame(t *testing.T) {
	is := is.New(t)
	src := openCVSource{vc: &gocv.VideoCapture{}}
	is.Equal(src.Read(foreignFrame{}).Error(), "must pass OpenCV frame to OpenCV source read")
}

func TestOpenAndReadSyntheticClipToEnd(t *testing.T) {
	is := is.New(t)
	clipPath, err := videotest.WriteClip(t.TempDir(), 10)
	require.NoError(t, err)

	backend := openCVBackend{}
	src, err := backend.Open(context.TODO(), clipPath)
	is.NoErr(err)
	defer src.Close()

	is.Equal(src.FPS(), videotest.ClipFPS)
	is.Equal(src.FrameCount(), 10)

	frame := backend.NewFrame()
	defer frame.Close()

	read := 0
	for {
		err := src.Read(frame)
		if errors.Is(err, ErrEndOfStream) {
			break
		}
		is.NoErr(err)
		is.Equal(frame.Dimensions().W, videotest.ClipW)
		is.Equal(frame.Dimensions().H, videotest.ClipH)
		read++
	}
	is.Equal(read, 10)
}

func TestOpenZeroByteSourceIsUnavailable(t *testing.T) {
	is := is.New(t)
	path, err := videotest.WriteEmptyFile(t.TempDir(), "broken.mov")
	require.NoError(t, err)

	backend := openCVBackend{}
	_, err = backend.Open(context.TODO(), path)
	is.True(errors.Is(err, ErrSourceUnavailable))
}
