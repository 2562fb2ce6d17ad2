package videobackend

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"sync"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"github.com/google/uuid"
	"github.com/tauraamui/edgevector/pkg/video/videoframe"
	"github.com/tauraamui/xerror"
	"gocv.io/x/gocv"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/math/fixed"
)

// MockSettings describes the synthetic clip a mock source plays back.
type MockSettings struct {
	Frames      int
	FPS         float64
	W, H        int
	FailAt      []int
	Unavailable bool
}

func DefaultMockSettings() MockSettings {
	return MockSettings{Frames: 10, FPS: 10, W: 160, H: 120}
}

// MockBackend plays back synthetic frames, each carrying a rendered
// "frame N" label so neighbouring frames differ in their edges.
type MockBackend struct {
	settings MockSettings
	mu       sync.Mutex
	sources  []*MockSource
}

func Mock(settings MockSettings) *MockBackend {
	return &MockBackend{settings: settings}
}

func (b *MockBackend) Open(cancel context.Context, path string) (Source, error) {
	if err := cancel.Err(); err != nil {
		return nil, xerror.New("connection cancelled")
	}
	if b.settings.Unavailable {
		return nil, xerror.Errorf("%w: %s", ErrSourceUnavailable, path)
	}

	src := &MockSource{settings: b.settings, failAt: map[int]bool{}}
	for _, pos := range b.settings.FailAt {
		src.failAt[pos] = true
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.sources = append(b.sources, src)
	return src, nil
}

func (b *MockBackend) NewFrame() videoframe.Frame {
	return &openCVFrame{mat: gocv.NewMat()}
}

// Opened returns every source handed out so far, oldest first.
func (b *MockBackend) Opened() []*MockSource {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]*MockSource{}, b.sources...)
}

type MockSource struct {
	uuid            string
	settings        MockSettings
	failAt          map[int]bool
	mu              sync.Mutex
	position        int
	closeCalls      int
	readsAfterClose int
	baseFrameCanvas image.Image
}

func (src *MockSource) UUID() string {
	if len(src.uuid) == 0 {
		src.uuid = uuid.NewString()
	}
	return src.uuid
}

func (src *MockSource) FPS() float64 { return src.settings.FPS }

func (src *MockSource) FrameCount() int { return src.settings.Frames }

func (src *MockSource) Read(frame videoframe.Frame) error {
	frameMatRef, ok := frame.DataRef().(*gocv.Mat)
	if !ok {
		return xerror.New("must pass OpenCV frame to mock source read")
	}

	src.mu.Lock()
	defer src.mu.Unlock()

	if src.closeCalls > 0 {
		src.readsAfterClose++
		return ErrSourceClosed
	}

	position := src.position
	if position >= src.settings.Frames {
		return ErrEndOfStream
	}
	src.position++

	if src.failAt[position] {
		return xerror.Errorf("%w: injected failure at position %d", ErrFrameDecode, position)
	}

	if src.baseFrameCanvas == nil {
		src.baseFrameCanvas = renderBaseFrameCanvas(src.settings.W, src.settings.H)
	}

	img, err := drawLabelOntoBaseFrameClone(src.baseFrameCanvas, fmt.Sprintf("frame %d", position))
	if err != nil {
		return err
	}

	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return xerror.Errorf("unable to convert Go image into OpenCV mat: %w", err)
	}
	defer mat.Close()

	mat.CopyTo(frameMatRef)
	return nil
}

// Close records the release, a source must only ever be released once.
func (src *MockSource) Close() error {
	src.mu.Lock()
	defer src.mu.Unlock()
	src.closeCalls++
	src.baseFrameCanvas = nil
	return nil
}

func (src *MockSource) CloseCalls() int {
	src.mu.Lock()
	defer src.mu.Unlock()
	return src.closeCalls
}

func (src *MockSource) ReadsAfterClose() int {
	src.mu.Lock()
	defer src.mu.Unlock()
	return src.readsAfterClose
}

func drawLabelOntoBaseFrameClone(base image.Image, label string) (image.Image, error) {
	baseClone := cloneImage(base)
	h := baseClone.Bounds().Dy()
	if err := drawText(baseClone, 5, h/2, float64(h)/4, label); err != nil {
		return nil, xerror.Errorf("unable to draw text onto in-mem image for mock stream: %w", err)
	}
	return baseClone, nil
}

func renderBaseFrameCanvas(w, h int) image.Image {
	var hw, hh float64 = float64(w / 2), float64(h / 2)
	r := float64(h) / 3
	θ := 2 * math.Pi / 3
	cr := &circle{hw - r*math.Sin(0), hh - r*math.Cos(0), r * 1.5}
	cg := &circle{hw - r*math.Sin(θ), hh - r*math.Cos(θ), r * 1.5}
	cb := &circle{hw - r*math.Sin(-θ), hh - r*math.Cos(-θ), r * 1.5}

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			c := color.RGBA{
				cr.Brightness(float64(x), float64(y)),
				cg.Brightness(float64(x), float64(y)),
				cb.Brightness(float64(x), float64(y)),
				255,
			}
			img.Set(x, y, c)
		}
	}
	return img
}

func cloneImage(src image.Image) *image.RGBA {
	b := src.Bounds()
	dst := image.NewRGBA(b)
	draw.Draw(dst, b, src, b.Min, draw.Src)
	return dst
}

var (
	parsedFont    *truetype.Font
	parsedFontErr error
	parseFontOnce sync.Once
)

func regularFont() (*truetype.Font, error) {
	parseFontOnce.Do(func() {
		parsedFont, parsedFontErr = freetype.ParseFont(goregular.TTF)
	})
	return parsedFont, parsedFontErr
}

func drawText(canvas *image.RGBA, x, y int, fontSize float64, text string) error {
	fontFace, err := regularFont()
	if err != nil {
		return err
	}
	fontDrawer := &font.Drawer{
		Dst: canvas,
		Src: image.White,
		Face: truetype.NewFace(fontFace, &truetype.Options{
			Size:    fontSize,
			Hinting: font.HintingFull,
		}),
	}
	fontDrawer.Dot = fixed.Point26_6{
		X: fixed.I(x),
		Y: fixed.I(y),
	}
	fontDrawer.DrawString(text)
	return nil
}

type circle struct {
	X, Y, R float64
}

func (c *circle) Brightness(x, y float64) uint8 {
	var dx, dy float64 = c.X - x, c.Y - y
	d := math.Sqrt(dx*dx+dy*dy) / c.R
	if d > 1 {
		return 0
	}
	return 255
}
