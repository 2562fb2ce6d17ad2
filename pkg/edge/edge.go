// Package edge measures how much of an image is classified as edge by a
// fixed threshold Canny filter.
package edge

import (
	"github.com/tauraamui/edgevector/pkg/video/videoframe"
	"github.com/tauraamui/xerror"
	"gocv.io/x/gocv"
)

type Detector struct {
	Low, High float64
}

func New(low, high float64) Detector {
	return Detector{Low: low, High: high}
}

type Measurement struct {
	Pixels     int
	EdgePixels int
	Proportion float64
}

// Measure runs Canny hysteresis thresholding over img and counts the
// mask elements marked as edge. Colour input is reduced to grayscale first.
func (d Detector) Measure(img gocv.Mat) (Measurement, error) {
	if img.Empty() || img.Rows() <= 0 || img.Cols() <= 0 {
		return Measurement{}, xerror.Errorf("unable to detect edges: %w", videoframe.ErrEmpty)
	}

	gray := img
	if code, convert := grayConversion(img.Channels()); convert {
		gray = gocv.NewMat()
		defer gray.Close()
		gocv.CvtColor(img, &gray, code)
	}

	edges := gocv.NewMat()
	defer edges.Close()
	gocv.Canny(gray, &edges, float32(d.Low), float32(d.High))

	return count(edges)
}

func grayConversion(channels int) (gocv.ColorConversionCode, bool) {
	switch channels {
	case 3:
		return gocv.ColorBGRToGray, true
	case 4:
		return gocv.ColorBGRAToGray, true
	default:
		return 0, false
	}
}

// count expects the 0/255 mask Canny produces, so every non zero element
// is an edge element.
func count(mask gocv.Mat) (Measurement, error) {
	pixels := mask.Total()
	if pixels <= 0 {
		return Measurement{}, xerror.Errorf("unable to count edges: %w", videoframe.ErrEmpty)
	}

	edgePixels := gocv.CountNonZero(mask)
	return Measurement{
		Pixels:     pixels,
		EdgePixels: edgePixels,
		Proportion: float64(edgePixels) / float64(pixels),
	}, nil
}
