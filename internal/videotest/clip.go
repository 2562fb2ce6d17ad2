package videotest

import (
	"image"
	"image/color"
	"os"
	"path/filepath"

	"github.com/tauraamui/xerror"
	"gocv.io/x/gocv"
)

const (
	ClipW   = 160
	ClipH   = 120
	ClipFPS = 10.0
)

// WriteClip encodes a motion JPEG clip of count frames into dir, each
// frame a white square drifting across a black background.
func WriteClip(dir string, count int) (string, error) {
	path := filepath.Join(dir, "synthetic.avi")
	vw, err := gocv.VideoWriterFile(path, "MJPG", ClipFPS, ClipW, ClipH, true)
	if err != nil {
		return "", xerror.Errorf("unable to open synthetic clip writer: %w", err)
	}
	defer vw.Close()

	for i := 0; i < count; i++ {
		mat := gocv.NewMatWithSize(ClipH, ClipW, gocv.MatTypeCV8UC3)
		x := (i * 7) % (ClipW - 40)
		gocv.Rectangle(&mat, image.Rect(x, 30, x+40, 70), color.RGBA{R: 255, G: 255, B: 255, A: 255}, -1)
		err := vw.Write(mat)
		mat.Close()
		if err != nil {
			return "", xerror.Errorf("unable to write synthetic frame %d: %w", i, err)
		}
	}
	return path, nil
}

// WriteEmptyFile creates a zero byte file standing in for a broken source.
func WriteEmptyFile(dir, name string) (string, error) {
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	return path, f.Close()
}
