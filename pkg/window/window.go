// Package window averages per frame edge proportions over fixed time
// windows, e.g. one value per fMRI repetition time.
package window

import (
	"encoding/csv"
	"errors"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/spf13/afero"
	"github.com/tauraamui/edgevector/pkg/table"
	"github.com/tauraamui/xerror"
)

var ErrInvalidWindow = errors.New("invalid averaging window")

type Window struct {
	Index      int
	FirstFrame int
	LastFrame  int
	Frames     int
	Mean       float64
}

// Average groups rows into consecutive windows of seconds length at the
// given frame rate. Windows which received no rows are left out.
func Average(rows []table.Row, fps, seconds float64) ([]Window, error) {
	if fps <= 0 || math.IsNaN(fps) || math.IsInf(fps, 0) {
		return nil, xerror.Errorf("%w: frame rate %v", ErrInvalidWindow, fps)
	}
	if seconds <= 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return nil, xerror.Errorf("%w: length %v seconds", ErrInvalidWindow, seconds)
	}

	framesPerWindow := fps * seconds
	windows := map[int]*Window{}
	sums := map[int]float64{}
	for _, row := range rows {
		i := int(math.Floor(float64(row.Index) / framesPerWindow))
		w, ok := windows[i]
		if !ok {
			w = &Window{Index: i, FirstFrame: row.Index, LastFrame: row.Index}
			windows[i] = w
		}
		if row.Index < w.FirstFrame {
			w.FirstFrame = row.Index
		}
		if row.Index > w.LastFrame {
			w.LastFrame = row.Index
		}
		w.Frames++
		sums[i] += row.Proportion
	}

	result := make([]Window, 0, len(windows))
	for i, w := range windows {
		w.Mean = sums[i] / float64(w.Frames)
		result = append(result, *w)
	}
	sort.Slice(result, func(a, b int) bool { return result[a].Index < result[b].Index })
	return result, nil
}

var header = []string{"window", "first_frame", "last_frame", "frames", "mean_prop_edge_pix"}

func Write(fs afero.Fs, path string, windows []Window) error {
	if dir := filepath.Dir(path); len(dir) > 0 {
		if err := fs.MkdirAll(dir, os.ModePerm|os.ModeDir); err != nil && !os.IsExist(err) {
			return xerror.Errorf("unable to create window output directory %s: %w", dir, err)
		}
	}

	file, err := fs.Create(path)
	if err != nil {
		return xerror.Errorf("unable to create window table %s: %w", path, err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	records := [][]string{header}
	for _, win := range windows {
		records = append(records, []string{
			strconv.Itoa(win.Index),
			strconv.Itoa(win.FirstFrame),
			strconv.Itoa(win.LastFrame),
			strconv.Itoa(win.Frames),
			table.FormatProportion(win.Mean),
		})
	}
	if err := w.WriteAll(records); err != nil {
		return xerror.Errorf("unable to write window table %s: %w", path, err)
	}
	return nil
}
