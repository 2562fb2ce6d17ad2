package table

import (
	"encoding/csv"
	"errors"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"sync"

	"github.com/spf13/afero"
	"github.com/tauraamui/xerror"
)

var ErrMalformedTable = errors.New("malformed edge table")

var header = []string{"frame", "prop_edge_pix"}

var frameIndexPattern = regexp.MustCompile(`^frame(\d+)`)

// Row is one analyzed frame. Frame holds the still's file name, Index
// the frame index it was derived from.
type Row struct {
	Frame      string
	Index      int
	Proportion float64
}

type RowWriter interface {
	Write(Row) error
}

// Writer is an open output table. Every row is flushed as it is written
// so an interrupted run leaves only whole rows behind.
type Writer struct {
	mu       sync.Mutex
	path     string
	file     afero.File
	csv      *csv.Writer
	rows     int
	isClosed bool
}

func Create(fs afero.Fs, path string) (*Writer, error) {
	if dir := filepath.Dir(path); len(dir) > 0 {
		if err := fs.MkdirAll(dir, os.ModePerm|os.ModeDir); err != nil && !os.IsExist(err) {
			return nil, xerror.Errorf("unable to create output directory %s: %w", dir, err)
		}
	}

	file, err := fs.Create(path)
	if err != nil {
		return nil, xerror.Errorf("unable to create output table %s: %w", path, err)
	}

	w := &Writer{path: path, file: file, csv: csv.NewWriter(file)}
	if err := w.writeRecord(header); err != nil {
		file.Close()
		return nil, err
	}
	return w, nil
}

func (w *Writer) Path() string { return w.path }

func (w *Writer) Write(row Row) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.isClosed {
		return xerror.Errorf("unable to write %s: output table %s already closed", row.Frame, w.path)
	}
	if err := w.writeRecord([]string{row.Frame, FormatProportion(row.Proportion)}); err != nil {
		return err
	}
	w.rows++
	return nil
}

func (w *Writer) writeRecord(record []string) error {
	if err := w.csv.Write(record); err != nil {
		return xerror.Errorf("unable to write to output table %s: %w", w.path, err)
	}
	w.csv.Flush()
	if err := w.csv.Error(); err != nil {
		return xerror.Errorf("unable to flush output table %s: %w", w.path, err)
	}
	return nil
}

func (w *Writer) Rows() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.rows
}

func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.isClosed {
		return nil
	}
	w.isClosed = true
	w.csv.Flush()
	flushErr := w.csv.Error()
	if err := w.file.Close(); err != nil {
		return xerror.Errorf("unable to close output table %s: %w", w.path, err)
	}
	return flushErr
}

func FormatProportion(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64)
}

// FrameIndex recovers the frame index from a still's name or file name.
func FrameIndex(frame string) (int, bool) {
	match := frameIndexPattern.FindStringSubmatch(filepath.Base(frame))
	if match == nil {
		return 0, false
	}
	index, err := strconv.Atoi(match[1])
	if err != nil {
		return 0, false
	}
	return index, true
}

// Read loads a table written by Writer.
func Read(fs afero.Fs, path string) ([]Row, error) {
	file, err := fs.Open(path)
	if err != nil {
		return nil, xerror.Errorf("unable to open edge table %s: %w", path, err)
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = len(header)

	first, err := r.Read()
	if err != nil {
		return nil, xerror.Errorf("%w: %s: missing header: %s", ErrMalformedTable, path, err)
	}
	if first[0] != header[0] || first[1] != header[1] {
		return nil, xerror.Errorf("%w: %s: unexpected header %v", ErrMalformedTable, path, first)
	}

	rows := []Row{}
	for line := 2; ; line++ {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return nil, xerror.Errorf("%w: %s: %s", ErrMalformedTable, path, err)
		}

		index, ok := FrameIndex(record[0])
		if !ok {
			return nil, xerror.Errorf("%w: %s line %d: no frame index in %q", ErrMalformedTable, path, line, record[0])
		}
		proportion, err := strconv.ParseFloat(record[1], 64)
		if err != nil {
			return nil, xerror.Errorf("%w: %s line %d: %s", ErrMalformedTable, path, line, err)
		}
		rows = append(rows, Row{Frame: record[0], Index: index, Proportion: proportion})
	}
}
