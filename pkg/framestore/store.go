package framestore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"github.com/spf13/afero"
	"github.com/tauraamui/edgevector/pkg/video/videoframe"
	"github.com/tauraamui/xerror"
	"gocv.io/x/gocv"
)

var ErrImageUnreadable = errors.New("image unreadable")

const namePrefix = "frame"

// Still is a single decoded frame persisted to the store.
type Still struct {
	Index      int
	ID         string
	Path       string
	Dimensions videoframe.Dimensions
}

func (s Still) FileName() string {
	return filepath.Base(s.Path)
}

type Store interface {
	Root() string
	Save(index int, frame videoframe.NoCloser) (Still, error)
	LoadGray(Still) (gocv.Mat, error)
	List() ([]Still, error)
}

func Name(index int) string {
	return fmt.Sprintf("%s%d", namePrefix, index)
}

func New(fs afero.Fs, root, format string) (Store, error) {
	if len(format) == 0 {
		return nil, xerror.New("still image format undefined")
	}
	if err := ensureDirectoryPathExists(fs, root); err != nil {
		return nil, xerror.Errorf("unable to create image directory %s: %w", root, err)
	}
	return &store{
		fs:      fs,
		root:    root,
		format:  format,
		pattern: regexp.MustCompile(fmt.Sprintf(`^%s(\d+)\.%s$`, namePrefix, regexp.QuoteMeta(format))),
	}, nil
}

func ensureDirectoryPathExists(fs afero.Fs, path string) error {
	err := fs.MkdirAll(path, os.ModePerm|os.ModeDir)
	if err == nil || os.IsExist(err) {
		return nil
	}
	return err
}

type store struct {
	fs      afero.Fs
	root    string
	format  string
	pattern *regexp.Regexp
}

func (s *store) Root() string { return s.root }

func (s *store) path(index int) string {
	return filepath.Join(s.root, fmt.Sprintf("%s.%s", Name(index), s.format))
}

func (s *store) Save(index int, frame videoframe.NoCloser) (Still, error) {
	mat, ok := frame.DataRef().(*gocv.Mat)
	if !ok {
		return Still{}, xerror.New("must pass OpenCV frame to frame store")
	}
	if frame.Empty() {
		return Still{}, xerror.Errorf("unable to save %s: %w", Name(index), videoframe.ErrEmpty)
	}

	data, err := encodeImage(gocv.FileExt("."+s.format), *mat)
	if err != nil {
		return Still{}, xerror.Errorf("unable to encode %s as %s: %w", Name(index), s.format, err)
	}

	still := Still{
		Index:      index,
		ID:         Name(index),
		Path:       s.path(index),
		Dimensions: frame.Dimensions(),
	}
	if err := afero.WriteFile(s.fs, still.Path, data, 0644); err != nil {
		return Still{}, xerror.Errorf("unable to write %s: %w", still.Path, err)
	}
	return still, nil
}

var encodeImage = func(ext gocv.FileExt, mat gocv.Mat) ([]byte, error) {
	buf, err := gocv.IMEncode(ext, mat)
	if err != nil {
		return nil, err
	}
	defer buf.Close()
	return append([]byte(nil), buf.GetBytes()...), nil
}

// LoadGray reads a still back as single channel intensity data. The
// caller owns the returned mat.
func (s *store) LoadGray(still Still) (gocv.Mat, error) {
	data, err := afero.ReadFile(s.fs, still.Path)
	if err != nil {
		return gocv.Mat{}, xerror.Errorf("%w: %s: %s", ErrImageUnreadable, still.Path, err)
	}
	if len(data) == 0 {
		return gocv.Mat{}, xerror.Errorf("%w: %s is empty", ErrImageUnreadable, still.Path)
	}

	mat, err := gocv.IMDecode(data, gocv.IMReadGrayScale)
	if err != nil {
		return gocv.Mat{}, xerror.Errorf("%w: %s: %s", ErrImageUnreadable, still.Path, err)
	}
	if mat.Empty() {
		mat.Close()
		return gocv.Mat{}, xerror.Errorf("%w: %s is not a decodable image", ErrImageUnreadable, still.Path)
	}
	return mat, nil
}

// List recovers the stills already in the store, ordered by frame index.
func (s *store) List() ([]Still, error) {
	infos, err := afero.ReadDir(s.fs, s.root)
	if err != nil {
		return nil, xerror.Errorf("unable to list image directory %s: %w", s.root, err)
	}

	stills := []Still{}
	for _, info := range infos {
		if info.IsDir() {
			continue
		}
		match := s.pattern.FindStringSubmatch(info.Name())
		if match == nil {
			continue
		}
		index, err := strconv.Atoi(match[1])
		if err != nil {
			continue
		}
		stills = append(stills, Still{Index: index, ID: Name(index), Path: filepath.Join(s.root, info.Name())})
	}

	sort.Slice(stills, func(i, j int) bool { return stills[i].Index < stills[j].Index })
	return stills, nil
}
