package configdef

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrInvalidFrameRange = errors.New("invalid frame range")

// FrameRange selects the frame indexes [Start, End). An unbounded range
// has End < 0 and runs to the last available frame.
type FrameRange struct {
	Start int
	End   int
}

func All() FrameRange { return FrameRange{Start: 0, End: -1} }

// ParseFrameRange accepts "", "start:end", "start:", ":end" or a single
// index "n".
func ParseFrameRange(s string) (FrameRange, error) {
	s = strings.TrimSpace(s)
	if len(s) == 0 || s == ":" {
		return All(), nil
	}

	if !strings.Contains(s, ":") {
		n, err := parseBound(s)
		if err != nil {
			return FrameRange{}, err
		}
		return FrameRange{Start: n, End: n + 1}, nil
	}

	parts := strings.SplitN(s, ":", 2)
	r := All()
	if len(parts[0]) > 0 {
		n, err := parseBound(parts[0])
		if err != nil {
			return FrameRange{}, err
		}
		r.Start = n
	}
	if len(parts[1]) > 0 {
		n, err := parseBound(parts[1])
		if err != nil {
			return FrameRange{}, err
		}
		r.End = n
	}

	if r.Bounded() && r.End < r.Start {
		return FrameRange{}, fmt.Errorf("%w: %q end precedes start", ErrInvalidFrameRange, s)
	}
	return r, nil
}

func parseBound(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not an integer", ErrInvalidFrameRange, s)
	}
	if n < 0 {
		return 0, fmt.Errorf("%w: %d is negative", ErrInvalidFrameRange, n)
	}
	return n, nil
}

func (r FrameRange) Bounded() bool { return r.End >= 0 }

func (r FrameRange) Contains(index int) bool {
	if index < r.Start {
		return false
	}
	return !r.Bounded() || index < r.End
}

func (r FrameRange) String() string {
	if !r.Bounded() {
		if r.Start == 0 {
			return "all"
		}
		return fmt.Sprintf("%d:", r.Start)
	}
	return fmt.Sprintf("%d:%d", r.Start, r.End)
}
