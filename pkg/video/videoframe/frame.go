package videoframe

import "errors"

type Dimensions struct {
	W, H int
}

func (d Dimensions) Pixels() int { return d.W * d.H }

type NoCloser interface {
	DataRef() interface{}
	Dimensions() Dimensions
	Empty() bool
}

type Frame interface {
	NoCloser
	Close()
}

// ErrEmpty marks a frame or image holding no pixels.
var ErrEmpty = errors.New("image has no pixels")
