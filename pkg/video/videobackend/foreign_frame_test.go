package videobackend

import "github.com/tauraamui/edgevector/pkg/video/videoframe"

type foreignFrame struct{}

func (foreignFrame) DataRef() interface{}              { return nil }
func (foreignFrame) Dimensions() videoframe.Dimensions { return videoframe.Dimensions{} }
func (foreignFrame) Empty() bool                       { return true }
func (foreignFrame) Close()                            {}
