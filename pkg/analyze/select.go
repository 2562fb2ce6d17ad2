package analyze

import (
	"github.com/tauraamui/edgevector/pkg/configdef"
	"github.com/tauraamui/edgevector/pkg/framestore"
)

// Select keeps the stills whose frame index falls inside r, in order.
func Select(stills []framestore.Still, r configdef.FrameRange) []framestore.Still {
	selected := make([]framestore.Still, 0, len(stills))
	for _, still := range stills {
		if r.Contains(still.Index) {
			selected = append(selected, still)
		}
	}
	return selected
}
