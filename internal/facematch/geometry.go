package facematch

import (
	"fmt"
	"math"
)

// Region is a face bounding box in pixel coordinates of the input image.
type Region struct {
	Top    int `json:"top"`
	Right  int `json:"right"`
	Bottom int `json:"bottom"`
	Left   int `json:"left"`
}

// RegionFromBBox converts an [x1, y1, x2, y2] pixel box, as reported by the
// embedding server, into a Region. Coordinates are rounded to whole pixels.
func RegionFromBBox(bbox []float64) (Region, error) {
	if len(bbox) != 4 {
		return Region{}, fmt.Errorf("bbox must have 4 values, got %d", len(bbox))
	}
	return Region{
		Top:    int(math.Round(bbox[1])),
		Right:  int(math.Round(bbox[2])),
		Bottom: int(math.Round(bbox[3])),
		Left:   int(math.Round(bbox[0])),
	}, nil
}

// Width returns the horizontal extent of the region.
func (r Region) Width() int {
	return r.Right - r.Left
}

// Height returns the vertical extent of the region.
func (r Region) Height() int {
	return r.Bottom - r.Top
}

// String renders the region's edges followed by its size, as printed by
// recognize.
func (r Region) String() string {
	return fmt.Sprintf("top=%d right=%d bottom=%d left=%d (%dx%d)",
		r.Top, r.Right, r.Bottom, r.Left, r.Width(), r.Height())
}
