package yololbl

// The intermediate annotation representation shared by all source formats.

import (
	"fmt"
	"math"
)

// Annotation is a single source label record before class remapping.
type Annotation struct {
	// Absolute x1, y1, x2, y2 offsets from the top-left corner, or x_center, y_center, width,
	// height as fractions of the image size when Normalized is set.
	Coords     [4]float64
	Label      string // Class name or integer class id.
	Normalized bool
}

// Width is the object width in the units of a.Coords.
func (a Annotation) Width() float64 {
	if a.Normalized {
		return a.Coords[2]
	}
	return a.Coords[2] - a.Coords[0]
}

// Height is the object height in the units of a.Coords.
func (a Annotation) Height() float64 {
	if a.Normalized {
		return a.Coords[3]
	}
	return a.Coords[3] - a.Coords[1]
}

// pixelSize returns the width and height of the box in pixels.
func (a Annotation) pixelSize(size ImageSize) (width, height float64) {
	if a.Normalized {
		return a.Width() * float64(size.Width), a.Height() * float64(size.Height)
	}
	return a.Width(), a.Height()
}

// finite reports whether all coordinates are finite numbers.
func (a Annotation) finite() bool {
	for _, v := range a.Coords {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// AnnotatedFile is the intermediate representation of file metadata.
type AnnotatedFile struct {
	Annotations []Annotation // The annotations.
	FilePath    string       // The annotated image.
}

// ImageSize is the size of an image in pixels.
type ImageSize struct {
	Width  int
	Height int
}

// KittiImageSize is the size of the KITTI object detection camera images. It is used when no
// image is available to sample the dimensions from.
var KittiImageSize = ImageSize{Width: 1242, Height: 375}

// IsZero reports whether either dimension is unset.
func (s ImageSize) IsZero() bool {
	return s.Width <= 0 || s.Height <= 0
}

func (s ImageSize) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}
