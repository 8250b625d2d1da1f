package yololbl

// KITTI specific functionality.

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// kittiMinFields is the number of values in a KITTI object label line, excluding the optional
// score: type, truncated, occluded, alpha, 2D box (4), dimensions (3), location (3), rotation_y.
const kittiMinFields = 15

// KITTIAnnotation is a single annotation within a KITTI file. Only the class and the 2D bounding
// box are kept.
type KITTIAnnotation struct {
	Coords [4]float64 // left, top, right, bottom
	Label  string
}

// parseKittiAnnotation parses the line of values for a single annotation.
func parseKittiAnnotation(line string) (KITTIAnnotation, error) {
	a := KITTIAnnotation{}

	tokens := strings.Fields(line)
	if len(tokens) < kittiMinFields {
		return a, errors.Errorf("insufficient tokens in %q", line)
	}

	a.Label = tokens[0]
	var err error
	for i := 4; i < 8 && err == nil; i++ {
		a.Coords[i-4], err = strconv.ParseFloat(tokens[i], 64)
	}
	if err != nil {
		return a, errors.Errorf("unexpected values in %q: %v", line, err)
	}

	return a, nil
}

// annotation converts a to the intermediate representation.
func (a KITTIAnnotation) annotation() Annotation {
	return Annotation{Coords: a.Coords, Label: a.Label}
}
