package yololbl

// VGG Image Annotator (VIA) specific functionality.

import (
	"encoding/json"
	"sort"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// VIAShape describes the shape of an annotation.
type VIAShape struct {
	Name   string `json:"name"`
	X      int32  `json:"x"`
	Y      int32  `json:"y"`
	Width  int32  `json:"width"`
	Height int32  `json:"height"`
}

// VIARegionAnnotation is a single region annotation for a particular image in a VIA file.
type VIARegionAnnotation struct {
	Attributes map[string]string `json:"region_attributes"`
	Shape      VIAShape          `json:"shape_attributes"`
}

// VIAAnnotatedFile defines the VIA annotation structure for a single file.
type VIAAnnotatedFile struct {
	Annotations []VIARegionAnnotation `json:"regions"`
	Attributes  map[string]string     `json:"file_attributes"`
	FilePath    string                `json:"filename"`
	Size        int64                 `json:"size"`
}

// VIAProject defines the parts of the VIA project structure that hold annotations.
type VIAProject struct {
	ImageMetadata map[string]VIAAnnotatedFile `json:"_via_img_metadata"`
}

const viaLabelAttribute = "Label" // The attribute key used for labels.

// FromVIA reads and parses VIA annotations from the project file at path. Only rectangular
// regions are kept. Files are returned ordered by file path.
func FromVIA(fs afero.Fs, path string) ([]AnnotatedFile, error) {
	enc, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, errors.Wrapf(ErrMissingInput, "cannot read %q: %v", path, err)
	}

	var viaData VIAProject
	err = json.Unmarshal(enc, &viaData)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse VIA input from %q", path)
	}

	// Convert to the intermediate representation.
	irData := make([]AnnotatedFile, 0, len(viaData.ImageMetadata))
	for _, viaFile := range viaData.ImageMetadata {
		irFile := AnnotatedFile{
			Annotations: make([]Annotation, 0, len(viaFile.Annotations)),
			FilePath:    viaFile.FilePath,
		}
		for _, a := range viaFile.Annotations {
			if a.Shape.Name != "rect" {
				continue
			}
			irObject := Annotation{Label: a.Attributes[viaLabelAttribute]}

			// Set the bounding box.
			irObject.Coords[0] = float64(a.Shape.X)
			irObject.Coords[1] = float64(a.Shape.Y)
			irObject.Coords[2] = float64(a.Shape.X + a.Shape.Width)
			irObject.Coords[3] = float64(a.Shape.Y + a.Shape.Height)

			irFile.Annotations = append(irFile.Annotations, irObject)
		}
		irData = append(irData, irFile)
	}

	sort.Slice(irData, func(i, j int) bool {
		return irData[i].FilePath < irData[j].FilePath
	})

	return irData, nil
}
