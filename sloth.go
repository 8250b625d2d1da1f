package yololbl

// Sloth specific functionality.

import (
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// SlothAnnotation is a single annotation within a Sloth file.
type SlothAnnotation struct {
	Class  string  `json:"class,omitempty"`
	Type   string  `json:"type,omitempty"`
	X      float64 `json:"x,omitempty"`
	Y      float64 `json:"y,omitempty"`
	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`
}

// SlothAnnotatedFile defines the Sloth annotation structure for a single file.
type SlothAnnotatedFile struct {
	Annotations []SlothAnnotation `json:"annotations"`
	Class       string            `json:"class,omitempty"`
	FilePath    string            `json:"filename,omitempty"`
}

// FromSloth reads and parses Sloth annotations from the file at path. Only "rect" annotations (or
// annotations without type) are kept.
func FromSloth(fs afero.Fs, path string) ([]AnnotatedFile, error) {
	enc, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, errors.Wrapf(ErrMissingInput, "cannot read %q: %v", path, err)
	}

	var slothData []SlothAnnotatedFile
	err = json.Unmarshal(enc, &slothData)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse Sloth input from %q", path)
	}

	// Convert to the intermediate representation.
	data := make([]AnnotatedFile, 0, len(slothData))
	for _, slothFileData := range slothData {
		fileData := AnnotatedFile{
			Annotations: make([]Annotation, 0, len(slothFileData.Annotations)),
			FilePath:    slothFileData.FilePath,
		}
		for _, a := range slothFileData.Annotations {
			if a.Type != "" && a.Type != "rect" {
				continue
			}
			annotation := Annotation{Label: a.Class}
			annotation.Coords[0] = a.X
			annotation.Coords[1] = a.Y
			annotation.Coords[2] = a.X + a.Width
			annotation.Coords[3] = a.Y + a.Height
			fileData.Annotations = append(fileData.Annotations, annotation)
		}
		data = append(data, fileData)
	}

	return data, nil
}
