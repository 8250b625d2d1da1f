package yololbl

// Normalized center-form (YOLO) label functionality.

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/cyclopcam/logs"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

const yoloFields = 5

// Label is a destination label: a class index and a box in normalized center form.
type Label struct {
	Class   int
	XCenter float64
	YCenter float64
	Width   float64
	Height  float64
}

// String formats l as a label line without the trailing newline.
func (l Label) String() string {
	return fmt.Sprintf("%d %.6f %.6f %.6f %.6f", l.Class, l.XCenter, l.YCenter, l.Width, l.Height)
}

// Corners returns the normalized xmin, ymin, xmax, ymax of the box.
func (l Label) Corners() [4]float64 {
	return [4]float64{
		l.XCenter - l.Width/2,
		l.YCenter - l.Height/2,
		l.XCenter + l.Width/2,
		l.YCenter + l.Height/2,
	}
}

// ParseLabel parses a label line: an integer class id followed by four finite floats.
func ParseLabel(line string) (Label, error) {
	tokens := strings.Fields(line)
	if len(tokens) != yoloFields {
		return Label{}, errors.Errorf("expected %d values in %q, got %d", yoloFields, line, len(tokens))
	}

	class, err := strconv.Atoi(tokens[0])
	if err != nil {
		return Label{}, errors.Errorf("invalid class id in %q", line)
	}

	var v [4]float64
	for i := range v {
		v[i], err = strconv.ParseFloat(tokens[i+1], 64)
		if err != nil || math.IsNaN(v[i]) || math.IsInf(v[i], 0) {
			return Label{}, errors.Errorf("unexpected values in %q", line)
		}
	}

	return Label{Class: class, XCenter: v[0], YCenter: v[1], Width: v[2], Height: v[3]}, nil
}

// annotation converts l to a normalized source record, keeping the class id as label.
func (l Label) annotation() Annotation {
	return Annotation{
		Coords:     [4]float64{l.XCenter, l.YCenter, l.Width, l.Height},
		Label:      strconv.Itoa(l.Class),
		Normalized: true,
	}
}

// checkLabel verifies that l is a box inside the image with a class from names.
func checkLabel(l Label, names []string) error {
	if l.Class < 0 || (len(names) > 0 && l.Class >= len(names)) {
		return errors.Errorf("class %d is not in the taxonomy", l.Class)
	}
	for _, v := range []float64{l.XCenter, l.YCenter, l.Width, l.Height} {
		if v < 0 || v > 1 {
			return errors.Errorf("value %f is outside of [0, 1]", v)
		}
	}
	return nil
}

// ValidationReport summarises the validation of a label directory.
type ValidationReport struct {
	Files        int
	Lines        int
	Invalid      int
	InvalidFiles []string // Files with at least one invalid line.
	Fixed        int      // Files rewritten without their invalid lines.
}

// ValidateDir checks every label file in dir. A line is valid if it has exactly five values, its
// class is one of classes.Names and its box values are in [0, 1]. If fix is set, files with
// invalid lines are rewritten with the valid lines only.
func ValidateDir(fs afero.Fs, log logs.Log, dir string, classes ClassMap, fix bool) (
		ValidationReport, error) {

	labelFiles, err := filesByExtInDir(fs, dir, ".txt")
	if err != nil {
		return ValidationReport{}, err
	}
	log.Infof("Validating %d label files in %q", len(labelFiles), dir)

	var report ValidationReport
	for _, path := range labelFiles {
		enc, err := afero.ReadFile(fs, path)
		if err != nil {
			log.Warnf("Cannot read %q, skipping: %v", path, err)
			continue
		}
		report.Files++

		var valid bytes.Buffer
		invalid := 0
		_ = forEachLine(bytes.NewReader(enc), func(line string) error {
			if strings.TrimSpace(line) == "" {
				return nil
			}
			report.Lines++

			l, err := ParseLabel(line)
			if err == nil {
				err = checkLabel(l, classes.Names)
			}
			if err != nil {
				invalid++
				return nil
			}
			valid.WriteString(line)
			valid.WriteByte('\n')
			return nil
		})
		if invalid == 0 {
			continue
		}

		report.Invalid += invalid
		report.InvalidFiles = append(report.InvalidFiles, path)
		log.Warnf("%q has %d invalid label lines", path, invalid)

		if fix {
			if err := afero.WriteFile(fs, path, valid.Bytes(), 0644); err != nil {
				log.Warnf("Cannot rewrite %q: %v", path, err)
				continue
			}
			report.Fixed++
		}
	}

	log.Infof("Found %d invalid lines out of %d in %d of %d files",
		report.Invalid, report.Lines, len(report.InvalidFiles), report.Files)
	return report, nil
}
