package yololbl

// Conversion of source label records to normalized center-form labels.

import (
	"bufio"
	"bytes"
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// SourceFormat is the annotation convention of the source labels.
type SourceFormat int

// The known source formats.
const (
	FormatUnknown SourceFormat = iota
	FormatKitti                // Class name and absolute pixel corners, one object per line.
	FormatYOLO                 // Integer class id and normalized center form, one object per line.
	FormatSloth                // Sloth JSON, absolute pixel boxes.
	FormatVIA                  // VGG Image Annotator project JSON, absolute pixel boxes.
)

var formatNames = map[SourceFormat]string{
	FormatKitti: "kitti",
	FormatYOLO:  "yolo",
	FormatSloth: "sloth",
	FormatVIA:   "via",
}

// ParseSourceFormat returns the format called s, or FormatUnknown.
func ParseSourceFormat(s string) SourceFormat {
	for f, name := range formatNames {
		if name == strings.ToLower(s) {
			return f
		}
	}
	return FormatUnknown
}

func (f SourceFormat) String() string {
	if name, ok := formatNames[f]; ok {
		return name
	}
	return "unknown"
}

// Normalized reports whether the format stores normalized center-form boxes.
func (f SourceFormat) Normalized() bool {
	return f == FormatYOLO
}

// lineBased reports whether the format stores one object per text line.
func (f SourceFormat) lineBased() bool {
	return f == FormatKitti || f == FormatYOLO
}

// Outcome is the fate of a single source record.
type Outcome int

const (
	Kept       Outcome = iota
	Malformed          // Too few values, a non-numeric value or a non-integer class id.
	Unmapped           // The class is not mapped or is explicitly dropped.
	Degenerate         // The box is below the minimum pixel size.
)

// Stats counts the outcomes of converting one or more files.
type Stats struct {
	Lines      int // Non-blank input lines or records.
	Written    int
	Malformed  int
	Unmapped   int
	Degenerate int
}

func (s *Stats) add(o Outcome) {
	s.Lines++
	switch o {
	case Kept:
		s.Written++
	case Malformed:
		s.Malformed++
	case Unmapped:
		s.Unmapped++
	case Degenerate:
		s.Degenerate++
	}
}

// Merge adds the counts of o to s.
func (s *Stats) Merge(o Stats) {
	s.Lines += o.Lines
	s.Written += o.Written
	s.Malformed += o.Malformed
	s.Unmapped += o.Unmapped
	s.Degenerate += o.Degenerate
}

// Skipped is the number of records that were not written.
func (s Stats) Skipped() int {
	return s.Malformed + s.Unmapped + s.Degenerate
}

// Options configures a Converter.
type Options struct {
	Format  SourceFormat
	Classes ClassMap
	// The image size that pixel coordinates are normalized by. Required for pixel corner formats
	// and for MinBoxSize with normalized input.
	ImageSize ImageSize
	// Boxes narrower or lower than this many pixels are dropped. Zero disables the filter.
	MinBoxSize float64
}

// Converter turns source label records into destination labels. It holds no state across files.
type Converter struct {
	opts Options
}

// NewConverter validates opts and returns a Converter for them.
func NewConverter(opts Options) (*Converter, error) {
	if opts.Format == FormatUnknown {
		return nil, errors.New("unknown source format")
	}
	if err := opts.Classes.Validate(); err != nil {
		return nil, err
	}
	if opts.MinBoxSize < 0 {
		return nil, errors.Errorf("invalid minimum box size %v", opts.MinBoxSize)
	}
	if opts.ImageSize.IsZero() {
		if !opts.Format.Normalized() {
			return nil, errors.Errorf("the image size is required for %s labels", opts.Format)
		}
		if opts.MinBoxSize > 0 {
			return nil, errors.New("the image size is required to filter normalized boxes by size")
		}
	}

	return &Converter{opts: opts}, nil
}

// Format is the source format the converter reads.
func (c *Converter) Format() SourceFormat {
	return c.opts.Format
}

// ConvertLine converts a single line of a line based source format.
func (c *Converter) ConvertLine(line string) (Label, Outcome) {
	switch c.opts.Format {
	case FormatKitti:
		a, err := parseKittiAnnotation(line)
		if err != nil {
			return Label{}, Malformed
		}
		return c.ConvertAnnotation(a.annotation())
	case FormatYOLO:
		l, err := ParseLabel(line)
		if err != nil {
			return Label{}, Malformed
		}
		return c.ConvertAnnotation(l.annotation())
	}

	return Label{}, Malformed
}

// ConvertAnnotation remaps the class of a, filters it by size and normalizes its box.
func (c *Converter) ConvertAnnotation(a Annotation) (Label, Outcome) {
	if !a.finite() || a.Normalized != c.opts.Format.Normalized() {
		return Label{}, Malformed
	}

	class, ok := c.opts.Classes.Resolve(a.Label)
	if !ok {
		return Label{}, Unmapped
	}

	if c.opts.MinBoxSize > 0 {
		width, height := a.pixelSize(c.opts.ImageSize)
		if width < c.opts.MinBoxSize || height < c.opts.MinBoxSize {
			return Label{}, Degenerate
		}
	}

	if a.Normalized {
		return Label{
			Class:   class,
			XCenter: a.Coords[0],
			YCenter: a.Coords[1],
			Width:   a.Coords[2],
			Height:  a.Coords[3],
		}, Kept
	}

	imgWidth := float64(c.opts.ImageSize.Width)
	imgHeight := float64(c.opts.ImageSize.Height)
	return Label{
		Class:   class,
		XCenter: (a.Coords[0] + a.Coords[2]) / 2 / imgWidth,
		YCenter: (a.Coords[1] + a.Coords[3]) / 2 / imgHeight,
		Width:   (a.Coords[2] - a.Coords[0]) / imgWidth,
		Height:  (a.Coords[3] - a.Coords[1]) / imgHeight,
	}, Kept
}

// Convert reads source lines from r and writes one destination line per kept record to w.
// Malformed, unmapped and degenerate lines are skipped and counted. Blank lines are ignored.
func (c *Converter) Convert(r io.Reader, w io.Writer) (Stats, error) {
	if !c.opts.Format.lineBased() {
		return Stats{}, errors.Errorf("%s labels are not line based", c.opts.Format)
	}

	var stats Stats
	bw := bufio.NewWriter(w)
	var writeErr error
	err := forEachLine(r, func(line string) error {
		if strings.TrimSpace(line) == "" {
			return nil
		}

		l, outcome := c.ConvertLine(line)
		stats.add(outcome)
		if outcome != Kept {
			return nil
		}
		writeErr = writeLabel(bw, l)
		return writeErr
	})
	if writeErr != nil {
		return stats, writeErr
	}
	if err != nil {
		return stats, errors.Wrap(err, "failed to read labels")
	}

	return stats, bw.Flush()
}

// ConvertAnnotations writes one destination line per kept annotation of file to w.
func (c *Converter) ConvertAnnotations(file AnnotatedFile, w io.Writer) (Stats, error) {
	var stats Stats
	bw := bufio.NewWriter(w)
	for _, a := range file.Annotations {
		l, outcome := c.ConvertAnnotation(a)
		stats.add(outcome)
		if outcome != Kept {
			continue
		}
		if err := writeLabel(bw, l); err != nil {
			return stats, err
		}
	}

	return stats, bw.Flush()
}

// ConvertFile converts the label file at src and writes the result to dst, replacing any existing
// file. dst is written even if no record survives. Nothing is written if src cannot be read.
func (c *Converter) ConvertFile(fs afero.Fs, src, dst string) (Stats, error) {
	enc, err := afero.ReadFile(fs, src)
	if err != nil {
		return Stats{}, errors.Wrapf(err, "cannot read file %q", src)
	}

	var out bytes.Buffer
	stats, err := c.Convert(bytes.NewReader(enc), &out)
	if err != nil {
		return stats, errors.Wrapf(err, "failed to convert %q", src)
	}

	return stats, writeFile(fs, dst, out.Bytes())
}

// ConvertAnnotatedFile converts the annotations of file and writes them to dst, with the same
// write policy as ConvertFile.
func (c *Converter) ConvertAnnotatedFile(fs afero.Fs, file AnnotatedFile, dst string) (
		Stats, error) {

	var out bytes.Buffer
	stats, err := c.ConvertAnnotations(file, &out)
	if err != nil {
		return stats, errors.Wrapf(err, "failed to convert the labels of %q", file.FilePath)
	}

	return stats, writeFile(fs, dst, out.Bytes())
}

func writeLabel(w io.Writer, l Label) error {
	_, err := io.WriteString(w, l.String()+"\n")
	return err
}

func writeFile(fs afero.Fs, path string, data []byte) error {
	if err := afero.WriteFile(fs, path, data, 0644); err != nil {
		return errors.Wrapf(err, "cannot write file %q", path)
	}
	return nil
}
