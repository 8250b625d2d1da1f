package main

import (
	"io"
	"path/filepath"

	"github.com/cyclopcam/logs"
	"github.com/pkg/errors"
	"github.com/schollz/progressbar/v3"
	"github.com/sensorable/yololbl"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// convertCommand creates the command that converts a dataset into YOLO labels.
func convertCommand(log logs.Log, fs afero.Fs) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert source labels into normalized YOLO labels",
		Long: "Convert KITTI or YOLO label directories, or Sloth and VIA label files, into one YOLO" +
			" label file per image. Classes are remapped with --classes and --map; lines that are" +
			" malformed, unmapped or below --min-box-size are skipped.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings(fs, cmd)
			if err != nil {
				return err
			}
			return runConvert(log, fs, cmd.ErrOrStderr(), s)
		},
	}

	f := cmd.Flags()
	f.StringP("from", "f", defaultFormat, "The source `format` {kitti, yolo, sloth, via}")
	f.StringP("labels", "l", "",
		"The `path` to the label input directory (kitti, yolo) or file (sloth, via)")
	f.StringP("images", "i", "", "The `path` to the image directory to sample the image size from")
	f.StringP("out", "o", "", "The `path` to the label output directory")
	f.Int("width", 0, "The image width in `pixels` (overrides sampling)")
	f.Int("height", 0, "The image height in `pixels` (overrides sampling)")
	f.Float64("min-box-size", 0,
		"The min. width and height in `pixels` for boxes to keep (zero disables the filter)")
	f.StringP("classes", "c", defaultClasses, "The class map: a preset `name` or a YAML file path")
	f.StringArray("map", nil, "A `source=index` or source=skip class mapping override (repeatable)")
	f.Bool("progress", false, "Show a progress bar")
	f.BoolP("verbose", "v", false, "Log the record counts of every file")

	return cmd
}

// runConvert converts the dataset described by s. The progress bar, if enabled, is drawn on
// progressOut.
func runConvert(log logs.Log, fs afero.Fs, progressOut io.Writer, s *settings) error {
	format := yololbl.ParseSourceFormat(s.From)
	if format == yololbl.FormatUnknown {
		return errors.Errorf("unsupported input format %q", s.From)
	}

	// Validate the paths.
	if s.Labels == "" {
		return errors.Wrap(yololbl.ErrMissingInput, "missing label input path (--labels)")
	}
	if s.Out == "" {
		return errors.Wrap(yololbl.ErrMissingInput, "missing label output path (--out)")
	}
	if filepath.Clean(s.Labels) == filepath.Clean(s.Out) {
		return errors.New("the label input and output paths cannot be identical")
	}

	classes, err := yololbl.ResolveClassMap(fs, s.Classes)
	if err != nil {
		return err
	}
	if err := classes.Override(s.Map); err != nil {
		return errors.Wrap(err, "failed to map labels")
	}

	size, err := imageSize(log, fs, format, s)
	if err != nil {
		return err
	}

	converter, err := yololbl.NewConverter(yololbl.Options{
		Format:     format,
		Classes:    classes,
		ImageSize:  size,
		MinBoxSize: s.MinBoxSize,
	})
	if err != nil {
		return err
	}

	batch := &yololbl.Batch{Fs: fs, Log: log, Converter: converter, Verbose: s.Verbose}
	var bar *progressbar.ProgressBar
	if s.Progress {
		batch.Progress = func(done, total int) {
			if bar == nil {
				bar = progressbar.NewOptions(total,
					progressbar.OptionSetWriter(progressOut),
					progressbar.OptionSetDescription("Converting labels"),
					progressbar.OptionShowCount(),
					progressbar.OptionClearOnFinish())
			}
			_ = bar.Set(done)
		}
	}

	var report yololbl.Report
	switch format {
	case yololbl.FormatKitti, yololbl.FormatYOLO:
		report, err = batch.ConvertDir(s.Labels, s.Out)
	case yololbl.FormatSloth, yololbl.FormatVIA:
		var files []yololbl.AnnotatedFile
		if format == yololbl.FormatSloth {
			files, err = yololbl.FromSloth(fs, s.Labels)
		} else {
			files, err = yololbl.FromVIA(fs, s.Labels)
		}
		if err == nil {
			report, err = batch.ConvertAnnotatedFiles(files, s.Out)
		}
	}
	if bar != nil {
		_ = bar.Finish()
	}
	if err != nil {
		return errors.Wrap(err, "failed to convert the labels")
	}

	if len(report.Failed) > 0 {
		log.Warnf("%d label files could not be converted", len(report.Failed))
	}
	return nil
}

// imageSize returns the size that pixel coordinates are normalized by: the size given on the
// command line, the size of an image sampled from the image directory, or the KITTI camera size.
func imageSize(log logs.Log, fs afero.Fs, format yololbl.SourceFormat, s *settings) (
		yololbl.ImageSize, error) {

	size := yololbl.ImageSize{Width: s.Width, Height: s.Height}
	if !size.IsZero() || (format.Normalized() && s.MinBoxSize == 0) {
		return size, nil
	}

	if s.Images != "" {
		size, path, err := yololbl.SampleImageSize(fs, s.Images)
		if err != nil {
			return yololbl.ImageSize{}, err
		}
		log.Infof("Image dimensions: %v (from %q)", size, path)
		return size, nil
	}

	if format == yololbl.FormatKitti {
		log.Warnf("No image size or image directory given, assuming the KITTI camera size %v",
			yololbl.KittiImageSize)
		return yololbl.KittiImageSize, nil
	}

	return yololbl.ImageSize{}, errors.Wrap(yololbl.ErrMissingInput,
		"the image size is required: pass --images or --width and --height")
}
