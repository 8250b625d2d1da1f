package yololbl

// Sequential conversion of whole datasets.

import (
	"fmt"
	"path/filepath"

	"github.com/cyclopcam/logs"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// FileError records a label file that could not be converted.
type FileError struct {
	Path string
	Err  error
}

func (e FileError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

// Report summarises a batch conversion.
type Report struct {
	Files     int         // Label files found.
	Converted int         // Label files written.
	Failed    []FileError // Label files that were skipped.
	Totals    Stats       // Record counts over all converted files.
}

// ProgressFunc is called after each file of a batch with the number of files done so far.
type ProgressFunc func(done, total int)

// Batch converts a dataset one label file at a time. A file that cannot be read is logged and
// skipped; it never stops the batch.
type Batch struct {
	Fs        afero.Fs
	Log       logs.Log
	Converter *Converter
	Progress  ProgressFunc // Optional.
	Verbose   bool         // Log the record counts of every file.
}

// ConvertDir converts every ".txt" label file in labelDir into a file of the same name in outDir,
// which is created if necessary.
func (b *Batch) ConvertDir(labelDir, outDir string) (Report, error) {
	labelFiles, err := filesByExtInDir(b.Fs, labelDir, ".txt")
	if err != nil {
		return Report{}, err
	}
	if err := b.Fs.MkdirAll(outDir, 0755); err != nil {
		return Report{}, errors.Wrapf(err, "cannot create output directory %q", outDir)
	}
	b.Log.Infof("Converting %s labels for %d files", b.Converter.Format(), len(labelFiles))

	report := Report{Files: len(labelFiles)}
	for i, path := range labelFiles {
		dst := filepath.Join(outDir, filepath.Base(path))
		stats, err := b.Converter.ConvertFile(b.Fs, path, dst)
		b.record(&report, path, stats, err)
		b.progress(i+1, len(labelFiles))
	}

	b.logSummary(report)
	return report, nil
}

// ConvertAnnotatedFiles converts the annotations of each file into a label file in outDir, named
// after the image with a ".txt" extension.
func (b *Batch) ConvertAnnotatedFiles(files []AnnotatedFile, outDir string) (Report, error) {
	if err := b.Fs.MkdirAll(outDir, 0755); err != nil {
		return Report{}, errors.Wrapf(err, "cannot create output directory %q", outDir)
	}
	b.Log.Infof("Converting %s labels for %d files", b.Converter.Format(), len(files))

	report := Report{Files: len(files)}
	for i, file := range files {
		_, baseNoExt, _, err := splitPath(file.FilePath)
		var stats Stats
		if err == nil {
			dst := filepath.Join(outDir, baseNoExt+".txt")
			stats, err = b.Converter.ConvertAnnotatedFile(b.Fs, file, dst)
		}
		b.record(&report, file.FilePath, stats, err)
		b.progress(i+1, len(files))
	}

	b.logSummary(report)
	return report, nil
}

func (b *Batch) record(report *Report, path string, stats Stats, err error) {
	if err != nil {
		b.Log.Warnf("Error while converting, skipping %q: %v", path, err)
		report.Failed = append(report.Failed, FileError{Path: path, Err: err})
		return
	}

	report.Converted++
	report.Totals.Merge(stats)
	if b.Verbose {
		b.Log.Infof("%s: %d written, %d malformed, %d unmapped, %d degenerate", path,
			stats.Written, stats.Malformed, stats.Unmapped, stats.Degenerate)
	}
}

func (b *Batch) progress(done, total int) {
	if b.Progress != nil {
		b.Progress(done, total)
	}
}

func (b *Batch) logSummary(report Report) {
	b.Log.Infof("Converted %d out of %d label files", report.Converted, report.Files)
	b.Log.Infof("Wrote %d labels, skipped %d malformed, %d unmapped and %d degenerate records",
		report.Totals.Written, report.Totals.Malformed, report.Totals.Unmapped,
		report.Totals.Degenerate)
}
