package yololbl

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// ErrMissingInput is returned when a top-level input, such as the label directory, the image
// directory used to sample the image size or a class map file, does not exist. It halts a run.
var ErrMissingInput = errors.New("missing input")

// filesByExtInDir returns all regular files with file extension ext (in any case) found directly
// in directory dirPath, sorted by name. All files are returned if ext is empty.
func filesByExtInDir(fs afero.Fs, dirPath, ext string) ([]string, error) {
	dirInfo, err := fs.Stat(dirPath)
	if err != nil {
		return nil, errors.Wrapf(ErrMissingInput, "cannot read directory %q: %v", dirPath, err)
	}
	if !dirInfo.IsDir() {
		return nil, errors.Wrapf(ErrMissingInput, "%q is not a directory", dirPath)
	}

	fileList, err := afero.ReadDir(fs, dirPath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to access %q", dirPath)
	}

	files := make([]string, 0, len(fileList))
	for _, file := range fileList {
		name := file.Name()
		// Must be a regular file or a symlink and have the requested extension/suffix.
		if (!file.Mode().IsRegular() && (file.Mode()&os.ModeSymlink == 0)) ||
				!hasExt(name, ext) {
			continue
		}
		files = append(files, filepath.Join(dirPath, name))
	}

	return files, nil
}

// hasExt reports whether name ends in ext, ignoring case.
func hasExt(name, ext string) bool {
	return len(name) >= len(ext) && strings.EqualFold(name[len(name)-len(ext):], ext)
}

// forEachLine calls fn with every line of r, without the line terminator. Lines may be of any
// length. The first error returned by fn stops the iteration and is returned.
func forEachLine(r io.Reader, fn func(line string) error) error {
	br := bufio.NewReader(r)
	for {
		line, err := br.ReadString('\n')
		if len(line) > 0 {
			if err := fn(strings.TrimRight(line, "\r\n")); err != nil {
				return err
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// splitPath splits the given file path into the dir name, the base name without extension and the
// extension (without the dot).
func splitPath(path string) (dir, baseNoExt, ext string, err error) {
	dir, file := filepath.Split(path)
	ext = filepath.Ext(file)
	if ext == "" {
		return "", "", "", errors.Errorf("missing file extension in %q", path)
	}

	dir = strings.TrimSuffix(dir, string(os.PathSeparator))
	baseNoExt = file[0 : len(file)-len(ext)]
	ext = ext[1:]

	return dir, baseNoExt, ext, nil
}

// mapFileNamesToExtensions maps the base names of the given file paths, with the file type
// extensions stripped off, to the file extension (without the dot). Paths without extension are
// ignored.
func mapFileNamesToExtensions(filePaths []string) map[string]string {
	mapping := make(map[string]string, len(filePaths))
	for _, path := range filePaths {
		_, baseNoExt, ext, err := splitPath(path)
		if err != nil {
			continue
		}
		mapping[baseNoExt] = ext
	}

	return mapping
}

// labelImagePair is a label file and the image it annotates.
type labelImagePair struct {
	labelPath string
	imagePath string
}

// pairLabelsWithImages matches label files in labelDir, with file extension labelFileExt
// (e.g. ".txt"), by file name to images in imageDir (with an arbitrary file extension).
//
// Label files without a matching image are returned in unmatched.
func pairLabelsWithImages(fs afero.Fs, labelDir, labelFileExt, imageDir string) (
		pairs []labelImagePair, unmatched []string, err error) {

	labelFiles, err := filesByExtInDir(fs, labelDir, labelFileExt)
	if err != nil {
		return nil, nil, err
	}

	// Find the image files and create a map from base file name without ext to ext.
	imageFiles, err := filesByExtInDir(fs, imageDir, "")
	if err != nil {
		return nil, nil, err
	}
	imageNamesToExt := mapFileNamesToExtensions(imageFiles)

	pairs = make([]labelImagePair, 0, len(labelFiles))
	for _, labelPath := range labelFiles {
		_, baseNoExt, _, err := splitPath(labelPath)
		if err != nil {
			unmatched = append(unmatched, labelPath)
			continue
		}
		imageExt, found := imageNamesToExt[baseNoExt]
		if !found {
			unmatched = append(unmatched, labelPath)
			continue
		}
		pairs = append(pairs, labelImagePair{
			labelPath: labelPath,
			imagePath: filepath.Join(imageDir, baseNoExt+"."+imageExt),
		})
	}

	return pairs, unmatched, nil
}

// closeWithErrCheck calls c.Close(). If it returns an error, and (*e == nil), e is set to that
// error.
func closeWithErrCheck(c interface{ Close() error }, e *error) {
	err := c.Close()
	if err != nil && *e == nil {
		*e = err
	}
}
