package yololbl

import (
	"image"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	_ "golang.org/x/image/webp" // Register the WebP decoder.
)

// The image types sampled for the dataset image size, in order of preference. Extensions match
// in any case.
var sampleImageExts = []string{".png", ".jpg", ".jpeg", ".webp"}

// SampleImageSize returns the size of one representative image in imageDir, along with its path.
// The first image, by name, with the first extension in sampleImageExts that has any images is
// used. All images of a dataset are assumed to share that size.
func SampleImageSize(fs afero.Fs, imageDir string) (ImageSize, string, error) {
	for _, ext := range sampleImageExts {
		files, err := filesByExtInDir(fs, imageDir, ext)
		if err != nil {
			return ImageSize{}, "", err
		}
		if len(files) == 0 {
			continue
		}

		size, err := ImageSizeOf(fs, files[0])
		if err != nil {
			return ImageSize{}, files[0], errors.Wrapf(err, "could not read image %q", files[0])
		}
		return size, files[0], nil
	}

	return ImageSize{}, "", errors.Wrapf(ErrMissingInput, "no images found in %q", imageDir)
}

// ImageSizeOf decodes the image at path and returns its size as displayed, i.e. after applying
// the EXIF orientation.
func ImageSizeOf(fs afero.Fs, path string) (size ImageSize, err error) {
	f, err := fs.Open(path)
	if err != nil {
		return ImageSize{}, err
	}
	defer closeWithErrCheck(f, &err)

	img, err := imaging.Decode(f, imaging.AutoOrientation(true))
	if err != nil {
		return ImageSize{}, err
	}

	bounds := img.Bounds()
	return ImageSize{Width: bounds.Dx(), Height: bounds.Dy()}, nil
}

// decodeImageConfig opens the file at path and returns the results of image.DecodeConfig.
func decodeImageConfig(fs afero.Fs, path string) (config image.Config, format string, err error) {
	file, err := fs.Open(path)
	if err != nil {
		return image.Config{}, "", err
	}
	defer file.Close()

	return image.DecodeConfig(file)
}
