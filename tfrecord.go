package yololbl

// TFRecord object detection export of converted labels.

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/cyclopcam/logs"
	"github.com/golang/protobuf/proto"
	"github.com/pkg/errors"
	"github.com/ryszard/tfutils/go/example"
	"github.com/ryszard/tfutils/go/tfrecord"
	"github.com/ryszard/tfutils/proto/tensorflow/core/example" // package tensorflow
	"github.com/spf13/afero"
)

// TFFeatureMap maps feature names to their values. Values must be convertible to
// tensorflow.Feature.
type TFFeatureMap map[string]interface{}

// TFRecordExport writes a converted dataset as TFRecord files for the TensorFlow object
// detection API.
type TFRecordExport struct {
	Fs        afero.Fs
	Log       logs.Log
	Classes   ClassMap // Class names, label ids are the class indices plus one.
	NumShards int      // Values below one write a single file.
}

// Write pairs the label files in labelDir with the images in imageDir by base name and writes
// one example per pair to recordPath (with "-xxxxx-of-xxxxx" suffixes when sharded). The label
// map is written to labelMapPath in prototxt format.
//
// Returns the number of examples written. Pairs that cannot be converted are logged and skipped.
func (e *TFRecordExport) Write(labelDir, imageDir, recordPath, labelMapPath string) (
		written int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("conversion to TensorFlow Example failed: %v", r)
		}
	}()

	if err := e.Classes.Validate(); err != nil {
		return 0, err
	}

	pairs, unmatched, err := pairLabelsWithImages(e.Fs, labelDir, ".txt", imageDir)
	if err != nil {
		return 0, err
	}
	for _, path := range unmatched {
		e.Log.Warnf("No corresponding image file, skipping %q", path)
	}
	e.Log.Infof("Writing TFRecord examples for %d files", len(pairs))

	numShards := e.NumShards
	if numShards <= 0 {
		numShards = 1
	}
	fmtShardSuffix := func(idx int) string {
		return fmt.Sprintf("-%05d-of-%05d", idx, numShards)
	}

	var shardFile afero.File
	shardSize := int(math.Ceil(float64(len(pairs)) / float64(numShards)))
	shardIdx := -1
	closeShard := func() error {
		if shardFile == nil {
			return nil
		}
		err := shardFile.Close()
		shardFile = nil
		return err
	}
	defer closeShard()

	// Convert and serialise one pair at a time.
	for i, pair := range pairs {
		// Check if a new shard file needs to be opened for writing.
		if i%shardSize == 0 {
			shardIdx++
			if err := closeShard(); err != nil {
				return written, err
			}

			shardPath := recordPath
			if numShards > 1 {
				shardPath += fmtShardSuffix(shardIdx)
			}
			f, err := e.Fs.Create(shardPath)
			if err != nil {
				return written, errors.Wrapf(err, "failed to create shard at %q", shardPath)
			}
			shardFile = f
		}

		features, err := e.toTFRecord(pair)
		if err != nil {
			e.Log.Warnf("Failed to convert %q: %v", pair.labelPath, err)
			continue
		}

		if err := writeTFRecordExample(shardFile, example.New(features)); err != nil {
			return written, errors.Wrapf(err, "failed to write the example for %q", pair.labelPath)
		}
		written++
	}

	if err := closeShard(); err != nil {
		return written, err
	}
	e.Log.Infof("Wrote %d examples to %s", written, recordPath)

	return written, e.saveLabelMap(labelMapPath)
}

// toTFRecord builds the feature map for a single label file and its image.
func (e *TFRecordExport) toTFRecord(pair labelImagePair) (TFFeatureMap, error) {
	labels, err := e.readLabels(pair.labelPath)
	if err != nil {
		return nil, err
	}

	// Get the image width and height.
	img, format, err := decodeImageConfig(e.Fs, pair.imagePath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode the image metadata")
	}

	// Read the image data.
	imgData, err := afero.ReadFile(e.Fs, pair.imagePath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read the image")
	}

	// Prepare the feature map for the per file data.
	f := make(TFFeatureMap, 16)
	f["image/height"] = img.Height
	f["image/width"] = img.Width
	f["image/filename"] = pair.imagePath
	f["image/source_id"] = pair.imagePath
	f["image/encoded"] = imgData
	f["image/format"] = format

	// Prepare the per label data.
	numLabels := len(labels)
	xmins := make([]float32, numLabels)
	ymins := make([]float32, numLabels)
	xmaxs := make([]float32, numLabels)
	ymaxs := make([]float32, numLabels)
	classes := make([]string, numLabels)
	classIDs := make([]int64, numLabels)
	for i, l := range labels {
		c := l.Corners()
		xmins[i] = float32(c[0])
		ymins[i] = float32(c[1])
		xmaxs[i] = float32(c[2])
		ymaxs[i] = float32(c[3])
		classes[i] = e.Classes.Names[l.Class]
		classIDs[i] = int64(l.Class + 1)
	}
	f["image/object/bbox/xmin"] = xmins
	f["image/object/bbox/ymin"] = ymins
	f["image/object/bbox/xmax"] = xmaxs
	f["image/object/bbox/ymax"] = ymaxs
	f["image/object/class/text"] = classes
	f["image/object/class/label"] = classIDs

	return f, nil
}

// readLabels reads the labels of a label file. Invalid lines are dropped.
func (e *TFRecordExport) readLabels(path string) ([]Label, error) {
	enc, err := afero.ReadFile(e.Fs, path)
	if err != nil {
		return nil, err
	}

	var labels []Label
	invalid := 0
	// Reading from memory cannot fail and the callback never returns an error.
	_ = forEachLine(bytes.NewReader(enc), func(line string) error {
		if strings.TrimSpace(line) == "" {
			return nil
		}
		l, err := ParseLabel(line)
		if err == nil {
			err = checkLabel(l, e.Classes.Names)
		}
		if err != nil {
			invalid++
			return nil
		}
		labels = append(labels, l)
		return nil
	})
	if invalid > 0 {
		e.Log.Warnf("Dropped %d invalid label lines in %q", invalid, path)
	}

	return labels, nil
}

// saveLabelMap writes the class names as a StringIntLabelMap in prototxt format, with ids
// starting at one.
func (e *TFRecordExport) saveLabelMap(path string) (err error) {
	file, err := e.Fs.Create(path)
	if err != nil {
		return errors.Wrapf(err, "failed to create the label map file %q", path)
	}
	defer closeWithErrCheck(file, &err)

	w := bufio.NewWriter(file)
	for i, name := range e.Classes.Names {
		fmt.Fprintf(w, "item {\n  id: %d\n  name: %q\n}\n", i+1, name)
	}
	if err := w.Flush(); err != nil {
		return errors.Wrapf(err, "failed to write the label map %q", path)
	}

	return nil
}

// writeTFRecordExample serialises the example and writes it as a TFRecord to w.
func writeTFRecordExample(w io.Writer, e *tensorflow.Example) error {
	enc, err := proto.Marshal(e)
	if err != nil {
		return err
	}

	return tfrecord.Write(w, enc)
}
