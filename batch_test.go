package yololbl

import (
	"os"
	"testing"

	"github.com/cyclopcam/logs"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unreadableFs fails to open one path.
type unreadableFs struct {
	afero.Fs
	path string
}

func (fs unreadableFs) Open(name string) (afero.File, error) {
	if name == fs.path {
		return nil, os.ErrPermission
	}
	return fs.Fs.Open(name)
}

func (fs unreadableFs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	if name == fs.path {
		return nil, os.ErrPermission
	}
	return fs.Fs.OpenFile(name, flag, perm)
}

func newBatch(t *testing.T, fs afero.Fs, c *Converter) *Batch {
	return &Batch{Fs: fs, Log: logs.NewTestingLog(t), Converter: c, Verbose: true}
}

func TestConvertDir(t *testing.T) {
	mem := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(mem, "/kitti/label_2/000001.txt",
		[]byte(kittiCar+"\n"+kittiPedestrian+"\n"), 0644))
	require.NoError(t, afero.WriteFile(mem, "/kitti/label_2/000002.txt", []byte(kittiTruck+"\n"), 0644))
	require.NoError(t, afero.WriteFile(mem, "/kitti/label_2/000003.txt", []byte(kittiCar+"\n"), 0644))
	require.NoError(t, afero.WriteFile(mem, "/kitti/label_2/README.md", []byte("not a label"), 0644))
	fs := unreadableFs{Fs: mem, path: "/kitti/label_2/000002.txt"}

	var calls []int
	b := newBatch(t, fs, newKittiConverter(t, 0))
	b.Progress = func(done, total int) {
		assert.Equal(t, 3, total)
		calls = append(calls, done)
	}

	report, err := b.ConvertDir("/kitti/label_2", "/yolo/labels")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, calls)
	assert.Equal(t, 3, report.Files)
	assert.Equal(t, 2, report.Converted)
	require.Len(t, report.Failed, 1)
	assert.Equal(t, "/kitti/label_2/000002.txt", report.Failed[0].Path)
	assert.Equal(t, Stats{Lines: 3, Written: 2, Unmapped: 1}, report.Totals)

	enc, err := afero.ReadFile(mem, "/yolo/labels/000001.txt")
	require.NoError(t, err)
	assert.Equal(t, "0 0.161031 0.333333 0.161031 0.400000\n", string(enc))

	exists, _ := afero.Exists(mem, "/yolo/labels/000002.txt")
	assert.False(t, exists)
	exists, _ = afero.Exists(mem, "/yolo/labels/000003.txt")
	assert.True(t, exists)
}

func TestConvertDirMissingInput(t *testing.T) {
	fs := afero.NewMemMapFs()
	b := newBatch(t, fs, newKittiConverter(t, 0))

	_, err := b.ConvertDir("/does/not/exist", "/out")
	assert.True(t, errors.Is(err, ErrMissingInput))

	require.NoError(t, afero.WriteFile(fs, "/file.txt", nil, 0644))
	_, err = b.ConvertDir("/file.txt", "/out")
	assert.True(t, errors.Is(err, ErrMissingInput))
}

func TestConvertSloth(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/sloth.json", []byte(`[
  {
    "class": "image",
    "filename": "images/frame_0001.jpg",
    "annotations": [
      {"class": "Car", "type": "rect", "x": 100, "y": 50, "width": 200, "height": 150},
      {"class": "Car", "type": "point", "x": 10, "y": 10},
      {"class": "Pedestrian", "x": 10, "y": 10, "width": 20, "height": 60}
    ]
  },
  {"class": "image", "filename": "images/frame_0002.jpg", "annotations": []}
]`), 0644))

	files, err := FromSloth(fs, "/sloth.json")
	require.NoError(t, err)
	require.Len(t, files, 2)
	require.Len(t, files[0].Annotations, 2)
	assert.Equal(t, [4]float64{100, 50, 300, 200}, files[0].Annotations[0].Coords)

	report, err := newBatch(t, fs, newKittiConverter(t, 0)).ConvertAnnotatedFiles(files, "/out")
	require.NoError(t, err)
	assert.Equal(t, 2, report.Converted)
	assert.Equal(t, Stats{Lines: 2, Written: 1, Unmapped: 1}, report.Totals)

	enc, err := afero.ReadFile(fs, "/out/frame_0001.txt")
	require.NoError(t, err)
	assert.Equal(t, "0 0.161031 0.333333 0.161031 0.400000\n", string(enc))
	enc, err = afero.ReadFile(fs, "/out/frame_0002.txt")
	require.NoError(t, err)
	assert.Empty(t, enc)

	_, err = FromSloth(fs, "/missing.json")
	assert.True(t, errors.Is(err, ErrMissingInput))
}

func TestConvertVIA(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/via.json", []byte(`{
  "_via_settings": {},
  "_via_img_metadata": {
    "b.png123": {
      "filename": "b.png",
      "size": 123,
      "regions": [
        {"shape_attributes": {"name": "rect", "x": 600, "y": 100, "width": 300, "height": 200},
         "region_attributes": {"Label": "Truck"}}
      ],
      "file_attributes": {}
    },
    "a.png456": {
      "filename": "a.png",
      "size": 456,
      "regions": [
        {"shape_attributes": {"name": "circle", "cx": 10, "cy": 10, "r": 5},
         "region_attributes": {"Label": "Car"}}
      ],
      "file_attributes": {}
    }
  }
}`), 0644))

	files, err := FromVIA(fs, "/via.json")
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "a.png", files[0].FilePath)
	assert.Empty(t, files[0].Annotations)
	require.Len(t, files[1].Annotations, 1)
	assert.Equal(t, "Truck", files[1].Annotations[0].Label)

	report, err := newBatch(t, fs, newKittiConverter(t, 0)).ConvertAnnotatedFiles(files, "/out")
	require.NoError(t, err)
	assert.Equal(t, Stats{Lines: 1, Written: 1}, report.Totals)

	enc, err := afero.ReadFile(fs, "/out/b.txt")
	require.NoError(t, err)
	assert.Equal(t, "1 0.603865 0.533333 0.241546 0.533333\n", string(enc))
}
