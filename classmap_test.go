package yololbl

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassMapPresets(t *testing.T) {
	assert.Equal(t, []string{"kitti-car-truck", "kitti-vehicles", "yolo-collapse"},
		ClassMapPresetNames())

	for _, name := range ClassMapPresetNames() {
		m, ok := ClassMapPreset(name)
		require.True(t, ok)
		assert.NoError(t, m.Validate(), name)
	}

	_, ok := ClassMapPreset("coco")
	assert.False(t, ok)

	m, _ := ClassMapPreset("kitti-vehicles")
	for id, want := range map[string]int{"Car": 0, "Truck": 1, "Van": 2, "Tram": 2, "Cyclist": 2} {
		got, ok := m.Resolve(id)
		require.True(t, ok, id)
		assert.Equal(t, want, got, id)
	}
	for _, id := range []string{"Pedestrian", "DontCare", "car", "Bicycle"} {
		_, ok := m.Resolve(id)
		assert.False(t, ok, id)
	}

	m, _ = ClassMapPreset("yolo-collapse")
	got, ok := m.Resolve("3")
	require.True(t, ok)
	assert.Equal(t, 2, got)
	got, ok = m.Resolve("03")
	require.True(t, ok)
	assert.Equal(t, 2, got)
	_, ok = m.Resolve("4")
	assert.False(t, ok)
}

func TestClassMapPresetCopies(t *testing.T) {
	m, _ := ClassMapPreset("kitti-vehicles")
	require.NoError(t, m.Override([]string{"Car=skip"}))

	fresh, _ := ClassMapPreset("kitti-vehicles")
	got, ok := fresh.Resolve("Car")
	require.True(t, ok)
	assert.Equal(t, 0, got)
}

func TestClassMapIgnoreCase(t *testing.T) {
	m, _ := ClassMapPreset("kitti-car-truck")
	for id, want := range map[string]int{"car": 0, "Car": 0, "CAR": 0, "Truck": 1} {
		got, ok := m.Resolve(id)
		require.True(t, ok, id)
		assert.Equal(t, want, got, id)
	}
	_, ok := m.Resolve("Van")
	assert.False(t, ok)

	conflicting := ClassMap{
		Names:      []string{"car", "truck"},
		Mappings:   map[string]*int{"car": idx(0), "CAR": idx(1)},
		IgnoreCase: true,
	}
	assert.Error(t, conflicting.Validate())
	conflicting.IgnoreCase = false
	assert.NoError(t, conflicting.Validate())
}

func TestClassMapOverride(t *testing.T) {
	m, _ := ClassMapPreset("kitti-vehicles")
	require.NoError(t, m.Override([]string{"Pedestrian=2", "Van=skip", "Tram=", "Bus = 1"}))

	got, ok := m.Resolve("Pedestrian")
	require.True(t, ok)
	assert.Equal(t, 2, got)
	got, ok = m.Resolve("Bus")
	require.True(t, ok)
	assert.Equal(t, 1, got)
	_, ok = m.Resolve("Van")
	assert.False(t, ok)
	_, ok = m.Resolve("Tram")
	assert.False(t, ok)

	assert.Error(t, m.Override([]string{"Car"}))
	assert.Error(t, m.Override([]string{"=1"}))
	assert.Error(t, m.Override([]string{"Car=truck"}))
	assert.Error(t, m.Override([]string{"Car=3"}))
}

func TestClassMapValidate(t *testing.T) {
	assert.Error(t, ClassMap{}.Validate())
	assert.Error(t, ClassMap{Names: []string{"car", " "}}.Validate())
	assert.Error(t, ClassMap{Names: []string{"car"}, Mappings: map[string]*int{"Car": idx(-1)}}.Validate())
	assert.NoError(t, ClassMap{Names: []string{"car"}, Mappings: map[string]*int{"Car": nil}}.Validate())
}

func TestLoadClassMap(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/maps/vehicles.yaml", []byte(`
names: [car, truck, other]
mapping:
  Car: 0
  Truck: 1
  van: 2
  "07": 2
  Pedestrian: null
`), 0644))

	m, err := LoadClassMap(fs, "/maps/vehicles.yaml")
	require.NoError(t, err)
	assert.Equal(t, []string{"car", "truck", "other"}, m.Names)
	assert.False(t, m.IgnoreCase)

	got, ok := m.Resolve("van")
	require.True(t, ok)
	assert.Equal(t, 2, got)
	got, ok = m.Resolve("7")
	require.True(t, ok)
	assert.Equal(t, 2, got)
	_, ok = m.Resolve("Van")
	assert.False(t, ok, "keys are case sensitive")
	_, ok = m.Resolve("Pedestrian")
	assert.False(t, ok)

	resolved, err := ResolveClassMap(fs, "/maps/vehicles.yaml")
	require.NoError(t, err)
	assert.Equal(t, m, resolved)

	require.NoError(t, afero.WriteFile(fs, "/maps/bad.yaml", []byte("names: [car]\nmapping:\n  Car: 4\n"), 0644))
	_, err = LoadClassMap(fs, "/maps/bad.yaml")
	assert.Error(t, err)

	_, err = LoadClassMap(fs, "/maps/missing.yaml")
	assert.True(t, errors.Is(err, ErrMissingInput))

	_, err = ResolveClassMap(fs, "")
	assert.True(t, errors.Is(err, ErrMissingInput))
}
