package yololbl

// Class remapping from source taxonomies onto the destination taxonomy.

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// ClassMap maps source class identifiers (names or integer ids) onto destination class indices.
//
// A source identifier that maps to a nil index is dropped explicitly, and so is an identifier
// that is not in Mappings at all. Several identifiers may share one destination index.
type ClassMap struct {
	Names      []string        `yaml:"names"`   // Destination class names, indexed by class index.
	Mappings   map[string]*int `yaml:"mapping"` // Source identifier to destination index or nil.
	IgnoreCase bool            `yaml:"ignore_case"`
}

// Resolve returns the destination index for the source identifier id. The boolean result is
// false if the identifier is unmapped or explicitly dropped.
func (m ClassMap) Resolve(id string) (int, bool) {
	key := canonicalClassID(id)
	index, found := m.Mappings[key]
	if !found && m.IgnoreCase {
		for _, k := range m.sortedKeys() {
			if strings.EqualFold(k, key) {
				index, found = m.Mappings[k], true
				break
			}
		}
	}
	if !found || index == nil {
		return 0, false
	}
	return *index, true
}

// Validate checks that every destination index refers to one of m.Names and that the mapping is
// unambiguous when case is ignored.
func (m ClassMap) Validate() error {
	if len(m.Names) == 0 {
		return errors.New("the class map has no destination classes")
	}
	for i, name := range m.Names {
		if strings.TrimSpace(name) == "" {
			return errors.Errorf("destination class %d has no name", i)
		}
	}

	folded := make(map[string]string, len(m.Mappings))
	for _, k := range m.sortedKeys() {
		v := m.Mappings[k]
		if v != nil && (*v < 0 || *v >= len(m.Names)) {
			return errors.Errorf("class %q maps to index %d, outside of [0, %d)", k, *v, len(m.Names))
		}
		if !m.IgnoreCase {
			continue
		}
		lk := strings.ToLower(k)
		if other, ok := folded[lk]; ok && !sameIndex(m.Mappings[other], v) {
			return errors.Errorf("classes %q and %q differ only in case but map differently", other, k)
		}
		folded[lk] = k
	}

	return nil
}

// Override applies source=index mappings, as given on the command line. The index "skip" (or an
// empty index) drops the source class.
func (m *ClassMap) Override(mappings []string) error {
	if len(mappings) == 0 {
		return nil
	}

	updated := make(map[string]*int, len(m.Mappings)+len(mappings))
	for k, v := range m.Mappings {
		updated[k] = v
	}

	for _, v := range mappings {
		a := strings.Split(v, "=")
		if len(a) != 2 || strings.TrimSpace(a[0]) == "" {
			return errors.Errorf("invalid mapping: %v", v)
		}

		key := canonicalClassID(strings.TrimSpace(a[0]))
		value := strings.TrimSpace(a[1])
		if value == "" || strings.EqualFold(value, "skip") {
			updated[key] = nil
			continue
		}
		index, err := strconv.Atoi(value)
		if err != nil {
			return errors.Errorf("invalid class index in mapping %q", v)
		}
		updated[key] = &index
	}

	m.Mappings = updated
	return m.Validate()
}

// String lists the mappings in a stable order, one per line.
func (m ClassMap) String() string {
	var b strings.Builder
	for _, k := range m.sortedKeys() {
		v := m.Mappings[k]
		if v == nil {
			fmt.Fprintf(&b, "%s -> skip\n", k)
		} else {
			fmt.Fprintf(&b, "%s -> %d (%s)\n", k, *v, m.Names[*v])
		}
	}
	return b.String()
}

func (m ClassMap) sortedKeys() []string {
	keys := make([]string, 0, len(m.Mappings))
	for k := range m.Mappings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sameIndex(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// canonicalClassID returns the decimal form of integer ids, so "03" and "3" resolve alike. Names
// are returned unchanged.
func canonicalClassID(id string) string {
	if n, err := strconv.Atoi(id); err == nil {
		return strconv.Itoa(n)
	}
	return id
}

func idx(i int) *int {
	return &i
}

// VehicleClasses is the destination taxonomy of the vehicle detector.
var VehicleClasses = []string{"car", "truck", "other"}

// The built-in class maps.
var classMapPresets = map[string]func() ClassMap{
	// KITTI object classes. Other vehicles collapse onto "other", people are dropped.
	"kitti-vehicles": func() ClassMap {
		return ClassMap{
			Names: append([]string(nil), VehicleClasses...),
			Mappings: map[string]*int{
				"Car":            idx(0),
				"Truck":          idx(1),
				"Van":            idx(2),
				"Tram":           idx(2),
				"Misc":           idx(2),
				"Cyclist":        idx(2),
				"Pedestrian":     nil,
				"Person":         nil,
				"Person_sitting": nil,
				"DontCare":       nil,
			},
		}
	},
	// Cars and trucks only, matched regardless of case.
	"kitti-car-truck": func() ClassMap {
		return ClassMap{
			Names:      []string{"car", "truck"},
			Mappings:   map[string]*int{"car": idx(0), "truck": idx(1)},
			IgnoreCase: true,
		}
	},
	// Normalized labels with a stray fourth class, which is folded into "other".
	"yolo-collapse": func() ClassMap {
		return ClassMap{
			Names:    append([]string(nil), VehicleClasses...),
			Mappings: map[string]*int{"0": idx(0), "1": idx(1), "2": idx(2), "3": idx(2)},
		}
	},
}

// ClassMapPresetNames returns the names of the built-in class maps.
func ClassMapPresetNames() []string {
	names := make([]string, 0, len(classMapPresets))
	for k := range classMapPresets {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// ClassMapPreset returns a fresh copy of the built-in class map called name.
func ClassMapPreset(name string) (ClassMap, bool) {
	newMap, ok := classMapPresets[name]
	if !ok {
		return ClassMap{}, false
	}
	return newMap(), true
}

// LoadClassMap reads a YAML class map from path. Keys are case sensitive and a null value drops
// the class:
//
//	names: [car, truck, other]
//	ignore_case: false
//	mapping:
//	  Car: 0
//	  Van: 2
//	  Pedestrian: null
func LoadClassMap(fs afero.Fs, path string) (ClassMap, error) {
	enc, err := afero.ReadFile(fs, path)
	if err != nil {
		return ClassMap{}, errors.Wrapf(ErrMissingInput, "cannot read class map %q: %v", path, err)
	}

	var m ClassMap
	if err := yaml.Unmarshal(enc, &m); err != nil {
		return ClassMap{}, errors.Wrapf(err, "failed to parse class map %q", path)
	}

	mappings := make(map[string]*int, len(m.Mappings))
	for k, v := range m.Mappings {
		mappings[canonicalClassID(k)] = v
	}
	m.Mappings = mappings

	if err := m.Validate(); err != nil {
		return ClassMap{}, errors.Wrapf(err, "invalid class map %q", path)
	}
	return m, nil
}

// ResolveClassMap returns the built-in class map called nameOrPath, or loads it from the file at
// that path otherwise.
func ResolveClassMap(fs afero.Fs, nameOrPath string) (ClassMap, error) {
	if nameOrPath == "" {
		return ClassMap{}, errors.Wrap(ErrMissingInput, "no class map given")
	}
	if m, ok := ClassMapPreset(nameOrPath); ok {
		return m, nil
	}
	return LoadClassMap(fs, nameOrPath)
}
