// Material description file format.
// One JSON object per model: { "<material>": { "Type": "<code>", ... } }.
package formats

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"
)

// Material description errors.
var (
	ErrInvalidMaterialInfo = errors.New("invalid material info")
	ErrMissingMaterialType = errors.New("material has no Type")
)

// MaterialClass is the two-character material type code.
type MaterialClass string

// Known material classes.
const (
	ClassOpaque        MaterialClass = "23" // Implied when a mesh has no material slot
	ClassWater         MaterialClass = "24" // Water or translucent surface
	ClassWaterSurface  MaterialClass = "2D" // Water surface
	ClassTranslucent   MaterialClass = "2E" // Translucent
	ClassBranch        MaterialClass = "28" // Tree branch locator
	ClassGrass         MaterialClass = "29" // Grass blade locator
	ClassBoundedSphere MaterialClass = "30" // Needs the mesh bounding sphere in Parameters
)

// Descriptor is one material description. Member order follows the source
// file; equality is structural and ignores order.
type Descriptor struct {
	keys   []string
	values map[string]any
}

// NewDescriptor creates an empty descriptor.
func NewDescriptor() *Descriptor {
	return &Descriptor{values: make(map[string]any)}
}

// Get returns the value stored under key.
func (d *Descriptor) Get(key string) (any, bool) {
	v, ok := d.values[key]
	return v, ok
}

// Set stores value under key. New keys are appended.
func (d *Descriptor) Set(key string, value any) {
	if d.values == nil {
		d.values = make(map[string]any)
	}
	if _, ok := d.values[key]; !ok {
		d.keys = append(d.keys, key)
	}
	d.values[key] = value
}

// Delete removes key.
func (d *Descriptor) Delete(key string) {
	if _, ok := d.values[key]; !ok {
		return
	}
	delete(d.values, key)
	for i, k := range d.keys {
		if k == key {
			d.keys = append(d.keys[:i], d.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the member names in declaration order.
func (d *Descriptor) Keys() []string {
	return append([]string(nil), d.keys...)
}

// Class returns the material class code. An empty class means the Type
// member is missing.
func (d *Descriptor) Class() MaterialClass {
	v, ok := d.values["Type"]
	if !ok {
		return ""
	}
	switch t := v.(type) {
	case string:
		return MaterialClass(strings.ToUpper(t))
	default:
		return MaterialClass(fmt.Sprint(t))
	}
}

// Parameters returns the numeric Parameters array.
// ok is false when the member is absent or holds non-numeric entries.
func (d *Descriptor) Parameters() (params []float64, ok bool) {
	v, exists := d.values["Parameters"]
	if !exists {
		return nil, false
	}
	list, isList := v.([]any)
	if !isList {
		return nil, false
	}
	params = make([]float64, 0, len(list))
	for _, item := range list {
		f, isNum := item.(float64)
		if !isNum {
			return nil, false
		}
		params = append(params, f)
	}
	return params, true
}

// AppendParameters extends the Parameters array, creating it when missing.
func (d *Descriptor) AppendParameters(values ...float64) {
	var list []any
	if v, ok := d.values["Parameters"]; ok {
		if existing, isList := v.([]any); isList {
			list = append(list, existing...)
		}
	}
	for _, f := range values {
		list = append(list, f)
	}
	d.Set("Parameters", list)
}

// Equal reports structural equality.
func (d *Descriptor) Equal(other *Descriptor) bool {
	if d == nil || other == nil {
		return d == other
	}
	return reflect.DeepEqual(d.values, other.values)
}

// Clone returns a deep copy.
func (d *Descriptor) Clone() *Descriptor {
	c := NewDescriptor()
	for _, k := range d.keys {
		c.Set(k, cloneValue(d.values[k]))
	}
	return c
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = cloneValue(t[i])
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[k] = cloneValue(item)
		}
		return out
	default:
		return v
	}
}

// MarshalJSON writes members in declaration order.
func (d *Descriptor) MarshalJSON() ([]byte, error) {
	w := newObjectWriter()
	for _, k := range d.keys {
		w.field(k, d.values[k])
	}
	return w.bytes()
}

// UnmarshalJSON reads a descriptor keeping member order.
func (d *Descriptor) UnmarshalJSON(data []byte) error {
	*d = Descriptor{values: make(map[string]any)}
	return decodeObject(data, func(key string, raw json.RawMessage) error {
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return err
		}
		d.Set(key, v)
		return nil
	})
}

// MaterialInfo maps material names to descriptors in declaration order.
type MaterialInfo struct {
	names  []string
	byName map[string]*Descriptor
}

// NewMaterialInfo creates an empty mapping.
func NewMaterialInfo() *MaterialInfo {
	return &MaterialInfo{byName: make(map[string]*Descriptor)}
}

// Len returns the number of materials.
func (m *MaterialInfo) Len() int {
	if m == nil {
		return 0
	}
	return len(m.names)
}

// Names returns the material names in declaration order.
func (m *MaterialInfo) Names() []string {
	if m == nil {
		return nil
	}
	return append([]string(nil), m.names...)
}

// Get returns the descriptor with exactly this name.
func (m *MaterialInfo) Get(name string) (*Descriptor, bool) {
	if m == nil {
		return nil, false
	}
	d, ok := m.byName[name]
	return d, ok
}

// Lookup finds a material ignoring case. An exact match is preferred, then
// the first case-insensitive match in declaration order.
func (m *MaterialInfo) Lookup(name string) (string, *Descriptor, bool) {
	if d, ok := m.Get(name); ok {
		return name, d, true
	}
	if m == nil {
		return "", nil, false
	}
	for _, n := range m.names {
		if strings.EqualFold(n, name) {
			return n, m.byName[n], true
		}
	}
	return "", nil, false
}

// Set stores a descriptor. New names are appended.
func (m *MaterialInfo) Set(name string, d *Descriptor) {
	if m.byName == nil {
		m.byName = make(map[string]*Descriptor)
	}
	if _, ok := m.byName[name]; !ok {
		m.names = append(m.names, name)
	}
	m.byName[name] = d
}

// Delete removes a material.
func (m *MaterialInfo) Delete(name string) {
	if _, ok := m.byName[name]; !ok {
		return
	}
	delete(m.byName, name)
	for i, n := range m.names {
		if n == name {
			m.names = append(m.names[:i], m.names[i+1:]...)
			break
		}
	}
}

// Update copies every entry of other into m, overwriting existing names.
func (m *MaterialInfo) Update(other *MaterialInfo) {
	if other == nil {
		return
	}
	for _, n := range other.names {
		m.Set(n, other.byName[n])
	}
}

// Clone returns a deep copy.
func (m *MaterialInfo) Clone() *MaterialInfo {
	c := NewMaterialInfo()
	if m == nil {
		return c
	}
	for _, n := range m.names {
		c.Set(n, m.byName[n].Clone())
	}
	return c
}

// Equal reports whether both mappings hold the same names in the same order
// with structurally equal descriptors.
func (m *MaterialInfo) Equal(other *MaterialInfo) bool {
	if m.Len() != other.Len() {
		return false
	}
	for i, n := range m.names {
		if other.names[i] != n || !m.byName[n].Equal(other.byName[n]) {
			return false
		}
	}
	return true
}

// Validate checks that every material declares a Type.
func (m *MaterialInfo) Validate() error {
	for _, n := range m.names {
		if m.byName[n].Class() == "" {
			return fmt.Errorf("%w: %s", ErrMissingMaterialType, n)
		}
	}
	return nil
}

// MarshalJSON writes materials in declaration order.
func (m *MaterialInfo) MarshalJSON() ([]byte, error) {
	w := newObjectWriter()
	for _, n := range m.names {
		w.field(n, m.byName[n])
	}
	return w.bytes()
}

// UnmarshalJSON reads materials keeping declaration order.
func (m *MaterialInfo) UnmarshalJSON(data []byte) error {
	*m = MaterialInfo{byName: make(map[string]*Descriptor)}
	return decodeObject(data, func(key string, raw json.RawMessage) error {
		d := NewDescriptor()
		if err := d.UnmarshalJSON(raw); err != nil {
			return fmt.Errorf("material %q: %w", key, err)
		}
		m.Set(key, d)
		return nil
	})
}

// ParseMaterialInfo parses a material description file from bytes.
func ParseMaterialInfo(data []byte) (*MaterialInfo, error) {
	m := NewMaterialInfo()
	if err := m.UnmarshalJSON(data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMaterialInfo, err)
	}
	return m, nil
}

// ParseMaterialInfoFile parses a material description file from disk.
func ParseMaterialInfoFile(path string) (*MaterialInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading material info: %w", err)
	}
	return ParseMaterialInfo(data)
}
