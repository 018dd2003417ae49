// Manifest file format, one per converted model.
package formats

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Manifest errors.
var (
	ErrInvalidManifest    = errors.New("invalid manifest")
	ErrUnknownLocatorType = errors.New("unknown locator type")
)

// LocatorType is the manifest tag of a socket.
type LocatorType string

// Locator types.
const (
	LocatorModel  LocatorType = "MODEL"
	LocatorEffect LocatorType = "EFFECT"
	LocatorDecal  LocatorType = "DECAL"
	LocatorLight  LocatorType = "LIGHT"
)

// Manifest describes everything produced for one model.
type Manifest struct {
	Version             string
	Meshes              []string
	BrokenModels        []string
	BrokenDynamicModels []string
	DebrisModels        []string
	DebrisClusters      []DebrisCluster // Written as Debris1..DebrisN
	Locators            []Locator       // Written as Locator1..LocatorN
	Materials           *MaterialInfo   // Omitted when empty
}

// DebrisCluster is one named fragment set.
type DebrisCluster struct {
	Name   string   `json:"Name"`
	Meshes []string `json:"Meshes"`
}

// Locator is a socket entry. Only the fields of its Type are written.
type Locator struct {
	Name string
	Type LocatorType

	ModelName    string // MODEL
	EffectName   string // EFFECT
	MaterialName string // DECAL

	// LIGHT
	Directional bool
	Intensity   float64
	Color       [3]float64
	Falloff     float64
	Range       float64
}

// MarshalJSON writes the common fields followed by the type-specific ones.
func (l Locator) MarshalJSON() ([]byte, error) {
	w := newObjectWriter()
	w.field("Name", l.Name)
	w.field("Type", l.Type)

	switch l.Type {
	case LocatorModel:
		w.field("ModelName", l.ModelName)
	case LocatorEffect:
		w.field("EffectName", l.EffectName)
	case LocatorDecal:
		w.field("MaterialName", l.MaterialName)
	case LocatorLight:
		w.field("Directional", l.Directional)
		w.field("Intensity", l.Intensity)
		w.field("Color", l.Color)
		w.field("Falloff", l.Falloff)
		w.field("Range", l.Range)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownLocatorType, l.Type)
	}
	return w.bytes()
}

// UnmarshalJSON reads a socket entry.
func (l *Locator) UnmarshalJSON(data []byte) error {
	type plain Locator
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	switch p.Type {
	case LocatorModel, LocatorEffect, LocatorDecal, LocatorLight:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownLocatorType, p.Type)
	}
	*l = Locator(p)
	return nil
}

// MarshalJSON writes the manifest with a fixed member order.
func (m *Manifest) MarshalJSON() ([]byte, error) {
	w := newObjectWriter()
	w.field("Version", m.Version)
	w.field("Meshes", nonNil(m.Meshes))
	w.field("BrokenModels", nonNil(m.BrokenModels))
	w.field("BrokenDynamicModels", nonNil(m.BrokenDynamicModels))
	w.field("DebrisModels", nonNil(m.DebrisModels))

	clusters := newObjectWriter()
	for i, c := range m.DebrisClusters {
		c.Meshes = nonNil(c.Meshes)
		clusters.field(fmt.Sprintf("Debris%d", i+1), c)
	}
	data, err := clusters.bytes()
	if err != nil {
		return nil, err
	}
	w.field("DebrisClusters", json.RawMessage(data))

	locators := newObjectWriter()
	for i, l := range m.Locators {
		locators.field(fmt.Sprintf("Locator%d", i+1), l)
	}
	data, err = locators.bytes()
	if err != nil {
		return nil, err
	}
	w.field("Locators", json.RawMessage(data))

	if m.Materials.Len() > 0 {
		w.field("Materials", m.Materials)
	}
	return w.bytes()
}

// UnmarshalJSON reads a manifest. Debris and locator entries are ordered by
// their numeric suffix.
func (m *Manifest) UnmarshalJSON(data []byte) error {
	*m = Manifest{}
	return decodeObject(data, func(key string, raw json.RawMessage) error {
		switch key {
		case "Version":
			return json.Unmarshal(raw, &m.Version)
		case "Meshes":
			return json.Unmarshal(raw, &m.Meshes)
		case "BrokenModels":
			return json.Unmarshal(raw, &m.BrokenModels)
		case "BrokenDynamicModels":
			return json.Unmarshal(raw, &m.BrokenDynamicModels)
		case "DebrisModels":
			return json.Unmarshal(raw, &m.DebrisModels)
		case "DebrisClusters":
			return decodeIndexed(raw, "Debris", func(i int, item json.RawMessage) error {
				var c DebrisCluster
				if err := json.Unmarshal(item, &c); err != nil {
					return err
				}
				m.DebrisClusters = append(m.DebrisClusters, c)
				return nil
			})
		case "Locators":
			return decodeIndexed(raw, "Locator", func(i int, item json.RawMessage) error {
				var l Locator
				if err := json.Unmarshal(item, &l); err != nil {
					return err
				}
				m.Locators = append(m.Locators, l)
				return nil
			})
		case "Materials":
			m.Materials = NewMaterialInfo()
			return m.Materials.UnmarshalJSON(raw)
		}
		return nil
	})
}

// decodeIndexed reads an object keyed prefix1..prefixN and requires the keys
// to appear in sequence.
func decodeIndexed(data []byte, prefix string, fn func(i int, raw json.RawMessage) error) error {
	next := 1
	return decodeObject(data, func(key string, raw json.RawMessage) error {
		n, err := strconv.Atoi(strings.TrimPrefix(key, prefix))
		if !strings.HasPrefix(key, prefix) || err != nil || n != next {
			return fmt.Errorf("%w: unexpected key %q", ErrInvalidManifest, key)
		}
		next++
		return fn(n, raw)
	})
}

// ParseManifest parses a manifest from bytes.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidManifest, err)
	}
	return &m, nil
}

// ParseManifestFile parses a manifest from disk.
func ParseManifestFile(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	return ParseManifest(data)
}

// Encode returns the manifest as indented JSON.
func (m *Manifest) Encode() ([]byte, error) {
	return json.MarshalIndent(m, "", "    ")
}

// WriteFile writes the manifest, creating the parent directory.
func (m *Manifest) WriteFile(path string) error {
	data, err := m.Encode()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
