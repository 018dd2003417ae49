// Package partition sorts meshes into render buckets and splits merged
// meshes into sections with a bounded number of materials.
package partition

import (
	"errors"
	"fmt"

	"github.com/Faultbox/gravity-convert/internal/scene"
	"github.com/Faultbox/gravity-convert/pkg/formats"
)

// DefaultMaxMaterials is the material ceiling of one nanite section.
const DefaultMaxMaterials = 64

// Partition errors.
var (
	ErrMultipleMaterials = errors.New("mesh has more than one material slot")
	ErrUnknownMaterial   = errors.New("mesh material has no description")
)

// Buckets are meshes grouped by render category, each in input order.
type Buckets struct {
	Opaque       []scene.Object
	Translucent  []scene.Object
	GrassLocator []scene.Object
}

// Classify routes every mesh by the class of its single material. Meshes
// without a material are opaque.
func Classify(meshes []scene.Object, materials *formats.MaterialInfo) (Buckets, error) {
	var b Buckets
	for _, m := range meshes {
		slots := m.Materials()
		if len(slots) > 1 {
			return Buckets{}, fmt.Errorf("%w: %q has %d", ErrMultipleMaterials, m.Name, len(slots))
		}

		class := formats.ClassOpaque
		if len(slots) == 1 {
			_, d, ok := materials.Lookup(slots[0])
			if !ok {
				return Buckets{}, fmt.Errorf("%w: %q on mesh %q", ErrUnknownMaterial, slots[0], m.Name)
			}
			class = d.Class()
		}

		switch {
		case IsTranslucent(class):
			b.Translucent = append(b.Translucent, m)
		case IsLocatorGeometry(class):
			b.GrassLocator = append(b.GrassLocator, m)
		default:
			b.Opaque = append(b.Opaque, m)
		}
	}
	return b, nil
}

// IsTranslucent reports classes rendered outside the opaque nanite path:
// translucent surfaces and water.
func IsTranslucent(class formats.MaterialClass) bool {
	switch class {
	case formats.ClassTranslucent, formats.ClassWater, formats.ClassWaterSurface:
		return true
	}
	return false
}

// IsLocatorGeometry reports grass blade and tree branch locator classes.
func IsLocatorGeometry(class formats.MaterialClass) bool {
	return class == formats.ClassGrass || class == formats.ClassBranch
}

// SupportsNanite reports whether a material class may be part of a nanite
// section.
func SupportsNanite(class formats.MaterialClass) bool {
	return !IsTranslucent(class) && !IsLocatorGeometry(class)
}

// IDs returns the object IDs in order.
func IDs(objects []scene.Object) []scene.ID {
	out := make([]scene.ID, len(objects))
	for i, o := range objects {
		out[i] = o.ID
	}
	return out
}
