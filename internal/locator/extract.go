package locator

import (
	"fmt"
	"hash/crc32"
	"strings"

	"github.com/Faultbox/gravity-convert/internal/grammar"
	"github.com/Faultbox/gravity-convert/internal/scene"
	"github.com/Faultbox/gravity-convert/pkg/formats"
	"github.com/Faultbox/gravity-convert/pkg/math"
)

// Result is the outcome of Extract.
type Result struct {
	// Locators in extraction order: empties first, then model bones, then
	// effect bones.
	Locators []Locator

	// Materials holds one entry per resolved decal, named
	// "<material> <crc32>". They belong in the model's material mapping.
	Materials *formats.MaterialInfo

	Warnings []string
}

// Extract builds the locators of a scene. Bone locators are read from
// armature; without one, ext_/bg_ empties stand in for model locators.
// materials is the model's full material description, used to resolve decal
// materials. A point light with a non-uniform range, an ambiguous name or a
// malformed locator bone fails the extraction.
func Extract(objects []scene.Object, armature Armature, materials *formats.MaterialInfo) (Result, error) {
	res := Result{Materials: formats.NewMaterialInfo()}

	locs, err := objectLocators(objects)
	if err != nil {
		return Result{}, err
	}

	if armature.Found {
		for _, kind := range []Kind{KindModel, KindEffect} {
			bones, err := boneLocators(objects, armature, kind)
			if err != nil {
				return Result{}, err
			}
			locs = append(locs, bones...)
		}
	} else {
		fallback := fallbackLocators(objects)
		if len(fallback) > 0 {
			res.Warnings = append(res.Warnings, fmt.Sprintf("no armature, using %d ext_/bg_ empties as model locators", len(fallback)))
		}
		locs = append(locs, fallback...)
	}

	for _, l := range locs {
		remap := math.AxisFlip()
		if l.Kind == KindDecal {
			name, d, warning := resolveDecal(l.Name, materials)
			if warning != "" {
				res.Warnings = append(res.Warnings, warning)
				continue
			}
			params, _ := d.Parameters()
			remap = math.DecalRemap(float32(params[0]), float32(params[1]), float32(params[2]))
			l.MaterialName = name
			res.Materials.Set(name, d.Clone())
		}
		l.World = l.World.Mul(remap)
		res.Locators = append(res.Locators, l)
	}
	return res, nil
}

func objectLocators(objects []scene.Object) ([]Locator, error) {
	var out []Locator
	for _, o := range scene.OfKind(objects, scene.KindEmpty) {
		m, ok, err := grammar.ClassifyLocator(o.Name)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}

		switch m.Kind {
		case grammar.LocatorDecal:
			out = append(out, Locator{Name: o.Name, Kind: KindDecal, Source: o.ID, World: o.World})
		case grammar.LocatorDirectionalLight:
			out = append(out, Locator{Name: o.Name, Kind: KindLight, Source: o.ID, World: o.World, Directional: true})
		case grammar.LocatorPointLight:
			out = append(out, Locator{Name: m.Name, Kind: KindLight, Source: o.ID, World: o.World, Light: m.Light})
		}
	}
	return out, nil
}

// boneLocators collects ext_ bones anywhere under the armature plus the
// <name>_<n> children of root bones named like "locator".
func boneLocators(objects []scene.Object, a Armature, kind Kind) ([]Locator, error) {
	gk := grammar.LocatorModel
	if kind == KindEffect {
		gk = grammar.LocatorEffect
	}

	seen := make(map[scene.ID]bool)
	var picked []scene.Object
	pick := func(b scene.Object) {
		if !seen[b.ID] {
			seen[b.ID] = true
			picked = append(picked, b)
		}
	}

	for _, b := range a.Bones(objects) {
		if (kind == KindEffect && grammar.IsEffectBone(b.Name)) || (kind == KindModel && grammar.IsModelBone(b.Name)) {
			pick(b)
		}
	}
	for _, root := range a.RootBones(objects) {
		if !grammar.IsLocatorRoot(root.Name) {
			continue
		}
		for _, c := range scene.Children(objects, root.ID) {
			if c.Kind != scene.KindBone {
				continue
			}
			if k, ok := grammar.ClassifyLocatorChild(c.Name); ok && k == gk {
				pick(c)
			}
		}
	}

	out := make([]Locator, 0, len(picked))
	for _, b := range picked {
		m, ok := grammar.ParseLocatorBone(b.Name, gk)
		if !ok {
			return nil, fmt.Errorf("%w: %q is not a %s locator", ErrInvalidLocatorBone, b.Name, gk)
		}
		l := Locator{Name: m.Name, Kind: kind, Source: b.ID, World: b.World}
		if kind == KindEffect {
			l.EffectName = m.Target
		} else {
			l.ModelName = m.Target
		}
		out = append(out, l)
	}
	return out, nil
}

// fallbackLocators turns ext_/bg_ empties into model locators for scenes
// without an armature.
func fallbackLocators(objects []scene.Object) []Locator {
	var out []Locator
	for _, o := range scene.OfKind(objects, scene.KindEmpty) {
		name, ok := grammar.ParseFallbackLocator(o.Name)
		if !ok {
			continue
		}
		out = append(out, Locator{
			Name:      fmt.Sprintf("ext_%s_%d", name, len(out)),
			Kind:      KindModel,
			Source:    o.ID,
			World:     o.World,
			ModelName: name,
		})
	}
	return out
}

// resolveDecal finds the material a decal projects: the longest material
// name contained in the locator name. The returned name carries the crc32
// of the descriptor so equal base names from different models stay apart.
// A non-empty warning means the decal must be dropped.
func resolveDecal(locator string, materials *formats.MaterialInfo) (string, *formats.Descriptor, string) {
	lower := strings.ToLower(locator)

	var best string
	ambiguous := false
	for _, n := range materials.Names() {
		if n == "" || !strings.Contains(lower, strings.ToLower(n)) {
			continue
		}
		switch {
		case len(n) > len(best):
			best, ambiguous = n, false
		case len(n) == len(best) && !strings.EqualFold(n, best):
			ambiguous = true
		}
	}

	switch {
	case best == "":
		return "", nil, fmt.Sprintf("decal %q matches no material, dropped", locator)
	case ambiguous:
		return "", nil, fmt.Sprintf("decal %q matches more than one material named like %q, dropped", locator, best)
	}

	d, _ := materials.Get(best)
	if params, ok := d.Parameters(); !ok || len(params) < 3 {
		return "", nil, fmt.Sprintf("decal material %q has no depth/height/width parameters, decal %q dropped", best, locator)
	}

	data, err := d.MarshalJSON()
	if err != nil {
		return "", nil, fmt.Sprintf("decal material %q: %v", best, err)
	}
	return fmt.Sprintf("%s %x", best, crc32.ChecksumIEEE(data)), d, ""
}
