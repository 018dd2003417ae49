package locator

import (
	"fmt"

	"github.com/Faultbox/gravity-convert/internal/grammar"
	"github.com/Faultbox/gravity-convert/internal/scene"
)

// Armature is the armature that describes the model structure.
type Armature struct {
	Root  scene.Object
	Found bool

	// Extra lists the other armatures of the scene. They are ignored.
	Extra []scene.Object
}

// ResolveArmature picks the root armature: the first armature whose name
// contains "root", else the first armature. The returned warnings describe
// scenes that do not have exactly one root armature.
func ResolveArmature(objects []scene.Object) (Armature, []string) {
	var roots, others []scene.Object
	for _, o := range scene.OfKind(objects, scene.KindArmature) {
		if grammar.IsRootArmature(o.Name) {
			roots = append(roots, o)
		} else {
			others = append(others, o)
		}
	}

	if len(roots) == 0 && len(others) > 0 {
		roots = append(roots, others[0])
		others = others[1:]
	}

	var warnings []string
	if len(roots) != 1 {
		warnings = append(warnings, fmt.Sprintf("expected a single root armature, found %d", len(roots)))
	}

	var a Armature
	if len(roots) > 0 {
		a.Root = roots[0]
		a.Found = true
		extra := append([]scene.Object(nil), roots[1:]...)
		others = append(extra, others...)
	}
	a.Extra = others

	for _, o := range a.Extra {
		warnings = append(warnings, fmt.Sprintf("ignoring additional armature %q", o.Name))
	}
	return a, warnings
}

// Bones returns the bones below the armature in enumeration order.
func (a Armature) Bones(objects []scene.Object) []scene.Object {
	if !a.Found {
		return nil
	}
	return scene.OfKind(scene.Descendants(objects, a.Root.ID), scene.KindBone)
}

// RootBones returns the bones without a parent bone.
func (a Armature) RootBones(objects []scene.Object) []scene.Object {
	var out []scene.Object
	for _, b := range a.Bones(objects) {
		if b.Parent == a.Root.ID {
			out = append(out, b)
			continue
		}
		if p, ok := scene.Find(objects, b.Parent); ok && p.Kind != scene.KindBone {
			out = append(out, b)
		}
	}
	return out
}
