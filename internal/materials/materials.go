// Package materials reduces a model's material descriptions to the ones its
// meshes use and folds structurally identical descriptions together.
package materials

import (
	gomath "math"
	"strings"

	"github.com/Faultbox/gravity-convert/internal/scene"
	"github.com/Faultbox/gravity-convert/pkg/formats"
	"github.com/Faultbox/gravity-convert/pkg/math"
)

// Result is a deduplicated material mapping.
type Result struct {
	// Materials holds the referenced, unique descriptions in declaration
	// order. Descriptors are copies of the input.
	Materials *formats.MaterialInfo

	// Aliases maps every removed material to the one that replaces it.
	Aliases map[string]string

	// aliases in declaration order
	order []string
}

// Canonical resolves a slot name to the material that survives. Exact
// names win; otherwise the first alias declared with the same name in
// another case.
func (r Result) Canonical(slot string) (string, bool) {
	if canonical, ok := r.Aliases[slot]; ok {
		return canonical, true
	}
	if _, ok := r.Materials.Get(slot); ok {
		return slot, true
	}
	for _, alias := range r.order {
		if strings.EqualFold(alias, slot) {
			return r.Aliases[alias], true
		}
	}
	if name, _, ok := r.Materials.Lookup(slot); ok {
		return name, true
	}
	return "", false
}

// Deduplicate filters info to the materials named by slots and removes
// duplicates. For every material the last later-declared structurally equal
// description becomes canonical, so with A == B == C only C survives.
func Deduplicate(info *formats.MaterialInfo, slots []string) Result {
	used := make(map[string]bool, len(slots))
	for _, s := range slots {
		used[strings.ToLower(s)] = true
	}

	var names []string
	var descs []*formats.Descriptor
	for _, n := range info.Names() {
		if !used[strings.ToLower(n)] {
			continue
		}
		d, _ := info.Get(n)
		names = append(names, n)
		descs = append(descs, d)
	}

	res := Result{Materials: formats.NewMaterialInfo(), Aliases: make(map[string]string)}
	for i := 0; i < len(names)-1; i++ {
		for k := len(names) - 1; k > i; k-- {
			if descs[i].Equal(descs[k]) {
				res.Aliases[names[i]] = names[k]
				res.order = append(res.order, names[i])
				break
			}
		}
	}

	for i, n := range names {
		if _, alias := res.Aliases[n]; alias {
			continue
		}
		res.Materials.Set(n, descs[i].Clone())
	}
	return res
}

// Slots returns the material slot names of meshes in first-use order.
func Slots(meshes []scene.Object) []string {
	var out []string
	seen := make(map[string]bool)
	for _, m := range meshes {
		for _, s := range m.Materials() {
			if !seen[s] {
				seen[s] = true
				out = append(out, s)
			}
		}
	}
	return out
}

// Apply rebinds alias slots of meshes to the slot of their canonical
// material and strips images from every material still in use. It returns
// the number of image references removed. Running it twice is a no-op.
func Apply(svc scene.Service, meshes []scene.Object, res Result) (int, error) {
	// Scene slot names may differ in case from the description names; reuse
	// the first slot that already names the canonical material.
	sceneSlot := make(map[string]string)
	for _, s := range Slots(meshes) {
		key := strings.ToLower(s)
		if _, ok := sceneSlot[key]; !ok {
			sceneSlot[key] = s
		}
	}

	for _, m := range meshes {
		for _, s := range m.Materials() {
			canonical, ok := res.Canonical(s)
			if !ok || strings.EqualFold(canonical, s) {
				continue
			}
			target, ok := sceneSlot[strings.ToLower(canonical)]
			if !ok {
				target = canonical
			}
			if err := svc.ReplaceMaterial(m.ID, s, target); err != nil {
				return 0, err
			}
		}
	}

	var retained []string
	for _, n := range res.Materials.Names() {
		if s, ok := sceneSlot[strings.ToLower(n)]; ok {
			retained = append(retained, s)
		} else {
			retained = append(retained, n)
		}
	}
	return svc.StripImages(retained), nil
}

// AdjustParameters appends the bounding sphere of every bounded-sphere
// material on mesh to its Parameters. Coordinates are remapped to (x, z, y)
// and rounded to three decimals. Materials without vertices are left alone.
func AdjustParameters(svc scene.Service, mesh scene.ID, info *formats.MaterialInfo) {
	obj, ok := scene.Find(svc.Objects(), mesh)
	if !ok {
		return
	}

	for _, slot := range obj.Materials() {
		_, d, ok := info.Lookup(slot)
		if !ok || d.Class() != formats.ClassBoundedSphere {
			continue
		}

		verts := svc.MaterialVertices(mesh, slot)
		points := make([]math.Vec3, len(verts))
		for i, v := range verts {
			points[i] = math.Vec3{X: v[0], Y: v[2], Z: v[1]}
		}

		center, radius, ok := math.BoundingSphere(points)
		if !ok {
			continue
		}
		d.AppendParameters(round3(center.X), round3(center.Y), round3(center.Z), round3(radius))
	}
}

func round3(v float32) float64 {
	return gomath.Round(float64(v)*1000) / 1000
}
