package partition

import (
	"fmt"

	"github.com/Faultbox/gravity-convert/internal/scene"
)

// Section is a contiguous block of material slots [Lo, Hi).
type Section struct {
	Lo, Hi int

	// Keep marks the final block, which stays on the source mesh.
	Keep bool
}

// Plan splits materialCount slots into sections of at most max materials.
// With more than max materials it uses ceil(M/ceil(M/max)) slots per
// section so the sections come out near-equal. Blocks whose slots have no
// faces are dropped. facesPerMaterial may be nil, in which case every block
// counts as non-empty.
func Plan(materialCount int, facesPerMaterial []int, max int) []Section {
	if max < 1 {
		max = DefaultMaxMaterials
	}
	if materialCount <= max {
		return []Section{{Lo: 0, Hi: materialCount, Keep: true}}
	}

	numSections := ceilDiv(materialCount, max)
	perSection := ceilDiv(materialCount, numSections)

	var plan []Section
	for lo := 0; lo < materialCount; lo += perSection {
		hi := lo + perSection
		if hi > materialCount {
			hi = materialCount
		}
		if !hasFaces(facesPerMaterial, lo, hi) {
			continue
		}
		plan = append(plan, Section{Lo: lo, Hi: hi, Keep: hi == materialCount})
	}
	return plan
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}

func hasFaces(faces []int, lo, hi int) bool {
	if faces == nil {
		return true
	}
	for i := lo; i < hi && i < len(faces); i++ {
		if faces[i] > 0 {
			return true
		}
	}
	return false
}

// Apply carries out a plan on mesh. Every section except the kept one is
// separated into a new mesh named <mesh>_<k>. The returned IDs list the
// source mesh first, followed by the separated sections in slot order. When
// the plan has no kept section the source mesh is left empty and deleted.
func Apply(svc scene.Service, mesh scene.ID, plan []Section) ([]scene.ID, error) {
	src, ok := scene.Find(svc.Objects(), mesh)
	if !ok {
		return nil, fmt.Errorf("%w: %d", scene.ErrNotFound, mesh)
	}

	var split []Section
	keep := false
	for _, s := range plan {
		if s.Keep {
			keep = true
			continue
		}
		split = append(split, s)
	}

	// Separate from the back so earlier slot indices stay valid.
	separated := make([]scene.ID, len(split))
	for i := len(split) - 1; i >= 0; i-- {
		s := split[i]
		id, err := svc.SeparateByMaterialRange(mesh, s.Lo, s.Hi, fmt.Sprintf("%s_%d", src.Name, i+1))
		if err != nil {
			return nil, fmt.Errorf("separating slots [%d, %d) of %q: %w", s.Lo, s.Hi, src.Name, err)
		}
		separated[i] = id
	}

	if !keep {
		if err := svc.Delete(mesh); err != nil {
			return nil, err
		}
		return separated, nil
	}
	return append([]scene.ID{mesh}, separated...), nil
}

// Partition plans and applies sections for a merged mesh.
func Partition(svc scene.Service, mesh scene.ID, max int) ([]scene.ID, error) {
	obj, ok := scene.Find(svc.Objects(), mesh)
	if !ok {
		return nil, fmt.Errorf("%w: %d", scene.ErrNotFound, mesh)
	}

	faces := obj.FacesPerMaterial()
	return Apply(svc, mesh, Plan(len(faces), faces, max))
}
