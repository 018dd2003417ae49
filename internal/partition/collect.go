package partition

import (
	"github.com/Faultbox/gravity-convert/internal/grammar"
	"github.com/Faultbox/gravity-convert/internal/scene"
	"github.com/Faultbox/gravity-convert/pkg/math"
)

// PlaceholderName names the stand-in mesh created for models without
// geometry.
const PlaceholderName = "placeholder"

// Collect picks the meshes a model is built from. Detail meshes win; low
// meshes are used only when no detail mesh exists. Dummy meshes are replaced
// by a placeholder at the same transform. With placeholder set, a model
// without any usable mesh gets one placeholder at the origin so sockets have
// something to attach to.
func Collect(svc scene.Service, placeholder bool) ([]scene.Object, error) {
	var detail, low []scene.Object

	for _, o := range scene.OfKind(svc.Objects(), scene.KindMesh) {
		switch grammar.ClassifyGeometry(o.Name, o.Polygons()) {
		case grammar.GeometryDetail:
			detail = append(detail, o)
		case grammar.GeometryLow:
			low = append(low, o)
		case grammar.GeometryDummy:
			p, err := createPlaceholder(svc, o.World)
			if err != nil {
				return nil, err
			}
			low = append(low, p)
		}
	}

	if len(detail) > 0 {
		return detail, nil
	}
	if len(low) == 0 && placeholder {
		p, err := createPlaceholder(svc, math.Identity())
		if err != nil {
			return nil, err
		}
		low = append(low, p)
	}
	return low, nil
}

func createPlaceholder(svc scene.Service, world math.Mat4) (scene.Object, error) {
	prim := Octahedron(0.5)
	id, err := svc.CreateMesh(PlaceholderName, world, []scene.Primitive{prim})
	if err != nil {
		return scene.Object{}, err
	}
	return scene.Object{ID: id, Name: PlaceholderName, Kind: scene.KindMesh, World: world, Primitives: []scene.Primitive{prim}}, nil
}

// Octahedron returns a closed eight-face mesh without a material.
func Octahedron(radius float32) scene.Primitive {
	r := radius
	return scene.Primitive{
		Positions: [][3]float32{
			{r, 0, 0}, {-r, 0, 0},
			{0, r, 0}, {0, -r, 0},
			{0, 0, r}, {0, 0, -r},
		},
		Indices: []uint32{
			0, 2, 4, 2, 1, 4, 1, 3, 4, 3, 0, 4,
			2, 0, 5, 1, 2, 5, 3, 1, 5, 0, 3, 5,
		},
	}
}

// BuildLocatorFaces gives point-only grass and branch locator meshes faces
// so they survive export: grass locators become one quad per four vertices,
// branch locators one triangle per three. Other meshes are left alone.
func BuildLocatorFaces(svc scene.Service, meshes []scene.Object) error {
	for _, m := range meshes {
		stride := 0
		switch {
		case grammar.IsGrassLocator(m.Name):
			stride = 4
		case grammar.IsBranchLocator(m.Name):
			stride = 3
		default:
			continue
		}
		if err := svc.BuildLocatorFaces(m.ID, stride); err != nil {
			return err
		}
	}
	return nil
}
