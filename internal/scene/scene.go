// Package scene defines the scene graph service the conversion engine edits
// through, and Graph, an in-memory implementation backed by a file Codec.
package scene

import (
	"errors"

	"github.com/Faultbox/gravity-convert/pkg/math"
)

// Scene errors.
var (
	ErrNotFound       = errors.New("object not found")
	ErrNotMesh        = errors.New("object is not a mesh")
	ErrEmptySelection = errors.New("selection is empty")
	ErrCycle          = errors.New("parent link would create a cycle")
	ErrLocatorFaces   = errors.New("invalid locator mesh")
	ErrNoCodec        = errors.New("scene has no codec")
)

// ID identifies an object within one loaded scene. Zero means none.
type ID int

// Kind is the object type.
type Kind int

const (
	KindEmpty Kind = iota
	KindMesh
	KindArmature
	KindBone
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindMesh:
		return "mesh"
	case KindArmature:
		return "armature"
	case KindBone:
		return "bone"
	default:
		return "empty"
	}
}

// Primitive is one triangle list bound to a single material.
// An empty Material means the primitive has no material slot.
type Primitive struct {
	Material  string
	Positions [][3]float32
	Normals   [][3]float32
	TexCoords [][2]float32
	Indices   []uint32
}

// Faces returns the triangle count.
func (p Primitive) Faces() int {
	return len(p.Indices) / 3
}

// Object is a node of the scene. Objects returned by a Service are
// snapshots; mutating their slices does not change the scene.
type Object struct {
	ID     ID
	Name   string
	Kind   Kind
	Parent ID
	World  math.Mat4

	Primitives []Primitive
}

// Materials returns the material slots in first-use order.
func (o Object) Materials() []string {
	var slots []string
	seen := make(map[string]bool)
	for _, p := range o.Primitives {
		if p.Material == "" || seen[p.Material] {
			continue
		}
		seen[p.Material] = true
		slots = append(slots, p.Material)
	}
	return slots
}

// FacesPerMaterial returns the triangle count of every slot, aligned with
// Materials.
func (o Object) FacesPerMaterial() []int {
	slots := o.Materials()
	faces := make([]int, len(slots))
	for _, p := range o.Primitives {
		for i, s := range slots {
			if p.Material == s {
				faces[i] += p.Faces()
			}
		}
	}
	return faces
}

// Polygons returns the total triangle count.
func (o Object) Polygons() int {
	n := 0
	for _, p := range o.Primitives {
		n += p.Faces()
	}
	return n
}

// Vertices returns the total vertex count.
func (o Object) Vertices() int {
	n := 0
	for _, p := range o.Primitives {
		n += len(p.Positions)
	}
	return n
}

// Material is a scene material and the images it references.
type Material struct {
	Name   string
	Images []string
}

// Document is the codec-level content of one scene file. Object IDs are
// local to the document.
type Document struct {
	Objects   []Object
	Materials []Material
}

// Codec reads and writes scene files.
type Codec interface {
	Decode(path string) (*Document, error)
	Encode(doc *Document, path string) error
}

// Service is the scene graph handle the engine mutates. Enumeration order
// of Objects is the declaration order of the loaded file followed by
// created objects, and is stable for identical inputs.
type Service interface {
	// Import clears and purges the current scene, then loads path.
	Import(path string) error
	Objects() []Object
	Merge(ids []ID, name string) (ID, error)
	// SeparateByMaterialRange moves the faces of slots [lo, hi) into a new
	// mesh.
	SeparateByMaterialRange(id ID, lo, hi int, name string) (ID, error)
	Delete(id ID) error
	CreateEmpty(name string, world math.Mat4) (ID, error)
	CreateMesh(name string, world math.Mat4, prims []Primitive) (ID, error)
	SetParent(child, parent ID) error
	ReplaceMaterial(mesh ID, from, to string) error
	// StripImages removes image references from the named materials and
	// returns how many were removed.
	StripImages(materials []string) int
	// BuildLocatorFaces builds faces for a point-only locator mesh: stride 3
	// makes one triangle per vertex triple, stride 4 one quad per
	// position/offset pair.
	BuildLocatorFaces(id ID, stride int) error
	// MaterialVertices returns world positions used by faces of material.
	MaterialVertices(id ID, material string) [][3]float32
	Export(ids []ID, path string) error
	Purge()
}

// Children returns the direct children of id in enumeration order.
func Children(objects []Object, id ID) []Object {
	var out []Object
	for _, o := range objects {
		if o.Parent == id && id != 0 {
			out = append(out, o)
		}
	}
	return out
}

// Find returns the object with the given ID.
func Find(objects []Object, id ID) (Object, bool) {
	for _, o := range objects {
		if o.ID == id {
			return o, true
		}
	}
	return Object{}, false
}

// OfKind filters objects by kind, keeping order.
func OfKind(objects []Object, kind Kind) []Object {
	var out []Object
	for _, o := range objects {
		if o.Kind == kind {
			out = append(out, o)
		}
	}
	return out
}

// Descendants returns every object below id in enumeration order.
func Descendants(objects []Object, id ID) []Object {
	parent := make(map[ID]ID, len(objects))
	for _, o := range objects {
		parent[o.ID] = o.Parent
	}

	var out []Object
	for _, o := range objects {
		for p := o.Parent; p != 0; p = parent[p] {
			if p == id {
				out = append(out, o)
				break
			}
			if p == o.ID {
				break
			}
		}
	}
	return out
}
