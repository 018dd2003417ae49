package scene

import (
	"fmt"
	"strings"

	"github.com/Faultbox/gravity-convert/pkg/math"
)

// Graph is an in-memory Service. It is not safe for concurrent use; each
// conversion worker owns its own Graph.
type Graph struct {
	codec     Codec
	order     []ID
	objects   map[ID]*Object
	materials []*Material
	nextID    ID
}

// NewGraph creates an empty scene that loads and saves through codec.
func NewGraph(codec Codec) *Graph {
	return &Graph{
		codec:   codec,
		objects: make(map[ID]*Object),
		nextID:  1,
	}
}

// Import replaces the scene with the content of path.
func (g *Graph) Import(path string) error {
	g.clear()

	if g.codec == nil {
		return ErrNoCodec
	}
	doc, err := g.codec.Decode(path)
	if err != nil {
		return fmt.Errorf("importing %s: %w", path, err)
	}
	return g.Load(doc)
}

// Load adds the content of a document to the scene, remapping its IDs.
func (g *Graph) Load(doc *Document) error {
	remap := make(map[ID]ID, len(doc.Objects))
	for _, o := range doc.Objects {
		if o.ID == 0 {
			return fmt.Errorf("%w: object %q has no ID", ErrNotFound, o.Name)
		}
		remap[o.ID] = g.allocID()
	}

	for _, o := range doc.Objects {
		obj := cloneObject(o)
		obj.ID = remap[o.ID]
		if o.Parent != 0 {
			parent, ok := remap[o.Parent]
			if !ok {
				return fmt.Errorf("%w: parent %d of %q", ErrNotFound, o.Parent, o.Name)
			}
			obj.Parent = parent
		}
		g.insert(&obj)
	}

	for _, m := range doc.Materials {
		g.addMaterial(m.Name, m.Images)
	}
	return nil
}

// Add inserts an object of any kind and returns its new ID.
func (g *Graph) Add(obj Object) (ID, error) {
	if obj.Parent != 0 {
		if _, ok := g.objects[obj.Parent]; !ok {
			return 0, fmt.Errorf("%w: parent %d", ErrNotFound, obj.Parent)
		}
	}
	o := cloneObject(obj)
	o.ID = g.allocID()
	g.insert(&o)
	for _, name := range o.Materials() {
		g.addMaterial(name, nil)
	}
	return o.ID, nil
}

// Objects returns snapshots of all objects in enumeration order.
func (g *Graph) Objects() []Object {
	out := make([]Object, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, cloneObject(*g.objects[id]))
	}
	return out
}

// Lookup returns a snapshot of one object.
func (g *Graph) Lookup(id ID) (Object, bool) {
	o, ok := g.objects[id]
	if !ok {
		return Object{}, false
	}
	return cloneObject(*o), true
}

// Materials returns snapshots of the scene materials.
func (g *Graph) Materials() []Material {
	out := make([]Material, 0, len(g.materials))
	for _, m := range g.materials {
		out = append(out, Material{Name: m.Name, Images: append([]string(nil), m.Images...)})
	}
	return out
}

// Merge joins meshes into one new mesh at the identity transform. Source
// transforms are baked into the vertices, slots with the same material are
// concatenated and the sources are deleted.
func (g *Graph) Merge(ids []ID, name string) (ID, error) {
	if len(ids) == 0 {
		return 0, ErrEmptySelection
	}

	merged := &Object{Name: name, Kind: KindMesh, World: math.Identity()}
	for _, id := range ids {
		src, err := g.mesh(id)
		if err != nil {
			return 0, err
		}
		for _, p := range src.Primitives {
			merged.Primitives = appendPrimitive(merged.Primitives, bakePrimitive(p, src.World))
		}
	}

	merged.ID = g.allocID()
	g.insert(merged)

	for _, id := range ids {
		for _, child := range g.children(id) {
			child.Parent = merged.ID
		}
		g.remove(id)
	}
	return merged.ID, nil
}

// SeparateByMaterialRange moves the primitives of slots [lo, hi) into a new
// mesh that keeps the source transform and parent.
func (g *Graph) SeparateByMaterialRange(id ID, lo, hi int, name string) (ID, error) {
	src, err := g.mesh(id)
	if err != nil {
		return 0, err
	}

	slots := src.Materials()
	moved := make(map[string]bool)
	for i := lo; i < hi && i < len(slots); i++ {
		if i >= 0 {
			moved[slots[i]] = true
		}
	}

	var keep, take []Primitive
	for _, p := range src.Primitives {
		if moved[p.Material] && p.Faces() > 0 {
			take = append(take, p)
		} else {
			keep = append(keep, p)
		}
	}
	if len(take) == 0 {
		return 0, fmt.Errorf("%w: no faces in slots [%d, %d) of %q", ErrEmptySelection, lo, hi, src.Name)
	}

	src.Primitives = keep
	sep := &Object{
		ID:         g.allocID(),
		Name:       name,
		Kind:       KindMesh,
		Parent:     src.Parent,
		World:      src.World,
		Primitives: take,
	}
	g.insert(sep)
	return sep.ID, nil
}

// Delete removes an object. Its children move to its parent.
func (g *Graph) Delete(id ID) error {
	obj, ok := g.objects[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	for _, child := range g.children(id) {
		child.Parent = obj.Parent
	}
	g.remove(id)
	return nil
}

// CreateEmpty adds an empty object.
func (g *Graph) CreateEmpty(name string, world math.Mat4) (ID, error) {
	return g.Add(Object{Name: name, Kind: KindEmpty, World: world})
}

// CreateMesh adds a mesh object.
func (g *Graph) CreateMesh(name string, world math.Mat4, prims []Primitive) (ID, error) {
	return g.Add(Object{Name: name, Kind: KindMesh, World: world, Primitives: prims})
}

// SetParent links child under parent. World transforms are unchanged.
// A zero parent unlinks the child.
func (g *Graph) SetParent(child, parent ID) error {
	c, ok := g.objects[child]
	if !ok {
		return fmt.Errorf("%w: %d", ErrNotFound, child)
	}
	if parent != 0 {
		if _, ok := g.objects[parent]; !ok {
			return fmt.Errorf("%w: %d", ErrNotFound, parent)
		}
		for p := parent; p != 0; p = g.objects[p].Parent {
			if p == child {
				return ErrCycle
			}
		}
	}
	c.Parent = parent
	return nil
}

// ReplaceMaterial rebinds every primitive using from (case-insensitive) to
// to, merging primitives that end up sharing a material.
func (g *Graph) ReplaceMaterial(mesh ID, from, to string) error {
	obj, err := g.mesh(mesh)
	if err != nil {
		return err
	}

	var prims []Primitive
	for _, p := range obj.Primitives {
		if strings.EqualFold(p.Material, from) {
			p.Material = to
		}
		prims = appendPrimitive(prims, p)
	}
	obj.Primitives = prims
	g.addMaterial(to, nil)
	return nil
}

// StripImages clears image references of the named materials.
func (g *Graph) StripImages(materials []string) int {
	removed := 0
	for _, m := range g.materials {
		for _, name := range materials {
			if strings.EqualFold(m.Name, name) {
				removed += len(m.Images)
				m.Images = nil
				break
			}
		}
	}
	return removed
}

// BuildLocatorFaces turns a point-only locator mesh into faces.
func (g *Graph) BuildLocatorFaces(id ID, stride int) error {
	obj, err := g.mesh(id)
	if err != nil {
		return err
	}
	if obj.Polygons() > 0 {
		return fmt.Errorf("%w: %q already has faces", ErrLocatorFaces, obj.Name)
	}

	for i, p := range obj.Primitives {
		if len(p.Positions)%stride != 0 {
			return fmt.Errorf("%w: %q has %d vertices, expected a multiple of %d",
				ErrLocatorFaces, obj.Name, len(p.Positions), stride)
		}
		switch stride {
		case 3:
			obj.Primitives[i] = branchFaces(p)
		case 4:
			obj.Primitives[i] = grassFaces(p)
		default:
			return fmt.Errorf("%w: unsupported stride %d", ErrLocatorFaces, stride)
		}
	}
	return nil
}

// MaterialVertices returns the world positions of vertices referenced by
// faces of material. Primitives without faces contribute all positions.
func (g *Graph) MaterialVertices(id ID, material string) [][3]float32 {
	obj, ok := g.objects[id]
	if !ok {
		return nil
	}

	var out [][3]float32
	for _, p := range obj.Primitives {
		if !strings.EqualFold(p.Material, material) {
			continue
		}
		if len(p.Indices) == 0 {
			for _, v := range p.Positions {
				out = append(out, obj.World.TransformPoint(v))
			}
			continue
		}
		seen := make(map[uint32]bool)
		for _, idx := range p.Indices {
			if seen[idx] || int(idx) >= len(p.Positions) {
				continue
			}
			seen[idx] = true
			out = append(out, obj.World.TransformPoint(p.Positions[idx]))
		}
	}
	return out
}

// Export writes the selected objects. Parent links to unselected objects
// are dropped.
func (g *Graph) Export(ids []ID, path string) error {
	if g.codec == nil {
		return ErrNoCodec
	}

	selected := make(map[ID]bool, len(ids))
	for _, id := range ids {
		if _, ok := g.objects[id]; !ok {
			return fmt.Errorf("%w: %d", ErrNotFound, id)
		}
		selected[id] = true
	}

	doc := &Document{}
	used := make(map[string]bool)
	for _, id := range g.order {
		if !selected[id] {
			continue
		}
		o := cloneObject(*g.objects[id])
		if !selected[o.Parent] {
			o.Parent = 0
		}
		for _, m := range o.Materials() {
			used[m] = true
		}
		doc.Objects = append(doc.Objects, o)
	}
	for _, m := range g.materials {
		if used[m.Name] {
			doc.Materials = append(doc.Materials, Material{Name: m.Name, Images: append([]string(nil), m.Images...)})
		}
	}

	if err := g.codec.Encode(doc, path); err != nil {
		return fmt.Errorf("exporting %s: %w", path, err)
	}
	return nil
}

// Purge drops materials no mesh references.
func (g *Graph) Purge() {
	used := make(map[string]bool)
	for _, id := range g.order {
		for _, m := range g.objects[id].Materials() {
			used[m] = true
		}
	}

	kept := g.materials[:0]
	for _, m := range g.materials {
		if used[m.Name] {
			kept = append(kept, m)
		}
	}
	g.materials = kept
}

func (g *Graph) clear() {
	g.order = nil
	g.objects = make(map[ID]*Object)
	g.materials = nil
	g.nextID = 1
}

func (g *Graph) allocID() ID {
	id := g.nextID
	g.nextID++
	return id
}

func (g *Graph) insert(o *Object) {
	g.objects[o.ID] = o
	g.order = append(g.order, o.ID)
}

func (g *Graph) remove(id ID) {
	delete(g.objects, id)
	for i, oid := range g.order {
		if oid == id {
			g.order = append(g.order[:i], g.order[i+1:]...)
			break
		}
	}
}

func (g *Graph) children(id ID) []*Object {
	var out []*Object
	for _, oid := range g.order {
		if o := g.objects[oid]; o.Parent == id {
			out = append(out, o)
		}
	}
	return out
}

func (g *Graph) mesh(id ID) (*Object, error) {
	obj, ok := g.objects[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	if obj.Kind != KindMesh {
		return nil, fmt.Errorf("%w: %q", ErrNotMesh, obj.Name)
	}
	return obj, nil
}

func (g *Graph) addMaterial(name string, images []string) {
	if name == "" {
		return
	}
	for _, m := range g.materials {
		if m.Name == name {
			if len(images) > 0 {
				m.Images = append([]string(nil), images...)
			}
			return
		}
	}
	g.materials = append(g.materials, &Material{Name: name, Images: append([]string(nil), images...)})
}

func cloneObject(o Object) Object {
	c := o
	c.Primitives = make([]Primitive, len(o.Primitives))
	for i, p := range o.Primitives {
		c.Primitives[i] = Primitive{
			Material:  p.Material,
			Positions: append([][3]float32(nil), p.Positions...),
			Normals:   append([][3]float32(nil), p.Normals...),
			TexCoords: append([][2]float32(nil), p.TexCoords...),
			Indices:   append([]uint32(nil), p.Indices...),
		}
	}
	return c
}
