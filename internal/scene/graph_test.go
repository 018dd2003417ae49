package scene

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/gravity-convert/pkg/math"
)

func tri(material string) Primitive {
	return Primitive{
		Material:  material,
		Positions: [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
		Indices:   []uint32{0, 1, 2},
	}
}

func names(objects []Object) []string {
	out := make([]string, len(objects))
	for i, o := range objects {
		out[i] = o.Name
	}
	return out
}

func TestObjectMaterialSlots(t *testing.T) {
	o := Object{Kind: KindMesh, Primitives: []Primitive{tri("a"), tri("b"), tri("a"), tri("")}}

	assert.Equal(t, []string{"a", "b"}, o.Materials())
	assert.Equal(t, []int{2, 1}, o.FacesPerMaterial())
	assert.Equal(t, 4, o.Polygons())
	assert.Equal(t, 12, o.Vertices())
}

func TestMergeBakesTransforms(t *testing.T) {
	g := NewGraph(nil)
	a, err := g.CreateMesh("a", math.Translate(10, 0, 0), []Primitive{tri("wood")})
	require.NoError(t, err)
	b, err := g.CreateMesh("b", math.Identity(), []Primitive{tri("wood"), tri("metal")})
	require.NoError(t, err)

	id, err := g.Merge([]ID{a, b}, "door_opaque")
	require.NoError(t, err)

	objects := g.Objects()
	require.Len(t, objects, 1)

	merged := objects[0]
	assert.Equal(t, id, merged.ID)
	assert.Equal(t, "door_opaque", merged.Name)
	assert.True(t, merged.World.IsIdentity())
	assert.Equal(t, []string{"wood", "metal"}, merged.Materials())
	assert.Equal(t, []int{2, 1}, merged.FacesPerMaterial())

	wood := merged.Primitives[0]
	assert.Equal(t, [3]float32{10, 0, 0}, wood.Positions[0])
	assert.Equal(t, []uint32{0, 1, 2, 3, 4, 5}, wood.Indices)
}

func TestMergeRejectsNonMesh(t *testing.T) {
	g := NewGraph(nil)
	e, err := g.CreateEmpty("socket", math.Identity())
	require.NoError(t, err)

	_, err = g.Merge([]ID{e}, "x")
	assert.ErrorIs(t, err, ErrNotMesh)

	_, err = g.Merge(nil, "x")
	assert.ErrorIs(t, err, ErrEmptySelection)
}

func TestSeparateByMaterialRange(t *testing.T) {
	g := NewGraph(nil)
	id, err := g.CreateMesh("m", math.Translate(1, 2, 3), []Primitive{tri("m0"), tri("m1"), tri("m2"), tri("m3")})
	require.NoError(t, err)

	sep, err := g.SeparateByMaterialRange(id, 0, 2, "m_1")
	require.NoError(t, err)

	src, _ := g.Lookup(id)
	out, _ := g.Lookup(sep)

	assert.Equal(t, []string{"m2", "m3"}, src.Materials())
	assert.Equal(t, []string{"m0", "m1"}, out.Materials())
	assert.Equal(t, src.World, out.World)
	assert.Equal(t, []string{"m", "m_1"}, names(g.Objects()))

	_, err = g.SeparateByMaterialRange(id, 5, 9, "m_2")
	assert.ErrorIs(t, err, ErrEmptySelection)
}

func TestDeleteReparentsChildren(t *testing.T) {
	g := NewGraph(nil)
	root, _ := g.CreateEmpty("root", math.Identity())
	mid, _ := g.CreateEmpty("mid", math.Identity())
	leaf, _ := g.CreateEmpty("leaf", math.Identity())
	require.NoError(t, g.SetParent(mid, root))
	require.NoError(t, g.SetParent(leaf, mid))

	require.NoError(t, g.Delete(mid))

	obj, ok := g.Lookup(leaf)
	require.True(t, ok)
	assert.Equal(t, root, obj.Parent)
	assert.ErrorIs(t, g.Delete(mid), ErrNotFound)
}

func TestSetParentCycle(t *testing.T) {
	g := NewGraph(nil)
	a, _ := g.CreateEmpty("a", math.Identity())
	b, _ := g.CreateEmpty("b", math.Identity())
	require.NoError(t, g.SetParent(b, a))

	assert.ErrorIs(t, g.SetParent(a, b), ErrCycle)
	assert.ErrorIs(t, g.SetParent(a, a), ErrCycle)
	assert.ErrorIs(t, g.SetParent(a, 99), ErrNotFound)
}

func TestReplaceMaterialJoinsSlots(t *testing.T) {
	g := NewGraph(nil)
	id, _ := g.CreateMesh("m", math.Identity(), []Primitive{tri("Oak"), tri("pine")})

	require.NoError(t, g.ReplaceMaterial(id, "oak", "pine"))

	obj, _ := g.Lookup(id)
	assert.Equal(t, []string{"pine"}, obj.Materials())
	assert.Equal(t, []int{2}, obj.FacesPerMaterial())
}

func TestStripImagesAndPurge(t *testing.T) {
	codec := NewMemoryCodec()
	codec.Put("door.gltf", &Document{
		Objects: []Object{
			{ID: 1, Name: "door_lod0", Kind: KindMesh, World: math.Identity(), Primitives: []Primitive{tri("wood")}},
		},
		Materials: []Material{
			{Name: "wood", Images: []string{"wood_d.png", "wood_n.png"}},
			{Name: "unused", Images: []string{"x.png"}},
		},
	})

	g := NewGraph(codec)
	require.NoError(t, g.Import("door.gltf"))

	assert.Equal(t, 2, g.StripImages([]string{"WOOD"}))
	assert.Equal(t, 0, g.StripImages([]string{"wood"}))

	g.Purge()
	mats := g.Materials()
	require.Len(t, mats, 1)
	assert.Equal(t, "wood", mats[0].Name)
	assert.Empty(t, mats[0].Images)
}

func TestBuildLocatorFacesBranch(t *testing.T) {
	g := NewGraph(nil)
	id, _ := g.CreateMesh("tree_branchlocator", math.Identity(), []Primitive{{
		Material:  "branch",
		Positions: make([][3]float32, 6),
	}})

	require.NoError(t, g.BuildLocatorFaces(id, 3))

	obj, _ := g.Lookup(id)
	assert.Equal(t, 2, obj.Polygons())
	assert.ErrorIs(t, g.BuildLocatorFaces(id, 3), ErrLocatorFaces)
}

func TestBuildLocatorFacesGrass(t *testing.T) {
	g := NewGraph(nil)
	id, _ := g.CreateMesh("field_grasslocator", math.Identity(), []Primitive{{
		Material:  "grass",
		Positions: [][3]float32{{0, 0, 0}, {0, 0, 1}, {1, 0, 0}, {0, 0, 1}},
	}})

	require.NoError(t, g.BuildLocatorFaces(id, 4))

	obj, _ := g.Lookup(id)
	p := obj.Primitives[0]
	assert.Equal(t, 2, p.Faces())
	assert.Equal(t, [3]float32{1, 0, 1}, p.Positions[3])
	assert.Equal(t, []uint32{0, 2, 3, 0, 3, 1}, p.Indices)
}

func TestBuildLocatorFacesBadVertexCount(t *testing.T) {
	g := NewGraph(nil)
	id, _ := g.CreateMesh("field_grasslocator", math.Identity(), []Primitive{{
		Material:  "grass",
		Positions: make([][3]float32, 5),
	}})

	assert.ErrorIs(t, g.BuildLocatorFaces(id, 4), ErrLocatorFaces)
}

func TestMaterialVertices(t *testing.T) {
	g := NewGraph(nil)
	id, _ := g.CreateMesh("m", math.Translate(0, 0, 5), []Primitive{tri("leaf"), tri("bark")})

	verts := g.MaterialVertices(id, "LEAF")
	require.Len(t, verts, 3)
	assert.Equal(t, [3]float32{0, 0, 5}, verts[0])
	assert.Nil(t, g.MaterialVertices(999, "leaf"))
}

func TestExportImportRoundTrip(t *testing.T) {
	codec := NewMemoryCodec()
	g := NewGraph(codec)

	mesh, _ := g.CreateMesh("door_opaque", math.Identity(), []Primitive{tri("wood")})
	socket, _ := g.CreateEmpty("SOCKET_ext_lamp_1", math.Translate(0, 1, 0))
	other, _ := g.CreateEmpty("not_exported", math.Identity())
	require.NoError(t, g.SetParent(socket, mesh))
	require.NoError(t, g.SetParent(mesh, other))

	require.NoError(t, g.Export([]ID{mesh, socket}, "out/door.gltf"))

	doc, ok := codec.Document("out/door.gltf")
	require.True(t, ok)
	require.Len(t, doc.Objects, 2)
	assert.Equal(t, ID(0), doc.Objects[0].Parent, "link to unexported parent dropped")
	assert.Equal(t, doc.Objects[0].ID, doc.Objects[1].Parent)

	fresh := NewGraph(codec)
	require.NoError(t, fresh.Import("out/door.gltf"))
	objects := fresh.Objects()
	assert.Equal(t, []string{"door_opaque", "SOCKET_ext_lamp_1"}, names(objects))
	assert.Equal(t, objects[0].ID, objects[1].Parent)
	assert.Equal(t, []int{1}, objects[0].FacesPerMaterial())
}

func TestImportClearsScene(t *testing.T) {
	codec := NewMemoryCodec()
	codec.Put("a.gltf", &Document{Objects: []Object{{ID: 7, Name: "a", Kind: KindEmpty}}})

	g := NewGraph(codec)
	_, _ = g.CreateEmpty("leftover", math.Identity())

	require.NoError(t, g.Import("a.gltf"))
	assert.Equal(t, []string{"a"}, names(g.Objects()))

	assert.Error(t, g.Import("missing.gltf"))
	assert.Empty(t, g.Objects())
}

func TestHelpers(t *testing.T) {
	objects := []Object{
		{ID: 1, Name: "arm", Kind: KindArmature},
		{ID: 2, Name: "b1", Kind: KindBone, Parent: 1},
		{ID: 3, Name: "b2", Kind: KindBone, Parent: 2},
		{ID: 4, Name: "b3", Kind: KindBone, Parent: 1},
	}

	assert.Equal(t, []string{"b1", "b3"}, names(Children(objects, 1)))
	assert.Equal(t, []string{"b1", "b2", "b3"}, names(OfKind(objects, KindBone)))

	o, ok := Find(objects, 3)
	assert.True(t, ok)
	assert.Equal(t, "b2", o.Name)
}
