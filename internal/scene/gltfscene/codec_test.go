package gltfscene

import (
	"path/filepath"
	"testing"

	"github.com/qmuntal/gltf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/gravity-convert/internal/scene"
	"github.com/Faultbox/gravity-convert/pkg/math"
)

func tri(material string) scene.Primitive {
	return scene.Primitive{
		Material:  material,
		Positions: [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
		Normals:   [][3]float32{{0, 0, 1}, {0, 0, 1}, {0, 0, 1}},
		Indices:   []uint32{0, 1, 2},
	}
}

func sampleDocument() *scene.Document {
	return &scene.Document{
		Objects: []scene.Object{
			{ID: 1, Name: "door_opaque", Kind: scene.KindMesh, World: math.Translate(0, 0, 2),
				Primitives: []scene.Primitive{tri("wood"), tri("metal"), tri("wood")}},
			{ID: 2, Name: "SOCKET_ext_lamp_1", Kind: scene.KindEmpty, Parent: 1, World: math.Translate(1, 0, 2)},
			{ID: 3, Name: "Armature_root", Kind: scene.KindArmature, World: math.Identity()},
			{ID: 4, Name: "bone01", Kind: scene.KindBone, Parent: 3, World: math.Translate(0, 1, 0)},
		},
		Materials: []scene.Material{
			{Name: "wood", Images: []string{"textures/wood_d.png"}},
			{Name: "metal"},
		},
	}
}

func TestRoundTrip(t *testing.T) {
	for _, ext := range []string{".gltf", ".glb"} {
		t.Run(ext, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "out", "door"+ext)
			codec := New()

			require.NoError(t, codec.Encode(sampleDocument(), path))

			doc, err := codec.Decode(path)
			require.NoError(t, err)
			require.Len(t, doc.Objects, 4)

			mesh := doc.Objects[0]
			assert.Equal(t, "door_opaque", mesh.Name)
			assert.Equal(t, scene.KindMesh, mesh.Kind)
			assert.Equal(t, []string{"wood", "metal"}, mesh.Materials())
			assert.Equal(t, []int{2, 1}, mesh.FacesPerMaterial())

			socket := doc.Objects[1]
			assert.Equal(t, mesh.ID, socket.Parent)
			assert.True(t, socket.World.ApproxEqual(math.Translate(1, 0, 2), 1e-5))

			assert.Equal(t, scene.KindArmature, doc.Objects[2].Kind)
			assert.Equal(t, scene.KindBone, doc.Objects[3].Kind)

			require.Len(t, doc.Materials, 2)
			assert.Equal(t, "wood", doc.Materials[0].Name)
			assert.Equal(t, []string{"textures/wood_d.png"}, doc.Materials[0].Images)
		})
	}
}

func TestEncodeUnknownParent(t *testing.T) {
	doc := &scene.Document{Objects: []scene.Object{
		{ID: 1, Name: "orphan", Kind: scene.KindEmpty, Parent: 9, World: math.Identity()},
	}}

	_, err := ToGLTF(doc)
	assert.Error(t, err)
}

func TestFromGLTFKinds(t *testing.T) {
	doc := gltf.NewDocument()
	doc.Nodes = []*gltf.Node{
		{Name: "Armature", Children: []uint32{1}},
		{Name: "bone_1", Children: []uint32{2}, Translation: [3]float32{0, 2, 0}},
		{Name: "bone_1_branchlocator", Translation: [3]float32{1, 0, 0}},
		{Name: "ext_bg_lamp_root"},
	}
	doc.Skins = []*gltf.Skin{{Joints: []uint32{1, 2}}}

	out, err := FromGLTF(doc)
	require.NoError(t, err)
	require.Len(t, out.Objects, 4)

	assert.Equal(t, scene.KindArmature, out.Objects[0].Kind)
	assert.Equal(t, scene.KindBone, out.Objects[1].Kind)
	assert.Equal(t, scene.KindBone, out.Objects[2].Kind)
	assert.Equal(t, scene.KindEmpty, out.Objects[3].Kind)

	assert.Equal(t, out.Objects[1].ID, out.Objects[2].Parent)
	assert.Equal(t, math.Vec3{X: 1, Y: 2, Z: 0}, out.Objects[2].World.Translation())
}

func TestTriangulate(t *testing.T) {
	tests := []struct {
		name    string
		mode    gltf.PrimitiveMode
		indices []uint32
		count   int
		want    []uint32
	}{
		{"list", gltf.PrimitiveTriangles, []uint32{0, 1, 2, 2, 1, 3}, 4, []uint32{0, 1, 2, 2, 1, 3}},
		{"unindexed list", gltf.PrimitiveTriangles, nil, 3, []uint32{0, 1, 2}},
		{"strip", gltf.PrimitiveTriangleStrip, []uint32{0, 1, 2, 3}, 4, []uint32{0, 1, 2, 2, 1, 3}},
		{"fan", gltf.PrimitiveTriangleFan, []uint32{0, 1, 2, 3}, 4, []uint32{0, 1, 2, 0, 2, 3}},
		{"points", gltf.PrimitivePoints, nil, 4, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, triangulate(tt.mode, tt.indices, tt.count))
		})
	}
}
