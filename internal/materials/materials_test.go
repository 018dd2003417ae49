package materials

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/gravity-convert/internal/scene"
	"github.com/Faultbox/gravity-convert/pkg/formats"
	"github.com/Faultbox/gravity-convert/pkg/math"
)

func parse(t *testing.T, data string) *formats.MaterialInfo {
	t.Helper()
	info, err := formats.ParseMaterialInfo([]byte(data))
	require.NoError(t, err)
	return info
}

func tri(material string, positions ...[3]float32) scene.Primitive {
	if len(positions) == 0 {
		positions = [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}
	}
	return scene.Primitive{Material: material, Positions: positions, Indices: []uint32{0, 1, 2}}
}

func TestDeduplicateLastWins(t *testing.T) {
	info := parse(t, `{
		"A": {"Type": "23", "Texture": "stone.dds"},
		"unused": {"Type": "23", "Texture": "stone.dds"},
		"B": {"Type": "23", "Texture": "stone.dds"},
		"D": {"Type": "2E"},
		"C": {"Type": "23", "Texture": "stone.dds"}
	}`)

	res := Deduplicate(info, []string{"a", "B", "c", "d"})

	assert.Equal(t, []string{"D", "C"}, res.Materials.Names())
	assert.Equal(t, map[string]string{"A": "C", "B": "C"}, res.Aliases)

	canonical, ok := res.Canonical("a")
	require.True(t, ok)
	assert.Equal(t, "C", canonical)

	canonical, ok = res.Canonical("d")
	require.True(t, ok)
	assert.Equal(t, "D", canonical)

	_, ok = res.Canonical("unused")
	assert.False(t, ok)
}

func TestCanonicalCaseVariants(t *testing.T) {
	info := parse(t, `{
		"Rock": {"Type": "23", "Texture": "rock.dds"},
		"rock": {"Type": "2E"},
		"Rock_b": {"Type": "23", "Texture": "rock.dds"},
		"rock_b": {"Type": "2E"}
	}`)

	res := Deduplicate(info, []string{"rock", "rock_b"})
	require.Equal(t, map[string]string{"Rock": "Rock_b", "rock": "rock_b"}, res.Aliases)

	for i := 0; i < 20; i++ {
		canonical, ok := res.Canonical("rock")
		require.True(t, ok)
		assert.Equal(t, "rock_b", canonical)

		canonical, ok = res.Canonical("Rock")
		require.True(t, ok)
		assert.Equal(t, "Rock_b", canonical)

		canonical, ok = res.Canonical("ROCK")
		require.True(t, ok)
		assert.Equal(t, "Rock_b", canonical)
	}
}

func TestDeduplicateIdempotent(t *testing.T) {
	info := parse(t, `{
		"A": {"Type": "23", "Parameters": [1, 2]},
		"B": {"Type": "23", "Parameters": [1, 2]},
		"C": {"Type": "29"},
		"D": {"Type": "29"},
		"E": {"Type": "23"}
	}`)
	slots := []string{"A", "B", "C", "D", "E"}

	first := Deduplicate(info, slots)
	second := Deduplicate(first.Materials, first.Materials.Names())

	assert.True(t, first.Materials.Equal(second.Materials))
	assert.Empty(t, second.Aliases)
	assert.Equal(t, []string{"B", "D", "E"}, second.Materials.Names())
}

func TestDeduplicateCopiesDescriptors(t *testing.T) {
	info := parse(t, `{"orb": {"Type": "30"}}`)

	res := Deduplicate(info, []string{"orb"})
	d, ok := res.Materials.Get("orb")
	require.True(t, ok)
	d.AppendParameters(1)

	orig, _ := info.Get("orb")
	_, has := orig.Parameters()
	assert.False(t, has)
}

func TestApply(t *testing.T) {
	g := scene.NewGraph(scene.NewMemoryCodec())
	doc := &scene.Document{
		Objects: []scene.Object{
			{ID: 1, Name: "wall", Kind: scene.KindMesh, World: math.Identity(), Primitives: []scene.Primitive{tri("brick_a")}},
			{ID: 2, Name: "floor", Kind: scene.KindMesh, World: math.Identity(), Primitives: []scene.Primitive{tri("Brick_B")}},
			{ID: 3, Name: "glass", Kind: scene.KindMesh, World: math.Identity(), Primitives: []scene.Primitive{tri("pane")}},
		},
		Materials: []scene.Material{
			{Name: "brick_a", Images: []string{"brick.png"}},
			{Name: "Brick_B", Images: []string{"brick.png"}},
			{Name: "pane", Images: []string{"pane.png", "pane_n.png"}},
		},
	}
	require.NoError(t, g.Load(doc))

	info := parse(t, `{
		"brick_a": {"Type": "23"},
		"brick_b": {"Type": "23"},
		"pane": {"Type": "2E"}
	}`)

	meshes := scene.OfKind(g.Objects(), scene.KindMesh)
	res := Deduplicate(info, Slots(meshes))
	require.Equal(t, map[string]string{"brick_a": "brick_b"}, res.Aliases)

	removed, err := Apply(g, meshes, res)
	require.NoError(t, err)
	assert.Equal(t, 3, removed)

	var slots []string
	for _, m := range scene.OfKind(g.Objects(), scene.KindMesh) {
		slots = append(slots, m.Materials()...)
	}
	assert.Equal(t, []string{"Brick_B", "Brick_B", "pane"}, slots)

	for _, m := range g.Materials() {
		if m.Name == "Brick_B" || m.Name == "pane" {
			assert.Empty(t, m.Images, m.Name)
		}
	}

	removed, err = Apply(g, scene.OfKind(g.Objects(), scene.KindMesh), res)
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestAdjustParameters(t *testing.T) {
	g := scene.NewGraph(nil)
	id, err := g.CreateMesh("orb_opaque", math.Identity(), []scene.Primitive{
		tri("orb", [3]float32{-1, 0, 0}, [3]float32{1, 0, 4}, [3]float32{0, 2, 0}),
		tri("wood"),
	})
	require.NoError(t, err)

	info := parse(t, `{"orb": {"Type": "30", "Parameters": [7]}, "wood": {"Type": "23"}}`)

	AdjustParameters(g, id, info)

	orb, _ := info.Get("orb")
	params, ok := orb.Parameters()
	require.True(t, ok)
	require.Len(t, params, 5)
	assert.Equal(t, 7.0, params[0])
	// Center of the box (-1..1, 0..4, 0..2) after the (x, z, y) remap.
	assert.Equal(t, []float64{0, 2, 1}, params[1:4])
	assert.InDelta(t, 2.449, params[4], 0.001)

	wood, _ := info.Get("wood")
	_, ok = wood.Parameters()
	assert.False(t, ok)
}
