package debris

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/gravity-convert/internal/scene"
)

func bone(id, parent scene.ID, name string) scene.Object {
	return scene.Object{ID: id, Parent: parent, Kind: scene.KindBone, Name: name}
}

func meshes(names ...string) []scene.Object {
	out := make([]scene.Object, len(names))
	for i, n := range names {
		out[i] = scene.Object{ID: scene.ID(100 + i), Kind: scene.KindMesh, Name: n}
	}
	return out
}

func sizes(sets [][]scene.Object) []int {
	out := make([]int, len(sets))
	for i, s := range sets {
		out[i] = len(s)
	}
	return out
}

func TestDiscover(t *testing.T) {
	objects := []scene.Object{
		{ID: 1, Kind: scene.KindArmature, Name: "root"},
		bone(2, 1, "bone_1_rock_db_3"),
		bone(3, 1, "bone2_rock_4"),
		bone(4, 3, "rock_branchlocator"),
		bone(5, 1, "plank_1"),
	}
	roots := []scene.Object{objects[1], objects[2], objects[4]}

	names, err := Discover(objects, roots)
	require.NoError(t, err)
	assert.Equal(t, []string{"rock_db_0", "rock_1", "plank_2"}, names)
}

func TestDiscoverErrors(t *testing.T) {
	objects := []scene.Object{
		bone(1, 0, "rock_1"),
		bone(2, 1, "ext_lamp_1"),
		bone(3, 0, "rock"),
	}

	_, err := Discover(objects, objects[:1])
	assert.ErrorIs(t, err, ErrUnexpectedChild)

	_, err = Discover(objects, objects[2:])
	assert.ErrorIs(t, err, ErrUnknownBone)
}

func TestSets(t *testing.T) {
	tests := []struct {
		name   string
		meshes []string
		want   []int
	}{
		{
			name:   "index runs",
			meshes: []string{"rock_0_0", "rock_0_1", "rock_0_2", "rock_1_0", "rock_1_1", "rock_2_0"},
			want:   []int{3, 2, 1},
		},
		{
			name:   "branch locator continues the run",
			meshes: []string{"tree_0_0", "tree_branchlocator", "tree_0_2", "tree_1_0"},
			want:   []int{3, 1},
		},
		{
			name:   "unindexed mesh starts a set",
			meshes: []string{"rock_0_0", "rock_0_1", "pebble", "pebble.001"},
			want:   []int{2, 1, 1},
		},
		{
			name:   "first mesh off sequence",
			meshes: []string{"rock_0_1", "rock_0_2"},
			want:   []int{0, 2},
		},
		{
			name:   "first mesh off sequence then a new run",
			meshes: []string{"rock_0_1", "rock_0_2", "rock_1_0", "rock_1_1"},
			want:   []int{0, 2, 2},
		},
		{
			name: "empty",
			want: []int{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sizes(Sets(meshes(tt.meshes...))))
		})
	}
}

func TestBuild(t *testing.T) {
	objects := []scene.Object{
		bone(1, 0, "rock_1"),
		bone(2, 0, "rock_2"),
		bone(3, 0, "rock_3"),
	}
	ms := meshes("rock_0_0", "rock_0_1", "rock_0_2", "rock_1_0", "rock_1_1", "rock_2_0")

	clusters, err := Build(objects, objects, ms)
	require.NoError(t, err)
	require.Len(t, clusters, 3)

	assert.Equal(t, "rock_0", clusters[0].Name)
	assert.Equal(t, "rock_2", clusters[2].Name)
	assert.Equal(t, ms[:3], clusters[0].Meshes)
	assert.Equal(t, ms[3:5], clusters[1].Meshes)
	assert.Equal(t, ms[5:], clusters[2].Meshes)
}

func TestBuildMismatch(t *testing.T) {
	objects := []scene.Object{
		bone(1, 0, "rock_1"),
		bone(2, 0, "rock_2"),
		bone(3, 0, "rock_3"),
	}

	_, err := Build(objects, objects, meshes("rock_0_0", "rock_0_1", "rock_0_3"))
	assert.ErrorIs(t, err, ErrClusterMismatch)
}

func TestBuildOffSequenceFirstMesh(t *testing.T) {
	objects := []scene.Object{
		bone(1, 0, "rock_1"),
		bone(2, 0, "rock_2"),
	}

	// Two runs plus the empty leading set: one set too many.
	_, err := Build(objects, objects, meshes("rock_0_1", "rock_0_2", "rock_1_0", "rock_1_1"))
	assert.ErrorIs(t, err, ErrClusterMismatch)

	// Counts agree, but the first cluster would be empty.
	objects = append(objects, bone(3, 0, "rock_3"))
	_, err = Build(objects, objects, meshes("rock_0_1", "rock_0_2", "rock_1_0", "rock_1_1"))
	assert.ErrorIs(t, err, ErrClusterMismatch)
}
