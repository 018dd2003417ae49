// Package debris groups the meshes of a debris model into the fragment
// clusters declared by the root bones of its armature.
package debris

import (
	"errors"
	"fmt"

	"github.com/Faultbox/gravity-convert/internal/grammar"
	"github.com/Faultbox/gravity-convert/internal/scene"
)

// Debris errors. All of them mean the armature and the meshes disagree.
var (
	ErrUnknownBone     = errors.New("debris bone has an unknown name structure")
	ErrUnexpectedChild = errors.New("debris bone has a child that is not a branch locator")
	ErrClusterMismatch = errors.New("debris cluster count does not match mesh set count")
)

// Cluster is one named fragment set and its meshes in traversal order.
type Cluster struct {
	Name   string
	Meshes []scene.Object
}

// Discover returns one cluster name per root bone, in bone order. Names get
// a running ordinal suffix so clusters sharing a base name stay unique.
// Root bones may only have branch locator children.
func Discover(objects []scene.Object, rootBones []scene.Object) ([]string, error) {
	names := make([]string, 0, len(rootBones))
	for _, b := range rootBones {
		for _, c := range scene.Children(objects, b.ID) {
			if !grammar.IsBranchLocator(c.Name) {
				return nil, fmt.Errorf("%w: %q under %q", ErrUnexpectedChild, c.Name, b.Name)
			}
		}

		base, ok := grammar.ParseDebrisBone(b.Name)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownBone, b.Name)
		}
		names = append(names, fmt.Sprintf("%s_%d", base, len(names)))
	}
	return names, nil
}

// Sets splits meshes into runs of consecutive submesh indices. A run
// continues while each mesh carries the index after the previous one;
// branch locators have no index of their own and always continue the run.
// A mesh whose name has no index counts as index 0. A first mesh off the
// sequence closes an empty leading set.
func Sets(meshes []scene.Object) [][]scene.Object {
	var sets [][]scene.Object
	var current []scene.Object
	next := 0

	for _, m := range meshes {
		index := next
		if !grammar.IsBranchLocator(m.Name) {
			index, _ = grammar.SubmeshIndex(m.Name)
		}

		if index != next {
			sets = append(sets, current)
			current = nil
		}
		current = append(current, m)
		next = index + 1
	}
	if len(current) > 0 {
		sets = append(sets, current)
	}
	return sets
}

// Build discovers the clusters and assigns mesh sets to them by position.
// meshes must be in the scene's enumeration order.
func Build(objects, rootBones, meshes []scene.Object) ([]Cluster, error) {
	names, err := Discover(objects, rootBones)
	if err != nil {
		return nil, err
	}

	sets := Sets(meshes)
	if len(sets) != len(names) {
		return nil, fmt.Errorf("%w: %d clusters, %d mesh sets", ErrClusterMismatch, len(names), len(sets))
	}

	clusters := make([]Cluster, len(names))
	for i, name := range names {
		if len(sets[i]) == 0 {
			return nil, fmt.Errorf("%w: cluster %q has no meshes", ErrClusterMismatch, name)
		}
		clusters[i] = Cluster{Name: name, Meshes: sets[i]}
	}
	return clusters, nil
}
