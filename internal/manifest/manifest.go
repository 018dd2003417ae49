// Package manifest projects a converted model into its manifest file.
package manifest

import (
	"fmt"

	"github.com/Masterminds/semver/v3"

	"github.com/Faultbox/gravity-convert/pkg/formats"
)

// Version is the manifest format version written by this converter.
const Version = "1.1.0"

var current = semver.MustParse(Version)

// Cluster is a debris cluster and the names of its meshes.
type Cluster struct {
	Name   string
	Meshes []string
}

// Record is everything the conversion of one model produced.
type Record struct {
	Name string

	NaniteSections []string
	RegularGroups  []string

	Broken        []string
	BrokenDynamic []string
	Debris        []string

	Clusters  []Cluster
	Locators  []formats.Locator
	Materials *formats.MaterialInfo
}

// Build returns the manifest of r. Meshes list the nanite sections before
// the regular groups; debris clusters and locators keep their order and are
// numbered from 1 when written.
func Build(r Record) *formats.Manifest {
	m := &formats.Manifest{
		Version:             Version,
		BrokenModels:        clone(r.Broken),
		BrokenDynamicModels: clone(r.BrokenDynamic),
		DebrisModels:        clone(r.Debris),
		Locators:            append([]formats.Locator(nil), r.Locators...),
	}

	m.Meshes = append(m.Meshes, r.NaniteSections...)
	m.Meshes = append(m.Meshes, r.RegularGroups...)

	for _, c := range r.Clusters {
		m.DebrisClusters = append(m.DebrisClusters, formats.DebrisCluster{Name: c.Name, Meshes: clone(c.Meshes)})
	}

	if r.Materials.Len() > 0 {
		m.Materials = r.Materials.Clone()
	}
	return m
}

func clone(s []string) []string {
	return append([]string(nil), s...)
}

// Compatible reports whether a manifest written with version can be read by
// this converter: the major versions must match.
func Compatible(version string) (bool, error) {
	v, err := semver.NewVersion(version)
	if err != nil {
		return false, fmt.Errorf("invalid manifest version %q: %w", version, err)
	}
	return v.Major() == current.Major(), nil
}

// Current returns the parsed manifest version.
func Current() *semver.Version {
	return current
}
