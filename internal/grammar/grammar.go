// Package grammar classifies object, bone and file names by the naming
// conventions used in the source exports. Every function is pure and
// case-insensitive.
package grammar

import (
	"errors"
	"regexp"
	"strings"
)

// Classification errors.
var (
	ErrAmbiguousName          = errors.New("name matches more than one locator family")
	ErrNonUniformLightScale   = errors.New("point light has a non-uniform range")
	ErrInvalidLightParameters = errors.New("invalid point light parameters")
)

// VariantKind is the role of a source file relative to its base model.
type VariantKind int

const (
	VariantBase VariantKind = iota
	VariantBroken
	VariantBrokenDynamic
	VariantDebris
)

// String returns the manifest-facing name of the kind.
func (k VariantKind) String() string {
	switch k {
	case VariantBase:
		return "base"
	case VariantBroken:
		return "broken"
	case VariantBrokenDynamic:
		return "broken-dynamic"
	case VariantDebris:
		return "debris"
	default:
		return "unknown"
	}
}

// Variant is a breakable variant and the model it belongs to.
type Variant struct {
	Kind   VariantKind
	Parent string
}

var (
	breakablePattern    = regexp.MustCompile(`(?i)^(.*)_brk_(bk|dy|db)$`)
	breakableSubPattern = regexp.MustCompile(`(?i)^(.*_brk_md\d+)_db$`)
)

// ClassifyVariant recognizes breakable variant names. ok is false for base
// models.
//
//	door_brk_bk      -> broken variant of door
//	door_brk_dy      -> broken-dynamic variant of door
//	door_brk_db      -> debris of door
//	door_brk_md2_db  -> debris of the breakable sub-model door_brk_md2
func ClassifyVariant(name string) (Variant, bool) {
	if m := breakablePattern.FindStringSubmatch(name); m != nil && m[1] != "" {
		var kind VariantKind
		switch strings.ToLower(m[2]) {
		case "bk":
			kind = VariantBroken
		case "dy":
			kind = VariantBrokenDynamic
		default:
			kind = VariantDebris
		}
		return Variant{Kind: kind, Parent: m[1]}, true
	}
	if m := breakableSubPattern.FindStringSubmatch(name); m != nil {
		return Variant{Kind: VariantDebris, Parent: m[1]}, true
	}
	return Variant{}, false
}

// GeometryClass is the bucket a mesh falls into by name.
type GeometryClass int

const (
	GeometryIgnored GeometryClass = iota
	GeometryDetail
	GeometryLow
	GeometryDummy
)

// String returns a human-readable class name.
func (c GeometryClass) String() string {
	switch c {
	case GeometryDetail:
		return "detail"
	case GeometryLow:
		return "low"
	case GeometryDummy:
		return "dummy"
	default:
		return "ignored"
	}
}

// ClassifyGeometry buckets a mesh. Explicit suffixes win over the polygon
// fallback.
func ClassifyGeometry(name string, polygons int) GeometryClass {
	lower := strings.ToLower(name)

	switch {
	case hasAnySuffix(lower, "lod0", "lod1", "grass"):
		return GeometryDetail
	case strings.HasPrefix(lower, "low_") || hasAnySuffix(lower, "low", "lod3"):
		return GeometryLow
	case lower == "dummy":
		return GeometryDummy
	case polygons > 0:
		return GeometryDetail
	default:
		return GeometryIgnored
	}
}

func hasAnySuffix(s string, suffixes ...string) bool {
	for _, suffix := range suffixes {
		if strings.HasSuffix(s, suffix) {
			return true
		}
	}
	return false
}

// IsBranchLocator reports whether a mesh is a tree branch locator.
func IsBranchLocator(name string) bool {
	return strings.Contains(strings.ToLower(name), "branchlocator")
}

// IsGrassLocator reports whether a mesh is a grass locator.
func IsGrassLocator(name string) bool {
	return strings.Contains(strings.ToLower(name), "grasslocator")
}

// IsLocatorRoot reports whether a root bone groups locator children.
func IsLocatorRoot(name string) bool {
	return strings.Contains(strings.ToLower(name), "locator")
}

// IsRootArmature reports whether an armature is named as the model root.
func IsRootArmature(name string) bool {
	return strings.Contains(strings.ToLower(name), "root")
}
