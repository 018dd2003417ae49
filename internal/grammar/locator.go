package grammar

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// LocatorKind is the family a locator name belongs to.
type LocatorKind int

const (
	LocatorNone LocatorKind = iota
	LocatorModel
	LocatorEffect
	LocatorDecal
	LocatorDirectionalLight
	LocatorPointLight
)

// String returns a human-readable kind name.
func (k LocatorKind) String() string {
	switch k {
	case LocatorModel:
		return "model"
	case LocatorEffect:
		return "effect"
	case LocatorDecal:
		return "decal"
	case LocatorDirectionalLight:
		return "directional-light"
	case LocatorPointLight:
		return "point-light"
	default:
		return "none"
	}
}

// LightParams are the fields encoded in a point light name.
type LightParams struct {
	ID        string
	Intensity float64
	Color     [3]float64
	Falloff   float64
	Range     float64
}

// LocatorMatch is a classified locator name.
type LocatorMatch struct {
	Kind LocatorKind

	// Name is the socket name: the ext_ part for model and effect locators,
	// the PL<id> token for point lights, the full name otherwise.
	Name string

	// Target is the referenced model or effect.
	Target string

	Light LightParams
}

var (
	effectLocatorPattern = regexp.MustCompile(`(?i)^.*(ext_(ef_.*)_\d+)$`)
	modelLocatorPattern  = regexp.MustCompile(`(?i)^.*(ext_(.*)_\d+)$`)
	indexedPattern       = regexp.MustCompile(`(?i)^((.*)_\d+)$`)
	childEffectPattern   = regexp.MustCompile(`(?i)^.*?((ef_.*)_\d+)$`)
	fallbackPattern      = regexp.MustCompile(`(?i)^(ext_|bg_)(.*)_(root|\d+)$`)

	pointLightPattern = regexp.MustCompile(`(?i)(PL\d*)` + strings.Repeat(`-([\d.]+)`, 8))
)

// ClassifyLocator maps a name to a locator family. ok is false when no
// family matches. A name matching more than one family fails with
// ErrAmbiguousName.
func ClassifyLocator(name string) (LocatorMatch, bool, error) {
	lower := strings.ToLower(name)

	var matches []LocatorMatch

	if m, ok := classifyExt(name); ok {
		matches = append(matches, m)
	}
	if strings.Contains(lower, "decallocator") {
		matches = append(matches, LocatorMatch{Kind: LocatorDecal, Name: name})
	}

	light, isLight, err := classifyLight(name)
	if err != nil {
		return LocatorMatch{}, false, fmt.Errorf("%w: %s", err, name)
	}
	if isLight {
		matches = append(matches, light)
	}

	switch len(matches) {
	case 0:
		return LocatorMatch{}, false, nil
	case 1:
		return matches[0], true, nil
	default:
		kinds := make([]string, len(matches))
		for i, m := range matches {
			kinds[i] = m.Kind.String()
		}
		return LocatorMatch{}, false, fmt.Errorf("%w: %s (%s)", ErrAmbiguousName, name, strings.Join(kinds, ", "))
	}
}

// classifyExt handles the ext_ family. ext_ef_ takes precedence over ext_.
func classifyExt(name string) (LocatorMatch, bool) {
	if m := effectLocatorPattern.FindStringSubmatch(name); m != nil {
		return LocatorMatch{Kind: LocatorEffect, Name: m[1], Target: m[2]}, true
	}
	if m := modelLocatorPattern.FindStringSubmatch(name); m != nil && m[2] != "" {
		return LocatorMatch{Kind: LocatorModel, Name: m[1], Target: m[2]}, true
	}
	return LocatorMatch{}, false
}

func classifyLight(name string) (LocatorMatch, bool, error) {
	if strings.Contains(strings.ToLower(name), "directionallight") {
		return LocatorMatch{Kind: LocatorDirectionalLight, Name: name}, true, nil
	}

	m := pointLightPattern.FindStringSubmatch(name)
	if m == nil {
		return LocatorMatch{}, false, nil
	}

	var values [8]float64
	for i := range values {
		v, err := strconv.ParseFloat(m[i+2], 64)
		if err != nil {
			return LocatorMatch{}, false, fmt.Errorf("%w: field %d %q", ErrInvalidLightParameters, i+1, m[i+2])
		}
		values[i] = v
	}

	rangeX, rangeY, rangeZ := values[5], values[6], values[7]
	if rangeX != rangeY || rangeX != rangeZ {
		return LocatorMatch{}, false, fmt.Errorf("%w: %g/%g/%g", ErrNonUniformLightScale, rangeX, rangeY, rangeZ)
	}

	return LocatorMatch{
		Kind: LocatorPointLight,
		Name: m[1],
		Light: LightParams{
			ID:        m[1],
			Intensity: values[0],
			Color:     [3]float64{values[1], values[2], values[3]},
			Falloff:   values[4],
			Range:     rangeX,
		},
	}, true, nil
}

// IsEffectBone reports whether a bone name carries an ext_ef_ locator.
func IsEffectBone(name string) bool {
	return strings.Contains(strings.ToLower(name), "ext_ef_")
}

// IsModelBone reports whether a bone name carries an ext_ model locator.
func IsModelBone(name string) bool {
	lower := strings.ToLower(name)
	return strings.Contains(lower, "ext_") && !strings.Contains(lower, "ext_ef_")
}

// ParseLocatorBone builds a model or effect match from a bone name.
// Bones without an ext_ prefix fall back to <name>_<n>.
func ParseLocatorBone(name string, kind LocatorKind) (LocatorMatch, bool) {
	switch kind {
	case LocatorEffect:
		if m := effectLocatorPattern.FindStringSubmatch(name); m != nil {
			return LocatorMatch{Kind: LocatorEffect, Name: m[1], Target: m[2]}, true
		}
		if m := childEffectPattern.FindStringSubmatch(name); m != nil {
			return LocatorMatch{Kind: LocatorEffect, Name: m[1], Target: m[2]}, true
		}
	case LocatorModel:
		if m := modelLocatorPattern.FindStringSubmatch(name); m != nil && m[2] != "" {
			return LocatorMatch{Kind: LocatorModel, Name: m[1], Target: m[2]}, true
		}
		if m := indexedPattern.FindStringSubmatch(name); m != nil && m[2] != "" {
			return LocatorMatch{Kind: LocatorModel, Name: m[1], Target: m[2]}, true
		}
	}
	return LocatorMatch{}, false
}

// ClassifyLocatorChild classifies a <name>_<n> child of a locator root bone.
// Grass and decal children are placed by objects, not bones, and are
// rejected here.
func ClassifyLocatorChild(name string) (LocatorKind, bool) {
	m := indexedPattern.FindStringSubmatch(name)
	if m == nil || m[2] == "" {
		return LocatorNone, false
	}

	base := strings.ToLower(m[2])
	if strings.Contains(base, "grass") || strings.Contains(base, "decal") {
		return LocatorNone, false
	}
	if strings.Contains(base, "ef_") {
		return LocatorEffect, true
	}
	return LocatorModel, true
}

// ParseFallbackLocator recognizes (ext_|bg_)<name>_(root|<n>) empties used
// as model locators when a scene has no armature. It returns <name>.
func ParseFallbackLocator(name string) (string, bool) {
	m := fallbackPattern.FindStringSubmatch(name)
	if m == nil || m[2] == "" {
		return "", false
	}
	return m[2], true
}
