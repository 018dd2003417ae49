// Package locator derives typed sockets from the named empties and bones of
// a scene.
package locator

import (
	"errors"

	"github.com/Faultbox/gravity-convert/internal/grammar"
	"github.com/Faultbox/gravity-convert/internal/scene"
	"github.com/Faultbox/gravity-convert/pkg/formats"
	"github.com/Faultbox/gravity-convert/pkg/math"
)

// SocketPrefix prefixes the exported socket object of every locator.
const SocketPrefix = "SOCKET_"

// Locator errors.
var (
	ErrInvalidLocatorBone = errors.New("bone is not a valid locator")
	ErrNoAttachTarget     = errors.New("model has locators but no mesh to attach them to")
)

// Kind is the locator variant.
type Kind int

const (
	KindModel Kind = iota
	KindEffect
	KindDecal
	KindLight
)

// String returns the manifest tag of the kind.
func (k Kind) String() string {
	return string(k.manifestType())
}

func (k Kind) manifestType() formats.LocatorType {
	switch k {
	case KindModel:
		return formats.LocatorModel
	case KindEffect:
		return formats.LocatorEffect
	case KindDecal:
		return formats.LocatorDecal
	default:
		return formats.LocatorLight
	}
}

// Locator is one attachment point. Only the fields of its Kind are set.
type Locator struct {
	Name string
	Kind Kind

	// Source is the empty or bone the locator was read from.
	Source scene.ID

	// World is the source transform with the socket axis remap applied.
	World math.Mat4

	ModelName    string
	EffectName   string
	MaterialName string

	Directional bool
	Light       grammar.LightParams

	// Socket is set by Attach.
	Socket scene.ID
}

// Manifest returns the manifest entry of the locator.
func (l Locator) Manifest() formats.Locator {
	out := formats.Locator{Name: l.Name, Type: l.Kind.manifestType()}
	switch l.Kind {
	case KindModel:
		out.ModelName = l.ModelName
	case KindEffect:
		out.EffectName = l.EffectName
	case KindDecal:
		out.MaterialName = l.MaterialName
	case KindLight:
		out.Directional = l.Directional
		out.Intensity = l.Light.Intensity
		out.Color = l.Light.Color
		out.Falloff = l.Light.Falloff
		out.Range = l.Light.Range
	}
	return out
}

// Manifests converts locators in order.
func Manifests(locators []Locator) []formats.Locator {
	out := make([]formats.Locator, len(locators))
	for i, l := range locators {
		out[i] = l.Manifest()
	}
	return out
}
