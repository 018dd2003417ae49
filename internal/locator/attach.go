package locator

import (
	"fmt"

	"github.com/Faultbox/gravity-convert/internal/scene"
)

// Attach creates one SOCKET_<name> empty per locator at its world transform
// and parents all of them to the first nanite section, or to the first
// regular group when there is no nanite section. Socket IDs are stored on
// the locators and returned in order.
func Attach(svc scene.Service, locators []Locator, nanite, regular []scene.ID) ([]scene.ID, error) {
	if len(locators) == 0 {
		return nil, nil
	}

	var target scene.ID
	switch {
	case len(nanite) > 0:
		target = nanite[0]
	case len(regular) > 0:
		target = regular[0]
	default:
		return nil, fmt.Errorf("%w: %d locators", ErrNoAttachTarget, len(locators))
	}

	sockets := make([]scene.ID, 0, len(locators))
	for i := range locators {
		l := &locators[i]
		id, err := svc.CreateEmpty(SocketPrefix+l.Name, l.World)
		if err != nil {
			return nil, fmt.Errorf("creating socket for %q: %w", l.Name, err)
		}
		if err := svc.SetParent(id, target); err != nil {
			return nil, fmt.Errorf("attaching socket %q: %w", l.Name, err)
		}
		l.Socket = id
		sockets = append(sockets, id)
	}
	return sockets, nil
}
