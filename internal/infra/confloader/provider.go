package confloader

import (
	"errors"

	"github.com/knadh/koanf/maps"
)

// mapProvider feeds flag overrides keyed by dotted path into koanf.
type mapProvider map[string]any

func (m mapProvider) ReadBytes() ([]byte, error) {
	return nil, errors.New("confloader: overrides have no byte form")
}

// Read nests dotted keys so an override replaces one leaf, not a section.
func (m mapProvider) Read() (map[string]any, error) {
	return maps.Unflatten(m, "."), nil
}
