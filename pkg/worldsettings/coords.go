package worldsettings

import (
	"encoding/json"
)

// Spawn is the world spawn point in block coordinates.
type Spawn struct {
	X int `json:"x" yaml:"x"`
	Z int `json:"z" yaml:"z"`
}

// Center is the point the map opens on. The zero value is a real location,
// so "not configured" is expressed by UnsetCenter instead.
type Center struct {
	X int `json:"x" yaml:"x"`
	Z int `json:"z" yaml:"z"`
}

// UnsetCenter tells the renderer to fall back to its own centering strategy.
var UnsetCenter = Center{X: -1, Z: -1}

func DefaultSpawn() Spawn {
	return Spawn{}
}

func DefaultCenter() Center {
	return UnsetCenter
}

// IsSet reports whether the center was configured explicitly.
func (c Center) IsSet() bool {
	return c != UnsetCenter
}

func (s *Spawn) UnmarshalJSON(data []byte) error {
	type plain Spawn
	v := plain(DefaultSpawn())
	if err := json.Unmarshal(data, &v); err != nil {
		return invalidf("spawn: %s", err)
	}
	*s = Spawn(v)
	return nil
}

func (c *Center) UnmarshalJSON(data []byte) error {
	type plain Center
	v := plain(DefaultCenter())
	if err := json.Unmarshal(data, &v); err != nil {
		return invalidf("center: %s", err)
	}
	*c = Center(v)
	return nil
}
