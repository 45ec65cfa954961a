package worldsettings

import (
	"encoding/json"
)

// Zoom holds the default zoom level and how many levels the map may zoom
// out (MaxOut) and in (MaxIn) relative to the native tile resolution.
type Zoom struct {
	Default int `json:"default" yaml:"default"`
	MaxOut  int `json:"maxOut" yaml:"maxOut"`
	MaxIn   int `json:"maxIn" yaml:"maxIn"`
}

func DefaultZoom() Zoom {
	return Zoom{Default: 0, MaxOut: 3, MaxIn: 2}
}

// Validate checks that both bounds are non-negative level counts and that
// the default level lies within [-MaxOut, MaxIn].
func (z Zoom) Validate() error {
	if z.MaxOut < 0 {
		return invalidf("zoom.maxOut: %d is negative", z.MaxOut)
	}
	if z.MaxIn < 0 {
		return invalidf("zoom.maxIn: %d is negative", z.MaxIn)
	}
	if z.Default < -z.MaxOut || z.Default > z.MaxIn {
		return invalidf("zoom.default: %d outside [-%d, %d]", z.Default, z.MaxOut, z.MaxIn)
	}
	return nil
}

func (z *Zoom) UnmarshalJSON(data []byte) error {
	type plain Zoom
	v := plain(DefaultZoom())
	if err := json.Unmarshal(data, &v); err != nil {
		return invalidf("zoom: %s", err)
	}
	*z = Zoom(v)
	return nil
}
