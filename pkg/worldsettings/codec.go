package worldsettings

import (
	"bytes"
	"encoding/json"
)

// document is the serialized form consumed by the front-end.
type document struct {
	Name               string   `json:"name"`
	DisplayName        string   `json:"displayName"`
	Type               string   `json:"type"`
	Order              int      `json:"order"`
	Renderers          []string `json:"renderers"`
	TileUpdateInterval int      `json:"tileUpdateInterval"`
	Spawn              Spawn    `json:"spawn"`
	Center             Center   `json:"center"`
	Zoom               Zoom     `json:"zoom"`
	UI                 UI       `json:"ui"`
}

// Overrides holds the optional part of a world document. A nil field keeps
// the current value, a present one replaces it wholesale.
type Overrides struct {
	TileUpdateInterval *int    `json:"tileUpdateInterval,omitempty"`
	Spawn              *Spawn  `json:"spawn,omitempty"`
	Center             *Center `json:"center,omitempty"`
	Zoom               *Zoom   `json:"zoom,omitempty"`
	UI                 *UI     `json:"ui,omitempty"`
}

type identity struct {
	Name        *string   `json:"name"`
	DisplayName *string   `json:"displayName"`
	Type        *string   `json:"type"`
	Order       *int      `json:"order"`
	Renderers   *[]string `json:"renderers"`
}

func (w *WorldSettings) snapshot() document {
	w.mu.RLock()
	defer w.mu.RUnlock()

	return document{
		Name:               w.name,
		DisplayName:        w.displayName,
		Type:               w.worldType,
		Order:              w.order,
		Renderers:          w.Renderers(),
		TileUpdateInterval: w.tileUpdateInterval,
		Spawn:              w.spawn,
		Center:             w.center,
		Zoom:               w.zoom,
		UI:                 w.ui.Clone(),
	}
}

func (w *WorldSettings) MarshalJSON() ([]byte, error) {
	return json.Marshal(w.snapshot())
}

// Decode parses a single world document. The identity fields are required,
// everything else falls back to the defaults.
func Decode(data []byte) (*WorldSettings, error) {
	var id identity
	if err := json.Unmarshal(data, &id); err != nil {
		return nil, asInvalid(err)
	}
	switch {
	case id.Name == nil:
		return nil, missing("name")
	case id.DisplayName == nil:
		return nil, missing("displayName")
	case id.Type == nil:
		return nil, missing("type")
	case id.Order == nil:
		return nil, missing("order")
	case id.Renderers == nil:
		return nil, missing("renderers")
	}

	ov, err := DecodeOverrides(data)
	if err != nil {
		return nil, err
	}

	w := New(*id.Name, *id.DisplayName, *id.Type, *id.Order, *id.Renderers)
	w.Apply(ov)
	return w, nil
}

// DecodeOverrides parses the optional fields of a world document. Unknown
// keys, identity fields included, are ignored.
func DecodeOverrides(data []byte) (Overrides, error) {
	var ov Overrides
	if len(bytes.TrimSpace(data)) == 0 {
		return ov, nil
	}
	if err := json.Unmarshal(data, &ov); err != nil {
		return Overrides{}, asInvalid(err)
	}
	return ov, nil
}

// MergeOverrides merges the top level keys of patch into base. A key in
// patch replaces the one in base wholesale and a null removes it.
func MergeOverrides(base, patch []byte) ([]byte, error) {
	merged, err := overrideKeys(base)
	if err != nil {
		return nil, err
	}
	keys, err := overrideKeys(patch)
	if err != nil {
		return nil, err
	}
	for k, v := range keys {
		if bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
			delete(merged, k)
			continue
		}
		merged[k] = v
	}
	return json.Marshal(merged)
}

func overrideKeys(data []byte) (map[string]json.RawMessage, error) {
	keys := make(map[string]json.RawMessage)
	if len(bytes.TrimSpace(data)) == 0 {
		return keys, nil
	}
	if err := json.Unmarshal(data, &keys); err != nil {
		return nil, asInvalid(err)
	}
	if keys == nil {
		keys = make(map[string]json.RawMessage)
	}
	return keys, nil
}

// Apply replaces every nested setting present in ov.
func (w *WorldSettings) Apply(ov Overrides) {
	if ov.TileUpdateInterval != nil {
		w.SetTileUpdateInterval(*ov.TileUpdateInterval)
	}
	if ov.Spawn != nil {
		w.SetSpawn(*ov.Spawn)
	}
	if ov.Center != nil {
		w.SetCenter(*ov.Center)
	}
	if ov.Zoom != nil {
		w.SetZoom(*ov.Zoom)
	}
	if ov.UI != nil {
		w.SetUI(*ov.UI)
	}
}

// UnmarshalJSON decodes into w in place. w is left unchanged on error.
func (w *WorldSettings) UnmarshalJSON(data []byte) error {
	d, err := Decode(data)
	if err != nil {
		return err
	}
	s := d.snapshot()

	w.mu.Lock()
	defer w.mu.Unlock()
	w.name = s.Name
	w.displayName = s.DisplayName
	w.worldType = s.Type
	w.order = s.Order
	w.renderers = s.Renderers
	w.tileUpdateInterval = s.TileUpdateInterval
	w.spawn = s.Spawn
	w.center = s.Center
	w.zoom = s.Zoom
	w.ui = s.UI
	return nil
}
