package worldsettings

import (
	"encoding/json"
)

// Conventional placement zones. The front-end owns the list; these are only
// the values this package uses as defaults.
const (
	PlacementTopLeft      = "topleft"
	PlacementTopCenter    = "topcenter"
	PlacementTopRight     = "topright"
	PlacementBottomLeft   = "bottomleft"
	PlacementBottomCenter = "bottomcenter"
	PlacementBottomRight  = "bottomright"
)

// UI controls where the map widgets are drawn.
type UI struct {
	Link        string              `json:"link"`
	Coords      string              `json:"coords"`
	BlockInfo   string              `json:"blockinfo"`
	Attribution bool                `json:"attribution"`
	ContextMenu ContextMenuSettings `json:"contextMenu"`
}

func DefaultUI() UI {
	return UI{
		Link:        PlacementBottomRight,
		Coords:      PlacementBottomCenter,
		BlockInfo:   PlacementBottomLeft,
		Attribution: true,
		ContextMenu: DefaultContextMenuSettings(),
	}
}

func (u UI) Clone() UI {
	u.ContextMenu = u.ContextMenu.Clone()
	return u
}

func (u UI) Equal(o UI) bool {
	return u.Link == o.Link &&
		u.Coords == o.Coords &&
		u.BlockInfo == o.BlockInfo &&
		u.Attribution == o.Attribution &&
		u.ContextMenu.Equal(o.ContextMenu)
}

func (u *UI) UnmarshalJSON(data []byte) error {
	type plain UI
	v := plain(DefaultUI())
	if err := json.Unmarshal(data, &v); err != nil {
		return asInvalid(err)
	}
	*u = UI(v)
	return nil
}
