package worldsettings

import (
	"encoding/json"
)

// ContextMenuItemType is an action offered by the map context menu.
type ContextMenuItemType string

const (
	CopyCoords ContextMenuItemType = "copy-coords"
	CopyLink   ContextMenuItemType = "copy-link"
	CenterMap  ContextMenuItemType = "center-map"
)

var contextMenuItemTypes = map[ContextMenuItemType]struct{}{
	CopyCoords: {},
	CopyLink:   {},
	CenterMap:  {},
}

// ParseContextMenuItemType rejects every tag outside the closed set.
func ParseContextMenuItemType(s string) (ContextMenuItemType, error) {
	t := ContextMenuItemType(s)
	if !t.Valid() {
		return "", invalidf("context menu item %q", s)
	}
	return t, nil
}

func (t ContextMenuItemType) Valid() bool {
	_, ok := contextMenuItemTypes[t]
	return ok
}

func (t ContextMenuItemType) String() string {
	return string(t)
}

func (t ContextMenuItemType) MarshalJSON() ([]byte, error) {
	if !t.Valid() {
		return nil, invalidf("context menu item %q", string(t))
	}
	return json.Marshal(string(t))
}

func (t *ContextMenuItemType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return invalidf("context menu item: %s", err)
	}
	v, err := ParseContextMenuItemType(s)
	if err != nil {
		return err
	}
	*t = v
	return nil
}

func DefaultContextMenuItems() []ContextMenuItemType {
	return []ContextMenuItemType{CopyCoords, CopyLink, CenterMap}
}

// ContextMenuCustomHTML replaces the built-in context menu markup. The
// content is injected verbatim by the front-end.
type ContextMenuCustomHTML struct {
	Enabled bool   `json:"enabled"`
	HTML    string `json:"html"`
	CSS     string `json:"css"`
}

// Active returns the markup to inject. Content kept while disabled is inert.
func (c ContextMenuCustomHTML) Active() (html, css string, ok bool) {
	if !c.Enabled {
		return "", "", false
	}
	return c.HTML, c.CSS, true
}

func (c *ContextMenuCustomHTML) UnmarshalJSON(data []byte) error {
	type plain ContextMenuCustomHTML
	var v plain
	if err := json.Unmarshal(data, &v); err != nil {
		return invalidf("customHtml: %s", err)
	}
	*c = ContextMenuCustomHTML(v)
	return nil
}

type ContextMenuSettings struct {
	Enabled    bool                  `json:"enabled"`
	Items      []ContextMenuItemType `json:"items"`
	CustomHTML ContextMenuCustomHTML `json:"customHtml"`
}

func DefaultContextMenuSettings() ContextMenuSettings {
	return ContextMenuSettings{
		Enabled: true,
		Items:   DefaultContextMenuItems(),
	}
}

// Clone returns a copy that shares no memory with c.
func (c ContextMenuSettings) Clone() ContextMenuSettings {
	items := make([]ContextMenuItemType, len(c.Items))
	copy(items, c.Items)
	c.Items = items
	return c
}

func (c ContextMenuSettings) Equal(o ContextMenuSettings) bool {
	if c.Enabled != o.Enabled || c.CustomHTML != o.CustomHTML || len(c.Items) != len(o.Items) {
		return false
	}
	for i := range c.Items {
		if c.Items[i] != o.Items[i] {
			return false
		}
	}
	return true
}

func (c ContextMenuSettings) MarshalJSON() ([]byte, error) {
	type plain ContextMenuSettings
	v := plain(c)
	if v.Items == nil {
		v.Items = []ContextMenuItemType{}
	}
	return json.Marshal(v)
}

// UnmarshalJSON starts from the defaults and leaves c untouched on error,
// so a rejected item never yields a half-filled menu.
func (c *ContextMenuSettings) UnmarshalJSON(data []byte) error {
	type plain ContextMenuSettings
	v := plain(DefaultContextMenuSettings())
	if err := json.Unmarshal(data, &v); err != nil {
		return asInvalid(err)
	}
	if v.Items == nil {
		v.Items = []ContextMenuItemType{}
	}
	*c = ContextMenuSettings(v)
	return nil
}
