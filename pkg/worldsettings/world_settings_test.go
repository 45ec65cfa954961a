package worldsettings

import (
	"testing"
	"time"
)

func TestNew_Defaults(t *testing.T) {
	w := New("world", "World", "overworld", 0, []string{"flat"})

	if got := w.TileUpdateInterval(); got != 5 {
		t.Errorf("TileUpdateInterval() = %d, want 5", got)
	}
	if got := w.TileUpdatePeriod(); got != 5*time.Second {
		t.Errorf("TileUpdatePeriod() = %v, want 5s", got)
	}
	if got := w.Spawn(); got != (Spawn{X: 0, Z: 0}) {
		t.Errorf("Spawn() = %+v, want origin", got)
	}
	if got := w.Center(); got != (Center{X: -1, Z: -1}) {
		t.Errorf("Center() = %+v, want (-1,-1)", got)
	}
	if w.Center().IsSet() {
		t.Errorf("default center reported as set")
	}
	if got := w.Zoom(); got != (Zoom{Default: 0, MaxOut: 3, MaxIn: 2}) {
		t.Errorf("Zoom() = %+v, want (0,3,2)", got)
	}

	ui := w.UI()
	if ui.Link != "bottomright" || ui.Coords != "bottomcenter" || ui.BlockInfo != "bottomleft" {
		t.Errorf("unexpected placements: %+v", ui)
	}
	if !ui.Attribution {
		t.Errorf("attribution should default to true")
	}
	if !ui.ContextMenu.Enabled {
		t.Errorf("context menu should default to enabled")
	}
	want := []ContextMenuItemType{CopyCoords, CopyLink, CenterMap}
	if len(ui.ContextMenu.Items) != len(want) {
		t.Fatalf("items = %v, want %v", ui.ContextMenu.Items, want)
	}
	for i := range want {
		if ui.ContextMenu.Items[i] != want[i] {
			t.Errorf("items[%d] = %s, want %s", i, ui.ContextMenu.Items[i], want[i])
		}
	}
	if ui.ContextMenu.CustomHTML != (ContextMenuCustomHTML{}) {
		t.Errorf("custom html = %+v, want disabled and empty", ui.ContextMenu.CustomHTML)
	}
}

func TestWorldSettings_Identity(t *testing.T) {
	w := New("world_nether", "Nether", "nether", 2, []string{"basic", "biomes"})

	if w.Name() != "world_nether" || w.DisplayName() != "Nether" || w.Type() != "nether" || w.Order() != 2 {
		t.Errorf("unexpected identity: %s %s %s %d", w.Name(), w.DisplayName(), w.Type(), w.Order())
	}

	r := w.Renderers()
	if len(r) != 2 || r[0] != "basic" || r[1] != "biomes" {
		t.Fatalf("Renderers() = %v", r)
	}
	r[0] = "changed"
	if w.Renderers()[0] != "basic" {
		t.Errorf("renderers leaked through the getter")
	}
}

func TestWorldSettings_Setters(t *testing.T) {
	w := New("world", "World", "overworld", 0, []string{"flat"})

	if got := w.Zoom().MaxIn; got != 2 {
		t.Errorf("Zoom().MaxIn = %d, want 2", got)
	}

	w.SetSpawn(Spawn{X: 100, Z: -200})
	if got := w.Spawn().X; got != 100 {
		t.Errorf("Spawn().X = %d, want 100", got)
	}

	w.SetCenter(Center{X: 0, Z: 0})
	if !w.Center().IsSet() {
		t.Errorf("origin center should count as set")
	}

	w.SetTileUpdateInterval(30)
	if got := w.TileUpdateInterval(); got != 30 {
		t.Errorf("TileUpdateInterval() = %d, want 30", got)
	}

	w.SetZoom(Zoom{Default: 1, MaxOut: 4, MaxIn: 3})
	if got := w.Zoom(); got != (Zoom{Default: 1, MaxOut: 4, MaxIn: 3}) {
		t.Errorf("Zoom() = %+v", got)
	}
}

func TestWorldSettings_ItemsReplacedWholesale(t *testing.T) {
	w := New("world", "World", "overworld", 0, []string{"flat"})

	ui := w.UI()
	ui.ContextMenu.Items = []ContextMenuItemType{}
	w.SetUI(ui)

	items := w.UI().ContextMenu.Items
	if items == nil || len(items) != 0 {
		t.Errorf("items = %#v, want empty sequence", items)
	}

	ui.ContextMenu.Items = []ContextMenuItemType{CenterMap, CopyCoords, CenterMap}
	w.SetUI(ui)
	items = w.UI().ContextMenu.Items
	want := []ContextMenuItemType{CenterMap, CopyCoords, CenterMap}
	if len(items) != len(want) {
		t.Fatalf("items = %v, want %v", items, want)
	}
	for i := range want {
		if items[i] != want[i] {
			t.Errorf("items[%d] = %s, want %s", i, items[i], want[i])
		}
	}
}

func TestWorldSettings_UICopies(t *testing.T) {
	w := New("world", "World", "overworld", 0, []string{"flat"})

	ui := w.UI()
	ui.Link = PlacementTopLeft
	ui.ContextMenu.Items[0] = CenterMap
	if got := w.UI(); got.Link != PlacementBottomRight || got.ContextMenu.Items[0] != CopyCoords {
		t.Errorf("mutating a returned UI changed the world: %+v", got)
	}

	w.SetUI(ui)
	ui.ContextMenu.Items[1] = CenterMap
	if got := w.UI().ContextMenu.Items[1]; got != CopyLink {
		t.Errorf("mutating the UI after SetUI changed the world: items[1] = %s", got)
	}
}

func TestWorldSettings_IndependentInstances(t *testing.T) {
	a := New("world", "World", "overworld", 0, []string{"flat"})
	b := New("world", "World", "overworld", 0, []string{"flat"})

	if a == b {
		t.Fatalf("instances must be distinct")
	}
	if !a.Equal(b) {
		t.Fatalf("instances with equal fields must be equal")
	}

	ui := a.UI()
	ui.Attribution = false
	ui.ContextMenu.Items = nil
	a.SetUI(ui)

	if !b.UI().Attribution || len(b.UI().ContextMenu.Items) != 3 {
		t.Errorf("mutating one world's ui changed the other")
	}
	if a.Equal(b) {
		t.Errorf("worlds should differ after the change")
	}
}

func TestWorldSettings_Clone(t *testing.T) {
	w := New("world", "World", "overworld", 0, []string{"flat"})
	w.SetSpawn(Spawn{X: 10, Z: 20})
	ui := w.UI()
	ui.ContextMenu.CustomHTML = ContextMenuCustomHTML{HTML: "<b>x</b>"}
	w.SetUI(ui)

	c := w.Clone()
	if !c.Equal(w) {
		t.Fatalf("clone differs from original")
	}
	c.SetSpawn(Spawn{X: 1, Z: 1})
	if w.Spawn() != (Spawn{X: 10, Z: 20}) {
		t.Errorf("clone shares state with the original")
	}
}

func TestWorldSettings_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(w *WorldSettings)
		wantErr bool
	}{
		{
			name:   "defaults",
			mutate: func(w *WorldSettings) {},
		},
		{
			name:   "zoom at the outer bound",
			mutate: func(w *WorldSettings) { w.SetZoom(Zoom{Default: -3, MaxOut: 3, MaxIn: 2}) },
		},
		{
			name:    "default zoom beyond maxIn",
			mutate:  func(w *WorldSettings) { w.SetZoom(Zoom{Default: 3, MaxOut: 3, MaxIn: 2}) },
			wantErr: true,
		},
		{
			name:    "default zoom beyond maxOut",
			mutate:  func(w *WorldSettings) { w.SetZoom(Zoom{Default: -4, MaxOut: 3, MaxIn: 2}) },
			wantErr: true,
		},
		{
			name:    "negative maxIn",
			mutate:  func(w *WorldSettings) { w.SetZoom(Zoom{Default: 0, MaxOut: 3, MaxIn: -1}) },
			wantErr: true,
		},
		{
			name:    "zero interval",
			mutate:  func(w *WorldSettings) { w.SetTileUpdateInterval(0) },
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := New("world", "World", "overworld", 0, []string{"flat"})
			tt.mutate(w)
			err := w.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !IsInvalid(err) {
				t.Errorf("Validate() error = %v, want InvalidConfigValue", err)
			}
		})
	}

	if err := New("", "World", "overworld", 0, nil).Validate(); !IsInvalid(err) {
		t.Errorf("empty name: error = %v, want InvalidConfigValue", err)
	}
}

func TestContextMenuCustomHTML_Active(t *testing.T) {
	c := ContextMenuCustomHTML{Enabled: false, HTML: "<div/>", CSS: "div{}"}
	if _, _, ok := c.Active(); ok {
		t.Errorf("disabled custom html must be inert")
	}
	c.Enabled = true
	html, css, ok := c.Active()
	if !ok || html != "<div/>" || css != "div{}" {
		t.Errorf("Active() = %q, %q, %v", html, css, ok)
	}
}
