package worldsettings

import (
	"time"

	"github.com/sasha-s/go-deadlock"
)

// DefaultTileUpdateInterval is the tile refresh period in seconds.
const DefaultTileUpdateInterval = 5

// WorldSettings is the per-world configuration handed to the map front-end.
//
// The identity fields are fixed by New. The nested settings can be replaced
// at any time; each setter swaps the whole value under the instance lock and
// each getter returns a copy, so a reader never sees a half-updated object.
type WorldSettings struct {
	name        string
	displayName string
	worldType   string
	order       int
	renderers   []string

	mu                 deadlock.RWMutex
	tileUpdateInterval int
	spawn              Spawn
	center             Center
	zoom               Zoom
	ui                 UI
}

// New builds settings for one world with every optional field at its default.
func New(name, displayName, worldType string, order int, renderers []string) *WorldSettings {
	r := make([]string, len(renderers))
	copy(r, renderers)

	return &WorldSettings{
		name:               name,
		displayName:        displayName,
		worldType:          worldType,
		order:              order,
		renderers:          r,
		tileUpdateInterval: DefaultTileUpdateInterval,
		spawn:              DefaultSpawn(),
		center:             DefaultCenter(),
		zoom:               DefaultZoom(),
		ui:                 DefaultUI(),
	}
}

func (w *WorldSettings) Name() string {
	return w.name
}

func (w *WorldSettings) DisplayName() string {
	return w.displayName
}

func (w *WorldSettings) Type() string {
	return w.worldType
}

func (w *WorldSettings) Order() int {
	return w.order
}

// Renderers returns the renderer identifiers in configured order.
func (w *WorldSettings) Renderers() []string {
	r := make([]string, len(w.renderers))
	copy(r, w.renderers)
	return r
}

func (w *WorldSettings) TileUpdateInterval() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.tileUpdateInterval
}

// TileUpdatePeriod is TileUpdateInterval as a duration.
func (w *WorldSettings) TileUpdatePeriod() time.Duration {
	return time.Duration(w.TileUpdateInterval()) * time.Second
}

func (w *WorldSettings) SetTileUpdateInterval(seconds int) {
	w.mu.Lock()
	w.tileUpdateInterval = seconds
	w.mu.Unlock()
}

func (w *WorldSettings) Spawn() Spawn {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.spawn
}

func (w *WorldSettings) SetSpawn(s Spawn) {
	w.mu.Lock()
	w.spawn = s
	w.mu.Unlock()
}

func (w *WorldSettings) Center() Center {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.center
}

func (w *WorldSettings) SetCenter(c Center) {
	w.mu.Lock()
	w.center = c
	w.mu.Unlock()
}

func (w *WorldSettings) Zoom() Zoom {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.zoom
}

func (w *WorldSettings) SetZoom(z Zoom) {
	w.mu.Lock()
	w.zoom = z
	w.mu.Unlock()
}

// UI returns a deep copy; changes to it take effect only through SetUI.
func (w *WorldSettings) UI() UI {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.ui.Clone()
}

func (w *WorldSettings) SetUI(u UI) {
	u = u.Clone()
	w.mu.Lock()
	w.ui = u
	w.mu.Unlock()
}

// Validate runs the checks a loader has to perform before a world goes live.
// Setters never validate.
func (w *WorldSettings) Validate() error {
	if w.name == "" {
		return invalidf("name: empty")
	}
	if interval := w.TileUpdateInterval(); interval <= 0 {
		return invalidf("tileUpdateInterval: %d is not positive", interval)
	}
	return w.Zoom().Validate()
}

// Clone returns an independent copy with the same field values.
func (w *WorldSettings) Clone() *WorldSettings {
	s := w.snapshot()
	c := New(s.Name, s.DisplayName, s.Type, s.Order, s.Renderers)
	c.tileUpdateInterval = s.TileUpdateInterval
	c.spawn = s.Spawn
	c.center = s.Center
	c.zoom = s.Zoom
	c.ui = s.UI
	return c
}

// Equal reports structural equality.
func (w *WorldSettings) Equal(o *WorldSettings) bool {
	if w == o {
		return true
	}
	if w == nil || o == nil {
		return false
	}
	a, b := w.snapshot(), o.snapshot()
	if a.Name != b.Name || a.DisplayName != b.DisplayName || a.Type != b.Type || a.Order != b.Order {
		return false
	}
	if len(a.Renderers) != len(b.Renderers) {
		return false
	}
	for i := range a.Renderers {
		if a.Renderers[i] != b.Renderers[i] {
			return false
		}
	}
	return a.TileUpdateInterval == b.TileUpdateInterval &&
		a.Spawn == b.Spawn &&
		a.Center == b.Center &&
		a.Zoom == b.Zoom &&
		a.UI.Equal(b.UI)
}
