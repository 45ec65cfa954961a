package registry

import (
	// Std
	"sort"

	// Mapconfig
	"github.com/momentum-xyz/mapconfig/internal/logger"
	"github.com/momentum-xyz/mapconfig/pkg/worldsettings"

	// Third-Party
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sasha-s/go-deadlock"
)

var log = logger.L().With("package", "registry")

var ErrUnknownWorld = errors.New("unknown world")

// Snapshot is an immutable view of the registry at one revision.
type Snapshot struct {
	Revision uuid.UUID
	Worlds   []*worldsettings.WorldSettings
}

// Listener is called after every change with the new snapshot. Listeners
// run synchronously, in registration order, outside the read lock, and see
// snapshots in revision order. They must not modify the registry.
type Listener func(s Snapshot)

// Registry is the live set of worlds served to renderers.
type Registry struct {
	// notifyMu spans a change and its notification, mu only the change.
	notifyMu  deadlock.Mutex
	mu        deadlock.RWMutex
	worlds    map[string]*worldsettings.WorldSettings
	revision  uuid.UUID
	listeners []Listener
}

func New() *Registry {
	return &Registry{
		worlds:   make(map[string]*worldsettings.WorldSettings),
		revision: uuid.Nil,
	}
}

func (r *Registry) Subscribe(l Listener) {
	r.mu.Lock()
	r.listeners = append(r.listeners, l)
	r.mu.Unlock()
}

// Replace swaps in a whole new set of worlds. Names must be unique; the
// loader guarantees that, Replace only checks it.
func (r *Registry) Replace(worlds []*worldsettings.WorldSettings) (Snapshot, error) {
	next := make(map[string]*worldsettings.WorldSettings, len(worlds))
	for _, w := range worlds {
		if _, ok := next[w.Name()]; ok {
			return Snapshot{}, errors.WithMessagef(worldsettings.ErrDuplicateWorldName, "%q", w.Name())
		}
		next[w.Name()] = w
	}

	r.notifyMu.Lock()
	defer r.notifyMu.Unlock()

	r.mu.Lock()
	r.worlds = next
	r.revision = uuid.New()
	snap := r.snapshotLocked()
	listeners := r.listeners
	r.mu.Unlock()

	log.Infof("registry: revision %s with %d worlds", snap.Revision, len(snap.Worlds))
	r.notify(listeners, snap)
	return snap, nil
}

// Apply applies an override document to a copy of one world and swaps the
// copy in. The world keeps its current settings when the result does not
// validate.
func (r *Registry) Apply(name string, ov worldsettings.Overrides) (Snapshot, error) {
	r.notifyMu.Lock()
	defer r.notifyMu.Unlock()

	r.mu.Lock()
	w, ok := r.worlds[name]
	if !ok {
		r.mu.Unlock()
		return Snapshot{}, errors.WithMessagef(ErrUnknownWorld, "%q", name)
	}

	candidate := w.Clone()
	candidate.Apply(ov)
	if err := candidate.Validate(); err != nil {
		r.mu.Unlock()
		return Snapshot{}, err
	}
	r.worlds[name] = candidate

	r.revision = uuid.New()
	snap := r.snapshotLocked()
	listeners := r.listeners
	r.mu.Unlock()

	log.Infof("registry: world %s updated, revision %s", name, snap.Revision)
	r.notify(listeners, snap)
	return snap, nil
}

// Put swaps in a new version of a world already in the registry.
func (r *Registry) Put(w *worldsettings.WorldSettings) (Snapshot, error) {
	r.notifyMu.Lock()
	defer r.notifyMu.Unlock()

	r.mu.Lock()
	if _, ok := r.worlds[w.Name()]; !ok {
		r.mu.Unlock()
		return Snapshot{}, errors.WithMessagef(ErrUnknownWorld, "%q", w.Name())
	}
	r.worlds[w.Name()] = w
	r.revision = uuid.New()
	snap := r.snapshotLocked()
	listeners := r.listeners
	r.mu.Unlock()

	log.Infof("registry: world %s replaced, revision %s", w.Name(), snap.Revision)
	r.notify(listeners, snap)
	return snap, nil
}

// Deliver calls l with the current snapshot, ordered with the regular
// notifications.
func (r *Registry) Deliver(l Listener) {
	r.notifyMu.Lock()
	defer r.notifyMu.Unlock()
	l(r.Snapshot())
}

func (r *Registry) Get(name string) (*worldsettings.WorldSettings, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	w, ok := r.worlds[name]
	return w, ok
}

// List returns the worlds sorted by display order, then name.
func (r *Registry) List() []*worldsettings.WorldSettings {
	return r.Snapshot().Worlds
}

func (r *Registry) Revision() uuid.UUID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.revision
}

func (r *Registry) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshotLocked()
}

func (r *Registry) snapshotLocked() Snapshot {
	worlds := make([]*worldsettings.WorldSettings, 0, len(r.worlds))
	for _, w := range r.worlds {
		worlds = append(worlds, w)
	}
	SortWorlds(worlds)
	return Snapshot{Revision: r.revision, Worlds: worlds}
}

func (r *Registry) notify(listeners []Listener, snap Snapshot) {
	for _, l := range listeners {
		l(snap)
	}
}

func SortWorlds(worlds []*worldsettings.WorldSettings) {
	sort.SliceStable(worlds, func(i, j int) bool {
		if worlds[i].Order() != worlds[j].Order() {
			return worlds[i].Order() < worlds[j].Order()
		}
		return worlds[i].Name() < worlds[j].Name()
	})
}
