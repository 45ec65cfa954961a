package cache

import (
	"path/filepath"
	"testing"

	"github.com/momentum-xyz/mapconfig/pkg/worldsettings"

	"github.com/google/uuid"
)

func TestStore_SaveLoad(t *testing.T) {
	file := filepath.Join(t.TempDir(), "nested", "worlds.db")
	s, err := Open(file)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	rev, worlds, err := s.Load()
	if err != nil || rev != uuid.Nil || len(worlds) != 0 {
		t.Fatalf("empty Load() = %s %v %v", rev, worlds, err)
	}

	w := worldsettings.New("world", "World", "overworld", 0, []string{"basic"})
	w.SetSpawn(worldsettings.Spawn{X: 100, Z: -200})
	ui := w.UI()
	ui.ContextMenu.CustomHTML = worldsettings.ContextMenuCustomHTML{HTML: "<i>kept</i>"}
	w.SetUI(ui)
	nether := worldsettings.New("nether", "Nether", "nether", 1, []string{"basic"})

	first := uuid.New()
	if err := s.Save(first, []*worldsettings.WorldSettings{w, nether}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	second := uuid.New()
	if err := s.Save(second, []*worldsettings.WorldSettings{w}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	s, err = Open(file)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer s.Close()

	rev, worlds, err = s.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if rev != second {
		t.Errorf("revision = %s, want %s", rev, second)
	}
	if len(worlds) != 1 {
		t.Fatalf("worlds = %d, want 1 (save replaces the set)", len(worlds))
	}
	if !worlds[0].Equal(w) {
		t.Errorf("cached world differs from the saved one")
	}
}
