package world

import (
	"path/filepath"
	"testing"

	"github.com/momentum-xyz/mapconfig/internal/config"
	dbstorage "github.com/momentum-xyz/mapconfig/internal/storage"
	"github.com/momentum-xyz/mapconfig/utils"

	"github.com/pkg/errors"
)

func openStorage(t *testing.T) Storage {
	t.Helper()
	cfg := config.Storage{
		Driver: config.DriverSQLite,
		SQLite: config.SQLite{Path: filepath.Join(t.TempDir(), "overrides.sqlite")},
	}
	db, err := dbstorage.OpenDB(&cfg)
	if err != nil {
		t.Fatalf("OpenDB() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := dbstorage.MigrateDb(db); err != nil {
		t.Fatalf("MigrateDb() error = %v", err)
	}
	// migrations are idempotent
	if err := dbstorage.MigrateDb(db); err != nil {
		t.Fatalf("second MigrateDb() error = %v", err)
	}
	return NewStorage(db.DB)
}

func TestStorage_Overrides(t *testing.T) {
	s := openStorage(t)

	if _, err := s.GetOverride("world"); !errors.Is(err, utils.ErrNotFound) {
		t.Fatalf("GetOverride() error = %v, want ErrNotFound", err)
	}

	if err := s.SaveOverride("world", []byte(`{"spawn":{"x":1,"z":2}}`)); err != nil {
		t.Fatalf("SaveOverride() error = %v", err)
	}
	if err := s.SaveOverride("nether", []byte(`{"tileUpdateInterval":9}`)); err != nil {
		t.Fatalf("SaveOverride() error = %v", err)
	}
	if err := s.SaveOverride("world", []byte(`{"spawn":{"x":3,"z":4}}`)); err != nil {
		t.Fatalf("SaveOverride() upsert error = %v", err)
	}

	o, err := s.GetOverride("world")
	if err != nil {
		t.Fatalf("GetOverride() error = %v", err)
	}
	if o.Document != `{"spawn":{"x":3,"z":4}}` || o.UpdatedAt == 0 {
		t.Errorf("GetOverride() = %+v", o)
	}

	all, err := s.GetOverrides()
	if err != nil {
		t.Fatalf("GetOverrides() error = %v", err)
	}
	if len(all) != 2 || string(all["nether"]) != `{"tileUpdateInterval":9}` {
		t.Errorf("GetOverrides() = %v", all)
	}

	if err := s.RemoveOverride("world"); err != nil {
		t.Fatalf("RemoveOverride() error = %v", err)
	}
	if err := s.RemoveOverride("world"); err != nil {
		t.Fatalf("RemoveOverride() of a missing row error = %v", err)
	}
	all, _ = s.GetOverrides()
	if _, ok := all["world"]; ok || len(all) != 1 {
		t.Errorf("GetOverrides() after remove = %v", all)
	}
}

func TestOpenDB_UnknownDriver(t *testing.T) {
	if _, err := dbstorage.OpenDB(&config.Storage{Driver: "oracle"}); err == nil {
		t.Errorf("OpenDB() should reject unknown drivers")
	}
}
