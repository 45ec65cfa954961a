package world

import (
	"database/sql"
	"time"

	"github.com/momentum-xyz/mapconfig/internal/logger"
	"github.com/momentum-xyz/mapconfig/utils"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

const (
	selectOverridesQuery = `SELECT name, document, updated_at FROM world_overrides ORDER BY name;`
	selectOverrideQuery  = `SELECT name, document, updated_at FROM world_overrides WHERE name = ?;`
	upsertMySQLQuery     = `INSERT INTO world_overrides (name, document, updated_at) VALUES (?, ?, ?)
								ON DUPLICATE KEY UPDATE document = VALUES(document), updated_at = VALUES(updated_at);`
	upsertSQLiteQuery = `INSERT INTO world_overrides (name, document, updated_at) VALUES (?, ?, ?)
								ON CONFLICT(name) DO UPDATE SET document = excluded.document, updated_at = excluded.updated_at;`
	removeOverrideQuery = `DELETE FROM world_overrides WHERE name = ?;`
)

// Override is an admin supplied document applied on top of the worlds file.
type Override struct {
	Name      string `db:"name"`
	Document  string `db:"document"`
	UpdatedAt int64  `db:"updated_at"`
}

type Storage interface {
	GetOverrides() (map[string][]byte, error)
	GetOverride(name string) (*Override, error)
	SaveOverride(name string, document []byte) error
	RemoveOverride(name string) error
}

type storage struct {
	db *sqlx.DB
}

var log = logger.L()

func NewStorage(db *sqlx.DB) Storage {
	return &storage{
		db: db,
	}
}

func (s *storage) GetOverrides() (map[string][]byte, error) {
	var rows []Override
	if err := s.db.Select(&rows, selectOverridesQuery); err != nil {
		return nil, errors.WithMessage(err, "failed to query db")
	}

	overrides := make(map[string][]byte, len(rows))
	for _, o := range rows {
		overrides[o.Name] = []byte(o.Document)
	}
	return overrides, nil
}

func (s *storage) GetOverride(name string) (*Override, error) {
	var o Override
	if err := s.db.Get(&o, selectOverrideQuery, name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utils.ErrNotFound
		}
		return nil, errors.WithMessage(err, "failed to query db")
	}
	return &o, nil
}

func (s *storage) SaveOverride(name string, document []byte) error {
	query := upsertSQLiteQuery
	if s.db.DriverName() == "mysql" {
		query = upsertMySQLQuery
	}

	if _, err := s.db.Exec(query, name, string(document), time.Now().Unix()); err != nil {
		return errors.WithMessage(err, "failed to exec db")
	}

	log.Debugf("World storage: SaveOverride: %s", name)
	return nil
}

func (s *storage) RemoveOverride(name string) error {
	res, err := s.db.Exec(removeOverrideQuery, name)
	if err != nil {
		return errors.WithMessage(err, "failed to exec db")
	}

	var affected int64
	affected, err = res.RowsAffected()
	if err != nil {
		return nil
	}

	log.Debugf("World storage: RemoveOverride: %s, %d", name, affected)
	return nil
}
