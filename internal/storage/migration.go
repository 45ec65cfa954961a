package storage

import (
	"github.com/pkg/errors"
)

const createWorldOverridesQuery = `CREATE TABLE IF NOT EXISTS world_overrides (
	name VARCHAR(255) NOT NULL PRIMARY KEY,
	document TEXT NOT NULL,
	updated_at BIGINT NOT NULL
);`

func MigrateDb(DB *Database) error {
	log.Info("Check for DB migrations...")
	if _, err := DB.Exec(createWorldOverridesQuery); err != nil {
		return errors.WithMessage(err, "failed to create world_overrides")
	}
	return nil
}
