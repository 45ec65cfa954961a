package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/momentum-xyz/mapconfig/internal/logger"
	"github.com/momentum-xyz/mapconfig/pkg/worldsettings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.etcd.io/bbolt"
)

var (
	worldsBucket = []byte("worlds")
	metaBucket   = []byte("meta")
	revisionKey  = []byte("revision")
)

var log = logger.L().With("package", "cache")

// Store keeps the last registry revision that went live, so the service can
// come up when the worlds file is broken.
type Store struct {
	db *bbolt.DB
}

func Open(file string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
		return nil, errors.WithMessage(err, "failed to create cache dir")
	}
	db, err := bbolt.Open(file, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, errors.WithMessagef(err, "failed to open bbolt storage file %s", file)
	}

	err = db.Update(
		func(tx *bbolt.Tx) error {
			for _, b := range [][]byte{worldsBucket, metaBucket} {
				if _, err := tx.CreateBucketIfNotExists(b); err != nil {
					return errors.WithMessagef(err, "create bucket %s", b)
				}
			}
			return nil
		},
	)
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Save replaces the cached worlds with the given revision.
func (s *Store) Save(revision uuid.UUID, worlds []*worldsettings.WorldSettings) error {
	encoded := make(map[string][]byte, len(worlds))
	for _, w := range worlds {
		data, err := json.Marshal(w)
		if err != nil {
			return errors.WithMessagef(err, "failed to encode world %s", w.Name())
		}
		encoded[w.Name()] = data
	}

	err := s.db.Update(
		func(tx *bbolt.Tx) error {
			if err := tx.DeleteBucket(worldsBucket); err != nil && err != bbolt.ErrBucketNotFound {
				return err
			}
			bb, err := tx.CreateBucket(worldsBucket)
			if err != nil {
				return err
			}
			for name, data := range encoded {
				if err := bb.Put([]byte(name), data); err != nil {
					return err
				}
			}
			return tx.Bucket(metaBucket).Put(revisionKey, revision[:])
		},
	)
	if err != nil {
		return errors.WithMessage(err, "failed to update cache")
	}

	log.Debugf("cache: saved revision %s with %d worlds", revision, len(worlds))
	return nil
}

// Load returns the cached revision and its worlds. Entries that no longer
// decode are skipped and logged.
func (s *Store) Load() (uuid.UUID, []*worldsettings.WorldSettings, error) {
	revision := uuid.Nil
	var worlds []*worldsettings.WorldSettings

	err := s.db.View(
		func(tx *bbolt.Tx) error {
			if raw := tx.Bucket(metaBucket).Get(revisionKey); raw != nil {
				id, err := uuid.FromBytes(raw)
				if err != nil {
					return errors.WithMessage(err, "failed to parse revision")
				}
				revision = id
			}
			return tx.Bucket(worldsBucket).ForEach(
				func(k, v []byte) error {
					w, err := worldsettings.Decode(v)
					if err != nil {
						log.Warn(errors.WithMessagef(err, "cache: dropping world %s", k))
						return nil
					}
					worlds = append(worlds, w)
					return nil
				},
			)
		},
	)
	if err != nil {
		return uuid.Nil, nil, errors.WithMessage(err, "failed to read cache")
	}
	return revision, worlds, nil
}
