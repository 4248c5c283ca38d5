package repository

import (
	"context"
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"

	"github.com/comitanigiacomo/kanso-challenge-engine/internal/core/domain"
)

const (
	StoragePostgres = "postgres"
	StorageSQLite   = "sqlite"
	StorageMemory   = "memory"
)

// Repositories bundles one implementation of every repository port.
type Repositories struct {
	Challenges domain.ChallengeRepository
	Tasks      domain.TaskRepository
	DailyTasks domain.DailyTaskRepository
	Photos     domain.PhotoRepository
	Users      domain.UserRepository

	// DB is nil for the in-memory backend.
	DB *sqlx.DB
}

func NewSQLRepositories(db *sqlx.DB) *Repositories {
	return &Repositories{
		Challenges: NewSQLChallengeRepository(db),
		Tasks:      NewSQLTaskRepository(db),
		DailyTasks: NewSQLDailyTaskRepository(db),
		Photos:     NewSQLPhotoRepository(db),
		Users:      NewSQLUserRepository(db),
		DB:         db,
	}
}

func (s *MemoryStore) Repositories() *Repositories {
	return &Repositories{
		Challenges: s.Challenges(),
		Tasks:      s.Tasks(),
		DailyTasks: s.DailyTasks(),
		Photos:     s.Photos(),
		Users:      s.Users(),
	}
}

// OpenRepositories connects the chosen backend and applies the schema.
// dsn is ignored for memory.
func OpenRepositories(ctx context.Context, storage, dsn string) (*Repositories, error) {
	var driver string
	switch storage {
	case StorageMemory:
		log.Println("[CONFIG] Using in-memory storage, data is lost on restart")
		return NewMemoryStore().Repositories(), nil
	case StoragePostgres:
		driver = DriverPostgres
	case StorageSQLite:
		driver = DriverSQLite
	default:
		return nil, fmt.Errorf("unknown storage backend %q", storage)
	}

	db, err := Open(ctx, driver, dsn)
	if err != nil {
		return nil, err
	}
	if err := Migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return NewSQLRepositories(db), nil
}

func (r *Repositories) Close() error {
	if r.DB == nil {
		return nil
	}
	return r.DB.Close()
}
