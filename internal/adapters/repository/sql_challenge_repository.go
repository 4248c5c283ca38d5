package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/comitanigiacomo/kanso-challenge-engine/internal/core/domain"
)

var _ domain.ChallengeRepository = (*SQLChallengeRepository)(nil)

const challengeColumns = `id, user_id, type, name, description, start_date, end_date,
	duration_days, status, progress, version, created_at, updated_at, is_deleted, deleted_at`

type SQLChallengeRepository struct {
	db *sqlx.DB
}

func NewSQLChallengeRepository(db *sqlx.DB) *SQLChallengeRepository {
	return &SQLChallengeRepository{db: db}
}

func (r *SQLChallengeRepository) Create(ctx context.Context, c *domain.Challenge) error {
	if err := c.Validate(); err != nil {
		return err
	}
	for _, t := range c.Tasks {
		if err := t.Validate(); err != nil {
			return err
		}
	}

	if c.Version == 0 {
		c.Version = 1
	}

	query := `
		INSERT INTO challenges (` + challengeColumns + `) VALUES (
			:id, :user_id, :type, :name, :description, :start_date, :end_date,
			:duration_days, :status, :progress, :version, :created_at, :updated_at, :is_deleted, :deleted_at
		)`

	return withTx(ctx, r.db, "challenge.create", func(tx *sqlx.Tx) error {
		if _, err := tx.NamedExecContext(ctx, query, c); err != nil {
			if isUniqueViolation(err) {
				return domain.ErrConflict
			}
			return translate("challenge.create", "challenge", c.ID, err)
		}
		for _, t := range c.Tasks {
			if err := insertTask(ctx, tx, t); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *SQLChallengeRepository) GetByID(ctx context.Context, id string) (*domain.Challenge, error) {
	var c domain.Challenge
	query := r.db.Rebind(`SELECT ` + challengeColumns + ` FROM challenges WHERE id = ? AND is_deleted = FALSE`)

	if err := r.db.GetContext(ctx, &c, query, id); err != nil {
		return nil, translate("challenge.get", "challenge", id, err)
	}
	return &c, nil
}

func (r *SQLChallengeRepository) GetRawByID(ctx context.Context, id string) (*domain.Challenge, error) {
	var c domain.Challenge
	query := r.db.Rebind(`SELECT ` + challengeColumns + ` FROM challenges WHERE id = ?`)

	if err := r.db.GetContext(ctx, &c, query, id); err != nil {
		return nil, translate("challenge.get_raw", "challenge", id, err)
	}
	return &c, nil
}

func (r *SQLChallengeRepository) ListByUserID(ctx context.Context, userID string) ([]*domain.Challenge, error) {
	challenges := []*domain.Challenge{}
	query := r.db.Rebind(`
		SELECT ` + challengeColumns + ` FROM challenges
		WHERE user_id = ? AND is_deleted = FALSE
		ORDER BY created_at DESC`)

	if err := r.db.SelectContext(ctx, &challenges, query, userID); err != nil {
		return nil, translate("challenge.list", "challenge", userID, err)
	}
	return challenges, nil
}

func (r *SQLChallengeRepository) ListInProgress(ctx context.Context, userID string) ([]*domain.Challenge, error) {
	challenges := []*domain.Challenge{}
	query := `SELECT ` + challengeColumns + ` FROM challenges WHERE status = ? AND is_deleted = FALSE`
	args := []interface{}{domain.ChallengeInProgress}
	if userID != "" {
		query += ` AND user_id = ?`
		args = append(args, userID)
	}
	query += ` ORDER BY created_at DESC`

	if err := r.db.SelectContext(ctx, &challenges, r.db.Rebind(query), args...); err != nil {
		return nil, translate("challenge.list_in_progress", "challenge", userID, err)
	}
	return challenges, nil
}

func (r *SQLChallengeRepository) Update(ctx context.Context, c *domain.Challenge) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if err := updateChallenge(ctx, r.db, "challenge.update", c); err != nil {
		return err
	}

	c.Version++
	return nil
}

func (r *SQLChallengeRepository) Stop(ctx context.Context, c *domain.Challenge) error {
	if err := c.Validate(); err != nil {
		return err
	}

	err := withTx(ctx, r.db, "challenge.stop", func(tx *sqlx.Tx) error {
		if err := updateChallenge(ctx, tx, "challenge.stop", c); err != nil {
			return err
		}
		query := tx.Rebind(`DELETE FROM daily_tasks WHERE challenge_id = ?`)
		if _, err := tx.ExecContext(ctx, query, c.ID); err != nil {
			return translate("challenge.stop", "challenge", c.ID, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	c.Version++
	return nil
}

// updateChallenge writes c if its version matches. It leaves c.Version
// alone so a caller inside a transaction only bumps it after commit.
func updateChallenge(ctx context.Context, ex sqlx.ExtContext, op string, c *domain.Challenge) error {
	query := ex.Rebind(`
		UPDATE challenges SET
			type = ?, name = ?, description = ?, start_date = ?, end_date = ?,
			duration_days = ?, status = ?, progress = ?, updated_at = ?,
			version = version + 1
		WHERE id = ? AND version = ? AND is_deleted = FALSE`)

	res, err := ex.ExecContext(ctx, query,
		c.Type, c.Name, c.Description, c.StartDate, c.EndDate,
		c.DurationDays, c.Status, c.Progress, c.UpdatedAt,
		c.ID, c.Version,
	)
	if err != nil {
		return translate(op, "challenge", c.ID, err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return domain.NewPersistenceError(op, err)
	}
	if rows == 0 {
		exists, err := challengeExists(ctx, ex, c.ID)
		if err != nil {
			return err
		}
		if !exists {
			return domain.NewNotFound("challenge", c.ID)
		}
		return domain.ErrConflict
	}
	return nil
}

func (r *SQLChallengeRepository) Delete(ctx context.Context, id string) error {
	now := time.Now().UTC()
	query := r.db.Rebind(`
		UPDATE challenges
		SET is_deleted = TRUE, deleted_at = ?, updated_at = ?, version = version + 1
		WHERE id = ? AND is_deleted = FALSE`)

	res, err := r.db.ExecContext(ctx, query, now, now, id)
	if err != nil {
		return translate("challenge.delete", "challenge", id, err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return domain.NewPersistenceError("challenge.delete", err)
	}
	if rows == 0 {
		return domain.NewNotFound("challenge", id)
	}
	return nil
}

func (r *SQLChallengeRepository) GetChanges(ctx context.Context, userID string, since time.Time) ([]*domain.Challenge, error) {
	challenges := []*domain.Challenge{}
	query := r.db.Rebind(`
		SELECT ` + challengeColumns + ` FROM challenges
		WHERE user_id = ? AND updated_at > ?
		ORDER BY updated_at ASC`)

	if err := r.db.SelectContext(ctx, &challenges, query, userID, since.UTC()); err != nil {
		return nil, translate("challenge.changes", "challenge", userID, err)
	}
	return challenges, nil
}

// challengeExists reports whether a live row with id is stored.
func challengeExists(ctx context.Context, ex sqlx.ExtContext, id string) (bool, error) {
	var count int
	query := ex.Rebind(`SELECT count(*) FROM challenges WHERE id = ? AND is_deleted = FALSE`)
	if err := sqlx.GetContext(ctx, ex, &count, query, id); err != nil {
		return false, domain.NewPersistenceError("challenge.exists", err)
	}
	return count > 0, nil
}
