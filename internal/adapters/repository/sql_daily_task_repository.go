package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/comitanigiacomo/kanso-challenge-engine/internal/core/domain"
)

var _ domain.DailyTaskRepository = (*SQLDailyTaskRepository)(nil)

const dailyTaskColumns = `id, task_id, challenge_id, user_id, date, status, actual_value,
	completed_at, notes, version, created_at, updated_at`

type SQLDailyTaskRepository struct {
	db *sqlx.DB
}

func NewSQLDailyTaskRepository(db *sqlx.DB) *SQLDailyTaskRepository {
	return &SQLDailyTaskRepository{db: db}
}

func (r *SQLDailyTaskRepository) CreateBatch(ctx context.Context, tasks []*domain.DailyTask) (int, error) {
	for _, dt := range tasks {
		if err := dt.Validate(); err != nil {
			return 0, err
		}
	}
	if len(tasks) == 0 {
		return 0, nil
	}

	query := `
		INSERT INTO daily_tasks (` + dailyTaskColumns + `) VALUES (
			:id, :task_id, :challenge_id, :user_id, :date, :status, :actual_value,
			:completed_at, :notes, :version, :created_at, :updated_at
		)
		ON CONFLICT (task_id, date) DO NOTHING`

	inserted := 0
	err := withTx(ctx, r.db, "daily_task.create_batch", func(tx *sqlx.Tx) error {
		for _, dt := range tasks {
			res, err := tx.NamedExecContext(ctx, query, dt)
			if err != nil {
				return translate("daily_task.create_batch", "daily task", dt.ID, err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return domain.NewPersistenceError("daily_task.create_batch", err)
			}
			inserted += int(n)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

func (r *SQLDailyTaskRepository) GetByID(ctx context.Context, id string) (*domain.DailyTask, error) {
	var dt domain.DailyTask
	query := r.db.Rebind(`SELECT ` + dailyTaskColumns + ` FROM daily_tasks WHERE id = ?`)

	if err := r.db.GetContext(ctx, &dt, query, id); err != nil {
		return nil, translate("daily_task.get", "daily task", id, err)
	}
	return &dt, nil
}

func (r *SQLDailyTaskRepository) ListByDate(ctx context.Context, userID string, date time.Time) ([]*domain.DailyTask, error) {
	query := `SELECT ` + dailyTaskColumns + ` FROM daily_tasks WHERE date = ?`
	args := []interface{}{domain.Day(date)}
	if userID != "" {
		query += ` AND user_id = ?`
		args = append(args, userID)
	}
	query += ` ORDER BY created_at ASC`

	return r.selectList(ctx, "daily_task.list_by_date", query, args...)
}

func (r *SQLDailyTaskRepository) ListByChallengeID(ctx context.Context, challengeID string, from, to time.Time) ([]*domain.DailyTask, error) {
	query := `
		SELECT ` + dailyTaskColumns + ` FROM daily_tasks
		WHERE challenge_id = ? AND date >= ? AND date <= ?
		ORDER BY date ASC, created_at ASC`

	return r.selectList(ctx, "daily_task.list_by_challenge", query, challengeID, domain.Day(from), domain.Day(to))
}

func (r *SQLDailyTaskRepository) ListOpenBefore(ctx context.Context, userID string, date time.Time) ([]*domain.DailyTask, error) {
	query := `SELECT ` + dailyTaskColumns + ` FROM daily_tasks WHERE date < ? AND status IN (?, ?)`
	args := []interface{}{domain.Day(date), domain.DailyNotStarted, domain.DailyInProgress}
	if userID != "" {
		query += ` AND user_id = ?`
		args = append(args, userID)
	}
	query += ` ORDER BY date ASC`

	return r.selectList(ctx, "daily_task.list_open", query, args...)
}

func (r *SQLDailyTaskRepository) selectList(ctx context.Context, op, query string, args ...interface{}) ([]*domain.DailyTask, error) {
	list := []*domain.DailyTask{}
	if err := r.db.SelectContext(ctx, &list, r.db.Rebind(query), args...); err != nil {
		return nil, translate(op, "daily task", "", err)
	}
	return list, nil
}

func (r *SQLDailyTaskRepository) Update(ctx context.Context, dt *domain.DailyTask) error {
	if err := dt.Validate(); err != nil {
		return err
	}

	query := r.db.Rebind(`
		UPDATE daily_tasks SET
			status = ?, actual_value = ?, completed_at = ?, notes = ?, updated_at = ?,
			version = version + 1
		WHERE id = ? AND version = ?`)

	res, err := r.db.ExecContext(ctx, query,
		dt.Status, dt.ActualValue, dt.CompletedAt, dt.Notes, dt.UpdatedAt,
		dt.ID, dt.Version,
	)
	if err != nil {
		return translate("daily_task.update", "daily task", dt.ID, err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return domain.NewPersistenceError("daily_task.update", err)
	}
	if rows == 0 {
		var count int
		check := r.db.Rebind(`SELECT count(*) FROM daily_tasks WHERE id = ?`)
		if err := r.db.GetContext(ctx, &count, check, dt.ID); err != nil {
			return domain.NewPersistenceError("daily_task.exists", err)
		}
		if count == 0 {
			return domain.NewNotFound("daily task", dt.ID)
		}
		return domain.ErrConflict
	}

	dt.Version++
	return nil
}

func (r *SQLDailyTaskRepository) GetChanges(ctx context.Context, userID string, since time.Time) ([]*domain.DailyTask, error) {
	query := `
		SELECT ` + dailyTaskColumns + ` FROM daily_tasks
		WHERE user_id = ? AND updated_at > ?
		ORDER BY updated_at ASC`

	return r.selectList(ctx, "daily_task.changes", query, userID, since.UTC())
}
