package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/comitanigiacomo/kanso-challenge-engine/internal/core/domain"
)

var _ domain.TaskRepository = (*SQLTaskRepository)(nil)

const taskColumns = `id, challenge_id, name, description, type, frequency, target_value, unit,
	scheduled_time, position, created_at, updated_at, is_deleted, deleted_at`

type SQLTaskRepository struct {
	db *sqlx.DB
}

func NewSQLTaskRepository(db *sqlx.DB) *SQLTaskRepository {
	return &SQLTaskRepository{db: db}
}

func insertTask(ctx context.Context, ex execer, t *domain.Task) error {
	query := `
		INSERT INTO tasks (` + taskColumns + `) VALUES (
			:id, :challenge_id, :name, :description, :type, :frequency, :target_value, :unit,
			:scheduled_time, :position, :created_at, :updated_at, :is_deleted, :deleted_at
		)`

	if _, err := ex.NamedExecContext(ctx, query, t); err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict
		}
		return translate("task.create", "task", t.ID, err)
	}
	return nil
}

func (r *SQLTaskRepository) Create(ctx context.Context, t *domain.Task) error {
	if err := t.Validate(); err != nil {
		return err
	}
	return insertTask(ctx, r.db, t)
}

func (r *SQLTaskRepository) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	var t domain.Task
	query := r.db.Rebind(`SELECT ` + taskColumns + ` FROM tasks WHERE id = ? AND is_deleted = FALSE`)

	if err := r.db.GetContext(ctx, &t, query, id); err != nil {
		return nil, translate("task.get", "task", id, err)
	}
	return &t, nil
}

func (r *SQLTaskRepository) ListByChallengeIDs(ctx context.Context, challengeIDs []string) (map[string][]*domain.Task, error) {
	out := make(map[string][]*domain.Task)
	if len(challengeIDs) == 0 {
		return out, nil
	}

	query, args, err := sqlx.In(`
		SELECT `+taskColumns+` FROM tasks
		WHERE challenge_id IN (?) AND is_deleted = FALSE
		ORDER BY challenge_id, position ASC`, challengeIDs)
	if err != nil {
		return nil, domain.NewPersistenceError("task.list", err)
	}

	tasks := []*domain.Task{}
	if err := r.db.SelectContext(ctx, &tasks, r.db.Rebind(query), args...); err != nil {
		return nil, translate("task.list", "task", "", err)
	}

	for _, t := range tasks {
		out[t.ChallengeID] = append(out[t.ChallengeID], t)
	}
	return out, nil
}

func (r *SQLTaskRepository) Update(ctx context.Context, t *domain.Task) error {
	if err := t.Validate(); err != nil {
		return err
	}

	query := `
		UPDATE tasks SET
			name = :name, description = :description, type = :type, frequency = :frequency,
			target_value = :target_value, unit = :unit, scheduled_time = :scheduled_time,
			position = :position, updated_at = :updated_at
		WHERE id = :id AND is_deleted = FALSE`

	res, err := r.db.NamedExecContext(ctx, query, t)
	if err != nil {
		return translate("task.update", "task", t.ID, err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return domain.NewPersistenceError("task.update", err)
	}
	if rows == 0 {
		return domain.NewNotFound("task", t.ID)
	}
	return nil
}

func (r *SQLTaskRepository) Delete(ctx context.Context, id string) error {
	now := time.Now().UTC()
	query := r.db.Rebind(`
		UPDATE tasks SET is_deleted = TRUE, deleted_at = ?, updated_at = ?
		WHERE id = ? AND is_deleted = FALSE`)

	res, err := r.db.ExecContext(ctx, query, now, now, id)
	if err != nil {
		return translate("task.delete", "task", id, err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return domain.NewPersistenceError("task.delete", err)
	}
	if rows == 0 {
		return domain.NewNotFound("task", id)
	}
	return nil
}
