package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/comitanigiacomo/kanso-challenge-engine/internal/core/domain"
)

var _ domain.PhotoRepository = (*SQLPhotoRepository)(nil)

const photoColumns = `id, user_id, challenge_id, daily_task_id, taken_on, storage_key, caption,
	created_at, is_deleted, deleted_at`

type SQLPhotoRepository struct {
	db *sqlx.DB
}

func NewSQLPhotoRepository(db *sqlx.DB) *SQLPhotoRepository {
	return &SQLPhotoRepository{db: db}
}

func (r *SQLPhotoRepository) Create(ctx context.Context, p *domain.Photo) error {
	if err := p.Validate(); err != nil {
		return err
	}

	query := `
		INSERT INTO photos (` + photoColumns + `) VALUES (
			:id, :user_id, :challenge_id, :daily_task_id, :taken_on, :storage_key, :caption,
			:created_at, :is_deleted, :deleted_at
		)`

	if _, err := r.db.NamedExecContext(ctx, query, p); err != nil {
		return translate("photo.create", "photo", p.ID, err)
	}
	return nil
}

func (r *SQLPhotoRepository) GetByID(ctx context.Context, id string) (*domain.Photo, error) {
	var p domain.Photo
	query := r.db.Rebind(`SELECT ` + photoColumns + ` FROM photos WHERE id = ? AND is_deleted = FALSE`)

	if err := r.db.GetContext(ctx, &p, query, id); err != nil {
		return nil, translate("photo.get", "photo", id, err)
	}
	return &p, nil
}

func (r *SQLPhotoRepository) GetRawByID(ctx context.Context, id string) (*domain.Photo, error) {
	var p domain.Photo
	query := r.db.Rebind(`SELECT ` + photoColumns + ` FROM photos WHERE id = ?`)

	if err := r.db.GetContext(ctx, &p, query, id); err != nil {
		return nil, translate("photo.get_raw", "photo", id, err)
	}
	return &p, nil
}

func (r *SQLPhotoRepository) ListByChallengeID(ctx context.Context, challengeID string) ([]*domain.Photo, error) {
	photos := []*domain.Photo{}
	query := r.db.Rebind(`
		SELECT ` + photoColumns + ` FROM photos
		WHERE challenge_id = ? AND is_deleted = FALSE
		ORDER BY taken_on ASC, created_at ASC`)

	if err := r.db.SelectContext(ctx, &photos, query, challengeID); err != nil {
		return nil, translate("photo.list", "photo", "", err)
	}
	return photos, nil
}

func (r *SQLPhotoRepository) Delete(ctx context.Context, id string) error {
	now := time.Now().UTC()
	query := r.db.Rebind(`
		UPDATE photos SET is_deleted = TRUE, deleted_at = ?
		WHERE id = ? AND is_deleted = FALSE`)

	res, err := r.db.ExecContext(ctx, query, now, id)
	if err != nil {
		return translate("photo.delete", "photo", id, err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return domain.NewPersistenceError("photo.delete", err)
	}
	if rows == 0 {
		return domain.NewNotFound("photo", id)
	}
	return nil
}
