package media

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mototrade-erp/mototrade/internal/shared"
)

// Repository persists attachment metadata.
type Repository interface {
	ListByVehicle(ctx context.Context, vehicleID int64) ([]Attachment, error)
	Get(ctx context.Context, id int64) (Attachment, error)
	Create(ctx context.Context, a Attachment) (Attachment, error)
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the media repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const attachmentColumns = `id, vehicle_id, object_key, file_name, content_type, size_bytes, uploaded_by, created_at`

func scanAttachment(row pgx.Row) (Attachment, error) {
	var a Attachment
	err := row.Scan(&a.ID, &a.VehicleID, &a.ObjectKey, &a.FileName, &a.ContentType,
		&a.SizeBytes, &a.UploadedBy, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Attachment{}, shared.ErrNotFound
		}
		return Attachment{}, err
	}
	return a, nil
}

func (r *repository) ListByVehicle(ctx context.Context, vehicleID int64) ([]Attachment, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+attachmentColumns+` FROM media_attachments WHERE vehicle_id = $1 ORDER BY id`, vehicleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Attachment
	for rows.Next() {
		a, err := scanAttachment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Attachment, error) {
	return scanAttachment(r.pool.QueryRow(ctx,
		`SELECT `+attachmentColumns+` FROM media_attachments WHERE id = $1`, id))
}

func (r *repository) Create(ctx context.Context, a Attachment) (Attachment, error) {
	return scanAttachment(r.pool.QueryRow(ctx, `
		INSERT INTO media_attachments (vehicle_id, object_key, file_name, content_type, size_bytes, uploaded_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+attachmentColumns,
		a.VehicleID, a.ObjectKey, a.FileName, a.ContentType, a.SizeBytes, a.UploadedBy, time.Now().UTC()))
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM media_attachments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
