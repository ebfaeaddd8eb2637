package postgres

import (
	"context"
	"database/sql"

	"github.com/baechuer/chatcpe-service/internal/application/documents"
	"github.com/baechuer/chatcpe-service/internal/domain"
)

const fileColumns = `id, user_id, filename, filetype, raw_path, size_bytes, uploaded_at`

type FileRepo struct {
	db *sql.DB
}

func NewFileRepo(db *sql.DB) *FileRepo {
	return &FileRepo{db: db}
}

var _ documents.FileRepo = (*FileRepo)(nil)

func scanFile(row rowScanner) (domain.File, error) {
	var (
		f   domain.File
		uid sql.NullInt64
	)
	err := row.Scan(&f.ID, &uid, &f.Filename, &f.FileType, &f.RawPath, &f.SizeBytes, &f.UploadedAt)
	if uid.Valid {
		id := uid.Int64
		f.UserID = &id
	}
	return f, err
}

func (r *FileRepo) CreateMany(ctx context.Context, files []domain.File) ([]domain.File, error) {
	if len(files) == 0 {
		return []domain.File{}, nil
	}

	const q = `
INSERT INTO files (user_id, filename, filetype, raw_path, size_bytes)
VALUES ($1, $2, $3, $4, $5)
RETURNING ` + fileColumns + `;
`
	out := make([]domain.File, 0, len(files))
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		for _, f := range files {
			var uid sql.NullInt64
			if f.UserID != nil {
				uid = sql.NullInt64{Int64: *f.UserID, Valid: true}
			}
			saved, err := scanFile(tx.QueryRowContext(ctx, q, uid, f.Filename, f.FileType, f.RawPath, f.SizeBytes))
			if err != nil {
				return err
			}
			out = append(out, saved)
		}
		return nil
	})
	if err != nil {
		return nil, domain.ErrDBUnavailable(err)
	}
	return out, nil
}

func (r *FileRepo) List(ctx context.Context) ([]domain.File, error) {
	const q = `SELECT ` + fileColumns + ` FROM files ORDER BY uploaded_at DESC, id DESC;`

	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, domain.ErrDBUnavailable(err)
	}
	defer rows.Close()

	out := make([]domain.File, 0)
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, domain.ErrDBUnavailable(err)
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrDBUnavailable(err)
	}
	return out, nil
}
