package repository

import (
	"context"
	"time"

	"github.com/cloo-solutions/docsmith/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

// IngestionRepository persists the write-ahead ingestion journal.
type IngestionRepository struct {
	db dbtx
}

func NewIngestionRepository(pool *pgxpool.Pool) *IngestionRepository {
	return &IngestionRepository{db: pool}
}

func (r *IngestionRepository) Create(ctx context.Context, rec *domain.IngestionRecord) error {
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := r.db.Exec(ctx,
		`INSERT INTO ingestion_records (id, document_id, content_hash, state, chunk_count, error, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		rec.ID, rec.DocumentID, rec.ContentHash, rec.State, rec.ChunkCount, nullableString(rec.Error), createdAt,
	)
	return err
}

// Finish moves a record to a terminal state. A negative chunkCount keeps the stored count.
func (r *IngestionRepository) Finish(ctx context.Context, id string, state domain.IngestionState, chunkCount int, reason string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE ingestion_records
		 SET state = $2,
			chunk_count = CASE WHEN $3 >= 0 THEN $3 ELSE chunk_count END,
			error = $4,
			completed_at = NOW()
		 WHERE id = $1`,
		id, state, chunkCount, nullableString(reason),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrIngestionNotFound
	}
	return nil
}

func (r *IngestionRepository) ListPending(ctx context.Context) ([]domain.IngestionRecord, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, document_id, content_hash, state, chunk_count, error, created_at, completed_at
		 FROM ingestion_records WHERE state = 'pending' ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.IngestionRecord, 0)
	for rows.Next() {
		var rec domain.IngestionRecord
		var reason *string
		if err := rows.Scan(&rec.ID, &rec.DocumentID, &rec.ContentHash, &rec.State, &rec.ChunkCount, &reason, &rec.CreatedAt, &rec.CompletedAt); err != nil {
			return nil, err
		}
		rec.Error = derefString(reason)
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *IngestionRepository) CountPending(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM ingestion_records WHERE state = 'pending'`).Scan(&n)
	return n, err
}
