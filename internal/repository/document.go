package repository

import (
	"context"
	"errors"
	"strconv"

	"github.com/cloo-solutions/docsmith/internal/domain"
	"github.com/cloo-solutions/docsmith/internal/pagination"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type DocumentRepository struct {
	db dbtx
}

func NewDocumentRepository(pool *pgxpool.Pool) *DocumentRepository {
	return &DocumentRepository{db: pool}
}

func NewDocumentRepositoryWithTx(tx pgx.Tx) *DocumentRepository {
	return &DocumentRepository{db: tx}
}

// Upsert inserts a document or overwrites the row with the same ID.
func (r *DocumentRepository) Upsert(ctx context.Context, d *domain.Document) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO documents (id, source_type, source_ref, title, pages, url, space_key, content_hash, retrieved_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (id) DO UPDATE SET
			source_type = EXCLUDED.source_type,
			source_ref = EXCLUDED.source_ref,
			title = EXCLUDED.title,
			pages = EXCLUDED.pages,
			url = EXCLUDED.url,
			space_key = EXCLUDED.space_key,
			content_hash = EXCLUDED.content_hash,
			retrieved_at = EXCLUDED.retrieved_at`,
		d.ID, d.SourceType, d.SourceRef, d.Title, d.Pages, nullableString(d.URL), nullableString(d.SpaceKey), d.ContentHash, d.RetrievedAt,
	)
	return err
}

func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	var d domain.Document
	var url, spaceKey *string
	err := r.db.QueryRow(ctx,
		`SELECT id, source_type, source_ref, title, pages, url, space_key, content_hash, retrieved_at
		 FROM documents WHERE id = $1`,
		id,
	).Scan(&d.ID, &d.SourceType, &d.SourceRef, &d.Title, &d.Pages, &url, &spaceKey, &d.ContentHash, &d.RetrievedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrDocumentNotFound
		}
		return nil, err
	}
	d.URL = derefString(url)
	d.SpaceKey = derefString(spaceKey)
	return &d, nil
}

// Delete removes a document; its chunks go with it through the foreign key.
func (r *DocumentRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrDocumentNotFound
	}
	return nil
}

// ListWithCursor returns documents newest first with their chunk counts.
func (r *DocumentRepository) ListWithCursor(ctx context.Context, cursor *pagination.Cursor, limit int) ([]domain.DocumentSummary, error) {
	query := `SELECT d.id, d.source_type, d.title, d.url, d.space_key, COALESCE(array_length(d.pages, 1), 0),
			(SELECT COUNT(*) FROM chunks c WHERE c.document_id = d.id), d.content_hash, d.retrieved_at
		 FROM documents d`
	args := []any{}
	if cursor != nil {
		query += ` WHERE (d.retrieved_at < $1 OR (d.retrieved_at = $1 AND d.id > $2))`
		args = append(args, cursor.Timestamp, cursor.LastID)
	}
	query += ` ORDER BY d.retrieved_at DESC, d.id ASC`
	if limit > 0 {
		args = append(args, limit)
		query += ` LIMIT $` + strconv.Itoa(len(args))
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.DocumentSummary, 0)
	for rows.Next() {
		var s domain.DocumentSummary
		var url, spaceKey *string
		if err := rows.Scan(&s.ID, &s.SourceType, &s.Title, &url, &spaceKey, &s.PageCount, &s.ChunkCount, &s.ContentHash, &s.RetrievedAt); err != nil {
			return nil, err
		}
		s.URL = derefString(url)
		s.SpaceKey = derefString(spaceKey)
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *DocumentRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM documents`).Scan(&n)
	return n, err
}
