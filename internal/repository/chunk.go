package repository

import (
	"context"
	"time"

	"github.com/cloo-solutions/docsmith/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// ChunkRepository handles persistence of embedded document chunks.
type ChunkRepository struct {
	db dbtx
}

func NewChunkRepository(pool *pgxpool.Pool) *ChunkRepository {
	return &ChunkRepository{db: pool}
}

func NewChunkRepositoryWithTx(tx pgx.Tx) *ChunkRepository {
	return &ChunkRepository{db: tx}
}

// ReplaceChunks deletes existing chunks for a document and inserts new ones.
func (r *ChunkRepository) ReplaceChunks(ctx context.Context, documentID string, chunks []domain.Chunk) error {
	_, err := r.db.Exec(ctx, `DELETE FROM chunks WHERE document_id = $1`, documentID)
	if err != nil {
		return err
	}

	for _, c := range chunks {
		createdAt := c.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}
		_, err := r.db.Exec(ctx,
			`INSERT INTO chunks
				(id, document_id, chunk_index, page, title, source_type, url, content, embedding, created_at)
			 VALUES
				($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			c.ID,
			c.DocumentID,
			c.Index,
			c.Page,
			c.Title,
			c.SourceType,
			nullableString(c.URL),
			c.Text,
			pgvector.NewVector(c.Embedding),
			createdAt,
		)
		if err != nil {
			return err
		}
	}

	return nil
}

// Search orders chunks by cosine distance to embedding. Score is reported as
// cosine similarity (1 - distance).
func (r *ChunkRepository) Search(ctx context.Context, embedding []float32, k int) ([]domain.ScoredChunk, error) {
	rows, err := r.db.Query(ctx,
		`SELECT c.id, c.document_id, c.chunk_index, c.page, c.title, c.source_type, c.url, c.content, c.created_at,
			1 - (c.embedding <=> $1) AS score
		 FROM chunks c
		 JOIN documents d ON d.id = c.document_id
		 ORDER BY c.embedding <=> $1, c.id
		 LIMIT $2`,
		pgvector.NewVector(embedding), k,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.ScoredChunk, 0, k)
	for rows.Next() {
		var sc domain.ScoredChunk
		var url *string
		var score float64
		if err := rows.Scan(
			&sc.Chunk.ID, &sc.Chunk.DocumentID, &sc.Chunk.Index, &sc.Chunk.Page, &sc.Chunk.Title,
			&sc.Chunk.SourceType, &url, &sc.Chunk.Text, &sc.Chunk.CreatedAt, &score,
		); err != nil {
			return nil, err
		}
		sc.Chunk.URL = derefString(url)
		sc.Score = float32(score)
		out = append(out, sc)
	}
	return out, rows.Err()
}

func (r *ChunkRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM chunks`).Scan(&n)
	return n, err
}

// DeleteOrphans removes chunks whose document row is gone.
func (r *ChunkRepository) DeleteOrphans(ctx context.Context) (int, error) {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM chunks c WHERE NOT EXISTS (SELECT 1 FROM documents d WHERE d.id = c.document_id)`)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}
