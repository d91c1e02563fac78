package repository

import (
	"context"
	"errors"

	"github.com/cloo-solutions/docsmith/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ManifestRepository struct {
	db dbtx
}

func NewManifestRepository(pool *pgxpool.Pool) *ManifestRepository {
	return &ManifestRepository{db: pool}
}

// Get returns the stored manifest, or nil when the index has never been written.
func (r *ManifestRepository) Get(ctx context.Context) (*domain.IndexManifest, error) {
	var m domain.IndexManifest
	err := r.db.QueryRow(ctx,
		`SELECT embedding_model, dimensions, updated_at FROM index_manifest WHERE id = 1`,
	).Scan(&m.EmbeddingModel, &m.Dimensions, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}

func (r *ManifestRepository) Set(ctx context.Context, m domain.IndexManifest) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO index_manifest (id, embedding_model, dimensions, updated_at)
		 VALUES (1, $1, $2, NOW())
		 ON CONFLICT (id) DO UPDATE SET
			embedding_model = EXCLUDED.embedding_model,
			dimensions = EXCLUDED.dimensions,
			updated_at = EXCLUDED.updated_at`,
		m.EmbeddingModel, m.Dimensions,
	)
	return err
}
