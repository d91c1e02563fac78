//go:build integration

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/cloo-solutions/docsmith/internal/domain"
	"github.com/cloo-solutions/docsmith/internal/pagination"
	"github.com/cloo-solutions/docsmith/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDocument(ref string, at time.Time, pages ...string) *domain.Document {
	return domain.NewDocument(domain.SourceTypePDF, ref, ref, pages, at.UTC().Truncate(time.Microsecond))
}

func testChunks(doc *domain.Document, vecs ...[]float32) []domain.Chunk {
	out := make([]domain.Chunk, len(vecs))
	for i, v := range vecs {
		out[i] = domain.Chunk{
			ID:         domain.ChunkID(doc.ID, i),
			DocumentID: doc.ID,
			Index:      i,
			Page:       1,
			Title:      doc.Title,
			SourceType: doc.SourceType,
			Text:       doc.Pages[0],
			Embedding:  v,
		}
	}
	return out
}

func TestVectorStore_ReplaceDocument_NoDuplicates(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	store := NewVectorStore(pool)

	doc := testDocument("requirements.pdf", time.Now(), "Users must authenticate via OAuth2")
	require.NoError(t, store.ReplaceDocument(ctx, doc, testChunks(doc, []float32{1, 0, 0}, []float32{0, 1, 0})))

	doc2 := testDocument("requirements.pdf", time.Now(), "Users must authenticate via SAML")
	require.NoError(t, store.ReplaceDocument(ctx, doc2, testChunks(doc2, []float32{0, 0, 1})))

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Documents)
	assert.Equal(t, 1, stats.Chunks)

	got, err := store.GetDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, doc2.ContentHash, got.ContentHash)
	assert.Equal(t, doc2.Pages, got.Pages)
}

func TestVectorStore_Search(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	store := NewVectorStore(pool)

	a := testDocument("a.pdf", time.Now(), "alpha")
	b := testDocument("b.pdf", time.Now(), "beta")
	require.NoError(t, store.ReplaceDocument(ctx, a, testChunks(a, []float32{1, 0}, []float32{0.7, 0.7})))
	require.NoError(t, store.ReplaceDocument(ctx, b, testChunks(b, []float32{0, 1})))

	results, err := store.Search(ctx, []float32{1, 0}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "pdf:a.pdf#0", results[0].Chunk.ID)
	assert.InDelta(t, 1.0, results[0].Score, 1e-5)
	assert.GreaterOrEqual(t, results[0].Score, results[1].Score)
	assert.Equal(t, 1, results[0].Chunk.Page)
}

func TestVectorStore_DeleteAndList(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	store := NewVectorStore(pool)
	base := time.Now().Add(-time.Hour)
	for i, ref := range []string{"a.pdf", "b.pdf", "c.pdf"} {
		d := testDocument(ref, base.Add(time.Duration(i)*time.Minute), "text")
		require.NoError(t, store.ReplaceDocument(ctx, d, testChunks(d, []float32{1, 0})))
	}

	page1, err := store.ListDocuments(ctx, nil, 2)
	require.NoError(t, err)
	require.Len(t, page1, 2)
	assert.Equal(t, "pdf:c.pdf", page1[0].ID)
	assert.Equal(t, 1, page1[0].ChunkCount)

	last := page1[1]
	page2, err := store.ListDocuments(ctx, &pagination.Cursor{LastID: last.ID, Timestamp: last.RetrievedAt}, 2)
	require.NoError(t, err)
	require.Len(t, page2, 1)
	assert.Equal(t, "pdf:a.pdf", page2[0].ID)

	require.NoError(t, store.DeleteDocument(ctx, "pdf:a.pdf"))
	assert.ErrorIs(t, store.DeleteDocument(ctx, "pdf:a.pdf"), domain.ErrDocumentNotFound)

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Documents)
	assert.Equal(t, 2, stats.Chunks)

	removed, err := store.DeleteOrphanChunks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, removed)
}

func TestVectorStore_JournalAndManifest(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	store := NewVectorStore(pool)

	m, err := store.Manifest(ctx)
	require.NoError(t, err)
	assert.Nil(t, m)

	require.NoError(t, store.SetManifest(ctx, domain.IndexManifest{EmbeddingModel: "hashing-v1", Dimensions: 384}))
	m, err = store.Manifest(ctx)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.True(t, m.Matches("hashing-v1", 384))

	id := uuid.NewString()
	require.NoError(t, store.BeginIngestion(ctx, &domain.IngestionRecord{
		ID: id, DocumentID: "pdf:a.pdf", ContentHash: "abc", State: domain.IngestionStatePending,
	}))

	pending, err := store.PendingIngestions(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "abc", pending[0].ContentHash)

	require.NoError(t, store.CompleteIngestion(ctx, id, 3))
	pending, err = store.PendingIngestions(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)

	assert.ErrorIs(t, store.FailIngestion(ctx, uuid.NewString(), "x"), domain.ErrIngestionNotFound)
}
